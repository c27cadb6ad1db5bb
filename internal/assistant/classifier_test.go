package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		utterance string
		want      Intent
	}{
		{"clear my order", IntentClearOrder},
		{"please remove all items", IntentClearOrder},
		{"can we start over", IntentClearOrder},
		{"who are you", IntentIdentity},
		{"are you a robot or what", IntentIdentity},
		{"hu r u", IntentIdentity},
		{"my order is done", IntentEndOfOrder},
		{"ok place order now", IntentEndOfOrder},
		{"murder is done", IntentEndOfOrder},
		{"that's all", IntentEndOfOrder},
		{"what is the price of coke", IntentPriceQuery},
		{"price of burger please", IntentPriceQuery},
		{"i want two burgers", IntentMutation},
		{"remove one pizza", IntentMutation},
		{"hello there", IntentMutation},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, Classify(tc.utterance), "utterance: %q", tc.utterance)
	}
}

func TestClassifyPriority(t *testing.T) {
	// "cancel all" clears even though "cancel" alone would be a removal.
	assert.Equal(t, IntentClearOrder, Classify("cancel all of it"))

	// A clear phrase wins over a price mention.
	assert.Equal(t, IntentClearOrder, Classify("clear my order whatever the price"))

	// An end phrase wins over a price mention.
	assert.Equal(t, IntentEndOfOrder, Classify("place order at any price"))
}

func TestIntentString(t *testing.T) {
	assert.Equal(t, "mutation", IntentMutation.String())
	assert.Equal(t, "clear_order", IntentClearOrder.String())
	assert.Equal(t, "identity", IntentIdentity.String())
	assert.Equal(t, "end_of_order", IntentEndOfOrder.String())
	assert.Equal(t, "price_query", IntentPriceQuery.String())
}
