package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectItem(t *testing.T) {
	testCases := []struct {
		utterance string
		wantName  string
		wantQty   int
		wantOK    bool
	}{
		{"i want 3 pizzas", "pizza", 3, true},
		{"one burger please", "burger", 1, true},
		{"give me three fries", "fries", 3, true},
		{"two chicken burger", "chicken burger", 2, true},
		{"add a coke", "coke", 1, true},
		{"pizza", "pizza", 1, true},
		{"remove two pizza please", "pizza", 2, true},
		{"nothing i recognize", "", 0, false},
		{"", "", 0, false},
	}

	for _, tc := range testCases {
		name, qty, ok := detectItem(tc.utterance)
		assert.Equal(t, tc.wantOK, ok, "utterance: %q", tc.utterance)
		assert.Equal(t, tc.wantName, name, "utterance: %q", tc.utterance)
		assert.Equal(t, tc.wantQty, qty, "utterance: %q", tc.utterance)
	}
}

func TestDetectItemMultiWordFirst(t *testing.T) {
	// "chicken burger" must not be swallowed by the shorter "burger".
	name, qty, ok := detectItem("i would like one chicken burger")
	assert.True(t, ok)
	assert.Equal(t, "chicken burger", name)
	assert.Equal(t, 1, qty)
}

func TestDetectItemMisrecognizedQuantity(t *testing.T) {
	// Speech-to-text often turns "two" into "tu" or "to".
	name, qty, ok := detectItem("tu coke")
	assert.True(t, ok)
	assert.Equal(t, "coke", name)
	assert.Equal(t, 2, qty)

	_, qty, _ = detectItem("for fries")
	assert.Equal(t, 4, qty)
}

func TestParseQuantity(t *testing.T) {
	assert.Equal(t, 5, parseQuantity("5"))
	assert.Equal(t, 3, parseQuantity("three"))
	assert.Equal(t, 10, parseQuantity("ten"))
	assert.Equal(t, 2, parseQuantity("n2"))
	assert.Equal(t, 1, parseQuantity("some"))
	assert.Equal(t, 1, parseQuantity(""))

	// Non-positive literals read as one, never as a zero or negative order.
	assert.Equal(t, 1, parseQuantity("0"))
	assert.Equal(t, 1, parseQuantity("-3"))
}

func TestItemTokenIndex(t *testing.T) {
	words := []string{"i", "want", "3", "pizzas", "now"}
	assert.Equal(t, 3, itemTokenIndex(words, "pizza"))

	words = []string{"two", "chicken", "burgers"}
	assert.Equal(t, 1, itemTokenIndex(words, "chicken burger"))

	words = []string{"no", "match", "here"}
	assert.Equal(t, -1, itemTokenIndex(words, "pizza"))
}
