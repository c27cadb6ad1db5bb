package assistant

import "strings"

// Intent is the category assigned to one caller utterance.
type Intent int

const (
	// IntentMutation is the default: the utterance is treated as an
	// add/remove request against the order.
	IntentMutation Intent = iota
	IntentClearOrder
	IntentIdentity
	IntentEndOfOrder
	IntentPriceQuery
)

func (i Intent) String() string {
	switch i {
	case IntentClearOrder:
		return "clear_order"
	case IntentIdentity:
		return "identity"
	case IntentEndOfOrder:
		return "end_of_order"
	case IntentPriceQuery:
		return "price_query"
	default:
		return "mutation"
	}
}

// Phrase lists include common speech-to-text misrecognitions
// ("murder is done" for "my order is done").
var clearPhrases = []string{
	"clear all",
	"clear everything",
	"remove all",
	"delete all",
	"cancel all",
	"clear my order",
	"start over",
	"reset order",
}

var identityPhrases = []string{
	"are you an ai",
	"are you artificial intelligence",
	"are you a bot",
	"are you a robot",
	"are you human",
	"what are you",
	"who are you",
	"hu r u",
	"are you ai",
}

var endPhrases = []string{
	"my order is done",
	"place order",
	"order done",
	"submit order",
	"finish order",
	"murder is done",
	"complete order",
	"order completed",
	"that's all",
	"take my order",
	"my order is finished",
}

// Classify tags a lowercased utterance with exactly one intent. Matching is
// substring containment against fixed phrase lists, checked in priority
// order; once a list matches, later lists are not consulted.
func Classify(lower string) Intent {
	if containsAny(lower, clearPhrases) {
		return IntentClearOrder
	}
	if containsAny(lower, identityPhrases) {
		return IntentIdentity
	}
	if containsAny(lower, endPhrases) {
		return IntentEndOfOrder
	}
	if strings.Contains(lower, "price") {
		return IntentPriceQuery
	}
	return IntentMutation
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
