package assistant

import (
	"strconv"
	"strings"
)

// numberWords maps spelled-out quantities to values, including speech-to-text
// misrecognitions commonly produced for "two" and "four".
var numberWords = map[string]int{
	"one":   1,
	"two":   2,
	"three": 3,
	"four":  4,
	"five":  5,
	"six":   6,
	"seven": 7,
	"eight": 8,
	"nine":  9,
	"ten":   10,
	"n1":    1,
	"n2":    2,
	"n3":    3,
	"n4":    4,
	"n5":    5,
	"tu":    2,
	"for":   4,
	"to":    2,
}

// knownItems is the detection vocabulary, multi-word names first so that
// "chicken burger" is not swallowed by "burger". Only the first name found
// in an utterance is acted on.
var knownItems = []string{
	"chicken burger",
	"margherita pizza",
	"loaded fries",
	"garlic bread",
	"onion rings",
	"milkshake",
	"smoothie",
	"burger",
	"pizza",
	"fries",
	"pasta",
	"salad",
	"coke",
	"bbq burger",
	"hot dog",
	"veggie wrap",
}

// priceQueryItems is the vocabulary for "what's the price of X" questions.
var priceQueryItems = []string{
	"burger",
	"chicken burger",
	"pizza",
	"margherita pizza",
	"fries",
	"loaded fries",
	"pasta",
	"salad",
	"garlic bread",
	"coke",
	"onion rings",
	"milkshake",
	"smoothie",
	"bbq burger",
	"hot dog",
	"veggie wrap",
}

// detectItem finds the first known item mentioned in the lowercased utterance
// and the quantity spoken directly before it. Exactly one preceding token is
// inspected; an unparseable token defaults the quantity to one.
func detectItem(lower string) (name string, qty int, ok bool) {
	words := strings.Fields(lower)

	for _, itemName := range knownItems {
		if !strings.Contains(lower, itemName) {
			continue
		}

		qty = 1
		if idx := itemTokenIndex(words, itemName); idx > 0 {
			qty = parseQuantity(words[idx-1])
		}
		return itemName, qty, true
	}
	return "", 0, false
}

// parseQuantity reads a single token as a quantity: an integer literal first,
// then the number-word table, defaulting to one. Quantities below one are
// meaningless in an order and also read as one.
func parseQuantity(token string) int {
	if n, err := strconv.Atoi(token); err == nil {
		if n < 1 {
			return 1
		}
		return n
	}
	if n, ok := numberWords[token]; ok {
		return n
	}
	return 1
}

// itemTokenIndex locates the first token of the item name within the word
// list. Tokens match by containment so trailing punctuation and plural "s"
// do not break detection ("pizzas" still locates "pizza").
func itemTokenIndex(words []string, itemName string) int {
	parts := strings.Fields(itemName)

	for i := range words {
		if len(parts) == 1 {
			if strings.Contains(words[i], parts[0]) {
				return i
			}
			continue
		}
		if i+len(parts) > len(words) {
			continue
		}
		matched := true
		for off, part := range parts {
			if !strings.Contains(words[i+off], part) {
				matched = false
				break
			}
		}
		if matched {
			return i
		}
	}
	return -1
}
