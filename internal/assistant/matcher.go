package assistant

import (
	"strings"

	"khanabuddy/internal/catalog"
)

// family maps a generic spoken name to the surface variants it may appear as
// in the catalog. Declaration order is the fallback matching order.
type family struct {
	key      string
	variants []string
}

// aliasTable tolerates vocabulary drift between what callers say and how the
// catalog spells items ("cook" is a frequent misrecognition of "coke").
var aliasTable = []family{
	{"burger", []string{"burger", "bbq burger", "beef burger"}},
	{"pizza", []string{"pizza", "margherita pizza", "pepperoni pizza", "cheese pizza"}},
	{"fries", []string{"fries", "french fries", "loaded fries"}},
	{"pasta", []string{"pasta", "spaghetti", "penne pasta"}},
	{"salad", []string{"salad", "caesar salad", "garden salad"}},
	{"garlic bread", []string{"garlic bread", "bread"}},
	{"coke", []string{"coke", "coca cola", "cola", "cook"}},
	{"chicken burger", []string{"chicken burger"}},
	{"margherita pizza", []string{"margherita pizza"}},
	{"loaded fries", []string{"loaded fries"}},
	{"onion rings", []string{"onion rings"}},
	{"milkshake", []string{"milkshake", "shake"}},
	{"smoothie", []string{"smoothie"}},
}

// mentions reports whether the spoken mention names this family, either by
// its key or by any of its variants ("cook" selects the coke family).
func (f family) mentions(lower string) bool {
	if lower == f.key || strings.Contains(lower, f.key) {
		return true
	}
	for _, variant := range f.variants {
		if lower == variant || strings.Contains(lower, variant) {
			return true
		}
	}
	return false
}

// Match is the result of resolving a spoken item mention against the catalog.
type Match struct {
	Found         bool
	Available     bool
	CanonicalName string
	Price         float64
	Quantity      int
}

// MatchItem resolves a mention to a catalog entry. An exact case-insensitive
// match on the canonical name wins outright; otherwise the alias table is
// scanned in declaration order and the first catalog item carrying one of the
// matching family's variants is taken. Zero-stock entries are still found,
// only reported unavailable.
func MatchItem(mention string, cache *catalog.Cache) Match {
	lower := strings.ToLower(strings.TrimSpace(mention))
	if lower == "" {
		return Match{}
	}

	if item, ok := cache.Get(lower); ok {
		return Match{
			Found:         true,
			Available:     item.Quantity > 0,
			CanonicalName: item.ItemName,
			Price:         item.Price,
			Quantity:      item.Quantity,
		}
	}

	for _, fam := range aliasTable {
		if !fam.mentions(lower) {
			continue
		}
		for _, item := range cache.Items() {
			name := strings.ToLower(item.ItemName)
			for _, variant := range fam.variants {
				if name == variant || strings.Contains(name, variant) {
					return Match{
						Found:         true,
						Available:     item.Quantity > 0,
						CanonicalName: item.ItemName,
						Price:         item.Price,
						Quantity:      item.Quantity,
					}
				}
			}
		}
	}

	return Match{}
}
