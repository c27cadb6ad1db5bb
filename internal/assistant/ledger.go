package assistant

// Line is one entry in an in-progress order. UnitPrice is the catalog price
// at the moment the line was first added; it is display history only and is
// never rewritten by later adds or price changes.
type Line struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// Ledger is the per-session list of ordered items. Lines keep insertion
// order; duplicates of the same canonical name are always merged into one
// line, and a line whose quantity reaches zero is removed, never retained.
type Ledger struct {
	lines []Line
}

// RemoveOutcome describes what a Remove call did.
type RemoveOutcome int

const (
	// RemoveMissing means no line with that name exists.
	RemoveMissing RemoveOutcome = iota
	// RemoveAll means the whole line was deleted.
	RemoveAll
	// RemoveSome means the line's quantity was decremented in place.
	RemoveSome
)

// Add merges the quantity into an existing line for the name or appends a
// new one. The existing line's unit price is kept as-is. Quantities below
// one are ignored so a line never exists with quantity zero.
func (l *Ledger) Add(name string, unitPrice float64, quantity int) {
	if quantity < 1 {
		return
	}
	for i := range l.lines {
		if l.lines[i].Name == name {
			l.lines[i].Quantity += quantity
			return
		}
	}
	l.lines = append(l.lines, Line{Name: name, UnitPrice: unitPrice, Quantity: quantity})
}

// Remove takes quantity off the named line. Removing at least the line's
// current quantity deletes it entirely; the quantity never goes negative.
// The returned count is how many units were actually removed.
func (l *Ledger) Remove(name string, quantity int) (RemoveOutcome, int) {
	if quantity < 1 {
		return RemoveMissing, 0
	}
	for i := range l.lines {
		if l.lines[i].Name != name {
			continue
		}
		if quantity >= l.lines[i].Quantity {
			removed := l.lines[i].Quantity
			l.lines = append(l.lines[:i], l.lines[i+1:]...)
			return RemoveAll, removed
		}
		l.lines[i].Quantity -= quantity
		return RemoveSome, quantity
	}
	return RemoveMissing, 0
}

// Clear empties the ledger. Clearing an empty ledger is a no-op.
func (l *Ledger) Clear() {
	l.lines = nil
}

// Total sums quantity times unit-price-at-add-time over all lines. Used for
// the final bill message; live displays recompute against current prices.
func (l *Ledger) Total() float64 {
	var total float64
	for _, line := range l.lines {
		total += float64(line.Quantity) * line.UnitPrice
	}
	return total
}

// Lines returns a copy of the lines in insertion order.
func (l *Ledger) Lines() []Line {
	out := make([]Line, len(l.lines))
	copy(out, l.lines)
	return out
}

// Len returns the number of lines.
func (l *Ledger) Len() int {
	return len(l.lines)
}
