// Package mix holds the user's pile as an ordered set of ingredient parts.
package mix

import (
	"fmt"

	"github.com/hammamikhairi/compostcoach/internal/domain"
)

// Resolver reports whether an ingredient id exists.
type Resolver interface {
	Get(id string) (domain.Ingredient, error)
}

// MaxParts caps the parts of a single entry so totals cannot overflow.
const MaxParts = 1_000_000

// Mix is an insertion-ordered collection of MixEntry values with at most one
// entry per ingredient. It is not safe for concurrent use.
type Mix struct {
	catalog    Resolver
	entries    []domain.MixEntry
	generation uint64
}

// New creates an empty mix that validates ids against catalog.
func New(catalog Resolver) *Mix {
	return &Mix{catalog: catalog}
}

// Add increments the entry for id by one part, or appends {id, 1}. An
// entry already at MaxParts is left alone.
func (m *Mix) Add(id string) error {
	if _, err := m.catalog.Get(id); err != nil {
		return fmt.Errorf("adding to mix: %w", err)
	}

	if i := m.index(id); i >= 0 {
		if m.entries[i].Parts >= MaxParts {
			return nil
		}
		m.entries[i].Parts++
	} else {
		m.entries = append(m.entries, domain.MixEntry{IngredientID: id, Parts: 1})
	}
	m.generation++
	return nil
}

// AdjustParts adds delta to the entry's parts, clamped to [1, MaxParts].
// Removing an ingredient is only possible through Remove.
func (m *Mix) AdjustParts(id string, delta int) error {
	i := m.index(id)
	if i < 0 {
		return fmt.Errorf("adjusting %q: %w", id, domain.ErrNotFound)
	}

	parts := m.entries[i].Parts
	var next int
	switch {
	case delta > MaxParts-parts:
		next = MaxParts
	case delta < 1-parts:
		next = 1
	default:
		next = parts + delta
	}
	if next != parts {
		m.entries[i].Parts = next
		m.generation++
	}
	return nil
}

// Remove deletes the entry for id. Absent ids are ignored.
func (m *Mix) Remove(id string) {
	if i := m.index(id); i >= 0 {
		m.entries = append(m.entries[:i], m.entries[i+1:]...)
		m.generation++
	}
}

// Clear empties the mix.
func (m *Mix) Clear() {
	if len(m.entries) == 0 {
		return
	}
	m.entries = nil
	m.generation++
}

// Entries returns a snapshot of the mix in insertion order.
func (m *Mix) Entries() []domain.MixEntry {
	out := make([]domain.MixEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of distinct ingredients.
func (m *Mix) Len() int { return len(m.entries) }

// Parts returns the parts recorded for id, or 0 if absent.
func (m *Mix) Parts(id string) int {
	if i := m.index(id); i >= 0 {
		return m.entries[i].Parts
	}
	return 0
}

// Generation increases whenever the entries change. Calls that leave the
// mix as it was do not advance it.
func (m *Mix) Generation() uint64 { return m.generation }

func (m *Mix) index(id string) int {
	for i, e := range m.entries {
		if e.IngredientID == id {
			return i
		}
	}
	return -1
}
