package combo

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Zhima-Mochi/foodtruck/internal/domain/menu"
	"github.com/shopspring/decimal"
)

var ErrNilItem = errors.New("combo: item is required")

// Selection records the chosen item per category. Each slot holds at most one item; choosing another
// item in the same category replaces it and choosing the current item again empties the slot.
type Selection struct {
	mu         sync.RWMutex
	entrees    *menu.Item
	vegetables *menu.Item
	sides      *menu.Item
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{}
}

// slot returns the field backing c. Callers hold s.mu.
func (s *Selection) slot(c menu.Category) (**menu.Item, error) {
	switch c {
	case menu.Entrees:
		return &s.entrees, nil
	case menu.Vegetables:
		return &s.vegetables, nil
	case menu.Sides:
		return &s.sides, nil
	default:
		return nil, fmt.Errorf("%w: %q", menu.ErrUnknownCategory, c)
	}
}

// Toggle removes item when it is already the selection for c, otherwise makes it the selection.
func (s *Selection) Toggle(c menu.Category, item *menu.Item) error {
	if item == nil {
		return ErrNilItem
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slot, err := s.slot(c)
	if err != nil {
		return err
	}
	if current := *slot; current != nil && current.ID == item.ID {
		*slot = nil
		return nil
	}
	*slot = item
	return nil
}

// Clear empties every category.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entrees, s.vegetables, s.sides = nil, nil, nil
}

// Selected returns the current item for c.
func (s *Selection) Selected(c menu.Category) (*menu.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, err := s.slot(c)
	if err != nil || *slot == nil {
		return nil, false
	}
	return *slot, true
}

func (s *Selection) IsEmpty() bool {
	return s.Snapshot().IsEmpty()
}

// Total is the sum of the prices of every selected item.
func (s *Selection) Total() decimal.Decimal {
	return s.Snapshot().Total()
}

// Snapshot captures the three slots atomically.
func (s *Selection) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Entree: s.entrees, Vegetable: s.vegetables, Side: s.sides}
}

// Snapshot is an immutable view of a selection at one instant.
type Snapshot struct {
	Entree    *menu.Item
	Vegetable *menu.Item
	Side      *menu.Item
}

// Get returns the item chosen for c, nil when the slot is empty.
func (s Snapshot) Get(c menu.Category) *menu.Item {
	switch c {
	case menu.Entrees:
		return s.Entree
	case menu.Vegetables:
		return s.Vegetable
	case menu.Sides:
		return s.Side
	default:
		return nil
	}
}

func (s Snapshot) IsEmpty() bool {
	return s.Entree == nil && s.Vegetable == nil && s.Side == nil
}

func (s Snapshot) Total() decimal.Decimal {
	total := decimal.Zero
	for _, c := range menu.Categories() {
		if item := s.Get(c); item != nil {
			total = total.Add(item.Price)
		}
	}
	return total
}
