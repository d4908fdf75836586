package sale

import (
	"errors"

	"github.com/Zhima-Mochi/foodtruck/internal/domain/combo"
	"github.com/Zhima-Mochi/foodtruck/internal/domain/menu"
	"github.com/shopspring/decimal"
)

var ErrEmptyRequest = errors.New("sale: purchase request has no items")

// Line is one purchased item as it travels to and from the purchase endpoint.
type Line struct {
	Label string
	Price decimal.Decimal
}

// PurchaseRequest is the order built from a selection snapshot at submission time.
type PurchaseRequest struct {
	Entrees    []Line
	Vegetables []Line
	Sides      []Line
	Total      decimal.Decimal
}

// NewPurchaseRequest converts a snapshot into a request whose total is the sum of its line prices.
func NewPurchaseRequest(snap combo.Snapshot) (PurchaseRequest, error) {
	if snap.IsEmpty() {
		return PurchaseRequest{}, ErrEmptyRequest
	}
	req := PurchaseRequest{
		Entrees:    lines(snap.Entree),
		Vegetables: lines(snap.Vegetable),
		Sides:      lines(snap.Side),
		Total:      snap.Total(),
	}
	return req, nil
}

func lines(item *menu.Item) []Line {
	if item == nil {
		return []Line{}
	}
	return []Line{{Label: item.Label, Price: item.Price}}
}

// Lines returns the request lines for c.
func (r PurchaseRequest) Lines(c menu.Category) []Line {
	switch c {
	case menu.Entrees:
		return r.Entrees
	case menu.Vegetables:
		return r.Vegetables
	case menu.Sides:
		return r.Sides
	default:
		return nil
	}
}

// Sale is the confirmed purchase echoed back by the API. It is rendered once and never mutated.
type Sale struct {
	ID         string
	Total      decimal.Decimal
	Entrees    []Line
	Vegetables []Line
	Sides      []Line
}

func (s *Sale) Lines(c menu.Category) []Line {
	switch c {
	case menu.Entrees:
		return s.Entrees
	case menu.Vegetables:
		return s.Vegetables
	case menu.Sides:
		return s.Sides
	default:
		return nil
	}
}
