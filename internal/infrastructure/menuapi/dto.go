package menuapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Zhima-Mochi/foodtruck/internal/domain/menu"
	"github.com/Zhima-Mochi/foodtruck/internal/domain/sale"
	"github.com/shopspring/decimal"
)

// amount is a decimal that travels as a bare JSON number, the way the menu API stores prices.
type amount decimal.Decimal

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).String()), nil
}

func (a *amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*a = amount(d)
	return nil
}

// saleID accepts numeric and string identifiers.
type saleID string

func (id *saleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = saleID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("sale id %s: %w", b, err)
	}
	*id = saleID(strconv.FormatInt(n, 10))
	return nil
}

type entreeDTO struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Price amount `json:"price"`
}

type vegetableDTO struct {
	ID    int    `json:"id"`
	Type  string `json:"type"`
	Price amount `json:"price"`
}

type sideDTO struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Price amount `json:"price"`
}

func (d entreeDTO) item() menu.Item {
	return menu.Item{ID: d.ID, Label: d.Name, Price: decimal.Decimal(d.Price)}
}

func (d vegetableDTO) item() menu.Item {
	return menu.Item{ID: d.ID, Label: d.Type, Price: decimal.Decimal(d.Price)}
}

func (d sideDTO) item() menu.Item {
	return menu.Item{ID: d.ID, Label: d.Title, Price: decimal.Decimal(d.Price)}
}

type entreeLine struct {
	Name  string `json:"name"`
	Price amount `json:"price"`
}

type vegetableLine struct {
	Type  string `json:"type"`
	Price amount `json:"price"`
}

type sideLine struct {
	Title string `json:"title"`
	Price amount `json:"price"`
}

type purchaseDTO struct {
	Entrees    []entreeLine    `json:"entrees"`
	Vegetables []vegetableLine `json:"vegetables"`
	Sides      []sideLine      `json:"sides"`
	Total      amount          `json:"total"`
}

type saleDTO struct {
	ID         saleID          `json:"id"`
	Total      amount          `json:"total"`
	Entrees    []entreeLine    `json:"entrees"`
	Vegetables []vegetableLine `json:"vegetables"`
	Sides      []sideLine      `json:"sides"`
}

func newPurchaseDTO(req sale.PurchaseRequest) purchaseDTO {
	dto := purchaseDTO{
		Entrees:    make([]entreeLine, 0, len(req.Entrees)),
		Vegetables: make([]vegetableLine, 0, len(req.Vegetables)),
		Sides:      make([]sideLine, 0, len(req.Sides)),
		Total:      amount(req.Total),
	}
	for _, l := range req.Entrees {
		dto.Entrees = append(dto.Entrees, entreeLine{Name: l.Label, Price: amount(l.Price)})
	}
	for _, l := range req.Vegetables {
		dto.Vegetables = append(dto.Vegetables, vegetableLine{Type: l.Label, Price: amount(l.Price)})
	}
	for _, l := range req.Sides {
		dto.Sides = append(dto.Sides, sideLine{Title: l.Label, Price: amount(l.Price)})
	}
	return dto
}

func (d saleDTO) sale() *sale.Sale {
	s := &sale.Sale{
		ID:         string(d.ID),
		Total:      decimal.Decimal(d.Total),
		Entrees:    make([]sale.Line, 0, len(d.Entrees)),
		Vegetables: make([]sale.Line, 0, len(d.Vegetables)),
		Sides:      make([]sale.Line, 0, len(d.Sides)),
	}
	for _, l := range d.Entrees {
		s.Entrees = append(s.Entrees, sale.Line{Label: l.Name, Price: decimal.Decimal(l.Price)})
	}
	for _, l := range d.Vegetables {
		s.Vegetables = append(s.Vegetables, sale.Line{Label: l.Type, Price: decimal.Decimal(l.Price)})
	}
	for _, l := range d.Sides {
		s.Sides = append(s.Sides, sale.Line{Label: l.Title, Price: decimal.Decimal(l.Price)})
	}
	return s
}
