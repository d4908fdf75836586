package sale

import (
	"errors"
	"testing"
	"time"

	"github.com/Zhima-Mochi/foodtruck/internal/domain/combo"
	"github.com/Zhima-Mochi/foodtruck/internal/domain/menu"
	"github.com/shopspring/decimal"
)

func TestNewPurchaseRequestFromSnapshot(t *testing.T) {
	snap := combo.Snapshot{
		Entree: &menu.Item{ID: 1, Label: "Falafel", Price: decimal.RequireFromString("5.00")},
		Side:   &menu.Item{ID: 3, Label: "Pita", Price: decimal.RequireFromString("2.50")},
	}

	req, err := NewPurchaseRequest(snap)
	if err != nil {
		t.Fatalf("NewPurchaseRequest: %v", err)
	}
	if len(req.Entrees) != 1 || req.Entrees[0].Label != "Falafel" {
		t.Fatalf("unexpected entrees %+v", req.Entrees)
	}
	if req.Vegetables == nil || len(req.Vegetables) != 0 {
		t.Fatalf("vegetables must be an empty list, got %#v", req.Vegetables)
	}
	if !req.Total.Equal(decimal.RequireFromString("7.50")) {
		t.Fatalf("expected total 7.50, got %s", req.Total)
	}

	sum := decimal.Zero
	for _, c := range menu.Categories() {
		for _, l := range req.Lines(c) {
			sum = sum.Add(l.Price)
		}
	}
	if !sum.Equal(req.Total) {
		t.Fatalf("total %s differs from line sum %s", req.Total, sum)
	}
}

func TestNewPurchaseRequestRejectsEmptySnapshot(t *testing.T) {
	if _, err := NewPurchaseRequest(combo.Snapshot{}); !errors.Is(err, ErrEmptyRequest) {
		t.Fatalf("expected ErrEmptyRequest, got %v", err)
	}
}

func TestRecordedEventCountsLines(t *testing.T) {
	s := &Sale{
		ID:      "42",
		Total:   decimal.RequireFromString("9.75"),
		Entrees: []Line{{Label: "Falafel"}},
		Sides:   []Line{{Label: "Pita"}, {Label: "Hummus"}},
	}
	evt := NewRecordedEvent(s, "s-1", time.Date(2026, 10, 15, 9, 0, 0, 0, time.FixedZone("X", 3600)))
	if evt.Items != 3 || evt.SaleID != "42" || evt.OccurredAt.Location() != time.UTC {
		t.Fatalf("unexpected event %+v", evt)
	}
	if evt.EventName() != "sale.recorded" {
		t.Fatalf("unexpected event name %q", evt.EventName())
	}
}
