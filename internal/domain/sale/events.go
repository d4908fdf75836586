package sale

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordedEvent is emitted once a purchase was confirmed and its receipt shown.
type RecordedEvent struct {
	SaleID     string
	SessionID  string
	Total      decimal.Decimal
	Items      int
	OccurredAt time.Time
}

func (RecordedEvent) EventName() string { return "sale.recorded" }

func NewRecordedEvent(s *Sale, sessionID string, now time.Time) RecordedEvent {
	return RecordedEvent{
		SaleID:     s.ID,
		SessionID:  sessionID,
		Total:      s.Total,
		Items:      len(s.Entrees) + len(s.Vegetables) + len(s.Sides),
		OccurredAt: now.UTC(),
	}
}
