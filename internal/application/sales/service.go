package sales

import (
	"context"

	"github.com/Zhima-Mochi/foodtruck/internal/domain/sale"
	"github.com/Zhima-Mochi/foodtruck/internal/observability"
	"github.com/Zhima-Mochi/foodtruck/internal/observability/logctx"
)

const componentSales = "sales_service"

// Service folds recorded sales into the monthly ledger and the sales metrics.
type Service struct {
	ledger *Ledger
	log    observability.Logger

	salesCounter   observability.Counter // sales_recorded_total{month}
	revenueCounter observability.Counter // sales_revenue_total{month}
}

func NewService(ledger *Ledger, tel observability.Observability) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	if ledger == nil {
		ledger = NewLedger()
	}
	return &Service{
		ledger:         ledger,
		log:            tel.Logger().With(observability.F("component", componentSales)),
		salesCounter:   tel.Metrics().Counter(observability.MSalesRecorded),
		revenueCounter: tel.Metrics().Counter(observability.MSalesRevenue),
	}
}

// Record adds the sale to the tally once; redelivered events are ignored.
func (s *Service) Record(ctx context.Context, evt sale.RecordedEvent) error {
	logger := logctx.FromOr(ctx, s.log)

	if !s.ledger.Record(evt.SaleID, evt.Total, evt.OccurredAt) {
		logger.Debug("sale_already_recorded", observability.F("sale_id", evt.SaleID))
		return nil
	}

	month := evt.OccurredAt.UTC().Format("2006-01")
	revenue, _ := evt.Total.Float64()
	s.salesCounter.Add(1, observability.L("month", month))
	if revenue >= 0 {
		s.revenueCounter.Add(revenue, observability.L("month", month))
	} else {
		// Counters only grow; the ledger still carries the adjustment.
		logger.Warn("sale_negative_total",
			observability.F("sale_id", evt.SaleID),
			observability.F("total", evt.Total.StringFixed(2)),
		)
	}

	logger.Info("sale_recorded",
		observability.F("sale_id", evt.SaleID),
		observability.F("month", month),
		observability.F("total", evt.Total.StringFixed(2)),
		observability.F("items", evt.Items),
	)
	return nil
}

// Monthly returns the tally, most recent month first.
func (s *Service) Monthly() []MonthlySales {
	return s.ledger.Months()
}
