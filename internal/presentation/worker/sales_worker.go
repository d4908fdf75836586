package workerpresentation

import (
	"context"

	"github.com/Zhima-Mochi/foodtruck/internal/application/sales"
	domoutbox "github.com/Zhima-Mochi/foodtruck/internal/domain/outbox"
	"github.com/Zhima-Mochi/foodtruck/internal/domain/sale"
	"github.com/Zhima-Mochi/foodtruck/internal/observability"
	"github.com/Zhima-Mochi/foodtruck/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const salesWorker = "sales_worker"

// SalesWorker consumes sale.recorded events from the bus.
type SalesWorker struct {
	subscriber domoutbox.Subscriber
	service    *sales.Service
	tel        observability.Observability
	log        observability.Logger
}

func NewSalesWorker(subscriber domoutbox.Subscriber, service *sales.Service, tel observability.Observability) *SalesWorker {
	if tel == nil {
		tel = observability.Nop()
	}
	return &SalesWorker{
		subscriber: subscriber,
		service:    service,
		tel:        tel,
		log:        tel.Logger().With(observability.F("component", salesWorker)),
	}
}

func (w *SalesWorker) Start() {
	if w.subscriber == nil || w.service == nil {
		return
	}
	w.subscriber.Subscribe(sale.RecordedEvent{}.EventName(), w.handleSaleRecorded)
}

func (w *SalesWorker) handleSaleRecorded(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(sale.RecordedEvent)
	if !ok {
		return nil
	}

	ctx, span := w.tel.Tracer().Start(ctx, "Worker.SaleRecorded",
		attribute.String("sale.id", evt.SaleID),
	)
	defer span.End()

	sc := trace.SpanContextFromContext(ctx)
	ctx = WithEventContext(ctx, logctx.FromOr(ctx, w.log), sc.TraceID(), sc.SpanID(), map[string]string{
		"event":      e.EventName(),
		"session_id": evt.SessionID,
	})

	if err := w.service.Record(ctx, evt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "RECORD_FAILED")
		logctx.FromOr(ctx, w.log).Warn("sale_record_failed", observability.F("error", err))
		return err
	}
	span.SetStatus(codes.Ok, "OK")
	return nil
}
