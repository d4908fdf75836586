package combo

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/Zhima-Mochi/foodtruck/internal/application"
	domain "github.com/Zhima-Mochi/foodtruck/internal/domain/combo"
	domoutbox "github.com/Zhima-Mochi/foodtruck/internal/domain/outbox"
	"github.com/Zhima-Mochi/foodtruck/internal/domain/sale"
	"github.com/Zhima-Mochi/foodtruck/internal/observability"
	"github.com/Zhima-Mochi/foodtruck/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	comboService        = "combo-service"
	useCaseComboSubmit  = "combo.submit"
	spanPrefix          = "UC."
	purchasePeer        = "menu-api"
	purchaseEndpoint    = "/purchases"
	publishTimeout      = 300 * time.Millisecond
	statusEmptySelected = "EMPTY_SELECTION"
)

// SubmitComboUseCase validates the session's selection, submits it as a purchase and, on success,
// appends the receipt and clears the selection. Failures leave the selection untouched.
type SubmitComboUseCase struct {
	repo      domain.Repository
	gateway   PurchaseGateway
	receipts  ReceiptRenderer
	publisher domoutbox.Publisher
	tel       observability.Observability
	now       func() time.Time

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewSubmitComboUseCase(
	repo domain.Repository,
	gateway PurchaseGateway,
	receipts ReceiptRenderer,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *SubmitComboUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return &SubmitComboUseCase{
		repo:         repo,
		gateway:      gateway,
		receipts:     receipts,
		publisher:    publisher,
		tel:          tel,
		now:          time.Now,
		log:          tel.Logger().With(observability.F("service", comboService)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

type SubmitComboInput struct {
	SessionID string
}

type SubmitComboResult struct {
	Sale    *sale.Sale
	Receipt domain.Receipt
}

// Execute runs one submission attempt. Each call is independent; only one may be in flight per session.
func (uc *SubmitComboUseCase) Execute(ctx context.Context, cmd SubmitComboInput) (_ *SubmitComboResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseComboSubmit),
		observability.F("session_id", cmd.SessionID),
	)

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"SubmitCombo",
		attribute.String("use_case", useCaseComboSubmit),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var total string

	defer func() {
		lat := time.Since(start).Seconds()

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseComboSubmit),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCaseComboSubmit),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if total != "" {
			fields = append(fields, observability.F("total", total))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
			logger.Warn("use_case_done", fields...)
			return
		}
		logger.Info("use_case_done", fields...)
	}()

	session, err := uc.repo.Get(ctx, cmd.SessionID)
	if err != nil {
		outcome, statusText = "error", "SESSION_NOT_FOUND"
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("combo: load session: %w", err)
	}

	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	if !session.BeginSubmit() {
		outcome, statusText = "rejected", "IN_FLIGHT"
		return nil, ErrSubmissionInFlight
	}
	defer session.EndSubmit()

	// Validating
	snap := session.Selection.Snapshot()
	if snap.IsEmpty() {
		outcome, statusText = "rejected", statusEmptySelected
		return nil, ErrEmptySelection
	}

	req, err := sale.NewPurchaseRequest(snap)
	if err != nil {
		outcome, statusText = "rejected", statusEmptySelected
		return nil, fmt.Errorf("%w: %w", ErrEmptySelection, err)
	}
	total = req.Total.StringFixed(2)
	span.SetAttributes(attribute.String("combo.total", total))

	// Submitting. Caller cancellation does not reach the purchase call; the client timeout bounds it.
	created, err := uc.submit(context.WithoutCancel(ctx), req)
	if err != nil {
		outcome, statusText = "error", "SUBMISSION_FAILED"
		return nil, fmt.Errorf("%w: %w", ErrSubmission, err)
	}

	// ReceiptRendered
	receipt := domain.Receipt{SaleID: created.ID, Block: uc.renderReceipt(logger, created)}
	session.AppendReceipt(receipt)
	session.Selection.Clear()
	session.Touch(uc.now())

	span.AddEvent("combo.purchased",
		trace.WithAttributes(attribute.String("sale.id", created.ID)),
	)
	uc.publish(ctx, logger, sale.NewRecordedEvent(created, session.ID, uc.now()))

	return &SubmitComboResult{Sale: created, Receipt: receipt}, nil
}

func (uc *SubmitComboUseCase) submit(ctx context.Context, req sale.PurchaseRequest) (*sale.Sale, error) {
	start := time.Now()
	created, err := uc.gateway.SubmitPurchase(ctx, req)
	if err == nil && created == nil {
		err = errors.New("empty sale in response")
	}

	extOutcome := "success"
	if err != nil {
		extOutcome = "error"
	}
	uc.extCounter.Add(1,
		observability.L("peer", purchasePeer),
		observability.L("endpoint", purchaseEndpoint),
		observability.L("outcome", extOutcome),
	)
	uc.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", purchasePeer),
		observability.L("endpoint", purchaseEndpoint),
	)
	return created, err
}

// renderReceipt never fails the purchase: the sale already exists, so a plain block stands in.
func (uc *SubmitComboUseCase) renderReceipt(logger observability.Logger, s *sale.Sale) string {
	if uc.receipts != nil {
		block, err := uc.receipts.Receipt(s)
		if err == nil {
			return block
		}
		logger.Error("receipt_render_failed",
			observability.F("sale_id", s.ID),
			observability.F("error", err),
		)
	}
	return fmt.Sprintf(`<div class="customerOrder"><p>Receipt #%s - $%s</p></div>`,
		html.EscapeString(s.ID), s.Total.StringFixed(2))
}

func (uc *SubmitComboUseCase) publish(ctx context.Context, logger observability.Logger, e domoutbox.Event) {
	if uc.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := uc.publisher.Publish(pubCtx, e); err != nil {
		logger.Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err),
		)
	}
}

var _ application.UseCase[SubmitComboInput, *SubmitComboResult] = (*SubmitComboUseCase)(nil)
