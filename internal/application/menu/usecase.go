package menu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/foodtruck/internal/application"
	domain "github.com/Zhima-Mochi/foodtruck/internal/domain/menu"
	"github.com/Zhima-Mochi/foodtruck/internal/observability"
	"github.com/Zhima-Mochi/foodtruck/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const (
	useCaseMenuLoad = "menu.load"
	spanPrefix      = "UC."
	menuPeer        = "menu-api"
)

// ErrFetch marks a menu that could not be assembled because a category read failed.
var ErrFetch = errors.New("menu: fetch failed")

// LoadMenuUseCase reads every category concurrently and returns the menu only when all three succeed.
type LoadMenuUseCase struct {
	source Source
	tel    observability.Observability
	log    observability.Logger

	reqCounter   observability.Counter
	durHistogram observability.Histogram
	extCounter   observability.Counter
	extHistogram observability.Histogram
}

func NewLoadMenuUseCase(source Source, tel observability.Observability) *LoadMenuUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return &LoadMenuUseCase{
		source:       source,
		tel:          tel,
		log:          tel.Logger().With(observability.F("use_case", useCaseMenuLoad)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

type fetchFunc func(context.Context) ([]domain.Item, error)

// Execute performs the all-or-nothing join. On failure no partial menu is returned.
func (uc *LoadMenuUseCase) Execute(ctx context.Context, _ struct{}) (_ *domain.Menu, err error) {
	logger := logctx.FromOr(ctx, uc.log)
	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"LoadMenu",
		attribute.String("use_case", useCaseMenuLoad),
	)
	start := time.Now()

	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, "FETCH_FAILED")
			logger.Warn("menu_load_failed", observability.F("error", err))
		} else {
			span.SetStatus(codes.Ok, "OK")
		}
		span.End()
		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseMenuLoad),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(time.Since(start).Seconds(),
			observability.L("use_case", useCaseMenuLoad),
		)
	}()

	var m domain.Menu
	g, gctx := errgroup.WithContext(ctx)
	uc.fetch(gctx, g, "/entrees", uc.source.Entrees, &m.Entrees)
	uc.fetch(gctx, g, "/vegetables", uc.source.Vegetables, &m.Vegetables)
	uc.fetch(gctx, g, "/sides", uc.source.Sides, &m.Sides)

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	if !m.Complete() {
		return nil, fmt.Errorf("%w: %w", ErrFetch, domain.ErrIncomplete)
	}
	return &m, nil
}

func (uc *LoadMenuUseCase) fetch(ctx context.Context, g *errgroup.Group, endpoint string, read fetchFunc, dst *[]domain.Item) {
	g.Go(func() error {
		start := time.Now()
		items, err := read(ctx)
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		uc.extCounter.Add(1,
			observability.L("peer", menuPeer),
			observability.L("endpoint", endpoint),
			observability.L("outcome", outcome),
		)
		uc.extHistogram.Observe(time.Since(start).Seconds(),
			observability.L("peer", menuPeer),
			observability.L("endpoint", endpoint),
		)
		if err != nil {
			return fmt.Errorf("%s: %w", endpoint, err)
		}
		*dst = items
		return nil
	})
}

var _ application.UseCase[struct{}, *domain.Menu] = (*LoadMenuUseCase)(nil)
