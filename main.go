package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appCombo "github.com/Zhima-Mochi/foodtruck/internal/application/combo"
	appMenu "github.com/Zhima-Mochi/foodtruck/internal/application/menu"
	appSales "github.com/Zhima-Mochi/foodtruck/internal/application/sales"
	"github.com/Zhima-Mochi/foodtruck/internal/config"
	"github.com/Zhima-Mochi/foodtruck/internal/infrastructure/id"
	"github.com/Zhima-Mochi/foodtruck/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/foodtruck/internal/infrastructure/menuapi"
	infraObs "github.com/Zhima-Mochi/foodtruck/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/foodtruck/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/foodtruck/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/foodtruck/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/foodtruck/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/foodtruck/internal/infrastructure/sessiontoken"
	"github.com/Zhima-Mochi/foodtruck/internal/observability"
	"github.com/Zhima-Mochi/foodtruck/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/foodtruck/internal/presentation/http"
	"github.com/Zhima-Mochi/foodtruck/internal/presentation/render"
	workerpresentation "github.com/Zhima-Mochi/foodtruck/internal/presentation/worker"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

const sessionSweepInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	baseLogger := logging.MustNewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	registry := prometrics.New("", prometheus.DefaultRegisterer)
	tel := infraObs.New(
		oteltrace.New(cfg.ServiceName),
		zaplogger.New(baseLogger),
		map[observability.MetricKey]observability.Counter{
			observability.MUsecaseRequests: registry.Counter(string(observability.MUsecaseRequests),
				"Total number of use case invocations.", "use_case", "outcome"),
			observability.MHTTPRequests: registry.Counter(string(observability.MHTTPRequests),
				"Total number of HTTP requests.", "method", "route", "status"),
			observability.MExternalRequests: registry.Counter(string(observability.MExternalRequests),
				"Total number of calls to the menu API.", "peer", "endpoint", "outcome"),
			observability.MSalesRecorded: registry.Counter(string(observability.MSalesRecorded),
				"Confirmed sales per month.", "month"),
			observability.MSalesRevenue: registry.Counter(string(observability.MSalesRevenue),
				"Revenue of confirmed sales per month.", "month"),
		},
		map[observability.MetricKey]observability.Histogram{
			observability.MUsecaseDuration: registry.Histogram(string(observability.MUsecaseDuration),
				"Duration of use case execution in seconds.", nil, "use_case"),
			observability.MHTTPRequestDuration: registry.Histogram(string(observability.MHTTPRequestDuration),
				"Duration of HTTP requests in seconds.", nil, "method", "route", "status"),
			observability.MExternalRequestDuration: registry.Histogram(string(observability.MExternalRequestDuration),
				"Duration of menu API calls in seconds.", nil, "peer", "endpoint"),
		},
	)

	secret := cfg.Session.Secret
	if secret == "" {
		secret = uuid.NewString() + uuid.NewString()
		systemLogger.Warn("session_secret_generated")
	}
	tokens, err := sessiontoken.NewSigner(secret, cfg.Session.TTL)
	if err != nil {
		systemLogger.Fatal("session_signer_error", zap.Error(err))
	}

	// In-memory event bus, feeds the monthly sales tally
	bus := outbox.NewBus(tel.Logger())
	salesService := appSales.NewService(appSales.NewLedger(), tel)
	workerpresentation.NewSalesWorker(bus, salesService, tel).Start()
	bus.Start(context.Background())
	defer func() { _ = bus.Stop(context.Background()) }()

	client := menuapi.NewClient(cfg.MenuAPI.BaseURL, cfg.MenuAPI.Timeout, nil, tel.Logger())
	sessions := memory.NewSessionRepository()
	renderer := render.MustNew()
	comboService := appCombo.NewService(sessions, id.NewUUIDGenerator(), tel.Logger())

	handler := httppresentation.NewHandler(httppresentation.Deps{
		Combo:    comboService,
		Submit:   appCombo.NewSubmitComboUseCase(sessions, client, renderer, bus, tel),
		Menu:     appMenu.NewLoadMenuUseCase(client, tel),
		Sales:    salesService,
		Renderer: renderer,
		Tokens:   tokens,
	}, tel)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweepSessions(ctx, comboService, cfg.Session.TTL, systemLogger)

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
			zap.String("menu_api", cfg.MenuAPI.BaseURL),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}
}

// sweepSessions drops idle page-view sessions until ctx is done.
func sweepSessions(ctx context.Context, svc *appCombo.Service, ttl time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.PruneIdle(ctx, ttl); err != nil {
				logger.Warn("session_sweep_failed", zap.Error(err))
			}
		}
	}
}
