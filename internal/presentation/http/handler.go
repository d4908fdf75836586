package httppresentation

import (
	"encoding/json"
	"net/http"

	"github.com/Zhima-Mochi/foodtruck/internal/application"
	appCombo "github.com/Zhima-Mochi/foodtruck/internal/application/combo"
	appSales "github.com/Zhima-Mochi/foodtruck/internal/application/sales"
	domainMenu "github.com/Zhima-Mochi/foodtruck/internal/domain/menu"
	"github.com/Zhima-Mochi/foodtruck/internal/infrastructure/sessiontoken"
	"github.com/Zhima-Mochi/foodtruck/internal/observability"
	"github.com/Zhima-Mochi/foodtruck/internal/observability/logctx"
	"github.com/Zhima-Mochi/foodtruck/internal/pkg/httputil"
	"github.com/Zhima-Mochi/foodtruck/internal/presentation/render"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	componentHTTPHandler = "http_server"
	maxFormBytes         = 1 << 16

	NoticeEmptySelection = "No items selected for purchase"
	NoticeInFlight       = "Your purchase is already being processed"
	NoticeSubmission     = "Purchase failed. Please try again."
	NoticeUnboundRow     = "That item is no longer on the menu. Please choose again."
	NoticeSessionExpired = "Your session expired. Please start again."
	NoticeInvalidRow     = "Please choose an item from the menu."
	NoticeUnexpected     = "Something went wrong. Please try again."
)

// Deps are the collaborators of the HTTP surface.
type Deps struct {
	Combo    *appCombo.Service
	Submit   application.UseCase[appCombo.SubmitComboInput, *appCombo.SubmitComboResult]
	Menu     application.UseCase[struct{}, *domainMenu.Menu]
	Sales    *appSales.Service
	Renderer *render.Renderer
	Tokens   *sessiontoken.Signer
}

type Handler struct {
	combo    *appCombo.Service
	submit   application.UseCase[appCombo.SubmitComboInput, *appCombo.SubmitComboResult]
	menu     application.UseCase[struct{}, *domainMenu.Menu]
	sales    *appSales.Service
	renderer *render.Renderer
	tokens   *sessiontoken.Signer
	errMap   *httputil.ErrorMapper

	log          observability.Logger
	httpRequests observability.Counter   // http_requests_total{method,route,status}
	httpDuration observability.Histogram // http_request_duration_seconds{method,route,status}
}

func NewHandler(deps Deps, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	renderer := deps.Renderer
	if renderer == nil {
		renderer = render.MustNew()
	}
	return &Handler{
		combo:    deps.Combo,
		submit:   deps.Submit,
		menu:     deps.Menu,
		sales:    deps.Sales,
		renderer: renderer,
		tokens:   deps.Tokens,
		errMap: httputil.NewErrorMapper().
			WithMapping(appCombo.ErrEmptySelection, http.StatusUnprocessableEntity, NoticeEmptySelection).
			WithMapping(appCombo.ErrSubmissionInFlight, http.StatusConflict, NoticeInFlight).
			WithMapping(appCombo.ErrUnboundRow, http.StatusConflict, NoticeUnboundRow).
			WithMapping(appCombo.ErrSubmission, http.StatusBadGateway, NoticeSubmission).
			WithMapping(appCombo.ErrSessionNotFound, http.StatusNotFound, NoticeSessionExpired).
			WithMapping(domainMenu.ErrInvalidRowKey, http.StatusBadRequest, NoticeInvalidRow).
			WithDefault(http.StatusInternalServerError, NoticeUnexpected),
		log:          tel.Logger().With(observability.F("component", componentHTTPHandler)),
		httpRequests: tel.Metrics().Counter(observability.MHTTPRequests),
		httpDuration: tel.Metrics().Histogram(observability.MHTTPRequestDuration),
	}
}

// Router wires each route with middlewares:
// Trace → ObservabilityMiddleware (request logger) → HTTP metrics → Access log → Handler
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(
		h.withTrace,
		ObservabilityMiddleware(h.log, func(r *http.Request) string {
			return r.Header.Get(headerRequestID)
		}),
		h.withHTTPMetrics,
		h.withAccessLog,
		middleware.Recoverer,
	)

	r.Get("/health", h.handleHealth)
	r.Get("/api/sales", h.handleSales)

	r.Group(func(r chi.Router) {
		r.Use(h.withSession)
		r.Get("/", h.handleIndex)
		r.Post("/combo/toggle", h.handleToggle)
		r.Post("/combo/clear", h.handleClear)
		r.Post("/combo/purchase", h.handlePurchase)
		r.Get("/api/combo", h.handleComboState)
	})

	return r
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, "")
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	row := r.PostForm.Get("row")
	if _, _, err := domainMenu.ParseRowKey(row); err != nil {
		h.renderFailure(w, r, err)
		return
	}
	if _, err := h.combo.Toggle(r.Context(), session.ID, row); err != nil {
		h.renderFailure(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	if err := h.combo.Clear(r.Context(), session.ID); err != nil {
		h.renderFailure(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	if _, err := h.submit.Execute(r.Context(), appCombo.SubmitComboInput{SessionID: session.ID}); err != nil {
		h.renderFailure(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// renderFailure shows the page again with the mapped status and notice. The selection is left as it was.
func (h *Handler) renderFailure(w http.ResponseWriter, r *http.Request, err error) {
	info := h.errMap.Map(err)
	logger := logctx.FromOr(r.Context(), h.log)
	if info.Status >= http.StatusInternalServerError {
		logger.Error("request_failed", observability.F("status", info.Status), observability.F("error", err))
	} else {
		logger.Info("request_rejected", observability.F("status", info.Status), observability.F("error", err))
	}
	h.renderPage(w, r, info.Status, info.Message)
}

// renderPage loads the menu, renders the page and, once it was delivered, binds the rendered rows
// to the session. A failed fetch unbinds every row so stale rows cannot toggle anything.
func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, notice string) {
	ctx := r.Context()
	logger := logctx.FromOr(ctx, h.log)
	session := sessionFromContext(ctx)

	m, fetchErr := h.menu.Execute(ctx, struct{}{})
	if fetchErr != nil {
		logger.Warn("menu_fetch_failed", observability.F("error", fetchErr))
	}

	snap := session.Selection.Snapshot()
	fragment, err := h.renderer.Combo(m, snap, fetchErr)
	if err != nil {
		logger.Error("combo_render_failed", observability.F("error", err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	page := render.Page{
		Combo:    fragment,
		Total:    snap.Total(),
		Notice:   notice,
		InFlight: session.Submitting(),
		Receipts: session.Receipts(),
	}
	if h.sales != nil {
		page.Sales = h.sales.Monthly()
	}

	pw := &pageWriter{ResponseWriter: w, status: status}
	err = h.renderer.Page(pw, page, func() {
		if fragment.Bindable() {
			session.Bind(fragment.Bindings())
			return
		}
		session.Unbind()
	})
	if err != nil {
		logger.Error("page_render_failed", observability.F("error", err))
		if !pw.started {
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	}
}

// pageWriter sends the status line on the first write, so a template failure can still become a 500.
type pageWriter struct {
	http.ResponseWriter
	status  int
	started bool
}

func (w *pageWriter) Write(b []byte) (int, error) {
	if !w.started {
		w.started = true
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.ResponseWriter.WriteHeader(w.status)
	}
	return w.ResponseWriter.Write(b)
}

type itemResponse struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Price string `json:"price"`
}

type comboStateResponse struct {
	Entree    *itemResponse `json:"entree"`
	Vegetable *itemResponse `json:"vegetable"`
	Side      *itemResponse `json:"side"`
	Total     string        `json:"total"`
	Receipts  int           `json:"receipts"`
	InFlight  bool          `json:"in_flight"`
}

func toItemResponse(item *domainMenu.Item) *itemResponse {
	if item == nil {
		return nil
	}
	return &itemResponse{ID: item.ID, Label: item.Label, Price: item.Price.StringFixed(2)}
}

func (h *Handler) handleComboState(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	view, err := h.combo.View(r.Context(), session.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comboStateResponse{
		Entree:    toItemResponse(view.Selection.Get(domainMenu.Entrees)),
		Vegetable: toItemResponse(view.Selection.Get(domainMenu.Vegetables)),
		Side:      toItemResponse(view.Selection.Get(domainMenu.Sides)),
		Total:     view.Total.StringFixed(2),
		Receipts:  len(view.Receipts),
		InFlight:  session.Submitting(),
	})
}

type monthlySalesResponse struct {
	Month   string `json:"month"`
	Count   int    `json:"count"`
	Revenue string `json:"revenue"`
}

func (h *Handler) handleSales(w http.ResponseWriter, _ *http.Request) {
	out := []monthlySalesResponse{}
	if h.sales != nil {
		for _, m := range h.sales.Monthly() {
			out = append(out, monthlySalesResponse{Month: m.Month, Count: m.Count, Revenue: m.Revenue.StringFixed(2)})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	info := h.errMap.Map(err)
	if info.Status >= http.StatusInternalServerError {
		logctx.FromOr(r.Context(), h.log).Error("request_failed", observability.F("error", err))
	}
	writeJSON(w, info.Status, map[string]string{"error": info.Message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
