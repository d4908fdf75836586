package combo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domain "github.com/Zhima-Mochi/foodtruck/internal/domain/combo"
	"github.com/Zhima-Mochi/foodtruck/internal/domain/menu"
	domoutbox "github.com/Zhima-Mochi/foodtruck/internal/domain/outbox"
	"github.com/Zhima-Mochi/foodtruck/internal/domain/sale"
	"github.com/Zhima-Mochi/foodtruck/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/foodtruck/internal/infrastructure/menuapi"
	"github.com/shopspring/decimal"
)

type sequentialIDs struct{ n atomic.Int64 }

func (s *sequentialIDs) NewID() string { return "session-" + strconv.FormatInt(s.n.Add(1), 10) }

type fakeGateway struct {
	mu       sync.Mutex
	requests []sale.PurchaseRequest
	err      error
	block    chan struct{}
	entered  chan struct{}
}

func (g *fakeGateway) SubmitPurchase(ctx context.Context, req sale.PurchaseRequest) (*sale.Sale, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	n := len(g.requests)
	g.mu.Unlock()

	if g.entered != nil {
		g.entered <- struct{}{}
	}
	if g.block != nil {
		<-g.block
	}
	if g.err != nil {
		return nil, g.err
	}
	return &sale.Sale{
		ID:         strconv.Itoa(n),
		Total:      req.Total,
		Entrees:    req.Entrees,
		Vegetables: req.Vegetables,
		Sides:      req.Sides,
	}, nil
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

type fakeReceipts struct{ err error }

func (r fakeReceipts) Receipt(s *sale.Sale) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "receipt " + s.ID + " " + s.Total.StringFixed(2), nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type fixture struct {
	repo      *memory.SessionRepository
	service   *Service
	gateway   *fakeGateway
	publisher *fakePublisher
	submit    *SubmitComboUseCase
	session   *domain.Session

	falafel, shawarma, okra, pita *menu.Item
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:      memory.NewSessionRepository(),
		gateway:   &fakeGateway{},
		publisher: &fakePublisher{},
		falafel:   &menu.Item{ID: 1, Label: "Falafel", Price: decimal.RequireFromString("5.00")},
		shawarma:  &menu.Item{ID: 2, Label: "Shawarma", Price: decimal.RequireFromString("7.00")},
		okra:      &menu.Item{ID: 4, Label: "Okra", Price: decimal.RequireFromString("1.25")},
		pita:      &menu.Item{ID: 9, Label: "Pita", Price: decimal.RequireFromString("2.50")},
	}
	f.service = NewService(f.repo, &sequentialIDs{}, nil)
	f.submit = NewSubmitComboUseCase(f.repo, f.gateway, fakeReceipts{}, f.publisher, nil)

	session, created, err := f.service.OpenSession(context.Background(), "")
	if err != nil || !created {
		t.Fatalf("OpenSession: %v created=%v", err, created)
	}
	session.Bind([]domain.Binding{
		{Key: "entrees-1", Category: menu.Entrees, Item: f.falafel},
		{Key: "entrees-2", Category: menu.Entrees, Item: f.shawarma},
		{Key: "vegetables-4", Category: menu.Vegetables, Item: f.okra},
		{Key: "sides-9", Category: menu.Sides, Item: f.pita},
	})
	f.session = session
	return f
}

func (f *fixture) toggle(t *testing.T, row string) domain.Snapshot {
	t.Helper()
	snap, err := f.service.Toggle(context.Background(), f.session.ID, row)
	if err != nil {
		t.Fatalf("Toggle(%s): %v", row, err)
	}
	return snap
}

func TestOpenSessionReusesKnownSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	again, created, err := f.service.OpenSession(ctx, f.session.ID)
	if err != nil || created || again != f.session {
		t.Fatalf("expected existing session, got %v created=%v err=%v", again, created, err)
	}

	fresh, created, err := f.service.OpenSession(ctx, "expired-session")
	if err != nil || !created || fresh.ID == "expired-session" {
		t.Fatalf("expected a new session, got %+v created=%v err=%v", fresh, created, err)
	}
}

func TestToggleThroughBindings(t *testing.T) {
	f := newFixture(t)

	f.toggle(t, "entrees-1")
	snap := f.toggle(t, "entrees-2")
	if snap.Entree != f.shawarma {
		t.Fatalf("expected shawarma to replace falafel, got %+v", snap.Entree)
	}

	f.toggle(t, "sides-9")
	view, err := f.service.View(context.Background(), f.session.ID)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if !view.Total.Equal(decimal.RequireFromString("9.50")) {
		t.Fatalf("expected 9.50, got %s", view.Total)
	}

	if _, err := f.service.Toggle(context.Background(), f.session.ID, "sides-404"); !errors.Is(err, ErrUnboundRow) {
		t.Fatalf("expected ErrUnboundRow, got %v", err)
	}
	if _, err := f.service.Toggle(context.Background(), "nobody", "sides-9"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	f.toggle(t, "entrees-1")
	if err := f.service.Clear(context.Background(), f.session.ID); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if !f.session.Selection.IsEmpty() {
		t.Fatal("selection not cleared")
	}
}

func TestSubmitEmptySelectionMakesNoCall(t *testing.T) {
	f := newFixture(t)

	_, err := f.submit.Execute(context.Background(), SubmitComboInput{SessionID: f.session.ID})
	if !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
	if f.gateway.calls() != 0 {
		t.Fatalf("expected no gateway call, got %d", f.gateway.calls())
	}
	if len(f.session.Receipts()) != 0 {
		t.Fatal("no receipt expected")
	}
}

func TestSubmitSuccessAppendsReceiptAndClears(t *testing.T) {
	f := newFixture(t)
	f.toggle(t, "entrees-1")
	f.toggle(t, "sides-9")

	res, err := f.submit.Execute(context.Background(), SubmitComboInput{SessionID: f.session.ID})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	req := f.gateway.requests[0]
	if !req.Total.Equal(decimal.RequireFromString("7.50")) {
		t.Fatalf("expected submitted total 7.50, got %s", req.Total)
	}
	if len(req.Entrees) != 1 || req.Entrees[0].Label != "Falafel" || len(req.Vegetables) != 0 || len(req.Sides) != 1 {
		t.Fatalf("unexpected request %+v", req)
	}

	receipts := f.session.Receipts()
	if len(receipts) != 1 || receipts[0] != res.Receipt || receipts[0].Block != "receipt 1 7.50" {
		t.Fatalf("expected exactly one receipt, got %+v", receipts)
	}
	if !f.session.Selection.IsEmpty() || !f.session.Selection.Total().IsZero() {
		t.Fatalf("selection not cleared: %+v", f.session.Selection.Snapshot())
	}

	if len(f.publisher.events) != 1 {
		t.Fatalf("expected one event, got %d", len(f.publisher.events))
	}
	evt, ok := f.publisher.events[0].(sale.RecordedEvent)
	if !ok || evt.SaleID != "1" || evt.SessionID != f.session.ID || evt.Items != 2 {
		t.Fatalf("unexpected event %+v", f.publisher.events[0])
	}

	// a second purchase appends after the first
	f.toggle(t, "vegetables-4")
	if _, err := f.submit.Execute(context.Background(), SubmitComboInput{SessionID: f.session.ID}); err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	receipts = f.session.Receipts()
	if len(receipts) != 2 || receipts[0].SaleID != "1" || receipts[1].SaleID != "2" {
		t.Fatalf("receipts must be append-only, got %+v", receipts)
	}
}

func TestSubmitFailureKeepsSelection(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = errors.New("menu api: /purchases responded 500")
	f.toggle(t, "entrees-2")
	f.toggle(t, "vegetables-4")
	before := f.session.Selection.Snapshot()

	_, err := f.submit.Execute(context.Background(), SubmitComboInput{SessionID: f.session.ID})
	if !errors.Is(err, ErrSubmission) {
		t.Fatalf("expected ErrSubmission, got %v", err)
	}
	if after := f.session.Selection.Snapshot(); after != before {
		t.Fatalf("selection changed after failure: %+v -> %+v", before, after)
	}
	if len(f.session.Receipts()) != 0 || len(f.publisher.events) != 0 {
		t.Fatal("failed submission must not render receipts or publish")
	}

	// the user can retry once the endpoint recovers
	f.gateway.err = nil
	if _, err := f.submit.Execute(context.Background(), SubmitComboInput{SessionID: f.session.ID}); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(f.session.Receipts()) != 1 {
		t.Fatal("expected receipt after retry")
	}
}

func TestSubmitRejectsOverlappingAttempts(t *testing.T) {
	f := newFixture(t)
	f.gateway.block = make(chan struct{})
	f.gateway.entered = make(chan struct{}, 1)
	f.toggle(t, "entrees-1")

	done := make(chan error, 1)
	go func() {
		_, err := f.submit.Execute(context.Background(), SubmitComboInput{SessionID: f.session.ID})
		done <- err
	}()

	select {
	case <-f.gateway.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first submission never reached the gateway")
	}

	if _, err := f.submit.Execute(context.Background(), SubmitComboInput{SessionID: f.session.ID}); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight, got %v", err)
	}

	close(f.gateway.block)
	if err := <-done; err != nil {
		t.Fatalf("first submission: %v", err)
	}
	if f.gateway.calls() != 1 {
		t.Fatalf("expected a single order, got %d", f.gateway.calls())
	}
}

func TestSubmitSurvivesReceiptAndPublishFailures(t *testing.T) {
	f := newFixture(t)
	f.submit = NewSubmitComboUseCase(f.repo, f.gateway, fakeReceipts{err: errors.New("template")}, f.publisher, nil)
	f.publisher.err = errors.New("bus stopped")
	f.toggle(t, "sides-9")

	res, err := f.submit.Execute(context.Background(), SubmitComboInput{SessionID: f.session.ID})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Receipt.Block != `<div class="customerOrder"><p>Receipt #1 - $2.50</p></div>` {
		t.Fatalf("unexpected fallback block %q", res.Receipt.Block)
	}
	if !f.session.Selection.IsEmpty() {
		t.Fatal("selection must be cleared once the sale exists")
	}
}

func TestSubmitUnknownSession(t *testing.T) {
	f := newFixture(t)
	if _, err := f.submit.Execute(context.Background(), SubmitComboInput{SessionID: "ghost"}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestPruneIdle(t *testing.T) {
	f := newFixture(t)
	f.service.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	removed, err := f.service.PruneIdle(context.Background(), 24*time.Hour)
	if err != nil || removed != 1 {
		t.Fatalf("PruneIdle = %d, %v", removed, err)
	}
}

func TestSubmitCompletesWhenCallerGoesAway(t *testing.T) {
	var mu sync.Mutex
	recorded := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		recorded++
		mu.Unlock()
		time.Sleep(200 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 7, "total": 5, "entrees": [{"name": "Falafel", "price": 5}], "vegetables": [], "sides": []}`))
	}))
	defer srv.Close()

	f := newFixture(t)
	client := menuapi.NewClient(srv.URL, 5*time.Second, nil, nil)
	f.submit = NewSubmitComboUseCase(f.repo, client, fakeReceipts{}, f.publisher, nil)
	f.toggle(t, "entrees-1")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res, err := f.submit.Execute(ctx, SubmitComboInput{SessionID: f.session.ID})
	if err != nil {
		t.Fatalf("a sale recorded by the API must not be reported as failed: %v", err)
	}
	mu.Lock()
	calls := recorded
	mu.Unlock()
	if calls != 1 || res.Sale.ID != "7" {
		t.Fatalf("expected one recorded sale with id 7, got calls=%d sale=%+v", calls, res.Sale)
	}
	if len(f.session.Receipts()) != 1 || !f.session.Selection.IsEmpty() {
		t.Fatalf("expected receipt and cleared selection, got receipts=%d empty=%v",
			len(f.session.Receipts()), f.session.Selection.IsEmpty())
	}
}

func TestSubmitWithCancelledCallerMakesNoCall(t *testing.T) {
	f := newFixture(t)
	f.toggle(t, "entrees-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.submit.Execute(ctx, SubmitComboInput{SessionID: f.session.ID}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if f.gateway.calls() != 0 || f.session.Submitting() {
		t.Fatalf("expected no call and no submission left in flight")
	}
	if f.session.Selection.IsEmpty() {
		t.Fatal("selection must be kept")
	}
}
