package menuapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Zhima-Mochi/foodtruck/internal/domain/sale"
	"github.com/shopspring/decimal"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", time.Second, nil, nil)
}

func TestCategoryReadsUseCategoryFieldNames(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s", r.Method)
		}
		switch r.URL.Path {
		case "/entrees":
			_, _ = io.WriteString(w, `[{"id":1,"name":"Falafel","price":5},{"id":2,"name":"Shawarma","price":7.25}]`)
		case "/vegetables":
			_, _ = io.WriteString(w, `[{"id":4,"type":"Okra","price":1.5}]`)
		case "/sides":
			_, _ = io.WriteString(w, `[{"id":9,"title":"Pita","price":"2.50"}]`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	entrees, err := client.Entrees(ctx)
	if err != nil {
		t.Fatalf("Entrees: %v", err)
	}
	if len(entrees) != 2 || entrees[1].Label != "Shawarma" || !entrees[1].Price.Equal(decimal.RequireFromString("7.25")) {
		t.Fatalf("unexpected entrees %+v", entrees)
	}

	vegetables, err := client.Vegetables(ctx)
	if err != nil || len(vegetables) != 1 || vegetables[0].Label != "Okra" {
		t.Fatalf("Vegetables = %+v, %v", vegetables, err)
	}

	sides, err := client.Sides(ctx)
	if err != nil || len(sides) != 1 || sides[0].Label != "Pita" || sides[0].ID != 9 {
		t.Fatalf("Sides = %+v, %v", sides, err)
	}
}

func TestCategoryReadFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name:    "status",
			handler: func(w http.ResponseWriter, _ *http.Request) { http.Error(w, "down", http.StatusServiceUnavailable) },
			want:    ErrUnexpectedStatus,
		},
		{
			name:    "not json",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "<html>") },
			want:    ErrMalformedPayload,
		},
		{
			name:    "object instead of array",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, `{"id":1}`) },
			want:    ErrMalformedPayload,
		},
		{
			name:    "null",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, `null`) },
			want:    ErrMalformedPayload,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, tc.handler)
			if _, err := client.Entrees(context.Background()); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCategoryReadTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client := NewClient(srv.URL, time.Second, nil, nil)
	srv.Close()

	if _, err := client.Sides(context.Background()); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestSubmitPurchaseSendsCategoryShapedBody(t *testing.T) {
	var body map[string]json.RawMessage
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/purchases" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":17,"total":7.5,"entrees":[{"name":"Falafel","price":5}],"vegetables":[],"sides":[{"title":"Pita","price":2.5}]}`)
	})

	got, err := client.SubmitPurchase(context.Background(), sale.PurchaseRequest{
		Entrees:    []sale.Line{{Label: "Falafel", Price: decimal.RequireFromString("5.00")}},
		Vegetables: []sale.Line{},
		Sides:      []sale.Line{{Label: "Pita", Price: decimal.RequireFromString("2.50")}},
		Total:      decimal.RequireFromString("7.50"),
	})
	if err != nil {
		t.Fatalf("SubmitPurchase: %v", err)
	}

	if string(body["entrees"]) != `[{"name":"Falafel","price":5}]` {
		t.Fatalf("unexpected entrees body %s", body["entrees"])
	}
	if string(body["vegetables"]) != `[]` {
		t.Fatalf("unexpected vegetables body %s", body["vegetables"])
	}
	if string(body["sides"]) != `[{"title":"Pita","price":2.5}]` {
		t.Fatalf("unexpected sides body %s", body["sides"])
	}
	if string(body["total"]) != `7.5` {
		t.Fatalf("total must be a bare number, got %s", body["total"])
	}

	if got.ID != "17" || !got.Total.Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("unexpected sale %+v", got)
	}
	if len(got.Sides) != 1 || got.Sides[0].Label != "Pita" {
		t.Fatalf("unexpected sale sides %+v", got.Sides)
	}
}

func TestSubmitPurchaseAcceptsStringIDs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"id":"a9f2","total":1,"entrees":[],"vegetables":[{"type":"Okra","price":1}],"sides":[]}`)
	})
	got, err := client.SubmitPurchase(context.Background(), sale.PurchaseRequest{Total: decimal.NewFromInt(1)})
	if err != nil {
		t.Fatalf("SubmitPurchase: %v", err)
	}
	if got.ID != "a9f2" || got.Vegetables[0].Label != "Okra" {
		t.Fatalf("unexpected sale %+v", got)
	}
}

func TestSubmitPurchaseNonSuccessStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "validation failed", http.StatusUnprocessableEntity)
	})
	_, err := client.SubmitPurchase(context.Background(), sale.PurchaseRequest{Total: decimal.NewFromInt(1)})
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusUnprocessableEntity || !strings.Contains(statusErr.Body, "validation") {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
}
