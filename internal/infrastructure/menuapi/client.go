package menuapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Zhima-Mochi/foodtruck/internal/domain/menu"
	"github.com/Zhima-Mochi/foodtruck/internal/domain/sale"
	"github.com/Zhima-Mochi/foodtruck/internal/observability"
)

const (
	EndpointEntrees    = "/entrees"
	EndpointVegetables = "/vegetables"
	EndpointSides      = "/sides"
	EndpointPurchases  = "/purchases"
)

var (
	ErrUnexpectedStatus = errors.New("menu api: unexpected status")
	ErrMalformedPayload = errors.New("menu api: malformed payload")
)

// StatusError carries the status code of a rejected call. It matches ErrUnexpectedStatus.
type StatusError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("menu api: %s responded %d", e.Endpoint, e.Status)
}

func (e *StatusError) Is(target error) bool { return target == ErrUnexpectedStatus }

// Client talks to the local menu API: three category reads and the purchase endpoint.
type Client struct {
	rest *RESTClient
	log  observability.Logger
}

func NewClient(baseURL string, timeout time.Duration, httpClient *http.Client, logger observability.Logger) *Client {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Client{
		rest: NewRESTClient(baseURL, timeout, httpClient),
		log:  logger.With(observability.F("component", "menu_api_client")),
	}
}

func (c *Client) Entrees(ctx context.Context) ([]menu.Item, error) {
	return fetchItems(ctx, c, EndpointEntrees, entreeDTO.item)
}

func (c *Client) Vegetables(ctx context.Context) ([]menu.Item, error) {
	return fetchItems(ctx, c, EndpointVegetables, vegetableDTO.item)
}

func (c *Client) Sides(ctx context.Context) ([]menu.Item, error) {
	return fetchItems(ctx, c, EndpointSides, sideDTO.item)
}

func fetchItems[T any](ctx context.Context, c *Client, endpoint string, convert func(T) menu.Item) ([]menu.Item, error) {
	req, err := c.rest.NewRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("menu api: build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.rest.Do(req)
	if err != nil {
		c.log.Warn("menu_fetch_failed",
			observability.F("endpoint", endpoint),
			observability.F("error", err),
		)
		return nil, fmt.Errorf("menu api: %s request failed: %w", endpoint, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, c.statusError(endpoint, res)
	}

	var payload []T
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, endpoint, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: %s: expected an array", ErrMalformedPayload, endpoint)
	}

	items := make([]menu.Item, 0, len(payload))
	for _, p := range payload {
		items = append(items, convert(p))
	}
	c.log.Debug("menu_fetched",
		observability.F("endpoint", endpoint),
		observability.F("items", len(items)),
	)
	return items, nil
}

// SubmitPurchase posts the purchase and returns the sale the API recorded.
func (c *Client) SubmitPurchase(ctx context.Context, purchase sale.PurchaseRequest) (*sale.Sale, error) {
	body, err := json.Marshal(newPurchaseDTO(purchase))
	if err != nil {
		return nil, fmt.Errorf("menu api: encode purchase: %w", err)
	}

	req, err := c.rest.NewRequest(ctx, http.MethodPost, EndpointPurchases, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("menu api: build purchase request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.rest.Do(req)
	if err != nil {
		c.log.Warn("purchase_request_failed", observability.F("error", err))
		return nil, fmt.Errorf("menu api: purchase request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, c.statusError(EndpointPurchases, res)
	}

	var dto saleDTO
	if err := json.NewDecoder(res.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, EndpointPurchases, err)
	}
	return dto.sale(), nil
}

func (c *Client) statusError(endpoint string, res *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
	c.log.Warn("menu_api_unexpected_status",
		observability.F("endpoint", endpoint),
		observability.F("status", res.StatusCode),
		observability.F("body", strings.TrimSpace(string(body))),
	)
	return &StatusError{Endpoint: endpoint, Status: res.StatusCode, Body: strings.TrimSpace(string(body))}
}
