package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"orderdesk/internal/model"
)

type authKey struct{}

// WithAuthorization stores the caller's Authorization header so backend calls
// made on its behalf carry the same credentials.
func WithAuthorization(ctx context.Context, header string) context.Context {
	if header == "" {
		return ctx
	}
	return context.WithValue(ctx, authKey{}, header)
}

func authorization(ctx context.Context) string {
	h, _ := ctx.Value(authKey{}).(string)
	return h
}

// Client talks to the backend REST API. Idempotent GETs are retried with
// exponential backoff; mutations are sent exactly once.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries uint64
	retryWait  time.Duration
}

type ClientOption func(*Client)

// WithRetryWait sets the first backoff interval.
func WithRetryWait(d time.Duration) ClientOption {
	return func(c *Client) { c.retryWait = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(baseURL string, timeout time.Duration, maxRetries int, opts ...ClientOption) *Client {
	if maxRetries < 0 {
		maxRetries = 0
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: uint64(maxRetries),
		retryWait:  250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type page[T any] struct {
	Items []T   `json:"items" validate:"dive"`
	Total int64 `json:"total"`
}

// --- Orders ---

func (c *Client) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	if err := c.get(ctx, "/orders/"+url.PathEscape(id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) ListOrders(ctx context.Context, pageNo, limit int) ([]model.Order, int64, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(pageNo))
	q.Set("limit", strconv.Itoa(limit))

	var res page[model.Order]
	if err := c.get(ctx, "/orders", q, &res); err != nil {
		return nil, 0, err
	}
	return res.Items, res.Total, nil
}

func (c *Client) CreateOrder(ctx context.Context, order *model.Order) (*model.Order, error) {
	var created model.Order
	if err := c.send(ctx, http.MethodPost, "/orders", nil, order, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateOrder(ctx context.Context, order *model.Order) (*model.Order, error) {
	header := http.Header{}
	header.Set("If-Match", strconv.Itoa(order.Version))

	var updated model.Order
	if err := c.send(ctx, http.MethodPut, "/orders/"+url.PathEscape(order.ID), header, order, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error {
	body := map[string]model.OrderStatus{"status": status}
	return c.send(ctx, http.MethodPut, "/orders/"+url.PathEscape(id)+"/status", nil, body, nil)
}

func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/orders/"+url.PathEscape(id), nil, nil, nil)
}

// --- Invoices & PODs ---

func (c *Client) GetInvoice(ctx context.Context, id string) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := c.get(ctx, "/invoices/"+url.PathEscape(id), nil, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (c *Client) FindInvoiceByOrder(ctx context.Context, orderID string) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := c.get(ctx, "/invoices/by-order/"+url.PathEscape(orderID), nil, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (c *Client) CreateInvoice(ctx context.Context, invoice *model.Invoice) (*model.Invoice, error) {
	var created model.Invoice
	if err := c.send(ctx, http.MethodPost, "/invoices", nil, invoice, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateInvoice(ctx context.Context, invoice *model.Invoice) (*model.Invoice, error) {
	var updated model.Invoice
	if err := c.send(ctx, http.MethodPut, "/invoices/"+url.PathEscape(invoice.ID), nil, invoice, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) CompleteDelivery(ctx context.Context, invoiceID string, pod *model.POD, status model.OrderStatus) (*model.POD, error) {
	attached, err := c.findPOD(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if attached == nil || attached.ImageRef != pod.ImageRef {
		if attached, err = c.attachPOD(ctx, invoiceID, pod); err != nil {
			return nil, err
		}
	}

	orderID := attached.OrderID
	if orderID == "" {
		orderID = pod.OrderID
	}
	if err := c.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return nil, fmt.Errorf("pod %s attached, order %s not updated: %w", attached.ID, orderID, err)
	}
	return attached, nil
}

// findPOD returns the POD currently attached to the invoice, or nil.
func (c *Client) findPOD(ctx context.Context, invoiceID string) (*model.POD, error) {
	var pod model.POD
	err := c.get(ctx, "/invoices/"+url.PathEscape(invoiceID)+"/pod", nil, &pod)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &pod, nil
}

func (c *Client) attachPOD(ctx context.Context, invoiceID string, pod *model.POD) (*model.POD, error) {
	var created model.POD
	if err := c.send(ctx, http.MethodPost, "/invoices/"+url.PathEscape(invoiceID)+"/pod", nil, pod, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) ValidatePOD(ctx context.Context, podID string, validatedBy string) (*model.POD, error) {
	body := map[string]string{"validatedBy": validatedBy}
	var pod model.POD
	if err := c.send(ctx, http.MethodPut, "/pods/"+url.PathEscape(podID)+"/validate", nil, body, &pod); err != nil {
		return nil, err
	}
	return &pod, nil
}

// --- Directory ---

func (c *Client) GetStore(ctx context.Context, id string) (*model.Store, error) {
	var store model.Store
	if err := c.get(ctx, "/stores/"+url.PathEscape(id), nil, &store); err != nil {
		return nil, err
	}
	return &store, nil
}

func (c *Client) ListStores(ctx context.Context) ([]model.Store, error) {
	var stores []model.Store
	if err := c.get(ctx, "/stores", nil, &stores); err != nil {
		return nil, err
	}
	return stores, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	if err := c.get(ctx, "/products/"+url.PathEscape(id), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.get(ctx, "/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := c.get(ctx, "/users/"+url.PathEscape(id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.get(ctx, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) LatestPrice(ctx context.Context, productID string, at time.Time) (*model.PriceHistory, error) {
	q := url.Values{}
	q.Set("date", at.UTC().Format(time.RFC3339))

	var price model.PriceHistory
	if err := c.get(ctx, "/histprices/latest/"+url.PathEscape(productID), q, &price); err != nil {
		return nil, err
	}
	return &price, nil
}

// --- Planograms ---

func (c *Client) GetPlanogram(ctx context.Context, id string) (*model.Planogram, error) {
	var planogram model.Planogram
	if err := c.get(ctx, "/planograms/"+url.PathEscape(id), nil, &planogram); err != nil {
		return nil, err
	}
	return &planogram, nil
}

func (c *Client) ListPlanograms(ctx context.Context) ([]model.Planogram, error) {
	var planograms []model.Planogram
	if err := c.get(ctx, "/planograms", nil, &planograms); err != nil {
		return nil, err
	}
	return planograms, nil
}

func (c *Client) ListDistributions(ctx context.Context, planogramID string) ([]model.Distribution, error) {
	var distributions []model.Distribution
	if err := c.get(ctx, "/distributions/by-planogram/"+url.PathEscape(planogramID), nil, &distributions); err != nil {
		return nil, err
	}
	return distributions, nil
}

// --- Transport ---

func (c *Client) get(ctx context.Context, path string, query url.Values, dst any) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryWait
	eb.MaxInterval = 5 * time.Second

	policy := backoff.WithContext(backoff.WithMaxRetries(eb, c.maxRetries), ctx)

	return backoff.Retry(func() error {
		err := c.do(ctx, http.MethodGet, path, query, nil, nil, dst)
		if err != nil && (ctx.Err() != nil || !retryable(err)) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

func (c *Client) send(ctx context.Context, method, path string, header http.Header, body any, dst any) error {
	return c.do(ctx, method, path, nil, header, body, dst)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, header http.Header, body any, dst any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth := authorization(ctx); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode == http.StatusConflict, resp.StatusCode == http.StatusPreconditionFailed:
		return fmt.Errorf("%s %s: %w", method, path, ErrConflict)
	case resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	case resp.StatusCode == http.StatusNoContent || dst == nil:
		return nil
	}

	return decode(resp.Body, dst)
}

func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusTooManyRequests
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
