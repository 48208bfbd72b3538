package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second, 3, WithRetryWait(time.Millisecond))
}

func TestClientGetOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/o1", r.URL.Path)
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"o1","storeId":"s1","status":"pending","items":[{"productId":"p1","quantity":3,"price":0}],"version":2}`))
	})

	ctx := WithAuthorization(context.Background(), "Bearer abc")
	order, err := c.GetOrder(ctx, "o1")
	require.NoError(t, err)

	assert.Equal(t, "o1", order.ID)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, 2, order.Version)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].Price.IsZero())
}

func TestClientMapsNotFound(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	})

	_, err := c.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "404 must not be retried")
}

func TestClientRetriesIdempotentGets(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":"s1","name":"Corner Shop"}`))
	})

	store, err := c.GetStore(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Corner Shop", store.Name)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClientDoesNotRetryMutations(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.CreateOrder(context.Background(), &model.Order{ID: "o1", Status: model.OrderStatusPending})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClientConditionalUpdate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		if r.Header.Get("If-Match") != "4" {
			w.WriteHeader(http.StatusPreconditionFailed)
			return
		}
		var body model.Order
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		body.Version++
		_ = json.NewEncoder(w).Encode(body)
	})

	updated, err := c.UpdateOrder(context.Background(), &model.Order{ID: "o1", Status: model.OrderStatusPending, Version: 4})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Version)

	_, err = c.UpdateOrder(context.Background(), &model.Order{ID: "o1", Status: model.OrderStatusPending, Version: 3})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestClientRejectsInvalidPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"o1","status":"shipped"}`))
	})

	_, err := c.GetOrder(context.Background(), "o1")
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestClientLatestPriceSendsDate(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/histprices/latest/p1", r.URL.Path)
		assert.Equal(t, at.Format(time.RFC3339), r.URL.Query().Get("date"))
		_, _ = w.Write([]byte(`{"id":"h1","productId":"p1","price":12,"effectiveDate":"2026-02-01T00:00:00Z"}`))
	})

	price, err := c.LatestPrice(context.Background(), "p1", at)
	require.NoError(t, err)
	assert.True(t, price.Price.Equal(decimal.NewFromInt(12)))
}

func TestClientListDistributionsValidatesEachItem(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"d1","planogramId":"pl1","productId":"p1","row":0,"column":1},{"id":"d2","planogramId":"pl1","row":0,"column":2}]`))
	})

	_, err := c.ListDistributions(context.Background(), "pl1")
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestClientCompleteDelivery(t *testing.T) {
	var posts, statusCalls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/invoices/inv-1/pod":
			http.NotFound(w, r)
		case r.Method == http.MethodPost && r.URL.Path == "/invoices/inv-1/pod":
			atomic.AddInt32(&posts, 1)
			_, _ = w.Write([]byte(`{"id":"pod-1","orderId":"o1","invoiceId":"inv-1","imageRef":"imagenes/a.png"}`))
		case r.Method == http.MethodPut && r.URL.Path == "/orders/o1/status":
			atomic.AddInt32(&statusCalls, 1)
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "completed", body["status"])
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})

	pod, err := c.CompleteDelivery(context.Background(), "inv-1", &model.POD{OrderID: "o1", ImageRef: "imagenes/a.png"}, model.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, "pod-1", pod.ID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&posts))
	assert.Equal(t, int32(1), atomic.LoadInt32(&statusCalls))
}

func TestClientCompleteDeliveryRetryReusesPOD(t *testing.T) {
	var posts, statusCalls int32
	var attached atomic.Bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/invoices/inv-1/pod":
			if !attached.Load() {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(`{"id":"pod-1","orderId":"o1","invoiceId":"inv-1","imageRef":"imagenes/a.png"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/invoices/inv-1/pod":
			atomic.AddInt32(&posts, 1)
			attached.Store(true)
			_, _ = w.Write([]byte(`{"id":"pod-1","orderId":"o1","invoiceId":"inv-1","imageRef":"imagenes/a.png"}`))
		case r.Method == http.MethodPut && r.URL.Path == "/orders/o1/status":
			if atomic.AddInt32(&statusCalls, 1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}
	})

	pod := &model.POD{OrderID: "o1", ImageRef: "imagenes/a.png"}
	_, err := c.CompleteDelivery(context.Background(), "inv-1", pod, model.OrderStatusCompleted)
	require.Error(t, err)

	got, err := c.CompleteDelivery(context.Background(), "inv-1", pod, model.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, "pod-1", got.ID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&posts), "second call must not attach again")
	assert.Equal(t, int32(2), atomic.LoadInt32(&statusCalls))
}
