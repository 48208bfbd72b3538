package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/model"
	"orderdesk/internal/planogram"
	"orderdesk/internal/service"
)

type stubOrders struct {
	get  func(ctx context.Context, id string) (*model.Order, error)
	list func(ctx context.Context, page, limit int) ([]service.OrderListItem, int64, error)
}

func (s stubOrders) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	return s.get(ctx, id)
}

func (s stubOrders) ListOrders(ctx context.Context, page, limit int) ([]service.OrderListItem, int64, error) {
	return s.list(ctx, page, limit)
}

type stubInvoices struct {
	display *model.InvoiceDisplay
}

func (s stubInvoices) GetInvoiceDisplay(context.Context, string, string) (*model.InvoiceDisplay, error) {
	return s.display, nil
}

type stubMutations struct {
	service.MutationService
	create func(actor string, req service.CreateOrderRequest) (*model.Order, error)
	update func(actor, id string, req service.UpdateOrderRequest, hint string) (*model.Order, error)
	upload func(actor string, req service.UploadPODRequest) (*model.POD, error)
}

func (s stubMutations) CreateOrder(_ context.Context, actor string, req service.CreateOrderRequest) (*model.Order, error) {
	return s.create(actor, req)
}

func (s stubMutations) UpdateOrder(_ context.Context, actor, id string, req service.UpdateOrderRequest, hint string) (*model.Order, error) {
	return s.update(actor, id, req, hint)
}

func (s stubMutations) UploadPOD(_ context.Context, actor string, req service.UploadPODRequest) (*model.POD, error) {
	return s.upload(actor, req)
}

func newOrderRouter(orders stubOrders, invoices stubInvoices, mutations stubMutations) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := &r.RouterGroup
	NewOrderHandler(orders, invoices, mutations).RegisterRoutes(g)
	NewAuditHandler(service.NewAuditService(nil)).RegisterRoutes(g)
	NewPODHandler(mutations).RegisterRoutes(g)
	return r
}

func doJSON(r *gin.Engine, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetOrderMapsNotFound(t *testing.T) {
	r := newOrderRouter(stubOrders{
		get: func(_ context.Context, id string) (*model.Order, error) {
			return nil, fmt.Errorf("%w: %s", service.ErrOrderNotFound, id)
		},
	}, stubInvoices{}, stubMutations{})

	w := doJSON(r, http.MethodGet, "/api/orders/x", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListOrdersPagination(t *testing.T) {
	var gotPage, gotLimit int
	r := newOrderRouter(stubOrders{
		list: func(_ context.Context, page, limit int) ([]service.OrderListItem, int64, error) {
			gotPage, gotLimit = page, limit
			return []service.OrderListItem{{ID: "o1", Status: model.OrderStatusCompleted}}, 1, nil
		},
	}, stubInvoices{}, stubMutations{})

	w := doJSON(r, http.MethodGet, "/api/orders?page=2&limit=500", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, gotPage)
	assert.Equal(t, 100, gotLimit)
	assert.Contains(t, w.Body.String(), `"status":"completed"`)
}

func TestCreateOrderBindsPayload(t *testing.T) {
	r := newOrderRouter(stubOrders{}, stubInvoices{}, stubMutations{
		create: func(actor string, req service.CreateOrderRequest) (*model.Order, error) {
			assert.Equal(t, "s1", req.StoreID)
			require.Len(t, req.Items, 1)
			assert.True(t, decimal.RequireFromString("2.5").Equal(req.Items[0].Price))
			return &model.Order{ID: "o1", Status: model.OrderStatusPending}, nil
		},
	})

	w := doJSON(r, http.MethodPost, "/api/orders", `{"storeId":"s1","items":[{"productId":"A","quantity":2,"price":"2.5"}]}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodPost, "/api/orders", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOrderStatusCodes(t *testing.T) {
	var gotVersion int
	var gotHint string
	r := newOrderRouter(stubOrders{}, stubInvoices{}, stubMutations{
		update: func(_ string, id string, req service.UpdateOrderRequest, hint string) (*model.Order, error) {
			gotVersion, gotHint = req.Version, hint
			switch id {
			case "done":
				_, err := model.Transition(model.OrderStatusCompleted, model.ActionEdit)
				return nil, err
			case "stale":
				return nil, service.ErrVersionConflict
			}
			return &model.Order{ID: id, Version: req.Version + 1}, nil
		},
	})

	w := doJSON(r, http.MethodPut, "/api/orders/o1?invoice_id=inv-1", `{"notes":"x"}`, "If-Match", `"4"`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, gotVersion)
	assert.Equal(t, "inv-1", gotHint)

	assert.Equal(t, http.StatusUnprocessableEntity, doJSON(r, http.MethodPut, "/api/orders/done", `{}`).Code)
	assert.Equal(t, http.StatusConflict, doJSON(r, http.MethodPut, "/api/orders/stale", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPut, "/api/orders/o1", `{}`, "If-Match", "abc").Code)
}

func TestGetInvoiceNothingToShow(t *testing.T) {
	r := newOrderRouter(stubOrders{}, stubInvoices{}, stubMutations{})
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/api/orders/o1/invoice", "").Code)

	r = newOrderRouter(stubOrders{}, stubInvoices{display: &model.InvoiceDisplay{OrderID: "o1", Synthesized: true}}, stubMutations{})
	w := doJSON(r, http.MethodGet, "/api/orders/o1/invoice", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"synthesized":true`)
}

func TestOrderHistoryWithoutDatabase(t *testing.T) {
	r := newOrderRouter(stubOrders{}, stubInvoices{}, stubMutations{})

	w := doJSON(r, http.MethodGet, "/api/orders/o1/history", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":0`)
}

func TestUploadPODMultipart(t *testing.T) {
	var got service.UploadPODRequest
	r := newOrderRouter(stubOrders{}, stubInvoices{}, stubMutations{
		upload: func(_ string, req service.UploadPODRequest) (*model.POD, error) {
			got = req
			return &model.POD{ID: "pod-1", InvoiceID: req.InvoiceID}, nil
		},
	})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "pod.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/invoices/inv-1/pod", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "inv-1", got.InvoiceID)
	assert.Equal(t, "pod.png", got.FileName)
	assert.NotEmpty(t, got.Image)
}

func TestUploadPODInvalidMapsTo400(t *testing.T) {
	r := newOrderRouter(stubOrders{}, stubInvoices{}, stubMutations{
		upload: func(string, service.UploadPODRequest) (*model.POD, error) {
			return nil, service.ErrInvalidPOD
		},
	})
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPost, "/api/invoices/inv-1/pod", `{"fileName":"x.pdf"}`).Code)
}

func TestSetQuantityHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewPlanogramHandler(service.NewPlanogramService(nil, nil, nil)).RegisterRoutes(&r.RouterGroup)

	grid := planogram.Empty()
	grid.Cells[2][3].ProductID = "A"
	grid.Cells[2][3].Price = decimal.NewFromInt(5)
	body, err := json.Marshal(map[string]interface{}{"grid": grid, "row": 2, "column": 3, "value": 4})
	require.NoError(t, err)

	w := doJSON(r, http.MethodPost, "/api/planograms/grid/quantity", string(body))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data service.GridView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Data.Grid.Cells[2][3].Quantity)
	assert.Equal(t, 4, resp.Data.Summary.Units)
	assert.True(t, decimal.NewFromInt(20).Equal(resp.Data.Summary.TotalValue))

	w = doJSON(r, http.MethodPost, "/api/planograms/grid/quantity", `{"row":11,"column":0,"value":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetQuantityHandlerNormalizesPartialGrid(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewPlanogramHandler(service.NewPlanogramService(nil, nil, nil)).RegisterRoutes(&r.RouterGroup)

	body := `{"grid":{"cells":[[{"row":0,"column":0,"productId":"A","price":"2"}]]},"row":5,"column":7,"value":1}`
	w := doJSON(r, http.MethodPost, "/api/planograms/grid/quantity", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data service.GridView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	for row := 0; row < planogram.Size; row++ {
		for col := 0; col < planogram.Size; col++ {
			assert.Equal(t, row, resp.Data.Grid.Cells[row][col].Row)
			assert.Equal(t, col, resp.Data.Grid.Cells[row][col].Column)
		}
	}
	assert.Equal(t, "A", resp.Data.Grid.Cells[0][0].ProductID)
	assert.Equal(t, 1, resp.Data.Grid.Cells[5][7].Quantity)
}
