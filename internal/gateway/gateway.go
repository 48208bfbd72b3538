// Package gateway is the backend REST surface the service consumes, either
// over HTTP or from the local order book.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderdesk/internal/model"
)

var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource was modified concurrently")
	ErrInvalidPayload = errors.New("backend payload failed validation")
)

// APIError is a non-2xx backend response that has no dedicated sentinel.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

type OrderGateway interface {
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, page, limit int) ([]model.Order, int64, error)
	CreateOrder(ctx context.Context, order *model.Order) (*model.Order, error)
	// UpdateOrder replaces the order when order.Version still matches the
	// stored version, otherwise it returns ErrConflict.
	UpdateOrder(ctx context.Context, order *model.Order) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error
	DeleteOrder(ctx context.Context, id string) error
}

type InvoiceGateway interface {
	GetInvoice(ctx context.Context, id string) (*model.Invoice, error)
	FindInvoiceByOrder(ctx context.Context, orderID string) (*model.Invoice, error)
	CreateInvoice(ctx context.Context, invoice *model.Invoice) (*model.Invoice, error)
	UpdateInvoice(ctx context.Context, invoice *model.Invoice) (*model.Invoice, error)
	// CompleteDelivery attaches pod to the invoice and moves the invoice's order
	// to status. A POD already attached with the same image is reused, so a
	// call repeated after a partial failure never stores a second one.
	CompleteDelivery(ctx context.Context, invoiceID string, pod *model.POD, status model.OrderStatus) (*model.POD, error)
	ValidatePOD(ctx context.Context, podID string, validatedBy string) (*model.POD, error)
}

type DirectoryGateway interface {
	GetStore(ctx context.Context, id string) (*model.Store, error)
	ListStores(ctx context.Context) ([]model.Store, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	// LatestPrice returns the newest price-history entry effective at or before at.
	LatestPrice(ctx context.Context, productID string, at time.Time) (*model.PriceHistory, error)
}

type PlanogramGateway interface {
	GetPlanogram(ctx context.Context, id string) (*model.Planogram, error)
	ListPlanograms(ctx context.Context) ([]model.Planogram, error)
	ListDistributions(ctx context.Context, planogramID string) ([]model.Distribution, error)
}

// Backend is everything the service needs from the backend.
type Backend interface {
	OrderGateway
	InvoiceGateway
	DirectoryGateway
	PlanogramGateway
}
