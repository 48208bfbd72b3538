package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"orderdesk/internal/gateway"
	"orderdesk/internal/model"
	"orderdesk/pkg/pagination"
)

type OrderListItem struct {
	ID          string            `json:"id"`
	OrderNumber string            `json:"orderNumber,omitempty"`
	StoreID     string            `json:"storeId"`
	StoreName   string            `json:"storeName,omitempty"`
	SellerID    string            `json:"sellerId"`
	SellerName  string            `json:"sellerName,omitempty"`
	Status      model.OrderStatus `json:"status"`
	RawStatus   model.OrderStatus `json:"rawStatus"`
	Lines       int               `json:"lines"`
	Total       decimal.Decimal   `json:"total"`
	CreatedAt   string            `json:"createdAt"`
}

// OrderService assembles complete orders from the backend and the directory.
type OrderService interface {
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, page, limit int) ([]OrderListItem, int64, error)
}

type orderService struct {
	orders gateway.OrderGateway
	pricer linePricer
}

func NewOrderService(orders gateway.OrderGateway, directory DirectoryService) OrderService {
	return &orderService{orders: orders, pricer: linePricer{directory: directory}}
}

// GetOrder fetches the order and fills prices and names of unpriced lines. A
// failed lookup leaves that line as it was; it never fails the order.
func (s *orderService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch order %s: %w", id, err)
	}

	s.pricer.enrich(ctx, order.Items)
	order.RecomputeTotals()
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, page, limit int) ([]OrderListItem, int64, error) {
	p := pagination.Normalize(page, limit)

	orders, total, err := s.orders.ListOrders(ctx, p.Page, p.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	res := make([]OrderListItem, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		o.RecomputeTotals()
		res = append(res, OrderListItem{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			StoreID:     o.StoreID,
			StoreName:   o.StoreName,
			SellerID:    o.SellerID,
			SellerName:  o.SellerName,
			Status:      o.Status.ListStatus(),
			RawStatus:   o.Status,
			Lines:       len(o.Items),
			Total:       o.Total,
			CreatedAt:   o.CreatedAt.Format(time.RFC3339),
		})
	}
	return res, total, nil
}
