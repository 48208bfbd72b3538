package model

import (
	"errors"
	"fmt"
	"strings"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusInvoiced  OrderStatus = "invoiced"
	OrderStatusDelivered OrderStatus = "delivered"
)

// OrderAction is a mutation requested against an order.
type OrderAction string

const (
	ActionEdit            OrderAction = "edit"
	ActionDelete          OrderAction = "delete"
	ActionConfirmDelivery OrderAction = "confirm_delivery"
)

var (
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// ParseOrderStatus accepts any casing of a known status.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusInvoiced, OrderStatusDelivered:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

// IsMutable reports whether the order can still be edited or deleted.
func (s OrderStatus) IsMutable() bool {
	return s == OrderStatusPending
}

// ListStatus collapses the status to the two values shown in order lists.
func (s OrderStatus) ListStatus() OrderStatus {
	if s == OrderStatusPending {
		return OrderStatusPending
	}
	return OrderStatusCompleted
}

// Transition is the single place order status changes are decided. It returns
// the status the order ends up in after the action. For ActionDelete the
// returned status is the current one; the order is removed rather than moved.
func Transition(from OrderStatus, action OrderAction) (OrderStatus, error) {
	if from != OrderStatusPending {
		return from, fmt.Errorf("%w: cannot %s an order in status %s", ErrInvalidTransition, action, from)
	}

	switch action {
	case ActionEdit, ActionDelete:
		return OrderStatusPending, nil
	case ActionConfirmDelivery:
		return OrderStatusCompleted, nil
	}
	return from, fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
}
