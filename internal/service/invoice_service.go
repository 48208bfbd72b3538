package service

import (
	"context"
	"errors"
	"log"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"orderdesk/internal/gateway"
	"orderdesk/internal/model"
)

// PODImageEndpoint serves POD images stored on local disk.
const PODImageEndpoint = "/api/pod-image"

// InvoiceService resolves what the invoice and POD views display for an order.
type InvoiceService interface {
	// GetInvoiceDisplay returns nil without error when the order has neither
	// an invoice nor any line to show.
	GetInvoiceDisplay(ctx context.Context, orderID, invoiceIDHint string) (*model.InvoiceDisplay, error)
}

type invoiceService struct {
	orders    OrderService
	invoices  gateway.InvoiceGateway
	directory DirectoryService
}

func NewInvoiceService(orders OrderService, invoices gateway.InvoiceGateway, directory DirectoryService) InvoiceService {
	return &invoiceService{orders: orders, invoices: invoices, directory: directory}
}

func (s *invoiceService) GetInvoiceDisplay(ctx context.Context, orderID, invoiceIDHint string) (*model.InvoiceDisplay, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	invoice := s.findInvoice(ctx, order, invoiceIDHint)
	if invoice == nil && len(order.Items) == 0 {
		return nil, nil
	}

	display := &model.InvoiceDisplay{
		OrderID:  order.ID,
		StoreID:  order.StoreID,
		IssuedAt: order.CreatedAt,
		Subtotal: order.Subtotal,
		Tax:      order.Tax,
		Total:    order.Total,
	}

	var invoicePOD string
	if invoice != nil {
		display.InvoiceID = invoice.ID
		display.InvoiceNumber = invoice.InvoiceNumber
		if !invoice.IssuedAt.IsZero() {
			display.IssuedAt = invoice.IssuedAt
		}
		if invoice.StoreID != "" {
			display.StoreID = invoice.StoreID
		}
		if invoice.Total.IsPositive() {
			display.Subtotal = invoice.Subtotal
			display.Tax = invoice.Tax
			display.Total = invoice.Total
		}
		invoicePOD = invoice.PODPath
	}

	if invoice != nil && len(invoice.Items) > 0 {
		display.Items = invoice.Items
	} else {
		display.Items = model.LinesFromOrder(order.Items)
		display.Synthesized = true
	}

	display.PODPath = firstNonBlank(order.PODPath, order.PODFileName, invoicePOD)
	display.PODImageURL = BuildPodImageURL(display.PODPath)
	display.StoreName = s.resolveStoreName(ctx, order)

	return display, nil
}

// findInvoice tries the explicit hint, the order's own reference, then the
// by-order lookup. Lookup failures mean "no invoice".
func (s *invoiceService) findInvoice(ctx context.Context, order *model.Order, hint string) *model.Invoice {
	seen := make(map[string]bool, 2)
	for _, id := range []string{hint, order.InvoiceID} {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		invoice, err := s.invoices.GetInvoice(ctx, id)
		if err == nil {
			return invoice
		}
		if !errors.Is(err, gateway.ErrNotFound) {
			log.Printf("invoices: lookup %s for order %s: %v", id, order.ID, err)
		}
	}

	invoice, err := s.invoices.FindInvoiceByOrder(ctx, order.ID)
	if err != nil {
		if !errors.Is(err, gateway.ErrNotFound) {
			log.Printf("invoices: lookup by order %s: %v", order.ID, err)
		}
		return nil
	}
	return invoice
}

// resolveStoreName trusts the embedded name unless it is blank or looks like
// an identifier that leaked into the name field.
func (s *invoiceService) resolveStoreName(ctx context.Context, order *model.Order) string {
	if !LooksLikeIdentifier(order.StoreName) || order.StoreID == "" {
		return order.StoreName
	}
	store, err := s.directory.GetStore(ctx, order.StoreID)
	if err != nil {
		log.Printf("invoices: store lookup %s: %v", order.StoreID, err)
		return order.StoreName
	}
	if strings.TrimSpace(store.Name) == "" {
		return order.StoreName
	}
	return store.Name
}

// LooksLikeIdentifier reports whether name is blank, UUID-shaped or all digits.
func LooksLikeIdentifier(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return true
	}
	if _, err := uuid.Parse(name); err == nil {
		return true
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// BuildPodImageURL returns data URIs and absolute URLs unchanged and routes
// any other non-empty path through the POD image endpoint.
func BuildPodImageURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if IsDirectImageRef(path) {
		return path
	}
	return PODImageEndpoint + "?path=" + url.QueryEscape(path)
}

// IsDirectImageRef reports whether ref can be used by a browser as-is.
func IsDirectImageRef(ref string) bool {
	lower := strings.ToLower(strings.TrimSpace(ref))
	return strings.HasPrefix(lower, "data:") ||
		strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://")
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
