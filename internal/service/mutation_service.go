package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/shopspring/decimal"

	"orderdesk/internal/gateway"
	"orderdesk/internal/model"
)

// MaxPODSize is the largest POD image accepted, in bytes.
const MaxPODSize = 5 << 20

// Realtime events published after a successful mutation.
const (
	EventOrderCreated = "order.created"
	EventOrderUpdated = "order.updated"
	EventOrderDeleted = "order.deleted"
	EventPODUploaded  = "pod.uploaded"
	EventPODValidated = "pod.validated"
)

var podExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
}

type OrderLineRequest struct {
	ProductID   string          `json:"productId" binding:"required"`
	ProductName string          `json:"productName"`
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity" binding:"gte=0"`
	Price       decimal.Decimal `json:"price"`
}

type CreateOrderRequest struct {
	StoreID  string             `json:"storeId" binding:"required"`
	SellerID string             `json:"sellerId"`
	Notes    string             `json:"notes"`
	Items    []OrderLineRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateOrderRequest struct {
	Notes   *string            `json:"notes"`
	Items   []OrderLineRequest `json:"items" binding:"omitempty,dive"`
	Version int                `json:"version"`
}

// UploadPODRequest carries either an image payload (Image or DataURL) or a
// FileName reference to an image already on the POD share.
type UploadPODRequest struct {
	InvoiceID  string `json:"invoiceId"`
	Image      []byte `json:"-"`
	DataURL    string `json:"dataUrl"`
	FileName   string `json:"fileName"`
	UploadedBy string `json:"uploadedBy"`
}

// MutationService performs every write to orders, invoices and PODs. Nothing
// here is retried; callers re-fetch authoritative state afterwards.
type MutationService interface {
	CreateOrder(ctx context.Context, actor string, req CreateOrderRequest) (*model.Order, error)
	UpdateOrder(ctx context.Context, actor, id string, req UpdateOrderRequest, invoiceIDHint string) (*model.Order, error)
	UploadPOD(ctx context.Context, actor string, req UploadPODRequest) (*model.POD, error)
	ValidatePOD(ctx context.Context, actor, podID string) (*model.POD, error)
	DeleteOrder(ctx context.Context, actor, id string) error
}

type mutationService struct {
	backend   gateway.Backend
	directory DirectoryService
	pricer    linePricer
	audit     AuditService
	events    EventPublisher
}

func NewMutationService(backend gateway.Backend, directory DirectoryService, audit AuditService, events EventPublisher) MutationService {
	if audit == nil {
		audit = NewAuditService(nil)
	}
	if events == nil {
		events = noopPublisher{}
	}
	return &mutationService{
		backend:   backend,
		directory: directory,
		pricer:    linePricer{directory: directory},
		audit:     audit,
		events:    events,
	}
}

func (s *mutationService) CreateOrder(ctx context.Context, actor string, req CreateOrderRequest) (*model.Order, error) {
	if strings.TrimSpace(req.StoreID) == "" {
		return nil, fmt.Errorf("%w: store is required", ErrValidation)
	}
	items, err := linesFromRequest(req.Items)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrValidation)
	}

	order := &model.Order{
		StoreID:  req.StoreID,
		SellerID: req.SellerID,
		Status:   model.OrderStatusPending,
		Notes:    req.Notes,
		Items:    items,
		Version:  1,
	}
	if order.SellerID == "" {
		order.SellerID = actor
	}
	s.attachNames(ctx, order)
	s.pricer.enrich(ctx, order.Items)
	order.ResetTotals()
	order.RecomputeTotals()

	created, err := s.backend.CreateOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	draft := model.NewDraftInvoice(created)
	if invoice, err := s.backend.CreateInvoice(ctx, draft); err != nil {
		log.Printf("orders: draft invoice for %s: %v", created.ID, err)
	} else {
		created.InvoiceID = invoice.ID
	}

	s.audit.Record(ctx, actor, model.ActionCreateOrder, created.ID, created.OrderNumber, map[string]interface{}{
		"store_id": created.StoreID,
		"lines":    len(created.Items),
		"total":    created.Total.String(),
	})
	s.events.Publish(EventOrderCreated, map[string]interface{}{"id": created.ID})

	return created, nil
}

func (s *mutationService) UpdateOrder(ctx context.Context, actor, id string, req UpdateOrderRequest, invoiceIDHint string) (*model.Order, error) {
	current, err := s.fetchOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := model.Transition(current.Status, model.ActionEdit); err != nil {
		return nil, err
	}
	if req.Version > 0 && req.Version != current.Version {
		return nil, fmt.Errorf("%w: have version %d, stored %d", ErrVersionConflict, req.Version, current.Version)
	}

	next := *current
	if req.Notes != nil {
		next.Notes = *req.Notes
	}
	if req.Items != nil {
		items, err := linesFromRequest(req.Items)
		if err != nil {
			return nil, err
		}
		next.Items = items
	}
	if req.Version > 0 {
		next.Version = req.Version
	}
	s.pricer.enrich(ctx, next.Items)
	next.ResetTotals()
	next.RecomputeTotals()

	updated, err := s.backend.UpdateOrder(ctx, &next)
	if err != nil {
		if errors.Is(err, gateway.ErrConflict) {
			return nil, fmt.Errorf("%w: order %s", ErrVersionConflict, id)
		}
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
		}
		return nil, fmt.Errorf("failed to update order %s: %w", id, err)
	}

	s.refreshInvoice(ctx, updated, invoiceIDHint)

	s.audit.Record(ctx, actor, model.ActionUpdateOrder, updated.ID, updated.OrderNumber, map[string]interface{}{
		"version": updated.Version,
		"lines":   len(updated.Items),
		"total":   updated.Total.String(),
	})
	s.events.Publish(EventOrderUpdated, map[string]interface{}{"id": updated.ID, "version": updated.Version})

	return updated, nil
}

// UploadPOD validates the payload and the status transition before touching
// the backend, then attaches the POD and completes the order in one gateway
// call. A failed call can be retried with the same image.
func (s *mutationService) UploadPOD(ctx context.Context, actor string, req UploadPODRequest) (*model.POD, error) {
	ref, err := podImageRef(req)
	if err != nil {
		return nil, err
	}

	invoice, err := s.backend.GetInvoice(ctx, req.InvoiceID)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrInvoiceNotFound, req.InvoiceID)
		}
		return nil, fmt.Errorf("failed to fetch invoice %s: %w", req.InvoiceID, err)
	}

	order, err := s.fetchOrder(ctx, invoice.OrderID)
	if err != nil {
		return nil, err
	}
	next, err := model.Transition(order.Status, model.ActionConfirmDelivery)
	if err != nil {
		return nil, err
	}

	uploadedBy := req.UploadedBy
	if uploadedBy == "" {
		uploadedBy = actor
	}
	pod, err := s.backend.CompleteDelivery(ctx, invoice.ID, &model.POD{
		OrderID:    order.ID,
		InvoiceID:  invoice.ID,
		ImageRef:   ref,
		UploadedBy: uploadedBy,
	}, next)
	if err != nil {
		return nil, fmt.Errorf("failed to complete delivery of order %s: %w", order.ID, err)
	}

	s.audit.Record(ctx, actor, model.ActionUploadPOD, order.ID, order.OrderNumber, map[string]interface{}{
		"invoice_id": invoice.ID,
		"pod_id":     pod.ID,
	})
	s.events.Publish(EventPODUploaded, map[string]interface{}{"id": order.ID, "pod_id": pod.ID})

	return pod, nil
}

func (s *mutationService) ValidatePOD(ctx context.Context, actor, podID string) (*model.POD, error) {
	pod, err := s.backend.ValidatePOD(ctx, podID, actor)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPODNotFound, podID)
		}
		return nil, fmt.Errorf("failed to validate pod %s: %w", podID, err)
	}

	s.audit.Record(ctx, actor, model.ActionValidatePOD, pod.OrderID, "", map[string]interface{}{"pod_id": pod.ID})
	s.events.Publish(EventPODValidated, map[string]interface{}{"id": pod.OrderID, "pod_id": pod.ID})

	return pod, nil
}

func (s *mutationService) DeleteOrder(ctx context.Context, actor, id string) error {
	order, err := s.fetchOrder(ctx, id)
	if err != nil {
		return err
	}
	if _, err := model.Transition(order.Status, model.ActionDelete); err != nil {
		return err
	}

	if err := s.backend.DeleteOrder(ctx, id); err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, id)
		}
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}

	s.audit.Record(ctx, actor, model.ActionDeleteOrder, order.ID, order.OrderNumber, nil)
	s.events.Publish(EventOrderDeleted, map[string]interface{}{"id": id})
	return nil
}

func (s *mutationService) fetchOrder(ctx context.Context, id string) (*model.Order, error) {
	order, err := s.backend.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch order %s: %w", id, err)
	}
	return order, nil
}

// attachNames fills store and seller display names. Lookups are best effort.
func (s *mutationService) attachNames(ctx context.Context, order *model.Order) {
	if s.directory == nil {
		return
	}
	if store, err := s.directory.GetStore(ctx, order.StoreID); err == nil {
		order.StoreName = store.Name
	} else {
		log.Printf("orders: store lookup %s: %v", order.StoreID, err)
	}
	if order.SellerID == "" {
		return
	}
	if user, err := s.directory.GetUser(ctx, order.SellerID); err == nil {
		order.SellerName = user.Name
	} else {
		log.Printf("orders: seller lookup %s: %v", order.SellerID, err)
	}
}

// refreshInvoice re-prices the linked draft invoice after an edit.
func (s *mutationService) refreshInvoice(ctx context.Context, order *model.Order, hint string) {
	var (
		invoice *model.Invoice
		err     error
	)
	for _, id := range []string{hint, order.InvoiceID} {
		if id == "" {
			continue
		}
		if invoice, err = s.backend.GetInvoice(ctx, id); err == nil {
			break
		}
	}
	if invoice == nil {
		if invoice, err = s.backend.FindInvoiceByOrder(ctx, order.ID); err != nil {
			if !errors.Is(err, gateway.ErrNotFound) {
				log.Printf("orders: invoice lookup for %s: %v", order.ID, err)
			}
			return
		}
	}

	draft := model.NewDraftInvoice(order)
	draft.ID = invoice.ID
	draft.InvoiceNumber = invoice.InvoiceNumber
	if !invoice.IssuedAt.IsZero() {
		draft.IssuedAt = invoice.IssuedAt
	}
	draft.PODPath = invoice.PODPath
	if invoice.Status != "" {
		draft.Status = invoice.Status
	}
	if _, err := s.backend.UpdateInvoice(ctx, draft); err != nil {
		log.Printf("orders: refresh invoice %s for %s: %v", invoice.ID, order.ID, err)
	}
}

func linesFromRequest(reqs []OrderLineRequest) ([]model.OrderLine, error) {
	lines := make([]model.OrderLine, 0, len(reqs))
	for i, r := range reqs {
		if strings.TrimSpace(r.ProductID) == "" {
			return nil, fmt.Errorf("%w: item %d has no product", ErrValidation, i)
		}
		if r.Quantity < 0 {
			return nil, fmt.Errorf("%w: item %d has negative quantity", ErrValidation, i)
		}
		if r.Price.IsNegative() {
			return nil, fmt.Errorf("%w: item %d has negative price", ErrValidation, i)
		}
		lines = append(lines, model.OrderLine{
			ProductID:   r.ProductID,
			ProductName: r.ProductName,
			SKU:         r.SKU,
			Quantity:    r.Quantity,
			Price:       r.Price,
		})
	}
	return lines, nil
}

// podImageRef turns the request into the reference stored on the POD: a data
// URL for uploaded bytes, or the file name for images already on the share.
func podImageRef(req UploadPODRequest) (string, error) {
	payload := req.Image
	if len(payload) == 0 && req.DataURL != "" {
		decoded, err := decodeDataURL(req.DataURL)
		if err != nil {
			return "", err
		}
		payload = decoded
	}

	if len(payload) > 0 {
		if len(payload) > MaxPODSize {
			return "", fmt.Errorf("%w: image is %d bytes, limit is %d", ErrInvalidPOD, len(payload), MaxPODSize)
		}
		mt := mimetype.Detect(payload)
		if !strings.HasPrefix(mt.String(), "image/") {
			return "", fmt.Errorf("%w: unsupported content type %s", ErrInvalidPOD, mt.String())
		}
		return "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(payload), nil
	}

	name := strings.TrimSpace(req.FileName)
	if name == "" {
		return "", fmt.Errorf("%w: no image provided", ErrInvalidPOD)
	}
	if IsDirectImageRef(name) {
		return "", fmt.Errorf("%w: file name must be a relative path", ErrInvalidPOD)
	}
	if !podExtensions[strings.ToLower(filepath.Ext(name))] {
		return "", fmt.Errorf("%w: %s is not an image file", ErrInvalidPOD, name)
	}
	return name, nil
}

func decodeDataURL(raw string) ([]byte, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(raw), "data:")
	if !ok {
		return nil, fmt.Errorf("%w: not a data URL", ErrInvalidPOD)
	}
	meta, data, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: data URL must be base64 encoded", ErrInvalidPOD)
	}
	if base64.StdEncoding.DecodedLen(len(data)) > MaxPODSize+3 {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidPOD, MaxPODSize)
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPOD, err)
	}
	return decoded, nil
}
