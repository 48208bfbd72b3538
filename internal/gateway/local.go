package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"orderdesk/internal/model"
	"orderdesk/internal/repository"
)

// Local serves the backend surface from the local order book. Order and
// invoice numbers are assigned here because there is no backend to do it.
type Local struct {
	orders     repository.OrderRepository
	invoices   repository.InvoiceRepository
	pods       repository.PODRepository
	directory  repository.DirectoryRepository
	planograms repository.PlanogramRepository
	txManager  repository.TransactionManager
	now        func() time.Time
}

func NewLocal(
	orders repository.OrderRepository,
	invoices repository.InvoiceRepository,
	pods repository.PODRepository,
	directory repository.DirectoryRepository,
	planograms repository.PlanogramRepository,
	txManager repository.TransactionManager,
) *Local {
	return &Local{
		orders:     orders,
		invoices:   invoices,
		pods:       pods,
		directory:  directory,
		planograms: planograms,
		txManager:  txManager,
		now:        time.Now,
	}
}

// NewLocalFromDB wires every repository over one database handle.
func NewLocalFromDB(db *gorm.DB) *Local {
	return NewLocal(
		repository.NewOrderRepository(db),
		repository.NewInvoiceRepository(db),
		repository.NewPODRepository(db),
		repository.NewDirectoryRepository(db),
		repository.NewPlanogramRepository(db),
		repository.NewTransactionManager(db),
	)
}

// --- Orders ---

func (l *Local) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	order, err := l.orders.FindByIDWithItems(ctx, id)
	return order, mapErr("order", err)
}

func (l *Local) ListOrders(ctx context.Context, page, limit int) ([]model.Order, int64, error) {
	orders, total, err := l.orders.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

func (l *Local) CreateOrder(ctx context.Context, order *model.Order) (*model.Order, error) {
	var created *model.Order
	err := l.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		number, err := l.nextNumber(txCtx, "ORD", l.orders.LastNumber)
		if err != nil {
			return fmt.Errorf("failed to generate order number: %w", err)
		}

		o := *order
		o.ID = uuid.NewString()
		o.OrderNumber = number
		o.Version = 1
		if o.Status == "" {
			o.Status = model.OrderStatusPending
		}
		o.Items = append([]model.OrderLine(nil), order.Items...)
		for i := range o.Items {
			o.Items[i].ID = 0
			o.Items[i].OrderID = o.ID
		}

		if err := l.orders.Create(txCtx, &o); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		created = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l.GetOrder(ctx, created.ID)
}

func (l *Local) UpdateOrder(ctx context.Context, order *model.Order) (*model.Order, error) {
	err := l.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ok, err := l.orders.UpdateIfVersion(txCtx, order, order.Version)
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		if !ok {
			if _, findErr := l.orders.FindByIDWithItems(txCtx, order.ID); findErr != nil {
				return mapErr("order", findErr)
			}
			return fmt.Errorf("order %s at version %d: %w", order.ID, order.Version, ErrConflict)
		}
		return l.orders.ReplaceItems(txCtx, order.ID, order.Items)
	})
	if err != nil {
		return nil, err
	}
	return l.GetOrder(ctx, order.ID)
}

func (l *Local) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error {
	return mapErr("order", l.orders.UpdateStatus(ctx, id, status))
}

func (l *Local) DeleteOrder(ctx context.Context, id string) error {
	return l.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return mapErr("order", l.orders.Delete(txCtx, id))
	})
}

// --- Invoices & PODs ---

func (l *Local) GetInvoice(ctx context.Context, id string) (*model.Invoice, error) {
	invoice, err := l.invoices.FindByID(ctx, id)
	return invoice, mapErr("invoice", err)
}

func (l *Local) FindInvoiceByOrder(ctx context.Context, orderID string) (*model.Invoice, error) {
	invoice, err := l.invoices.FindLatestByOrder(ctx, orderID)
	return invoice, mapErr("invoice", err)
}

func (l *Local) CreateInvoice(ctx context.Context, invoice *model.Invoice) (*model.Invoice, error) {
	var id string
	err := l.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		number, err := l.nextNumber(txCtx, "INV", l.invoices.LastNumber)
		if err != nil {
			return fmt.Errorf("failed to generate invoice number: %w", err)
		}

		inv := *invoice
		inv.ID = uuid.NewString()
		inv.InvoiceNumber = number
		if inv.Status == "" {
			inv.Status = model.InvoiceStatusDraft
		}
		inv.Items = append([]model.InvoiceLine(nil), invoice.Items...)
		for i := range inv.Items {
			inv.Items[i].ID = 0
			inv.Items[i].InvoiceID = inv.ID
		}

		if err := l.invoices.Create(txCtx, &inv); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		id = inv.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l.GetInvoice(ctx, id)
}

func (l *Local) UpdateInvoice(ctx context.Context, invoice *model.Invoice) (*model.Invoice, error) {
	err := l.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := l.invoices.FindByID(txCtx, invoice.ID); err != nil {
			return mapErr("invoice", err)
		}
		if err := l.invoices.Update(txCtx, invoice); err != nil {
			return fmt.Errorf("failed to update invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l.GetInvoice(ctx, invoice.ID)
}

// CompleteDelivery stores the POD, links it to the invoice and moves the
// order in one transaction.
func (l *Local) CompleteDelivery(ctx context.Context, invoiceID string, pod *model.POD, status model.OrderStatus) (*model.POD, error) {
	var attached model.POD
	err := l.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, err := l.invoices.FindByID(txCtx, invoiceID)
		if err != nil {
			return mapErr("invoice", err)
		}

		existing, err := l.pods.FindLatestByInvoice(txCtx, invoice.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up pod: %w", err)
		}
		if existing != nil && existing.ImageRef == pod.ImageRef {
			attached = *existing
		} else {
			attached = *pod
			attached.ID = uuid.NewString()
			attached.InvoiceID = invoice.ID
			attached.OrderID = invoice.OrderID
			if err := l.pods.Create(txCtx, &attached); err != nil {
				return fmt.Errorf("failed to store pod: %w", err)
			}
		}

		if err := l.invoices.SetPODPath(txCtx, invoice.ID, attached.ImageRef); err != nil {
			return fmt.Errorf("failed to link pod to invoice: %w", err)
		}
		return mapErr("order", l.orders.UpdateStatus(txCtx, invoice.OrderID, status))
	})
	if err != nil {
		return nil, err
	}
	return &attached, nil
}

func (l *Local) ValidatePOD(ctx context.Context, podID string, validatedBy string) (*model.POD, error) {
	pod, err := l.pods.FindByID(ctx, podID)
	if err != nil {
		return nil, mapErr("pod", err)
	}

	now := l.now()
	pod.Validated = true
	pod.ValidatedBy = validatedBy
	pod.ValidatedAt = &now
	if err := l.pods.Save(ctx, pod); err != nil {
		return nil, fmt.Errorf("failed to validate pod: %w", err)
	}
	return pod, nil
}

// --- Directory ---

func (l *Local) GetStore(ctx context.Context, id string) (*model.Store, error) {
	store, err := l.directory.FindStore(ctx, id)
	return store, mapErr("store", err)
}

func (l *Local) ListStores(ctx context.Context) ([]model.Store, error) {
	return l.directory.ListStores(ctx)
}

func (l *Local) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	product, err := l.directory.FindProduct(ctx, id)
	return product, mapErr("product", err)
}

func (l *Local) ListProducts(ctx context.Context) ([]model.Product, error) {
	return l.directory.ListProducts(ctx)
}

func (l *Local) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := l.directory.FindUser(ctx, id)
	return user, mapErr("user", err)
}

func (l *Local) ListUsers(ctx context.Context) ([]model.User, error) {
	return l.directory.ListUsers(ctx)
}

func (l *Local) LatestPrice(ctx context.Context, productID string, at time.Time) (*model.PriceHistory, error) {
	price, err := l.directory.LatestPrice(ctx, productID, at)
	return price, mapErr("price history", err)
}

// --- Planograms ---

func (l *Local) GetPlanogram(ctx context.Context, id string) (*model.Planogram, error) {
	planogram, err := l.planograms.FindByID(ctx, id)
	return planogram, mapErr("planogram", err)
}

func (l *Local) ListPlanograms(ctx context.Context) ([]model.Planogram, error) {
	return l.planograms.List(ctx)
}

func (l *Local) ListDistributions(ctx context.Context, planogramID string) ([]model.Distribution, error) {
	return l.planograms.ListDistributions(ctx, planogramID)
}

// nextNumber builds PREFIX-YYYYMMDD-NNNNN, one past the highest number issued
// today. Deleted numbers are never reused. The caller must be in a
// transaction so the lock serializes issuers.
func (l *Local) nextNumber(ctx context.Context, kind string, last func(context.Context, string) (string, error)) (string, error) {
	prefix := kind + "-" + l.now().Format("20060102") + "-"
	if err := l.txManager.Lock(ctx, "number:"+kind); err != nil {
		return "", err
	}
	current, err := last(ctx, prefix)
	if err != nil {
		return "", err
	}
	n := 0
	if current != "" {
		if n, err = strconv.Atoi(strings.TrimPrefix(current, prefix)); err != nil {
			return "", fmt.Errorf("unexpected number %q: %w", current, err)
		}
	}
	return fmt.Sprintf("%s%05d", prefix, n+1), nil
}

func mapErr(entity string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		return err
	}
	return fmt.Errorf("%s: %w", entity, err)
}
