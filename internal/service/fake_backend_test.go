package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"orderdesk/internal/gateway"
	"orderdesk/internal/model"
)

// fakeBackend is an in-memory gateway.Backend that counts calls per method.
type fakeBackend struct {
	mu sync.Mutex

	orders        map[string]*model.Order
	invoices      map[string]*model.Invoice
	pods          map[string]*model.POD
	stores        map[string]model.Store
	products      map[string]model.Product
	users         map[string]model.User
	prices        map[string]model.PriceHistory
	planograms    []model.Planogram
	distributions map[string][]model.Distribution

	failCreateInvoice bool
	failStatus        error
	priceErr          error

	calls map[string]int
	seq   int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		orders:        map[string]*model.Order{},
		invoices:      map[string]*model.Invoice{},
		pods:          map[string]*model.POD{},
		stores:        map[string]model.Store{},
		products:      map[string]model.Product{},
		users:         map[string]model.User{},
		prices:        map[string]model.PriceHistory{},
		distributions: map[string][]model.Distribution{},
		calls:         map[string]int{},
	}
}

func (f *fakeBackend) count(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeBackend) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeBackend) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func cloneOrder(o *model.Order) *model.Order {
	c := *o
	c.Items = append([]model.OrderLine(nil), o.Items...)
	return &c
}

func (f *fakeBackend) GetOrder(_ context.Context, id string) (*model.Order, error) {
	f.count("GetOrder")
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (f *fakeBackend) ListOrders(_ context.Context, page, limit int) ([]model.Order, int64, error) {
	f.count("ListOrders")
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []model.Order
	for _, o := range f.orders {
		res = append(res, *cloneOrder(o))
	}
	return res, int64(len(res)), nil
}

func (f *fakeBackend) CreateOrder(_ context.Context, order *model.Order) (*model.Order, error) {
	f.count("CreateOrder")
	f.mu.Lock()
	defer f.mu.Unlock()
	c := cloneOrder(order)
	c.ID = f.nextID("ord")
	c.CreatedAt = time.Now()
	f.orders[c.ID] = c
	return cloneOrder(c), nil
}

func (f *fakeBackend) UpdateOrder(_ context.Context, order *model.Order) (*model.Order, error) {
	f.count("UpdateOrder")
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.orders[order.ID]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	if cur.Version != order.Version {
		return nil, gateway.ErrConflict
	}
	c := cloneOrder(order)
	c.Version++
	f.orders[c.ID] = c
	return cloneOrder(c), nil
}

func (f *fakeBackend) UpdateOrderStatus(_ context.Context, id string, status model.OrderStatus) error {
	f.count("UpdateOrderStatus")
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return gateway.ErrNotFound
	}
	o.Status = status
	return nil
}

func (f *fakeBackend) DeleteOrder(_ context.Context, id string) error {
	f.count("DeleteOrder")
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[id]; !ok {
		return gateway.ErrNotFound
	}
	delete(f.orders, id)
	return nil
}

func (f *fakeBackend) GetInvoice(_ context.Context, id string) (*model.Invoice, error) {
	f.count("GetInvoice")
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	c := *inv
	return &c, nil
}

func (f *fakeBackend) FindInvoiceByOrder(_ context.Context, orderID string) (*model.Invoice, error) {
	f.count("FindInvoiceByOrder")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invoices {
		if inv.OrderID == orderID {
			c := *inv
			return &c, nil
		}
	}
	return nil, gateway.ErrNotFound
}

func (f *fakeBackend) CreateInvoice(_ context.Context, invoice *model.Invoice) (*model.Invoice, error) {
	f.count("CreateInvoice")
	if f.failCreateInvoice {
		return nil, &gateway.APIError{Method: "POST", Path: "/invoices", StatusCode: 500, Message: "boom"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *invoice
	c.ID = f.nextID("inv")
	f.invoices[c.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeBackend) UpdateInvoice(_ context.Context, invoice *model.Invoice) (*model.Invoice, error) {
	f.count("UpdateInvoice")
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.invoices[invoice.ID]; !ok {
		return nil, gateway.ErrNotFound
	}
	c := *invoice
	f.invoices[c.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeBackend) CompleteDelivery(_ context.Context, invoiceID string, pod *model.POD, status model.OrderStatus) (*model.POD, error) {
	f.count("CompleteDelivery")
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[invoiceID]
	if !ok {
		return nil, gateway.ErrNotFound
	}

	var attached *model.POD
	for _, p := range f.pods {
		if p.InvoiceID == invoiceID && p.ImageRef == pod.ImageRef {
			attached = p
		}
	}
	if attached == nil {
		c := *pod
		c.ID = f.nextID("pod")
		c.InvoiceID = invoiceID
		f.pods[c.ID] = &c
		attached = &c
	}
	inv.PODPath = attached.ImageRef

	if f.failStatus != nil {
		return nil, f.failStatus
	}
	o, ok := f.orders[inv.OrderID]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	o.Status = status
	out := *attached
	return &out, nil
}

func (f *fakeBackend) ValidatePOD(_ context.Context, podID string, validatedBy string) (*model.POD, error) {
	f.count("ValidatePOD")
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pods[podID]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	now := time.Now()
	p.Validated = true
	p.ValidatedBy = validatedBy
	p.ValidatedAt = &now
	out := *p
	return &out, nil
}

func (f *fakeBackend) GetStore(_ context.Context, id string) (*model.Store, error) {
	f.count("GetStore")
	s, ok := f.stores[id]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	return &s, nil
}

func (f *fakeBackend) ListStores(context.Context) ([]model.Store, error) {
	f.count("ListStores")
	var res []model.Store
	for _, s := range f.stores {
		res = append(res, s)
	}
	return res, nil
}

func (f *fakeBackend) GetProduct(_ context.Context, id string) (*model.Product, error) {
	f.count("GetProduct")
	p, ok := f.products[id]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	return &p, nil
}

func (f *fakeBackend) ListProducts(context.Context) ([]model.Product, error) {
	f.count("ListProducts")
	var res []model.Product
	for _, p := range f.products {
		res = append(res, p)
	}
	return res, nil
}

func (f *fakeBackend) GetUser(_ context.Context, id string) (*model.User, error) {
	f.count("GetUser")
	u, ok := f.users[id]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	return &u, nil
}

func (f *fakeBackend) ListUsers(context.Context) ([]model.User, error) {
	f.count("ListUsers")
	var res []model.User
	for _, u := range f.users {
		res = append(res, u)
	}
	return res, nil
}

func (f *fakeBackend) LatestPrice(_ context.Context, productID string, _ time.Time) (*model.PriceHistory, error) {
	f.count("LatestPrice")
	if f.priceErr != nil {
		return nil, f.priceErr
	}
	p, ok := f.prices[productID]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	return &p, nil
}

func (f *fakeBackend) GetPlanogram(_ context.Context, id string) (*model.Planogram, error) {
	f.count("GetPlanogram")
	for i := range f.planograms {
		if f.planograms[i].ID == id {
			p := f.planograms[i]
			return &p, nil
		}
	}
	return nil, gateway.ErrNotFound
}

func (f *fakeBackend) ListPlanograms(context.Context) ([]model.Planogram, error) {
	f.count("ListPlanograms")
	return append([]model.Planogram(nil), f.planograms...), nil
}

func (f *fakeBackend) ListDistributions(_ context.Context, planogramID string) ([]model.Distribution, error) {
	f.count("ListDistributions")
	return f.distributions[planogramID], nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(event string, _ map[string]interface{}) {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
}

var _ gateway.Backend = (*fakeBackend)(nil)
