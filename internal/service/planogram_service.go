package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"orderdesk/internal/gateway"
	"orderdesk/internal/model"
	"orderdesk/internal/planogram"
)

// ActivePlanogram is the id alias that resolves to the active planogram.
const ActivePlanogram = "active"

// GridView is a grid plus its aggregates, as rendered by the order editor.
type GridView struct {
	PlanogramID   string            `json:"planogramId"`
	PlanogramName string            `json:"planogramName,omitempty"`
	OrderID       string            `json:"orderId,omitempty"`
	Grid          planogram.Grid    `json:"grid"`
	Summary       planogram.Summary `json:"summary"`
}

type PlanogramService interface {
	BuildGrid(ctx context.Context, planogramID, orderID string) (*GridView, error)
	SetQuantity(grid planogram.Grid, row, col, value int) (*GridView, error)
}

type planogramService struct {
	planograms gateway.PlanogramGateway
	orders     OrderService
	directory  DirectoryService
}

func NewPlanogramService(planograms gateway.PlanogramGateway, orders OrderService, directory DirectoryService) PlanogramService {
	return &planogramService{planograms: planograms, orders: orders, directory: directory}
}

func (s *planogramService) BuildGrid(ctx context.Context, planogramID, orderID string) (*GridView, error) {
	pg, err := s.resolve(ctx, planogramID)
	if err != nil {
		return nil, err
	}

	distributions, err := s.planograms.ListDistributions(ctx, pg.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch distributions for planogram %s: %w", pg.ID, err)
	}

	var items []model.OrderLine
	if orderID != "" {
		order, err := s.orders.GetOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		items = order.Items
	}

	grid := planogram.Build(distributions, items)
	for _, c := range grid.Conflicts {
		log.Printf("planogram %s: (%d, %d) %s replaced by %s", pg.ID, c.Row, c.Column, c.Replaced, c.ReplacedBy)
	}

	s.fillFromCatalog(ctx, &grid)

	return &GridView{
		PlanogramID:   pg.ID,
		PlanogramName: pg.Name,
		OrderID:       orderID,
		Grid:          grid,
		Summary:       grid.Summary(),
	}, nil
}

func (s *planogramService) SetQuantity(grid planogram.Grid, row, col, value int) (*GridView, error) {
	updated, err := grid.Normalize().SetQuantity(row, col, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return &GridView{Grid: updated, Summary: updated.Summary()}, nil
}

func (s *planogramService) resolve(ctx context.Context, id string) (*model.Planogram, error) {
	id = strings.TrimSpace(id)
	if id != "" && !strings.EqualFold(id, ActivePlanogram) {
		pg, err := s.planograms.GetPlanogram(ctx, id)
		if err != nil {
			if errors.Is(err, gateway.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrPlanogramNotFound, id)
			}
			return nil, fmt.Errorf("failed to fetch planogram %s: %w", id, err)
		}
		return pg, nil
	}

	all, err := s.planograms.ListPlanograms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch planograms: %w", err)
	}
	for i := range all {
		if all[i].Active {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no active planogram", ErrPlanogramNotFound)
}

// fillFromCatalog gives cells without an order line their catalog name, SKU
// and price. Lookups are best effort.
func (s *planogramService) fillFromCatalog(ctx context.Context, grid *planogram.Grid) {
	type pos struct{ r, c int }
	pending := make(map[string][]pos)
	for r := 0; r < planogram.Size; r++ {
		for c := 0; c < planogram.Size; c++ {
			cell := grid.Cells[r][c]
			if cell.ProductID == "" || cell.ProductName != "" {
				continue
			}
			pending[cell.ProductID] = append(pending[cell.ProductID], pos{r, c})
		}
	}
	if len(pending) == 0 {
		return
	}

	var (
		mu       sync.Mutex
		products = make(map[string]*model.Product, len(pending))
		g        errgroup.Group
	)
	g.SetLimit(enrichConcurrency)
	for id := range pending {
		id := id
		g.Go(func() error {
			p, err := s.directory.GetProduct(ctx, id)
			if err != nil {
				log.Printf("planogram: product lookup %s: %v", id, err)
				return nil
			}
			mu.Lock()
			products[id] = p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for id, cells := range pending {
		p, ok := products[id]
		if !ok || p == nil {
			continue
		}
		for _, at := range cells {
			cell := &grid.Cells[at.r][at.c]
			cell.ProductName = p.Name
			cell.SKU = p.SKU
			if !cell.Price.IsPositive() {
				cell.Price = p.Price
			}
		}
	}
}
