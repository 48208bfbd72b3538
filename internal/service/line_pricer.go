package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"orderdesk/internal/gateway"
	"orderdesk/internal/model"
)

// enrichConcurrency bounds the per-order fan-out of price and name lookups.
const enrichConcurrency = 8

// linePricer fills unpriced order lines. Reads and writes share it so a saved
// order, its draft invoice and later reads agree on every price.
type linePricer struct {
	directory DirectoryService
}

// enrich resolves every line without a positive price. Lookups that fail
// leave the line as it was.
func (p linePricer) enrich(ctx context.Context, items []model.OrderLine) {
	if p.directory == nil {
		return
	}

	var g errgroup.Group
	g.SetLimit(enrichConcurrency)

	for i := range items {
		line := &items[i]
		// An explicit price is authoritative; such lines are never looked up.
		if line.ProductID == "" || line.Price.IsPositive() {
			continue
		}
		g.Go(func() error {
			p.enrichLine(ctx, line)
			return nil
		})
	}
	_ = g.Wait()
}

// enrichLine resolves price as explicit > latest price history > catalog, and
// the display name from the catalog.
func (p linePricer) enrichLine(ctx context.Context, line *model.OrderLine) {
	var (
		product *model.Product
		fetched bool
	)
	catalog := func() *model.Product {
		if !fetched {
			fetched = true
			found, err := p.directory.GetProduct(ctx, line.ProductID)
			if err != nil {
				log.Printf("orders: product lookup %s: %v", line.ProductID, err)
			}
			product = found
		}
		return product
	}

	if !line.Price.IsPositive() {
		price, err := p.directory.LatestPrice(ctx, line.ProductID)
		switch {
		case err == nil && price != nil && price.Price.IsPositive():
			line.Price = price.Price
		default:
			if err != nil && !errors.Is(err, gateway.ErrNotFound) {
				log.Printf("orders: price history lookup %s: %v", line.ProductID, err)
			}
			if found := catalog(); found != nil && found.Price.IsPositive() {
				line.Price = found.Price
			}
		}
	}

	if strings.TrimSpace(line.ProductName) == "" {
		if found := catalog(); found != nil {
			line.ProductName = found.Name
			if line.SKU == "" {
				line.SKU = found.SKU
			}
		}
	}
}
