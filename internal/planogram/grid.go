// Package planogram models the fixed 10×10 shelf grid used to build orders.
package planogram

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"orderdesk/internal/model"
)

// Size is the number of rows and columns of every planogram.
const Size = 10

var ErrOutOfRange = errors.New("cell position out of range")

// Cell is one shelf position. ProductID is empty when the position is unused.
type Cell struct {
	Row         int             `json:"row"`
	Column      int             `json:"column"`
	ProductID   string          `json:"productId,omitempty"`
	ProductName string          `json:"productName,omitempty"`
	SKU         string          `json:"sku,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// Conflict records a distribution that replaced another one at the same position.
type Conflict struct {
	Row            int    `json:"row"`
	Column         int    `json:"column"`
	Replaced       string `json:"replacedProductId"`
	ReplacedBy     string `json:"productId"`
	DistributionID string `json:"distributionId,omitempty"`
}

// Grid is a value type: copying a Grid copies every cell.
type Grid struct {
	Cells     [Size][Size]Cell `json:"cells"`
	Conflicts []Conflict       `json:"conflicts,omitempty"`
}

// Summary holds the display aggregates of a grid.
type Summary struct {
	Products   int             `json:"products"`
	Units      int             `json:"units"`
	TotalValue decimal.Decimal `json:"totalValue"`
}

// Empty returns a grid with all positions present and unassigned.
func Empty() Grid {
	var g Grid
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			g.Cells[r][c] = Cell{Row: r, Column: c, Price: decimal.Zero}
		}
	}
	return g
}

// Build places each distribution on the grid and attaches price and name from
// the matching order line. Positions are clamped into range. When two
// distributions claim one position the later one wins and a Conflict is kept.
// A product placed on several cells carries its ordered quantity on the first
// cell it still holds; its other cells start at 0, so Summary and OrderLines
// count the order exactly once.
func Build(distributions []model.Distribution, items []model.OrderLine) Grid {
	g := Empty()

	lines := make(map[string]model.OrderLine, len(items))
	for _, item := range items {
		if prev, ok := lines[item.ProductID]; ok {
			prev.Quantity += max(item.Quantity, 0)
			lines[item.ProductID] = prev
			continue
		}
		item.Quantity = max(item.Quantity, 0)
		lines[item.ProductID] = item
	}

	type position struct{ row, col int }
	var placed []position

	for _, d := range distributions {
		if d.ProductID == "" {
			continue
		}
		r, c := clamp(d.Row), clamp(d.Column)

		cell := Cell{Row: r, Column: c, ProductID: d.ProductID, Price: decimal.Zero}
		if line, ok := lines[d.ProductID]; ok {
			cell.ProductName = line.ProductName
			cell.SKU = line.SKU
			cell.Price = line.Price
		}

		if prev := g.Cells[r][c]; prev.ProductID != "" {
			g.Conflicts = append(g.Conflicts, Conflict{
				Row:            r,
				Column:         c,
				Replaced:       prev.ProductID,
				ReplacedBy:     d.ProductID,
				DistributionID: d.ID,
			})
		}
		g.Cells[r][c] = cell
		placed = append(placed, position{r, c})
	}

	assigned := make(map[string]bool, len(lines))
	for _, p := range placed {
		cell := &g.Cells[p.row][p.col]
		if assigned[cell.ProductID] {
			continue
		}
		line, ok := lines[cell.ProductID]
		if !ok {
			continue
		}
		cell.Quantity = line.Quantity
		assigned[cell.ProductID] = true
	}

	return g
}

// Normalize returns a copy whose cells carry their own positions. Grids
// decoded from partial JSON leave missing cells at (0, 0).
func (g Grid) Normalize() Grid {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			g.Cells[r][c].Row = r
			g.Cells[r][c].Column = c
		}
	}
	g.Conflicts = append([]Conflict(nil), g.Conflicts...)
	return g
}

// SetQuantity returns a copy of the grid with the quantity at (row, col)
// replaced. Negative values become 0.
func (g Grid) SetQuantity(row, col, value int) (Grid, error) {
	if row < 0 || row >= Size || col < 0 || col >= Size {
		return g, fmt.Errorf("%w: (%d, %d)", ErrOutOfRange, row, col)
	}
	g.Conflicts = append([]Conflict(nil), g.Conflicts...)
	g.Cells[row][col].Quantity = max(value, 0)
	return g, nil
}

// Cell returns the cell at (row, col).
func (g Grid) Cell(row, col int) (Cell, error) {
	if row < 0 || row >= Size || col < 0 || col >= Size {
		return Cell{}, fmt.Errorf("%w: (%d, %d)", ErrOutOfRange, row, col)
	}
	return g.Cells[row][col], nil
}

// Summary recomputes the aggregates over every cell.
func (g Grid) Summary() Summary {
	s := Summary{TotalValue: decimal.Zero}
	ordered := make(map[string]struct{})
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			cell := g.Cells[r][c]
			if cell.ProductID == "" || cell.Quantity <= 0 {
				continue
			}
			ordered[cell.ProductID] = struct{}{}
			s.Units += cell.Quantity
			s.TotalValue = s.TotalValue.Add(cell.Price.Mul(decimal.NewFromInt(int64(cell.Quantity))))
		}
	}
	s.Products = len(ordered)
	return s
}

// OrderLines converts the ordered cells into order lines, one per product.
// A product placed on several cells has its quantities summed.
func (g Grid) OrderLines() []model.OrderLine {
	var lines []model.OrderLine
	index := make(map[string]int)
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			cell := g.Cells[r][c]
			if cell.ProductID == "" || cell.Quantity <= 0 {
				continue
			}
			if i, ok := index[cell.ProductID]; ok {
				lines[i].Quantity += cell.Quantity
				continue
			}
			index[cell.ProductID] = len(lines)
			lines = append(lines, model.OrderLine{
				ProductID:   cell.ProductID,
				ProductName: cell.ProductName,
				SKU:         cell.SKU,
				Quantity:    cell.Quantity,
				Price:       cell.Price,
			})
		}
	}
	for i := range lines {
		lines[i].Subtotal = lines[i].Amount()
	}
	return lines
}

func clamp(v int) int {
	return min(max(v, 0), Size-1)
}
