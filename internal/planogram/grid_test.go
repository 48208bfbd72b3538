package planogram

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/model"
)

func sampleDistributions() []model.Distribution {
	return []model.Distribution{
		{ID: "d1", PlanogramID: "pl1", ProductID: "p1", Row: 0, Column: 0},
		{ID: "d2", PlanogramID: "pl1", ProductID: "p2", Row: 3, Column: 4},
		{ID: "d3", PlanogramID: "pl1", ProductID: "p3", Row: 9, Column: 9},
	}
}

func sampleItems() []model.OrderLine {
	return []model.OrderLine{
		{ProductID: "p1", ProductName: "Cola", SKU: "C-1", Quantity: 2, Price: decimal.NewFromInt(10)},
		{ProductID: "p2", ProductName: "Chips", SKU: "CH-2", Quantity: 1, Price: decimal.NewFromInt(5)},
	}
}

func TestEmptyGridHasEveryPosition(t *testing.T) {
	g := Empty()
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			assert.Equal(t, r, g.Cells[r][c].Row)
			assert.Equal(t, c, g.Cells[r][c].Column)
			assert.Empty(t, g.Cells[r][c].ProductID)
		}
	}
}

func TestBuildAttachesOrderLines(t *testing.T) {
	g := Build(sampleDistributions(), sampleItems())

	cola := g.Cells[0][0]
	assert.Equal(t, "p1", cola.ProductID)
	assert.Equal(t, "Cola", cola.ProductName)
	assert.Equal(t, 2, cola.Quantity)
	assert.True(t, cola.Price.Equal(decimal.NewFromInt(10)))

	unordered := g.Cells[9][9]
	assert.Equal(t, "p3", unordered.ProductID)
	assert.Equal(t, 0, unordered.Quantity)

	assert.Empty(t, g.Conflicts)
}

func TestBuildClampsOutOfRangePositions(t *testing.T) {
	g := Build([]model.Distribution{
		{ProductID: "p1", Row: -3, Column: 15},
	}, nil)

	assert.Equal(t, "p1", g.Cells[0][9].ProductID)
}

func TestBuildIsIdempotent(t *testing.T) {
	first := Build(sampleDistributions(), sampleItems())
	second := Build(sampleDistributions(), sampleItems())

	assert.Equal(t, first, second)
}

func TestBuildRecordsDuplicatePositions(t *testing.T) {
	g := Build([]model.Distribution{
		{ID: "d1", ProductID: "p1", Row: 2, Column: 2},
		{ID: "d2", ProductID: "p2", Row: 2, Column: 2},
	}, nil)

	assert.Equal(t, "p2", g.Cells[2][2].ProductID)
	require.Len(t, g.Conflicts, 1)
	assert.Equal(t, Conflict{Row: 2, Column: 2, Replaced: "p1", ReplacedBy: "p2", DistributionID: "d2"}, g.Conflicts[0])
}

func TestSetQuantityClampsNegative(t *testing.T) {
	g := Build(sampleDistributions(), sampleItems())

	updated, err := g.SetQuantity(0, 0, -5)
	require.NoError(t, err)

	assert.Equal(t, 0, updated.Cells[0][0].Quantity)
	assert.Equal(t, 2, g.Cells[0][0].Quantity, "original grid must not change")
}

func TestNormalizeRestoresPositions(t *testing.T) {
	var g Grid
	g.Cells[4][6].ProductID = "A"

	n := g.Normalize()
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			assert.Equal(t, r, n.Cells[r][c].Row)
			assert.Equal(t, c, n.Cells[r][c].Column)
		}
	}
	assert.Equal(t, "A", n.Cells[4][6].ProductID)
	assert.Zero(t, g.Cells[4][6].Row, "original grid must not change")
}

func TestSetQuantityRejectsOutOfRange(t *testing.T) {
	_, err := Empty().SetQuantity(10, 0, 1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestSummaryRecomputedAfterMutation(t *testing.T) {
	g := Build(sampleDistributions(), sampleItems())

	s := g.Summary()
	assert.Equal(t, 2, s.Products)
	assert.Equal(t, 3, s.Units)
	assert.True(t, s.TotalValue.Equal(decimal.NewFromInt(25)), s.TotalValue.String())

	g, err := g.SetQuantity(3, 4, 0)
	require.NoError(t, err)

	s = g.Summary()
	assert.Equal(t, 1, s.Products)
	assert.Equal(t, 2, s.Units)
	assert.True(t, s.TotalValue.Equal(decimal.NewFromInt(20)))
}

func TestBuildCountsRepeatedProductOnce(t *testing.T) {
	g := Build([]model.Distribution{
		{ID: "d1", ProductID: "A", Row: 0, Column: 0},
		{ID: "d2", ProductID: "A", Row: 5, Column: 5},
	}, []model.OrderLine{{ProductID: "A", Quantity: 3, Price: decimal.NewFromInt(10)}})

	assert.Equal(t, 3, g.Cells[0][0].Quantity)
	assert.Equal(t, 0, g.Cells[5][5].Quantity)
	assert.True(t, g.Cells[5][5].Price.Equal(decimal.NewFromInt(10)), "every cell shows the price")

	s := g.Summary()
	assert.Equal(t, 1, s.Products)
	assert.Equal(t, 3, s.Units)
	assert.True(t, s.TotalValue.Equal(decimal.NewFromInt(30)), s.TotalValue.String())
}

func TestBuildThenOrderLinesKeepsQuantities(t *testing.T) {
	items := []model.OrderLine{
		{ProductID: "A", Quantity: 3, Price: decimal.NewFromInt(10)},
		{ProductID: "B", Quantity: 1, Price: decimal.NewFromInt(4)},
	}
	g := Build([]model.Distribution{
		{ProductID: "A", Row: 0, Column: 0},
		{ProductID: "A", Row: 0, Column: 1},
		{ProductID: "B", Row: 1, Column: 0},
		{ProductID: "A", Row: 7, Column: 7},
	}, items)

	lines := g.OrderLines()
	require.Len(t, lines, 2)
	assert.Equal(t, "A", lines[0].ProductID)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, "B", lines[1].ProductID)
	assert.Equal(t, 1, lines[1].Quantity)

	// Saving an unchanged grid and rebuilding it is stable.
	assert.Equal(t, g, Build([]model.Distribution{
		{ProductID: "A", Row: 0, Column: 0},
		{ProductID: "A", Row: 0, Column: 1},
		{ProductID: "B", Row: 1, Column: 0},
		{ProductID: "A", Row: 7, Column: 7},
	}, lines))
}

func TestBuildMovesQuantityOffReplacedCell(t *testing.T) {
	g := Build([]model.Distribution{
		{ID: "d1", ProductID: "A", Row: 2, Column: 2},
		{ID: "d2", ProductID: "A", Row: 4, Column: 4},
		{ID: "d3", ProductID: "B", Row: 2, Column: 2},
	}, []model.OrderLine{
		{ProductID: "A", Quantity: 5, Price: decimal.NewFromInt(1)},
		{ProductID: "B", Quantity: 2, Price: decimal.NewFromInt(1)},
	})

	assert.Equal(t, 2, g.Cells[2][2].Quantity)
	assert.Equal(t, 5, g.Cells[4][4].Quantity)
	assert.Equal(t, 7, g.Summary().Units)
}

func TestOrderLinesMergesEditedCells(t *testing.T) {
	g := Build([]model.Distribution{
		{ProductID: "p1", Row: 0, Column: 0},
		{ProductID: "p1", Row: 0, Column: 1},
	}, []model.OrderLine{{ProductID: "p1", Quantity: 2, Price: decimal.NewFromInt(3)}})

	g, err := g.SetQuantity(0, 1, 2)
	require.NoError(t, err)

	lines := g.OrderLines()
	require.Len(t, lines, 1)
	assert.Equal(t, 4, lines[0].Quantity)
	assert.True(t, lines[0].Subtotal.Equal(decimal.NewFromInt(12)))
}
