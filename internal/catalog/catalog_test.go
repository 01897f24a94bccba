package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/hpp/internal/model"
)

type failingSource struct {
	*Memory
	err error
}

func (f failingSource) FetchOverheads(context.Context) ([]model.Overhead, error) {
	return nil, f.err
}

func testSnapshot() Snapshot {
	return Snapshot{
		Materials:  []model.Material{{ID: "m1", Name: "Gula", Unit: model.UnitKilogram, PricePerUnit: 15000}},
		Overheads:  []model.Overhead{{ID: "o1", Name: "Listrik", Amount: 5, Mode: model.AllocationPercentage}},
		LaborRates: []model.LaborRate{{ID: "l1", Name: "Harian", WagePerHour: 22000}},
		Products: []model.Product{{
			ID:            "p1",
			Name:          "Kue Lapis",
			YieldPerBatch: 20,
			Ingredients:   []model.ProductIngredient{{MaterialID: "m1", Quantity: 1}},
		}},
	}
}

func TestLoadSnapshot_FetchesAllRecordTypes(t *testing.T) {
	t.Parallel()

	src := NewMemory(testSnapshot(), nil)

	snap, err := LoadSnapshot(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, testSnapshot(), snap)

	p, err := snap.Product("p1")
	require.NoError(t, err)
	assert.Equal(t, "Kue Lapis", p.Name)
}

func TestLoadSnapshot_PropagatesCollaboratorError(t *testing.T) {
	t.Parallel()

	boom := errors.New("database is locked")
	src := failingSource{Memory: NewMemory(testSnapshot(), nil), err: boom}

	_, err := LoadSnapshot(context.Background(), src)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "fetch overheads")
}

func TestFindProduct_NotFound(t *testing.T) {
	t.Parallel()

	_, err := FindProduct(testSnapshot().Products, "nope")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestMemory_FetchSalesFiltersByProduct(t *testing.T) {
	t.Parallel()

	now := time.Now()
	src := NewMemory(Snapshot{}, []model.Sale{
		{ID: "s1", ProductID: "p1", Quantity: 2, SoldAt: now},
		{ID: "s2", ProductID: "p2", Quantity: 5, SoldAt: now},
	})
	src.AddSales(model.Sale{ID: "s3", ProductID: "p1", Quantity: 1, SoldAt: now})

	p1, err := src.FetchSales(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, p1, 2)

	all, err := src.FetchSales(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	t.Parallel()

	src := NewMemory(testSnapshot(), nil)

	products, err := src.FetchProducts(context.Background())
	require.NoError(t, err)
	products[0].Ingredients[0].Quantity = 999

	again, err := src.FetchProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, again[0].Ingredients[0].Quantity)
}
