package forecast

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Simplici0/hpp/internal/catalog"
	"github.com/Simplici0/hpp/internal/model"
)

type brokenSales struct {
	*catalog.Memory
}

func (brokenSales) FetchSales(context.Context, string) ([]model.Sale, error) {
	return nil, errors.New("sales table missing")
}

func newTestService(t *testing.T) (*Service, *catalog.Memory) {
	t.Helper()

	bread, materials := breadProduct()
	cake := model.Product{ID: "p-cake", Name: "Bolu", YieldPerBatch: 8}
	src := catalog.NewMemory(catalog.Snapshot{
		Materials: materials,
		Products:  []model.Product{cake, bread},
	}, dailySales(bread.ID, evalNow, func(int) float64 { return 10 }))

	return NewService(src, newTestEngine(), zap.NewNop()), src
}

func TestService_ComputeUnknownProductIsAbsent(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	res, err := svc.Compute(context.Background(), "does-not-exist", Options{})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestService_ComputeUsesOnlyThatProductsSales(t *testing.T) {
	t.Parallel()

	svc, src := newTestService(t)
	src.AddSales(dailySales("p-cake", evalNow, func(int) float64 { return 1000 })...)

	res, err := svc.Compute(context.Background(), "p-bread", Options{HorizonDays: 7})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "Roti Sobek", res.ProductName)
	assert.InDelta(t, 10, res.AvgDailySales, 1e-9)
	assert.Equal(t, 116, res.RecommendedRestock)
}

func TestService_ComputeAllSortsByRestock(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	results, err := svc.ComputeAll(context.Background(), Options{HorizonDays: 7})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "p-bread", results[0].ProductID)
	assert.Equal(t, "p-cake", results[1].ProductID)
	assert.Zero(t, results[1].RecommendedRestock)
}

func TestService_PropagatesSourceErrors(t *testing.T) {
	t.Parallel()

	bread, materials := breadProduct()
	src := brokenSales{catalog.NewMemory(catalog.Snapshot{Materials: materials, Products: []model.Product{bread}}, nil)}
	svc := NewService(src, newTestEngine(), nil)

	_, err := svc.Compute(context.Background(), bread.ID, Options{})
	assert.ErrorContains(t, err, "fetch sales")

	_, err = svc.ComputeAll(context.Background(), Options{})
	assert.ErrorContains(t, err, "sales table missing")
}
