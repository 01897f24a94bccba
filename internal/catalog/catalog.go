package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/Simplici0/hpp/internal/model"
)

// ErrProductNotFound is returned by lookups for an unknown product identity.
var ErrProductNotFound = errors.New("product not found")

// Source is the read-only query interface over the record store.
// An empty productID in FetchSales returns sales of every product.
type Source interface {
	FetchMaterials(ctx context.Context) ([]model.Material, error)
	FetchOverheads(ctx context.Context) ([]model.Overhead, error)
	FetchLaborRates(ctx context.Context) ([]model.LaborRate, error)
	FetchProducts(ctx context.Context) ([]model.Product, error)
	FetchSales(ctx context.Context, productID string) ([]model.Sale, error)
}

// Snapshot is a consistent set of records fetched for one costing run.
type Snapshot struct {
	Materials  []model.Material
	Overheads  []model.Overhead
	LaborRates []model.LaborRate
	Products   []model.Product
}

// LoadSnapshot fetches materials, overheads, labor rates and products concurrently.
func LoadSnapshot(ctx context.Context, src Source) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		materials, err := src.FetchMaterials(gctx)
		if err != nil {
			return fmt.Errorf("fetch materials: %w", err)
		}
		snap.Materials = materials
		return nil
	})
	g.Go(func() error {
		overheads, err := src.FetchOverheads(gctx)
		if err != nil {
			return fmt.Errorf("fetch overheads: %w", err)
		}
		snap.Overheads = overheads
		return nil
	})
	g.Go(func() error {
		rates, err := src.FetchLaborRates(gctx)
		if err != nil {
			return fmt.Errorf("fetch labor rates: %w", err)
		}
		snap.LaborRates = rates
		return nil
	})
	g.Go(func() error {
		products, err := src.FetchProducts(gctx)
		if err != nil {
			return fmt.Errorf("fetch products: %w", err)
		}
		snap.Products = products
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Product returns the product with the given identity from the snapshot.
func (s Snapshot) Product(id string) (model.Product, error) {
	return FindProduct(s.Products, id)
}

// FindProduct looks up a product by identity.
func FindProduct(products []model.Product, id string) (model.Product, error) {
	p, ok := lo.Find(products, func(p model.Product) bool { return p.ID == id })
	if !ok {
		return model.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return p, nil
}
