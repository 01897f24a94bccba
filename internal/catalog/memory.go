package catalog

import (
	"context"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/Simplici0/hpp/internal/model"
)

// Memory is an in-memory Source. The zero value is empty and ready to use.
type Memory struct {
	mu         sync.RWMutex
	materials  []model.Material
	overheads  []model.Overhead
	laborRates []model.LaborRate
	products   []model.Product
	sales      []model.Sale
}

// NewMemory returns a Memory source holding snap and sales.
func NewMemory(snap Snapshot, sales []model.Sale) *Memory {
	return &Memory{
		materials:  slices.Clone(snap.Materials),
		overheads:  slices.Clone(snap.Overheads),
		laborRates: slices.Clone(snap.LaborRates),
		products:   slices.Clone(snap.Products),
		sales:      slices.Clone(sales),
	}
}

// AddSales appends sale records.
func (m *Memory) AddSales(sales ...model.Sale) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales = append(m.sales, sales...)
}

func (m *Memory) FetchMaterials(context.Context) ([]model.Material, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.materials), nil
}

func (m *Memory) FetchOverheads(context.Context) ([]model.Overhead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.overheads), nil
}

func (m *Memory) FetchLaborRates(context.Context) ([]model.LaborRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.laborRates), nil
}

func (m *Memory) FetchProducts(context.Context) ([]model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Map(m.products, func(p model.Product, _ int) model.Product {
		p.Ingredients = slices.Clone(p.Ingredients)
		return p
	}), nil
}

func (m *Memory) FetchSales(_ context.Context, productID string) ([]model.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if productID == "" {
		return slices.Clone(m.sales), nil
	}
	return lo.Filter(m.sales, func(s model.Sale, _ int) bool { return s.ProductID == productID }), nil
}
