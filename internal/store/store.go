package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Simplici0/hpp/internal/model"
)

// TimeLayout is the fixed-width UTC layout of stored timestamps; it sorts lexically.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// FormatTime renders t for storage.
func FormatTime(t time.Time) string { return t.UTC().Format(TimeLayout) }

// Store reads catalog records from SQLite. It implements catalog.Source.
type Store struct {
	db *sql.DB
}

// New returns a Store over db.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FetchMaterials(ctx context.Context) ([]model.Material, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, unit, price_per_unit, stock_amount
		FROM materials
		ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	materials := make([]model.Material, 0)
	for rows.Next() {
		var m model.Material
		if err := rows.Scan(&m.ID, &m.Name, &m.Unit, &m.PricePerUnit, &m.StockAmount); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		if !m.Unit.Valid() {
			return nil, fmt.Errorf("material %s has unknown unit %q", m.ID, m.Unit)
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}

	return materials, nil
}

// FetchOverheads returns overhead rules in their configured order.
func (s *Store) FetchOverheads(ctx context.Context) ([]model.Overhead, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, amount, mode
		FROM overheads
		ORDER BY position, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query overheads: %w", err)
	}
	defer rows.Close()

	overheads := make([]model.Overhead, 0)
	for rows.Next() {
		var o model.Overhead
		if err := rows.Scan(&o.ID, &o.Name, &o.Amount, &o.Mode); err != nil {
			return nil, fmt.Errorf("scan overhead: %w", err)
		}
		if !o.Mode.Valid() {
			return nil, fmt.Errorf("overhead %s has unknown allocation mode %q", o.ID, o.Mode)
		}
		overheads = append(overheads, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overheads: %w", err)
	}

	return overheads, nil
}

// FetchLaborRates returns labor rates in their configured order; the first is the default.
func (s *Store) FetchLaborRates(ctx context.Context) ([]model.LaborRate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, wage_per_hour
		FROM labor_rates
		ORDER BY position, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query labor rates: %w", err)
	}
	defer rows.Close()

	rates := make([]model.LaborRate, 0)
	for rows.Next() {
		var r model.LaborRate
		if err := rows.Scan(&r.ID, &r.Name, &r.WagePerHour); err != nil {
			return nil, fmt.Errorf("scan labor rate: %w", err)
		}
		rates = append(rates, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate labor rates: %w", err)
	}

	return rates, nil
}

// FetchProducts returns every product with its ingredients in recipe order.
func (s *Store) FetchProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, yield_per_batch, labor_minutes
		FROM products
		ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0)
	index := make(map[string]int)
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.YieldPerBatch, &p.LaborMinutes); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		index[p.ID] = len(products)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	ingRows, err := s.db.QueryContext(ctx, `
		SELECT product_id, material_id, quantity
		FROM product_ingredients
		ORDER BY product_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("query product ingredients: %w", err)
	}
	defer ingRows.Close()

	for ingRows.Next() {
		var (
			productID string
			ing       model.ProductIngredient
		)
		if err := ingRows.Scan(&productID, &ing.MaterialID, &ing.Quantity); err != nil {
			return nil, fmt.Errorf("scan product ingredient: %w", err)
		}
		i, ok := index[productID]
		if !ok {
			continue
		}
		products[i].Ingredients = append(products[i].Ingredients, ing)
	}
	if err := ingRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product ingredients: %w", err)
	}

	return products, nil
}

// FetchSales returns sales ordered by time. An empty productID returns all sales.
func (s *Store) FetchSales(ctx context.Context, productID string) ([]model.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, quantity, unit_price, sold_at
		FROM sales
		WHERE (? = '' OR product_id = ?)
		ORDER BY sold_at, id
	`, productID, productID)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	sales := make([]model.Sale, 0)
	for rows.Next() {
		var (
			sale   model.Sale
			soldAt string
		)
		if err := rows.Scan(&sale.ID, &sale.ProductID, &sale.Quantity, &sale.UnitPrice, &soldAt); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sale.SoldAt, err = time.Parse(time.RFC3339Nano, soldAt)
		if err != nil {
			return nil, fmt.Errorf("parse sale %s time %q: %w", sale.ID, soldAt, err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}

	return sales, nil
}
