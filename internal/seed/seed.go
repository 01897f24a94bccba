package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/hpp/internal/model"
	"github.com/Simplici0/hpp/internal/store"
)

// DemoSalesDays is the number of days of sales history generated per demo product.
const DemoSalesDays = 90

type demoIngredient struct {
	material string
	quantity float64
}

type demoProduct struct {
	name        string
	description string
	yield       float64
	labor       float64
	unitPrice   float64
	baseDaily   float64
	ingredients []demoIngredient
}

var (
	demoMaterials = []model.Material{
		{Name: "Tepung Terigu", Unit: model.UnitGram, PricePerUnit: 12, StockAmount: 25000},
		{Name: "Gula Pasir", Unit: model.UnitGram, PricePerUnit: 16, StockAmount: 10000},
		{Name: "Mentega", Unit: model.UnitGram, PricePerUnit: 90, StockAmount: 4000},
		{Name: "Telur", Unit: model.UnitPiece, PricePerUnit: 2200, StockAmount: 120},
		{Name: "Susu Cair", Unit: model.UnitMilliliter, PricePerUnit: 20, StockAmount: 8000},
		{Name: "Ragi Instan", Unit: model.UnitGram, PricePerUnit: 120, StockAmount: 500},
	}

	demoLaborRates = []model.LaborRate{
		{Name: "Pembuat Roti", WagePerHour: 25000},
		{Name: "Asisten Dapur", WagePerHour: 18000},
	}

	demoOverheads = []model.Overhead{
		{Name: "Sewa Tempat", Amount: 1500000, Mode: model.AllocationFixed},
		{Name: "Listrik & Gas", Amount: 5, Mode: model.AllocationPercentage},
		{Name: "Kemasan", Amount: 500, Mode: model.AllocationPerUnit},
	}

	demoProducts = []demoProduct{
		{
			name:        "Roti Manis",
			description: "Roti manis isi 20 per adonan",
			yield:       20,
			labor:       90,
			unitPrice:   8000,
			baseDaily:   18,
			ingredients: []demoIngredient{
				{"Tepung Terigu", 1000}, {"Gula Pasir", 150}, {"Mentega", 120},
				{"Telur", 3}, {"Susu Cair", 300}, {"Ragi Instan", 11},
			},
		},
		{
			name:        "Bolu Pandan",
			description: "Bolu pandan loyang 22 cm, dipotong 12",
			yield:       12,
			labor:       60,
			unitPrice:   12000,
			baseDaily:   9,
			ingredients: []demoIngredient{
				{"Tepung Terigu", 250}, {"Gula Pasir", 250}, {"Mentega", 200},
				{"Telur", 6}, {"Susu Cair", 100},
			},
		},
	}
)

// Config contains the values required by the demo seed.
type Config struct {
	// Now anchors the generated sales history; it is the last day with sales.
	Now time.Time
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run inserts the demo catalog and sales history. Existing records, matched by
// name, are left untouched so repeated runs insert nothing.
func Run(ctx context.Context, db *sql.DB, cfg Config) (Stats, error) {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	if err := run(ctx, tx, cfg, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func run(ctx context.Context, tx *sql.Tx, cfg Config, stats *Stats) error {
	for _, m := range demoMaterials {
		if err := ensureMaterial(ctx, tx, m, stats); err != nil {
			return err
		}
	}
	for i, r := range demoLaborRates {
		if err := ensureLaborRate(ctx, tx, r, i, stats); err != nil {
			return err
		}
	}
	for i, o := range demoOverheads {
		if err := ensureOverhead(ctx, tx, o, i, stats); err != nil {
			return err
		}
	}
	for _, p := range demoProducts {
		id, err := ensureProduct(ctx, tx, p, stats)
		if err != nil {
			return err
		}
		if err := ensureSales(ctx, tx, id, p, cfg.Now, stats); err != nil {
			return err
		}
	}
	return nil
}

// lookupID returns the id of the row in table whose name matches, or "" when absent.
func lookupID(ctx context.Context, tx *sql.Tx, table, name string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM `+table+` WHERE name = ? LIMIT 1`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("look up %s %q: %w", table, name, err)
	}
	return id, nil
}

func ensureMaterial(ctx context.Context, tx *sql.Tx, m model.Material, stats *Stats) error {
	id, err := lookupID(ctx, tx, "materials", m.Name)
	if err != nil || id != "" {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO materials (id, name, unit, price_per_unit, stock_amount)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), m.Name, string(m.Unit), m.PricePerUnit, m.StockAmount); err != nil {
		return fmt.Errorf("insert material %q: %w", m.Name, err)
	}
	stats.Inserts++
	return nil
}

func ensureLaborRate(ctx context.Context, tx *sql.Tx, r model.LaborRate, position int, stats *Stats) error {
	id, err := lookupID(ctx, tx, "labor_rates", r.Name)
	if err != nil || id != "" {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO labor_rates (id, name, wage_per_hour, position)
		VALUES (?, ?, ?, ?)
	`, uuid.NewString(), r.Name, r.WagePerHour, position); err != nil {
		return fmt.Errorf("insert labor rate %q: %w", r.Name, err)
	}
	stats.Inserts++
	return nil
}

func ensureOverhead(ctx context.Context, tx *sql.Tx, o model.Overhead, position int, stats *Stats) error {
	id, err := lookupID(ctx, tx, "overheads", o.Name)
	if err != nil || id != "" {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO overheads (id, name, amount, mode, position)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), o.Name, o.Amount, string(o.Mode), position); err != nil {
		return fmt.Errorf("insert overhead %q: %w", o.Name, err)
	}
	stats.Inserts++
	return nil
}

func ensureProduct(ctx context.Context, tx *sql.Tx, p demoProduct, stats *Stats) (string, error) {
	id, err := lookupID(ctx, tx, "products", p.name)
	if err != nil || id != "" {
		return id, err
	}

	id = uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO products (id, name, description, yield_per_batch, labor_minutes)
		VALUES (?, ?, ?, ?, ?)
	`, id, p.name, p.description, p.yield, p.labor); err != nil {
		return "", fmt.Errorf("insert product %q: %w", p.name, err)
	}

	for i, ing := range p.ingredients {
		materialID, err := lookupID(ctx, tx, "materials", ing.material)
		if err != nil {
			return "", err
		}
		if materialID == "" {
			return "", fmt.Errorf("product %q references unknown material %q", p.name, ing.material)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO product_ingredients (product_id, position, material_id, quantity)
			VALUES (?, ?, ?, ?)
		`, id, i, materialID, ing.quantity); err != nil {
			return "", fmt.Errorf("insert ingredient %q of %q: %w", ing.material, p.name, err)
		}
	}
	stats.Inserts++
	return id, nil
}

// ensureSales generates one sale per day for products without any history.
// Demand grows slowly and rises on weekends so the forecast has a trend to find.
func ensureSales(ctx context.Context, tx *sql.Tx, productID string, p demoProduct, now time.Time, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM sales WHERE product_id = ? LIMIT 1)`, productID).Scan(&exists); err != nil {
		return fmt.Errorf("check sales existence for %q: %w", p.name, err)
	}
	if exists {
		return nil
	}

	lastDay := time.Date(now.Year(), now.Month(), now.Day(), 10, 0, 0, 0, now.Location())
	for i := 0; i < DemoSalesDays; i++ {
		soldAt := lastDay.AddDate(0, 0, i-(DemoSalesDays-1))
		qty := p.baseDaily + float64(i/15)
		if wd := soldAt.Weekday(); wd == time.Saturday || wd == time.Sunday {
			qty += p.baseDaily / 3
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sales (id, product_id, quantity, unit_price, sold_at)
			VALUES (?, ?, ?, ?, ?)
		`, uuid.NewString(), productID, qty, p.unitPrice, store.FormatTime(soldAt)); err != nil {
			return fmt.Errorf("insert sale for %q: %w", p.name, err)
		}
		stats.Inserts++
	}
	return nil
}
