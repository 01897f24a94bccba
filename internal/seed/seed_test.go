package seed

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/hpp/internal/db"
	"github.com/Simplici0/hpp/internal/migrations"
	"github.com/Simplici0/hpp/internal/store"
)

var seedNow = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

func openSeedDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "seed-test.db"))
	require.NoError(t, err, "open sqlite database")
	t.Cleanup(func() { database.Close() })

	require.NoError(t, migrations.Up(ctx, database), "run migrations")
	return database
}

func TestRunIsIdempotent(t *testing.T) {
	database := openSeedDB(t)
	ctx := context.Background()

	firstRun := len(demoMaterials) + len(demoLaborRates) + len(demoOverheads) +
		len(demoProducts)*(1+DemoSalesDays)

	for i := 0; i < 10; i++ {
		stats, err := Run(ctx, database, Config{Now: seedNow})
		require.NoError(t, err, "run seed (iteration=%d)", i)
		if i == 0 {
			assert.Equal(t, firstRun, stats.Inserts, "inserts in first run")
			continue
		}
		assert.Zero(t, stats.Inserts, "inserts in iteration %d", i)
	}

	assertCount(t, database, `SELECT COUNT(*) FROM materials WHERE name = ?`, "Tepung Terigu", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM materials`, nil, len(demoMaterials))
	assertCount(t, database, `SELECT COUNT(*) FROM labor_rates`, nil, len(demoLaborRates))
	assertCount(t, database, `SELECT COUNT(*) FROM overheads`, nil, len(demoOverheads))
	assertCount(t, database, `SELECT COUNT(*) FROM products WHERE name = ?`, "Roti Manis", 1)
	assertCount(t, database, `
		SELECT COUNT(*) FROM product_ingredients pi
		JOIN products p ON p.id = pi.product_id
		WHERE p.name = ?
	`, "Roti Manis", 6)
	assertCount(t, database, `SELECT COUNT(*) FROM sales`, nil, len(demoProducts)*DemoSalesDays)
}

func TestRunSalesHistoryEndsAtNow(t *testing.T) {
	database := openSeedDB(t)
	ctx := context.Background()

	_, err := Run(ctx, database, Config{Now: seedNow})
	require.NoError(t, err)

	s := store.New(database)
	products, err := s.FetchProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, len(demoProducts))

	for _, p := range products {
		sales, err := s.FetchSales(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, sales, DemoSalesDays, p.Name)

		first, last := sales[0], sales[len(sales)-1]
		assert.True(t, last.SoldAt.Equal(time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC)), p.Name)
		assert.True(t, first.SoldAt.Equal(time.Date(2026, time.July, 22, 10, 0, 0, 0, time.UTC)), p.Name)
		assert.Greater(t, last.Quantity, first.Quantity, "demand grows over the history")
	}
}

func TestRunKeepsExistingRecords(t *testing.T) {
	database := openSeedDB(t)
	ctx := context.Background()

	_, err := database.ExecContext(ctx, `
		INSERT INTO materials (id, name, unit, price_per_unit, stock_amount)
		VALUES ('custom-flour', 'Tepung Terigu', 'gram', 99, 1)
	`)
	require.NoError(t, err)

	stats, err := Run(ctx, database, Config{Now: seedNow})
	require.NoError(t, err)
	assert.Equal(t, len(demoMaterials)-1+len(demoLaborRates)+len(demoOverheads)+len(demoProducts)*(1+DemoSalesDays), stats.Inserts)

	var price float64
	require.NoError(t, database.QueryRowContext(ctx, `SELECT price_per_unit FROM materials WHERE name = 'Tepung Terigu'`).Scan(&price))
	assert.Equal(t, 99.0, price)

	assertCount(t, database, `SELECT COUNT(*) FROM product_ingredients WHERE material_id = ?`, "custom-flour", len(demoProducts))
}

func assertCount(t *testing.T, database *sql.DB, query string, args any, expected int) {
	t.Helper()

	var count int
	var err error
	switch v := args.(type) {
	case nil:
		err = database.QueryRow(query).Scan(&count)
	case []any:
		err = database.QueryRow(query, v...).Scan(&count)
	default:
		err = database.QueryRow(query, v).Scan(&count)
	}
	require.NoError(t, err, "count query")
	assert.Equal(t, expected, count, query)
}
