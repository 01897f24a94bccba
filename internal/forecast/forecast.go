package forecast

import (
	"math"
	"time"

	"github.com/samber/lo"

	"github.com/Simplici0/hpp/internal/model"
)

const (
	// HistoryDays is the length of the trailing sales window.
	HistoryDays = 90

	DefaultHorizonDays = 30
	DefaultSafetyDays  = 7

	// MaxHorizonDays and MaxSafetyDays bound a single projection; larger values are clamped.
	MaxHorizonDays = 366
	MaxSafetyDays  = 366
	// DefaultPlaceholderStock is reported as current stock for products without ingredients.
	DefaultPlaceholderStock = 100

	// WeekendFactor scales demand on Saturdays and Sundays.
	WeekendFactor = 1.3

	shortWindow = 7
	longWindow  = 30

	trendThresholdPercent = 5.0
	trendProjectionDays   = 30

	dateLayout = "2006-01-02"
)

// Trend classifies the direction of recent demand.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Settings configures an Engine.
type Settings struct {
	HorizonDays      int
	SafetyDays       int
	PlaceholderStock int
	// Location is the calendar used for daily buckets and weekend detection.
	Location *time.Location
}

// DefaultSettings returns the built-in forecast settings in UTC.
func DefaultSettings() Settings {
	return Settings{
		HorizonDays:      DefaultHorizonDays,
		SafetyDays:       DefaultSafetyDays,
		PlaceholderStock: DefaultPlaceholderStock,
		Location:         time.UTC,
	}
}

// Options are per-call parameters. Zero HorizonDays, nil SafetyDays and a zero
// Now fall back to the engine settings and the current time.
type Options struct {
	HorizonDays int
	SafetyDays  *int
	Now         time.Time
}

// HistoryPoint is the quantity sold on one past day.
type HistoryPoint struct {
	Date     string  `json:"date"`
	Quantity float64 `json:"quantity"`
}

// Point is the predicted quantity for one future day; Day starts at 1 (tomorrow).
type Point struct {
	Day      int    `json:"day"`
	Date     string `json:"date"`
	Weekend  bool   `json:"weekend"`
	Quantity int    `json:"quantity"`
}

// Result is the demand projection and restock recommendation for one product.
type Result struct {
	ProductID          string         `json:"product_id"`
	ProductName        string         `json:"product_name"`
	GeneratedAt        time.Time      `json:"generated_at"`
	HorizonDays        int            `json:"horizon_days"`
	SafetyDays         int            `json:"safety_days"`
	Forecast           []Point        `json:"forecast"`
	TotalForecast      int            `json:"total_forecast"`
	CurrentStock       int            `json:"current_stock"`
	SafetyBuffer       int            `json:"safety_buffer"`
	RecommendedRestock int            `json:"recommended_restock"`
	AvgDailySales      float64        `json:"avg_daily_sales"`
	MA30               float64        `json:"ma30"`
	Slope              float64        `json:"slope"`
	Intercept          float64        `json:"intercept"`
	Trend              Trend          `json:"trend"`
	TrendPercent       float64        `json:"trend_percent"`
	History            []HistoryPoint `json:"history"`
}

// Engine projects demand from sales history. It is stateless apart from its settings.
type Engine struct {
	settings Settings
	now      func() time.Time
}

// NewEngine returns an engine with settings. A nil clock means time.Now.
func NewEngine(settings Settings, now func() time.Time) *Engine {
	std := DefaultSettings()
	if settings.HorizonDays <= 0 {
		settings.HorizonDays = std.HorizonDays
	}
	settings.HorizonDays = min(settings.HorizonDays, MaxHorizonDays)
	if settings.SafetyDays < 0 {
		settings.SafetyDays = std.SafetyDays
	}
	settings.SafetyDays = min(settings.SafetyDays, MaxSafetyDays)
	if settings.PlaceholderStock < 0 {
		settings.PlaceholderStock = std.PlaceholderStock
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{settings: settings, now: now}
}

// Settings returns the engine configuration.
func (e *Engine) Settings() Settings { return e.settings }

// Project computes the forecast for product from its sales and the current
// material stock. Sales of other products must already be filtered out.
func (e *Engine) Project(product model.Product, materials []model.Material, sales []model.Sale, opts Options) Result {
	horizon := opts.HorizonDays
	if horizon <= 0 {
		horizon = e.settings.HorizonDays
	}
	horizon = min(horizon, MaxHorizonDays)
	safetyDays := e.settings.SafetyDays
	if opts.SafetyDays != nil && *opts.SafetyDays >= 0 {
		safetyDays = min(*opts.SafetyDays, MaxSafetyDays)
	}
	now := opts.Now
	if now.IsZero() {
		now = e.now()
	}
	loc := e.settings.Location

	series := DailySeries(sales, now, loc, HistoryDays)
	ma7 := MovingAverage(series, shortWindow)
	ma30 := MovingAverage(series, longWindow)
	slope, intercept := LinearRegression(series)

	trendPercent := slope / math.Max(ma30, 1) * 100 * trendProjectionDays
	trend := TrendStable
	switch {
	case trendPercent > trendThresholdPercent:
		trend = TrendUp
	case trendPercent < -trendThresholdPercent:
		trend = TrendDown
	}

	today := civilDate(now.In(loc))
	points := make([]Point, 0, horizon)
	total := 0
	for i := 1; i <= horizon; i++ {
		date := today.AddDate(0, 0, i)
		trendFactor := 1 + slope*float64(i)/math.Max(ma7, 1)
		weekend := isWeekend(date.Weekday())
		weekendFactor := 1.0
		if weekend {
			weekendFactor = WeekendFactor
		}

		qty := int(math.Round(math.Max(0, ma7*trendFactor*weekendFactor)))
		total += qty
		points = append(points, Point{
			Day:      i,
			Date:     date.Format(dateLayout),
			Weekend:  weekend,
			Quantity: qty,
		})
	}

	stock := e.currentStock(product, materials)
	buffer := int(math.Ceil(ma7 * float64(safetyDays)))
	restock := max(0, total-stock+buffer)

	start := today.AddDate(0, 0, -(HistoryDays - 1))
	history := lo.Map(series, func(q float64, i int) HistoryPoint {
		return HistoryPoint{Date: start.AddDate(0, 0, i).Format(dateLayout), Quantity: q}
	})

	return Result{
		ProductID:          product.ID,
		ProductName:        product.Name,
		GeneratedAt:        now,
		HorizonDays:        horizon,
		SafetyDays:         safetyDays,
		Forecast:           points,
		TotalForecast:      total,
		CurrentStock:       stock,
		SafetyBuffer:       buffer,
		RecommendedRestock: restock,
		AvgDailySales:      ma7,
		MA30:               ma30,
		Slope:              slope,
		Intercept:          intercept,
		Trend:              trend,
		TrendPercent:       math.Round(trendPercent*10) / 10,
		History:            history,
	}
}

// currentStock estimates finished units buildable from material stock. Each
// ingredient is evaluated on its own and the results are summed, so it
// overstates stock when ingredients constrain each other.
func (e *Engine) currentStock(product model.Product, materials []model.Material) int {
	if len(product.Ingredients) == 0 {
		return e.settings.PlaceholderStock
	}

	// A non-positive yield produces nothing, however much material is on hand.
	yield := product.YieldPerBatch
	if yield <= 0 {
		return 0
	}
	byID := lo.KeyBy(materials, func(m model.Material) string { return m.ID })

	stock := 0
	for _, ing := range product.Ingredients {
		m, ok := byID[ing.MaterialID]
		if !ok || ing.Quantity <= 0 || m.StockAmount <= 0 {
			continue
		}
		batches := math.Floor(m.StockAmount / ing.Quantity)
		stock += int(batches * yield)
	}
	return stock
}

// isWeekend reports whether d is the first (Sunday) or last (Saturday) day of the week.
func isWeekend(d time.Weekday) bool {
	return d == time.Sunday || d == time.Saturday
}
