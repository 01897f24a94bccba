package costing

import (
	"math"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/hpp/internal/model"
)

const (
	DefaultMarginPercent     = 30.0
	DefaultMonthlyProduction = 500.0
	// DefaultLaborWagePerHour is the minimum-wage fallback used when no labor rate exists.
	DefaultLaborWagePerHour = 20000.0

	// MaxMarginPercent is the highest margin the suggested price is computed with.
	MaxMarginPercent = 99.0

	// MaxCost caps every computed cost; larger or non-finite amounts are
	// reported at the cap so results stay finite.
	MaxCost = 1e15

	// UnknownMaterialName labels ingredient lines whose material cannot be resolved.
	UnknownMaterialName = "Unknown Material"

	priceStep = 100
)

// Defaults holds the fallback values a deployment may override.
type Defaults struct {
	MarginPercent     float64
	MonthlyProduction float64
	LaborWagePerHour  float64
}

// StandardDefaults returns the built-in fallback values.
func StandardDefaults() Defaults {
	return Defaults{
		MarginPercent:     DefaultMarginPercent,
		MonthlyProduction: DefaultMonthlyProduction,
		LaborWagePerHour:  DefaultLaborWagePerHour,
	}
}

// Overrides are optional per-computation adjustments. Nil pointers and empty
// values mean "use the product data or the engine defaults".
type Overrides struct {
	MaterialPrices    map[string]float64 `json:"material_prices,omitempty"`
	LaborMinutes      *float64           `json:"labor_minutes,omitempty"`
	LaborRateID       string             `json:"labor_rate_id,omitempty"`
	MarginPercent     *float64           `json:"margin_percent,omitempty"`
	MonthlyProduction *float64           `json:"monthly_production,omitempty"`
}

// MaterialLine is the per-unit cost of one ingredient.
type MaterialLine struct {
	MaterialID       string     `json:"material_id"`
	Name             string     `json:"name"`
	Unit             model.Unit `json:"unit,omitempty"`
	QuantityPerBatch float64    `json:"quantity_per_batch"`
	QuantityPerUnit  float64    `json:"quantity_per_unit"`
	PricePerUnit     float64    `json:"price_per_unit"`
	Cost             float64    `json:"cost"`
}

// LaborLine describes the labor rate and minutes that produced the labor cost.
// RateID is empty when the default wage was used.
type LaborLine struct {
	RateID        string  `json:"rate_id,omitempty"`
	RateName      string  `json:"rate_name,omitempty"`
	WagePerHour   float64 `json:"wage_per_hour"`
	WagePerMinute float64 `json:"wage_per_minute"`
	Minutes       float64 `json:"minutes"`
}

// OverheadLine is the per-unit contribution of one overhead rule.
type OverheadLine struct {
	OverheadID string               `json:"overhead_id"`
	Name       string               `json:"name"`
	Mode       model.AllocationMode `json:"mode"`
	Amount     float64              `json:"amount"`
	Cost       float64              `json:"cost"`
}

// Breakdown contains all line items of the HPP calculation.
type Breakdown struct {
	MaterialsTotal float64        `json:"materials_total"`
	Materials      []MaterialLine `json:"materials"`
	LaborCost      float64        `json:"labor_cost"`
	Labor          LaborLine      `json:"labor"`
	OverheadCost   float64        `json:"overhead_cost"`
	Overheads      []OverheadLine `json:"overheads"`
	HPPPerUnit     float64        `json:"hpp_per_unit"`
}

// Result groups the full HPP output for one product.
type Result struct {
	ProductID         string    `json:"product_id"`
	ProductName       string    `json:"product_name"`
	ComputedAt        time.Time `json:"computed_at"`
	Breakdown         Breakdown `json:"breakdown"`
	SuggestedPrice    float64   `json:"suggested_price"`
	MarginPercent     float64   `json:"margin_percent"`
	MonthlyProduction float64   `json:"monthly_production"`
}

// Engine computes HPP results. It holds no mutable state; the clock only
// stamps Result.ComputedAt.
type Engine struct {
	defaults Defaults
	now      func() time.Time
}

// NewEngine returns an engine using defaults. A nil clock means time.Now.
func NewEngine(defaults Defaults, now func() time.Time) *Engine {
	std := StandardDefaults()
	if defaults.MarginPercent < 0 || defaults.MarginPercent >= 100 {
		defaults.MarginPercent = std.MarginPercent
	}
	if defaults.MonthlyProduction <= 0 {
		defaults.MonthlyProduction = std.MonthlyProduction
	}
	if defaults.LaborWagePerHour <= 0 {
		defaults.LaborWagePerHour = std.LaborWagePerHour
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{defaults: defaults, now: now}
}

// Defaults returns the fallback values the engine was built with.
func (e *Engine) Defaults() Defaults { return e.defaults }

// Compute calculates the per-unit cost of product and a suggested sale price.
// It never fails: unresolved references and degenerate numbers fall back to
// zero-cost lines or default values.
func (e *Engine) Compute(
	product model.Product,
	materials []model.Material,
	overheads []model.Overhead,
	laborRates []model.LaborRate,
	overrides Overrides,
) Result {
	yield := product.YieldPerBatch
	if yield <= 0 {
		yield = 1
	}

	byID := lo.KeyBy(materials, func(m model.Material) string { return m.ID })

	lines := make([]MaterialLine, 0, len(product.Ingredients))
	materialsTotal := 0.0
	for _, ing := range product.Ingredients {
		if ing.Quantity <= 0 {
			continue
		}
		perUnit := ing.Quantity / yield

		m, ok := byID[ing.MaterialID]
		if !ok {
			lines = append(lines, MaterialLine{
				MaterialID:       ing.MaterialID,
				Name:             UnknownMaterialName,
				QuantityPerBatch: ing.Quantity,
				QuantityPerUnit:  perUnit,
			})
			continue
		}

		price := m.PricePerUnit
		if p, ok := overrides.MaterialPrices[m.ID]; ok && p >= 0 {
			price = p
		}
		cost := bounded(perUnit * price)
		materialsTotal = bounded(materialsTotal + cost)
		lines = append(lines, MaterialLine{
			MaterialID:       m.ID,
			Name:             m.Name,
			Unit:             m.Unit,
			QuantityPerBatch: ing.Quantity,
			QuantityPerUnit:  perUnit,
			PricePerUnit:     price,
			Cost:             cost,
		})
	}

	labor := e.selectLabor(laborRates, overrides.LaborRateID)
	labor.Minutes = product.LaborMinutes
	if overrides.LaborMinutes != nil {
		labor.Minutes = *overrides.LaborMinutes
	}
	if labor.Minutes < 0 {
		labor.Minutes = 0
	}
	laborCost := bounded(labor.WagePerHour * labor.Minutes / 60)

	monthly := e.defaults.MonthlyProduction
	if overrides.MonthlyProduction != nil && *overrides.MonthlyProduction > 0 {
		monthly = *overrides.MonthlyProduction
	}

	// Percentage rules use materials+labor as the base, never earlier overhead lines.
	base := bounded(materialsTotal + laborCost)
	overheadLines := make([]OverheadLine, 0, len(overheads))
	overheadCost := 0.0
	for _, oh := range overheads {
		var cost float64
		switch oh.Mode {
		case model.AllocationFixed:
			cost = oh.Amount / monthly
		case model.AllocationPerUnit:
			cost = oh.Amount
		case model.AllocationPercentage:
			cost = oh.Amount / 100 * base
		}
		cost = bounded(cost)
		overheadCost = bounded(overheadCost + cost)
		overheadLines = append(overheadLines, OverheadLine{
			OverheadID: oh.ID,
			Name:       oh.Name,
			Mode:       oh.Mode,
			Amount:     oh.Amount,
			Cost:       cost,
		})
	}

	hpp := bounded(materialsTotal + laborCost + overheadCost)

	margin := e.defaults.MarginPercent
	if overrides.MarginPercent != nil {
		margin = *overrides.MarginPercent
	}
	margin = clampMargin(margin)

	return Result{
		ProductID:   product.ID,
		ProductName: product.Name,
		ComputedAt:  e.now(),
		Breakdown: Breakdown{
			MaterialsTotal: materialsTotal,
			Materials:      lines,
			LaborCost:      laborCost,
			Labor:          labor,
			OverheadCost:   overheadCost,
			Overheads:      overheadLines,
			HPPPerUnit:     hpp,
		},
		SuggestedPrice:    SuggestPrice(hpp, margin),
		MarginPercent:     margin,
		MonthlyProduction: monthly,
	}
}

// selectLabor picks the rate named by id, or the first rate when id is empty.
// An id that does not resolve selects no rate and uses the default wage.
func (e *Engine) selectLabor(rates []model.LaborRate, id string) LaborLine {
	var (
		rate  model.LaborRate
		found bool
	)
	if id != "" {
		rate, found = lo.Find(rates, func(r model.LaborRate) bool { return r.ID == id })
	} else if len(rates) > 0 {
		rate, found = rates[0], true
	}

	if !found || rate.WagePerHour < 0 {
		return LaborLine{
			WagePerHour:   e.defaults.LaborWagePerHour,
			WagePerMinute: e.defaults.LaborWagePerHour / 60,
		}
	}
	return LaborLine{
		RateID:        rate.ID,
		RateName:      rate.Name,
		WagePerHour:   rate.WagePerHour,
		WagePerMinute: rate.WagePerHour / 60,
	}
}

func clampMargin(margin float64) float64 {
	if math.IsNaN(margin) || margin < 0 {
		return 0
	}
	if margin > MaxMarginPercent {
		return MaxMarginPercent
	}
	return margin
}

// SuggestPrice grosses hpp up by margin and rounds up to the next multiple of 100.
// margin is clamped to [0, MaxMarginPercent].
func SuggestPrice(hpp, margin float64) float64 {
	margin = clampMargin(margin)
	hpp = bounded(hpp)
	percent := decimal.NewFromInt(100)
	step := decimal.NewFromInt(priceStep)

	price := decimal.NewFromFloat(hpp).
		Mul(percent).
		Div(percent.Sub(decimal.NewFromFloat(margin)))

	return price.Div(step).Ceil().Mul(step).InexactFloat64()
}

// bounded limits v to [-MaxCost, MaxCost]; NaN becomes 0.
func bounded(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-MaxCost, math.Min(v, MaxCost))
}
