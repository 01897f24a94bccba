package model

import "time"

// Unit is the unit of measure a material is priced and stocked in.
type Unit string

const (
	UnitGram       Unit = "gram"
	UnitKilogram   Unit = "kg"
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "liter"
	UnitPiece      Unit = "pcs"
	UnitPack       Unit = "pack"
)

// Units lists every supported unit of measure.
var Units = []Unit{UnitGram, UnitKilogram, UnitMilliliter, UnitLiter, UnitPiece, UnitPack}

// Valid reports whether u is one of the supported units.
func (u Unit) Valid() bool {
	for _, known := range Units {
		if u == known {
			return true
		}
	}
	return false
}

// Material is a raw input priced per unit of measure.
type Material struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Unit         Unit    `json:"unit"`
	PricePerUnit float64 `json:"price_per_unit"`
	StockAmount  float64 `json:"stock_amount"`
}

// ProductIngredient is the quantity of one material consumed per production batch.
type ProductIngredient struct {
	MaterialID string  `json:"material_id"`
	Quantity   float64 `json:"quantity"`
}

// Product is a manufactured item and its bill of materials.
type Product struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	YieldPerBatch float64             `json:"yield_per_batch"`
	LaborMinutes  float64             `json:"labor_minutes"`
	Ingredients   []ProductIngredient `json:"ingredients"`
}

// AllocationMode controls how an overhead amount becomes a per-unit cost.
type AllocationMode string

const (
	// AllocationFixed amortizes the amount over the assumed monthly production.
	AllocationFixed AllocationMode = "fixed"
	// AllocationPerUnit adds the amount to every unit.
	AllocationPerUnit AllocationMode = "per_unit"
	// AllocationPercentage applies the amount as a percent of materials plus labor.
	AllocationPercentage AllocationMode = "percentage"
)

// Valid reports whether m is a known allocation mode.
func (m AllocationMode) Valid() bool {
	switch m {
	case AllocationFixed, AllocationPerUnit, AllocationPercentage:
		return true
	}
	return false
}

// Overhead is an indirect cost rule.
type Overhead struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Amount float64        `json:"amount"`
	Mode   AllocationMode `json:"mode"`
}

// LaborRate is an hourly wage.
type LaborRate struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	WagePerHour float64 `json:"wage_per_hour"`
}

// Sale is a single sales transaction of a product.
type Sale struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Quantity  float64   `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	SoldAt    time.Time `json:"sold_at"`
}
