package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Simplici0/hpp/internal/costing"
	"github.com/Simplici0/hpp/internal/forecast"
)

const envDev = "dev"

// Config holds application configuration sourced from environment variables.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"dev"`
	Port        string `env:"PORT" envDefault:"8080"`
	DBPath      string `env:"DB_PATH" envDefault:"./dev.db"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Timezone    string `env:"TIMEZONE" envDefault:"UTC"`
	RestockCron string `env:"RESTOCK_CRON" envDefault:"0 6 * * *"`
	SeedDemo    bool   `env:"SEED_DEMO" envDefault:"true"`

	Costing  Costing  `envPrefix:"HPP_"`
	Forecast Forecast `envPrefix:"FORECAST_"`

	location *time.Location
}

// Costing holds the costing engine fallbacks.
type Costing struct {
	DefaultMarginPercent     float64 `env:"DEFAULT_MARGIN_PERCENT"`
	DefaultMonthlyProduction float64 `env:"DEFAULT_MONTHLY_PRODUCTION"`
	DefaultLaborWagePerHour  float64 `env:"DEFAULT_LABOR_WAGE_PER_HOUR"`
}

// Forecast holds the forecasting engine defaults.
type Forecast struct {
	HorizonDays      int `env:"HORIZON_DAYS"`
	SafetyDays       int `env:"SAFETY_DAYS"`
	PlaceholderStock int `env:"PLACEHOLDER_STOCK"`
}

// Load reads an optional dotenv file and the process environment into a
// validated Config. Variables already present in the environment win over the file.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}

	cfg := Config{
		Costing: Costing{
			DefaultMarginPercent:     costing.DefaultMarginPercent,
			DefaultMonthlyProduction: costing.DefaultMonthlyProduction,
			DefaultLaborWagePerHour:  costing.DefaultLaborWagePerHour,
		},
		Forecast: Forecast{
			HorizonDays:      forecast.DefaultHorizonDays,
			SafetyDays:       forecast.DefaultSafetyDays,
			PlaceholderStock: forecast.DefaultPlaceholderStock,
		},
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and resolves the configured timezone.
func (c *Config) Validate() error {
	switch {
	case c.Port == "":
		return errors.New("PORT must not be empty")
	case c.DBPath == "":
		return errors.New("DB_PATH must not be empty")
	case c.Costing.DefaultMarginPercent < 0 || c.Costing.DefaultMarginPercent >= 100:
		return fmt.Errorf("HPP_DEFAULT_MARGIN_PERCENT must be in [0, 100), got %v", c.Costing.DefaultMarginPercent)
	case c.Costing.DefaultMonthlyProduction <= 0:
		return fmt.Errorf("HPP_DEFAULT_MONTHLY_PRODUCTION must be positive, got %v", c.Costing.DefaultMonthlyProduction)
	case c.Costing.DefaultLaborWagePerHour <= 0:
		return fmt.Errorf("HPP_DEFAULT_LABOR_WAGE_PER_HOUR must be positive, got %v", c.Costing.DefaultLaborWagePerHour)
	case c.Forecast.HorizonDays <= 0 || c.Forecast.HorizonDays > forecast.MaxHorizonDays:
		return fmt.Errorf("FORECAST_HORIZON_DAYS must be in [1, %d], got %d", forecast.MaxHorizonDays, c.Forecast.HorizonDays)
	case c.Forecast.SafetyDays < 0 || c.Forecast.SafetyDays > forecast.MaxSafetyDays:
		return fmt.Errorf("FORECAST_SAFETY_DAYS must be in [0, %d], got %d", forecast.MaxSafetyDays, c.Forecast.SafetyDays)
	case c.Forecast.PlaceholderStock < 0:
		return fmt.Errorf("FORECAST_PLACEHOLDER_STOCK must not be negative, got %d", c.Forecast.PlaceholderStock)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("load TIMEZONE %q: %w", c.Timezone, err)
	}
	c.location = loc
	return nil
}

// IsDev reports whether the app runs in the development environment.
func (c Config) IsDev() bool { return c.AppEnv == envDev }

// Location is the calendar used for daily sales buckets.
func (c Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// CostingDefaults converts the costing section for the engine.
func (c Config) CostingDefaults() costing.Defaults {
	return costing.Defaults{
		MarginPercent:     c.Costing.DefaultMarginPercent,
		MonthlyProduction: c.Costing.DefaultMonthlyProduction,
		LaborWagePerHour:  c.Costing.DefaultLaborWagePerHour,
	}
}

// ForecastSettings converts the forecast section for the engine.
func (c Config) ForecastSettings() forecast.Settings {
	return forecast.Settings{
		HorizonDays:      c.Forecast.HorizonDays,
		SafetyDays:       c.Forecast.SafetyDays,
		PlaceholderStock: c.Forecast.PlaceholderStock,
		Location:         c.Location(),
	}
}
