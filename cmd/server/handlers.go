package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Simplici0/hpp/internal/catalog"
	"github.com/Simplici0/hpp/internal/costing"
	"github.com/Simplici0/hpp/internal/forecast"
)

const (
	materialPricePrefix = "price."
	maxBodyBytes        = 1 << 20

	// maxOverrideValue bounds numeric overrides so costs stay far from float overflow.
	maxOverrideValue = 1e12
)

type server struct {
	src       catalog.Source
	costing   *costing.Engine
	forecasts *forecast.Service
	logger    *zap.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.requestLogger,
		middleware.Recoverer,
	)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/products", s.handleProducts)
		r.Get("/products/{id}/hpp", s.handleHPPQuery)
		r.Post("/products/{id}/hpp", s.handleHPPBody)
		r.Get("/products/{id}/forecast", s.handleForecast)
		r.Get("/restock", s.handleRestock)
	})
	return r
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.src.FetchProducts(r.Context())
	if err != nil {
		s.serverError(w, r, "failed to load products", err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *server) handleHPPQuery(w http.ResponseWriter, r *http.Request) {
	overrides, err := parseOverridesQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.computeHPP(w, r, overrides)
}

func (s *server) handleHPPBody(w http.ResponseWriter, r *http.Request) {
	var overrides costing.Overrides
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&overrides); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid overrides body: "+err.Error())
		return
	}
	if err := validateOverrides(overrides); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.computeHPP(w, r, overrides)
}

func (s *server) computeHPP(w http.ResponseWriter, r *http.Request, overrides costing.Overrides) {
	snap, err := catalog.LoadSnapshot(r.Context(), s.src)
	if err != nil {
		s.serverError(w, r, "failed to load catalog", err)
		return
	}

	product, err := snap.Product(chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.serverError(w, r, "failed to load product", err)
		return
	}

	res := s.costing.Compute(product, snap.Materials, snap.Overheads, snap.LaborRates, overrides)
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleForecast(w http.ResponseWriter, r *http.Request) {
	opts, err := parseForecastOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	res, err := s.forecasts.Compute(r.Context(), id, opts)
	if err != nil {
		s.serverError(w, r, "failed to compute forecast", err)
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("product %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleRestock(w http.ResponseWriter, r *http.Request) {
	opts, err := parseForecastOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := s.forecasts.ComputeAll(r.Context(), opts)
	if err != nil {
		s.serverError(w, r, "failed to compute restock plan", err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.Error(msg,
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func parseOverridesQuery(r *http.Request) (costing.Overrides, error) {
	q := r.URL.Query()
	var (
		overrides costing.Overrides
		err       error
	)

	if raw := q.Get("margin"); raw != "" {
		if overrides.MarginPercent, err = parseFloat(raw, "margin"); err != nil {
			return overrides, err
		}
	}
	if raw := q.Get("labor_minutes"); raw != "" {
		if overrides.LaborMinutes, err = parseFloat(raw, "labor_minutes"); err != nil {
			return overrides, err
		}
	}
	if raw := q.Get("monthly_production"); raw != "" {
		if overrides.MonthlyProduction, err = parseFloat(raw, "monthly_production"); err != nil {
			return overrides, err
		}
	}
	overrides.LaborRateID = strings.TrimSpace(q.Get("labor_rate_id"))

	for key, values := range q {
		materialID, ok := strings.CutPrefix(key, materialPricePrefix)
		if !ok || materialID == "" || len(values) == 0 {
			continue
		}
		price, err := parseFloat(values[0], key)
		if err != nil {
			return overrides, err
		}
		if overrides.MaterialPrices == nil {
			overrides.MaterialPrices = make(map[string]float64)
		}
		overrides.MaterialPrices[materialID] = *price
	}

	return overrides, validateOverrides(overrides)
}

// validateOverrides applies the same bounds to query and JSON overrides.
func validateOverrides(o costing.Overrides) error {
	if o.MarginPercent != nil {
		if err := checkPercent(*o.MarginPercent, "margin"); err != nil {
			return err
		}
	}
	if o.LaborMinutes != nil {
		if err := checkNonNegative(*o.LaborMinutes, "labor_minutes"); err != nil {
			return err
		}
	}
	if o.MonthlyProduction != nil {
		if err := checkPositive(*o.MonthlyProduction, "monthly_production"); err != nil {
			return err
		}
	}
	for id, price := range o.MaterialPrices {
		if err := checkNonNegative(price, materialPricePrefix+id); err != nil {
			return err
		}
	}
	return nil
}

func parseForecastOptions(r *http.Request) (forecast.Options, error) {
	q := r.URL.Query()
	var opts forecast.Options

	if raw := q.Get("horizon"); raw != "" {
		horizon, err := strconv.Atoi(raw)
		if err != nil || horizon <= 0 || horizon > forecast.MaxHorizonDays {
			return opts, fmt.Errorf("horizon must be an integer between 1 and %d", forecast.MaxHorizonDays)
		}
		opts.HorizonDays = horizon
	}
	if raw := q.Get("safety"); raw != "" {
		safety, err := strconv.Atoi(raw)
		if err != nil || safety < 0 || safety > forecast.MaxSafetyDays {
			return opts, fmt.Errorf("safety must be an integer between 0 and %d", forecast.MaxSafetyDays)
		}
		opts.SafetyDays = &safety
	}

	return opts, nil
}

func parseFloat(raw, field string) (*float64, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("%s must be numeric", field)
	}
	return &value, nil
}

func checkNonNegative(value float64, field string) error {
	if value < 0 {
		return fmt.Errorf("%s must be greater than or equal to 0", field)
	}
	if value > maxOverrideValue {
		return fmt.Errorf("%s must not exceed %g", field, maxOverrideValue)
	}
	return nil
}

func checkPercent(value float64, field string) error {
	if value < 0 || value > 100 {
		return fmt.Errorf("%s must be between 0 and 100", field)
	}
	return nil
}

func checkPositive(value float64, field string) error {
	if value <= 0 {
		return fmt.Errorf("%s must be greater than 0", field)
	}
	return checkNonNegative(value, field)
}
