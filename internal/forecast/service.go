package forecast

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Simplici0/hpp/internal/catalog"
	"github.com/Simplici0/hpp/internal/model"
)

// Service runs the engine against records fetched from a catalog source.
type Service struct {
	src    catalog.Source
	engine *Engine
	logger *zap.Logger
}

// NewService wires a forecast service.
func NewService(src catalog.Source, engine *Engine, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{src: src, engine: engine, logger: logger}
}

// Compute forecasts demand for one product. It returns (nil, nil) when the
// product does not exist; errors only come from the source.
func (s *Service) Compute(ctx context.Context, productID string, opts Options) (*Result, error) {
	products, err := s.src.FetchProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	product, err := catalog.FindProduct(products, productID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		s.logger.Debug("forecast for unknown product", zap.String("product_id", productID))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	materials, err := s.src.FetchMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch materials: %w", err)
	}
	sales, err := s.src.FetchSales(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("fetch sales: %w", err)
	}

	res := s.engine.Project(product, materials, sales, opts)
	s.logger.Debug("forecast computed",
		zap.String("product_id", productID),
		zap.Int("total_forecast", res.TotalForecast),
		zap.Int("recommended_restock", res.RecommendedRestock),
		zap.String("trend", string(res.Trend)),
	)
	return &res, nil
}

// ComputeAll forecasts every product, ordered by recommended restock, largest first.
func (s *Service) ComputeAll(ctx context.Context, opts Options) ([]Result, error) {
	products, err := s.src.FetchProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	materials, err := s.src.FetchMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch materials: %w", err)
	}
	sales, err := s.src.FetchSales(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("fetch sales: %w", err)
	}

	if opts.Now.IsZero() {
		opts.Now = s.engine.now()
	}
	byProduct := lo.GroupBy(sales, func(sale model.Sale) string { return sale.ProductID })

	results := make([]Result, 0, len(products))
	for _, p := range products {
		results = append(results, s.engine.Project(p, materials, byProduct[p.ID], opts))
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(b.RecommendedRestock, a.RecommendedRestock)
	})
	return results, nil
}
