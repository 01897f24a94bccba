package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Simplici0/hpp/internal/forecast"
)

const runTimeout = 2 * time.Minute

// Planner produces restock recommendations for every product.
type Planner interface {
	ComputeAll(ctx context.Context, opts forecast.Options) ([]forecast.Result, error)
}

// Scheduler periodically logs restock recommendations.
type Scheduler struct {
	cron    *cron.Cron
	planner Planner
	logger  *zap.Logger
}

// New registers the restock job on the standard five-field cron expression expr,
// evaluated in loc.
func New(expr string, loc *time.Location, planner Planner, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		planner: planner,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(expr, s.runScheduled); err != nil {
		return nil, fmt.Errorf("schedule restock job %q: %w", expr, err)
	}
	return s, nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.Int("jobs", len(s.cron.Entries())))
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("restock run failed", zap.Error(err))
	}
}

// RunOnce forecasts every product and logs those that need restocking.
func (s *Scheduler) RunOnce(ctx context.Context) ([]forecast.Result, error) {
	results, err := s.planner.ComputeAll(ctx, forecast.Options{})
	if err != nil {
		return nil, fmt.Errorf("compute restock plan: %w", err)
	}

	pending := 0
	for _, r := range results {
		if r.RecommendedRestock <= 0 {
			continue
		}
		pending++
		s.logger.Info("restock recommended",
			zap.String("product_id", r.ProductID),
			zap.String("product", r.ProductName),
			zap.Int("recommended_restock", r.RecommendedRestock),
			zap.Int("current_stock", r.CurrentStock),
			zap.String("trend", string(r.Trend)),
		)
	}
	s.logger.Info("restock run finished",
		zap.Int("products", len(results)),
		zap.Int("needs_restock", pending),
	)
	return results, nil
}
