package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Simplici0/hpp/internal/forecast"
)

type fakePlanner struct {
	results []forecast.Result
	err     error
	calls   int
}

func (f *fakePlanner) ComputeAll(context.Context, forecast.Options) ([]forecast.Result, error) {
	f.calls++
	return f.results, f.err
}

func TestNew_RejectsInvalidCronExpression(t *testing.T) {
	t.Parallel()

	_, err := New("every morning", time.UTC, &fakePlanner{}, nil)
	assert.ErrorContains(t, err, "schedule restock job")
}

func TestRunOnce_LogsOnlyProductsNeedingRestock(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	planner := &fakePlanner{results: []forecast.Result{
		{ProductID: "p-bread", ProductName: "Roti Manis", RecommendedRestock: 116, CurrentStock: 30, Trend: forecast.TrendUp},
		{ProductID: "p-cake", ProductName: "Bolu Pandan", RecommendedRestock: 0, CurrentStock: 400, Trend: forecast.TrendStable},
	}}

	s, err := New("0 6 * * *", time.UTC, planner, zap.New(core))
	require.NoError(t, err)

	results, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 1, planner.calls)

	recommended := logs.FilterMessage("restock recommended").All()
	require.Len(t, recommended, 1)
	assert.Equal(t, "p-bread", recommended[0].ContextMap()["product_id"])
	assert.EqualValues(t, 116, recommended[0].ContextMap()["recommended_restock"])

	finished := logs.FilterMessage("restock run finished").All()
	require.Len(t, finished, 1)
	assert.EqualValues(t, 1, finished[0].ContextMap()["needs_restock"])
}

func TestRunOnce_WrapsPlannerError(t *testing.T) {
	t.Parallel()

	cause := errors.New("database is locked")
	s, err := New("@daily", time.UTC, &fakePlanner{err: cause}, nil)
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background())
	assert.ErrorIs(t, err, cause)
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	s, err := New("0 6 * * *", time.UTC, &fakePlanner{}, nil)
	require.NoError(t, err)

	s.Start()
	require.Len(t, s.cron.Entries(), 1)
	assert.False(t, s.cron.Entries()[0].Next.IsZero())
	s.Stop()
}
