package forecast

import (
	"time"

	"github.com/Simplici0/hpp/internal/model"
)

// DailySeries buckets sale quantities into days consecutive calendar days
// ending on the day of now (in loc). Index 0 is the oldest day.
func DailySeries(sales []model.Sale, now time.Time, loc *time.Location, days int) []float64 {
	if days <= 0 {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	series := make([]float64, days)
	today := civilDate(now.In(loc))
	start := today.AddDate(0, 0, -(days - 1))

	for _, s := range sales {
		day := civilDate(s.SoldAt.In(loc))
		if day.Before(start) || day.After(today) {
			continue
		}
		series[daysBetween(start, day)] += s.Quantity
	}
	return series
}

// MovingAverage is the mean of the last n values, or of all values when fewer
// than n exist. The mean of an empty series is 0.
func MovingAverage(series []float64, n int) float64 {
	if n <= 0 || len(series) == 0 {
		return 0
	}
	window := series
	if len(series) > n {
		window = series[len(series)-n:]
	}

	sum := 0.0
	for _, v := range window {
		sum += v
	}
	return sum / float64(len(window))
}

// LinearRegression fits y = slope*x + intercept by ordinary least squares with
// x = 0..len(ys)-1. Fewer than two points or zero variance yields (0, 0).
func LinearRegression(ys []float64) (slope, intercept float64) {
	n := float64(len(ys))
	if len(ys) < 2 {
		return 0, 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, 0
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// civilDate truncates t to midnight of its calendar day, expressed in UTC so
// day arithmetic is unaffected by DST shifts in the source location.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
