package indicators

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"TraderBlock/internal/domain/models"
)

const eps = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < eps }

func assertApprox(t *testing.T, name string, got, want float64) {
	t.Helper()
	if !approx(got, want) {
		t.Fatalf("%s: got %.12f want %.12f", name, got, want)
	}
}

func randomWalk(n int, seed int64) models.TimeSeries {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	price := 100.0
	bars := make([]models.Bar, n)
	for i := 0; i < n; i++ {
		open := price
		price *= 1 + (rng.Float64()-0.5)*0.04
		hi := math.Max(open, price) * (1 + rng.Float64()*0.01)
		lo := math.Min(open, price) * (1 - rng.Float64()*0.01)
		bars[i] = models.Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      open,
			High:      hi,
			Low:       lo,
			Close:     price,
			Volume:    1e6 + rng.Float64()*1e5,
		}
	}
	return models.NewTimeSeries("TEST", bars)
}

func risingSeries(symbol string, n int) models.TimeSeries {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := 0; i < n; i++ {
		c := 100 + float64(i)*0.5
		bars[i] = models.Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c - 0.2,
			High:      c + 0.3,
			Low:       c - 0.4,
			Close:     c,
			Volume:    1e6,
		}
	}
	return models.NewTimeSeries(symbol, bars)
}
