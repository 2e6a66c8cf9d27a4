package models

import (
	"sort"
	"strings"
	"time"
)

// Bar is one daily OHLCV observation.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// TimeSeries is an ascending, timestamp-unique sequence of bars for one symbol.
// The zero value is a valid empty series.
type TimeSeries struct {
	Symbol string
	Bars   []Bar
}

// NewTimeSeries sorts bars ascending and drops duplicate timestamps.
// When two bars share a timestamp the one appearing later in the input wins.
func NewTimeSeries(symbol string, bars []Bar) TimeSeries {
	ts := TimeSeries{Symbol: NormalizeTicker(symbol)}
	if len(bars) == 0 {
		return ts
	}

	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	out := make([]Bar, 0, len(sorted))
	for _, b := range sorted {
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(b.Timestamp) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	ts.Bars = out
	return ts
}

// Len returns the number of bars.
func (ts TimeSeries) Len() int { return len(ts.Bars) }

// Empty reports whether the series has no bars.
func (ts TimeSeries) Empty() bool { return len(ts.Bars) == 0 }

// Last returns the most recent bar; ok is false on an empty series.
func (ts TimeSeries) Last() (Bar, bool) {
	if len(ts.Bars) == 0 {
		return Bar{}, false
	}
	return ts.Bars[len(ts.Bars)-1], true
}

func (ts TimeSeries) column(f func(Bar) float64) []float64 {
	out := make([]float64, len(ts.Bars))
	for i, b := range ts.Bars {
		out[i] = f(b)
	}
	return out
}

func (ts TimeSeries) Closes() []float64  { return ts.column(func(b Bar) float64 { return b.Close }) }
func (ts TimeSeries) Opens() []float64   { return ts.column(func(b Bar) float64 { return b.Open }) }
func (ts TimeSeries) Highs() []float64   { return ts.column(func(b Bar) float64 { return b.High }) }
func (ts TimeSeries) Lows() []float64    { return ts.column(func(b Bar) float64 { return b.Low }) }
func (ts TimeSeries) Volumes() []float64 { return ts.column(func(b Bar) float64 { return b.Volume }) }

// Times returns bar timestamps in series order.
func (ts TimeSeries) Times() []time.Time {
	out := make([]time.Time, len(ts.Bars))
	for i, b := range ts.Bars {
		out[i] = b.Timestamp
	}
	return out
}

// NormalizeTicker trims and upper-cases a ticker symbol.
func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
