package indicators

import (
	"math"
	"testing"
)

func TestQuantileLinear(t *testing.T) {
	xs := []float64{5, 1, 4, 2, 3}
	cases := []struct {
		q    float64
		want float64
	}{
		{0, 1},
		{0.05, 1.2},
		{0.5, 3},
		{0.75, 4},
		{1, 5},
	}
	for _, c := range cases {
		assertApprox(t, "quantile", Quantile(xs, c.q), c.want)
	}
	if !math.IsNaN(Quantile(nil, 0.5)) {
		t.Fatalf("expected NaN quantile of empty input")
	}
}

func TestRollingMeanAndStd(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	m := RollingMean(xs, 2)
	if !math.IsNaN(m[0]) {
		t.Fatalf("expected leading NaN")
	}
	assertApprox(t, "mean[1]", m[1], 1.5)
	assertApprox(t, "mean[3]", m[3], 3.5)

	sd := RollingStd(xs, 3)
	assertApprox(t, "std[2]", sd[2], 1)
	assertApprox(t, "std[3]", sd[3], 1)

	if !math.IsNaN(RollingStd(xs, 1)[3]) {
		t.Fatalf("window 1 has no sample stdev")
	}
}

func TestRollingMeanPropagatesGaps(t *testing.T) {
	xs := []float64{1, math.NaN(), 3, 4}
	m := RollingMean(xs, 2)
	if !math.IsNaN(m[1]) || !math.IsNaN(m[2]) {
		t.Fatalf("window containing NaN must be NaN: %v", m)
	}
	assertApprox(t, "mean[3]", m[3], 3.5)
}

func TestPctChange(t *testing.T) {
	got := PctChange([]float64{100, 110, 99})
	if len(got) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(got))
	}
	assertApprox(t, "r0", got[0], 0.1)
	assertApprox(t, "r1", got[1], -0.1)
	if PctChange([]float64{1}) != nil {
		t.Fatalf("expected nil for single value")
	}
}

func TestTailDropsNulls(t *testing.T) {
	got := Tail([]float64{math.NaN(), 1, math.Inf(1), 2, 3}, 2)
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("unexpected tail %v", got)
	}
}

func TestFloatNullsNonFinite(t *testing.T) {
	if Float(math.NaN()).Valid || Float(math.Inf(-1)).Valid {
		t.Fatalf("non-finite values must be null")
	}
	if f := Float(1.5); !f.Valid || f.Float64 != 1.5 {
		t.Fatalf("expected valid 1.5, got %+v", f)
	}
}

func TestMomentsNeedEnoughValues(t *testing.T) {
	if Kurtosis([]float64{1, 2, 3}).Valid {
		t.Fatalf("kurtosis needs 4 values")
	}
	if Skewness([]float64{1, 2}).Valid {
		t.Fatalf("skewness needs 3 values")
	}
	if Kurtosis([]float64{2, 2, 2, 2, 2}).Valid {
		t.Fatalf("zero variance kurtosis must be null")
	}
	sk := Skewness([]float64{1, 2, 3, 4, 5})
	if !sk.Valid || !approx(sk.Float64, 0) {
		t.Fatalf("symmetric data skew should be 0, got %+v", sk)
	}
	// Uniform 1..5: excess kurtosis (bias corrected) is -1.2.
	k := Kurtosis([]float64{1, 2, 3, 4, 5})
	if !k.Valid || !approx(k.Float64, -1.2) {
		t.Fatalf("unexpected kurtosis %+v", k)
	}
}
