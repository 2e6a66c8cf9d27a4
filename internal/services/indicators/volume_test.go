package indicators

import (
	"math"
	"testing"
)

func TestVWAPAndOBV(t *testing.T) {
	vwap := VWAP([]float64{10, 20}, []float64{1, 3})
	assertApprox(t, "vwap0", vwap[0], 10)
	assertApprox(t, "vwap1", vwap[1], 17.5)

	if v := VWAP([]float64{10}, []float64{0}); !math.IsNaN(v[0]) {
		t.Fatalf("vwap with no volume must be null")
	}

	obv := OBV([]float64{1, 2, 1, 1}, []float64{5, 6, 7, 8})
	want := []float64{0, 6, -1, -1}
	for i := range want {
		assertApprox(t, "obv", obv[i], want[i])
	}
}

func TestVolumeROC(t *testing.T) {
	roc := VolumeROC([]float64{100, 0, 150, 50}, 2)
	assertApprox(t, "roc2", roc[2], 0.5)
	if !math.IsNaN(roc[3]) {
		t.Fatalf("zero base volume must be null")
	}
}
