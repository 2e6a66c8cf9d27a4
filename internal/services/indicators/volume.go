package indicators

const DefaultVolumeROCPeriod = 10

// VWAP is the cumulative close×volume over cumulative volume. It is null
// while no volume has traded.
func VWAP(closes, volumes []float64) []float64 {
	n := minLen(closes, volumes)
	out := filled(n)
	var pv, vol float64
	for i := 0; i < n; i++ {
		v := volumes[i]
		if isNull(v) {
			v = 0
		}
		pv += closes[i] * v
		vol += v
		if vol != 0 {
			out[i] = pv / vol
		}
	}
	return out
}

// OBV accumulates volume signed by the direction of the close.
func OBV(closes, volumes []float64) []float64 {
	n := minLen(closes, volumes)
	out := make([]float64, n)
	acc := 0.0
	for i := 0; i < n; i++ {
		if i > 0 {
			v := volumes[i]
			if isNull(v) {
				v = 0
			}
			switch {
			case closes[i] > closes[i-1]:
				acc += v
			case closes[i] < closes[i-1]:
				acc -= v
			}
		}
		out[i] = acc
	}
	return out
}

// VolumeROC is the rate of change of volume over period bars; zero base
// volume is null.
func VolumeROC(volumes []float64, period int) []float64 {
	out := filled(len(volumes))
	if period <= 0 {
		return out
	}
	for i := period; i < len(volumes); i++ {
		base := volumes[i-period]
		if isNull(base) || base == 0 || isNull(volumes[i]) {
			continue
		}
		out[i] = volumes[i]/base - 1
	}
	return out
}
