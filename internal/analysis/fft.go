package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/levelflow/internal/dynamo"
)

// PowerSpectrum returns |X[k]| for k in [0, n/2] of the mean-removed series.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return nil
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)

	centered := make([]float64, n)
	for i, v := range data {
		centered[i] = v - mean
	}

	spec := fft.FFTReal(centered)
	ps := make([]float64, n/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}
	return ps
}

// DominantPeriod finds the strongest non-DC bin and converts it to a period
// in samples.
func DominantPeriod(data []float64) (period, power float64, err error) {
	if len(data) < 4 {
		return 0, 0, dynamo.ErrNoData
	}
	ps := PowerSpectrum(data)
	best := 0
	for k := 1; k < len(ps); k++ {
		if ps[k] > power {
			best, power = k, ps[k]
		}
	}
	if best == 0 {
		return 0, 0, nil
	}
	return float64(len(data)) / float64(best), power, nil
}
