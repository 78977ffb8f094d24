// Package resample changes the sampling rate of amplitude sequences.
package resample

import (
	"fmt"

	"gonum.org/v1/gonum/interp"

	"github.com/spherical/ecg-extractor/internal/domain"
)

// Upsample interpolates samples at factor times the source rate. The
// output has len(samples)*factor values; the i-th input sample lands at
// index i*factor unchanged. Positions past the last input sample hold its
// value.
func Upsample(samples []float64, factor int) ([]float64, error) {
	if factor < 1 {
		return nil, domain.ValidationError(fmt.Sprintf("upsample factor must be positive, got %d", factor), nil)
	}
	n := len(samples)
	out := make([]float64, n*factor)
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}

	var spline interp.FittablePredictor = &interp.NaturalCubic{}
	if n < 3 {
		spline = &interp.PiecewiseLinear{}
	}
	if n < 2 || factor == 1 {
		for i, v := range samples {
			for k := 0; k < factor; k++ {
				out[i*factor+k] = v
			}
		}
		return out, nil
	}
	if err := spline.Fit(xs, samples); err != nil {
		return nil, domain.ConversionError("failed to fit interpolating spline", err)
	}

	step := 1 / float64(factor)
	for i := range out {
		if i%factor == 0 {
			out[i] = samples[i/factor]
			continue
		}
		out[i] = spline.Predict(float64(i) * step)
	}
	return out, nil
}

// Frame resamples every lead of f to target, which must be an integer
// multiple of f.Frequency. The input frame is not modified.
func Frame(f *domain.Frame, target domain.Frequency) (*domain.Frame, error) {
	if f.Frequency <= 0 || target < f.Frequency || target%f.Frequency != 0 {
		return nil, domain.ValidationError(
			fmt.Sprintf("cannot resample %d Hz to %d Hz", f.Frequency, target), nil)
	}
	factor := int(target / f.Frequency)

	out := &domain.Frame{
		Frequency:       target,
		SourceFrequency: f.SourceFrequency,
		Leads:           make([]domain.LeadSignal, len(f.Leads)),
	}
	for i, s := range f.Leads {
		up, err := Upsample(s.Samples, factor)
		if err != nil {
			return nil, fmt.Errorf("lead %s: %w", s.Lead, err)
		}
		out.Leads[i] = domain.LeadSignal{Lead: s.Lead, Samples: up}
	}
	return out, nil
}
