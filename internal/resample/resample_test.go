package resample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/ecg-extractor/internal/domain"
)

func TestUpsample(t *testing.T) {
	in := []float64{0, 1, 4, 9, 16, 25}
	out, err := Upsample(in, 2)
	require.NoError(t, err)
	require.Len(t, out, 12)

	for i, v := range in {
		assert.Equal(t, v, out[2*i], "knot %d", i)
	}
	for i := 1; i < 10; i += 2 {
		assert.Greater(t, out[i], out[i-1])
		assert.Less(t, out[i], out[i+1])
	}
	assert.Equal(t, 25.0, out[11], "tail holds the last sample")
}

func TestUpsample_Linear(t *testing.T) {
	in := []float64{2, 4, 6, 8}
	out, err := Upsample(in, 2)
	require.NoError(t, err)
	for i, want := range []float64{2, 3, 4, 5, 6, 7, 8} {
		assert.InDelta(t, want, out[i], 1e-9)
	}
}

func TestUpsample_Degenerate(t *testing.T) {
	out, err := Upsample([]float64{7}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 7}, out)

	out, err = Upsample(nil, 2)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = Upsample([]float64{1, 2}, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, out)

	_, err = Upsample([]float64{1, 2}, 0)
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
}

func TestFrame(t *testing.T) {
	f := &domain.Frame{
		Frequency:       domain.Frequency250,
		SourceFrequency: domain.Frequency250,
		Leads: []domain.LeadSignal{
			{Lead: domain.LeadRhythmII, Samples: make([]float64, 2500)},
			{Lead: domain.LeadI, Samples: make([]float64, 619)},
		},
	}

	up, err := Frame(f, domain.Frequency500)
	require.NoError(t, err)
	assert.Equal(t, domain.Frequency500, up.Frequency)
	assert.Equal(t, domain.Frequency250, up.SourceFrequency)
	assert.Len(t, up.Leads[0].Samples, 5000)
	assert.Len(t, up.Leads[1].Samples, 1238)
	assert.Equal(t, domain.LeadI, up.Leads[1].Lead)
	assert.Len(t, f.Leads[1].Samples, 619, "input untouched")

	_, err = Frame(up, domain.Frequency250)
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
}

func TestUpsample_TwoSamples(t *testing.T) {
	out, err := Upsample([]float64{0, 2}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 2}, out)
}
