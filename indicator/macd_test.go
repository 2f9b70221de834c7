package indicator

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"
)

func TestEMA(t *testing.T) {
	// Ensure invalid inputs are rejected.
	_, err := EMA(nil, 3)
	assert.Error(t, err)

	_, err = EMA([]float64{1, 2}, 0)
	assert.Error(t, err)

	// Ensure the series is seeded with the first value and follows the
	// recursive form with alpha = 2 / (span + 1).
	ema, err := EMA([]float64{1, 2, 3}, 3)
	assert.NoError(t, err)

	want := []float64{1, 1.5, 2.25}
	if !cmp.Equal(ema, want) {
		t.Errorf("mismatching ema series, got %v", cmp.Diff(ema, want))
	}
}

func TestMACD(t *testing.T) {
	closes := make([]float64, 60)
	for idx := range closes {
		closes[idx] = 100 + float64(idx)
	}

	macd, err := NewMACD(closes)
	assert.NoError(t, err)
	assert.Equal(t, len(macd.DIF), len(closes))
	assert.Equal(t, len(macd.DEA), len(closes))
	assert.Equal(t, len(macd.Histogram), len(closes))

	// Ensure the histogram is the difference of the dif and dea series.
	for idx := range closes {
		assert.Equal(t, macd.Histogram[idx], macd.DIF[idx]-macd.DEA[idx])
	}

	// Ensure a steadily rising series produces a positive dif once the fast
	// average pulls ahead of the slow one.
	last := len(closes) - 1
	assert.GreaterThan(t, macd.DIF[last], float64(0))
	assert.GreaterThan(t, macd.DEA[last], float64(0))
}
