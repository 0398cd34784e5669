package ml

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPredictor struct {
	rows atomic.Int64
}

func (c *countingPredictor) Predict(features Features) []int {
	c.rows.Add(int64(features.Rows()))
	out := make([]int, features.Rows())
	for i := range out {
		if features.Row(i)[featureIndex["OPERA_Grupo LATAM"]] {
			out[i] = 1
		}
	}
	return out
}

func TestProviderLoadsOnce(t *testing.T) {
	var calls atomic.Int32
	p := NewProvider(func() (Predictor, error) {
		calls.Add(1)
		return &countingPredictor{}, nil
	})

	var wg sync.WaitGroup
	results := make([]Predictor, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pred, err := p.Predictor()
			assert.NoError(t, err)
			results[i] = pred
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestProviderKeepsLoadError(t *testing.T) {
	var calls int
	boom := errors.New("boom")
	p := NewProvider(func() (Predictor, error) {
		calls++
		return nil, boom
	})
	_, err := p.Predictor()
	assert.ErrorIs(t, err, boom)
	_, err = p.Predictor()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestCachedPredictor(t *testing.T) {
	inner := &countingPredictor{}
	cached, err := NewCachedPredictor(inner, 8)
	require.NoError(t, err)

	features := Encode([]FlightRecord{
		{Opera: "Grupo LATAM", TipoVuelo: "N", Mes: 3},
		{Opera: "Aerolineas Argentinas", TipoVuelo: "N", Mes: 3},
		{Opera: "Grupo LATAM", TipoVuelo: "N", Mes: 3},
	})

	assert.Equal(t, []int{1, 0, 1}, cached.Predict(features))
	assert.Equal(t, int64(3), inner.rows.Load())
	assert.Equal(t, 2, cached.Len())

	assert.Equal(t, []int{1, 0, 1}, cached.Predict(features))
	assert.Equal(t, int64(3), inner.rows.Load())

	assert.Equal(t, []int{}, cached.Predict(Features{}))

	_, err = NewCachedPredictor(inner, 0)
	assert.Error(t, err)
}
