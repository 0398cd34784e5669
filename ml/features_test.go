package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDesignatedColumns(t *testing.T) {
	features := Encode([]FlightRecord{
		{Opera: "Grupo LATAM", TipoVuelo: "I", Mes: 7},
	})
	require.Equal(t, 1, features.Rows())

	row := features.Row(0)
	want := map[string]bool{
		"OPERA_Grupo LATAM": true,
		"TIPOVUELO_I":       true,
		"MES_7":             true,
	}
	for j, name := range features.Columns() {
		assert.Equal(t, want[name], row[j], name)
	}
}

func TestEncodeUnknownCategoriesAreDropped(t *testing.T) {
	features := Encode([]FlightRecord{
		{Opera: "Nonexistent Air", TipoVuelo: "N", Mes: 3},
		{Opera: "Aerolineas Argentinas", TipoVuelo: "X", Mes: 1},
	})
	require.Equal(t, 2, features.Rows())
	for i := 0; i < features.Rows(); i++ {
		assert.Equal(t, make([]bool, NumFeatures), features.Row(i))
	}
}

func TestEncodeIsIdempotentAndOrderStable(t *testing.T) {
	a := FlightRecord{Opera: "Sky Airline", TipoVuelo: "N", Mes: 12}
	b := FlightRecord{Opera: "Copa Air", TipoVuelo: "I", Mes: 4}

	first := Encode([]FlightRecord{a, b})
	second := Encode([]FlightRecord{a, b})
	assert.True(t, first.Equal(second))

	swapped := Encode([]FlightRecord{b, a})
	assert.Equal(t, first.Row(0), swapped.Row(1))
	assert.Equal(t, first.Row(1), swapped.Row(0))

	// a single-row batch encodes the same as that row inside a larger batch
	alone := Encode([]FlightRecord{b})
	assert.Equal(t, first.Row(1), alone.Row(0))
}

func TestEncodeEmptyBatch(t *testing.T) {
	features := Encode(nil)
	assert.Equal(t, 0, features.Rows())
	assert.Nil(t, features.Matrix())
	assert.True(t, features.Equal(Features{}))
}

func TestFeaturesSubsetAndRowKey(t *testing.T) {
	features := Encode([]FlightRecord{
		{Opera: "Latin American Wings", TipoVuelo: "N", Mes: 2},
		{Opera: "Copa Air", TipoVuelo: "I", Mes: 2},
	})
	sub := features.Subset([]int{1})
	require.Equal(t, 1, sub.Rows())
	assert.Equal(t, features.Row(1), sub.Row(0))

	assert.Equal(t, uint16(1), features.rowKey(0))
	assert.Equal(t, uint16(1<<5|1<<9), features.rowKey(1))
}
