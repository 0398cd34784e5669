package ml

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(TimestampLayout, value)
	require.NoError(t, err)
	return ts
}

func TestComputeDelay(t *testing.T) {
	scheduled := mustParse(t, "2021-01-01 10:00:00")

	tests := []struct {
		name     string
		operated string
		want     int
	}{
		{"twenty minutes late", "2021-01-01 10:20:00", 1},
		{"ten minutes late", "2021-01-01 10:10:00", 0},
		{"exactly at threshold", "2021-01-01 10:15:00", 0},
		{"early", "2021-01-01 09:50:00", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDelay(scheduled, mustParse(t, tt.operated), DefaultDelayThreshold)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateLabelsRequiresSchedule(t *testing.T) {
	_, err := GenerateLabels([]FlightRecord{{Opera: "Iberia", TipoVuelo: "I", Mes: 3}}, DefaultDelayThreshold)
	assert.Error(t, err)

	_, err = GenerateLabels(nil, DefaultDelayThreshold)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

const sampleCSV = `Fecha-I,Vlo-I,Ori-I,Des-I,Emp-I,Fecha-O,Vlo-O,Ori-O,Des-O,Emp-O,DIA,MES,AÑO,DIANOM,TIPOVUELO,OPERA,SIGLAORI,SIGLADES
2017-01-01 23:30:00,226,SCEL,KMIA,AAL,2017-01-01 23:33:00,226,SCEL,KMIA,AAL,1,1,2017,Domingo,I,American Airlines,Santiago,Miami
2017-07-02 23:30:00,226,SCEL,KMIA,AAL,2017-07-02 23:58:00,226,SCEL,KMIA,AAL,2,7,2017,Lunes,I,Grupo LATAM,Santiago,Miami
`

func TestLoadFlightsCSV(t *testing.T) {
	records, err := LoadFlightsCSV(strings.NewReader(sampleCSV), "")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Grupo LATAM", records[1].Opera)
	assert.Equal(t, "I", records[1].TipoVuelo)
	assert.Equal(t, 7, records[1].Mes)

	labels, err := GenerateLabels(records, DefaultDelayThreshold)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, labels)
}

func TestLoadFlightsCSVLatin1(t *testing.T) {
	encoded, err := charmap.ISO8859_1.NewEncoder().String(sampleCSV)
	require.NoError(t, err)

	records, err := LoadFlightsCSV(bytes.NewBufferString(encoded), "latin1")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestLoadFlightsCSVErrors(t *testing.T) {
	_, err := LoadFlightsCSV(strings.NewReader("Fecha-I,OPERA\n"), "")
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = LoadFlightsCSV(strings.NewReader(""), "")
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = LoadFlightsCSV(strings.NewReader(sampleCSV), "ebcdic")
	assert.Error(t, err)

	bad := strings.Replace(sampleCSV, ",7,2017", ",julio,2017", 1)
	_, err = LoadFlightsCSV(strings.NewReader(bad), "")
	assert.ErrorContains(t, err, "MES")
}

func TestTrainTestSplit(t *testing.T) {
	records := make([]FlightRecord, 10)
	labels := make([]int, 10)
	for i := range records {
		records[i] = FlightRecord{Opera: "Grupo LATAM", TipoVuelo: "N", Mes: 2 + i}
		labels[i] = i % 2
	}
	features := Encode(records)

	trainX, trainY, testX, testY, err := TrainTestSplit(features, labels, 0.33, 42)
	require.NoError(t, err)
	assert.Equal(t, 4, testX.Rows())
	assert.Len(t, testY, 4)
	assert.Equal(t, 6, trainX.Rows())
	assert.Len(t, trainY, 6)

	again, _, _, _, err := TrainTestSplit(features, labels, 0.33, 42)
	require.NoError(t, err)
	assert.True(t, trainX.Equal(again))

	_, _, _, _, err = TrainTestSplit(features, labels[:3], 0.33, 42)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, _, _, _, err = TrainTestSplit(features, labels, 1.5, 42)
	assert.Error(t, err)
}
