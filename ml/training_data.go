package ml

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// TimestampLayout is the layout of Fecha-I and Fecha-O in the training data.
const TimestampLayout = "2006-01-02 15:04:05"

// DefaultDelayThreshold is the gap above which a flight counts as delayed.
const DefaultDelayThreshold = 15 * time.Minute

var (
	ErrEmptyDataset  = errors.New("dataset is empty")
	ErrMissingColumn = errors.New("missing column")
)

// ComputeDelay returns 1 when the operated departure is more than threshold
// after the scheduled one, 0 otherwise.
func ComputeDelay(fechaI, fechaO time.Time, threshold time.Duration) int {
	if fechaO.Sub(fechaI) > threshold {
		return 1
	}
	return 0
}

// GenerateLabels computes the delay label of every record.
func GenerateLabels(records []FlightRecord, threshold time.Duration) ([]int, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	labels := make([]int, len(records))
	for i, r := range records {
		if !r.HasSchedule() {
			return nil, fmt.Errorf("record %d has no Fecha-I/Fecha-O", i)
		}
		labels[i] = ComputeDelay(r.FechaI, r.FechaO, threshold)
	}
	return labels, nil
}

var csvColumns = []string{"Fecha-I", "Fecha-O", "OPERA", "TIPOVUELO", "MES"}

// LoadFlightsCSV reads historical flights. charset is "utf-8" (or empty),
// "latin1" or "windows-1252".
func LoadFlightsCSV(r io.Reader, charset string) ([]FlightRecord, error) {
	dec, err := csvDecoder(charset)
	if err != nil {
		return nil, err
	}
	if dec != nil {
		r = transform.NewReader(r, dec.NewDecoder())
	}

	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		index[strings.TrimSpace(name)] = i
	}
	for _, col := range csvColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%q: %w", col, ErrMissingColumn)
		}
	}

	var records []FlightRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		rec, err := parseFlightRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	return records, nil
}

func parseFlightRow(row []string, index map[string]int) (FlightRecord, error) {
	mes, err := strconv.Atoi(strings.TrimSpace(row[index["MES"]]))
	if err != nil {
		return FlightRecord{}, fmt.Errorf("MES: %w", err)
	}
	fechaI, err := time.Parse(TimestampLayout, row[index["Fecha-I"]])
	if err != nil {
		return FlightRecord{}, fmt.Errorf("Fecha-I: %w", err)
	}
	fechaO, err := time.Parse(TimestampLayout, row[index["Fecha-O"]])
	if err != nil {
		return FlightRecord{}, fmt.Errorf("Fecha-O: %w", err)
	}
	return FlightRecord{
		Opera:     row[index["OPERA"]],
		TipoVuelo: row[index["TIPOVUELO"]],
		Mes:       mes,
		FechaI:    fechaI,
		FechaO:    fechaO,
	}, nil
}

func csvDecoder(charset string) (encoding.Encoding, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "latin1", "latin-1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported csv encoding %q", charset)
	}
}

// TrainTestSplit shuffles rows with a fixed seed and holds out
// ceil(n*testRatio) of them for validation.
func TrainTestSplit(features Features, labels []int, testRatio float64, seed int64) (trainX Features, trainY []int, testX Features, testY []int, err error) {
	n := features.Rows()
	if n != len(labels) {
		return Features{}, nil, Features{}, nil, fmt.Errorf("%d rows, %d labels: %w", n, len(labels), ErrShapeMismatch)
	}
	if n == 0 {
		return Features{}, nil, Features{}, nil, ErrEmptyDataset
	}
	if testRatio <= 0 || testRatio >= 1 {
		return Features{}, nil, Features{}, nil, fmt.Errorf("test ratio %v outside (0, 1)", testRatio)
	}

	nTest := int(math.Ceil(float64(n) * testRatio))
	if nTest >= n {
		return Features{}, nil, Features{}, nil, fmt.Errorf("test ratio %v leaves no training rows out of %d", testRatio, n)
	}

	rnd := rand.New(rand.NewSource(seed))
	perm := rnd.Perm(n)
	testIdx, trainIdx := perm[:nTest], perm[nTest:]

	pick := func(idx []int) []int {
		out := make([]int, len(idx))
		for i, src := range idx {
			out[i] = labels[src]
		}
		return out
	}
	return features.Subset(trainIdx), pick(trainIdx), features.Subset(testIdx), pick(testIdx), nil
}
