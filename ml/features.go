package ml

import (
	"errors"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// topFeatures is the curated one-hot subset the classifier is trained on.
// The order is part of the checkpoint contract.
var topFeatures = [...]string{
	"OPERA_Latin American Wings",
	"MES_7",
	"MES_10",
	"OPERA_Grupo LATAM",
	"MES_12",
	"TIPOVUELO_I",
	"MES_4",
	"MES_11",
	"OPERA_Sky Airline",
	"OPERA_Copa Air",
}

// NumFeatures is the width of every encoded row.
const NumFeatures = len(topFeatures)

var featureIndex = func() map[string]int {
	idx := make(map[string]int, NumFeatures)
	for i, name := range topFeatures {
		idx[name] = i
	}
	return idx
}()

// ErrShapeMismatch is returned when paired inputs differ in length.
var ErrShapeMismatch = errors.New("shape mismatch")

// TopFeatures returns the designated column names in encoding order.
func TopFeatures() []string {
	return append([]string(nil), topFeatures[:]...)
}

// Features is an encoded batch: one 0/1 row per flight over TopFeatures.
// The zero value is an empty batch.
type Features struct {
	data *mat.Dense
}

// Encode one-hot encodes records over the designated columns. Categories
// outside TopFeatures are dropped and absent columns stay false, so the shape
// never depends on what the batch contains.
func Encode(records []FlightRecord) Features {
	if len(records) == 0 {
		return Features{}
	}
	data := mat.NewDense(len(records), NumFeatures, nil)
	for i, r := range records {
		for _, name := range dummyColumns(r) {
			if j, ok := featureIndex[name]; ok {
				data.Set(i, j, 1)
			}
		}
	}
	return Features{data: data}
}

func dummyColumns(r FlightRecord) [3]string {
	return [3]string{
		"OPERA_" + r.Opera,
		"TIPOVUELO_" + r.TipoVuelo,
		"MES_" + strconv.Itoa(r.Mes),
	}
}

// Rows returns the number of flights in the batch.
func (f Features) Rows() int {
	if f.data == nil {
		return 0
	}
	r, _ := f.data.Dims()
	return r
}

// Columns returns the column names, same as TopFeatures.
func (f Features) Columns() []string {
	return TopFeatures()
}

// Row returns row i as booleans.
func (f Features) Row(i int) []bool {
	row := make([]bool, NumFeatures)
	for j := range row {
		row[j] = f.data.At(i, j) != 0
	}
	return row
}

// Matrix exposes the underlying dense matrix, nil for an empty batch.
func (f Features) Matrix() *mat.Dense {
	return f.data
}

// Equal reports whether both batches hold the same rows.
func (f Features) Equal(other Features) bool {
	if f.Rows() != other.Rows() {
		return false
	}
	if f.Rows() == 0 {
		return true
	}
	return mat.Equal(f.data, other.data)
}

// Subset returns the rows at idx, in idx order.
func (f Features) Subset(idx []int) Features {
	if len(idx) == 0 {
		return Features{}
	}
	data := mat.NewDense(len(idx), NumFeatures, nil)
	for i, src := range idx {
		data.SetRow(i, f.data.RawRowView(src))
	}
	return Features{data: data}
}

// rowKey packs row i into a bitmask, bit j set when column j is true.
func (f Features) rowKey(i int) uint16 {
	var key uint16
	for j, v := range f.data.RawRowView(i) {
		if v != 0 {
			key |= 1 << uint(j)
		}
	}
	return key
}
