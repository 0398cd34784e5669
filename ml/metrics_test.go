package ml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassificationReport(t *testing.T) {
	report, err := ClassificationReport([]int{0, 0, 1, 1}, []int{0, 1, 1, 1})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, report.Classes)
	assert.InDelta(t, 0.75, report.Accuracy, 1e-12)

	zero := report.PerClass[0]
	assert.InDelta(t, 1.0, zero.Precision, 1e-12)
	assert.InDelta(t, 0.5, zero.Recall, 1e-12)
	assert.Equal(t, 2, zero.Support)

	one := report.PerClass[1]
	assert.InDelta(t, 2.0/3.0, one.Precision, 1e-12)
	assert.InDelta(t, 1.0, one.Recall, 1e-12)
	assert.InDelta(t, 0.8, one.F1, 1e-12)

	text := report.String()
	for _, want := range []string{"precision", "accuracy", "macro avg", "weighted avg"} {
		assert.True(t, strings.Contains(text, want), want)
	}
}

func TestClassificationReportNoPositivePredictions(t *testing.T) {
	report, err := ClassificationReport([]int{0, 1}, []int{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.PerClass[1].Precision)
	assert.Equal(t, 0.0, report.PerClass[1].F1)
}

func TestClassificationReportErrors(t *testing.T) {
	_, err := ClassificationReport([]int{0}, nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = ClassificationReport(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}
