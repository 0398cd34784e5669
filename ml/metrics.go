package ml

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ClassMetrics holds the scores of a single class or average.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
	Support   int     `json:"support"`
}

// Report is a per-class precision/recall summary of a validation run.
type Report struct {
	Classes     []int                `json:"classes"`
	PerClass    map[int]ClassMetrics `json:"per_class"`
	Accuracy    float64              `json:"accuracy"`
	MacroAvg    ClassMetrics         `json:"macro_avg"`
	WeightedAvg ClassMetrics         `json:"weighted_avg"`
}

// ClassificationReport scores yPred against yTrue.
func ClassificationReport(yTrue, yPred []int) (Report, error) {
	if len(yTrue) != len(yPred) {
		return Report{}, fmt.Errorf("%d truths, %d predictions: %w", len(yTrue), len(yPred), ErrShapeMismatch)
	}
	if len(yTrue) == 0 {
		return Report{}, ErrEmptyDataset
	}

	seen := make(map[int]struct{})
	tp := make(map[int]int)
	predicted := make(map[int]int)
	actual := make(map[int]int)
	correct := 0
	for i, truth := range yTrue {
		pred := yPred[i]
		seen[truth] = struct{}{}
		seen[pred] = struct{}{}
		actual[truth]++
		predicted[pred]++
		if truth == pred {
			tp[truth]++
			correct++
		}
	}

	classes := make([]int, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	total := len(yTrue)
	report := Report{
		Classes:  classes,
		PerClass: make(map[int]ClassMetrics, len(classes)),
		Accuracy: float64(correct) / float64(total),
	}
	for _, c := range classes {
		m := ClassMetrics{
			Precision: ratio(tp[c], predicted[c]),
			Recall:    ratio(tp[c], actual[c]),
			Support:   actual[c],
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		report.PerClass[c] = m

		k := float64(len(classes))
		report.MacroAvg.Precision += m.Precision / k
		report.MacroAvg.Recall += m.Recall / k
		report.MacroAvg.F1 += m.F1 / k

		w := float64(m.Support) / float64(total)
		report.WeightedAvg.Precision += m.Precision * w
		report.WeightedAvg.Recall += m.Recall * w
		report.WeightedAvg.F1 += m.F1 * w
	}
	report.MacroAvg.Support = total
	report.WeightedAvg.Support = total
	return report, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// String renders the report in the usual precision/recall table layout.
func (r Report) String() string {
	const width = len("weighted avg")
	var b strings.Builder
	fmt.Fprintf(&b, "%*s  %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	for _, c := range r.Classes {
		m := r.PerClass[c]
		fmt.Fprintf(&b, "%*s  %9.2f %9.2f %9.2f %9d\n", width, strconv.Itoa(c), m.Precision, m.Recall, m.F1, m.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%*s  %9s %9s %9.2f %9d\n", width, "accuracy", "", "", r.Accuracy, r.MacroAvg.Support)
	for _, row := range []struct {
		name string
		m    ClassMetrics
	}{{"macro avg", r.MacroAvg}, {"weighted avg", r.WeightedAvg}} {
		fmt.Fprintf(&b, "%*s  %9.2f %9.2f %9.2f %9d\n", width, row.name, row.m.Precision, row.m.Recall, row.m.F1, row.m.Support)
	}
	return b.String()
}
