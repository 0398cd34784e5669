package ml

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// LogisticRegression is an L2-regularised binary logistic regression fitted
// with L-BFGS. Labels are 0 and 1.
type LogisticRegression struct {
	C       float64
	MaxIter int
	Tol     float64

	Coef      []float64
	Intercept float64

	// Set by the last Fit.
	Iterations int
	Converged  bool
	Status     optimize.Status
}

// NewLogisticRegression returns an unfitted model with C=1, 100 iterations
// and a gradient tolerance of 1e-4.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		C:       1.0,
		MaxIter: 100,
		Tol:     1e-4,
	}
}

// Kind names the model in checkpoints.
func (lr *LogisticRegression) Kind() string { return "logistic_regression" }

// Fitted reports whether Fit has produced coefficients.
func (lr *LogisticRegression) Fitted() bool { return len(lr.Coef) > 0 }

// Fit minimises (sum_i w(y_i)*logloss_i + ||coef||^2/(2C)) / sum_i w(y_i).
// Dividing by the total weight keeps the minimiser and makes Tol independent
// of the number of rows. Labels missing from classWeight get weight 1. A
// solver that stops early is not an error; check Converged and Status.
func (lr *LogisticRegression) Fit(x mat.Matrix, y []int, classWeight map[int]float64) error {
	if x == nil {
		return ErrEmptyDataset
	}
	n, d := x.Dims()
	if n != len(y) {
		return fmt.Errorf("%d rows, %d labels: %w", n, len(y), ErrShapeMismatch)
	}
	if n == 0 {
		return ErrEmptyDataset
	}
	if lr.C <= 0 {
		return fmt.Errorf("C must be positive, got %v", lr.C)
	}

	rows := make([][]float64, n)
	target := make([]float64, n)
	weight := make([]float64, n)
	var total float64
	for i := 0; i < n; i++ {
		rows[i] = mat.Row(nil, i, x)
		switch y[i] {
		case 0, 1:
		default:
			return fmt.Errorf("label %d at row %d is not binary", y[i], i)
		}
		target[i] = float64(y[i])
		weight[i] = 1
		if w, ok := classWeight[y[i]]; ok {
			weight[i] = w
		}
		total += weight[i]
	}
	if total <= 0 {
		total = 1
	}

	alpha := 1 / (lr.C * total)
	problem := optimize.Problem{
		Func: func(params []float64) float64 {
			coef, b := params[:d], params[d]
			var loss float64
			for i, row := range rows {
				z := floats.Dot(row, coef) + b
				loss += weight[i] * (softplus(z) - target[i]*z)
			}
			return loss/total + 0.5*alpha*floats.Dot(coef, coef)
		},
		Grad: func(grad, params []float64) {
			coef, b := params[:d], params[d]
			for j := range grad {
				grad[j] = 0
			}
			for i, row := range rows {
				z := floats.Dot(row, coef) + b
				r := weight[i] * (sigmoid(z) - target[i]) / total
				floats.AddScaled(grad[:d], r, row)
				grad[d] += r
			}
			floats.AddScaled(grad[:d], alpha, coef)
		},
	}

	settings := &optimize.Settings{
		GradientThreshold: lr.Tol,
		MajorIterations:   lr.MaxIter,
	}
	result, err := optimize.Minimize(problem, make([]float64, d+1), settings, &optimize.LBFGS{})
	if result == nil || len(result.X) != d+1 {
		if err == nil {
			err = errors.New("solver returned no location")
		}
		return fmt.Errorf("fit logistic regression: %w", err)
	}

	lr.Coef = append([]float64(nil), result.X[:d]...)
	lr.Intercept = result.X[d]
	lr.Iterations = result.Stats.MajorIterations
	lr.Status = result.Status
	lr.Converged = err == nil &&
		(result.Status == optimize.GradientThreshold || result.Status == optimize.FunctionConvergence)
	return nil
}

// DecisionFunction returns the signed distance of every row to the boundary.
// An unfitted model scores every row 0.
func (lr *LogisticRegression) DecisionFunction(x mat.Matrix) []float64 {
	if x == nil {
		return []float64{}
	}
	n, d := x.Dims()
	scores := make([]float64, n)
	if !lr.Fitted() {
		return scores
	}
	if d != len(lr.Coef) {
		panic(fmt.Sprintf("ml: %d columns, model has %d coefficients", d, len(lr.Coef)))
	}
	out := mat.NewVecDense(n, scores)
	out.MulVec(x, mat.NewVecDense(d, lr.Coef))
	for i := range scores {
		scores[i] += lr.Intercept
	}
	return scores
}

// Predict labels a row 1 when its score is positive.
func (lr *LogisticRegression) Predict(x mat.Matrix) []int {
	scores := lr.DecisionFunction(x)
	labels := make([]int, len(scores))
	for i, z := range scores {
		if z > 0 {
			labels[i] = 1
		}
	}
	return labels
}

// ClassWeights weights each class by the frequency of the other one, which
// makes both classes contribute equally to the loss.
func ClassWeights(labels []int) (map[int]float64, error) {
	if len(labels) == 0 {
		return nil, ErrEmptyDataset
	}
	var n0, n1 int
	for _, y := range labels {
		switch y {
		case 0:
			n0++
		case 1:
			n1++
		}
	}
	total := float64(len(labels))
	return map[int]float64{
		1: float64(n0) / total,
		0: float64(n1) / total,
	}, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus is log(1+exp(z)) without overflow.
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
