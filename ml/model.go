package ml

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// DefaultCheckpoint is where the training command writes and the service
// reads the fitted classifier.
const DefaultCheckpoint = "checkpoints/delay_model.json"

// ErrConflictingOptions is returned by New for ForTraining with WithClassifier.
var ErrConflictingOptions = errors.New("both a classifier and training mode were given")

// Classifier is the binary model wrapped by DelayModel.
type Classifier interface {
	Kind() string
	Fitted() bool
	Fit(x mat.Matrix, y []int, classWeight map[int]float64) error
	Predict(x mat.Matrix) []int
}

// Predictor answers one label per encoded row.
type Predictor interface {
	Predict(features Features) []int
}

// DelayModel owns the classifier and its fit/predict lifecycle. Lifecycle
// misuse (refitting, predicting before fitting) is logged, never fatal.
type DelayModel struct {
	classifier  Classifier
	classWeight map[int]float64
	logger      *zap.Logger
}

type options struct {
	classifier  Classifier
	forTraining bool
	checkpoint  string
	logger      *zap.Logger
}

// Option configures New.
type Option func(*options)

// ForTraining starts from a fresh, unfitted classifier.
func ForTraining() Option {
	return func(o *options) { o.forTraining = true }
}

// WithClassifier injects an already fitted classifier.
func WithClassifier(c Classifier) Option {
	return func(o *options) { o.classifier = c }
}

// WithCheckpoint overrides DefaultCheckpoint for serving mode.
func WithCheckpoint(path string) Option {
	return func(o *options) { o.checkpoint = path }
}

// WithLogger sets the logger for lifecycle warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New builds a DelayModel. Without ForTraining or WithClassifier the
// classifier is read from the checkpoint and any load error is returned.
func New(opts ...Option) (*DelayModel, error) {
	o := options{checkpoint: DefaultCheckpoint}
	for _, opt := range opts {
		opt(&o)
	}
	if o.classifier != nil && o.forTraining {
		return nil, ErrConflictingOptions
	}
	if o.logger == nil {
		o.logger = zap.L()
	}

	m := &DelayModel{logger: o.logger.Named("delay_model")}
	switch {
	case o.forTraining:
		m.classifier = NewLogisticRegression()
	case o.classifier != nil:
		m.classifier = o.classifier
	default:
		clf, err := LoadCheckpoint(o.checkpoint)
		if err != nil {
			return nil, err
		}
		m.classifier = clf
		m.logger.Info("loaded checkpoint", zap.String("path", o.checkpoint))
	}
	return m, nil
}

// Classifier returns the wrapped classifier.
func (m *DelayModel) Classifier() Classifier { return m.classifier }

// Trained reports whether the classifier has been fitted.
func (m *DelayModel) Trained() bool { return m.classifier.Fitted() }

// Preprocess encodes records for inference.
func (m *DelayModel) Preprocess(records []FlightRecord) Features {
	return Encode(records)
}

// PreprocessWithTarget encodes records and derives their delay labels.
func (m *DelayModel) PreprocessWithTarget(records []FlightRecord, threshold time.Duration) (Features, []int, error) {
	labels, err := GenerateLabels(records, threshold)
	if err != nil {
		return Features{}, nil, err
	}
	return Encode(records), labels, nil
}

// Fit balances classes from labels and fits the classifier.
func (m *DelayModel) Fit(features Features, labels []int) error {
	if m.Trained() {
		m.logger.Warn("You are calling fit on an already fitted model. This might not be what you want")
	}
	if features.Rows() != len(labels) {
		return fmt.Errorf("%d rows, %d labels: %w", features.Rows(), len(labels), ErrShapeMismatch)
	}
	weights, err := ClassWeights(labels)
	if err != nil {
		return err
	}
	m.classWeight = weights

	start := time.Now()
	if err := m.classifier.Fit(features.Matrix(), labels, weights); err != nil {
		return err
	}

	fields := []zap.Field{
		zap.Int("rows", len(labels)),
		zap.Float64("weight_0", weights[0]),
		zap.Float64("weight_1", weights[1]),
		zap.Duration("elapsed", time.Since(start)),
	}
	if lr, ok := m.classifier.(*LogisticRegression); ok {
		fields = append(fields,
			zap.Int("iterations", lr.Iterations),
			zap.Stringer("status", lr.Status),
		)
		switch {
		case lr.Converged:
		case lr.Status == optimize.IterationLimit:
			m.logger.Warn("solver reached max_iter before converging, consider raising max_iter", fields...)
			return nil
		default:
			m.logger.Warn("solver stopped before converging", fields...)
			return nil
		}
	}
	m.logger.Info("fitted classifier", fields...)
	return nil
}

// Predict returns one 0/1 label per row.
func (m *DelayModel) Predict(features Features) []int {
	if !m.Trained() {
		m.logger.Warn("You are calling predict on a non-fitted model. This might not be what you want")
	}
	if features.Rows() == 0 {
		return []int{}
	}
	return m.classifier.Predict(features.Matrix())
}

// Save writes the classifier to path, creating the parent directory.
func (m *DelayModel) Save(path string) error {
	return SaveCheckpoint(path, m.classifier, m.classWeight)
}
