package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// CheckpointVersion is bumped whenever the checkpoint layout changes.
const CheckpointVersion = 1

// ErrUnsupportedCheckpoint is returned for checkpoints this build cannot read.
var ErrUnsupportedCheckpoint = errors.New("unsupported checkpoint")

type checkpoint struct {
	FormatVersion int             `json:"format_version"`
	Kind          string          `json:"kind"`
	Features      []string        `json:"features"`
	Coef          []float64       `json:"coef"`
	Intercept     float64         `json:"intercept"`
	ClassWeight   map[int]float64 `json:"class_weight,omitempty"`
	SavedAt       time.Time       `json:"saved_at"`
}

// SaveCheckpoint serialises clf to path. The file is written next to its
// destination and renamed into place.
func SaveCheckpoint(path string, clf Classifier, classWeight map[int]float64) error {
	lr, ok := clf.(*LogisticRegression)
	if !ok {
		return fmt.Errorf("%s: %w", clf.Kind(), ErrUnsupportedCheckpoint)
	}
	payload, err := json.MarshalIndent(checkpoint{
		FormatVersion: CheckpointVersion,
		Kind:          lr.Kind(),
		Features:      TopFeatures(),
		Coef:          lr.Coef,
		Intercept:     lr.Intercept,
		ClassWeight:   classWeight,
		SavedAt:       time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadCheckpoint reads a classifier written by SaveCheckpoint. Only the
// classifier survives; class weights are a training-time concern.
func LoadCheckpoint(path string) (Classifier, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	var cp checkpoint
	if err := json.Unmarshal(payload, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", path, err)
	}
	if cp.FormatVersion != CheckpointVersion {
		return nil, fmt.Errorf("format version %d: %w", cp.FormatVersion, ErrUnsupportedCheckpoint)
	}
	if !slices.Equal(cp.Features, topFeatures[:]) {
		return nil, fmt.Errorf("feature list differs from encoder: %w", ErrUnsupportedCheckpoint)
	}

	switch cp.Kind {
	case "logistic_regression":
		if len(cp.Coef) != NumFeatures {
			return nil, fmt.Errorf("%d coefficients for %d features: %w", len(cp.Coef), NumFeatures, ErrUnsupportedCheckpoint)
		}
		lr := NewLogisticRegression()
		lr.Coef = cp.Coef
		lr.Intercept = cp.Intercept
		lr.Converged = true
		return lr, nil
	default:
		return nil, fmt.Errorf("kind %q: %w", cp.Kind, ErrUnsupportedCheckpoint)
	}
}
