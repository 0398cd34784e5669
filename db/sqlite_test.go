package db

import (
	"path/filepath"
	"testing"
	"time"
)

func TestTrainingRunRoundTrip(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "registry", "runs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, acc := range []float64{0.55, 0.61} {
		_, err := store.SaveTrainingRun(TrainingRun{
			ModelName:  "logistic_regression",
			DataFile:   "data/data.csv",
			Checkpoint: "checkpoints/delay_model.json",
			Accuracy:   acc,
			DataPoints: 68206,
			TrainedAt:  base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	runs, err := store.LoadTrainingRuns(0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Accuracy != 0.61 {
		t.Errorf("expected newest run first, got %+v", runs[0])
	}
	if !runs[1].TrainedAt.Equal(base) {
		t.Errorf("trained_at = %v, want %v", runs[1].TrainedAt, base)
	}

	limited, err := store.LoadTrainingRuns(1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 run, got %d", len(limited))
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
