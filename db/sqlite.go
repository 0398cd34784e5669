// Package db keeps a history of training runs in SQLite.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the training run registry.
type Store struct {
	database *sql.DB
}

// TrainingRun is one execution of the training command.
type TrainingRun struct {
	ID             int64     `json:"id"`
	ModelName      string    `json:"model_name"`
	DataFile       string    `json:"data_file"`
	Checkpoint     string    `json:"checkpoint"`
	Accuracy       float64   `json:"accuracy"`
	Precision      float64   `json:"precision"`
	Recall         float64   `json:"recall"`
	F1             float64   `json:"f1"`
	DataPoints     int       `json:"data_points"`
	ValidationRows int       `json:"validation_rows"`
	TrainedAt      time.Time `json:"trained_at"`
}

// Open opens (or creates) the registry at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("registry path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create registry dir: %w", err)
	}
	database, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database failed: %w", err)
	}

	_, err = database.Exec(`
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        model_name VARCHAR(50) NOT NULL,
        data_file TEXT NOT NULL,
        checkpoint TEXT NOT NULL,
        accuracy REAL,
        precision REAL,
        recall REAL,
        f1 REAL,
        data_points INTEGER,
        validation_rows INTEGER,
        trained_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_training_log_trained_at ON training_log(trained_at);
    `)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{database: database}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.database.Close()
}

// SaveTrainingRun inserts run and returns its id.
func (s *Store) SaveTrainingRun(run TrainingRun) (int64, error) {
	if run.TrainedAt.IsZero() {
		run.TrainedAt = time.Now()
	}
	res, err := s.database.Exec(`
        INSERT INTO training_log (
            model_name, data_file, checkpoint, accuracy, precision, recall, f1,
            data_points, validation_rows, trained_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ModelName, run.DataFile, run.Checkpoint, run.Accuracy, run.Precision,
		run.Recall, run.F1, run.DataPoints, run.ValidationRows, run.TrainedAt.UTC())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// LoadTrainingRuns returns the most recent runs first. limit <= 0 means all.
func (s *Store) LoadTrainingRuns(limit int) ([]TrainingRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.database.Query(`
        SELECT id, model_name, data_file, checkpoint, accuracy, precision, recall, f1,
               data_points, validation_rows, trained_at
        FROM training_log
        ORDER BY trained_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]TrainingRun, 0)
	for rows.Next() {
		var run TrainingRun
		if err := rows.Scan(&run.ID, &run.ModelName, &run.DataFile, &run.Checkpoint,
			&run.Accuracy, &run.Precision, &run.Recall, &run.F1,
			&run.DataPoints, &run.ValidationRows, &run.TrainedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
