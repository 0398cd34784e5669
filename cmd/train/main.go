// Command train fits the delay model on historical flights and writes the
// checkpoint the server loads.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"flightdelay/config"
	"flightdelay/db"
	"flightdelay/logging"
	"flightdelay/ml"
	"go.uber.org/zap"
)

func main() {
	dataFile := flag.String("data-file", "", "CSV file with historical flights")
	configPath := flag.String("config", "config.yaml", "path to the YAML config")
	checkpoint := flag.String("checkpoint", "", "checkpoint output path (overrides config)")
	listRuns := flag.Int("list-runs", 0, "print the last N recorded training runs and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *checkpoint != "" {
		cfg.Model.Checkpoint = *checkpoint
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if *listRuns > 0 {
		if err := printRuns(cfg.Registry.Path, *listRuns); err != nil {
			logger.Fatal("failed to list training runs", zap.Error(err))
		}
		return
	}

	if err := checkDataFile(*dataFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid value for '--data-file': %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	run, err := train(cfg, *dataFile, logger)
	if err != nil {
		logger.Fatal("training failed", zap.Error(err))
	}

	if cfg.Registry.Path != "" {
		if err := recordRun(cfg.Registry.Path, run); err != nil {
			logger.Error("failed to record training run", zap.Error(err))
		}
	}
}

func checkDataFile(path string) error {
	if path == "" {
		return errors.New("missing option")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("file %q does not exist", path)
	}
	if info.IsDir() {
		return fmt.Errorf("file %q is a directory", path)
	}
	return nil
}

func train(cfg *config.Config, dataFile string, logger *zap.Logger) (db.TrainingRun, error) {
	// Load stuff
	file, err := os.Open(dataFile)
	if err != nil {
		return db.TrainingRun{}, err
	}
	defer file.Close()

	records, err := ml.LoadFlightsCSV(file, cfg.Training.Encoding)
	if err != nil {
		return db.TrainingRun{}, fmt.Errorf("load %s: %w", dataFile, err)
	}
	logger.Info("loaded training data", zap.String("file", dataFile), zap.Int("rows", len(records)))

	model, err := ml.New(ml.ForTraining(), ml.WithLogger(logger))
	if err != nil {
		return db.TrainingRun{}, err
	}

	// Split data
	features, labels, err := model.PreprocessWithTarget(records, cfg.DelayThreshold())
	if err != nil {
		return db.TrainingRun{}, err
	}
	trainX, trainY, validX, validY, err := ml.TrainTestSplit(features, labels, cfg.Training.TestRatio, cfg.Training.Seed)
	if err != nil {
		return db.TrainingRun{}, err
	}

	// Fit and predict
	if err := model.Fit(trainX, trainY); err != nil {
		return db.TrainingRun{}, err
	}
	report, err := ml.ClassificationReport(validY, model.Predict(validX))
	if err != nil {
		return db.TrainingRun{}, err
	}

	// Log metrics and save model
	fmt.Fprintln(os.Stderr, report)
	if err := model.Save(cfg.Model.Checkpoint); err != nil {
		return db.TrainingRun{}, fmt.Errorf("save checkpoint: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Trained model saved to", cfg.Model.Checkpoint)

	delayed := report.PerClass[1]
	return db.TrainingRun{
		ModelName:      model.Classifier().Kind(),
		DataFile:       dataFile,
		Checkpoint:     cfg.Model.Checkpoint,
		Accuracy:       report.Accuracy,
		Precision:      delayed.Precision,
		Recall:         delayed.Recall,
		F1:             delayed.F1,
		DataPoints:     len(records),
		ValidationRows: len(validY),
		TrainedAt:      time.Now(),
	}, nil
}

func recordRun(path string, run db.TrainingRun) error {
	store, err := db.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.SaveTrainingRun(run)
	return err
}

func printRuns(path string, limit int) error {
	if path == "" {
		return errors.New("registry.path is not configured")
	}
	store, err := db.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.LoadTrainingRuns(limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTRAINED AT\tROWS\tACCURACY\tPRECISION(1)\tRECALL(1)\tF1(1)\tCHECKPOINT")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%s\n",
			r.ID, r.TrainedAt.Format(time.RFC3339), r.DataPoints,
			r.Accuracy, r.Precision, r.Recall, r.F1, r.Checkpoint)
	}
	return w.Flush()
}
