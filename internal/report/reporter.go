// Package report produces the durable session artifacts: a row-per-transaction
// CSV log plus timestamped CSV and HTML reports.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"

	"dip-trader/internal/models"
)

// Reporter writes report artifacts under a single output directory.
type Reporter struct {
	dir    string
	logger zerolog.Logger
}

// NewReporter creates a reporter writing into dir, creating it if needed.
func NewReporter(dir string, logger zerolog.Logger) (*Reporter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating reports dir: %w", err)
	}
	return &Reporter{dir: dir, logger: logger}, nil
}

// Dir returns the report output directory.
func (r *Reporter) Dir() string {
	return r.dir
}

// RecordTransaction appends one trade to the running transactions.csv log.
// The header is written only when the file is new.
func (r *Reporter) RecordTransaction(rec models.TradeRecord) error {
	path := filepath.Join(r.dir, "transactions.csv")

	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening transactions log: %w", err)
	}
	defer f.Close()

	rows := []models.TradeRecord{rec}
	if isNew {
		if err := gocsv.MarshalFile(&rows, f); err != nil {
			return fmt.Errorf("writing transactions log: %w", err)
		}
	} else {
		if err := gocsv.MarshalWithoutHeaders(&rows, f); err != nil {
			return fmt.Errorf("appending transactions log: %w", err)
		}
	}

	r.logger.Debug().Str("path", path).Str("trade_id", rec.ID).Msg("Transaction recorded")
	return nil
}

// GenerateReport writes the timestamped CSV and HTML reports for a session
// and returns the paths of everything it produced. Called after each
// recorded transaction and once more at session teardown.
func (r *Reporter) GenerateReport(sum models.TradingSummary, obs []models.Observation, recs []models.TradeRecord) ([]string, error) {
	stamp := time.Now().Format("20060102_150405")
	var paths []string

	csvPath := filepath.Join(r.dir, fmt.Sprintf("trading_report_%s.csv", stamp))
	if err := r.writeCSV(csvPath, recs); err != nil {
		return paths, err
	}
	paths = append(paths, csvPath)

	htmlPath := filepath.Join(r.dir, fmt.Sprintf("trading_report_%s.html", stamp))
	if err := r.writeHTML(htmlPath, sum, recs); err != nil {
		return paths, err
	}
	paths = append(paths, htmlPath)

	if len(obs) > 0 {
		chartPath := filepath.Join(r.dir, fmt.Sprintf("decline_chart_%s.html", stamp))
		if err := r.writeChart(chartPath, sum, obs); err != nil {
			// The chart is supplementary; a render failure does not void the
			// CSV/HTML artifacts already written.
			r.logger.Warn().Err(err).Msg("Decline chart render failed")
		} else {
			paths = append(paths, chartPath)
		}
	}

	r.logger.Info().Strs("paths", paths).Msg("Report generated")
	return paths, nil
}

func (r *Reporter) writeCSV(path string, recs []models.TradeRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report csv: %w", err)
	}
	defer f.Close()

	rows := recs
	if rows == nil {
		rows = []models.TradeRecord{}
	}
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("writing report csv: %w", err)
	}
	return nil
}
