package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nca-tools/nca-cli/internal/domain/assessment"
	consts "github.com/nca-tools/nca-cli/internal/shared/constants"
)

type telemetryRecord struct {
	Timestamp       time.Time `json:"timestamp"`
	Command         string    `json:"command"`
	SessionID       string    `json:"session_id"`
	Mode            string    `json:"mode"`
	ControlCount    int       `json:"control_count"`
	ControlsMapped  int       `json:"controls_mapped"`
	GapsFound       int       `json:"gaps_found"`
	TokensEstimated int       `json:"tokens_estimated"`
	DurationSeconds float64   `json:"duration_seconds"`
	ComplianceScore float64   `json:"compliance_score"`
}

func recordTelemetry(appCtx *AppContext, sessionID, command string, asmt *assessment.Assessment, duration time.Duration) error {
	record := telemetryRecord{
		Timestamp:       time.Now().UTC(),
		Command:         command,
		SessionID:       sessionID,
		DurationSeconds: duration.Seconds(),
	}

	if asmt != nil {
		metrics := asmt.Metrics()
		record.Mode = asmt.Mode()
		record.ControlCount = metrics.Scope.ControlsInScope
		record.ControlsMapped = len(asmt.Mappings())
		record.GapsFound = len(asmt.Gaps())
		record.TokensEstimated = metrics.Processing.TokensEstimated
		record.ComplianceScore = asmt.ComplianceScore()
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal telemetry: %w", err)
	}

	telemetryPath := filepath.Join(appCtx.ResultsDir, "telemetry.jsonl")
	f, err := os.OpenFile(telemetryPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, consts.DefaultFilePerm)
	if err != nil {
		return fmt.Errorf("open telemetry file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write telemetry: %w", err)
	}

	return nil
}

// loadTelemetryHistory reads back telemetry records, newest last. A non-empty
// sessionID filters to that session; limit 0 means no cap.
func loadTelemetryHistory(resultsDir, sessionID string, limit int) ([]telemetryRecord, error) {
	telemetryPath := filepath.Join(resultsDir, "telemetry.jsonl")
	f, err := os.Open(telemetryPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open telemetry file: %w", err)
	}
	defer f.Close()

	var records []telemetryRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record telemetryRecord
		if err := json.Unmarshal(line, &record); err != nil {
			// Skip malformed lines; a partial write must not hide history.
			continue
		}
		if sessionID != "" && record.SessionID != sessionID {
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read telemetry file: %w", err)
	}

	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}
