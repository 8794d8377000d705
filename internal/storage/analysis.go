package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

// SaveAnalysisRecord persists the result of an analysis invocation against
// jobID, encoding the full rhythm.AnalysisResult as JSON alongside the
// summary columns used for listing/filtering without a deserialize.
func (d *DB) SaveAnalysisRecord(jobID int64, result *rhythm.AnalysisResult) (int64, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("storage: marshal analysis result: %w", err)
	}

	res, err := d.db.Exec(`
		INSERT INTO analysis_records
			(job_id, analysis_method, analysis_source, bpm, bpm_confidence, swing, genre, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, jobID, result.Method, result.AnalysisSource, result.Beat.BPM, result.Beat.Confidence,
		result.Swing, result.Genre, string(resultJSON))
	if err != nil {
		return 0, fmt.Errorf("storage: save analysis record: %w", err)
	}
	return res.LastInsertId()
}

// LatestAnalysisForJob returns the most recently saved analysis record for
// jobID, or nil if none exists yet.
func (d *DB) LatestAnalysisForJob(jobID int64) (*rhythm.AnalysisResult, error) {
	row := d.db.QueryRow(`
		SELECT result_json FROM analysis_records
		WHERE job_id = ? ORDER BY id DESC LIMIT 1
	`, jobID)

	var resultJSON string
	if err := row.Scan(&resultJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: load analysis record: %w", err)
	}

	var result rhythm.AnalysisResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("storage: decode analysis record: %w", err)
	}
	return &result, nil
}
