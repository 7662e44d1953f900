package main

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS analysis_runs (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id   TEXT NOT NULL,
		source_name  TEXT NOT NULL,
		record_count INTEGER NOT NULL,
		provider     TEXT NOT NULL,
		model        TEXT DEFAULT '',
		summary      TEXT DEFAULT '',
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON analysis_runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_session ON analysis_runs(session_id);

	CREATE TABLE IF NOT EXISTS run_results (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id    INTEGER NOT NULL,
		idx       INTEGER NOT NULL,
		feedback  TEXT NOT NULL,
		sentiment TEXT NOT NULL,
		topics    TEXT DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_results_run ON run_results(run_id);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return db, nil
}

// AnalysisRun is one completed batch analysis, kept for operator review.
type AnalysisRun struct {
	ID          int64
	SessionID   string
	SourceName  string
	RecordCount int
	Provider    string
	Model       string
	Summary     string
	CreatedAt   time.Time
}

// SaveAnalysisRun stores the run row plus one result row per record, all in
// one transaction, and returns the new run ID.
func SaveAnalysisRun(db *sql.DB, run AnalysisRun, feedback, sentiments []string, topics [][]string) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO analysis_runs (session_id, source_name, record_count, provider, model, summary)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.SessionID, run.SourceName, run.RecordCount, run.Provider, run.Model, run.Summary,
	)
	if err != nil {
		return 0, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO run_results (run_id, idx, feedback, sentiment, topics) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, text := range feedback {
		sentiment := ""
		if i < len(sentiments) {
			sentiment = sentiments[i]
		}
		topicList := ""
		if i < len(topics) {
			topicList = strings.Join(topics[i], ", ")
		}
		if _, err := stmt.Exec(runID, i, text, sentiment, topicList); err != nil {
			return 0, err
		}
	}

	return runID, tx.Commit()
}

// RecentRuns lists the newest runs first.
func RecentRuns(db *sql.DB, limit int) ([]AnalysisRun, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := db.Query(
		`SELECT id, session_id, source_name, record_count, provider, model, summary, created_at
		 FROM analysis_runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []AnalysisRun
	for rows.Next() {
		var run AnalysisRun
		if err := rows.Scan(&run.ID, &run.SessionID, &run.SourceName, &run.RecordCount,
			&run.Provider, &run.Model, &run.Summary, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunResultCount returns how many per-record rows a run holds.
func RunResultCount(db *sql.DB, runID int64) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM run_results WHERE run_id = ?`, runID).Scan(&count)
	return count, err
}

// PurgeRunsBefore deletes runs older than cutoff together with their result
// rows and reports how many runs were removed.
func PurgeRunsBefore(db *sql.DB, cutoff time.Time) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM run_results WHERE run_id IN (SELECT id FROM analysis_runs WHERE created_at < ?)`,
		cutoff,
	); err != nil {
		return 0, err
	}
	res, err := tx.Exec(`DELETE FROM analysis_runs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	purged, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return purged, tx.Commit()
}
