// Package runs persists screening runs.
package runs

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/valuescreen/internal/modules/pipeline"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 20

// timeLayout has a fixed width so that stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Summary is the listing view of a stored run.
type Summary struct {
	ID                string    `json:"id"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
	SecurityCount     int       `json:"security_count"`
	RankedCount       int       `json:"ranked_count"`
	InsufficientCount int       `json:"insufficient_count"`
}

// Repository handles screening run database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new run repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "runs").Logger(),
	}
}

// Save stores a run, replacing any previous run with the same id.
func (r *Repository) Save(run *pipeline.Run) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("cannot save run without id")
	}
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to encode run %s: %w", run.ID, err)
	}

	_, err = r.db.Exec(`
		INSERT OR REPLACE INTO screening_runs
			(id, started_at, finished_at, security_count, ranked_count, insufficient_count, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
		run.SecurityCount,
		len(run.Results),
		len(run.InsufficientData),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	r.log.Debug().Str("run_id", run.ID).Int("bytes", len(payload)).Msg("Saved screening run")
	return nil
}

// Get returns a stored run, or nil when it does not exist.
func (r *Repository) Get(id string) (*pipeline.Run, error) {
	var payload string
	err := r.db.QueryRow("SELECT payload FROM screening_runs WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Run not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", id, err)
	}

	var run pipeline.Run
	if err := json.Unmarshal([]byte(payload), &run); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", id, err)
	}
	return &run, nil
}

// List returns the most recent runs first. A non-positive limit uses
// DefaultListLimit.
func (r *Repository) List(limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.Query(`
		SELECT id, started_at, finished_at, security_count, ranked_count, insufficient_count
		FROM screening_runs
		ORDER BY started_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var s Summary
		var started, finished string
		if err := rows.Scan(&s.ID, &started, &finished, &s.SecurityCount, &s.RankedCount, &s.InsufficientCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if s.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("failed to parse started_at of run %s: %w", s.ID, err)
		}
		if s.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("failed to parse finished_at of run %s: %w", s.ID, err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return summaries, nil
}
