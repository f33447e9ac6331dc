// Package tracker persists the jobs the user is pursuing in a local SQLite
// database. It records status transitions only; nothing here ever submits
// an application.
package tracker

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrInvalidJob marks jobs rejected before touching the database.
var ErrInvalidJob = errors.New("invalid job")

// Status of a tracked job. Submission is always confirmed by the user, never
// detected automatically.
type Status string

const (
	StatusDiscovered             Status = "discovered"
	StatusShortlisted            Status = "shortlisted"
	StatusPacketReady            Status = "packet_ready"
	StatusSubmittedUserConfirmed Status = "submitted_user_confirmed"
	StatusRejected               Status = "rejected"
)

var validStatuses = map[Status]struct{}{
	StatusDiscovered:             {},
	StatusShortlisted:            {},
	StatusPacketReady:            {},
	StatusSubmittedUserConfirmed: {},
	StatusRejected:               {},
}

// ValidStatus reports whether s is a known tracker status.
func ValidStatus(s Status) bool {
	_, ok := validStatuses[s]
	return ok
}

// Job is one tracked posting.
type Job struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Company   string `json:"company"`
	URL       string `json:"url"`
	Location  string `json:"location,omitempty"`
	Country   string `json:"country,omitempty"`
	Source    string `json:"source,omitempty"`
	PostedAt  string `json:"posted_at,omitempty"`
	Score     int    `json:"score"`
	Status    Status `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	company    TEXT NOT NULL,
	url        TEXT NOT NULL,
	location   TEXT NOT NULL DEFAULT '',
	country    TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT '',
	posted_at  TEXT NOT NULL DEFAULT '',
	score      INTEGER NOT NULL DEFAULT 0,
	status     TEXT NOT NULL DEFAULT 'discovered',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// Store provides access to the tracker database.
type Store struct {
	db *sql.DB
}

// New opens the tracker database inside the data directory.
func New(dataDir string) (*Store, error) {
	return Open(filepath.Join(dataDir, "jobcraft.sqlite"))
}

// Open opens a database at the given path and ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenMemory opens an in-memory database for testing.
func OpenMemory() (*Store, error) {
	return Open(":memory:")
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert inserts the job or, when the id already exists, overwrites its
// fields and bumps updated_at. created_at survives updates.
func (s *Store) Upsert(job Job) error {
	if job.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidJob)
	}
	if job.Status == "" {
		job.Status = StatusDiscovered
	}
	if !ValidStatus(job.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidJob, job.Status)
	}

	now := time.Now().UTC()
	_, err := s.db.Exec(`
		INSERT INTO jobs (id, title, company, url, location, country, source, posted_at, score, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			company = excluded.company,
			url = excluded.url,
			location = excluded.location,
			country = excluded.country,
			source = excluded.source,
			posted_at = excluded.posted_at,
			score = excluded.score,
			status = excluded.status,
			updated_at = excluded.updated_at
	`, job.ID, job.Title, job.Company, job.URL, job.Location, job.Country,
		job.Source, job.PostedAt, job.Score, job.Status, now, now)
	if err != nil {
		return fmt.Errorf("upsert job: %w", err)
	}
	return nil
}

// List returns every tracked job, newest first.
func (s *Store) List() ([]Job, error) {
	rows, err := s.db.Query(`
		SELECT id, title, company, url, location, country, source, posted_at, score, status, created_at, updated_at
		FROM jobs ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.Title, &j.Company, &j.URL, &j.Location, &j.Country,
			&j.Source, &j.PostedAt, &j.Score, &j.Status, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// Get retrieves a job by id, or sql.ErrNoRows when absent.
func (s *Store) Get(id string) (Job, error) {
	var j Job
	err := s.db.QueryRow(`
		SELECT id, title, company, url, location, country, source, posted_at, score, status, created_at, updated_at
		FROM jobs WHERE id = ?
	`, id).Scan(&j.ID, &j.Title, &j.Company, &j.URL, &j.Location, &j.Country,
		&j.Source, &j.PostedAt, &j.Score, &j.Status, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return Job{}, err
	}
	return j, nil
}
