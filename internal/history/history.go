package history

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one processed request: what was asked, which strategies won, and
// the produced text. Transcript rows double as a cache so a summarize call
// after a transcribe call skips extraction.
type Record struct {
	ID                 int64
	VideoID            string
	URL                string
	Action             string
	Title              string
	Author             string
	TranscriptStrategy string
	MetadataStrategy   string
	Transcript         string
	Language           string
	Summary            string
	Succeeded          bool
	ErrorText          string
	CreatedAt          time.Time
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS requests (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    video_id            TEXT NOT NULL DEFAULT '',
    url                 TEXT NOT NULL DEFAULT '',
    action              TEXT NOT NULL DEFAULT '',
    title               TEXT NOT NULL DEFAULT '',
    author              TEXT NOT NULL DEFAULT '',
    transcript_strategy TEXT NOT NULL DEFAULT '',
    metadata_strategy   TEXT NOT NULL DEFAULT '',
    transcript          TEXT NOT NULL DEFAULT '',
    language            TEXT NOT NULL DEFAULT '',
    summary             TEXT NOT NULL DEFAULT '',
    succeeded           INTEGER NOT NULL DEFAULT 0,
    error_text          TEXT NOT NULL DEFAULT '',
    created_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_requests_video_id ON requests(video_id);
CREATE INDEX IF NOT EXISTS idx_requests_created_at ON requests(created_at);
`

// DB wraps an SQLite connection for the request history.
type DB struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates the SQLite database at the given path.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database at %s: %w", path, err)
	}

	// SQLite pragmas for performance and reliability
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	if _, err := sqlDB.Exec(createTableSQL); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: sqlDB}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Insert stores a request record and returns the inserted ID.
func (d *DB) Insert(record Record) (int64, error) {
	if d == nil || d.db == nil {
		return 0, errors.New("database not initialized")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	succeeded := 0
	if record.Succeeded {
		succeeded = 1
	}

	result, err := d.db.Exec(`
		INSERT INTO requests (
			video_id, url, action, title, author,
			transcript_strategy, metadata_strategy,
			transcript, language, summary, succeeded, error_text
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.VideoID, record.URL, record.Action, record.Title, record.Author,
		record.TranscriptStrategy, record.MetadataStrategy,
		record.Transcript, record.Language, record.Summary, succeeded, record.ErrorText,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting request record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}
	return id, nil
}

// CachedTranscript returns the most recent non-empty transcript stored for a
// video, or ok=false when none exists.
func (d *DB) CachedTranscript(videoID string) (text, language, strategy string, ok bool, err error) {
	if d == nil || d.db == nil {
		return "", "", "", false, errors.New("database not initialized")
	}

	row := d.db.QueryRow(`
		SELECT transcript, language, transcript_strategy
		FROM requests
		WHERE video_id = ? AND transcript != ''
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, videoID)
	switch err := row.Scan(&text, &language, &strategy); {
	case errors.Is(err, sql.ErrNoRows):
		return "", "", "", false, nil
	case err != nil:
		return "", "", "", false, fmt.Errorf("querying cached transcript: %w", err)
	}
	return text, language, strategy, true, nil
}

// Recent returns the newest records, newest first.
func (d *DB) Recent(limit int) ([]Record, error) {
	if d == nil || d.db == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.db.Query(`
		SELECT id, video_id, url, action, title, author,
			transcript_strategy, metadata_strategy,
			transcript, language, summary, succeeded, error_text, created_at
		FROM requests
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying request history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var succeeded int
		if err := rows.Scan(
			&r.ID, &r.VideoID, &r.URL, &r.Action, &r.Title, &r.Author,
			&r.TranscriptStrategy, &r.MetadataStrategy,
			&r.Transcript, &r.Language, &r.Summary, &succeeded, &r.ErrorText, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning request row: %w", err)
		}
		r.Succeeded = succeeded != 0
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count returns the total number of stored requests.
func (d *DB) Count() (int, error) {
	if d == nil || d.db == nil {
		return 0, errors.New("database not initialized")
	}

	var count int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM requests").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting requests: %w", err)
	}
	return count, nil
}
