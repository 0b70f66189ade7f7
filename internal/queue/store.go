package queue

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/cliptune/internal/classify"
	"github.com/desertthunder/cliptune/internal/shared"
)

// schema is applied on open. The table is small and append-heavy, so one
// status index covers both claiming and the status rollup.
const schema = `
CREATE TABLE IF NOT EXISTS queue_items (
	id TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	kind INTEGER NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	batch TEXT NOT NULL DEFAULT '',
	track_index INTEGER NOT NULL DEFAULT 0,
	total_tracks INTEGER NOT NULL DEFAULT 0,
	artist TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	album TEXT NOT NULL DEFAULT '',
	year TEXT NOT NULL DEFAULT '',
	anchor TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	confidence REAL NOT NULL DEFAULT 0,
	file TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_queue_items_status ON queue_items (status, created_at);
`

const itemColumns = "id, content, kind, status, batch, track_index, total_tracks, artist, title, album, year, anchor, url, confidence, file, error, created_at, updated_at"

// Store persists queue items in SQLite.
//
// All methods are safe for the single-writer setup the worker uses; batch
// inserts and claims run in transactions so partial work never lands.
type Store struct {
	db *sql.DB
}

// NewStore wraps db and ensures the queue schema exists.
func NewStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create queue schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Enqueue inserts a single pending item.
func (s *Store) Enqueue(item *Item) error {
	return s.EnqueueBatch([]*Item{item})
}

// EnqueueBatch inserts items in one transaction, assigning IDs and
// timestamps. Either every item lands or none do.
func (s *Store) EnqueueBatch(items []*Item) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO queue_items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	for _, item := range items {
		if item.Content == "" {
			return fmt.Errorf("%w: queue item needs content", shared.ErrInvalidInput)
		}
		if item.ID == "" {
			item.ID = shared.GenerateID()
		}
		if item.Status == "" {
			item.Status = StatusPending
		}
		item.CreatedAt = now
		item.UpdatedAt = now

		_, err := tx.Exec(query,
			item.ID,
			item.Content,
			int(item.Kind),
			string(item.Status),
			item.Batch,
			item.TrackIndex,
			item.TotalTracks,
			item.Artist,
			item.Title,
			item.Album,
			item.Year,
			item.Anchor,
			item.URL,
			item.Confidence,
			item.File,
			item.Error,
			item.CreatedAt,
			item.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert queue item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit enqueue: %w", err)
	}

	return nil
}

// ClaimNext atomically moves the oldest pending item to in_progress and
// returns it. Items enqueued in the same batch share a timestamp, so rowid
// breaks ties to preserve insertion order. Returns (nil, nil) when nothing
// is pending.
func (s *Store) ClaimNext() (*Item, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT ` + itemColumns + `
		FROM queue_items
		WHERE status = ?
		ORDER BY created_at ASC, rowid ASC
		LIMIT 1
	`

	item, err := scanItem(tx.QueryRow(query, string(StatusPending)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	_, err = tx.Exec(`UPDATE queue_items SET status = ?, updated_at = ? WHERE id = ?`, string(StatusInProgress), now, item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim queue item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	item.Status = StatusInProgress
	item.UpdatedAt = now
	return item, nil
}

// Get retrieves an item by ID.
func (s *Store) Get(id string) (*Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM queue_items
		WHERE id = ?
	`

	item, err := scanItem(s.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: queue item %s", shared.ErrNotFound, id)
	}
	return item, err
}

// Update writes the item's mutable fields back. Capture fields (content,
// kind, batch numbering) never change after enqueue.
func (s *Store) Update(item *Item) error {
	now := time.Now().UTC()

	query := `
		UPDATE queue_items
		SET status = ?, artist = ?, title = ?, album = ?, year = ?, anchor = ?,
			url = ?, confidence = ?, file = ?, error = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.Exec(query,
		string(item.Status),
		item.Artist,
		item.Title,
		item.Album,
		item.Year,
		item.Anchor,
		item.URL,
		item.Confidence,
		item.File,
		item.Error,
		now,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update queue item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: queue item %s", shared.ErrNotFound, item.ID)
	}

	item.UpdatedAt = now
	return nil
}

// List returns items newest first, optionally filtered by status. A limit
// of 0 returns everything.
func (s *Store) List(status Status, limit int) ([]*Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM queue_items
	`
	args := []any{}

	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

// Counts returns the number of items in each status.
func (s *Store) Counts() (map[Status]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM queue_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count queue items: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[Status(status)] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return counts, nil
}

// Retry moves a finished item back to pending and clears its error. Items
// still pending or in progress are rejected.
func (s *Store) Retry(id string) error {
	item, err := s.Get(id)
	if err != nil {
		return err
	}
	if !item.Status.Terminal() {
		return fmt.Errorf("%w: cannot retry %s item %s", shared.ErrInvalidInput, item.Status, id)
	}

	item.Status = StatusPending
	item.Error = ""
	return s.Update(item)
}

// RetryAll requeues every failed and exhausted item and returns how many
// moved. Skipped and completed items stay put; retry those individually.
func (s *Store) RetryAll() (int64, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`UPDATE queue_items SET status = ?, error = '', updated_at = ? WHERE status IN (?, ?)`,
		string(StatusPending), now, string(StatusFailed), string(StatusExhausted),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue items: %w", err)
	}
	return result.RowsAffected()
}

// ResetInProgress requeues items left in_progress by a previous run. Called
// once on startup so interrupted work gets picked up again.
func (s *Store) ResetInProgress() (int64, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`UPDATE queue_items SET status = ?, updated_at = ? WHERE status = ?`,
		string(StatusPending), now, string(StatusInProgress),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reset in-progress items: %w", err)
	}
	return result.RowsAffected()
}

// Clear deletes items in the given status, or every finished item when
// status is empty.
func (s *Store) Clear(status Status) (int64, error) {
	var (
		query string
		args  []any
	)
	if status == "" {
		query = `DELETE FROM queue_items WHERE status IN (?, ?, ?, ?)`
		args = terminalArgs()
	} else {
		query = `DELETE FROM queue_items WHERE status = ?`
		args = []any{string(status)}
	}

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to clear queue items: %w", err)
	}
	return result.RowsAffected()
}

// PruneHistory trims finished items beyond the newest limit entries so the
// table stays readable. Active items are never pruned. A limit of 0 keeps
// everything.
func (s *Store) PruneHistory(limit int) (int64, error) {
	if limit <= 0 {
		return 0, nil
	}

	query := `
		DELETE FROM queue_items
		WHERE status IN (?, ?, ?, ?)
		AND id NOT IN (
			SELECT id FROM queue_items
			WHERE status IN (?, ?, ?, ?)
			ORDER BY updated_at DESC, rowid DESC
			LIMIT ?
		)
	`

	args := append(terminalArgs(), terminalArgs()...)
	args = append(args, limit)

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to prune queue history: %w", err)
	}
	return result.RowsAffected()
}

func terminalArgs() []any {
	return []any{string(StatusCompleted), string(StatusFailed), string(StatusSkipped), string(StatusExhausted)}
}

// scanItem reads one row in itemColumns order. Works for both sql.Row and
// sql.Rows.
func scanItem(row interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		item   Item
		kind   int
		status string
	)

	err := row.Scan(
		&item.ID,
		&item.Content,
		&kind,
		&status,
		&item.Batch,
		&item.TrackIndex,
		&item.TotalTracks,
		&item.Artist,
		&item.Title,
		&item.Album,
		&item.Year,
		&item.Anchor,
		&item.URL,
		&item.Confidence,
		&item.File,
		&item.Error,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan queue item: %w", err)
	}

	item.Kind = classify.Kind(kind)
	item.Status = Status(status)
	return &item, nil
}
