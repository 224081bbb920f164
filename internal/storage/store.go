package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/a-marczewski/temporalmem/internal/memory"
)

// timeLayout is a fixed-width RFC 3339 variant. The fixed fractional
// width keeps string comparison in SQL consistent with time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const recordColumns = `id, user_id, text, type, slot, status, created_at, valid_until, decay_half_life_days, confidence, supersedes, source_turn_id, extra`

// Store implements the metadata store over sqlite. It never deletes
// rows; terminal states are statuses.
type Store struct {
	db *DB
}

// NewStore creates a metadata store over an open database
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// Insert persists a record. INSERT OR REPLACE keeps the preserve-id
// update mode working: re-inserting an id overwrites the row.
func (s *Store) Insert(ctx context.Context, rec *memory.Record) error {
	supersedes, err := json.Marshal(rec.Supersedes)
	if err != nil {
		return fmt.Errorf("encode supersedes: %w", err)
	}
	if rec.Supersedes == nil {
		supersedes = []byte("[]")
	}
	extra, err := json.Marshal(rec.Extra)
	if err != nil {
		return fmt.Errorf("encode extra: %w", err)
	}
	if rec.Extra == nil {
		extra = []byte("{}")
	}

	var validUntil sql.NullString
	if rec.ValidUntil != nil {
		validUntil = sql.NullString{String: formatTime(*rec.ValidUntil), Valid: true}
	}

	_, err = s.db.Conn().ExecContext(ctx, `
		INSERT OR REPLACE INTO memories (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.UserID,
		rec.Text,
		string(rec.Type),
		nullString(rec.Slot),
		string(rec.Status),
		formatTime(rec.CreatedAt),
		validUntil,
		nullInt(rec.DecayHalfLifeDays),
		rec.Confidence,
		string(supersedes),
		nullString(rec.SourceTurnID),
		string(extra),
	)
	return err
}

// GetByID returns the record or nil when no row matches
func (s *Store) GetByID(ctx context.Context, id string) (*memory.Record, error) {
	row := s.db.Conn().QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM memories WHERE id = ? LIMIT 1
	`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// GetByIDs fetches the records found for the given ids; missing ids
// are omitted
func (s *Store) GetByIDs(ctx context.Context, ids []string) ([]*memory.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT `+recordColumns+` FROM memories WHERE id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// UpdateStatus transitions a record's status. The status column is the
// only mutable field after insertion.
func (s *Store) UpdateStatus(ctx context.Context, id string, status memory.Status) error {
	res, err := s.db.Conn().ExecContext(ctx, `
		UPDATE memories SET status = ? WHERE id = ?
	`, string(status), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("record %s not found", id)
	}
	return nil
}

// GetActiveBySlot returns the active records for (user, slot) in
// insertion order
func (s *Store) GetActiveBySlot(ctx context.Context, userID, slot string) ([]*memory.Record, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT `+recordColumns+` FROM memories
		WHERE user_id = ? AND slot = ? AND status = ?
		ORDER BY created_at ASC
	`, userID, slot, string(memory.StatusActive))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListByUser returns a user's records with the given status, most
// recent first
func (s *Store) ListByUser(ctx context.Context, userID string, status memory.Status) ([]*memory.Record, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT `+recordColumns+` FROM memories
		WHERE user_id = ? AND status = ?
		ORDER BY created_at DESC
	`, userID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ExpireUserMemories transitions the user's active, time-bound records
// whose validity window has elapsed to expired, returning the count
func (s *Store) ExpireUserMemories(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.Conn().ExecContext(ctx, `
		UPDATE memories SET status = ?
		WHERE user_id = ? AND status = ? AND valid_until IS NOT NULL AND valid_until <= ?
	`, string(memory.StatusExpired), userID, string(memory.StatusActive), formatTime(time.Now()))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*memory.Record, error) {
	var (
		rec        memory.Record
		slot       sql.NullString
		createdAt  string
		validUntil sql.NullString
		halfLife   sql.NullInt64
		confidence sql.NullFloat64
		supersedes sql.NullString
		turnID     sql.NullString
		extra      sql.NullString
	)

	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Text,
		&rec.Type,
		&slot,
		&rec.Status,
		&createdAt,
		&validUntil,
		&halfLife,
		&confidence,
		&supersedes,
		&turnID,
		&extra,
	)
	if err != nil {
		return nil, err
	}

	rec.Slot = slot.String
	rec.SourceTurnID = turnID.String
	rec.DecayHalfLifeDays = int(halfLife.Int64)
	rec.Confidence = confidence.Float64

	rec.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for %s: %w", rec.ID, err)
	}
	if validUntil.Valid {
		t, err := time.Parse(timeLayout, validUntil.String)
		if err != nil {
			return nil, fmt.Errorf("parse valid_until for %s: %w", rec.ID, err)
		}
		rec.ValidUntil = &t
	}

	if supersedes.Valid && supersedes.String != "" {
		if err := json.Unmarshal([]byte(supersedes.String), &rec.Supersedes); err != nil {
			return nil, fmt.Errorf("decode supersedes for %s: %w", rec.ID, err)
		}
	}
	if extra.Valid && extra.String != "" && extra.String != "{}" {
		if err := json.Unmarshal([]byte(extra.String), &rec.Extra); err != nil {
			return nil, fmt.Errorf("decode extra for %s: %w", rec.ID, err)
		}
	}

	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]*memory.Record, error) {
	var records []*memory.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}
