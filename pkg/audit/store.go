// Package audit persists one record per routed invocation so trial behavior
// can be compared after the fact. Records capture which trial was selected,
// which one finally answered, every attempt in between, and timing.
package audit

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// ErrStoreUnavailable indicates the audit store is not configured.
var ErrStoreUnavailable = errors.New("audit store unavailable")

// Record Status values.
const (
	StatusCompleted = "completed"
	StatusRecovered = "recovered"
	StatusFailed    = "failed"
)

// AttemptRecord is the persisted form of a single trial attempt.
type AttemptRecord struct {
	Key        string `json:"key"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Record is the persisted outcome of one routed invocation.
type Record struct {
	ID          string
	Contract    string
	Method      string
	ScopeID     string
	SelectedKey string
	FinalKey    string
	Status      string
	Attempts    []AttemptRecord
	Error       *string
	DurationMs  int64
	CreatedAt   time.Time
}

// Store manages audit persistence on SQLite.
type Store struct {
	db *sql.DB
}

// Open creates the database file if needed, applies pragmas and the schema,
// and returns a ready store.
func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("db path cannot be empty")
	}
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL allows concurrent readers while the decorator writes.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStore wraps an existing database handle.
func NewStore(db *sql.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// DB exposes the underlying handle for read-side consumers.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save inserts a record, assigning ID and timestamp when unset.
func (s *Store) Save(rec *Record) error {
	if s == nil || s.db == nil {
		return ErrStoreUnavailable
	}
	if rec == nil {
		return errors.New("record is nil")
	}
	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if rec.Status == "" {
		rec.Status = StatusCompleted
	}

	attempts, err := marshalAttempts(rec.Attempts)
	if err != nil {
		return fmt.Errorf("marshal attempts: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO invocation_records (
			id, contract, method, scope_id, selected_key, final_key,
			status, attempts, error, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.Contract,
		nullIfEmpty(rec.Method),
		nullIfEmpty(rec.ScopeID),
		rec.SelectedKey,
		rec.FinalKey,
		rec.Status,
		nullIfEmpty(attempts),
		nullStringPtr(rec.Error),
		rec.DurationMs,
		rec.CreatedAt,
	)
	return err
}

// List returns recent records for a contract, newest first.
func (s *Store) List(contract string, limit int) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, ErrStoreUnavailable
	}
	if strings.TrimSpace(contract) == "" {
		return nil, errors.New("contract is required")
	}

	query := `
		SELECT id, method, scope_id, selected_key, final_key,
		       status, attempts, error, duration_ms, created_at
		FROM invocation_records
		WHERE contract = ?
		ORDER BY created_at DESC
	`
	args := []any{contract}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows, contract)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Get fetches a single record by ID. Missing records return nil without error.
func (s *Store) Get(id string) (*Record, error) {
	if s == nil || s.db == nil {
		return nil, ErrStoreUnavailable
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("record id is required")
	}

	row := s.db.QueryRow(`
		SELECT contract, method, scope_id, selected_key, final_key,
		       status, attempts, error, duration_ms, created_at
		FROM invocation_records WHERE id = ?
	`, id)

	var rec Record
	var method, scopeID, attempts, errStr sql.NullString
	if err := row.Scan(
		&rec.Contract,
		&method,
		&scopeID,
		&rec.SelectedKey,
		&rec.FinalKey,
		&rec.Status,
		&attempts,
		&errStr,
		&rec.DurationMs,
		&rec.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rec.ID = id
	rec.Method = method.String
	rec.ScopeID = scopeID.String
	if errStr.Valid {
		value := errStr.String
		rec.Error = &value
	}
	if err := unmarshalAttempts(attempts.String, &rec.Attempts); err != nil {
		return nil, fmt.Errorf("decode attempts: %w", err)
	}
	return &rec, nil
}

// Contracts returns the distinct contracts with at least one record.
func (s *Store) Contracts() ([]string, error) {
	if s == nil || s.db == nil {
		return nil, ErrStoreUnavailable
	}
	rows, err := s.db.Query(`SELECT DISTINCT contract FROM invocation_records ORDER BY contract`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contracts []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

// Purge deletes records created before the cutoff and reports how many went.
func (s *Store) Purge(before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrStoreUnavailable
	}
	result, err := s.db.Exec(`DELETE FROM invocation_records WHERE created_at < ?`, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanRecord(rows *sql.Rows, contract string) (*Record, error) {
	var rec Record
	var method, scopeID, attempts, errStr sql.NullString
	if err := rows.Scan(
		&rec.ID,
		&method,
		&scopeID,
		&rec.SelectedKey,
		&rec.FinalKey,
		&rec.Status,
		&attempts,
		&errStr,
		&rec.DurationMs,
		&rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	rec.Contract = contract
	rec.Method = method.String
	rec.ScopeID = scopeID.String
	if errStr.Valid {
		value := errStr.String
		rec.Error = &value
	}
	if err := unmarshalAttempts(attempts.String, &rec.Attempts); err != nil {
		return nil, fmt.Errorf("decode attempts: %w", err)
	}
	return &rec, nil
}

func marshalAttempts(attempts []AttemptRecord) (string, error) {
	if len(attempts) == 0 {
		return "", nil
	}
	data, err := json.Marshal(attempts)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalAttempts(raw string, target *[]AttemptRecord) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), target)
}

func nullIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullStringPtr(value *string) any {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	return *value
}
