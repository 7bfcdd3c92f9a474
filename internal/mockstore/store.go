package mockstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// ErrNoRecord is returned for ids the store does not hold.
var ErrNoRecord = errors.New("mockstore: no such record")

// StoreConfig describes where records are kept.
type StoreConfig struct {
	// DataDir holds mock.db. Records live in memory when it is empty.
	DataDir string
}

// Record is a stored row.
type Record struct {
	ID          string
	Fields      map[string]json.RawMessage
	CreatedTime time.Time
}

// Store keeps records of any number of bases and tables in sqlite.
type Store struct {
	db  *sql.DB
	log logrus.FieldLogger
}

const schema = `
CREATE TABLE IF NOT EXISTS records (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	base    TEXT NOT NULL,
	tbl     TEXT NOT NULL,
	id      TEXT NOT NULL UNIQUE,
	fields  TEXT NOT NULL,
	created TEXT NOT NULL
)`

// OpenStore opens or creates the record database.
func OpenStore(log logrus.FieldLogger, config StoreConfig) (*Store, error) {
	dsn := ":memory:"
	if config.DataDir != "" {
		if err := os.MkdirAll(config.DataDir, os.ModePerm); err != nil {
			return nil, err
		}
		dsn = path.Join(config.DataDir, "mock.db")
	}

	log.Infof("Opening mock store [DataDir: %s]", config.DataDir)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// A single connection keeps an in-memory database alive and serializes
	// writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func newRecordID() string {
	return "rec" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
}

// Insert stores a new record and returns it with its assigned id.
func (s *Store) Insert(ctx context.Context, base, table string, fields map[string]json.RawMessage) (*Record, error) {
	rec := &Record{
		ID:          newRecordID(),
		Fields:      compact(fields),
		CreatedTime: time.Now().UTC().Truncate(time.Millisecond),
	}

	data, err := json.Marshal(rec.Fields)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO records (base, tbl, id, fields, created) VALUES (?, ?, ?, ?, ?)`,
		base, table, rec.ID, string(data), rec.CreatedTime.Format(time.RFC3339Nano),
	); err != nil {
		return nil, err
	}

	s.log.WithField("id", rec.ID).Debug("inserted record")
	return rec, nil
}

// Get returns one record.
func (s *Store) Get(ctx context.Context, base, table, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, fields, created FROM records WHERE base = ? AND tbl = ? AND id = ?`,
		base, table, id,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRecord
	}
	return rec, err
}

// Patch merges fields into a record. A null value removes the field.
func (s *Store) Patch(ctx context.Context, base, table, id string, fields map[string]json.RawMessage) (*Record, error) {
	rec, err := s.Get(ctx, base, table, id)
	if err != nil {
		return nil, err
	}

	for name, value := range fields {
		rec.Fields[name] = value
	}
	rec.Fields = compact(rec.Fields)

	data, err := json.Marshal(rec.Fields)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE records SET fields = ? WHERE base = ? AND tbl = ? AND id = ?`,
		string(data), base, table, id,
	); err != nil {
		return nil, err
	}

	s.log.WithField("id", id).Debug("patched record")
	return rec, nil
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, base, table, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE base = ? AND tbl = ? AND id = ?`,
		base, table, id,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoRecord
	}

	s.log.WithField("id", id).Debug("deleted record")
	return nil
}

// List returns every record of a table in insertion order.
func (s *Store) List(ctx context.Context, base, table string) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fields, created FROM records WHERE base = ? AND tbl = ? ORDER BY seq`,
		base, table,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*Record, error) {
	var id, fields, created string
	if err := row.Scan(&id, &fields, &created); err != nil {
		return nil, err
	}

	rec := &Record{ID: id}
	if err := json.Unmarshal([]byte(fields), &rec.Fields); err != nil {
		return nil, fmt.Errorf("record %s: %w", id, err)
	}
	if rec.Fields == nil {
		rec.Fields = map[string]json.RawMessage{}
	}

	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", id, err)
	}
	rec.CreatedTime = t

	return rec, nil
}

// compact drops null values; the store never keeps empty fields.
func compact(fields map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(fields))
	for name, value := range fields {
		if len(value) == 0 || string(value) == "null" {
			continue
		}
		out[name] = value
	}
	return out
}
