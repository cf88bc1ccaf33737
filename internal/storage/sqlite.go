package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"typin/internal/inferencer"
	"typin/internal/strid"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ RunStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT,
			events INTEGER,
			counts JSON
		);`,
		`CREATE TABLE IF NOT EXISTS files (
			run_id TEXT,
			file_id INTEGER,
			path TEXT,
			stubs TEXT,
			PRIMARY KEY (run_id, file_id)
		);`,
		`CREATE TABLE IF NOT EXISTS units (
			run_id TEXT,
			file_id INTEGER,
			ord INTEGER,
			namespace TEXT,
			name TEXT,
			stub TEXT,
			signature TEXT,
			arguments JSON,
			returns JSON,
			exceptions JSON,
			entry_lines JSON,
			PRIMARY KEY (run_id, file_id, ord)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_units_name ON units(namespace, name);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun writes snap in a single transaction. File paths are interned so units reference
// their file by a small id.
func (s *SQLiteStore) SaveRun(ctx context.Context, snap *inferencer.Snapshot) (string, error) {
	if snap == nil {
		return "", errors.New("storage: nil snapshot")
	}
	runID := uuid.NewString()
	counts, err := json.Marshal(snap.Counts)
	if err != nil {
		return "", fmt.Errorf("failed to encode counts: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	// 1. Run row
	if _, err := tx.ExecContext(ctx, `INSERT INTO runs (id, created_at, events, counts) VALUES (?, ?, ?, ?)`,
		runID, s.now().UTC().Format(time.RFC3339Nano), snap.Events, counts); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	fileStmt, err := tx.PrepareContext(ctx, `INSERT INTO files (run_id, file_id, path, stubs) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer fileStmt.Close()

	unitStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO units (run_id, file_id, ord, namespace, name, stub, signature, arguments, returns, exceptions, entry_lines)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", err
	}
	defer unitStmt.Close()

	// 2. Files and their units
	paths := strid.New()
	for _, f := range snap.Files {
		fileID, err := paths.ID(f.Path)
		if err != nil {
			return "", err
		}
		if _, err := fileStmt.ExecContext(ctx, runID, fileID, f.Path, f.Stubs); err != nil {
			return "", fmt.Errorf("failed to insert file %s: %w", f.Path, err)
		}
		for ord, u := range f.Units {
			cols, err := encodeUnit(u)
			if err != nil {
				return "", fmt.Errorf("unit %s of %s: %w", u.QualName(), f.Path, err)
			}
			args := append([]any{runID, fileID, ord, u.Namespace, u.Name, u.Stub, u.Signature}, cols...)
			if _, err := unitStmt.ExecContext(ctx, args...); err != nil {
				return "", fmt.Errorf("failed to insert unit %s: %w", u.QualName(), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}

func encodeUnit(u inferencer.UnitSnapshot) ([]any, error) {
	var cols []any
	for _, v := range []any{u.Arguments, u.Returns, u.Exceptions, u.EntryLines} {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		cols = append(cols, raw)
	}
	return cols, nil
}

func (s *SQLiteStore) LoadRun(ctx context.Context, id string) (*inferencer.Snapshot, error) {
	snap := &inferencer.Snapshot{}

	// 1. Run row
	var counts []byte
	row := s.db.QueryRowContext(ctx, "SELECT events, counts FROM runs WHERE id = ?", id)
	if err := row.Scan(&snap.Events, &counts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	if err := json.Unmarshal(counts, &snap.Counts); err != nil {
		return nil, fmt.Errorf("failed to decode counts: %w", err)
	}

	// 2. Files
	rows, err := s.db.QueryContext(ctx, "SELECT file_id, path, stubs FROM files WHERE run_id = ? ORDER BY file_id", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	index := make(map[int]int)
	for rows.Next() {
		var fileID int
		var f inferencer.FileSnapshot
		if err := rows.Scan(&fileID, &f.Path, &f.Stubs); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		index[fileID] = len(snap.Files)
		snap.Files = append(snap.Files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 3. Units
	unitRows, err := s.db.QueryContext(ctx, `
		SELECT file_id, namespace, name, stub, signature, arguments, returns, exceptions, entry_lines
		FROM units WHERE run_id = ? ORDER BY file_id, ord
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query units: %w", err)
	}
	defer unitRows.Close()

	for unitRows.Next() {
		var fileID int
		var u inferencer.UnitSnapshot
		var args, rets, excs, entries []byte
		if err := unitRows.Scan(&fileID, &u.Namespace, &u.Name, &u.Stub, &u.Signature, &args, &rets, &excs, &entries); err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		for _, col := range []struct {
			raw []byte
			dst any
		}{{args, &u.Arguments}, {rets, &u.Returns}, {excs, &u.Exceptions}, {entries, &u.EntryLines}} {
			if err := json.Unmarshal(col.raw, col.dst); err != nil {
				return nil, fmt.Errorf("failed to decode unit %s: %w", u.QualName(), err)
			}
		}
		i, ok := index[fileID]
		if !ok {
			return nil, fmt.Errorf("unit %s references unknown file %d", u.QualName(), fileID)
		}
		snap.Files[i].Units = append(snap.Files[i].Units, u)
	}
	return snap, unitRows.Err()
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.created_at, r.events, COUNT(f.file_id)
		FROM runs r LEFT JOIN files f ON f.run_id = r.id
		GROUP BY r.id
		ORDER BY r.created_at DESC, r.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &created, &r.Events, &r.Files); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
