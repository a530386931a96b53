// Package store persists analysis reports in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/funvibe/classinfer/internal/ast"
	"github.com/funvibe/classinfer/internal/diagnostics"
	"github.com/funvibe/classinfer/internal/report"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned when a run id is not in the database.
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	ok         INTEGER NOT NULL,
	aborted    INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS annotations (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	node     INTEGER NOT NULL,
	kind     TEXT NOT NULL,
	location TEXT NOT NULL,
	type     TEXT NOT NULL,
	PRIMARY KEY (run_id, node)
);
CREATE TABLE IF NOT EXISTS members (
	run_id TEXT NOT NULL REFERENCES runs(id),
	owner  TEXT NOT NULL,
	name   TEXT NOT NULL,
	type   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS literals (
	run_id TEXT NOT NULL REFERENCES runs(id),
	node   INTEGER NOT NULL,
	text   TEXT NOT NULL,
	value  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS diagnostics (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	seq      INTEGER NOT NULL,
	code     TEXT NOT NULL,
	location TEXT NOT NULL,
	message  TEXT NOT NULL,
	fatal    INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);`

// Diagnostic is a diagnostic as read back from the database.
type Diagnostic struct {
	Code     diagnostics.ErrorCode
	Location string
	Message  string
	Fatal    bool
}

// Run is the summary row of one stored report.
type Run struct {
	ID        uuid.UUID
	Source    string
	OK        bool
	Aborted   bool
	CreatedAt time.Time
}

// Store wraps a SQLite handle.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. Use ":memory:" for a
// private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// An in-memory database lives as long as its only connection.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema in %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes r in a single transaction.
func (s *Store) Save(ctx context.Context, r *report.Report) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", r.RunID, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	run := r.RunID.String()
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, ok, aborted, created_at) VALUES (?, ?, ?, ?, ?)`,
		run, r.Source, r.OK, r.Aborted, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("saving run %s: %w", run, err)
	}
	for _, a := range r.Annotations {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO annotations (run_id, node, kind, location, type) VALUES (?, ?, ?, ?, ?)`,
			run, int(a.Node), a.Kind, a.Location, a.Type); err != nil {
			return fmt.Errorf("saving annotation of node %d: %w", a.Node, err)
		}
	}
	for _, m := range r.Members {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO members (run_id, owner, name, type) VALUES (?, ?, ?, ?)`,
			run, m.Owner, m.Name, m.Type); err != nil {
			return fmt.Errorf("saving member %s.%s: %w", m.Owner, m.Name, err)
		}
	}
	for _, l := range r.Literals {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO literals (run_id, node, text, value) VALUES (?, ?, ?, ?)`,
			run, int(l.Node), l.Text, l.Value); err != nil {
			return fmt.Errorf("saving literal of node %d: %w", l.Node, err)
		}
	}
	for i, d := range r.Diagnostics {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO diagnostics (run_id, seq, code, location, message, fatal) VALUES (?, ?, ?, ?, ?, ?)`,
			run, i, string(d.Code), d.Location.String(), d.Message, d.Fatal); err != nil {
			return fmt.Errorf("saving diagnostic %d: %w", i, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("saving run %s: %w", run, err)
	}
	return nil
}

// LoadRun returns the summary of a stored run.
func (s *Store) LoadRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	var (
		run     Run
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT source, ok, aborted, created_at FROM runs WHERE id = ?`, id.String()).
		Scan(&run.Source, &run.OK, &run.Aborted, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", id, err)
	}
	run.ID = id
	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("loading run %s: %w", id, err)
	}
	return &run, nil
}

// LoadDiagnostics returns the diagnostics of a run in emission order.
func (s *Store) LoadDiagnostics(ctx context.Context, id uuid.UUID) ([]Diagnostic, error) {
	if _, err := s.LoadRun(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, location, message, fatal FROM diagnostics WHERE run_id = ? ORDER BY seq`, id.String())
	if err != nil {
		return nil, fmt.Errorf("loading diagnostics of %s: %w", id, err)
	}
	defer rows.Close()

	var out []Diagnostic
	for rows.Next() {
		var (
			d    Diagnostic
			code string
		)
		if err := rows.Scan(&code, &d.Location, &d.Message, &d.Fatal); err != nil {
			return nil, fmt.Errorf("loading diagnostics of %s: %w", id, err)
		}
		d.Code = diagnostics.ErrorCode(code)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Annotations returns the stored node types of a run ordered by node id.
func (s *Store) Annotations(ctx context.Context, id uuid.UUID) ([]report.Annotation, error) {
	if _, err := s.LoadRun(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT node, kind, location, type FROM annotations WHERE run_id = ? ORDER BY node`, id.String())
	if err != nil {
		return nil, fmt.Errorf("loading annotations of %s: %w", id, err)
	}
	defer rows.Close()

	var out []report.Annotation
	for rows.Next() {
		var (
			a    report.Annotation
			node int
		)
		if err := rows.Scan(&node, &a.Kind, &a.Location, &a.Type); err != nil {
			return nil, fmt.Errorf("loading annotations of %s: %w", id, err)
		}
		a.Node = ast.NodeID(node)
		out = append(out, a)
	}
	return out, rows.Err()
}
