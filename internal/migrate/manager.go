// Package migrate runs SQL migration and seed files against Postgres with
// bookkeeping in a single history table.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

const (
	defaultHistoryTable = "schema_history"

	kindMigration = "migration"
	kindSeed      = "seed"
)

// Runner applies versioned SQL files from a filesystem. Migration files end
// in .up.sql with a matching .down.sql for rollback; seed files are plain
// .sql and apply once.
type Runner struct {
	db           *sql.DB
	migrations   fs.FS
	seeds        fs.FS
	historyTable string
}

// Option configures Runner.
type Option func(*Runner)

// WithHistoryTable overrides the bookkeeping table name.
func WithHistoryTable(name string) Option {
	return func(r *Runner) {
		if name != "" {
			r.historyTable = name
		}
	}
}

// NewRunner constructs a Runner. Either filesystem may be nil when the
// corresponding command is never used.
func NewRunner(db *sql.DB, migrations, seeds fs.FS, opts ...Option) *Runner {
	r := &Runner{
		db:           db,
		migrations:   migrations,
		seeds:        seeds,
		historyTable: defaultHistoryTable,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Up applies all pending migrations in lexical order.
func (r *Runner) Up(ctx context.Context) ([]string, error) {
	if err := r.ensureHistory(ctx); err != nil {
		return nil, err
	}
	names, err := listFiles(r.migrations, ".up.sql")
	if err != nil {
		return nil, err
	}
	applied, err := r.appliedSet(ctx, kindMigration)
	if err != nil {
		return nil, err
	}
	var ran []string
	for _, name := range names {
		if applied[name] {
			continue
		}
		if err := r.runFile(ctx, r.migrations, name); err != nil {
			return ran, fmt.Errorf("migrate: apply %s: %w", name, err)
		}
		if err := r.record(ctx, kindMigration, name); err != nil {
			return ran, err
		}
		ran = append(ran, name)
	}
	return ran, nil
}

// Down rolls back the most recently applied migration using its .down.sql
// counterpart.
func (r *Runner) Down(ctx context.Context) (string, error) {
	if err := r.ensureHistory(ctx); err != nil {
		return "", err
	}
	applied, err := r.appliedList(ctx, kindMigration)
	if err != nil {
		return "", err
	}
	if len(applied) == 0 {
		return "", errors.New("migrate: nothing to roll back")
	}
	last := applied[len(applied)-1]
	down := strings.TrimSuffix(last, ".up.sql") + ".down.sql"
	if _, err := fs.Stat(r.migrations, down); err != nil {
		return "", fmt.Errorf("migrate: no rollback file for %s", last)
	}
	if err := r.runFile(ctx, r.migrations, down); err != nil {
		return "", fmt.Errorf("migrate: roll back %s: %w", last, err)
	}
	_, err = r.db.ExecContext(ctx,
		fmt.Sprintf(`delete from %s where kind=$1 and name=$2`, r.historyTable),
		kindMigration, last)
	return last, err
}

// Seed applies seed files that have not run before.
func (r *Runner) Seed(ctx context.Context) ([]string, error) {
	if err := r.ensureHistory(ctx); err != nil {
		return nil, err
	}
	names, err := listFiles(r.seeds, ".sql")
	if err != nil {
		return nil, err
	}
	applied, err := r.appliedSet(ctx, kindSeed)
	if err != nil {
		return nil, err
	}
	var ran []string
	for _, name := range names {
		if applied[name] {
			continue
		}
		if err := r.runFile(ctx, r.seeds, name); err != nil {
			return ran, fmt.Errorf("migrate: apply seed %s: %w", name, err)
		}
		if err := r.record(ctx, kindSeed, name); err != nil {
			return ran, err
		}
		ran = append(ran, name)
	}
	return ran, nil
}

// Status returns applied migrations in application order.
func (r *Runner) Status(ctx context.Context) ([]string, error) {
	if err := r.ensureHistory(ctx); err != nil {
		return nil, err
	}
	return r.appliedList(ctx, kindMigration)
}

func (r *Runner) ensureHistory(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		create table if not exists %s (
			kind text not null,
			name text not null,
			applied_at timestamptz not null default now(),
			primary key (kind, name)
		)`, r.historyTable))
	return err
}

// runFile executes one SQL file inside a transaction, statement by
// statement: the pgx extended protocol takes one statement per Exec.
func (r *Runner) runFile(ctx context.Context, fsys fs.FS, name string) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range splitStatements(string(raw)) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Runner) record(ctx context.Context, kind, name string) error {
	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`insert into %s(kind, name, applied_at) values ($1,$2,$3)`, r.historyTable),
		kind, name, time.Now().UTC())
	return err
}

func (r *Runner) appliedSet(ctx context.Context, kind string) (map[string]bool, error) {
	names, err := r.appliedList(ctx, kind)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set, nil
}

func (r *Runner) appliedList(ctx context.Context, kind string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`select name from %s where kind=$1 order by applied_at, name`, r.historyTable),
		kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func listFiles(fsys fs.FS, suffix string) ([]string, error) {
	if fsys == nil {
		return nil, nil
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// splitStatements splits on semicolons outside single-quoted strings.
func splitStatements(sql string) []string {
	var (
		stmts    []string
		current  strings.Builder
		inString bool
	)
	for _, r := range sql {
		switch r {
		case '\'':
			inString = !inString
			current.WriteRune(r)
		case ';':
			if inString {
				current.WriteRune(r)
				continue
			}
			stmts = append(stmts, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		stmts = append(stmts, current.String())
	}
	return stmts
}
