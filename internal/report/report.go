// Package report persists execution results to the destination named by a
// DSN: a JSON file by default, or a SQL database for the sqlite://,
// mysql:// and postgres:// schemes.
package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"ward/internal/runtime"
)

// Write stores a result at the destination. An empty DSN is an error; the
// caller decides whether an unset report destination means "skip".
func Write(ctx context.Context, dsn string, result *runtime.Result) error {
	if dsn == "" {
		return errors.New("report: empty destination")
	}
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return writeSQL(ctx, "sqlite3", strings.TrimPrefix(dsn, "sqlite://"), result)
	case strings.HasPrefix(dsn, "mysql://"):
		return writeSQL(ctx, "mysql", strings.TrimPrefix(dsn, "mysql://"), result)
	case strings.HasPrefix(dsn, "postgres://"):
		// lib/pq consumes the full URL form
		return writeSQL(ctx, "postgres", dsn, result)
	}
	return writeJSONFile(dsn, result)
}

func writeJSONFile(path string, result *runtime.Result) error {
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding report")
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return errors.Wrapf(err, "writing report to %s", path)
	}
	slog.Debug("report written", "path", path, "bytes", len(payload))
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id VARCHAR(36) PRIMARY KEY,
	targets TEXT NOT NULL,
	scope TEXT NOT NULL,
	variables TEXT NOT NULL,
	report_destination TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS tasks (
	run_id VARCHAR(36) NOT NULL,
	seq INTEGER NOT NULL,
	name TEXT NOT NULL,
	docstring TEXT NOT NULL,
	steps TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS actions (
	run_id VARCHAR(36) NOT NULL,
	seq INTEGER NOT NULL,
	kind TEXT NOT NULL,
	summary TEXT NOT NULL,
	details TEXT NOT NULL,
	line INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS findings (
	run_id VARCHAR(36) NOT NULL,
	seq INTEGER NOT NULL,
	severity TEXT NOT NULL,
	message TEXT NOT NULL,
	line INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS notes (
	run_id VARCHAR(36) NOT NULL,
	seq INTEGER NOT NULL,
	note TEXT NOT NULL
);
`

// rebind rewrites ? placeholders to the $N form lib/pq expects. SQLite and
// MySQL take ? as written.
func rebind(driver, query string) string {
	if driver != "postgres" {
		return query
	}
	var out strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&out, "$%d", n)
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

type sink struct {
	driver string
	tx     *sql.Tx
}

func (s *sink) exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := s.tx.ExecContext(ctx, rebind(s.driver, query), args...)
	return err
}

func writeSQL(ctx context.Context, driver, dsn string, result *runtime.Result) error {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return errors.Wrapf(err, "opening %s report database", driver)
	}
	defer db.Close()

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "creating report schema")
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting report transaction")
	}
	defer tx.Rollback()
	s := &sink{driver: driver, tx: tx}

	if err := insertRun(ctx, s, result); err != nil {
		return err
	}
	for n, task := range result.Tasks {
		steps, err := json.Marshal(task.Steps)
		if err != nil {
			return errors.Wrap(err, "encoding task steps")
		}
		if err := s.exec(ctx,
			`INSERT INTO tasks (run_id, seq, name, docstring, steps) VALUES (?, ?, ?, ?, ?)`,
			result.RunID, n, task.Name, task.Docstring, string(steps)); err != nil {
			return errors.Wrap(err, "inserting task row")
		}
	}
	for n, action := range result.StandaloneActions {
		details, err := json.Marshal(action.Details)
		if err != nil {
			return errors.Wrap(err, "encoding action details")
		}
		if err := s.exec(ctx,
			`INSERT INTO actions (run_id, seq, kind, summary, details, line) VALUES (?, ?, ?, ?, ?, ?)`,
			result.RunID, n, action.Kind, action.Summary, string(details), action.Line); err != nil {
			return errors.Wrap(err, "inserting action row")
		}
	}
	for n, finding := range result.Findings {
		if err := s.exec(ctx,
			`INSERT INTO findings (run_id, seq, severity, message, line) VALUES (?, ?, ?, ?, ?)`,
			result.RunID, n, finding.Severity, finding.Message, finding.Line); err != nil {
			return errors.Wrap(err, "inserting finding row")
		}
	}
	for n, note := range result.Notes {
		if err := s.exec(ctx,
			`INSERT INTO notes (run_id, seq, note) VALUES (?, ?, ?)`,
			result.RunID, n, note); err != nil {
			return errors.Wrap(err, "inserting note row")
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing report")
	}
	slog.Debug("report written", "driver", driver, "run_id", result.RunID,
		"tasks", len(result.Tasks), "findings", len(result.Findings))
	return nil
}

func insertRun(ctx context.Context, s *sink, result *runtime.Result) error {
	targets, err := json.Marshal(result.Targets)
	if err != nil {
		return errors.Wrap(err, "encoding targets")
	}
	scope, err := json.Marshal(result.Scope)
	if err != nil {
		return errors.Wrap(err, "encoding scope")
	}
	variables, err := json.Marshal(result.Variables)
	if err != nil {
		return errors.Wrap(err, "encoding variables")
	}
	err = s.exec(ctx,
		`INSERT INTO runs (run_id, targets, scope, variables, report_destination) VALUES (?, ?, ?, ?, ?)`,
		result.RunID, string(targets), string(scope), string(variables), result.ReportDestination)
	return errors.Wrap(err, "inserting run row")
}
