package infra

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

type recordingExecutor struct {
	queries []string
}

func (e *recordingExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	e.queries = append(e.queries, query)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (e *recordingExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	e.queries = append(e.queries, query)
	return errorRow{err: pgx.ErrNoRows}
}

func (e *recordingExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	e.queries = append(e.queries, query)
	return nil, errors.New("not supported")
}

func TestSQLRunnerStripsMarker(t *testing.T) {
	exec := &recordingExecutor{}
	runner := NewSQLRunner(exec, zerolog.Nop())
	query := "--sql 0b7c1f3e-2a41-4d8e-9f6a-1c2d3e4f5a6b\ninsert into generations(id) values ($1);"

	if _, err := runner.Exec(context.Background(), query, "id"); err != nil {
		t.Fatalf("Exec error: %v", err)
	}
	if len(exec.queries) != 1 || strings.Contains(exec.queries[0], "--sql") {
		t.Fatalf("marker not stripped: %#v", exec.queries)
	}
	if exec.queries[0] != "insert into generations(id) values ($1);" {
		t.Fatalf("unexpected body: %q", exec.queries[0])
	}
}

func TestSQLRunnerRejectsUnmarkedQueries(t *testing.T) {
	exec := &recordingExecutor{}
	runner := NewSQLRunner(exec, zerolog.Nop())

	if _, err := runner.Exec(context.Background(), "delete from generations"); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("expected ErrMissingMarker, got %v", err)
	}
	if err := runner.QueryRow(context.Background(), "--sql nope\nselect 1").Scan(); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("expected ErrMissingMarker from row, got %v", err)
	}
	if len(exec.queries) != 0 {
		t.Fatalf("unmarked statements must not reach the pool")
	}
}

func TestSQLRunnerQueryRowNoRows(t *testing.T) {
	runner := NewSQLRunner(&recordingExecutor{}, zerolog.Nop())
	err := runner.QueryRow(context.Background(), "--sql 0b7c1f3e-2a41-4d8e-9f6a-1c2d3e4f5a6b\nselect 1").Scan()
	if !IsNoRows(err) {
		t.Fatalf("expected no rows, got %v", err)
	}
}
