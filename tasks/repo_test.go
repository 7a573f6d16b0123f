package tasks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/zeptools/gw-pdfedit/db/sqldb"
	"github.com/zeptools/gw-pdfedit/nullable"
)

type call struct {
	query string
	args  []any
}

type fakeResult struct {
	id, affected int64
}

func (r fakeResult) RowsAffected() (int64, error) { return r.affected, nil }
func (r fakeResult) LastInsertId() (int64, error) { return r.id, nil }

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = r.values[i].(int64)
		case *string:
			*p = r.values[i].(string)
		case *Status:
			*p = Status(r.values[i].(string))
		case *time.Time:
			*p = r.values[i].(time.Time)
		case *nullable.Time:
			if err := p.Scan(r.values[i]); err != nil {
				return err
			}
		case *nullable.String:
			if err := p.Scan(r.values[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

type fakeRows struct {
	rows []fakeRow
	i    int
}

func (r *fakeRows) Next() bool {
	r.i++
	return r.i <= len(r.rows)
}
func (r *fakeRows) Scan(dest ...any) error { return r.rows[r.i-1].Scan(dest...) }
func (r *fakeRows) Close() error           { return nil }
func (r *fakeRows) Err() error             { return nil }

type fakeDB struct {
	store    *sqldb.RawSQLStore
	calls    []call
	nextID   int64
	affected int64
	row      fakeRow
	rows     []fakeRow
}

var _ sqldb.Client = (*fakeDB)(nil)

func newFakeDB(t *testing.T) *fakeDB {
	t.Helper()
	store, err := sqldb.LoadRawStmts("pgsql", '$')
	if err != nil {
		t.Fatalf("LoadRawStmts: %v", err)
	}
	return &fakeDB{store: store, nextID: 41, affected: 1}
}

func (f *fakeDB) Init() error                    { return nil }
func (f *fakeDB) Close() error                   { return nil }
func (f *fakeDB) GetConf() *sqldb.Conf           { return &sqldb.Conf{Type: "pgsql"} }
func (f *fakeDB) Ping(ctx context.Context) error { return nil }
func (f *fakeDB) RawStmt(key string) (string, error) {
	return f.store.Get(key)
}

func (f *fakeDB) Exec(ctx context.Context, query string, args ...any) (sqldb.Result, error) {
	f.calls = append(f.calls, call{query, args})
	return fakeResult{affected: f.affected}, nil
}

func (f *fakeDB) InsertStmt(ctx context.Context, query string, args ...any) (sqldb.Result, error) {
	f.calls = append(f.calls, call{query, args})
	f.nextID++
	return fakeResult{id: f.nextID, affected: 1}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, query string, args ...any) sqldb.Row {
	f.calls = append(f.calls, call{query, args})
	return f.row
}

func (f *fakeDB) QueryRows(ctx context.Context, query string, args ...any) (sqldb.Rows, error) {
	f.calls = append(f.calls, call{query, args})
	return &fakeRows{rows: f.rows}, nil
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) (*Repo, *fakeDB) {
	db := newFakeDB(t)
	r := NewRepo(db)
	r.now = func() time.Time { return fixedNow }
	return r, db
}

func TestRawStmtsArePgsqlDialect(t *testing.T) {
	db := newFakeDB(t)
	q, err := db.RawStmt("tasks.finish")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(q, "?") || !strings.Contains(q, "$5") {
		t.Errorf("placeholders not converted: %s", q)
	}
	ddl, err := db.RawStmt("tasks.create_table")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ddl, "BIGSERIAL") {
		t.Errorf("expected the pgsql DDL, got %s", ddl)
	}
}

func TestBeginInsertsPendingThenProcessing(t *testing.T) {
	r, db := newTestRepo(t)
	id, err := r.Begin(context.Background(), "edit_pdf", "sid-1", []string{"a.pdf", "b.pdf"})
	if err != nil {
		t.Fatal(err)
	}
	if id != 42 {
		t.Errorf("id = %d, want 42", id)
	}
	if len(db.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(db.calls))
	}
	wantInsert := []any{"edit_pdf", "sid-1", "pending", fixedNow, "a.pdf,b.pdf"}
	if diff := cmp.Diff(wantInsert, db.calls[0].args); diff != "" {
		t.Errorf("insert args mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"processing", int64(42)}, db.calls[1].args); diff != "" {
		t.Errorf("status args mismatch (-want +got):\n%s", diff)
	}
}

func TestCompleteAndFail(t *testing.T) {
	r, db := newTestRepo(t)
	ctx := context.Background()
	if err := r.Complete(ctx, 7, "/download/x.pdf"); err != nil {
		t.Fatal(err)
	}
	args := db.calls[0].args
	if args[0] != "success" || args[2] != nullable.StringOf("/download/x.pdf") || args[3] != nullable.StringOf("") || args[4] != int64(7) {
		t.Errorf("complete args = %v", args)
	}
	if err := r.Fail(ctx, 8, "backend down"); err != nil {
		t.Fatal(err)
	}
	args = db.calls[1].args
	if args[0] != "failed" || args[3] != nullable.StringOf("backend down") {
		t.Errorf("fail args = %v", args)
	}
}

func TestFinishTwiceIsNotFound(t *testing.T) {
	r, db := newTestRepo(t)
	db.affected = 0
	err := r.Complete(context.Background(), 7, "/x")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func taskRow(id int64, status string, output any) fakeRow {
	return fakeRow{values: []any{
		id, "merge", "sid-1", status, fixedNow, nil, output, "a.pdf,b.pdf", nil,
	}}
}

func TestGet(t *testing.T) {
	r, db := newTestRepo(t)
	db.row = taskRow(3, "success", "/out.pdf")
	task, err := r.Get(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != StatusSuccess || !task.Finished() {
		t.Errorf("status = %s", task.Status)
	}
	if !task.OutputURL.Valid || task.OutputURL.String != "/out.pdf" {
		t.Errorf("output = %+v", task.OutputURL)
	}
	if task.FinishedAt.Valid {
		t.Errorf("finished_at should be null")
	}
	if diff := cmp.Diff([]string{"a.pdf", "b.pdf"}, task.Filenames()); diff != "" {
		t.Errorf("filenames mismatch (-want +got):\n%s", diff)
	}

	db.row = fakeRow{err: sqldb.ErrNoRows}
	if _, err = r.Get(context.Background(), 4); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListBySession(t *testing.T) {
	r, db := newTestRepo(t)
	got, err := r.ListBySession(context.Background(), "sid-1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("empty list = %#v", got)
	}
	if db.calls[0].args[1] != 20 {
		t.Errorf("default limit = %v", db.calls[0].args[1])
	}

	db.rows = []fakeRow{taskRow(2, "processing", nil), taskRow(1, "failed", nil)}
	got, err = r.ListBySession(context.Background(), "sid-1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != 2 || got[1].Status != StatusFailed {
		t.Errorf("list = %+v", got)
	}
}

func TestPruneJob(t *testing.T) {
	r, db := newTestRepo(t)
	db.affected = 4
	if err := r.PruneJob(30 * 24 * time.Hour)(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := db.calls[0].args[0]; got != fixedNow.Add(-30*24*time.Hour) {
		t.Errorf("cutoff = %v", got)
	}
}
