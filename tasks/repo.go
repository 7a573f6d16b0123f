package tasks

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/zeptools/gw-pdfedit/db/sqldb"
	"github.com/zeptools/gw-pdfedit/editor"
	"github.com/zeptools/gw-pdfedit/nullable"
)

//go:embed sql
var sqlFS embed.FS

const group = "tasks"

func init() {
	sqldb.RegisterGroup(sqlFS, group)
}

var ErrNotFound = errors.New("task not found")

// Repo is the task ledger on a SQL database
type Repo struct {
	DB  sqldb.Client
	now func() time.Time
}

// Ensure Repo implements editor.TaskRecorder
var _ editor.TaskRecorder = (*Repo)(nil)

func NewRepo(db sqldb.Client) *Repo {
	return &Repo{DB: db, now: time.Now}
}

func (r *Repo) stmt(name string) (string, error) {
	return r.DB.RawStmt(group + "." + name)
}

// EnsureSchema creates the table when missing
func (r *Repo) EnsureSchema(ctx context.Context) error {
	q, err := r.stmt("create_table")
	if err != nil {
		return err
	}
	if _, err = r.DB.Exec(ctx, q); err != nil {
		return fmt.Errorf("create document_tasks: %w", err)
	}
	return nil
}

// Begin records a pending task and moves it to processing, returning its id
func (r *Repo) Begin(ctx context.Context, tool, sessionID string, files []string) (int64, error) {
	q, err := r.stmt("insert")
	if err != nil {
		return 0, err
	}
	res, err := r.DB.InsertStmt(ctx, q, tool, sessionID, string(StatusPending), r.now().UTC(), strings.Join(files, ","))
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err = r.setStatus(ctx, id, StatusProcessing); err != nil {
		return id, err
	}
	return id, nil
}

func (r *Repo) setStatus(ctx context.Context, id int64, status Status) error {
	q, err := r.stmt("set_status")
	if err != nil {
		return err
	}
	if _, err = r.DB.Exec(ctx, q, string(status), id); err != nil {
		return fmt.Errorf("task %d status %s: %w", id, status, err)
	}
	return nil
}

// Complete finishes a task successfully with the url of its output
func (r *Repo) Complete(ctx context.Context, id int64, outputURL string) error {
	return r.finish(ctx, id, StatusSuccess, outputURL, "")
}

// Fail finishes a task with an error message
func (r *Repo) Fail(ctx context.Context, id int64, reason string) error {
	return r.finish(ctx, id, StatusFailed, "", reason)
}

// finish only touches unfinished tasks; finishing twice is ErrNotFound
func (r *Repo) finish(ctx context.Context, id int64, status Status, outputURL, reason string) error {
	q, err := r.stmt("finish")
	if err != nil {
		return err
	}
	res, err := r.DB.Exec(ctx, q,
		string(status),
		nullable.TimeOf(r.now().UTC()),
		nullable.StringOf(outputURL),
		nullable.StringOf(reason),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: unfinished task %d", ErrNotFound, id)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id int64) (*Task, error) {
	q, err := r.stmt("get")
	if err != nil {
		return nil, err
	}
	t, err := sqldb.QueryItem[Task, *Task](ctx, r.DB, q, id)
	if errors.Is(err, sqldb.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return t, err
}

// ListBySession returns the newest tasks of a session first
func (r *Repo) ListBySession(ctx context.Context, sessionID string, limit int) ([]*Task, error) {
	if limit <= 0 {
		limit = 20
	}
	q, err := r.stmt("list_by_session")
	if err != nil {
		return nil, err
	}
	items, err := sqldb.QueryItems[Task, *Task](ctx, r.DB, q, sessionID, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*Task{}
	}
	return items, nil
}

// PruneFinished deletes finished tasks older than before
func (r *Repo) PruneFinished(ctx context.Context, before time.Time) (int64, error) {
	q, err := r.stmt("prune_finished")
	if err != nil {
		return 0, err
	}
	res, err := r.DB.Exec(ctx, q, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune tasks: %w", err)
	}
	return res.RowsAffected()
}

// PruneJob is a cron task keeping finished tasks for retention
func (r *Repo) PruneJob(retention time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		n, err := r.PruneFinished(ctx, r.now().Add(-retention))
		if err != nil {
			return err
		}
		log.Printf("[INFO][Tasks] pruned %d finished tasks", n)
		return nil
	}
}
