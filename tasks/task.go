package tasks

import (
	"strings"
	"time"

	"github.com/zeptools/gw-pdfedit/nullable"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
)

// Task - one submission of a session to the document backend
type Task struct {
	ID                int64           `json:"id"`
	Type              string          `json:"task_type"`
	SessionID         string          `json:"session_id"`
	Status            Status          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	FinishedAt        nullable.Time   `json:"finished_at"`
	OutputURL         nullable.String `json:"output_url"`
	OriginalFilenames string          `json:"original_filenames"`
	ErrorMessage      nullable.String `json:"error_message"`
}

// TargetFields - column order of the select statements
func (t *Task) TargetFields() []any {
	return []any{
		&t.ID,
		&t.Type,
		&t.SessionID,
		&t.Status,
		&t.CreatedAt,
		&t.FinishedAt,
		&t.OutputURL,
		&t.OriginalFilenames,
		&t.ErrorMessage,
	}
}

// Filenames splits the stored comma-separated list
func (t *Task) Filenames() []string {
	if t.OriginalFilenames == "" {
		return []string{}
	}
	return strings.Split(t.OriginalFilenames, ",")
}

func (t *Task) Finished() bool {
	return t.Status == StatusSuccess || t.Status == StatusFailed
}
