package editor

import (
	"context"
	"fmt"
	"log"

	"github.com/zeptools/gw-pdfedit/locks/keyonlylocks"
	"github.com/zeptools/gw-pdfedit/overlay"
)

// Files returns a copy of the source file list
func (s *Session) Files() []File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]File{}, s.files...)
}

func (s *Session) fileNamesLocked() []string {
	names := make([]string, len(s.files))
	for i, f := range s.files {
		names[i] = f.Name
	}
	return names
}

// AddFiles uploads files into the session. Nothing is sent unless every file passes validation.
func (s *Session) AddFiles(ctx context.Context, uploads []Upload) ([]File, error) {
	if err := s.deps.Limits.ValidateAll(uploads); err != nil {
		s.statusLocked("Error: "+err.Error(), overlay.StatusError)
		return nil, err
	}
	s.statusLocked("Uploading files...", overlay.StatusNormal)
	res, err := s.deps.Backend.Upload(ctx, s.id, uploads)
	if err != nil {
		log.Printf("[ERROR][Editor] %s: upload: %v", s.id, err)
		s.statusLocked("Upload error", overlay.StatusError)
		return nil, fmt.Errorf("upload: %w", err)
	}
	s.lock()
	defer s.unlock()
	s.files = append(s.files, res.Files...)
	s.setStatus("Files added", overlay.StatusSuccess)
	return append([]File{}, res.Files...), nil
}

// ReplaceFile uploads one file in place of the file at index
func (s *Session) ReplaceFile(ctx context.Context, index int, u Upload) (File, error) {
	if err := s.deps.Limits.Validate(u); err != nil {
		s.statusLocked("Error: "+err.Error(), overlay.StatusError)
		return File{}, err
	}
	s.lock()
	if index < 0 || index >= len(s.files) {
		s.unlock()
		return File{}, ErrIndexOutOfRange
	}
	s.setStatus(fmt.Sprintf("Replacing file %d...", index+1), overlay.StatusNormal)
	s.unlock()

	res, err := s.deps.Backend.Upload(ctx, s.id, []Upload{u})
	if err != nil || len(res.Files) == 0 {
		if err == nil {
			err = ErrNoFiles
		}
		log.Printf("[ERROR][Editor] %s: replace file %d: %v", s.id, index, err)
		s.statusLocked("Replace failed", overlay.StatusError)
		return File{}, fmt.Errorf("replace file: %w", err)
	}

	s.lock()
	defer s.unlock()
	// the list may have shrunk while uploading
	if index >= len(s.files) {
		return File{}, ErrIndexOutOfRange
	}
	s.files[index] = res.Files[0]
	if index == 0 {
		// the active document changed under the analysis cache
		s.inspector.Invalidate()
	}
	s.setStatus("File replaced", overlay.StatusSuccess)
	return res.Files[0], nil
}

func (s *Session) RemoveFile(index int) (File, error) {
	s.lock()
	defer s.unlock()
	if index < 0 || index >= len(s.files) {
		return File{}, ErrIndexOutOfRange
	}
	f := s.files[index]
	s.files = append(s.files[:index], s.files[index+1:]...)
	if index == 0 {
		s.inspector.Invalidate()
	}
	return f, nil
}

// SwapFiles exchanges two entries of the file list (drag and drop reordering)
func (s *Session) SwapFiles(i, j int) error {
	s.lock()
	defer s.unlock()
	if i < 0 || j < 0 || i >= len(s.files) || j >= len(s.files) {
		return ErrIndexOutOfRange
	}
	if i == j {
		return nil
	}
	s.files[i], s.files[j] = s.files[j], s.files[i]
	if i == 0 || j == 0 {
		s.inspector.Invalidate()
	}
	return nil
}

// acquire takes the per-session submission lock without waiting
func (s *Session) acquire() (func(), error) {
	release, ok := keyonlylocks.TryLock(s.locks, "submit:"+s.id)
	if !ok {
		return nil, ErrBusy
	}
	return release, nil
}

// Submit sends the exported layers to the backend to be burnt into the document.
// On failure the overlay is left untouched so the user can retry.
func (s *Session) Submit(ctx context.Context) (string, error) {
	release, err := s.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	s.lock()
	recs, err := s.exportLocked()
	files := s.fileNamesLocked()
	if err == nil {
		s.setStatus("Applying changes...", overlay.StatusNormal)
	}
	s.unlock()
	if err != nil {
		s.statusLocked("Export failed", overlay.StatusError)
		return "", fmt.Errorf("export layers: %w", err)
	}

	taskID := s.beginTask(ctx, files)
	redirect, err := s.deps.Backend.Apply(ctx, s.id, recs)
	if err != nil {
		log.Printf("[ERROR][Editor] %s: apply: %v", s.id, err)
		s.failTask(ctx, taskID, err)
		s.statusLocked("Error: "+err.Error(), overlay.StatusError)
		return "", fmt.Errorf("apply: %w", err)
	}
	s.completeTask(ctx, taskID, redirect)
	s.statusLocked("Changes applied", overlay.StatusSuccess)
	return redirect, nil
}

// Process runs the session's tool over its files with the page grid edits
func (s *Session) Process(ctx context.Context) (string, error) {
	release, err := s.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	s.lock()
	if len(s.files) == 0 {
		s.unlock()
		return "", ErrNoFiles
	}
	req := ProcessRequest{Files: s.fileNamesLocked(), PagesConfig: s.pages.List()}
	s.setStatus("Processing...", overlay.StatusNormal)
	s.unlock()

	taskID := s.beginTask(ctx, req.Files)
	redirect, err := s.deps.Backend.Process(ctx, s.tool, s.id, req)
	if err != nil {
		log.Printf("[ERROR][Editor] %s: process %s: %v", s.id, s.tool.ID, err)
		s.failTask(ctx, taskID, err)
		s.statusLocked("Error: "+err.Error(), overlay.StatusError)
		return "", fmt.Errorf("process: %w", err)
	}
	s.completeTask(ctx, taskID, redirect)
	s.statusLocked("Processing complete", overlay.StatusSuccess)
	return redirect, nil
}

// the ledger is bookkeeping: its failures are logged, never returned

func (s *Session) beginTask(ctx context.Context, files []string) int64 {
	if s.deps.Tasks == nil {
		return 0
	}
	id, err := s.deps.Tasks.Begin(ctx, s.tool.ID, s.id, files)
	if err != nil {
		log.Printf("[ERROR][Editor] %s: task begin: %v", s.id, err)
		return 0
	}
	return id
}

func (s *Session) completeTask(ctx context.Context, id int64, output string) {
	if s.deps.Tasks == nil || id == 0 {
		return
	}
	if err := s.deps.Tasks.Complete(ctx, id, output); err != nil {
		log.Printf("[ERROR][Editor] %s: task %d complete: %v", s.id, id, err)
	}
}

func (s *Session) failTask(ctx context.Context, id int64, cause error) {
	if s.deps.Tasks == nil || id == 0 {
		return
	}
	if err := s.deps.Tasks.Fail(ctx, id, cause.Error()); err != nil {
		log.Printf("[ERROR][Editor] %s: task %d fail: %v", s.id, id, err)
	}
}
