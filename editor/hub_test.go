package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestHub(t *testing.T, store Store) *Hub {
	t.Helper()
	h := NewHub(context.Background(), Deps{Backend: &fakeBackend{}}, store, time.Minute)
	n := 0
	h.newID = func() (string, error) {
		n++
		return "sid-" + string(rune('0'+n)), nil
	}
	return h
}

func TestHubCreateEvictRestore(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	h := newTestHub(t, store)

	if _, err := h.Create(ctx, "rotate_everything", nil); !errors.Is(err, ErrUnknownTool) {
		t.Errorf("unknown tool err = %v", err)
	}
	s, err := h.Create(ctx, "edit_pdf", []File{{Name: "a.pdf"}})
	if err != nil {
		t.Fatal(err)
	}
	s.Zoom(ctx, 0.2)
	s.RotatePage(2, 90)
	if err = h.Save(ctx, s); err != nil {
		t.Fatal(err)
	}
	before := s.Record()

	h.now = func() time.Time { return time.Now().Add(time.Hour) }
	if n := h.Reap(); n != 1 || h.Len() != 0 {
		t.Fatalf("reaped %d, live %d", n, h.Len())
	}

	restored, err := h.Get(ctx, s.ID())
	if err != nil {
		t.Fatal(err)
	}
	if restored == s {
		t.Error("expected a rebuilt session")
	}
	if diff := cmp.Diff(before, restored.Record()); diff != "" {
		t.Errorf("record (-want +got):\n%s", diff)
	}
	if again, _ := h.Get(ctx, s.ID()); again != restored {
		t.Error("second get rebuilt the session again")
	}

	if err = h.Close(ctx, s.ID()); err != nil {
		t.Fatal(err)
	}
	if _, err = h.Get(ctx, s.ID()); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("closed session err = %v", err)
	}
}

func TestHubWithoutStore(t *testing.T) {
	ctx := context.Background()
	h := newTestHub(t, nil)
	if _, err := h.Get(ctx, "nope"); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("get err = %v", err)
	}
	if err := h.Close(ctx, "nope"); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("close err = %v", err)
	}
	s, err := h.Adopt(ctx, "backend-sid", "merge", []File{{Name: "x.pdf"}})
	if err != nil || s.ID() != "backend-sid" {
		t.Fatalf("adopt = %v, %v", s, err)
	}
	if diff := cmp.Diff([]string{"backend-sid"}, h.IDs()); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}
}

func TestHubStartNeedsBackend(t *testing.T) {
	h := NewHub(context.Background(), Deps{}, nil, 0)
	if err := h.Start(); err == nil {
		t.Fatal("started without backend")
	}
	h = newTestHub(t, nil)
	if err := h.Start(); err != nil {
		t.Fatal(err)
	}
	h.Stop()
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
}

func runCmd(t *testing.T, h *Hub, name string, args ...string) (string, error) {
	t.Helper()
	cmd, ok := h.AdminCommands()[name]
	if !ok {
		t.Fatalf("no admin command %q", name)
	}
	var buf bytes.Buffer
	err := cmd.Fn(args, &buf)
	return buf.String(), err
}

func TestAdminCommands(t *testing.T) {
	ctx := context.Background()
	h := newTestHub(t, newMemStore())
	s, err := h.Create(ctx, "edit_pdf", []File{{Name: "a.pdf"}})
	if err != nil {
		t.Fatal(err)
	}

	out, _ := runCmd(t, h, "sessions")
	if !strings.Contains(out, s.ID()) || !strings.HasSuffix(out, "1 live\n") {
		t.Errorf("sessions output:\n%s", out)
	}

	out, err = runCmd(t, h, "show", s.ID())
	if err != nil {
		t.Fatal(err)
	}
	var st State
	if err = json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatal(err)
	}
	if st.SessionID != s.ID() || st.Mode != "select" {
		t.Errorf("show = %+v", st)
	}
	if _, err = runCmd(t, h, "show"); !errors.Is(err, errUsage) {
		t.Errorf("show without sid err = %v", err)
	}

	if out, _ = runCmd(t, h, "stored"); out != s.ID()+"\n1 stored\n" {
		t.Errorf("stored output = %q", out)
	}
	if out, _ = runCmd(t, h, "gc"); out != "evicted 0\n" {
		t.Errorf("gc output = %q", out)
	}
	if _, err = runCmd(t, h, "drop", s.ID()); err != nil {
		t.Fatal(err)
	}
	if h.Len() != 0 {
		t.Error("drop left the session live")
	}
}

func TestAdminStoredNeedsLister(t *testing.T) {
	h := newTestHub(t, nil)
	if _, ok := h.AdminCommands()["stored"]; ok {
		t.Error("stored offered without a listing store")
	}
}
