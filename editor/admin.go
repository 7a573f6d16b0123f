package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/zeptools/gw-pdfedit/uds"
)

var errUsage = errors.New("wrong arguments")

// StoredLister is implemented by stores that can enumerate persisted sessions
type StoredLister interface {
	StoredIDs(ctx context.Context) ([]string, error)
}

const adminTimeout = 10 * time.Second

// AdminCommands - the unix socket console commands operating on the hub
func (h *Hub) AdminCommands() map[string]uds.CmdHnd {
	cmds := map[string]uds.CmdHnd{
		"sessions": {
			Desc:  "list live sessions",
			Usage: "sessions",
			Fn: func(args []string, w io.Writer) error {
				for _, id := range h.IDs() {
					h.mu.RLock()
					s, ok := h.sessions[id]
					h.mu.RUnlock()
					if !ok {
						continue
					}
					rec := s.Record()
					_, _ = fmt.Fprintf(w, "%-34s %-10s page=%-4d files=%-3d idle=%v\n",
						id, rec.Tool, rec.Page, len(rec.Files), h.now().Sub(s.LastActive()).Round(time.Second))
				}
				_, _ = fmt.Fprintf(w, "%d live\n", h.Len())
				return nil
			},
		},
		"show": {
			Desc:  "dump the state of a session as json",
			Usage: "show <sid>",
			Fn: func(args []string, w io.Writer) error {
				if len(args) != 1 {
					return errUsage
				}
				ctx, cancel := context.WithTimeout(h.Ctx, adminTimeout)
				defer cancel()
				s, err := h.Get(ctx, args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(s.Snapshot())
			},
		},
		"drop": {
			Desc:  "close a session and delete its record",
			Usage: "drop <sid>",
			Fn: func(args []string, w io.Writer) error {
				if len(args) != 1 {
					return errUsage
				}
				ctx, cancel := context.WithTimeout(h.Ctx, adminTimeout)
				defer cancel()
				if err := h.Close(ctx, args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(w, "dropped %s\n", args[0])
				return nil
			},
		},
		"gc": {
			Desc:  "evict idle sessions now",
			Usage: "gc",
			Fn: func(args []string, w io.Writer) error {
				_, _ = fmt.Fprintf(w, "evicted %d\n", h.Reap())
				return nil
			},
		},
	}
	if lister, ok := h.store.(StoredLister); ok {
		cmds["stored"] = uds.CmdHnd{
			Desc:  "list persisted session ids",
			Usage: "stored",
			Fn: func(args []string, w io.Writer) error {
				ctx, cancel := context.WithTimeout(h.Ctx, adminTimeout)
				defer cancel()
				ids, err := lister.StoredIDs(ctx)
				if err != nil {
					return err
				}
				for _, id := range ids {
					_, _ = fmt.Fprintln(w, id)
				}
				_, _ = fmt.Fprintf(w, "%d stored\n", len(ids))
				return nil
			},
		}
	}
	return cmds
}
