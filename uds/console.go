package uds

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sort"
	"strings"
)

const maxLineBytes = 64 << 10

// console is one admin connection
type console struct {
	ctx  context.Context
	conn net.Conn
	cmds map[string]CmdHnd
}

func newConsole(ctx context.Context, conn net.Conn, cmds map[string]CmdHnd) *console {
	return &console{ctx: ctx, conn: conn, cmds: cmds}
}

func (c *console) serve() {
	stop := context.AfterFunc(c.ctx, func() { _ = c.conn.Close() })
	defer stop()
	defer func() {
		if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("[ERROR][UDS] closing connection: %v", err)
		}
	}()

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for scanner.Scan() {
		if !c.dispatch(strings.Fields(scanner.Text())) {
			return
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Printf("[ERROR][UDS] read error: %v", err)
	}
}

// dispatch runs one command line. false ends the connection.
func (c *console) dispatch(args []string) bool {
	if len(args) == 0 {
		return true
	}
	name := args[0]
	switch name {
	case "quit":
		return false
	case "help":
		writeHelp(c.conn, c.cmds)
		return true
	}
	cmd, ok := c.cmds[name]
	if !ok {
		_, _ = fmt.Fprintf(c.conn, "unknown command: %s\n", name)
		return true
	}
	log.Printf("[INFO][UDS] command %q", strings.Join(args, " "))
	if err := cmd.Fn(args[1:], c.conn); err != nil {
		log.Printf("[ERROR][UDS] command %q failed: %v", name, err)
		_, _ = fmt.Fprintf(c.conn, "error: %v\n", err)
		if cmd.Usage != "" {
			_, _ = fmt.Fprintf(c.conn, "usage: %s\n", cmd.Usage)
		}
	}
	return true
}

func writeHelp(w io.Writer, cmds map[string]CmdHnd) {
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(w, "%-24s %s\n", cmds[name].Usage, cmds[name].Desc)
	}
	_, _ = fmt.Fprintf(w, "%-24s %s\n", "quit", "close the console")
}
