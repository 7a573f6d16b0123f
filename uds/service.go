package uds

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"sync"

	"github.com/zeptools/gw-pdfedit/svc"
)

// Service is the admin console on a unix socket.
// A connection carries one command per line until `quit` or EOF.
type Service struct {
	Ctx        context.Context    // Service Context
	cancel     context.CancelFunc // Service Context CancelFunc
	state      int                // internal service state
	done       chan error         // Shutdown Error Channel
	SocketPath string
	CmdMap     map[string]CmdHnd

	listener net.Listener
	conns    sync.WaitGroup
}

// Ensure uds.Service implements svc.Service
var _ svc.Service = (*Service)(nil)

func NewService(parentCtx context.Context, sockPath string, cmdMap map[string]CmdHnd) *Service {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	return &Service{
		Ctx:        svcCtx,
		cancel:     svcCancel,
		state:      svc.StateREADY,
		done:       make(chan error, 1),
		SocketPath: sockPath,
		CmdMap:     cmdMap,
	}
}

func (s *Service) Name() string {
	return "UDSService"
}

// Start binds the socket synchronously so a bad path fails the boot.
// Runtime errors are pushed into Done().
func (s *Service) Start() error {
	if s.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	listener, err := listenPrivate(s.SocketPath)
	if err != nil {
		return err
	}
	s.listener = listener
	s.state = svc.StateRUNNING
	go s.closeOnDone()
	go s.acceptLoop()
	return nil
}

func (s *Service) Stop() {
	s.cancel()
	s.state = svc.StateSTOPPED
	log.Println("[INFO][UDS] service stopped")
}

func (s *Service) Done() <-chan error {
	return s.done
}

// listenPrivate replaces a stale socket file and restricts the new one to the owner
func listenPrivate(path string) (net.Listener, error) {
	_ = os.Remove(path)
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen(%q) failed: %w", path, err)
	}
	if err = os.Chmod(path, 0600); err != nil {
		_ = listener.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("chmod(%q) failed: %w", path, err)
	}
	return listener, nil
}

func (s *Service) closeOnDone() {
	<-s.Ctx.Done()
	if err := s.listener.Close(); err != nil {
		log.Printf("[ERROR][UDS] cannot close listener: %v", err)
	}
	if err := os.Remove(s.SocketPath); err != nil && !os.IsNotExist(err) {
		log.Printf("[ERROR][UDS] cannot remove socket file: %v", err)
	}
}

func (s *Service) acceptLoop() {
	log.Printf("[INFO][UDS] admin console on %q", s.SocketPath)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.conns.Wait()
				s.done <- nil
				return
			}
			log.Println("[ERROR][UDS] accept failed:", err)
			continue
		}
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			newConsole(s.Ctx, conn, s.CmdMap).serve()
		}()
	}
}
