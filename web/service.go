package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/zeptools/gw-pdfedit/svc"
)

const ShutdownTimeout = 10 * time.Second

type Service struct {
	Ctx    context.Context    // Service Context
	cancel context.CancelFunc // Service Context CancelFunc
	state  int                // internal service state
	done   chan error         // Shutdown Error Channel
	Server *http.Server
	ln     net.Listener
}

// Ensure web.Service implements svc.Service
var _ svc.Service = (*Service)(nil)

func NewService(parentCtx context.Context, addr string, router http.Handler) *Service {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	return &Service{
		Ctx:    svcCtx,
		cancel: svcCancel,
		state:  svc.StateREADY,
		done:   make(chan error, 1),
		Server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return svcCtx },
		},
	}
}

func (s *Service) Name() string {
	return "WebService"
}

// Start binds the listener synchronously so that bind errors are bootstrapping errors
func (s *Service) Start() error {
	if s.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	ln, err := net.Listen("tcp", s.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen(%q) failed: %w", s.Server.Addr, err)
	}
	s.ln = ln
	s.state = svc.StateRUNNING
	go s.run()
	return nil
}

func (s *Service) Stop() {
	s.cancel()
	s.state = svc.StateSTOPPED
	log.Println("[INFO][Web] service stopped")
}

func (s *Service) Done() <-chan error {
	return s.done
}

// Addr - the bound address, useful with ":0"
func (s *Service) Addr() string {
	if s.ln == nil {
		return s.Server.Addr
	}
	return s.ln.Addr().String()
}

func (s *Service) run() {
	go func() {
		<-s.Ctx.Done()
		log.Println("[INFO][Web] shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := s.Server.Shutdown(ctx); err != nil {
			log.Printf("[ERROR][Web] shutdown: %v", err)
		}
	}()
	log.Printf("[INFO][Web] listening on %s ...", s.Addr())
	err := s.Server.Serve(s.ln)
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	s.done <- err
}
