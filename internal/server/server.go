// Package server hosts the practice TUI over SSH. The SSH user name selects
// the practice account.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	wishlogging "github.com/charmbracelet/wish/logging"

	"github.com/verte-zerg/speedtype/internal/logging"
	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/store"
)

const shutdownTimeout = 30 * time.Second

// Options configures the SSH server.
type Options struct {
	Host        string
	Port        int
	HostKeyPath string
	// Practice holds the per-connection session defaults. User is ignored.
	Practice model.Config
	Logger   *slog.Logger
}

// Server serves one TUI per SSH connection against a shared store.
type Server struct {
	opts  Options
	store *store.Store
	log   *slog.Logger
	ssh   *ssh.Server
}

// New builds the wish server. The host key is generated on first use.
func New(st *store.Store, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Logger
	}
	if opts.HostKeyPath == "" {
		return nil, errors.New("host key path is required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.HostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create host key directory: %w", err)
	}
	s := &Server{
		opts:  opts,
		store: st,
		log:   opts.Logger.With("component", "ssh"),
	}

	// Middleware runs last to first.
	srv, err := wish.NewServer(
		wish.WithAddress(s.Addr()),
		wish.WithHostKeyPath(opts.HostKeyPath),
		wish.WithPublicKeyAuth(s.publicKeyAuth),
		wish.WithKeyboardInteractiveAuth(s.keyboardInteractiveAuth),
		wish.WithMiddleware(
			s.releaseMiddleware(),
			bubbletea.Middleware(s.teaHandler),
			activeterm.Middleware(),
			wishlogging.Middleware(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH server: %w", err)
	}
	s.ssh = srv
	return s, nil
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("ssh server listening", "address", s.Addr())
		errCh <- s.ssh.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("ssh server: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down ssh server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.ssh.Shutdown(shutdownCtx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return fmt.Errorf("failed to shut down SSH server: %w", err)
	}
	s.log.Info("ssh server stopped")
	return nil
}
