package server

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"

	"github.com/verte-zerg/speedtype/internal/generator"
	"github.com/verte-zerg/speedtype/internal/session"
	"github.com/verte-zerg/speedtype/internal/tui"
)

type practiceKey struct{}

type connection struct {
	id      string
	session *session.Session
	started time.Time
}

// teaHandler builds the TUI for one SSH connection.
func (s *Server) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, _ := sess.Pty()
	id := fmt.Sprintf("%s@%s", sess.User(), sess.RemoteAddr().String())
	s.log.Info("ssh session started",
		"session_id", id,
		"term", pty.Term,
		"window", fmt.Sprintf("%dx%d", pty.Window.Width, pty.Window.Height))

	m, ts, err := s.newModel(sess.Context(), sess.User())
	if err != nil {
		s.log.Error("failed to prepare session", "session_id", id, "error", err)
		return errorModel{err: err}, nil
	}
	sess.Context().SetValue(practiceKey{}, &connection{id: id, session: ts, started: time.Now()})
	return m, []tea.ProgramOption{tea.WithAltScreen()}
}

func (s *Server) newModel(ctx context.Context, name string) (*tui.Model, *session.Session, error) {
	user, err := s.store.EnsureUser(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	logger := s.log.With("user", user.Name)
	p := s.opts.Practice
	ts := session.New(session.Config{
		UserID:       user.ID,
		DefaultCount: p.Words,
		PreviewSize:  p.PreviewSize,
		PreviewStep:  p.PreviewStep,
		TickInterval: p.TickInterval,
		Logger:       logger,
	}, s.store.Positions(), s.store)
	m := tui.NewModel(tui.Deps{
		Context: ctx,
		Session: ts,
		Catalog: s.store,
		History: s.store,
		Picker:  generator.New(s.store),
		User:    user,
		Logger:  logger,
	})
	return m, ts, nil
}

// releaseMiddleware runs after the program exits and tears down the
// connection's session, so a dropped connection never leaves a ticker behind.
func (s *Server) releaseMiddleware() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			if c, ok := sess.Context().Value(practiceKey{}).(*connection); ok {
				c.session.Close()
				s.log.Info("ssh session ended",
					"session_id", c.id,
					"duration", time.Since(c.started).String())
			}
			next(sess)
		}
	}
}

type errorModel struct {
	err error
}

func (e errorModel) Init() tea.Cmd {
	return nil
}

func (e errorModel) Update(tea.Msg) (tea.Model, tea.Cmd) {
	return e, tea.Quit
}

func (e errorModel) View() string {
	return fmt.Sprintf("Error: %v\n", e.err)
}
