package server

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gossh "golang.org/x/crypto/ssh"

	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/session"
	"github.com/verte-zerg/speedtype/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "speedtype.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestNewRequiresHostKeyPath(t *testing.T) {
	_, err := New(openStore(t), Options{Host: "127.0.0.1", Port: 2222})
	assert.Error(t, err)
}

func TestNewModelMapsSSHUser(t *testing.T) {
	st := openStore(t)
	srv, err := New(st, Options{
		Host:        "127.0.0.1",
		Port:        2222,
		HostKeyPath: filepath.Join(t.TempDir(), "keys", "host_ed25519"),
		Practice:    model.Config{Words: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:2222", srv.Addr())

	ctx := context.Background()
	m, ts, err := srv.newModel(ctx, "grace")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, session.PhaseSelecting, ts.Phase())
	count, _ := ts.Settings()
	assert.Equal(t, 5, count)

	user, err := st.EnsureUser(ctx, "grace")
	require.NoError(t, err)
	again, _, err := srv.newModel(ctx, "grace")
	require.NoError(t, err)
	require.NotNil(t, again)
	same, err := st.EnsureUser(ctx, "grace")
	require.NoError(t, err)
	assert.Equal(t, user.ID, same.ID)
}

func TestFingerprint(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	key, err := gossh.NewPublicKey(pub)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fingerprint(key), "SHA256:"))
	assert.Empty(t, fingerprint(nil))
}

func TestRunStopsOnCancel(t *testing.T) {
	port := freePort(t)
	srv, err := New(openStore(t), Options{
		Host:        "127.0.0.1",
		Port:        port,
		HostKeyPath: filepath.Join(t.TempDir(), "host_ed25519"),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", srv.Addr())
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
