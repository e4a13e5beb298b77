package server

import (
	"github.com/charmbracelet/ssh"
	gossh "golang.org/x/crypto/ssh"
)

// publicKeyAuth admits every key. Results are attributed to the SSH user
// name, so the fingerprint is logged for auditing.
func (s *Server) publicKeyAuth(ctx ssh.Context, key ssh.PublicKey) bool {
	s.log.Info("ssh key accepted",
		"user", ctx.User(),
		"remote_addr", ctx.RemoteAddr().String(),
		"fingerprint", fingerprint(key),
		"key_type", key.Type())
	return true
}

func (s *Server) keyboardInteractiveAuth(ctx ssh.Context, _ gossh.KeyboardInteractiveChallenge) bool {
	s.log.Info("ssh keyboard-interactive login",
		"user", ctx.User(),
		"remote_addr", ctx.RemoteAddr().String())
	return true
}

func fingerprint(key ssh.PublicKey) string {
	if key == nil {
		return ""
	}
	return gossh.FingerprintSHA256(key)
}
