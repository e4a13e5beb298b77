package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/speedtype/internal/config"
	"github.com/verte-zerg/speedtype/internal/logging"
	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/server"
)

var (
	serveHost    string
	servePort    int
	serveHostKey string
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host the typing TUI over SSH",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveHost, "host", config.DefaultServerHost, "host to bind to")
	cmd.Flags().IntVar(&servePort, "port", config.DefaultServerPort, "port to listen on")
	cmd.Flags().StringVar(&serveHostKey, "host-key", "", "SSH host key path (default: XDG data dir)")
	// Defaults for tests started over SSH.
	cmd.Flags().IntVar(&practiceWords, "words", config.DefaultWords, "words per test")
	cmd.Flags().IntVar(&practicePreviewSize, "preview-size", config.DefaultPreviewSize, "words shown in the start preview")
	cmd.Flags().IntVar(&practicePreviewStep, "preview-step", config.DefaultPreviewStep, "preview scroll step")
	cmd.Flags().IntVar(&practiceTickMs, "tick-ms", config.DefaultTickMs, "live stats refresh interval in milliseconds")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, env, err := settings(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "host", &serveHost, fileCfg.Server.Host)
	applyIntConfig(cmd, "port", &servePort, fileCfg.Server.Port)
	applyStringConfig(cmd, "host-key", &serveHostKey, fileCfg.Server.HostKey)
	if serveHostKey == "" {
		serveHostKey = config.DefaultHostKeyPath()
	}
	if servePort <= 0 || servePort > 65535 {
		return fmt.Errorf("--port must be between 1 and 65535")
	}
	practice, err := practiceConfig(cmd, fileCfg)
	if err != nil {
		return err
	}

	st, err := openStore(env)
	if err != nil {
		return err
	}
	defer closeStore(st)

	srv, err := server.New(st, server.Options{
		Host:        serveHost,
		Port:        servePort,
		HostKeyPath: serveHostKey,
		Practice: model.Config{
			Words:        practice.Words,
			PreviewSize:  practice.PreviewSize,
			PreviewStep:  practice.PreviewStep,
			TickInterval: practice.TickInterval,
		},
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logging.Logger.Info("starting speedtype ssh server", "address", srv.Addr(), "db_path", env.DBPath)
	logErrf("SSH server listening on %s (ctrl+c to stop)\n", srv.Addr())
	start := time.Now()
	if err := srv.Run(ctx); err != nil {
		return err
	}
	logErrf("SSH server stopped after %s\n", time.Since(start).Round(time.Second))
	return nil
}
