// Package main provides the CLI entrypoint for speedtype.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/speedtype/internal/config"
	"github.com/verte-zerg/speedtype/internal/generator"
	"github.com/verte-zerg/speedtype/internal/logging"
	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/session"
	"github.com/verte-zerg/speedtype/internal/store"
	"github.com/verte-zerg/speedtype/internal/tui"
)

const defaultUser = "guest"

var (
	globalUser string
	globalDB   string

	practiceWords       int
	practicePreviewSize int
	practicePreviewStep int
	practiceTickMs      int
	practicePassage     int64
	practiceSearch      string
)

func main() {
	rootCmd := newRootCmd()
	err := rootCmd.Execute()
	logging.Close()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "speedtype",
		Short:         "Typing tests over your own passages",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.PersistentFlags().StringVar(&globalUser, "user", "", "practice user (default: $SPEEDTYPE_USER, then $USER)")
	rootCmd.PersistentFlags().StringVar(&globalDB, "db", "", "database path (default: $SPEEDTYPE_DB or XDG data dir)")

	rootCmd.Flags().IntVar(&practiceWords, "words", config.DefaultWords, "words per test")
	rootCmd.Flags().IntVar(&practicePreviewSize, "preview-size", config.DefaultPreviewSize, "words shown in the start preview")
	rootCmd.Flags().IntVar(&practicePreviewStep, "preview-step", config.DefaultPreviewStep, "preview scroll step")
	rootCmd.Flags().IntVar(&practiceTickMs, "tick-ms", config.DefaultTickMs, "live stats refresh interval in milliseconds")
	rootCmd.Flags().Int64Var(&practicePassage, "passage", 0, "open this passage id directly")
	rootCmd.Flags().StringVar(&practiceSearch, "search", "", "initial passage search")

	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newPassagesCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// settings merges the config file, the environment and global flags, then
// initializes logging.
func settings(cmd *cobra.Command) (config.FileConfig, config.Env, error) {
	env := config.LoadEnv()
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, config.Env{}, fmt.Errorf("failed to load config: %w", err)
	}
	env.Apply(&fileCfg)
	if cmd.Flags().Changed("db") {
		env.DBPath = globalDB
	}

	debug := false
	applyBoolConfig(cmd, "", &debug, fileCfg.Log.Debug)
	logFile := ""
	applyStringConfig(cmd, "", &logFile, fileCfg.Log.File)
	if err := logging.Initialize(debug, logFile); err != nil {
		return config.FileConfig{}, config.Env{}, err
	}
	return fileCfg, env, nil
}

func resolveUser(cmd *cobra.Command, fileCfg config.FileConfig) string {
	name := strings.TrimSpace(os.Getenv("USER"))
	applyStringConfig(cmd, "user", &name, fileCfg.Practice.User)
	if cmd.Flags().Changed("user") {
		name = strings.TrimSpace(globalUser)
	}
	if name == "" {
		return defaultUser
	}
	return name
}

func openStore(env config.Env) (*store.Store, error) {
	st, err := store.Open(env.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func practiceConfig(cmd *cobra.Command, fileCfg config.FileConfig) (model.Config, error) {
	applyIntConfig(cmd, "words", &practiceWords, fileCfg.Practice.Words)
	applyIntConfig(cmd, "preview-size", &practicePreviewSize, fileCfg.Practice.PreviewSize)
	applyIntConfig(cmd, "preview-step", &practicePreviewStep, fileCfg.Practice.PreviewStep)
	applyIntConfig(cmd, "tick-ms", &practiceTickMs, fileCfg.Practice.TickMs)

	cfg := model.Config{
		User:         resolveUser(cmd, fileCfg),
		Words:        practiceWords,
		PreviewSize:  practicePreviewSize,
		PreviewStep:  practicePreviewStep,
		TickInterval: time.Duration(practiceTickMs) * time.Millisecond,
	}
	return cfg, validateConfig(cfg)
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, env, err := settings(cmd)
	if err != nil {
		return err
	}
	cfg, err := practiceConfig(cmd, fileCfg)
	if err != nil {
		return err
	}

	st, err := openStore(env)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	user, err := st.EnsureUser(ctx, cfg.User)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	logging.Logger.Info("practice started", "user", user.Name, "words", cfg.Words)

	sess := session.New(session.Config{
		UserID:       user.ID,
		DefaultCount: cfg.Words,
		PreviewSize:  cfg.PreviewSize,
		PreviewStep:  cfg.PreviewStep,
		TickInterval: cfg.TickInterval,
	}, st.Positions(), st)
	defer sess.Close()

	m := tui.NewModel(tui.Deps{
		Context: ctx,
		Session: sess,
		Catalog: st,
		History: st,
		Picker:  generator.New(st),
		User:    user,
		Passage: practicePassage,
		Query:   strings.TrimSpace(practiceSearch),
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	waitForPersistence(sess)
	return nil
}

const persistTimeout = 5 * time.Second

// waitForPersistence lets a result that finished right before quitting reach
// the database.
func waitForPersistence(sess *session.Session) {
	flushed := sess.Flushed()
	if flushed == nil {
		return
	}
	select {
	case <-flushed:
		if err := sess.PersistErr(); err != nil {
			logErrf("result not saved: %v\n", err)
		}
	case <-time.After(persistTimeout):
		logErrln("timed out saving the last result")
	}
}

func validateConfig(cfg model.Config) error {
	if cfg.Words <= 0 {
		return fmt.Errorf("--words must be > 0")
	}
	if cfg.PreviewSize <= 0 {
		return fmt.Errorf("--preview-size must be > 0")
	}
	if cfg.PreviewStep <= 0 {
		return fmt.Errorf("--preview-step must be > 0")
	}
	if cfg.TickInterval <= 0 {
		return fmt.Errorf("--tick-ms must be > 0")
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if name != "" && cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if name != "" && cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if name != "" && cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
