package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/stats"
	"github.com/verte-zerg/speedtype/internal/statsui"
)

const (
	defaultCurveWindow   = 10
	defaultLeaderboardSz = 10
	terminalWidthBackup  = 80
)

var (
	passagesMine   bool
	passagesSearch string

	statsPassage     int64
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsInteractive bool

	leaderboardSort    string
	leaderboardTop     int
	leaderboardPassage int64
	leaderboardRuns    int
)

func newPassagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passages",
		Short: "List passages you can practice",
		Args:  cobra.NoArgs,
		RunE:  runPassagesCmd,
	}
	cmd.Flags().BoolVar(&passagesMine, "mine", false, "only passages you uploaded")
	cmd.Flags().StringVar(&passagesSearch, "search", "", "filter by title or author")
	return cmd
}

func runPassagesCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, env, err := settings(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(env)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	user, err := st.EnsureUser(ctx, resolveUser(cmd, fileCfg))
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	var list []model.PassageSummary
	switch {
	case passagesMine:
		list, err = st.ListByUser(ctx, user.ID)
	case strings.TrimSpace(passagesSearch) != "":
		list, err = st.Search(ctx, user.ID, strings.TrimSpace(passagesSearch))
	default:
		list, err = st.ListAccessible(ctx, user.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to list passages: %w", err)
	}
	return stats.RenderPassages(cmd.OutOrStdout(), list)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show your results",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().Int64Var(&statsPassage, "passage", 0, "only results on this passage")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N results")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVarP(&statsInteractive, "interactive", "i", false, "browse results and the leaderboard in a TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if statsCurveWindow <= 0 {
		return fmt.Errorf("--curve-window must be > 0")
	}

	fileCfg, env, err := settings(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(env)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	user, err := st.EnsureUser(ctx, resolveUser(cmd, fileCfg))
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	cfg := model.StatsConfig{
		UserID:      user.ID,
		PassageID:   statsPassage,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}
	if statsInteractive {
		program := tea.NewProgram(statsui.NewModel(st, user, cfg), tea.WithAltScreen())
		_, err := program.Run()
		return err
	}
	report, err := stats.BuildReport(ctx, st, cfg)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}
	out := cmd.OutOrStdout()
	if statsPassage != 0 {
		best, ok, err := st.BestResult(ctx, user.ID, statsPassage)
		if err != nil {
			return fmt.Errorf("failed to load best result: %w", err)
		}
		if ok {
			if _, err := fmt.Fprintf(out, "Best on %q: %d WPM, %.2f%% accuracy (%s)\n\n",
				best.Title, best.WPM, best.AccuracyPercent, best.Date.Local().Format("2006-01-02")); err != nil {
				return err
			}
		}
	}
	return report.Render(out, cfg.CurveWindow, terminalWidth())
}

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank users by best WPM or accuracy",
		Args:  cobra.NoArgs,
		RunE:  runLeaderboardCmd,
	}
	cmd.Flags().StringVar(&leaderboardSort, "sort", string(stats.SortByWPM), "ranking metric (wpm|accuracy)")
	cmd.Flags().IntVar(&leaderboardTop, "top", defaultLeaderboardSz, "number of users to show (0 for all)")
	cmd.Flags().Int64Var(&leaderboardPassage, "passage", 0, "rank results on this passage only")
	cmd.Flags().IntVar(&leaderboardRuns, "runs", 0, "also list the N fastest individual results")
	return cmd
}

func runLeaderboardCmd(cmd *cobra.Command, _ []string) error {
	by := stats.SortBy(strings.ToLower(strings.TrimSpace(leaderboardSort)))
	if by != stats.SortByWPM && by != stats.SortByAccuracy {
		return fmt.Errorf("--sort must be wpm or accuracy")
	}
	if leaderboardTop < 0 || leaderboardRuns < 0 {
		return fmt.Errorf("--top and --runs must be >= 0")
	}

	fileCfg, env, err := settings(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(env)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	results, err := st.ListResults(ctx, model.StatsConfig{PassageID: leaderboardPassage})
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}
	entries := stats.Leaderboard(results, by)
	out := cmd.OutOrStdout()
	user, err := st.EnsureUser(ctx, resolveUser(cmd, fileCfg))
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	rank := stats.UserRank(entries, user.ID)
	if leaderboardTop > 0 && len(entries) > leaderboardTop {
		entries = entries[:leaderboardTop]
	}
	if err := stats.RenderLeaderboard(out, entries); err != nil {
		return err
	}
	if rank > 0 {
		if _, err := fmt.Fprintf(out, "\nYou (%s) are ranked #%d.\n", user.Name, rank); err != nil {
			return err
		}
	}
	if leaderboardRuns == 0 {
		return nil
	}
	top, err := st.TopResults(ctx, leaderboardRuns)
	if err != nil {
		return fmt.Errorf("failed to load top results: %w", err)
	}
	if _, err := fmt.Fprintln(out, "\nFastest runs"); err != nil {
		return err
	}
	return stats.RenderResults(out, top)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}
