package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/words"
)

var (
	uploadTitle       string
	uploadAuthor      string
	uploadDescription string
	uploadPublic      bool
)

func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Add a passage from a .txt or .md file",
		Args:  cobra.ExactArgs(1),
		RunE:  runUploadCmd,
	}
	cmd.Flags().StringVar(&uploadTitle, "title", "", "passage title (default: file name)")
	cmd.Flags().StringVar(&uploadAuthor, "author", "", "passage author")
	cmd.Flags().StringVar(&uploadDescription, "description", "", "short description")
	cmd.Flags().BoolVar(&uploadPublic, "public", false, "share the passage with every user")
	return cmd
}

func runUploadCmd(cmd *cobra.Command, args []string) error {
	fileCfg, env, err := settings(cmd)
	if err != nil {
		return err
	}
	path := args[0]
	content, err := words.Load(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	meta := model.PassageMeta{
		Title:       uploadTitle,
		Author:      uploadAuthor,
		Description: uploadDescription,
		IsPublic:    uploadPublic,
	}
	if meta.Title == "" {
		meta.Title = words.TitleFromPath(path)
	}
	if !cmd.Flags().Changed("title") && term.IsTerminal(int(os.Stdin.Fd())) {
		if err := promptMeta(&meta, words.Count(content)); err != nil {
			return err
		}
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
	meta.UserID = user.ID
	p, err := st.Upload(ctx, content, meta)
	if err != nil {
		return err
	}
	visibility := "private"
	if p.IsPublic {
		visibility = "public"
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Uploaded passage %d: %q (%d words, %s)\n",
		p.ID, p.Title, words.Count(p.Content), visibility)
	return err
}

func promptMeta(meta *model.PassageMeta, wordCount int) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Description(fmt.Sprintf("%d words", wordCount)).
				Value(&meta.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("title required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Author").
				Value(&meta.Author),
			huh.NewText().
				Title("Description").
				Value(&meta.Description),
			huh.NewConfirm().
				Title("Make this passage public?").
				Affirmative("Yes").
				Negative("No").
				Value(&meta.IsPublic),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errors.New("upload cancelled")
		}
		return fmt.Errorf("failed to read passage details: %w", err)
	}
	return nil
}
