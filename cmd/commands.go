package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"dgexport/core"
	"dgexport/core/log"
	"dgexport/db"
	"dgexport/handlers"
	"dgexport/models"
	"dgexport/services/datalog"
	usecasegithub "dgexport/usecases/github"
)

type AuthorizeCommand struct{}

func (c *AuthorizeCommand) Execute(args []string) error {
	return withSession(func(ctx context.Context, s *session) error {
		handler := handlers.NewMessagesHandler(s.github, s.cfg.GitHubConfig.TrustedOrigin, usecasegithub.ErrUntrustedOrigin)
		listener, err := handlers.Listen(s.cfg.CallbackAddr, handler)
		if err != nil {
			// the relay poll still delivers the token
			log.Warn("⚠️ Failed to start message listener", "addr", s.cfg.CallbackAddr, "error", err)
		} else {
			defer func() {
				if err := listener.Shutdown(context.Background()); err != nil {
					log.Warn("⚠️ Failed to stop message listener", "error", err)
				}
			}()
		}

		if err := s.github.Authorize(ctx); err != nil {
			return err
		}
		fmt.Println("⏳ " + usecasegithub.StatusAwaitingAuthorization)

		if err := s.github.AwaitAuthorization(ctx); err != nil {
			if errors.Is(err, core.ErrAuthorizationTimeout) {
				return errors.New(usecasegithub.StatusAuthorizationFailed)
			}
			return err
		}

		printStatus(os.Stdout, s.github.Snapshot())
		return nil
	})
}

type InstallCommand struct {
	NoWait bool `long:"no-wait" description:"Do not wait for the installation to be confirmed"`
}

func (c *InstallCommand) Execute(args []string) error {
	return withSession(func(ctx context.Context, s *session) error {
		if err := s.github.InstallApp(ctx); err != nil {
			if errors.Is(err, core.ErrNotReady) {
				return fmt.Errorf("not authorized, run `dgexport authorize` first")
			}
			return err
		}
		if c.NoWait {
			fmt.Println("Run `dgexport confirm-install` once the app is installed.")
			return nil
		}

		fmt.Println("Press Enter once the app is installed...")
		if _, err := bufio.NewReader(os.Stdin).ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return confirmInstallation(ctx, s)
	})
}

type ConfirmInstallCommand struct{}

func (c *ConfirmInstallCommand) Execute(args []string) error {
	return withSession(confirmInstallation)
}

func confirmInstallation(ctx context.Context, s *session) error {
	installed, err := s.github.ConfirmInstallation(ctx)
	if err != nil {
		return err
	}
	if !installed {
		return errors.New(usecasegithub.StatusAppNotInstalled)
	}

	fmt.Println("✅ The GitHub App is installed")
	return nil
}

type ReposCommand struct{}

func (c *ReposCommand) Execute(args []string) error {
	return withSession(func(ctx context.Context, s *session) error {
		if err := requireSelectable(ctx, s); err != nil {
			return err
		}

		snapshot := s.github.Snapshot()
		if len(snapshot.Repositories) == 0 && snapshot.Status != "" {
			return errors.New(snapshot.Status)
		}
		printRepos(os.Stdout, snapshot)
		return nil
	})
}

type SelectRepoCommand struct {
	Args struct {
		Repo string `positional-arg-name:"owner/name" required:"yes"`
	} `positional-args:"yes"`
}

func (c *SelectRepoCommand) Execute(args []string) error {
	return withSession(func(ctx context.Context, s *session) error {
		if err := requireSelectable(ctx, s); err != nil {
			return err
		}
		if err := s.github.SelectRepo(ctx, c.Args.Repo); err != nil {
			return err
		}

		fmt.Printf("✅ Pages will be sent to %s\n", c.Args.Repo)
		return nil
	})
}

type SelectDestinationCommand struct {
	Args struct {
		Destination string `positional-arg-name:"Issue|File" required:"yes"`
	} `positional-args:"yes"`
}

func (c *SelectDestinationCommand) Execute(args []string) error {
	return withSession(func(ctx context.Context, s *session) error {
		if err := requireSelectable(ctx, s); err != nil {
			return err
		}
		if err := s.github.SelectDestination(ctx, c.Args.Destination); err != nil {
			return err
		}

		fmt.Printf("✅ Pages will be sent as %s\n", s.github.Snapshot().Destination)
		return nil
	})
}

type StatusCommand struct{}

func (c *StatusCommand) Execute(args []string) error {
	return withSession(func(ctx context.Context, s *session) error {
		if err := s.github.Resume(ctx); err != nil {
			log.Warn("⚠️ Failed to refresh GitHub session", "error", err)
		}
		printStatus(os.Stdout, s.github.Snapshot())

		if !opts.Verbose {
			return nil
		}
		stored, err := db.NewSQLiteSettingsRepository(s.conn).List(ctx)
		if err != nil {
			return err
		}
		printStoredSettings(os.Stdout, stored)
		return nil
	})
}

type ExportCommand struct {
	Title string `short:"t" long:"title" description:"Issue title or file name" required:"yes"`
	Path  string `short:"p" long:"path" description:"Repository path for File exports (default <title>.md)"`
	Args  struct {
		Content string `positional-arg-name:"content-file" description:"Markdown file to send, - for stdin"`
	} `positional-args:"yes"`
}

func (c *ExportCommand) Execute(args []string) error {
	content, err := readInput(c.Args.Content)
	if err != nil {
		return err
	}

	return withSession(func(ctx context.Context, s *session) error {
		if err := s.github.Resume(ctx); err != nil {
			return err
		}

		link, err := s.github.Export(ctx, models.ExportPage{Title: c.Title, Content: string(content), Path: c.Path})
		if err != nil {
			if errors.Is(err, core.ErrNotReady) {
				return fmt.Errorf("authorize, install the app and select a repository before exporting")
			}
			return err
		}

		fmt.Printf("✅ Sent to GitHub: %s\n", link)
		return nil
	})
}

type VariablesCommand struct {
	Args struct {
		Query string `positional-arg-name:"clause-file" description:"JSON clause or array of clauses, - for stdin"`
	} `positional-args:"yes"`
}

func (c *VariablesCommand) Execute(args []string) error {
	input, err := readInput(c.Args.Query)
	if err != nil {
		return err
	}

	names, err := queryVariables(input)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

// queryVariables decodes one clause or a list of clauses and returns the sorted union of their variables
func queryVariables(input []byte) ([]string, error) {
	clauses, err := datalog.DecodeClauses(input)
	if err != nil {
		return nil, err
	}

	variables := datalog.NewVariableSet()
	for _, clause := range clauses {
		variables.Union(datalog.CollectVariables(clause))
	}
	return variables.Sorted(), nil
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func printStatus(w io.Writer, snapshot models.GitHubSessionState) {
	fmt.Fprintf(w, "State:         %s\n", snapshot.State)
	fmt.Fprintf(w, "Authorized:    %s\n", yesNo(snapshot.HasAccessToken))
	fmt.Fprintf(w, "App installed: %s\n", yesNo(snapshot.IsGitHubAppInstalled))
	repo := snapshot.SelectedRepo
	if repo == "" {
		repo = "(none)"
	}
	fmt.Fprintf(w, "Repository:    %s\n", repo)
	fmt.Fprintf(w, "Destination:   %s\n", snapshot.Destination)
	fmt.Fprintf(w, "Ready:         %s\n", yesNo(snapshot.CanSendToGitHub))
	if snapshot.Status != "" {
		fmt.Fprintf(w, "Status:        %s\n", snapshot.Status)
	}
}

func printRepos(w io.Writer, snapshot models.GitHubSessionState) {
	if len(snapshot.Repositories) == 0 {
		fmt.Fprintln(w, "No repositories found")
		return
	}
	for _, repo := range snapshot.Repositories {
		marker := " "
		if repo.FullName == snapshot.SelectedRepo {
			marker = "*"
		}
		visibility := ""
		if repo.Private {
			visibility = " (private)"
		}
		fmt.Fprintf(w, "%s %s%s\n", marker, repo.FullName, visibility)
	}
}

// printStoredSettings lists the local store; the access token is masked
func printStoredSettings(w io.Writer, stored []db.LocalSetting) {
	fmt.Fprintf(w, "\nStored settings (%d):\n", len(stored))
	for _, setting := range stored {
		value := setting.Value
		if setting.Key == models.SettingKeyGitHubOAuthToken {
			value = maskSecret(value)
		}
		fmt.Fprintf(w, "  %s = %s (updated %s)\n", setting.Key, value, setting.UpdatedAt)
	}
}

func maskSecret(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
