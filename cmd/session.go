package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	"dgexport/clients"
	"dgexport/clients/browser"
	githubclient "dgexport/clients/github"
	"dgexport/clients/relay"
	"dgexport/config"
	"dgexport/core/log"
	"dgexport/db"
	"dgexport/services/settings"
	usecasegithub "dgexport/usecases/github"
	"dgexport/utils"
)

// session is everything one CLI invocation needs to drive the GitHub flow
type session struct {
	cfg     *config.AppConfig
	lock    *utils.SessionLock
	conn    *sqlx.DB
	logFile *os.File
	github  *usecasegithub.GitHubUseCase
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	s := &session{cfg: cfg}
	if cfg.LogFile != "" {
		logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		s.logFile = logFile
		log.SetWriter(io.MultiWriter(os.Stderr, logFile))
		if !opts.Verbose {
			log.SetLevel(slog.LevelInfo)
		}
	}

	lock, err := utils.NewSessionLock(cfg.StorePath)
	if err != nil {
		s.close()
		return nil, err
	}
	if err := lock.TryLock(); err != nil {
		s.close()
		return nil, err
	}
	s.lock = lock

	conn, err := db.NewConnection(cfg.StorePath)
	if err != nil {
		s.close()
		return nil, err
	}
	s.conn = conn

	var surface clients.AuthSurface = browser.NewBrowserSurface(os.Stdout)
	if opts.NoBrowser {
		surface = browser.NewPrintSurface(os.Stdout)
	}

	useCase, err := usecasegithub.NewGitHubUseCase(
		ctx,
		cfg.GitHubConfig,
		githubclient.NewGitHubClient(cfg.GitHubConfig.APIBaseURL),
		relay.NewRelayClient(cfg.GitHubConfig.APIDomain),
		surface,
		settings.NewSettingsService(db.NewSQLiteSettingsRepository(conn)),
	)
	if err != nil {
		s.close()
		return nil, err
	}
	s.github = useCase

	return s, nil
}

func (s *session) close() {
	if s.github != nil {
		s.github.Close()
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			log.Warn("⚠️ Failed to close store", "error", err)
		}
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			log.Warn("⚠️ Failed to release session lock", "error", err)
		}
	}
	if s.logFile != nil {
		_ = s.logFile.Close()
	}
}

// withSession runs fn with an open session and a context cancelled on interrupt
func withSession(fn func(ctx context.Context, s *session) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	return fn(ctx, s)
}

// requireSelectable resumes the saved session and fails unless repository selection is possible
func requireSelectable(ctx context.Context, s *session) error {
	if err := s.github.Resume(ctx); err != nil {
		return err
	}
	snapshot := s.github.Snapshot()
	if !snapshot.HasAccessToken {
		return fmt.Errorf("not authorized, run `dgexport authorize` first")
	}
	if !snapshot.RepoAndDestinationSelectEnabled {
		return fmt.Errorf("the GitHub App is not installed, run `dgexport install` first")
	}
	return nil
}
