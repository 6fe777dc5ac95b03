package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/gammazero/workerpool"

	"dgexport/clients"
	"dgexport/config"
	"dgexport/core"
	"dgexport/core/log"
	"dgexport/models"
	"dgexport/services/poller"
	"dgexport/services/settings"
)

const (
	StatusAwaitingAuthorization = "Waiting for GitHub authorization..."
	StatusAuthorizationFailed   = "Something went wrong. Please contact support."
	StatusOpenFailed            = "Failed to open the GitHub authorization window. Please try again."
	StatusCredentialsRejected   = "GitHub rejected the saved authorization. Please authorize again."
	StatusInstallCheckFailed    = "Failed to check the GitHub App installation. Please try again."
	StatusAwaitingInstall       = "Install the GitHub App, then confirm the installation."
	StatusAppNotInstalled       = "The GitHub App is not installed yet."
	StatusRepoFetchFailed       = "Failed to fetch repositories. Please try again."
	StatusSaveFailed            = "Failed to save the selection. Please try again."
	StatusExportFailed          = "Failed to send to GitHub. Please try again."
)

var (
	ErrUntrustedOrigin       = errors.New("message origin is not trusted")
	ErrEmptyToken            = errors.New("message carries no access token")
	ErrAuthorizationNotStart = errors.New("authorization has not been started")
)

// authFlow is one invocation of Authorize: its state token, popup and poll loop
type authFlow struct {
	stateToken string
	window     clients.Window
	task       *poller.Task

	once sync.Once
	done chan struct{}
	err  error
}

func newAuthFlow(stateToken string) *authFlow {
	return &authFlow{stateToken: stateToken, done: make(chan struct{})}
}

func (f *authFlow) finish(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// GitHubUseCase drives the authorization, installation and repository selection session.
//
// Session fields are only read and written from the single events worker, so the
// popup message path and the relay poll path can race without locks; whichever
// delivers a token first wins and the other becomes a no-op. Network calls never
// run on the worker.
type GitHubUseCase struct {
	cfg      config.GitHubConfig
	github   clients.GitHubClient
	relay    clients.RelayClient
	surface  clients.AuthSurface
	settings *settings.SettingsService
	poller   *poller.Poller

	ctx    context.Context
	cancel context.CancelFunc

	eventsMu sync.RWMutex
	events   *workerpool.WorkerPool
	closed   bool

	// owned by the events worker
	flowState       models.AuthFlowState
	stateToken      string
	accessToken     string
	tokenReceived   bool
	installed       bool
	awaitingInstall bool
	selectedRepo    string
	destination     models.GitHubDestination
	repos           []models.GitHubRepository
	status          string
	canSendToGitHub bool
	flow            *authFlow
}

// NewGitHubUseCase starts a session: it generates the session state token and reads the
// persisted token, repository and destination as defaults.
func NewGitHubUseCase(
	ctx context.Context,
	cfg config.GitHubConfig,
	githubClient clients.GitHubClient,
	relayClient clients.RelayClient,
	surface clients.AuthSurface,
	settingsService *settings.SettingsService,
) (*GitHubUseCase, error) {
	log.Info("📋 Starting to initialize GitHub session")

	stateToken, err := core.NewStateToken("github")
	if err != nil {
		return nil, err
	}

	token, err := settingsService.GetGitHubAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load access token: %w", err)
	}
	repo, err := settingsService.GetSelectedRepo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load selected repository: %w", err)
	}
	destination, err := settingsService.GetGitHubDestination(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load destination: %w", err)
	}

	lifetime, cancel := context.WithCancel(context.Background())
	u := &GitHubUseCase{
		cfg:      cfg,
		github:   githubClient,
		relay:    relayClient,
		surface:  surface,
		settings: settingsService,
		poller: poller.NewPoller(poller.Config{
			Name:         "github-access-token",
			InitialDelay: cfg.PollInitialDelay,
			Interval:     cfg.PollInterval,
			MaxAttempts:  cfg.PollMaxAttempts,
		}),
		ctx:    lifetime,
		cancel: cancel,
		events: workerpool.New(1),

		flowState:     models.AuthFlowStateNoToken,
		stateToken:    stateToken,
		accessToken:   token.OrEmpty(),
		tokenReceived: token.IsPresent(),
		selectedRepo:  repo.OrEmpty(),
		destination:   destination.OrElse(models.GitHubDestinationIssue),
	}
	if u.tokenReceived {
		u.flowState = models.AuthFlowStateTokenReceived
	}

	log.Info("📋 Completed successfully - initialized GitHub session", "hasToken", u.tokenReceived, "repo", u.selectedRepo)
	return u, nil
}

// Close cancels any running authorization, waits for its poll loop and stops the events worker
func (u *GitHubUseCase) Close() {
	var task *poller.Task
	u.do(func() {
		if u.flow != nil {
			task = u.flow.task
			task.Cancel()
			u.flow.finish(context.Canceled)
		}
	})
	u.cancel()
	if task != nil {
		<-task.Done()
	}

	u.eventsMu.Lock()
	defer u.eventsMu.Unlock()
	if !u.closed {
		u.closed = true
		u.events.StopWait()
	}
}

// do runs fn on the events worker and waits for it. It must never be called from fn.
func (u *GitHubUseCase) do(fn func()) {
	u.eventsMu.RLock()
	defer u.eventsMu.RUnlock()
	if u.closed {
		return
	}
	u.events.SubmitWait(fn)
}

// Resume re-validates a persisted token: it checks the installation and loads repositories
func (u *GitHubUseCase) Resume(ctx context.Context) error {
	var hasToken bool
	u.do(func() { hasToken = u.accessToken != "" })
	if !hasToken {
		return nil
	}

	if err := u.CheckInstallation(ctx); err != nil {
		return err
	}
	if !u.Snapshot().RepoAndDestinationSelectEnabled {
		return nil
	}
	_, err := u.LoadRepos(ctx)
	return err
}

// AuthorizeURL is the provider page the popup is pointed at
func (u *GitHubUseCase) AuthorizeURL(stateToken string) string {
	query := url.Values{
		"client_id": {u.cfg.ClientID},
		"state":     {stateToken},
	}
	return u.cfg.AuthorizeURL + "?" + query.Encode()
}

// Authorize starts a fresh authorization: a new state token, the popup, and the relay poll.
// It returns once the poll is running; AwaitAuthorization waits for the outcome.
// Calling it again supersedes the previous attempt.
func (u *GitHubUseCase) Authorize(ctx context.Context) error {
	log.Info("📋 Starting GitHub authorization")

	stateToken, err := core.NewStateToken("github")
	if err != nil {
		return err
	}
	flow := newAuthFlow(stateToken)

	u.do(func() {
		if u.flow != nil {
			u.flow.task.Cancel()
			u.flow.finish(context.Canceled)
		}
		u.flow = flow
		u.stateToken = stateToken
		u.tokenReceived = false
		u.flowState = models.AuthFlowStateAwaitingAuthorization
		u.status = StatusAwaitingAuthorization
	})

	geometry := models.CenteredWindow(u.cfg.ScreenWidth, u.cfg.ScreenHeight, u.cfg.PopupWidth, u.cfg.PopupHeight)
	window, err := u.surface.Open(ctx, u.AuthorizeURL(stateToken), geometry)
	if err != nil {
		log.Error("❌ Failed to open authorization surface", "error", err)
		u.do(func() {
			if u.flow == flow {
				u.flowState = u.tokenlessState()
				u.status = StatusOpenFailed
			}
		})
		flow.finish(err)
		return fmt.Errorf("failed to open authorization window: %w", err)
	}

	var superseded, alreadyReceived bool
	u.do(func() {
		superseded = u.flow != flow
		alreadyReceived = u.tokenReceived
		if superseded || alreadyReceived {
			return
		}
		flow.window = window
		flow.task = u.poller.Start(u.ctx, u.pollAttempt(flow))
	})
	if superseded || alreadyReceived {
		// the token arrived before the popup handle existed
		u.closeWindow(window)
	}
	if superseded {
		return context.Canceled
	}
	if alreadyReceived {
		return nil
	}

	go u.watchPoll(flow)
	return nil
}

// AwaitAuthorization blocks until the current authorization attempt has settled
func (u *GitHubUseCase) AwaitAuthorization(ctx context.Context) error {
	var flow *authFlow
	u.do(func() { flow = u.flow })
	if flow == nil {
		return ErrAuthorizationNotStart
	}

	select {
	case <-flow.done:
		return flow.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (u *GitHubUseCase) pollAttempt(flow *authFlow) poller.AttemptFunc {
	return func(ctx context.Context, attempt int) (bool, error) {
		log.Debug("📋 Polling relay for access token", "attempt", attempt)
		token, err := u.relay.ExchangeState(ctx, flow.stateToken)
		if err != nil {
			return false, err
		}

		value, ok := token.Get()
		if !ok {
			return false, nil
		}

		u.receiveToken(value, "relay", flow)
		return true, nil
	}
}

func (u *GitHubUseCase) watchPoll(flow *authFlow) {
	err := flow.task.Wait()
	if !errors.Is(err, poller.ErrMaxAttemptsExceeded) {
		// success and cancellation are settled by whoever caused them
		return
	}

	u.do(func() {
		if u.flow != flow || u.tokenReceived {
			// superseded, or a message delivered the token during the last attempt
			return
		}
		log.Error("❌ GitHub authorization timed out", "attempts", u.cfg.PollMaxAttempts)
		u.flowState = u.tokenlessState()
		u.status = StatusAuthorizationFailed
		flow.finish(core.ErrAuthorizationTimeout)
	})
}

// HandleMessage accepts a token posted by the authorization popup.
// Only messages from the trusted origin are considered; the payload is the raw token.
func (u *GitHubUseCase) HandleMessage(origin, data string) error {
	if origin != u.cfg.TrustedOrigin {
		log.Warn("⚠️ Ignoring message from untrusted origin", "origin", origin)
		return ErrUntrustedOrigin
	}

	token := strings.TrimSpace(data)
	if token == "" {
		return ErrEmptyToken
	}

	u.receiveToken(token, "message", nil)
	return nil
}

// receiveToken is the single "token received" transition. Only the first token of an
// authorization attempt is accepted; later deliveries return without side effects.
// A token polled for a superseded attempt (from != current flow) is dropped.
func (u *GitHubUseCase) receiveToken(token, source string, from *authFlow) {
	var accepted bool
	var flow *authFlow
	u.do(func() {
		if u.tokenReceived || (from != nil && u.flow != from) {
			return
		}
		accepted = true
		flow = u.flow

		u.tokenReceived = true
		u.accessToken = token
		u.awaitingInstall = false
		u.flowState = models.AuthFlowStateTokenReceived
		u.status = ""
		if flow != nil {
			flow.task.Cancel()
			if flow.window != nil {
				u.closeWindow(flow.window)
			}
		}
	})
	if !accepted {
		log.Debug("📋 Ignoring duplicate or stale access token", "source", source)
		return
	}

	log.Info("✅ Received GitHub access token", "source", source)
	if err := u.settings.SetGitHubAccessToken(u.ctx, token); err != nil {
		log.Error("❌ Failed to persist access token", "error", err)
		u.setStatus(StatusSaveFailed)
	}

	if err := u.CheckInstallation(u.ctx); err == nil && u.Snapshot().RepoAndDestinationSelectEnabled {
		_, _ = u.LoadRepos(u.ctx)
	}

	if flow != nil {
		flow.finish(nil)
	}
}

func (u *GitHubUseCase) closeWindow(window clients.Window) {
	if err := window.Close(); err != nil {
		log.Warn("⚠️ Failed to close authorization window", "error", err)
	}
}

// CheckInstallation asks GitHub which app installations the token can see and looks for ours.
// A rejected credential clears the stored token; other failures keep it.
func (u *GitHubUseCase) CheckInstallation(ctx context.Context) error {
	var token string
	u.do(func() {
		token = u.accessToken
		if token != "" {
			u.flowState = models.AuthFlowStateCheckingInstallation
		}
	})
	if token == "" {
		return core.ErrNotReady
	}

	log.Info("📋 Starting to check GitHub App installation", "appID", u.cfg.AppID)
	installations, err := u.github.ListUserInstallations(ctx, token)
	if err != nil {
		if core.IsBadCredentialsError(err) {
			log.Warn("⚠️ GitHub rejected the access token, clearing it")
			u.clearToken(token)
			return err
		}

		log.Error("❌ Failed to check GitHub App installation", "error", err)
		u.do(func() {
			u.installed = false
			u.flowState = u.notInstalledState()
			u.status = StatusInstallCheckFailed
		})
		return err
	}

	found := slices.ContainsFunc(installations, func(i models.GitHubInstallation) bool {
		return i.AppID == u.cfg.AppID
	})

	u.do(func() {
		if u.accessToken != token {
			return
		}
		u.installed = found
		if found {
			u.awaitingInstall = false
			u.flowState = models.AuthFlowStateInstalled
			if u.status == StatusAwaitingInstall || u.status == StatusAppNotInstalled || u.status == StatusInstallCheckFailed {
				u.status = ""
			}
		} else {
			u.flowState = u.notInstalledState()
			if !u.awaitingInstall {
				u.status = StatusAppNotInstalled
			}
		}
		u.refreshReady()
	})

	log.Info("📋 Completed successfully - checked GitHub App installation", "installed", found)
	return nil
}

// clearToken forgets a rejected token, unless a newer one arrived in the meantime
func (u *GitHubUseCase) clearToken(rejected string) {
	var cleared bool
	u.do(func() {
		if u.accessToken != rejected {
			return
		}
		cleared = true
		u.accessToken = ""
		u.tokenReceived = false
		u.installed = false
		u.repos = nil
		u.flowState = models.AuthFlowStateNoToken
		u.status = StatusCredentialsRejected
	})
	if !cleared {
		return
	}

	if err := u.settings.ClearGitHubAccessToken(u.ctx); err != nil {
		log.Error("❌ Failed to clear stored access token", "error", err)
	}
}

// InstallApp opens the GitHub App installation page and waits for the user to confirm
func (u *GitHubUseCase) InstallApp(ctx context.Context) error {
	var token string
	u.do(func() { token = u.accessToken })
	if token == "" {
		return core.ErrNotReady
	}

	geometry := models.CenteredWindow(u.cfg.ScreenWidth, u.cfg.ScreenHeight, u.cfg.PopupWidth, u.cfg.PopupHeight)
	window, err := u.surface.Open(ctx, u.cfg.InstallURL(), geometry)
	if err != nil {
		u.setStatus(StatusOpenFailed)
		return fmt.Errorf("failed to open installation window: %w", err)
	}

	u.do(func() {
		u.awaitingInstall = true
		if !u.installed {
			u.flowState = models.AuthFlowStateAwaitingInstallConfirmation
		}
		u.status = StatusAwaitingInstall
	})
	u.closeWindowLater(ctx, window)
	return nil
}

// closeWindowLater keeps the install page open until the request context ends
func (u *GitHubUseCase) closeWindowLater(ctx context.Context, window clients.Window) {
	go func() {
		select {
		case <-ctx.Done():
		case <-u.ctx.Done():
		}
		u.closeWindow(window)
	}()
}

// ConfirmInstallation re-checks the installation after the user installed the app
func (u *GitHubUseCase) ConfirmInstallation(ctx context.Context) (bool, error) {
	if err := u.CheckInstallation(ctx); err != nil {
		return false, err
	}

	snapshot := u.Snapshot()
	if snapshot.RepoAndDestinationSelectEnabled && len(snapshot.Repositories) == 0 {
		if _, err := u.LoadRepos(ctx); err != nil {
			return true, err
		}
	}
	return snapshot.IsGitHubAppInstalled, nil
}

// LoadRepos fetches the repositories owned by the user. On failure the previous list is kept.
func (u *GitHubUseCase) LoadRepos(ctx context.Context) ([]models.GitHubRepository, error) {
	var token string
	var enabled bool
	u.do(func() {
		token = u.accessToken
		enabled = u.repoAndDestinationSelectEnabled()
	})
	if !enabled {
		return nil, core.ErrNotReady
	}

	log.Info("📋 Starting to load GitHub repositories")
	repos, err := u.github.ListUserRepositories(ctx, token)
	if err != nil {
		log.Error("❌ Failed to fetch repositories", "error", err)
		u.setStatus(StatusRepoFetchFailed)
		return nil, err
	}

	u.do(func() {
		u.repos = repos
		if u.status == StatusRepoFetchFailed {
			u.status = ""
		}
	})

	log.Info("📋 Completed successfully - loaded GitHub repositories", "count", len(repos))
	return repos, nil
}

// SelectRepo persists the chosen "owner/name" repository
func (u *GitHubUseCase) SelectRepo(ctx context.Context, fullName string) error {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return fmt.Errorf("repository cannot be empty")
	}

	var known bool
	u.do(func() {
		known = len(u.repos) == 0 || slices.ContainsFunc(u.repos, func(r models.GitHubRepository) bool {
			return r.FullName == fullName
		})
	})
	if !known {
		return fmt.Errorf("repository %s is not one of your repositories", fullName)
	}

	if err := u.settings.SetSelectedRepo(ctx, fullName); err != nil {
		u.setStatus(StatusSaveFailed)
		return err
	}

	u.do(func() {
		u.selectedRepo = fullName
		u.refreshReady()
	})
	return nil
}

// SelectDestination persists whether exports become issues or files
func (u *GitHubUseCase) SelectDestination(ctx context.Context, value string) error {
	destination, err := models.ParseGitHubDestination(value)
	if err != nil {
		return err
	}

	if err := u.settings.SetGitHubDestination(ctx, destination); err != nil {
		u.setStatus(StatusSaveFailed)
		return err
	}

	u.do(func() { u.destination = destination })
	return nil
}

// Export sends a page to the selected repository as an issue or a file
func (u *GitHubUseCase) Export(ctx context.Context, page models.ExportPage) (string, error) {
	var token, repo string
	var destination models.GitHubDestination
	var ready bool
	u.do(func() {
		token = u.accessToken
		repo = u.selectedRepo
		destination = u.destination
		ready = u.canSendToGitHub && token != "" && u.installed && repo != ""
	})
	if !ready {
		return "", core.ErrNotReady
	}
	if strings.TrimSpace(page.Title) == "" {
		return "", fmt.Errorf("page title cannot be empty")
	}

	log.Info("📋 Starting to export page", "title", page.Title, "repo", repo, "destination", destination)
	var link string
	var err error
	switch destination {
	case models.GitHubDestinationFile:
		path := page.Path
		if path == "" {
			path = fileNameForTitle(page.Title)
		}
		var commit *models.GitHubFileCommit
		commit, err = u.github.PutFile(ctx, token, repo, path, "Export "+page.Title, page.Content)
		if err == nil {
			link = commit.HTMLURL
		}
	default:
		var issue *models.GitHubIssue
		issue, err = u.github.CreateIssue(ctx, token, repo, page.Title, page.Content)
		if err == nil {
			link = issue.HTMLURL
		}
	}

	if err != nil {
		if core.IsBadCredentialsError(err) {
			u.clearToken(token)
		} else {
			u.setStatus(StatusExportFailed)
		}
		log.Error("❌ Failed to export page", "error", err)
		return "", err
	}

	u.setStatus("Sent to GitHub: " + link)
	log.Info("📋 Completed successfully - exported page", "url", link)
	return link, nil
}

// Snapshot returns the current session state
func (u *GitHubUseCase) Snapshot() models.GitHubSessionState {
	var snapshot models.GitHubSessionState
	u.do(func() {
		snapshot = models.GitHubSessionState{
			State:                           u.flowState,
			StateToken:                      u.stateToken,
			HasAccessToken:                  u.accessToken != "",
			IsGitHubAppInstalled:            u.installed,
			AwaitingInstallConfirmation:     u.awaitingInstall,
			SelectedRepo:                    u.selectedRepo,
			Destination:                     u.destination,
			Repositories:                    slices.Clone(u.repos),
			Status:                          u.status,
			RepoAndDestinationSelectEnabled: u.repoAndDestinationSelectEnabled(),
			CanSendToGitHub:                 u.canSendToGitHub,
		}
	})
	return snapshot
}

func (u *GitHubUseCase) setStatus(status string) {
	u.do(func() { u.status = status })
}

// the helpers below run on the events worker

func (u *GitHubUseCase) repoAndDestinationSelectEnabled() bool {
	return u.installed && u.accessToken != ""
}

// refreshReady latches canSendToGitHub; it is never reset for the session
func (u *GitHubUseCase) refreshReady() {
	if u.accessToken != "" && u.installed && u.selectedRepo != "" {
		u.canSendToGitHub = true
		u.flowState = models.AuthFlowStateReady
	}
}

func (u *GitHubUseCase) tokenlessState() models.AuthFlowState {
	if u.accessToken != "" {
		return models.AuthFlowStateTokenReceived
	}
	return models.AuthFlowStateNoToken
}

func (u *GitHubUseCase) notInstalledState() models.AuthFlowState {
	if u.awaitingInstall {
		return models.AuthFlowStateAwaitingInstallConfirmation
	}
	return models.AuthFlowStateNotInstalled
}

var unsafeFileChars = strings.NewReplacer("/", "-", "\\", "-", ":", "-", "*", "", "?", "", "\"", "", "<", "", ">", "", "|", "")

func fileNameForTitle(title string) string {
	name := strings.TrimSpace(unsafeFileChars.Replace(title))
	if name == "" {
		name = "untitled"
	}
	return name + ".md"
}
