package models

import "fmt"

// GitHubDestination is where an exported page ends up in the selected repository
type GitHubDestination string

const (
	GitHubDestinationIssue GitHubDestination = "Issue"
	GitHubDestinationFile  GitHubDestination = "File"
)

// ParseGitHubDestination validates a destination read from user input or storage
func ParseGitHubDestination(value string) (GitHubDestination, error) {
	switch GitHubDestination(value) {
	case GitHubDestinationIssue, GitHubDestinationFile:
		return GitHubDestination(value), nil
	default:
		return "", fmt.Errorf("invalid github destination %q, expected Issue or File", value)
	}
}

// GitHubInstallation is one entry of GET /user/installations
type GitHubInstallation struct {
	ID    int64 `json:"id"`
	AppID int64 `json:"app_id"`
}

// GitHubRepository is one entry of GET /user/repos
type GitHubRepository struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Private  bool   `json:"private"`
}

// GitHubIssue is the subset of the created issue we report back
type GitHubIssue struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

// GitHubFileCommit is the subset of the contents API response we report back
type GitHubFileCommit struct {
	Path    string `json:"path"`
	HTMLURL string `json:"html_url"`
}

// ExportPage is a page rendered for export, either as an issue or as a markdown file
type ExportPage struct {
	Title   string
	Content string
	// Path is used for File exports; defaults to "<title>.md"
	Path string
}

// AuthFlowState is the position of the authorization flow
type AuthFlowState string

const (
	AuthFlowStateNoToken                     AuthFlowState = "no_token"
	AuthFlowStateAwaitingAuthorization       AuthFlowState = "awaiting_authorization"
	AuthFlowStateTokenReceived               AuthFlowState = "token_received"
	AuthFlowStateCheckingInstallation        AuthFlowState = "checking_installation"
	AuthFlowStateNotInstalled                AuthFlowState = "not_installed"
	AuthFlowStateAwaitingInstallConfirmation AuthFlowState = "awaiting_install_confirmation"
	AuthFlowStateInstalled                   AuthFlowState = "installed"
	AuthFlowStateReady                       AuthFlowState = "ready"
)

// GitHubSessionState is a read-only snapshot of the authorization session
type GitHubSessionState struct {
	State                           AuthFlowState
	StateToken                      string
	HasAccessToken                  bool
	IsGitHubAppInstalled            bool
	AwaitingInstallConfirmation     bool
	SelectedRepo                    string
	Destination                     GitHubDestination
	Repositories                    []GitHubRepository
	Status                          string
	RepoAndDestinationSelectEnabled bool
	CanSendToGitHub                 bool
}

// WindowGeometry places a fixed-size popup centered on the screen
type WindowGeometry struct {
	Width  int
	Height int
	Left   int
	Top    int
}

// CenteredWindow computes the geometry of a width x height popup centered on the screen
func CenteredWindow(screenWidth, screenHeight, width, height int) WindowGeometry {
	return WindowGeometry{
		Width:  width,
		Height: height,
		Left:   max(0, (screenWidth-width)/2),
		Top:    max(0, (screenHeight-height)/2),
	}
}

// Features renders the geometry in window.open feature syntax
func (g WindowGeometry) Features() string {
	return fmt.Sprintf("width=%d,height=%d,left=%d,top=%d", g.Width, g.Height, g.Left, g.Top)
}
