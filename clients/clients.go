package clients

import (
	"context"

	"github.com/samber/mo"

	"dgexport/models"
)

// GitHubClient defines the GitHub REST calls made with a user access token
type GitHubClient interface {
	ListUserInstallations(ctx context.Context, accessToken string) ([]models.GitHubInstallation, error)
	ListUserRepositories(ctx context.Context, accessToken string) ([]models.GitHubRepository, error)
	CreateIssue(ctx context.Context, accessToken, repoFullName, title, body string) (*models.GitHubIssue, error)
	PutFile(ctx context.Context, accessToken, repoFullName, path, message, content string) (*models.GitHubFileCommit, error)
}

// RelayClient exchanges the session state token for an access token.
// None means the user has not finished authorizing yet.
type RelayClient interface {
	ExchangeState(ctx context.Context, state string) (mo.Option[string], error)
}

// AuthSurface opens the external page the user authorizes on
type AuthSurface interface {
	Open(ctx context.Context, url string, geometry models.WindowGeometry) (Window, error)
}

// Window is a handle to an opened authorization surface
type Window interface {
	Close() error
}
