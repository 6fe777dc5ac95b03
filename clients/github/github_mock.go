package github

import (
	"context"

	"github.com/stretchr/testify/mock"

	"dgexport/models"
)

// MockGitHubClient is a mock implementation of the GitHubClient interface
type MockGitHubClient struct {
	mock.Mock
}

func (m *MockGitHubClient) ListUserInstallations(ctx context.Context, accessToken string) ([]models.GitHubInstallation, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GitHubInstallation), args.Error(1)
}

func (m *MockGitHubClient) ListUserRepositories(ctx context.Context, accessToken string) ([]models.GitHubRepository, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GitHubRepository), args.Error(1)
}

func (m *MockGitHubClient) CreateIssue(
	ctx context.Context,
	accessToken, repoFullName, title, body string,
) (*models.GitHubIssue, error) {
	args := m.Called(ctx, accessToken, repoFullName, title, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GitHubIssue), args.Error(1)
}

func (m *MockGitHubClient) PutFile(
	ctx context.Context,
	accessToken, repoFullName, path, message, content string,
) (*models.GitHubFileCommit, error) {
	args := m.Called(ctx, accessToken, repoFullName, path, message, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GitHubFileCommit), args.Error(1)
}
