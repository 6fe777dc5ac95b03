package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dgexport/core"
	"dgexport/models"
)

const DefaultAPIBaseURL = "https://api.github.com"

// GitHubClient implements the clients.GitHubClient interface
type GitHubClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewGitHubClient creates a new GitHub client; an empty baseURL means api.github.com
func NewGitHubClient(baseURL string) *GitHubClient {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}

	return &GitHubClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// ListUserInstallations lists the GitHub App installations accessible to the user token
func (c *GitHubClient) ListUserInstallations(ctx context.Context, accessToken string) ([]models.GitHubInstallation, error) {
	var data struct {
		Installations []models.GitHubInstallation `json:"installations"`
	}
	if err := c.do(ctx, http.MethodGet, "/user/installations", accessToken, nil, http.StatusOK, &data); err != nil {
		return nil, fmt.Errorf("failed to list installations: %w", err)
	}

	return data.Installations, nil
}

// ListUserRepositories lists repositories owned by the authenticated user.
// Only the first page of 100 is fetched.
func (c *GitHubClient) ListUserRepositories(ctx context.Context, accessToken string) ([]models.GitHubRepository, error) {
	query := url.Values{
		"per_page": {"100"},
		"type":     {"owner"},
	}

	var repos []models.GitHubRepository
	if err := c.do(ctx, http.MethodGet, "/user/repos?"+query.Encode(), accessToken, nil, http.StatusOK, &repos); err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	return repos, nil
}

// CreateIssue opens an issue in the given "owner/name" repository
func (c *GitHubClient) CreateIssue(
	ctx context.Context,
	accessToken, repoFullName, title, body string,
) (*models.GitHubIssue, error) {
	payload := map[string]string{
		"title": title,
		"body":  body,
	}

	var issue models.GitHubIssue
	path := fmt.Sprintf("/repos/%s/issues", repoFullName)
	if err := c.do(ctx, http.MethodPost, path, accessToken, payload, http.StatusCreated, &issue); err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}

	return &issue, nil
}

// PutFile creates or updates a file through the contents API
func (c *GitHubClient) PutFile(
	ctx context.Context,
	accessToken, repoFullName, path, message, content string,
) (*models.GitHubFileCommit, error) {
	contentsPath := fmt.Sprintf("/repos/%s/contents/%s", repoFullName, escapePath(path))

	// an existing file can only be replaced when its blob sha is sent along
	sha, err := c.fileSHA(ctx, accessToken, contentsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing file: %w", err)
	}

	payload := map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
	}
	if sha != "" {
		payload["sha"] = sha
	}

	var data struct {
		Content models.GitHubFileCommit `json:"content"`
	}
	expected := http.StatusCreated
	if sha != "" {
		expected = http.StatusOK
	}
	if err := c.do(ctx, http.MethodPut, contentsPath, accessToken, payload, expected, &data); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &data.Content, nil
}

func (c *GitHubClient) fileSHA(ctx context.Context, accessToken, contentsPath string) (string, error) {
	var data struct {
		SHA string `json:"sha"`
	}
	err := c.do(ctx, http.MethodGet, contentsPath, accessToken, nil, http.StatusOK, &data)
	if core.IsNotFoundError(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return data.SHA, nil
}

func (c *GitHubClient) do(
	ctx context.Context,
	method, path, accessToken string,
	payload any,
	expectedStatus int,
	out any,
) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "token "+accessToken)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != expectedStatus {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &apiErr)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || apiErr.Message == "Bad credentials":
		return fmt.Errorf("%w: GitHub API error: status %d, body: %s", core.ErrBadCredentials, resp.StatusCode, string(body))
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: GitHub API error: status %d, body: %s", core.ErrNotFound, resp.StatusCode, string(body))
	default:
		return fmt.Errorf("GitHub API error: status %d, body: %s", resp.StatusCode, string(body))
	}
}

func escapePath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
