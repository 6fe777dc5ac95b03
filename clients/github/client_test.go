package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dgexport/core"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *GitHubClient {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGitHubClient(server.URL)
}

func TestGitHubClient_ListUserInstallations(t *testing.T) {
	ctx := context.Background()

	t.Run("sends token header and decodes installations", func(t *testing.T) {
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/user/installations", r.URL.Path)
			assert.Equal(t, "token gho_abc", r.Header.Get("Authorization"))
			assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
			w.Write([]byte(`{"total_count": 2, "installations": [{"id": 1, "app_id": 111}, {"id": 2, "app_id": 222}]}`))
		})

		installations, err := client.ListUserInstallations(ctx, "gho_abc")
		require.NoError(t, err)
		require.Len(t, installations, 2)
		assert.Equal(t, int64(222), installations[1].AppID)
	})

	t.Run("401 is a credential error", func(t *testing.T) {
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message": "Bad credentials"}`))
		})

		_, err := client.ListUserInstallations(ctx, "gho_expired")
		assert.ErrorIs(t, err, core.ErrBadCredentials)
		assert.True(t, core.IsBadCredentialsError(err))
	})

	t.Run("other failures are not credential errors", func(t *testing.T) {
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.ListUserInstallations(ctx, "gho_abc")
		require.Error(t, err)
		assert.False(t, core.IsBadCredentialsError(err))
		assert.Contains(t, err.Error(), "status 502")
	})
}

func TestGitHubClient_ListUserRepositories(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/repos", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		assert.Equal(t, "owner", r.URL.Query().Get("type"))
		w.Write([]byte(`[{"id": 7, "name": "notes", "full_name": "octo/notes"}]`))
	})

	repos, err := client.ListUserRepositories(context.Background(), "gho_abc")
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "octo/notes", repos[0].FullName)
	assert.Equal(t, "notes", repos[0].Name)
}

func TestGitHubClient_CreateIssue(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/octo/notes/issues", r.URL.Path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Claim: X", payload["title"])
		assert.Equal(t, "body text", payload["body"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"number": 12, "html_url": "https://github.com/octo/notes/issues/12"}`))
	})

	issue, err := client.CreateIssue(context.Background(), "gho_abc", "octo/notes", "Claim: X", "body text")
	require.NoError(t, err)
	assert.Equal(t, 12, issue.Number)
	assert.Equal(t, "https://github.com/octo/notes/issues/12", issue.HTMLURL)
}

func TestGitHubClient_PutFile(t *testing.T) {
	t.Run("creates a new file", func(t *testing.T) {
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/octo/notes/contents/pages/Claim X.md", r.URL.Path)
			switch r.Method {
			case http.MethodGet:
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"message": "Not Found"}`))
			case http.MethodPut:
				var payload map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
				assert.Equal(t, "Export Claim X", payload["message"])
				assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("# Claim X")), payload["content"])
				assert.NotContains(t, payload, "sha")

				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"content": {"path": "pages/Claim X.md", "html_url": "https://github.com/octo/notes/blob/main/pages/Claim%20X.md"}}`))
			}
		})

		commit, err := client.PutFile(context.Background(), "gho_abc", "octo/notes", "pages/Claim X.md", "Export Claim X", "# Claim X")
		require.NoError(t, err)
		assert.Equal(t, "pages/Claim X.md", commit.Path)
	})

	t.Run("updates an existing file with its sha", func(t *testing.T) {
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				w.Write([]byte(`{"sha": "abc123"}`))
			case http.MethodPut:
				var payload map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
				assert.Equal(t, "abc123", payload["sha"])
				w.Write([]byte(`{"content": {"path": "a.md"}}`))
			}
		})

		commit, err := client.PutFile(context.Background(), "gho_abc", "octo/notes", "a.md", "Export a", "a")
		require.NoError(t, err)
		assert.Equal(t, "a.md", commit.Path)
	})
}
