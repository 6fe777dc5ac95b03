package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dgexport/db"
	"dgexport/models"
)

func TestQueryVariables(t *testing.T) {
	t.Run("where section", func(t *testing.T) {
		input := []byte(`[
			{"type": "data-pattern", "arguments": [
				{"type": "variable", "value": "?node"},
				{"type": "constant", "value": ":node/title"},
				{"type": "variable", "value": "?title"}
			]},
			{"type": "not-join-clause",
			 "variables": [{"type": "variable", "value": "?node"}],
			 "clauses": [{"type": "data-pattern", "arguments": [
				{"type": "variable", "value": "?node"},
				{"type": "constant", "value": ":block/refs"},
				{"type": "variable", "value": "?hidden"}
			 ]}]}
		]`)

		names, err := queryVariables(input)
		require.NoError(t, err)
		assert.Equal(t, []string{"?node", "?title"}, names)
	})

	t.Run("single clause", func(t *testing.T) {
		names, err := queryVariables([]byte(`{"type": "fn-expr", "arguments": [{"type": "variable", "value": "?b"}, {"type": "underscore", "value": "_"}]}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"?b"}, names)
	})

	t.Run("unknown clause", func(t *testing.T) {
		names, err := queryVariables([]byte(`{"type": "mystery"}`))
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := queryVariables([]byte(`{"type":`))
		assert.Error(t, err)
	})
}

func TestPrintStatus(t *testing.T) {
	var out bytes.Buffer
	printStatus(&out, models.GitHubSessionState{
		State:                models.AuthFlowStateReady,
		HasAccessToken:       true,
		IsGitHubAppInstalled: true,
		SelectedRepo:         "me/notes",
		Destination:          models.GitHubDestinationFile,
		CanSendToGitHub:      true,
	})

	assert.Equal(t, "State:         ready\n"+
		"Authorized:    yes\n"+
		"App installed: yes\n"+
		"Repository:    me/notes\n"+
		"Destination:   File\n"+
		"Ready:         yes\n", out.String())
}

func TestPrintRepos(t *testing.T) {
	var out bytes.Buffer
	printRepos(&out, models.GitHubSessionState{
		SelectedRepo: "me/site",
		Repositories: []models.GitHubRepository{
			{FullName: "me/notes", Private: true},
			{FullName: "me/site"},
		},
	})
	assert.Equal(t, "  me/notes (private)\n* me/site\n", out.String())

	out.Reset()
	printRepos(&out, models.GitHubSessionState{})
	assert.Equal(t, "No repositories found\n", out.String())
}

func TestPrintStoredSettings(t *testing.T) {
	var out bytes.Buffer
	printStoredSettings(&out, []db.LocalSetting{
		{Key: models.SettingKeyGitHubDestination, Value: "File", UpdatedAt: "2026-10-16T10:00:00Z"},
		{Key: models.SettingKeyGitHubOAuthToken, Value: "gho_abcdefghijkl", UpdatedAt: "2026-10-16T09:00:00Z"},
	})

	assert.Equal(t, "\nStored settings (2):\n"+
		"  github/destination = File (updated 2026-10-16T10:00:00Z)\n"+
		"  github/oauth_token = gho_********ijkl (updated 2026-10-16T09:00:00Z)\n", out.String())
	assert.NotContains(t, out.String(), "abcdefgh")
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "*****", maskSecret("short"))
	assert.Equal(t, "gho_****wxyz", maskSecret("gho_stuvwxyz"))
}
