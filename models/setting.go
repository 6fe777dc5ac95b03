package models

// SettingType represents the type of setting value
type SettingType string

const (
	SettingTypeString SettingType = "string"
	SettingTypeEnum   SettingType = "enum"
)

const (
	SettingKeyGitHubOAuthToken   = "github/oauth_token"
	SettingKeyGitHubDestination  = "github/destination"
	SettingKeyGitHubSelectedRepo = "github/selected_repo"
)

// SettingKeyDefinition defines a supported setting key with its expected type
type SettingKeyDefinition struct {
	Key     string
	Type    SettingType
	Allowed []string
}

// SupportedSettings is the registry of all supported setting keys with their types
var SupportedSettings = map[string]SettingKeyDefinition{
	SettingKeyGitHubOAuthToken: {
		Key:  SettingKeyGitHubOAuthToken,
		Type: SettingTypeString,
	},
	SettingKeyGitHubDestination: {
		Key:     SettingKeyGitHubDestination,
		Type:    SettingTypeEnum,
		Allowed: []string{string(GitHubDestinationIssue), string(GitHubDestinationFile)},
	},
	SettingKeyGitHubSelectedRepo: {
		Key:  SettingKeyGitHubSelectedRepo,
		Type: SettingTypeString,
	},
}
