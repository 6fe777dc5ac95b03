package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"dgexport/core/log"
)

const (
	EnvironmentDev  = "dev"
	EnvironmentProd = "prod"
)

type GitHubConfig struct {
	ClientID      string
	AppID         int64
	AppSlug       string
	TrustedOrigin string
	APIDomain     string // token relay
	APIBaseURL    string // GitHub REST API
	AuthorizeURL  string

	PollInitialDelay time.Duration
	PollInterval     time.Duration
	PollMaxAttempts  int

	PopupWidth   int
	PopupHeight  int
	ScreenWidth  int
	ScreenHeight int
}

// IsConfigured returns true if all required GitHub configuration is present
func (c GitHubConfig) IsConfigured() bool {
	return c.ClientID != "" &&
		c.AppID != 0 &&
		c.TrustedOrigin != "" &&
		c.APIDomain != ""
}

// InstallURL is the page where the user installs the GitHub App
func (c GitHubConfig) InstallURL() string {
	return fmt.Sprintf("https://github.com/apps/%s/installations/new", c.AppSlug)
}

type AppConfig struct {
	Environment  string
	StorePath    string
	CallbackAddr string
	LogFile      string

	GitHubConfig GitHubConfig
}

// deploymentDefaults holds the per-target endpoints; every one can be overridden from the environment.
// The GitHub App identity (client id, app id, slug) differs per target and must be set explicitly.
var deploymentDefaults = map[string]GitHubConfig{
	EnvironmentDev: {
		TrustedOrigin: "http://localhost:3000",
		APIDomain:     "http://localhost:3000/api",
	},
	EnvironmentProd: {
		TrustedOrigin: "https://discoursegraphs.com",
		APIDomain:     "https://discoursegraphs.com/api",
	},
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("⚠️ Could not load .env file, continuing with system env vars")
	}

	environment := getEnvWithDefault("DEPLOY_ENV", EnvironmentProd)
	defaults, ok := deploymentDefaults[environment]
	if !ok {
		return nil, fmt.Errorf("DEPLOY_ENV must be %q or %q, got %q", EnvironmentDev, EnvironmentProd, environment)
	}

	clientID, err := getEnvRequired("GITHUB_CLIENT_ID")
	if err != nil {
		return nil, err
	}
	rawAppID, err := getEnvRequired("GITHUB_APP_ID")
	if err != nil {
		return nil, err
	}
	appID, err := strconv.ParseInt(rawAppID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("GITHUB_APP_ID must be an integer: %w", err)
	}
	appSlug, err := getEnvRequired("GITHUB_APP_SLUG")
	if err != nil {
		return nil, err
	}
	pollDelay, err := getEnvDuration("GITHUB_POLL_INITIAL_DELAY", 2*time.Second)
	if err != nil {
		return nil, err
	}
	pollInterval, err := getEnvDuration("GITHUB_POLL_INTERVAL", time.Second)
	if err != nil {
		return nil, err
	}
	pollMaxAttempts, err := getEnvInt("GITHUB_POLL_MAX_ATTEMPTS", 30)
	if err != nil {
		return nil, err
	}
	screenWidth, err := getEnvInt("SCREEN_WIDTH", 1920)
	if err != nil {
		return nil, err
	}
	screenHeight, err := getEnvInt("SCREEN_HEIGHT", 1080)
	if err != nil {
		return nil, err
	}

	storePath, err := defaultStorePath()
	if err != nil {
		return nil, err
	}

	config := &AppConfig{
		Environment:  environment,
		StorePath:    getEnvWithDefault("DGEXPORT_STORE_PATH", storePath),
		CallbackAddr: getEnvWithDefault("CALLBACK_ADDR", "127.0.0.1:8765"),
		LogFile:      os.Getenv("DGEXPORT_LOG_FILE"),

		GitHubConfig: GitHubConfig{
			ClientID:      clientID,
			AppID:         appID,
			AppSlug:       appSlug,
			TrustedOrigin: getEnvWithDefault("TRUSTED_ORIGIN", defaults.TrustedOrigin),
			APIDomain:     getEnvWithDefault("API_DOMAIN", defaults.APIDomain),
			APIBaseURL:    getEnvWithDefault("GITHUB_API_BASE_URL", "https://api.github.com"),
			AuthorizeURL:  getEnvWithDefault("GITHUB_AUTHORIZE_URL", "https://github.com/login/oauth/authorize"),

			PollInitialDelay: pollDelay,
			PollInterval:     pollInterval,
			PollMaxAttempts:  pollMaxAttempts,

			PopupWidth:   600,
			PopupHeight:  525,
			ScreenWidth:  screenWidth,
			ScreenHeight: screenHeight,
		},
	}

	if !config.GitHubConfig.IsConfigured() {
		return nil, fmt.Errorf("GitHub integration is not fully configured for %s", environment)
	}
	if config.GitHubConfig.PollMaxAttempts <= 0 {
		return nil, fmt.Errorf("GITHUB_POLL_MAX_ATTEMPTS must be positive")
	}
	if config.GitHubConfig.PollInitialDelay < 0 {
		return nil, fmt.Errorf("GITHUB_POLL_INITIAL_DELAY cannot be negative")
	}
	if config.GitHubConfig.PollInterval < 0 {
		return nil, fmt.Errorf("GITHUB_POLL_INTERVAL cannot be negative")
	}

	log.Info("✅ Configuration loaded", "environment", environment, "store", config.StorePath)
	return config, nil
}

func defaultStorePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "dgexport", "settings.db"), nil
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return value, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return parsed, nil
}
