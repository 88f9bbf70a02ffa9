package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Sandbox endpoints for HMRC's OAuth service.
const (
	DefaultHMRCAuthURL  = "https://test-api.service.hmrc.gov.uk/oauth/authorize"
	DefaultHMRCTokenURL = "https://test-api.service.hmrc.gov.uk/oauth/token"
	DefaultRedirectURL  = "urn:ietf:wg:oauth:2.0:oob"
)

// AppConfig holds process settings read from the environment.
type AppConfig struct {
	DBPath    string
	LogLevel  string
	RatesFile string
	TokenFile string
	HMRC      HMRCConfig
}

// HMRCConfig holds the OAuth client registration and submission endpoint.
type HMRCConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	SubmitURL    string
	Scopes       []string
	Timeout      time.Duration
}

// LoadAppConfig reads settings from the environment after applying any
// .env files given. A missing .env file is not an error.
func LoadAppConfig(envFiles ...string) (AppConfig, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := AppConfig{
		DBPath:    getenv("SATAX_DB_PATH", "satax.db"),
		LogLevel:  getenv("SATAX_LOG_LEVEL", "info"),
		RatesFile: os.Getenv("SATAX_RATES_FILE"),
		TokenFile: getenv("SATAX_TOKEN_FILE", defaultTokenFile()),
		HMRC: HMRCConfig{
			ClientID:     os.Getenv("HMRC_CLIENT_ID"),
			ClientSecret: os.Getenv("HMRC_CLIENT_SECRET"),
			AuthURL:      getenv("HMRC_AUTH_URL", DefaultHMRCAuthURL),
			TokenURL:     getenv("HMRC_TOKEN_URL", DefaultHMRCTokenURL),
			RedirectURL:  getenv("HMRC_REDIRECT_URL", DefaultRedirectURL),
			SubmitURL:    os.Getenv("HMRC_SUBMIT_URL"),
			Scopes:       strings.Fields(getenv("HMRC_SCOPES", "read:self-assessment write:self-assessment")),
			Timeout:      30 * time.Second,
		},
	}

	if raw := os.Getenv("HMRC_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return AppConfig{}, fmt.Errorf("invalid HMRC_TIMEOUT %q: %w", raw, err)
		}
		if d <= 0 {
			return AppConfig{}, fmt.Errorf("HMRC_TIMEOUT must be positive")
		}
		cfg.HMRC.Timeout = d
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".satax-token.json"
	}
	return filepath.Join(dir, "satax", "token.json")
}
