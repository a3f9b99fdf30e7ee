// Package server implements assetd, the small HTTP service that serves
// static asset files and a versioned JSON API around the released project.
//
// The service is deliberately thin: it has no interaction with the release
// pipeline at runtime. It only reads the finalized version and its own
// settings at startup.
package server

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
)

// Environment names accepted in settings. The placeholder-secret check is
// relaxed only in the local environment.
const (
	EnvLocal      = "local"
	EnvStaging    = "staging"
	EnvProduction = "production"
)

// placeholderSecret is the well-known default that must never reach a
// deployed environment.
const placeholderSecret = "changethis"

// Settings is the explicit configuration of the assetd service, validated
// once at startup. Defaults suit local development; deployments override
// via settings.jsonc and environment variables.
type Settings struct {
	// ProjectName is the human-readable service name reported by the API.
	ProjectName string `json:"projectName"`

	// Environment is one of local, staging, production.
	Environment string `json:"environment"`

	// Addr is the listen address, e.g. ":8000".
	Addr string `json:"addr"`

	// APIPrefix is the path prefix of the JSON API, e.g. "/api/v1".
	APIPrefix string `json:"apiPrefix"`

	// AssetsDir is the root directory asset requests are served from.
	// Requests can never escape it.
	AssetsDir string `json:"assetsDir"`

	// ProjectManifest is the TOML manifest the service reads the released
	// version from at startup.
	ProjectManifest string `json:"projectManifest"`

	// SecretKey signs session material. The placeholder default is
	// rejected outside the local environment.
	SecretKey string `json:"secretKey"`

	// CORSOrigins lists allowed cross-origin hosts.
	CORSOrigins []string `json:"corsOrigins"`

	// FrontendHost is always allowed for CORS in addition to CORSOrigins.
	FrontendHost string `json:"frontendHost"`
}

// DefaultSettings returns the local-development configuration.
func DefaultSettings() Settings {
	return Settings{
		ProjectName:     "assetd",
		Environment:     EnvLocal,
		Addr:            ":8000",
		APIPrefix:       "/api/v1",
		AssetsDir:       "assets",
		ProjectManifest: "pyproject.toml",
		SecretKey:       placeholderSecret,
		FrontendHost:    "http://localhost:5173",
	}
}

// LoadSettings builds the service settings: defaults, overridden by the
// JSONC settings file (if it exists), overridden by environment variables.
// The result is validated before it is returned; a service never starts on
// a configuration that would only fail later.
//
// The settings file may carry comments and trailing commas; it is parsed
// as JSONC.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return Settings{}, fmt.Errorf("failed to read settings %s: %w", path, err)
	}
	if err == nil {
		if err := json.Unmarshal(jsonc.ToJSON(data), &s); err != nil {
			return Settings{}, fmt.Errorf("failed to parse settings %s: %w", path, err)
		}
	}

	s.applyEnv()

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// applyEnv overlays the ASSETD_* environment variables. Only values that
// plausibly differ per deployment are exposed this way; structural settings
// stay in the file.
func (s *Settings) applyEnv() {
	if v := os.Getenv("ASSETD_ENVIRONMENT"); v != "" {
		s.Environment = v
	}
	if v := os.Getenv("ASSETD_ADDR"); v != "" {
		s.Addr = v
	}
	if v := os.Getenv("ASSETD_SECRET_KEY"); v != "" {
		s.SecretKey = v
	}
	if v := os.Getenv("ASSETD_ASSETS_DIR"); v != "" {
		s.AssetsDir = v
	}
}

// Validate checks the settings once, at startup. This is the single place
// that rejects placeholder secrets outside the local environment.
func (s Settings) Validate() error {
	switch s.Environment {
	case EnvLocal, EnvStaging, EnvProduction:
	default:
		return fmt.Errorf("invalid environment %q (valid: %s, %s, %s)",
			s.Environment, EnvLocal, EnvStaging, EnvProduction)
	}

	if s.AssetsDir == "" {
		return fmt.Errorf("assetsDir must not be empty")
	}
	if s.APIPrefix == "" || !strings.HasPrefix(s.APIPrefix, "/") {
		return fmt.Errorf("apiPrefix must start with %q", "/")
	}

	if s.Environment != EnvLocal && s.SecretKey == placeholderSecret {
		return fmt.Errorf("secretKey is %q; set a real secret for the %s environment",
			placeholderSecret, s.Environment)
	}

	return nil
}

// AllCORSOrigins returns the configured origins plus the frontend host,
// with trailing slashes trimmed.
func (s Settings) AllCORSOrigins() []string {
	origins := make([]string, 0, len(s.CORSOrigins)+1)
	for _, o := range s.CORSOrigins {
		origins = append(origins, strings.TrimRight(o, "/"))
	}
	if s.FrontendHost != "" {
		origins = append(origins, strings.TrimRight(s.FrontendHost, "/"))
	}
	return origins
}
