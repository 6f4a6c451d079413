// Package checkmk provides the REST API client for a CheckMK site, covering
// configuration, request plumbing and the problem-document error model.
package checkmk

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"sigs.k8s.io/yaml"
)

// Required environment variables.
const (
	EnvServerURL = "CHECKMK_SERVER_URL"
	EnvSite      = "CHECKMK_SITE"
	EnvUsername  = "CHECKMK_USERNAME"
	EnvPassword  = "CHECKMK_PASSWORD"
)

// Config holds the connection settings for a CheckMK site.
type Config struct {
	// ServerURL is the base URL of the CheckMK server, e.g.
	// "https://monitoring.example.com".
	ServerURL string `json:"server_url"`
	// Site is the CheckMK site name ("cmk" in a default container setup).
	Site string `json:"site"`
	// Username is the automation user.
	Username string `json:"username"`
	// Password is the automation secret.
	Password string `json:"password"`
	// TimeoutSeconds bounds a single API request. Zero means 30.
	TimeoutSeconds int `json:"timeout_seconds"`
	// InsecureSkipVerify disables TLS certificate verification for sites
	// with self-signed certificates.
	InsecureSkipVerify bool `json:"insecure_skip_verify"`
}

// FromEnv builds a Config from CHECKMK_* environment variables.
func FromEnv() Config {
	cfg := Config{
		ServerURL: os.Getenv(EnvServerURL),
		Site:      os.Getenv(EnvSite),
		Username:  os.Getenv(EnvUsername),
		Password:  os.Getenv(EnvPassword),
	}
	if v := os.Getenv("CHECKMK_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.TimeoutSeconds = secs
		}
	}
	if v := os.Getenv("CHECKMK_INSECURE_SKIP_VERIFY"); v != "" {
		cfg.InsecureSkipVerify = v == "1" || strings.EqualFold(v, "true")
	}
	return cfg
}

// LoadFile reads a YAML config file and overlays its non-zero fields onto
// cfg. Environment variables provide the base; the file wins where set.
func LoadFile(path string, cfg Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if overlay.ServerURL != "" {
		cfg.ServerURL = overlay.ServerURL
	}
	if overlay.Site != "" {
		cfg.Site = overlay.Site
	}
	if overlay.Username != "" {
		cfg.Username = overlay.Username
	}
	if overlay.Password != "" {
		cfg.Password = overlay.Password
	}
	if overlay.TimeoutSeconds != 0 {
		cfg.TimeoutSeconds = overlay.TimeoutSeconds
	}
	if overlay.InsecureSkipVerify {
		cfg.InsecureSkipVerify = true
	}
	return cfg, nil
}

// Validate reports every missing required setting at once so the operator
// can fix them in one pass.
func (c Config) Validate() error {
	var missing []string
	if c.ServerURL == "" {
		missing = append(missing, EnvServerURL)
	}
	if c.Site == "" {
		missing = append(missing, EnvSite)
	}
	if c.Username == "" {
		missing = append(missing, EnvUsername)
	}
	if c.Password == "" {
		missing = append(missing, EnvPassword)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// BaseURL returns the REST API root, e.g.
// "https://monitoring.example.com/cmk/check_mk/api/1.0".
func (c Config) BaseURL() string {
	return fmt.Sprintf("%s/%s/check_mk/api/1.0", strings.TrimRight(c.ServerURL, "/"), c.Site)
}
