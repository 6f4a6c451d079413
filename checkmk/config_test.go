package checkmk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvServerURL, "https://mon.example.com")
	t.Setenv(EnvSite, "prod")
	t.Setenv(EnvUsername, "automation")
	t.Setenv(EnvPassword, "secret")
	t.Setenv("CHECKMK_TIMEOUT", "60")
	t.Setenv("CHECKMK_INSECURE_SKIP_VERIFY", "true")

	cfg := FromEnv()
	require.Equal(t, "https://mon.example.com", cfg.ServerURL)
	require.Equal(t, "prod", cfg.Site)
	require.Equal(t, 60, cfg.TimeoutSeconds)
	require.True(t, cfg.InsecureSkipVerify)
	require.NoError(t, cfg.Validate())
}

func TestValidate_ListsAllMissingSettings(t *testing.T) {
	err := Config{}.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), EnvServerURL)
	require.Contains(t, err.Error(), EnvSite)
	require.Contains(t, err.Error(), EnvUsername)
	require.Contains(t, err.Error(), EnvPassword)
}

func TestBaseURL_TrimsTrailingSlash(t *testing.T) {
	cfg := Config{ServerURL: "https://mon.example.com/", Site: "cmk"}
	require.Equal(t, "https://mon.example.com/cmk/check_mk/api/1.0", cfg.BaseURL())
}

func TestLoadFile_OverlaysEnvConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vibemk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("site: lab\ntimeout_seconds: 15\n"), 0o600))

	base := Config{ServerURL: "https://mon.example.com", Site: "prod", Username: "automation", Password: "secret"}
	cfg, err := LoadFile(path, base)
	require.NoError(t, err)
	require.Equal(t, "lab", cfg.Site)
	require.Equal(t, 15, cfg.TimeoutSeconds)
	// Fields absent from the file keep their environment values.
	require.Equal(t, "https://mon.example.com", cfg.ServerURL)
	require.Equal(t, "automation", cfg.Username)
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"), Config{})
	require.Error(t, err)
}
