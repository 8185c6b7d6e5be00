package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAndNormalize(t *testing.T) {
	path := writeConfig(t, `
source:
  kind: Places
search:
  query: "  dentist "
  regions:
    - name: "Budapest"
    - name: "budapest"
    - name: "  "
    - name: "Vienna"
      query: "reiki"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	cfg, v := NormalizeAndValidate(cfg)
	require.True(t, v.OK(), "errors: %v", v.Errors)

	require.Equal(t, "places", cfg.Source.Kind)
	require.Equal(t, "dentist", cfg.Search.Query)
	require.Len(t, cfg.Search.Regions, 2, "case-duplicate and blank regions are dropped")
	require.Equal(t, "Vienna", cfg.Search.Regions[1].Name)
	require.Equal(t, "reiki", cfg.Search.Regions[1].Query)

	// defaults
	require.Equal(t, 100, cfg.Search.MaxResults)
	require.Equal(t, 2, cfg.Search.RegionAttempts)
	require.Equal(t, 2, cfg.Concurrency.Regions)
	require.Equal(t, 3, cfg.Concurrency.Listings)
	require.Equal(t, 2, cfg.Source.Places.TokenDelaySeconds)
	require.Equal(t, []string{"", "/contact", "/contact-us", "/about", "/about-us"}, cfg.Enrich.ProbePaths)
	require.Equal(t, "leads.csv", cfg.Output.CSV, "csv default kicks in when no output is configured")
}

func TestValidateRejectsBadSourceKind(t *testing.T) {
	cfg := Config{}
	cfg.Source.Kind = "carrier-pigeon"
	cfg.Search.Query = "dentist"
	cfg.Search.Regions = []Region{{Name: "Budapest"}}

	_, v := NormalizeAndValidate(cfg)
	require.False(t, v.OK())
	require.Contains(t, v.Errors[0], "source.kind")
}

func TestValidateRequiresRegionsAndQuery(t *testing.T) {
	cfg := Config{}
	cfg.Source.Kind = "places"

	_, v := NormalizeAndValidate(cfg)
	require.False(t, v.OK())
	require.Len(t, v.Errors, 2) // no regions, no query
}

func TestValidateTokenDelayFloor(t *testing.T) {
	cfg := Config{}
	cfg.Source.Kind = "places"
	cfg.Source.Places.TokenDelaySeconds = 1
	cfg.Search.Query = "dentist"
	cfg.Search.Regions = []Region{{Name: "Budapest"}}

	out, v := NormalizeAndValidate(cfg)
	require.True(t, v.OK())
	require.Equal(t, 2, out.Source.Places.TokenDelaySeconds)
}

func TestEnsureUserConfigCopiesDefaultOnce(t *testing.T) {
	dir := t.TempDir()
	defaultPath := filepath.Join(dir, "default.yml")
	require.NoError(t, os.WriteFile(defaultPath, []byte("search:\n  query: dentist\n"), 0o644))

	dataDir := t.TempDir()
	userPath, err := EnsureUserConfig(dataDir, defaultPath)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dataDir, "config.yml"), userPath)

	// user edits survive: a second bootstrap must not overwrite
	require.NoError(t, os.WriteFile(userPath, []byte("search:\n  query: reiki\n"), 0o644))
	again, err := EnsureUserConfig(dataDir, defaultPath)
	require.NoError(t, err)
	b, err := os.ReadFile(again)
	require.NoError(t, err)
	require.Contains(t, string(b), "reiki")
}
