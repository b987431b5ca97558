package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	content := `probes:
  - name: homepage
    url: https://example.com
    http_method: GET
    expectations:
      - field: StatusCode
        op: Equals
        value: "200"
stories:
  - name: checkout
    steps:
      - name: login
        url: https://example.com/login
        http_method: POST
`
	path := filepath.Join(dir, "xbp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, testLogger())
	require.NoError(t, err)
	require.Len(t, cfg.Probes, 1)
	assert.Equal(t, "homepage", cfg.Probes[0].Name)
	require.Len(t, cfg.Stories, 1)
	assert.Equal(t, "checkout", cfg.Stories[0].Name)
	assert.Len(t, cfg.Stories[0].Steps, 1)
}

func TestLoadMissingFileNonDefaultName(t *testing.T) {
	_, err := Load("/nonexistent/custom.yaml", testLogger())
	assert.Error(t, err)
}

func TestLoadBootstrapsDefaultTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xbp.yaml")

	cfg, err := Load(path, testLogger())
	require.NoError(t, err)
	assert.Empty(t, cfg.Probes)
	assert.Empty(t, cfg.Stories)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "default config file should have been created on disk")
}

func TestLoadLegacyYmlFallsBackToYaml(t *testing.T) {
	dir := t.TempDir()
	content := "probes:\n  - name: p1\n    url: https://example.com\n    http_method: GET\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xbp.yaml"), []byte(content), 0o644))

	cfg, err := Load(filepath.Join(dir, "xbp.yml"), testLogger())
	require.NoError(t, err)
	require.Len(t, cfg.Probes, 1)
	assert.Equal(t, "p1", cfg.Probes[0].Name)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xbp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("probes: [this is not valid"), 0o644))

	_, err := Load(path, testLogger())
	assert.Error(t, err)
}

func TestSubstituteEnv(t *testing.T) {
	t.Setenv("XBP_TEST_TOKEN", "secret-value")
	out := SubstituteEnv(`token: ${{ env.XBP_TEST_TOKEN }}`)
	assert.Equal(t, "token: secret-value", out)
}

func TestSubstituteEnvMissingVarBecomesEmpty(t *testing.T) {
	os.Unsetenv("XBP_DOES_NOT_EXIST")
	out := SubstituteEnv(`token: ${{ env.XBP_DOES_NOT_EXIST }}`)
	assert.Equal(t, "token: ", out)
}

func TestValidateDuplicateProbeName(t *testing.T) {
	dir := t.TempDir()
	content := `probes:
  - name: dup
    url: https://example.com
    http_method: GET
  - name: dup
    url: https://example.com
    http_method: GET
`
	path := filepath.Join(dir, "xbp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path, testLogger())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate probe name")
}

func TestValidateMissingURL(t *testing.T) {
	dir := t.TempDir()
	content := `probes:
  - name: broken
    http_method: GET
`
	path := filepath.Join(dir, "xbp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path, testLogger())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "url is required")
}
