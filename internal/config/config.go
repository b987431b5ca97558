// Package config loads, substitutes, and validates the XBP-Monitoring
// probe/story configuration, from a local YAML file or, when
// XBP_REMOTE_CONFIG_URL is set, from a remote JSON document.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/dwsmith1983/xbp-monitoring/pkg/types"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigFile = "xbp.yaml"
	legacyConfigFile  = "xbp.yml"

	remoteConfigURLEnv = "XBP_REMOTE_CONFIG_URL"
)

// defaultConfigTemplate is written to disk when the requested default config
// file does not exist yet, so a fresh checkout has something to edit.
const defaultConfigTemplate = `probes: []
stories: []
`

var envTokenPattern = regexp.MustCompile(`\$\{\{\s*env\.([^}\s]+)\s*\}\}`)

// Load resolves the active configuration: a remote document when
// XBP_REMOTE_CONFIG_URL is set to an https:// address, otherwise the local
// file at path. The legacy xbp.yml name is accepted with a deprecation
// warning, and a default xbp.yaml is bootstrapped when the default path is
// requested and missing. The returned config has already been validated.
func Load(path string, logger *slog.Logger) (*types.Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if remoteURL, ok := os.LookupEnv(remoteConfigURLEnv); ok && remoteURL != "" {
		cfg, err := LoadRemote(remoteURL)
		if err != nil {
			return nil, fmt.Errorf("loading remote config from %s: %w", remoteURL, err)
		}
		if err := Validate(cfg); err != nil {
			return nil, fmt.Errorf("validating remote config: %w", err)
		}
		return cfg, nil
	}

	data, err := readConfigFile(path, logger)
	if err != nil {
		return nil, err
	}

	cfg, err := parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// readConfigFile reads the config file at path, warning on the legacy
// xbp.yml name. When the requested default-named path does not exist, it
// reads xbp.yaml from the same directory instead, bootstrapping a default
// xbp.yaml there first if that file is missing too.
func readConfigFile(path string, logger *slog.Logger) ([]byte, error) {
	if filepath.Base(path) == legacyConfigFile {
		logger.Warn("xbp.yml is deprecated, rename to xbp.yaml", "path", path)
	}

	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	base := filepath.Base(path)
	if base != defaultConfigFile && base != legacyConfigFile {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	createPath := filepath.Join(filepath.Dir(path), defaultConfigFile)
	if _, statErr := os.Stat(createPath); os.IsNotExist(statErr) {
		logger.Info("config file not found, creating default", "path", createPath)
		if writeErr := os.WriteFile(createPath, []byte(defaultConfigTemplate), 0o644); writeErr != nil {
			return nil, fmt.Errorf("writing default config: %w", writeErr)
		}
		return []byte(defaultConfigTemplate), nil
	}

	data, err = os.ReadFile(createPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return data, nil
}

func parseYAML(data []byte) (*types.Config, error) {
	substituted := SubstituteEnv(string(data))
	var cfg types.Config
	if err := yaml.Unmarshal([]byte(substituted), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SubstituteEnv replaces every ${{ env.NAME }} token in raw config text with
// the named environment variable's value, or the empty string with a logged
// warning when it is unset. This runs once over the whole document at load
// time and is distinct from the runtime Variable Resolver, which resolves
// per-request tokens (env, generate.uuid, steps.*) inside url, header, and
// body values at run time.
func SubstituteEnv(content string) string {
	return envTokenPattern.ReplaceAllStringFunc(content, func(match string) string {
		name := envTokenPattern.FindStringSubmatch(match)[1]
		val, ok := os.LookupEnv(name)
		if !ok {
			slog.Default().Warn("environment variable not found in config, substituting empty string", "name", name)
			return ""
		}
		return val
	})
}
