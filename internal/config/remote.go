package config

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dwsmith1983/xbp-monitoring/pkg/types"
)

// remoteFetchTimeout bounds how long LoadRemote waits for the config source
// to respond, so a hung endpoint cannot wedge startup or a reload.
const remoteFetchTimeout = 15 * time.Second

var remoteClient = &http.Client{Timeout: remoteFetchTimeout}

// LoadRemote fetches a JSON-encoded Config from an https:// URL, applying
// the same env-substitution pass used for local files before decoding.
func LoadRemote(rawURL string) (*types.Config, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing remote config URL: %w", err)
	}
	if parsed.Scheme != "https" {
		return nil, fmt.Errorf("remote config URL must use https, got %q", parsed.Scheme)
	}

	resp, err := remoteClient.Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading remote config body: %w", err)
	}

	substituted := SubstituteEnv(string(body))

	var cfg types.Config
	if err := json.Unmarshal([]byte(substituted), &cfg); err != nil {
		return nil, fmt.Errorf("decoding remote config: %w", err)
	}
	return &cfg, nil
}
