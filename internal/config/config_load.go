package config

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		StorageBasePath: "~/.tenex/conversations",
		Naming: NamingConfig{
			TTLSeconds:       300,
			LookupsPerSecond: 2,
			LookupBurst:      5,
		},
	}
}

// Load reads config from a JSON file, then overlays env vars. A missing file
// is not an error: Load returns Default with env overrides applied, matching
// the on-disk-absence tolerance the rest of this library follows (§7).
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config. Env vars take
// precedence over file values, and secrets are sourced from env only, never
// persisted to disk (matching the teacher's env-only secret convention).
func (c *Config) applyEnvOverrides() {
	c.mu.Lock()
	defer c.mu.Unlock()

	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	envStr("TENEX_STORAGE_BASE_PATH", &c.StorageBasePath)
	envStr("TENEX_RELAY_URL", &c.Relay.URL)
	envStr("TENEX_RELAY_TOKEN", &c.Relay.Token)
	if c.Relay.URL != "" {
		c.Relay.Enabled = true
	}

	envStr("TENEX_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	envStr("TENEX_TELEMETRY_SERVICE_NAME", &c.Telemetry.ServiceName)
	if v := os.Getenv("TENEX_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = v == "true" || v == "1"
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "tenex-conversation-store"
	}

	if v := os.Getenv("TENEX_NAMING_LOOKUPS_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.Naming.LookupsPerSecond = f
		}
	}
}

// Save writes the config to a JSON file atomically, matching
// internal/convo.Store.Save's temp-file-then-rename pattern.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("config: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("config: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("config: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("config: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: close: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("config: rename into place: %w", err)
	}
	cleanup = false
	return nil
}

// Hash returns the first 8 bytes of a SHA-256 hash of the config,
// hex-encoded, for optimistic concurrency when multiple processes might
// reload it.
func (c *Config) Hash() string {
	data, _ := json.Marshal(c)
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:8])
}

// ExpandHome replaces a leading ~ with the user home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if len(path) > 1 && path[1] == '/' {
		return home + path[1:]
	}
	return home
}
