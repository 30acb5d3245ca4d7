// Package config is the ambient configuration layer: a hand-rolled Config
// struct unmarshaled from JSON with environment-variable overrides, in the
// same style the conversation-store library's teacher uses for its own
// gateway config (internal/config/config.go upstream).
package config

import (
	"encoding/json"
	"fmt"
	"sync"
)

// AgentIdentity names one known agent pubkey for display and routing
// (§6 naming capability).
type AgentIdentity struct {
	DisplayName string `json:"displayName"`
	Emoji       string `json:"emoji,omitempty"`
}

// RelayConfig configures the optional websocket relay listener
// (internal/relay).
type RelayConfig struct {
	URL     string `json:"url,omitempty"`
	Token   string `json:"-"` // from env only, never persisted
	Enabled bool   `json:"enabled,omitempty"`
}

// TelemetryConfig configures OpenTelemetry trace export (internal/obs).
type TelemetryConfig struct {
	Enabled     bool   `json:"enabled,omitempty"`
	Endpoint    string `json:"endpoint,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
}

// NamingConfig configures the naming cache fallthrough rate limit
// (internal/naming.Cache).
type NamingConfig struct {
	TTLSeconds       int     `json:"ttl_seconds,omitempty"`
	LookupsPerSecond float64 `json:"lookups_per_second,omitempty"`
	LookupBurst      int     `json:"lookup_burst,omitempty"`
}

// Config is the root configuration for the conversation store process.
type Config struct {
	StorageBasePath string                   `json:"storage_base_path"`
	Agents          map[string]AgentIdentity `json:"agents,omitempty"`
	Relay           RelayConfig              `json:"relay,omitempty"`
	Telemetry       TelemetryConfig          `json:"telemetry,omitempty"`
	Naming          NamingConfig             `json:"naming,omitempty"`

	mu sync.RWMutex
}

// AgentPubkeys returns the configured agent pubkeys in unspecified order,
// suitable for seeding internal/identity.NewSet.
func (c *Config) AgentPubkeys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.Agents))
	for pk := range c.Agents {
		out = append(out, pk)
	}
	return out
}

// AgentNames returns a pubkey -> display name map suitable for seeding
// internal/naming.NewStatic.
func (c *Config) AgentNames() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.Agents))
	for pk, id := range c.Agents {
		out[pk] = id.DisplayName
	}
	return out
}

// ReplaceFrom copies all data fields from src into c, preserving c's mutex.
func (c *Config) ReplaceFrom(src *Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.StorageBasePath = src.StorageBasePath
	c.Agents = src.Agents
	c.Relay = src.Relay
	c.Telemetry = src.Telemetry
	c.Naming = src.Naming
}

// MarshalJSON takes the read lock so concurrent Save/Hash calls observe a
// consistent snapshot.
func (c *Config) MarshalJSON() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	type alias Config
	return json.Marshal((*alias)(c))
}

func (c *Config) String() string {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Sprintf("config.Config{<marshal error: %v>}", err)
	}
	return string(data)
}
