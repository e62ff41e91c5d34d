package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// ProviderConfig manages payment provider credentials. Values come from two
// sources merged in order: the SQLite store, then PROVIDER_* environment
// variables (env wins, so deployments can override stored credentials).
type ProviderConfig struct {
	configs map[string]map[string]string
	storage *SQLiteStorage
	mu      sync.RWMutex
}

// NewProviderConfig creates a provider configuration backed by the given
// storage. storage may be nil for memory-only mode.
func NewProviderConfig(storage *SQLiteStorage) *ProviderConfig {
	return &ProviderConfig{
		configs: make(map[string]map[string]string),
		storage: storage,
	}
}

// LoadFromStorage merges persisted provider configs into memory
func (c *ProviderConfig) LoadFromStorage() error {
	if c.storage == nil {
		return nil
	}

	configs, err := c.storage.LoadAllProviderConfigs()
	if err != nil {
		return fmt.Errorf("failed to load provider configs: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for name, cfg := range configs {
		c.configs[name] = cfg
	}

	return nil
}

// LoadFromEnv scans the environment for PROVIDER_<NAME>_<KEY> variables, e.g.
// PROVIDER_STRIPE_SECRET_KEY becomes the "secretKey" entry of the "stripe"
// config
func (c *ProviderConfig) LoadFromEnv() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, env := range os.Environ() {
		name, value, found := strings.Cut(env, "=")
		if !found || !strings.HasPrefix(name, "PROVIDER_") {
			continue
		}

		rest := strings.TrimPrefix(name, "PROVIDER_")
		providerName, key, found := strings.Cut(rest, "_")
		if !found || providerName == "" || key == "" {
			continue
		}

		providerName = strings.ToLower(providerName)
		if c.configs[providerName] == nil {
			c.configs[providerName] = make(map[string]string)
		}
		c.configs[providerName][camelKey(key)] = value
	}
}

// SetConfig stores credentials for a provider, persisting them when storage
// is available
func (c *ProviderConfig) SetConfig(providerName string, cfg map[string]string) error {
	if providerName == "" {
		return fmt.Errorf("provider name cannot be empty")
	}
	if len(cfg) == 0 {
		return fmt.Errorf("config cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.storage != nil {
		if err := c.storage.SaveProviderConfig(providerName, cfg); err != nil {
			return fmt.Errorf("failed to persist provider config: %w", err)
		}
	}

	c.configs[strings.ToLower(providerName)] = cfg
	return nil
}

// GetConfig returns the credentials for a provider
func (c *ProviderConfig) GetConfig(providerName string) (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cfg, exists := c.configs[strings.ToLower(providerName)]
	if !exists {
		return nil, fmt.Errorf("no configuration found for provider '%s'", providerName)
	}

	out := make(map[string]string, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}

	return out, nil
}

// GetAvailableProviders returns the names of all configured providers
func (c *ProviderConfig) GetAvailableProviders() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.configs))
	for name := range c.configs {
		names = append(names, name)
	}

	return names
}

// WebhookSecrets extracts the per-provider webhook signing secret, whichever
// key the provider uses for it
func (c *ProviderConfig) WebhookSecrets() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	secrets := make(map[string]string)
	for name, cfg := range c.configs {
		for _, key := range []string{"webhookSecret", "hmacKey"} {
			if secret := cfg[key]; secret != "" {
				secrets[name] = secret
				break
			}
		}
	}

	return secrets
}

// camelKey converts SECRET_KEY style env suffixes to the secretKey form the
// provider adapters expect
func camelKey(key string) string {
	parts := strings.Split(strings.ToLower(key), "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] == "" {
			continue
		}
		parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
	}

	return strings.Join(parts, "")
}
