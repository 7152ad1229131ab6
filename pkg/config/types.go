package config

import (
	"fmt"
	"sync"
)

// Config is the main configuration struct.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Security  SecurityConfig  `yaml:"security"`
	Logging   LoggingConfig   `yaml:"logging"`
	Retention RetentionConfig `yaml:"retention"`
}

// ServerConfig holds http and storage settings.
type ServerConfig struct {
	Address string    `yaml:"address"`
	Port    int       `yaml:"port"`
	DBPath  string    `yaml:"db_path"`
	TLS     TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate configuration.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// SecurityConfig holds identity and request-policy settings.
type SecurityConfig struct {
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	// SigningKeys are the HMAC secrets accepted for X-User-Signature
	// verification. At least one must be configured for the server to
	// authenticate participants.
	SigningKeys []string `yaml:"signing_keys"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RetentionConfig controls the durable chat-log janitor. Disabled by
// default; in-session messages are never destroyed regardless.
type RetentionConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
	Period  string `yaml:"period"`
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	host := c.Server.Address
	port := c.Server.Port
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// RuntimeConfig holds runtime key sets for use by other packages.
type RuntimeConfig struct {
	SigningKeys map[string]struct{}
}

var (
	runtimeMu  sync.RWMutex
	runtimeCfg *RuntimeConfig
)

// SetRuntime installs the runtime key sets derived from the loaded config.
func SetRuntime(rc *RuntimeConfig) {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	runtimeCfg = rc
}

// GetSigningKeys returns the configured signing key set, possibly empty.
func GetSigningKeys() map[string]struct{} {
	runtimeMu.RLock()
	defer runtimeMu.RUnlock()
	if runtimeCfg == nil {
		return nil
	}
	return runtimeCfg.SigningKeys
}
