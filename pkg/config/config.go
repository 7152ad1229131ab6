package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML config at path (if non-empty) and applies environment
// overrides on top. Precedence is flags > env > file; flag handling lives in
// the caller, this function covers the lower two layers. A missing path
// yields a default config shaped only by the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overlays VAGENTD_* environment variables onto cfg.
func applyEnv(cfg *Config) {
	if v := os.Getenv("VAGENTD_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		if ok {
			cfg.Server.Address = host
			if p, err := strconv.Atoi(port); err == nil {
				cfg.Server.Port = p
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("VAGENTD_DB_PATH"); v != "" {
		cfg.Server.DBPath = v
	}
	if v := os.Getenv("VAGENTD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VAGENTD_SIGNING_KEYS"); v != "" {
		for _, k := range strings.Split(v, ",") {
			if k = strings.TrimSpace(k); k != "" {
				cfg.Security.SigningKeys = append(cfg.Security.SigningKeys, k)
			}
		}
	}
	if v := os.Getenv("VAGENTD_RETENTION_CRON"); v != "" {
		cfg.Retention.Enabled = true
		cfg.Retention.Cron = v
	}
	if v := os.Getenv("VAGENTD_RETENTION_PERIOD"); v != "" {
		cfg.Retention.Period = v
	}
}

// ResolveConfigPath picks the config file path: an explicit flag wins,
// otherwise VAGENTD_CONFIG, otherwise empty (defaults + env only).
func ResolveConfigPath(flagVal string, flagSet bool) string {
	if flagSet {
		return flagVal
	}
	if v := os.Getenv("VAGENTD_CONFIG"); v != "" {
		return v
	}
	return ""
}
