package docker

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/celestiaorg/nodenv/framework/backoff"
	"github.com/celestiaorg/nodenv/framework/docker/node"
)

// DefaultPrefix names containers when neither the caller nor a config file picks a prefix.
const DefaultPrefix = "nodenv"

// Config is the file form of the environment settings.
//
//	prefix = "integration"
//	docker_host = "unix:///var/run/docker.sock"
//	settle_delay = "15s"
//
//	[readiness]
//	initial = "200ms"
//	growth = "exponential"
//	multiplier = 2
//	max_delay = "2s"
//	max_attempts = 20
type Config struct {
	Prefix string `toml:"prefix"`
	// DockerHost overrides DOCKER_HOST.
	DockerHost string `toml:"docker_host"`
	// APIVersion pins the engine API version instead of negotiating it.
	APIVersion         string         `toml:"api_version"`
	SettleDelay        time.Duration  `toml:"settle_delay"`
	HealthPollInterval time.Duration  `toml:"health_poll_interval"`
	Readiness          backoff.Policy `toml:"readiness"`
	Connector          backoff.Policy `toml:"connector"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Prefix:             DefaultPrefix,
		SettleDelay:        node.DefaultSettleDelay,
		HealthPollInterval: node.DefaultHealthPollInterval,
		Readiness:          backoff.ReadinessPolicy(),
		Connector:          backoff.ConnectorPolicy(),
	}
}

// Validate checks the config for common errors.
func (c Config) Validate() error {
	if c.Prefix == "" {
		return fmt.Errorf("prefix must not be empty")
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle_delay must not be negative")
	}
	if c.HealthPollInterval <= 0 {
		return fmt.Errorf("health_poll_interval must be positive")
	}
	if err := c.Readiness.Validate(); err != nil {
		return fmt.Errorf("readiness: %w", err)
	}
	if err := c.Connector.Validate(); err != nil {
		return fmt.Errorf("connector: %w", err)
	}
	return nil
}

// LoadConfig reads a TOML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return finishConfig(cfg, md)
}

// ParseConfig is LoadConfig for an in-memory document.
func ParseConfig(data string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return finishConfig(cfg, md)
}

func finishConfig(cfg Config, md toml.MetaData) (Config, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
