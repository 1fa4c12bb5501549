// Package config loads, defaults, and validates the botbridge configuration.
package config

import (
	"fmt"
	"strings"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Bot: BotConfig{
			Name: "hubot",
		},
		Gateway: GatewayConfig{
			Port:  3978,
			Bind:  "loopback",
			Route: "/api/messages",
		},
		Store: StoreConfig{
			Backend: "memory",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SplitList splits a comma-separated config value into trimmed, non-empty
// entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
