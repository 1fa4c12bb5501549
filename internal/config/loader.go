package config

import (
	"os"
	"regexp"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so secrets can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.App.ID = expandEnvVars(cfg.App.ID)
	cfg.App.Password = expandEnvVars(cfg.App.Password)
}

// envOverrides maps BOTBRIDGE_* environment variables onto config fields.
// Pointers distinguish "unset" from zero values.
type envOverrides struct {
	AppID       *string `env:"BOTBRIDGE_APP_ID"`
	AppPassword *string `env:"BOTBRIDGE_APP_PASSWORD"`
	BotName     *string `env:"BOTBRIDGE_BOT_NAME"`
	Port        *int    `env:"BOTBRIDGE_PORT"`
	Route       *string `env:"BOTBRIDGE_ROUTE"`
	EnableAuth  *bool   `env:"BOTBRIDGE_ENABLE_AUTH"`
	Admins      *string `env:"BOTBRIDGE_INITIAL_ADMINS"`
	Tenants     *string `env:"BOTBRIDGE_TENANT_FILTER"`
	LogLevel    *string `env:"BOTBRIDGE_LOG_LEVEL"`
}

// applyEnvOverrides reads BOTBRIDGE_* environment variables and overrides
// config values.
func applyEnvOverrides(cfg *Config) error {
	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return &ConfigError{Message: "parsing environment overrides: " + err.Error()}
	}

	if ov.AppID != nil {
		cfg.App.ID = *ov.AppID
	}
	if ov.AppPassword != nil {
		cfg.App.Password = *ov.AppPassword
	}
	if ov.BotName != nil {
		cfg.Bot.Name = *ov.BotName
	}
	if ov.Port != nil {
		cfg.Gateway.Port = *ov.Port
	}
	if ov.Route != nil {
		cfg.Gateway.Route = *ov.Route
	}
	if ov.EnableAuth != nil {
		cfg.Auth.Enabled = *ov.EnableAuth
	}
	if ov.Admins != nil {
		cfg.Auth.Admins = *ov.Admins
	}
	if ov.Tenants != nil {
		cfg.Auth.Tenants = *ov.Tenants
	}
	if ov.LogLevel != nil {
		cfg.Logging.Level = *ov.LogLevel
	}
	return nil
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Bot.Name == "" {
		cfg.Bot.Name = "hubot"
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = 3978
	}
	if cfg.Gateway.Bind == "" {
		cfg.Gateway.Bind = "loopback"
	}
	if cfg.Gateway.Route == "" {
		cfg.Gateway.Route = "/api/messages"
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "memory"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Load reads the config file, applies environment overrides, and returns a
// merged Config. A missing file produces defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := applyEnvOverrides(&cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	expandSensitiveFields(&cfg)
	return cfg, nil
}
