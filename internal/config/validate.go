package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

// Validate checks the config for misconfigurations that must abort startup.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Bot.Name == "" {
		issues = append(issues, ValidationIssue{
			Path:    "bot.name",
			Message: "bot name is required",
		})
	}

	if cfg.Gateway.Port < 1 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 1-65535, got %d", cfg.Gateway.Port),
		})
	}

	if !strings.HasPrefix(cfg.Gateway.Route, "/") {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.route",
			Message: fmt.Sprintf("route must start with /, got %q", cfg.Gateway.Route),
		})
	}

	// Enabled authorization with no seed list is a startup-fatal
	// misconfiguration, not a runtime error.
	if cfg.Auth.Enabled && len(SplitList(cfg.Auth.Admins)) == 0 {
		issues = append(issues, ValidationIssue{
			Path:    "auth.admins",
			Message: "authorization is enabled but no seed admin list is configured",
		})
	}

	validBackends := []string{"memory", "sqlite"}
	if !slices.Contains(validBackends, cfg.Store.Backend) {
		issues = append(issues, ValidationIssue{
			Path:    "store.backend",
			Message: fmt.Sprintf("must be one of %v, got %q", validBackends, cfg.Store.Backend),
		})
	}
	if cfg.Store.Backend == "sqlite" && cfg.Store.Path == "" {
		issues = append(issues, ValidationIssue{
			Path:    "store.path",
			Message: "required when store.backend is sqlite",
		})
	}

	for i, card := range cfg.Cards {
		if card.Name == "" {
			issues = append(issues, ValidationIssue{
				Path:    fmt.Sprintf("cards[%d].name", i),
				Message: "name is required",
			})
		}
		if card.Trigger == "" {
			issues = append(issues, ValidationIssue{
				Path:    fmt.Sprintf("cards[%d].trigger", i),
				Message: "trigger is required",
			})
		} else if _, err := regexp.Compile(card.Trigger); err != nil {
			issues = append(issues, ValidationIssue{
				Path:    fmt.Sprintf("cards[%d].trigger", i),
				Message: "invalid trigger pattern: " + err.Error(),
			})
		}
	}

	return issues
}
