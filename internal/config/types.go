package config

// Config is the root configuration for botbridge.
type Config struct {
	App     AppConfig     `yaml:"app,omitempty"`
	Bot     BotConfig     `yaml:"bot,omitempty"`
	Gateway GatewayConfig `yaml:"gateway,omitempty"`
	Auth    AuthConfig    `yaml:"auth,omitempty"`
	Store   StoreConfig   `yaml:"store,omitempty"`
	Cards   []CardEntry   `yaml:"cards,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// AppConfig holds the Bot Framework application credentials used by the
// connector transport.
type AppConfig struct {
	ID       string `yaml:"id"`
	Password string `yaml:"password,omitempty"`
}

// BotConfig describes the bot's own identity on the bus.
type BotConfig struct {
	// Name is the invocation name prefixed to commands, e.g. "hubot".
	Name string `yaml:"name,omitempty"`
}

// GatewayConfig controls the inbound webhook HTTP server.
type GatewayConfig struct {
	Port           int      `yaml:"port,omitempty"`
	Bind           string   `yaml:"bind,omitempty"`
	Route          string   `yaml:"route,omitempty"` // webhook POST path
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// AuthConfig controls the per-activity authorization gate.
type AuthConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
	// Admins is the comma-separated seed list of authorized external
	// identities, granted admin. Required when Enabled is true.
	Admins string `yaml:"admins,omitempty"`
	// Tenants is the comma-separated tenant allow-list. Empty allows all.
	Tenants string `yaml:"tenants,omitempty"`
}

// StoreConfig selects the user-directory backend.
type StoreConfig struct {
	Backend string `yaml:"backend,omitempty"` // "memory" | "sqlite"
	Path    string `yaml:"path,omitempty"`    // sqlite file path
}

// CardEntry defines one template in the card catalog. Trigger is a regular
// expression matched against the triggering inbound text.
type CardEntry struct {
	Name    string   `yaml:"name"`
	Trigger string   `yaml:"trigger"`
	Title   string   `yaml:"title,omitempty"`
	Body    string   `yaml:"body,omitempty"`
	Buttons []string `yaml:"buttons,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
}
