package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Task     TaskConfig     `mapstructure:"task"     validate:"required"`
	Backend  BackendConfig  `mapstructure:"backend"  validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// ServerConfig contains all HTTP-server-related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// TaskConfig tunes the asynchronous task subsystem.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize   int `mapstructure:"queue_size"   validate:"required,gt=0"`

	// DefaultTimeoutMinutes bounds a durable task record's expiry when the
	// submission does not carry its own timeout.
	DefaultTimeoutMinutes int `mapstructure:"default_timeout_minutes" validate:"required,gt=0"`

	// SpoolDir is where restore jobs write their archives before delivery.
	SpoolDir string `mapstructure:"spool_dir" validate:"required"`
}

// BackendConfig describes how to reach the backup engine.
type BackendConfig struct {
	// Addr is the engine's status port in single-node mode.
	Addr string `mapstructure:"addr" validate:"required"`

	// Nodes maps node identifiers to agent addresses in multi-node mode.
	// Empty in single-node deployments.
	Nodes map[string]string `mapstructure:"nodes"`

	// TimeoutSeconds bounds every engine status query.
	TimeoutSeconds int `mapstructure:"timeout_seconds" validate:"required,gt=0"`
}

// CacheConfig tunes the aggregate report cache.
type CacheConfig struct {
	Size       int `mapstructure:"size"`
	TTLSeconds int `mapstructure:"ttl_seconds"`

	// RefreshSeconds is the periodic refresher interval. Zero disables the
	// refresher.
	RefreshSeconds int `mapstructure:"refresh_seconds"`
}
