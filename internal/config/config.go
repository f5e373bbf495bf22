// Package config provides configuration types for hostgate: the route
// table, server listener, admin control surface, and metrics settings
// loaded from a YAML file and optional environment overrides.
package config

import (
	"github.com/spf13/viper"
)

// Config is the top-level configuration for hostgate.
type Config struct {
	// Server configures the inbound listener.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Routes maps virtual hosts to backends.
	Routes []RouteConfig `yaml:"routes" mapstructure:"routes" validate:"omitempty,dive"`

	// ConditionRoutes are evaluated, in order, before falling back to
	// Routes' exact hostname matching.
	ConditionRoutes []ConditionRouteConfig `yaml:"condition_routes" mapstructure:"condition_routes" validate:"omitempty,dive"`

	// Admin configures the loopback control surface.
	Admin AdminConfig `yaml:"admin" mapstructure:"admin"`

	// Metrics configures the Prometheus exposition endpoint.
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`

	// DevMode enables development defaults: it raises an unset or "info"
	// log level to "debug". It does not relax any other setting or check.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the inbound TCP listener.
type ServerConfig struct {
	// ListenAddr is the address to accept proxied connections on.
	// Defaults to "0.0.0.0:8080" if empty.
	ListenAddr string `yaml:"listen_addr" mapstructure:"listen_addr" validate:"omitempty,hostname_port"`

	// LogLevel sets the minimum log level.
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// DialTimeout bounds how long a backend dial may take, e.g. "10s".
	// Defaults to "10s" if empty.
	DialTimeout string `yaml:"dial_timeout" mapstructure:"dial_timeout" validate:"omitempty"`
}

// RouteConfig maps one virtual host to a backend endpoint.
type RouteConfig struct {
	// Host is the virtual hostname to match against the inbound request's
	// Host header, or "*" for a catch-all fallback.
	Host string `yaml:"host" mapstructure:"host" validate:"required"`

	// Backend describes where matching connections are forwarded.
	Backend BackendConfig `yaml:"backend" mapstructure:"backend" validate:"required"`
}

// ConditionRouteConfig maps a CEL condition to a backend endpoint.
type ConditionRouteConfig struct {
	// Name is a human-readable identifier for this rule.
	Name string `yaml:"name" mapstructure:"name" validate:"required"`

	// Condition is a CEL expression over the "request" variable, e.g.
	// `request.host.endsWith(".internal")`.
	Condition string `yaml:"condition" mapstructure:"condition" validate:"required"`

	// Backend describes where matching connections are forwarded.
	Backend BackendConfig `yaml:"backend" mapstructure:"backend" validate:"required"`
}

// BackendConfig describes one backend endpoint. Exactly one of
// {Address, Path} must be set, enforced by the mutual-exclusion check in
// Validate.
type BackendConfig struct {
	// Kind names the transport: "tcp" or "ipc". Only its value is validated;
	// the transport actually used is IPC when Path is set and TCP when
	// Address is set, whatever Kind says.
	Kind string `yaml:"kind" mapstructure:"kind" validate:"omitempty,oneof=tcp ipc"`

	// Address is a "host:port" TCP endpoint.
	Address string `yaml:"address" mapstructure:"address" validate:"omitempty,hostname_port"`

	// Path is a local socket path (Unix) or named pipe path (Windows).
	// The OS-specific prefix (e.g. \\.\pipe\) is expected to already be
	// part of Path.
	Path string `yaml:"path" mapstructure:"path"`

	// DialTimeout overrides ServerConfig.DialTimeout for this one backend.
	DialTimeout string `yaml:"dial_timeout" mapstructure:"dial_timeout" validate:"omitempty"`
}

// AdminConfig configures the loopback control surface.
type AdminConfig struct {
	// Enabled turns the admin API on. Defaults to true.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// ListenAddr is the address the admin API binds to. Defaults to
	// "127.0.0.1:9090"; binding to a non-loopback address without a
	// TokenHash is rejected by Validate.
	ListenAddr string `yaml:"listen_addr" mapstructure:"listen_addr" validate:"omitempty,hostname_port"`

	// TokenHash is an Argon2id or "sha256:"-prefixed hash the bearer token
	// presented to the admin API must match. Empty disables auth, which is
	// only permitted while ListenAddr is loopback-only.
	TokenHash string `yaml:"token_hash" mapstructure:"token_hash"`
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	// Enabled turns the /metrics endpoint on. Defaults to true.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// ListenAddr is the address the metrics endpoint binds to. Defaults to
	// "127.0.0.1:9091".
	ListenAddr string `yaml:"listen_addr" mapstructure:"listen_addr" validate:"omitempty,hostname_port"`
}

// SetDefaults applies sensible defaults to unset fields.
func (c *Config) SetDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = "0.0.0.0:8080"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.DialTimeout == "" {
		c.Server.DialTimeout = "10s"
	}
	if !viper.IsSet("admin.enabled") {
		c.Admin.Enabled = true
	}
	if c.Admin.ListenAddr == "" {
		c.Admin.ListenAddr = "127.0.0.1:9090"
	}
	if !viper.IsSet("metrics.enabled") {
		c.Metrics.Enabled = true
	}
	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = "127.0.0.1:9091"
	}
}

// SetDevDefaults applies development defaults when DevMode is set: an unset
// or "info" log level becomes "debug". No other field is changed. It is
// applied before validation, same as SetDefaults.
func (c *Config) SetDevDefaults() {
	if !c.DevMode {
		return
	}
	if c.Server.LogLevel == "" || c.Server.LogLevel == "info" {
		c.Server.LogLevel = "debug"
	}
}
