package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/gateward/gateward/internal/model"
)

// Config is the full engine configuration. It is loaded once at startup
// (YAML file, then environment overrides) and treated as an immutable
// snapshot afterwards; reload swaps the whole snapshot.
type Config struct {
	Code     CodeConfig     `yaml:"code" envPrefix:"CODE_"`
	Movement MovementConfig `yaml:"movement" envPrefix:"MOVEMENT_"`
	Attempts AttemptsConfig `yaml:"attempts" envPrefix:"ATTEMPTS_"`
	Timeout  TimeoutConfig  `yaml:"timeout" envPrefix:"TIMEOUT_"`
	Cooldown CooldownConfig `yaml:"cooldown" envPrefix:"COOLDOWN_"`
	Storage  StorageConfig  `yaml:"storage" envPrefix:"STORAGE_"`
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Admin    AdminConfig    `yaml:"admin" envPrefix:"ADMIN_"`
}

// CodeConfig controls the chat stage's challenge code
type CodeConfig struct {
	Length        int    `yaml:"length" env:"LENGTH"`
	Characters    string `yaml:"characters" env:"CHARACTERS"`
	CaseSensitive bool   `yaml:"case-sensitive" env:"CASE_SENSITIVE"`
}

// MovementConfig controls the orientation-hold stages
type MovementConfig struct {
	// Directions is an ordered list of "direction:seconds" tokens, e.g. "up:2"
	Directions []string `yaml:"directions" env:"DIRECTIONS"`
	// Tolerance widens every angular window by this many degrees on each side
	Tolerance float64 `yaml:"tolerance" env:"TOLERANCE"`
	Angles    Angles  `yaml:"angles"`
	// ResponseTimeoutSeconds is how long a session may go without any
	// inbound signal before the supervisor times it out
	ResponseTimeoutSeconds int  `yaml:"response-timeout" env:"RESPONSE_TIMEOUT"`
	KickOnTimeout          bool `yaml:"kick-on-timeout" env:"KICK_ON_TIMEOUT"`
}

// Angles holds the per-direction angular windows. Up and down are pitch
// bounds; left and right are yaw bounds (left is matched against yaw
// normalized to [0,360), right against the raw signed yaw).
type Angles struct {
	Up    Window `yaml:"up"`
	Down  Window `yaml:"down"`
	Left  Window `yaml:"left"`
	Right Window `yaml:"right"`
}

// Window is an inclusive angular range in degrees
type Window struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// AttemptsConfig bounds the chat stage's attempt budget
type AttemptsConfig struct {
	MaxAttempts int `yaml:"max-attempts" env:"MAX_ATTEMPTS"`
}

// TimeoutConfig controls the penalty window applied after failure
type TimeoutConfig struct {
	DurationSeconds int `yaml:"duration" env:"DURATION"`
}

// CooldownConfig controls when a previously verified account skips
// re-challenging
type CooldownConfig struct {
	DurationSeconds int  `yaml:"duration" env:"DURATION"`
	TrackByUser     bool `yaml:"track-by-user" env:"TRACK_BY_USER"`
	TrackByIP       bool `yaml:"track-by-ip" env:"TRACK_BY_IP"`
}

// StorageConfig selects and configures the durable record backend
type StorageConfig struct {
	// Type is "memory" or "redis"
	Type  string      `yaml:"type" env:"TYPE"`
	Redis RedisConfig `yaml:"redis" envPrefix:"REDIS_"`
	// Workers bounds the async write pool of the record store
	Workers int `yaml:"workers" env:"WORKERS"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	URL          string `yaml:"url" env:"URL"`
	PoolSize     int    `yaml:"pool-size" env:"POOL_SIZE"`
	MinIdleConns int    `yaml:"min-idle-conns" env:"MIN_IDLE_CONNS"`
}

// ServerConfig holds the gateway/admin HTTP listener settings
type ServerConfig struct {
	Host string `yaml:"host" env:"HOST"`
	Port int    `yaml:"port" env:"PORT"`
}

// AdminConfig configures the administrative API surface
type AdminConfig struct {
	// TokenHash is the bcrypt hash of the admin bearer token.
	// Empty disables the admin API.
	TokenHash string `yaml:"token-hash" env:"TOKEN_HASH"`
}

// Default returns the built-in configuration, matching the documented
// fallbacks for every value.
func Default() *Config {
	return &Config{
		Code: CodeConfig{
			Length:     3,
			Characters: "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789",
		},
		Movement: MovementConfig{
			Directions: []string{"up:2", "left:2"},
			Tolerance:  15.0,
			Angles: Angles{
				Up:    Window{Min: -90, Max: -30},
				Down:  Window{Min: 30, Max: 90},
				Left:  Window{Min: 45, Max: 135},
				Right: Window{Min: -135, Max: -45},
			},
			ResponseTimeoutSeconds: 20,
			KickOnTimeout:          true,
		},
		Attempts: AttemptsConfig{MaxAttempts: 3},
		Timeout:  TimeoutConfig{DurationSeconds: 600},
		Cooldown: CooldownConfig{
			DurationSeconds: 86400,
			TrackByUser:     true,
			TrackByIP:       true,
		},
		Storage: StorageConfig{
			Type: "memory",
			Redis: RedisConfig{
				URL:          "redis://localhost:6379",
				PoolSize:     10,
				MinIdleConns: 2,
			},
			Workers: 4,
		},
		Server: ServerConfig{Port: 8090},
	}
}

// Load reads the config file at path (if it exists), applies GATEWARD_*
// environment overrides, and normalizes the result. A missing file is not
// an error; malformed values fall back to defaults with a warning.
func Load(path string, logger *slog.Logger) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case os.IsNotExist(err):
		logger.Info("config file not found, using defaults", slog.String("path", path))
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "GATEWARD_"}); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	cfg.Normalize(logger)
	return cfg, nil
}

// Normalize replaces invalid values with the documented defaults.
// It never fails: a bad config degrades, it does not crash.
func (c *Config) Normalize(logger *slog.Logger) {
	def := Default()

	if c.Code.Length <= 0 {
		logger.Warn("invalid code length, using default", slog.Int("length", c.Code.Length))
		c.Code.Length = def.Code.Length
	}
	if c.Code.Characters == "" {
		logger.Warn("empty code alphabet, using default")
		c.Code.Characters = def.Code.Characters
	}
	if c.Attempts.MaxAttempts <= 0 {
		logger.Warn("invalid max-attempts, using default", slog.Int("max_attempts", c.Attempts.MaxAttempts))
		c.Attempts.MaxAttempts = def.Attempts.MaxAttempts
	}
	if c.Movement.ResponseTimeoutSeconds <= 0 {
		c.Movement.ResponseTimeoutSeconds = def.Movement.ResponseTimeoutSeconds
	}
	if c.Movement.Tolerance < 0 {
		c.Movement.Tolerance = def.Movement.Tolerance
	}
	if c.Timeout.DurationSeconds <= 0 {
		c.Timeout.DurationSeconds = def.Timeout.DurationSeconds
	}
	if c.Cooldown.DurationSeconds <= 0 {
		c.Cooldown.DurationSeconds = def.Cooldown.DurationSeconds
	}
	if c.Storage.Workers <= 0 {
		c.Storage.Workers = def.Storage.Workers
	}
	if c.Storage.Type != "memory" && c.Storage.Type != "redis" {
		if c.Storage.Type != "" {
			logger.Warn("unknown storage type, using memory", slog.String("type", c.Storage.Type))
		}
		c.Storage.Type = "memory"
	}
	if c.Server.Port <= 0 {
		c.Server.Port = def.Server.Port
	}

	// Drop malformed direction tokens; an empty result falls back wholesale.
	valid := c.Movement.Directions[:0]
	for _, tok := range c.Movement.Directions {
		if _, err := model.ParseDirectionStep(tok); err != nil {
			logger.Warn("dropping malformed direction token", slog.String("token", tok))
			continue
		}
		valid = append(valid, tok)
	}
	c.Movement.Directions = valid
	if len(c.Movement.Directions) == 0 {
		logger.Warn("no valid movement directions, using defaults")
		c.Movement.Directions = def.Movement.Directions
	}
}

// Steps returns the parsed direction queue. Normalize has already removed
// malformed tokens, so parsing here cannot fail.
func (c *MovementConfig) Steps() []model.DirectionStep {
	steps := make([]model.DirectionStep, 0, len(c.Directions))
	for _, tok := range c.Directions {
		step, err := model.ParseDirectionStep(tok)
		if err != nil {
			continue
		}
		steps = append(steps, step)
	}
	return steps
}

// ResponseTimeout returns the session liveness timeout
func (c *MovementConfig) ResponseTimeout() time.Duration {
	return time.Duration(c.ResponseTimeoutSeconds) * time.Second
}

// Duration returns the penalty window length
func (c *TimeoutConfig) Duration() time.Duration {
	return time.Duration(c.DurationSeconds) * time.Second
}

// Duration returns the cooldown window length
func (c *CooldownConfig) Duration() time.Duration {
	return time.Duration(c.DurationSeconds) * time.Second
}
