package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/heya-pos/heya/internal/shared/config"
	"github.com/heya-pos/heya/internal/shared/constants"
)

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server"`
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Auth      sharedConfig.AuthConfig      `mapstructure:"auth"`
	Session   sharedConfig.SessionConfig   `mapstructure:"session"`
	Redis     sharedConfig.RedisConfig     `mapstructure:"redis"`
	RateLimit sharedConfig.RateLimitConfig `mapstructure:"ratelimit"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load reads configuration from configPath, or when empty from
// configs/config.yaml searched from the working directory and two levels up.
// HEYA_ environment variables override file values, e.g.
// HEYA_AUTH_JWT_SECRET for auth.jwt.secret. A missing default file is not an
// error.
func Load(env, configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	return load(v, env)
}

func load(v *viper.Viper, env string) (*Config, error) {
	v.SetEnvPrefix("HEYA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Allow env parameter to override server mode if provided
	mode := v.GetString("server.mode")
	if env != "" && env != "default" {
		mode = env
	}
	v.Set("server.mode", ModeForEnv(mode))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	for name, backend := range map[string]string{
		"session.backend":       c.Session.Backend,
		"auth.attempts.backend": c.Auth.Attempts.Backend,
	} {
		if backend != constants.BackendMemory && backend != constants.BackendRedis {
			return fmt.Errorf("unsupported %s %q", name, backend)
		}
	}

	if c.Auth.Pin.MaxAttempts < 1 {
		return fmt.Errorf("auth.pin.max_attempts must be at least 1")
	}
	if c.Auth.Pin.LockoutMinutes < 1 {
		return fmt.Errorf("auth.pin.lockout_minutes must be at least 1")
	}

	if c.Auth.JWT.Secret == "" {
		return fmt.Errorf("auth.jwt.secret must not be empty")
	}
	if c.Auth.JWT.Secret == defaultJWTSecret && c.Server.Mode != ModeDebug && c.Server.Mode != ModeTest {
		return fmt.Errorf("auth.jwt.secret must be changed from the default in %s mode", c.Server.Mode)
	}
	return nil
}

const defaultJWTSecret = "change-me-in-production"

// Server modes, matching gin's mode names.
const (
	ModeDebug   = "debug"
	ModeRelease = "release"
	ModeTest    = "test"
)

// ModeForEnv maps an environment name to a server mode. Names it does not
// know are treated as release so unfamiliar deployments get the strict
// checks.
func ModeForEnv(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", constants.EnvDevelopment, "dev", ModeDebug:
		return ModeDebug
	case constants.EnvTest, "testing":
		return ModeTest
	default:
		return ModeRelease
	}
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", ModeDebug)
	v.SetDefault("server.timezone", "Australia/Sydney")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.trusted_proxies", []string{})

	// Database defaults
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "heya_dev")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	// Auth defaults
	v.SetDefault("auth.jwt.secret", defaultJWTSecret)
	v.SetDefault("auth.jwt.issuer", "heya")
	v.SetDefault("auth.jwt.access_exp_minutes", 1440)
	v.SetDefault("auth.jwt.refresh_exp_days", 7)
	v.SetDefault("auth.pin.max_attempts", 3)
	v.SetDefault("auth.pin.lockout_minutes", 15)
	v.SetDefault("auth.pin.bcrypt_cost", 10)
	v.SetDefault("auth.attempts.backend", constants.BackendMemory)

	// Session defaults
	v.SetDefault("session.idle_timeout_hours", 24)
	v.SetDefault("session.sweep_interval_minutes", 5)
	v.SetDefault("session.max_sessions", 10000)
	v.SetDefault("session.max_sessions_per_user", 10)
	v.SetDefault("session.backend", constants.BackendMemory)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Rate limit defaults
	v.SetDefault("ratelimit.login_per_minute", 20)
}
