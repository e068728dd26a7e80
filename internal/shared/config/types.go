package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	Timezone       string   `mapstructure:"timezone"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// TrustedProxies lists the proxy CIDRs whose X-Forwarded-For is honoured.
	// Empty means none.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	// Driver is "mysql" or "sqlite".
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// GetDSN returns the MySQL DSN, or the database file path for sqlite.
func (d *DatabaseConfig) GetDSN() string {
	if d.Driver == "sqlite" {
		return d.Database
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type JWTConfig struct {
	Secret           string `mapstructure:"secret"`
	Issuer           string `mapstructure:"issuer"`
	AccessExpMinutes int    `mapstructure:"access_exp_minutes"`
	RefreshExpDays   int    `mapstructure:"refresh_exp_days"`
}

type PinConfig struct {
	MaxAttempts    int `mapstructure:"max_attempts"`
	LockoutMinutes int `mapstructure:"lockout_minutes"`
	BcryptCost     int `mapstructure:"bcrypt_cost"`
}

func (p *PinConfig) LockoutDuration() time.Duration {
	return time.Duration(p.LockoutMinutes) * time.Minute
}

type AttemptsConfig struct {
	// Backend is "memory" or "redis".
	Backend string `mapstructure:"backend"`
}

type AuthConfig struct {
	JWT      JWTConfig      `mapstructure:"jwt"`
	Pin      PinConfig      `mapstructure:"pin"`
	Attempts AttemptsConfig `mapstructure:"attempts"`
}

type SessionConfig struct {
	IdleTimeoutHours     int `mapstructure:"idle_timeout_hours"`
	SweepIntervalMinutes int `mapstructure:"sweep_interval_minutes"`
	MaxSessions          int `mapstructure:"max_sessions"`
	MaxSessionsPerUser   int `mapstructure:"max_sessions_per_user"`
	// Backend is "memory" or "redis".
	Backend string `mapstructure:"backend"`
}

func (s *SessionConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutHours) * time.Hour
}

func (s *SessionConfig) SweepInterval() time.Duration {
	return time.Duration(s.SweepIntervalMinutes) * time.Minute
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type RateLimitConfig struct {
	LoginPerMinute int `mapstructure:"login_per_minute"`
}

func (j *JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.AccessExpMinutes) * time.Minute
}

func (j *JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(j.RefreshExpDays) * 24 * time.Hour
}
