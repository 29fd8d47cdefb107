package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Security SecurityConfig `mapstructure:"security"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Provider ProviderConfig `mapstructure:"provider"`
	Runner   RunnerConfig   `mapstructure:"runner"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type LoggerConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

type SecurityConfig struct {
	EncryptionKey string `mapstructure:"encryption_key"`
}

type AuthConfig struct {
	AdminAPIKey    string   `mapstructure:"admin_api_key"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ProviderConfig selects the session provider implementation. "mock" is an
// explicit choice for environments without reachable devices, never a silent
// fallback.
type ProviderConfig struct {
	Kind string `mapstructure:"kind"` // "ssh" or "mock"
}

type RunnerConfig struct {
	MaxConcurrentTasks   int           `mapstructure:"max_concurrent_tasks"`
	MaxTargetsPerTask    int           `mapstructure:"max_targets_per_task"`
	QueueCapacity        int           `mapstructure:"queue_capacity"`
	ConnectRetries       int           `mapstructure:"connect_retries"`
	ConnectBackoff       time.Duration `mapstructure:"connect_backoff"`
	ConnectTimeout       time.Duration `mapstructure:"connect_timeout"`
	TaskTimeout          time.Duration `mapstructure:"task_timeout"`
	HistorySize          int           `mapstructure:"history_size"`
	RetentionMaxFinished int           `mapstructure:"retention_max_finished"`
	RetentionMaxAge      time.Duration `mapstructure:"retention_max_age"`
	ArchiveMaxAge        time.Duration `mapstructure:"archive_max_age"`
}

// Normalize fills in zero-valued runner knobs with workable defaults.
func (r *RunnerConfig) Normalize() {
	if r.MaxConcurrentTasks <= 0 {
		r.MaxConcurrentTasks = 4
	}
	if r.MaxTargetsPerTask <= 0 {
		r.MaxTargetsPerTask = 10
	}
	if r.QueueCapacity <= 0 {
		r.QueueCapacity = 256
	}
	if r.ConnectRetries <= 0 {
		r.ConnectRetries = 3
	}
	if r.ConnectBackoff <= 0 {
		r.ConnectBackoff = 2 * time.Second
	}
	if r.ConnectTimeout <= 0 {
		r.ConnectTimeout = 30 * time.Second
	}
	if r.TaskTimeout <= 0 {
		r.TaskTimeout = 30 * time.Minute
	}
	if r.HistorySize <= 0 {
		r.HistorySize = 100
	}
	if r.RetentionMaxFinished <= 0 {
		r.RetentionMaxFinished = 500
	}
	if r.RetentionMaxAge <= 0 {
		r.RetentionMaxAge = 24 * time.Hour
	}
	if r.ArchiveMaxAge <= 0 {
		r.ArchiveMaxAge = 30 * 24 * time.Hour
	}
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetEnvPrefix("NETFLEET")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Runner.Normalize()
	if cfg.Provider.Kind == "" {
		cfg.Provider.Kind = "ssh"
	}

	return &cfg, nil
}
