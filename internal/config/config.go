// Package config загружает настройки сервера и клиента через viper:
// значения по умолчанию, необязательный YAML файл, переменные окружения NOTESYNC_*
// и флаги cobra.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix префикс переменных окружения
const EnvPrefix = "NOTESYNC"

// ErrMissingSecret сервер не стартует без секрета JWT
var ErrMissingSecret = errors.New("jwt secret is required")

// LogConfig настройки логирования
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text | json
	File   string `mapstructure:"file"`   // пусто = stderr
	// ротация lumberjack
	MaxSizeMB  int `mapstructure:"max_size_mb"`
	MaxBackups int `mapstructure:"max_backups"`
	MaxAgeDays int `mapstructure:"max_age_days"`
}

// RateLimitConfig лимиты запросов на IP
type RateLimitConfig struct {
	Window  time.Duration `mapstructure:"window"`
	Auth    int           `mapstructure:"auth"`
	Default int           `mapstructure:"default"`
}

// JWTConfig настройки токенов
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

// Server настройки notesync-server
type Server struct {
	Log            LogConfig       `mapstructure:"log"`
	JWT            JWTConfig       `mapstructure:"jwt"`
	Addr           string          `mapstructure:"addr"`
	DatabasePath   string          `mapstructure:"database"`
	NatsURL        string          `mapstructure:"nats_url"`
	OriginPatterns []string        `mapstructure:"origin_patterns"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
	ReadTimeout    time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration   `mapstructure:"write_timeout"`
	TokenSweep     time.Duration   `mapstructure:"token_sweep"`
}

// Validate проверяет обязательные поля
func (c *Server) Validate() error {
	if c.JWT.Secret == "" {
		return ErrMissingSecret
	}
	if c.DatabasePath == "" {
		return errors.New("database path is required")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	return nil
}

// Client настройки клиента
type Client struct {
	Log       LogConfig     `mapstructure:"log"`
	ServerURL string        `mapstructure:"server"`
	DBPath    string        `mapstructure:"db"`
	BatchSize int           `mapstructure:"batch_size"`
	Debounce  time.Duration `mapstructure:"debounce"`
	// backoff переподключения live канала
	ReconnectMin time.Duration `mapstructure:"reconnect_min"`
	ReconnectMax time.Duration `mapstructure:"reconnect_max"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Validate проверяет обязательные поля
func (c *Client) Validate() error {
	if c.ServerURL == "" {
		return errors.New("server url is required")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive, got %s", c.Debounce)
	}
	return nil
}

// New создает viper с env префиксом NOTESYNC_ (log.level -> NOTESYNC_LOG_LEVEL)
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setLogDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}

// SetServerDefaults выставляет значения по умолчанию для сервера
func SetServerDefaults(v *viper.Viper) {
	setLogDefaults(v)
	v.SetDefault("addr", ":8080")
	v.SetDefault("database", "notesync.db")
	v.SetDefault("nats_url", "")
	v.SetDefault("origin_patterns", []string{})
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.access_ttl", 15*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 30*24*time.Hour)
	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("rate_limit.auth", 10)
	v.SetDefault("rate_limit.default", 600)
	v.SetDefault("read_timeout", 30*time.Second)
	v.SetDefault("write_timeout", 30*time.Second)
	v.SetDefault("token_sweep", time.Hour)
}

// SetClientDefaults выставляет значения по умолчанию для клиента
func SetClientDefaults(v *viper.Viper) {
	setLogDefaults(v)
	v.SetDefault("log.level", "warn")
	v.SetDefault("server", "http://localhost:8080")
	v.SetDefault("db", "notesync-client.db")
	v.SetDefault("batch_size", 20)
	v.SetDefault("debounce", time.Second)
	v.SetDefault("reconnect_min", time.Second)
	v.SetDefault("reconnect_max", 30*time.Second)
	v.SetDefault("timeout", 30*time.Second)
}

// Read читает YAML файл (если задан) и привязывает флаги
func Read(v *viper.Viper, file string, flags *pflag.FlagSet) error {
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("failed to bind flags: %w", err)
		}
	}
	if file == "" {
		return nil
	}
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", file, err)
	}
	return nil
}

// LoadServer собирает и проверяет конфигурацию сервера
func LoadServer(v *viper.Viper) (*Server, error) {
	var cfg Server
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode server config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadClient собирает и проверяет конфигурацию клиента
func LoadClient(v *viper.Viper) (*Client, error) {
	var cfg Client
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode client config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
