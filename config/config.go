package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorePostgres = "postgres"
	StoreBadger   = "badger"
)

// Config is read from (lowest first) defaults, an optional config file and
// the environment. Environment keys are the upper-case field keys, e.g.
// DB_HOST or SESSION_TTL.
type Config struct {
	Port  string `mapstructure:"port"`
	Store string `mapstructure:"store"`

	DBHost     string `mapstructure:"db_host"`
	DBPort     string `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`
	DBSSLMode  string `mapstructure:"db_sslmode"`

	BadgerPath string `mapstructure:"badger_path"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`

	NATSURL   string `mapstructure:"nats_url"`
	WebOrigin string `mapstructure:"web_origin"`

	SessionTTL         time.Duration `mapstructure:"session_ttl"`
	SessionIssuerToken string        `mapstructure:"session_issuer_token"`
	LockTTL            time.Duration `mapstructure:"lock_ttl"`

	ExtractURL string `mapstructure:"extract_url"`
	LogLevel   string `mapstructure:"log_level"`
}

var defaults = map[string]any{
	"port":                 "3001",
	"store":                StorePostgres,
	"db_host":              "",
	"db_port":              "5432",
	"db_user":              "postgres",
	"db_password":          "",
	"db_name":              "",
	"db_sslmode":           "disable",
	"badger_path":          "./data/badger",
	"redis_addr":           "127.0.0.1:6379",
	"redis_password":       "",
	"nats_url":             "",
	"web_origin":           "http://localhost:5173",
	"session_ttl":          24 * time.Hour,
	"session_issuer_token": "",
	"lock_ttl":             10 * time.Second,
	"extract_url":          "",
	"log_level":            "info",
}

// LoadEnv pulls a local .env into the process environment. A missing file
// is fine; production sets real variables.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		slog.Debug("no .env loaded", "error", err)
	}
}

// Load reads the configuration. path may be empty.
func Load(path string) (Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	switch c.Store {
	case StorePostgres:
		if c.DBHost == "" || c.DBName == "" {
			errs = append(errs, errors.New("postgres store needs DB_HOST and DB_NAME"))
		}
	case StoreBadger:
		if c.BadgerPath == "" {
			errs = append(errs, errors.New("badger store needs BADGER_PATH"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is empty"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.LockTTL <= 0 {
		errs = append(errs, errors.New("LOCK_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// DSN is the postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

// SecureCookies is true when the web client is served over https.
func (c Config) SecureCookies() bool { return strings.HasPrefix(c.WebOrigin, "https://") }

// SlogLevel maps LOG_LEVEL onto slog; unknown names mean info.
func (c Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
