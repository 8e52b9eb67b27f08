package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
)

const (
	EnvAPIBaseURL     = "EDITFORM_API_BASE_URL"
	EnvStorageURL     = "EDITFORM_STORAGE_URL"
	EnvLogLevel       = "EDITFORM_LOG_LEVEL"
	EnvLogFormat      = "EDITFORM_LOG_FORMAT"
	EnvRequestTimeout = "EDITFORM_REQUEST_TIMEOUT"
	EnvIdleTimeout    = "EDITFORM_IDLE_TIMEOUT"
	EnvSchemaDir      = "EDITFORM_SCHEMA_DIR"
	EnvLogFocus       = "EDITFORM_LOG_FOCUS"
	EnvLogSource      = "EDITFORM_LOG_SOURCE"
)

const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultIdleTimeout    = 15 * time.Minute
)

// Config holds the runtime settings of the admin tools.
type Config struct {
	APIBaseURL     string
	StorageURL     string
	LogLevel       string
	LogFormat      string
	LogFocus       []string
	LogSource      bool
	RequestTimeout time.Duration
	IdleTimeout    time.Duration
	SchemaDir      string
}

// Load reads the optional dotenv files (".env" when none are given) and then
// the environment. Explicit environment variables win over dotenv values.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load dotenv: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function and validates it.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		APIBaseURL: strings.TrimRight(get(EnvAPIBaseURL, ""), "/"),
		StorageURL: strings.TrimRight(get(EnvStorageURL, ""), "/"),
		LogLevel:   strings.ToLower(get(EnvLogLevel, "info")),
		LogFormat:  strings.ToLower(get(EnvLogFormat, "console")),
		SchemaDir:  get(EnvSchemaDir, ""),
	}
	for _, module := range strings.Split(get(EnvLogFocus, ""), ",") {
		if module = strings.TrimSpace(module); module != "" {
			cfg.LogFocus = append(cfg.LogFocus, module)
		}
	}
	if cfg.StorageURL == "" {
		cfg.StorageURL = cfg.APIBaseURL
	}

	var err error
	if cfg.RequestTimeout, err = duration(get(EnvRequestTimeout, ""), DefaultRequestTimeout); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", EnvRequestTimeout, err)
	}
	if raw := get(EnvLogSource, ""); raw != "" {
		if cfg.LogSource, err = strconv.ParseBool(raw); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", EnvLogSource, err)
		}
	}
	if cfg.IdleTimeout, err = duration(get(EnvIdleTimeout, ""), DefaultIdleTimeout); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", EnvIdleTimeout, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.APIBaseURL, validation.Required, is.URL),
		validation.Field(&c.StorageURL, is.URL),
		validation.Field(&c.LogLevel, validation.In("trace", "debug", "info", "warn", "error", "fatal")),
		validation.Field(&c.LogFormat, validation.In("console", "json", "pretty")),
		validation.Field(&c.RequestTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.IdleTimeout, validation.Min(time.Duration(0))),
	)
}

func duration(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	return time.ParseDuration(raw)
}
