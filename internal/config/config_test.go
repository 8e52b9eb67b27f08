package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func lookup(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(lookup(map[string]string{
		EnvAPIBaseURL: "https://api.example.com/api/",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	want := Config{
		APIBaseURL:     "https://api.example.com/api",
		StorageURL:     "https://api.example.com/api",
		LogLevel:       "info",
		LogFormat:      "console",
		RequestTimeout: DefaultRequestTimeout,
		IdleTimeout:    15 * time.Minute,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestFromEnvLogFocusAndSource(t *testing.T) {
	cfg, err := FromEnv(lookup(map[string]string{
		EnvAPIBaseURL:  "https://api.example.com",
		EnvLogFocus:    " client, ,editor ",
		EnvLogSource:   "true",
		EnvLogLevel:    "DEBUG",
		EnvLogFormat:   "json",
		EnvIdleTimeout: "90s",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if diff := cmp.Diff([]string{"client", "editor"}, cfg.LogFocus); diff != "" {
		t.Fatalf("focus mismatch (-want +got):\n%s", diff)
	}
	if !cfg.LogSource || cfg.LogLevel != "debug" || cfg.IdleTimeout != 90*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if _, err := FromEnv(lookup(map[string]string{EnvAPIBaseURL: "https://api.example.com", EnvLogSource: "maybe"})); err == nil {
		t.Fatalf("expected error for bad %s", EnvLogSource)
	}
}

func TestFromEnvRejectsInvalidSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"missing base url": {},
		"bad base url":     {EnvAPIBaseURL: "not a url"},
		"bad format":       {EnvAPIBaseURL: "https://api.example.com", EnvLogFormat: "xml"},
		"bad duration":     {EnvAPIBaseURL: "https://api.example.com", EnvIdleTimeout: "soon"},
		"negative timeout": {EnvAPIBaseURL: "https://api.example.com", EnvRequestTimeout: "-1s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := FromEnv(lookup(env)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadReadsDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "EDITFORM_API_BASE_URL=https://dotenv.example.com\nEDITFORM_IDLE_TIMEOUT=5m\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv(EnvAPIBaseURL, "")
	os.Unsetenv(EnvAPIBaseURL)
	t.Setenv(EnvIdleTimeout, "")
	os.Unsetenv(EnvIdleTimeout)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "https://dotenv.example.com" || cfg.IdleTimeout != 5*time.Minute {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
