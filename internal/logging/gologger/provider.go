package gologger

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-editform/internal/logging"
)

// Config mirrors the EDITFORM_LOG_* settings. Focus restricts output to the
// named modules ("client", "editor", ...); empty means every module logs.
type Config struct {
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

var formats = map[string]func() glog.Option{
	"":        glog.WithLoggerTypeConsole,
	"console": glog.WithLoggerTypeConsole,
	"json":    glog.WithLoggerTypeJSON,
	"pretty":  glog.WithLoggerTypePretty,
}

var levels = map[string]string{
	"trace":   glog.Trace,
	"debug":   glog.Debug,
	"info":    glog.Info,
	"warn":    glog.Warn,
	"warning": glog.Warn,
	"error":   glog.Error,
	"fatal":   glog.Fatal,
}

// Provider hands out go-logger children keyed by module name.
type Provider struct {
	root  *glog.BaseLogger
	focus []string
}

var _ logging.Provider = (*Provider)(nil)

// NewProvider builds the root go-logger for the admin tools. Console output
// is the default since the CLI is the main consumer.
func NewProvider(cfg Config) (*Provider, error) {
	format, ok := formats[strings.ToLower(strings.TrimSpace(cfg.Format))]
	if !ok {
		return nil, fmt.Errorf("logging: unsupported go-logger format %q", cfg.Format)
	}
	opts := []glog.Option{format()}
	if level, ok := levels[strings.ToLower(strings.TrimSpace(cfg.Level))]; ok {
		opts = append(opts, glog.WithLevel(level))
	}
	if cfg.AddSource {
		opts = append(opts, glog.WithAddSource(true))
	}

	p := &Provider{root: glog.NewLogger(opts...), focus: Modules(cfg.Focus)}
	if len(p.focus) > 0 {
		p.root.Focus(p.focus...)
	}
	return p, nil
}

// Modules cleans a focus list: names are trimmed, lower cased, deduplicated
// and sorted. Comma separated entries are split.
func Modules(names []string) []string {
	var out []string
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Focus returns the modules the provider restricts output to.
func (p *Provider) Focus() []string { return slices.Clone(p.focus) }

// GetLogger returns the child logger for module; an empty name yields the
// root logger.
func (p *Provider) GetLogger(module string) logging.Logger {
	if p == nil {
		return logging.NoOp()
	}
	if module = strings.TrimSpace(module); module != "" {
		return wrap(p.root.GetLogger(module))
	}
	return wrap(p.root)
}

func wrap(inner glog.Logger) logging.Logger {
	if inner == nil {
		return logging.NoOp()
	}
	return &adapter{inner: inner}
}

type adapter struct {
	inner glog.Logger
}

func (l *adapter) Trace(msg string, args ...any) { l.inner.Trace(msg, args...) }
func (l *adapter) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }
func (l *adapter) Info(msg string, args ...any)  { l.inner.Info(msg, args...) }
func (l *adapter) Warn(msg string, args ...any)  { l.inner.Warn(msg, args...) }
func (l *adapter) Error(msg string, args ...any) { l.inner.Error(msg, args...) }
func (l *adapter) Fatal(msg string, args ...any) { l.inner.Fatal(msg, args...) }

// WithFields copies fields so callers may reuse their map.
func (l *adapter) WithFields(fields map[string]any) logging.Logger {
	fl, ok := l.inner.(glog.FieldsLogger)
	if !ok || len(fields) == 0 {
		return l
	}
	return wrap(fl.WithFields(maps.Clone(fields)))
}

func (l *adapter) WithContext(ctx context.Context) logging.Logger {
	if ctx == nil {
		return l
	}
	return wrap(l.inner.WithContext(ctx))
}
