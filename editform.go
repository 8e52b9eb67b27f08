// Package editform wires the editing core together: configuration, logging,
// the field registry and the REST client, and hands out editors bound to
// them.
package editform

import (
	"fmt"
	"net/http"
	"os"

	"github.com/goliatone/go-editform/internal/config"
	"github.com/goliatone/go-editform/internal/logging"
	"github.com/goliatone/go-editform/internal/logging/gologger"
	"github.com/goliatone/go-editform/pkg/client"
	"github.com/goliatone/go-editform/pkg/editor"
	"github.com/goliatone/go-editform/pkg/schema"
)

// Config aliases the runtime settings so callers need not import the
// internal package.
type Config = config.Config

// LoadConfig reads dotenv files and the environment.
func LoadConfig(files ...string) (Config, error) {
	return config.Load(files...)
}

// Option customises App construction.
type Option func(*options)

type options struct {
	provider logging.Provider
	http     *http.Client
	session  client.SessionStore
	expiry   client.SessionExpiry
	registry *schema.Registry
}

// WithLoggerProvider replaces the go-logger provider built from Config.
func WithLoggerProvider(p logging.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithHTTPClient sets the transport used by the REST client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.http = hc }
}

// WithSessionStore sets where the signed-in user is kept.
func WithSessionStore(s client.SessionStore) Option {
	return func(o *options) { o.session = s }
}

// WithSessionExpiry registers the callback run when the session ends.
func WithSessionExpiry(fn client.SessionExpiry) Option {
	return func(o *options) { o.expiry = fn }
}

// WithRegistry uses reg instead of loading one from Config.SchemaDir or the
// embedded defaults.
func WithRegistry(reg *schema.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// App is the wired set of collaborators.
type App struct {
	Config   Config
	Logger   logging.Logger
	Registry *schema.Registry
	Client   *client.Client

	provider logging.Provider
}

// New validates cfg and builds the collaborators.
func New(cfg Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("editform: invalid config: %w", err)
	}
	o := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	provider := o.provider
	if provider == nil {
		p, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.LogLevel,
			Format:    cfg.LogFormat,
			AddSource: cfg.LogSource,
			Focus:     cfg.LogFocus,
		})
		if err != nil {
			return nil, fmt.Errorf("editform: logger: %w", err)
		}
		provider = p
	}

	registry := o.registry
	if registry == nil {
		var err error
		if registry, err = loadRegistry(cfg.SchemaDir); err != nil {
			return nil, err
		}
	}

	clientOpts := []client.Option{
		client.WithTimeout(cfg.RequestTimeout),
		client.WithLogger(logging.ModuleLogger(provider, "client")),
		client.WithSessionExpiry(o.expiry),
	}
	if o.http != nil {
		clientOpts = append(clientOpts, client.WithHTTPClient(o.http))
	}
	if o.session != nil {
		clientOpts = append(clientOpts, client.WithSessionStore(o.session))
	}
	c, err := client.New(cfg.APIBaseURL, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("editform: client: %w", err)
	}

	return &App{
		Config:   cfg,
		Logger:   logging.ModuleLogger(provider, ""),
		Registry: registry,
		Client:   c,
		provider: provider,
	}, nil
}

// Load reads the configuration and calls New.
func Load(files []string, opts ...Option) (*App, error) {
	cfg, err := LoadConfig(files...)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

func loadRegistry(dir string) (*schema.Registry, error) {
	if dir == "" {
		return schema.Default()
	}
	reg, err := schema.LoadFS(os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("editform: load schemas from %s: %w", dir, err)
	}
	if reg.Empty() {
		return nil, fmt.Errorf("editform: no schema files in %s", dir)
	}
	return reg, nil
}

// Entity returns the registered schema called name.
func (a *App) Entity(name string) (schema.Entity, error) {
	spec, ok := a.Registry.Entity(name)
	if !ok {
		return schema.Entity{}, fmt.Errorf("editform: unknown entity %q", name)
	}
	return spec, nil
}

// ModuleLogger returns the logger of module.
func (a *App) ModuleLogger(module string) logging.Logger {
	return logging.ModuleLogger(a.provider, module)
}

func (a *App) editorOptions() []editor.Option {
	return []editor.Option{
		editor.WithLogger(a.ModuleLogger("editor")),
		editor.WithStorageURL(a.Config.StorageURL),
	}
}

// ProductEditor returns an unloaded product editor.
func (a *App) ProductEditor() (*editor.ProductEditor, error) {
	spec, err := a.Entity("product")
	if err != nil {
		return nil, err
	}
	return editor.NewProduct(a.Client, spec, a.editorOptions()...), nil
}

// PageEditor returns an unloaded page editor.
func (a *App) PageEditor() (*editor.PageEditor, error) {
	spec, err := a.Entity("page")
	if err != nil {
		return nil, err
	}
	return editor.NewPage(a.Client, spec, a.editorOptions()...), nil
}

// IdleWatcher returns a watcher logging the session out after the
// configured inactivity period.
func (a *App) IdleWatcher() *client.IdleWatcher {
	return client.NewIdleWatcher(a.Client, a.Config.IdleTimeout)
}
