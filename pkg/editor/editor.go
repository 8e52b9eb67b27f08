package editor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-editform/internal/logging"
	"github.com/goliatone/go-editform/pkg/client"
	"github.com/goliatone/go-editform/pkg/form"
	"github.com/goliatone/go-editform/pkg/payload"
	"github.com/goliatone/go-editform/pkg/schema"
	"github.com/goliatone/go-editform/pkg/validation"
)

var (
	// ErrSubmitInFlight is returned when a submission starts while another
	// one has not completed.
	ErrSubmitInFlight = errors.New("editor: submission already in flight")
	// ErrClosed is returned by operations on a closed editor, including
	// requests that completed after Close.
	ErrClosed = errors.New("editor: editor closed")
	// ErrNotFound is returned by Load when the backend answers without a
	// record.
	ErrNotFound = errors.New("editor: record not found")
)

// MissingFieldsMessage is shown when a submission is attempted with
// required fields left empty.
const MissingFieldsMessage = "Veuillez remplir tous les champs obligatoires."

// Option customises an editor.
type Option func(*config)

type config struct {
	logger     logging.Logger
	previewer  form.Previewer
	storageURL string
}

// WithLogger sets the logger submissions are reported to.
func WithLogger(l logging.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPreviewer sets the previewer image uploads acquire handles from.
func WithPreviewer(p form.Previewer) Option {
	return func(c *config) {
		if p != nil {
			c.previewer = p
		}
	}
}

// WithStorageURL sets the base URL stored images are previewed from.
func WithStorageURL(url string) Option {
	return func(c *config) {
		c.storageURL = strings.TrimSpace(url)
	}
}

func newConfig(opts []Option) config {
	cfg := config{logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// session is the state shared by the product and page editors: the entity,
// the liveness flag, the in-flight guard and the banner.
type session struct {
	cfg    config
	spec   schema.Entity
	entity *form.Entity

	closed   atomic.Bool
	inFlight atomic.Bool
	loading  atomic.Int32

	mu     sync.Mutex
	banner string
}

func newSession(spec schema.Entity, cfg config) *session {
	return &session{
		cfg:    cfg,
		spec:   spec,
		entity: form.New(spec, form.WithPreviewer(cfg.previewer), form.WithStorageURL(cfg.storageURL)),
	}
}

// Entity returns the editing state.
func (s *session) Entity() *form.Entity { return s.entity }

// Editing reports whether the editor works on a stored record.
func (s *session) Editing() bool { return s.entity.ID != "" }

// Loading reports whether a load or a submission is running.
func (s *session) Loading() bool { return s.loading.Load() > 0 }

// Closed reports whether Close was called.
func (s *session) Closed() bool { return s.closed.Load() }

// Banner returns the message of the last failed operation.
func (s *session) Banner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.banner
}

// DismissBanner clears the banner.
func (s *session) DismissBanner() { s.setBanner("") }

func (s *session) setBanner(msg string) {
	s.mu.Lock()
	s.banner = msg
	s.mu.Unlock()
}

// CanSubmit reports whether a submission would be sent: every required
// field is set and no submission is running.
func (s *session) CanSubmit() bool {
	if s.closed.Load() || s.inFlight.Load() {
		return false
	}
	return validation.Required(s.entity) == nil
}

// AddImage stages a new image. Limit violations leave the list unchanged
// and come back as bad input errors for the caller to alert on.
func (s *session) AddImage(u *form.Upload) error {
	if s.closed.Load() {
		return ErrClosed
	}
	err := s.entity.AddImage(u)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, form.ErrImageLimit):
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "Vous ne pouvez ajouter que 5 images maximum.").
			WithTextCode("IMAGE_LIMIT")
	case errors.Is(err, form.ErrImageTooLarge):
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "L'image dépasse la taille maximale de 5 Mo.").
			WithTextCode("IMAGE_TOO_LARGE")
	default:
		return err
	}
}

// Close ends the session. Pending requests complete but their results are
// discarded, and preview handles are released.
func (s *session) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.entity.Close()
}

// load runs the fetchers in parallel. The first failure cancels the others
// and is the only error reported. apply runs only when every fetcher
// succeeded and the editor is still open.
func (s *session) load(ctx context.Context, apply func() error, fetchers ...func(context.Context) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.loading.Add(1)
	defer s.loading.Add(-1)

	g, gctx := errgroup.WithContext(ctx)
	for _, fetch := range fetchers {
		g.Go(func() error { return fetch(gctx) })
	}
	err := g.Wait()
	if s.closed.Load() {
		return ErrClosed
	}
	if err != nil {
		s.fail(err)
		return err
	}
	s.setBanner("")
	return apply()
}

// submitFunc sends the encoded entity, creating or updating the record.
type submitFunc func(ctx context.Context, body client.MultipartWriter) (client.Record, error)

// submit validates, encodes and sends the entity. Invalid entities never
// reach the network. On success the entity is discarded and the editor
// closed.
func (s *session) submit(ctx context.Context, send submitFunc) (client.Record, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := validation.Required(s.entity); err != nil {
		s.setBanner(MissingFieldsMessage)
		return nil, err
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmitInFlight
	}
	defer s.inFlight.Store(false)
	s.loading.Add(1)
	defer s.loading.Add(-1)

	mode := "create"
	if s.Editing() {
		mode = "update"
	}
	logger := logging.WithFields(s.cfg.logger, map[string]any{
		"entity": s.spec.Name,
		"id":     s.entity.ID,
		"mode":   mode,
	})
	logger.Info("submitting entity")

	p := payload.Encode(s.entity)
	out, err := send(ctx, p)
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err != nil {
		logger.Warn("submit failed", "error", err)
		s.fail(err)
		return nil, err
	}
	logger.Info("entity saved", "entries", p.Len())
	s.setBanner("")
	s.Close()
	return out, nil
}

// fail records err on the banner. An expired session discards the edits.
func (s *session) fail(err error) {
	if errors.Is(err, client.ErrSessionExpired) {
		s.Close()
	}
	s.setBanner(client.Message(err))
}
