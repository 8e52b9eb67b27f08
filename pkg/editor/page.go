package editor

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-editform/pkg/client"
	"github.com/goliatone/go-editform/pkg/schema"
)

// PageBackend is the part of the REST client the page editor uses.
type PageBackend interface {
	GetPage(ctx context.Context, id client.ID) (client.Record, error)
	CreatePage(ctx context.Context, body client.MultipartWriter) (client.Record, error)
	UpdatePage(ctx context.Context, id client.ID, body client.MultipartWriter) (client.Record, error)
}

// PageEditor is one CMS page create or edit session.
type PageEditor struct {
	*session

	backend PageBackend
}

// NewPage returns an empty page editor.
func NewPage(backend PageBackend, spec schema.Entity, opts ...Option) *PageEditor {
	return &PageEditor{
		session: newSession(spec, newConfig(opts)),
		backend: backend,
	}
}

// Load fetches the page with id and hydrates the editor. An empty id keeps
// the editor in create mode.
func (e *PageEditor) Load(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return e.load(ctx, func() error { return nil })
	}
	var record client.Record
	return e.load(ctx, func() error {
		if textOf(record["id"]) == "" {
			record["id"] = id
		}
		return hydrateEntity(e.entity, record, e.variantFor)
	}, func(ctx context.Context) (err error) {
		record, err = e.backend.GetPage(ctx, client.ID(id))
		if err == nil && record == nil {
			err = fmt.Errorf("%w: page %s", ErrNotFound, id)
		}
		return err
	})
}

// Submit validates and sends the page.
func (e *PageEditor) Submit(ctx context.Context) (client.Record, error) {
	return e.submit(ctx, func(ctx context.Context, body client.MultipartWriter) (client.Record, error) {
		if e.Editing() {
			return e.backend.UpdatePage(ctx, client.ID(e.entity.ID), body)
		}
		return e.backend.CreatePage(ctx, body)
	})
}

// Templates have no detail sections unless the schema declares a variant
// of the same name.
func (e *PageEditor) variantFor(template string) string {
	if _, ok := e.spec.Variant(template); ok {
		return template
	}
	return ""
}
