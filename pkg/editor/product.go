package editor

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-editform/pkg/client"
	"github.com/goliatone/go-editform/pkg/schema"
)

// ProductBackend is the part of the REST client the product editor uses.
type ProductBackend interface {
	ListTypes(ctx context.Context) ([]client.ProductType, error)
	ListCategories(ctx context.Context) ([]client.Category, error)
	GetProduct(ctx context.Context, id client.ID) (client.Record, error)
	CreateProduct(ctx context.Context, body client.MultipartWriter) (client.Record, error)
	UpdateProduct(ctx context.Context, id client.ID, body client.MultipartWriter) (client.Record, error)
}

// ProductEditor is one product create or edit session. The discriminator
// is the product type id; the type slug names the detail section.
type ProductEditor struct {
	*session

	backend    ProductBackend
	types      []client.ProductType
	categories []client.Category
}

// NewProduct returns an empty product editor. Call Load before editing.
func NewProduct(backend ProductBackend, spec schema.Entity, opts ...Option) *ProductEditor {
	return &ProductEditor{
		session: newSession(spec, newConfig(opts)),
		backend: backend,
	}
}

// Load fetches the lookup lists and, when id is set, the product, all in
// parallel. Nothing is applied unless every request succeeds.
func (e *ProductEditor) Load(ctx context.Context, id string) error {
	var (
		types      []client.ProductType
		categories []client.Category
		record     client.Record
	)
	fetchers := []func(context.Context) error{
		func(ctx context.Context) (err error) {
			types, err = e.backend.ListTypes(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			categories, err = e.backend.ListCategories(ctx)
			return err
		},
	}
	id = strings.TrimSpace(id)
	if id != "" {
		fetchers = append(fetchers, func(ctx context.Context) (err error) {
			record, err = e.backend.GetProduct(ctx, client.ID(id))
			if err == nil && record == nil {
				err = fmt.Errorf("%w: product %s", ErrNotFound, id)
			}
			return err
		})
	}

	return e.load(ctx, func() error {
		e.types, e.categories = types, categories
		if record == nil {
			return nil
		}
		if _, ok := record[e.spec.Discriminator]; !ok {
			if typeID := textOf(record["type"]); typeID != "" {
				record[e.spec.Discriminator] = typeID
			}
		}
		if textOf(record["id"]) == "" {
			record["id"] = id
		}
		return hydrateEntity(e.entity, record, e.slugFor)
	}, fetchers...)
}

// Types returns the product types loaded by Load.
func (e *ProductEditor) Types() []client.ProductType { return e.types }

// Categories returns the categories of the selected type, or all of them
// when no type is selected.
func (e *ProductEditor) Categories() []client.Category {
	typeID, _ := e.entity.Discriminator()
	if typeID == "" {
		return e.categories
	}
	var out []client.Category
	for _, c := range e.categories {
		if string(c.TypeID) == typeID || (c.Type != nil && string(c.Type.ID) == typeID) {
			out = append(out, c)
		}
	}
	return out
}

// SelectType sets the product type. The detail sections are emptied and
// the section named after the type slug becomes active.
func (e *ProductEditor) SelectType(typeID string) error {
	if e.Closed() {
		return ErrClosed
	}
	typeID = strings.TrimSpace(typeID)
	e.entity.SetDiscriminator(typeID, e.slugFor(typeID))
	return nil
}

// Submit validates and sends the product, creating it or updating the
// loaded record.
func (e *ProductEditor) Submit(ctx context.Context) (client.Record, error) {
	return e.submit(ctx, func(ctx context.Context, body client.MultipartWriter) (client.Record, error) {
		if e.Editing() {
			return e.backend.UpdateProduct(ctx, client.ID(e.entity.ID), body)
		}
		return e.backend.CreateProduct(ctx, body)
	})
}

func (e *ProductEditor) slugFor(typeID string) string {
	for _, t := range e.types {
		if string(t.ID) == typeID {
			return t.Slug
		}
	}
	return ""
}
