package form

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-editform/pkg/schema"
)

// Option customises an Entity.
type Option func(*Entity)

// WithPreviewer sets the previewer used by the image list.
func WithPreviewer(p Previewer) Option {
	return func(e *Entity) {
		if p != nil {
			e.previewer = p
		}
	}
}

// WithStorageURL sets the base URL stored image references are served from.
func WithStorageURL(url string) Option {
	return func(e *Entity) {
		e.storageURL = strings.TrimSpace(url)
	}
}

// Entity is the editing state of one product or page: top-level scalars,
// the discriminator and its detail sections, repeatable groups, attachments
// and the image list. All nested groups share the entity tombstone tracker.
type Entity struct {
	ID string

	spec        schema.Entity
	fields      map[string]Value
	variant     string
	details     *Details
	groups      map[string]*Group
	attachments map[string]*Attachment
	images      *ImageList
	tombstones  *Tombstones
	previewer   Previewer
	storageURL  string
}

// New returns an empty entity following spec, with field defaults applied.
func New(spec schema.Entity, opts ...Option) *Entity {
	e := &Entity{
		spec:        spec,
		fields:      make(map[string]Value, len(spec.Fields)),
		details:     newDetails(spec.Variants),
		groups:      make(map[string]*Group, len(spec.Groups)),
		attachments: make(map[string]*Attachment),
		tombstones:  NewTombstones(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.previewer == nil {
		e.previewer = NewMemoryPreviewer()
	}
	for _, f := range spec.Fields {
		if f.Kind == schema.KindFile {
			e.attachments[f.Name] = &Attachment{}
			continue
		}
		if f.Default != "" {
			e.fields[f.Name] = Parse(f, f.Default)
		}
	}
	if def, ok := e.fields[spec.Discriminator]; ok {
		e.variant = e.variantFor(Text(def))
	}
	for _, g := range spec.Groups {
		e.groups[g.Name] = newGroup(g, e.tombstones)
	}
	if spec.Images != nil {
		e.images = newImageList(*spec.Images, e.previewer, e.storageURL)
	}
	return e
}

// Schema returns the entity schema.
func (e *Entity) Schema() schema.Entity { return e.spec }

// StorageURL returns the base URL of stored assets.
func (e *Entity) StorageURL() string { return e.storageURL }

// Get returns a top-level value.
func (e *Entity) Get(name string) (Value, bool) {
	v, ok := e.fields[name]
	return v, ok
}

// Text returns the display text of a top-level field.
func (e *Entity) Text(name string) string {
	return Text(e.fields[name])
}

// Set replaces a top-level scalar. Setting the discriminator goes through
// SetDiscriminator, selecting the variant of the same name when one exists.
func (e *Entity) Set(name string, v Value) error {
	field, ok := e.spec.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, e.spec.Name, name)
	}
	if field.Kind == schema.KindFile {
		return fmt.Errorf("%w: %s.%s", ErrAttachmentField, e.spec.Name, name)
	}
	if name == e.spec.Discriminator {
		raw := Text(v)
		e.SetDiscriminator(raw, e.variantFor(raw))
		if v == nil {
			delete(e.fields, name)
		}
		return nil
	}
	if v == nil {
		delete(e.fields, name)
		return nil
	}
	e.fields[name] = v
	return nil
}

// SetDiscriminator stores the discriminator value and the detail variant it
// selects. Changing either empties every detail section; re-selecting the
// current value keeps them. variant may be empty when the value selects no
// detail fields; unknown variants are treated the same way.
func (e *Entity) SetDiscriminator(value, variant string) {
	if _, ok := e.spec.Variant(variant); !ok {
		variant = ""
	}
	current, _ := e.Discriminator()
	if e.spec.Discriminator != "" {
		e.fields[e.spec.Discriminator] = String(value)
	}
	if current == value && e.variant == variant {
		return
	}
	e.variant = variant
	e.details.Reset()
}

// Discriminator returns the discriminator value and the selected variant.
func (e *Entity) Discriminator() (value, variant string) {
	return Text(e.fields[e.spec.Discriminator]), e.variant
}

// Variant returns the selected detail variant, empty when none applies.
func (e *Entity) Variant() string { return e.variant }

// SetDetail replaces one field of one detail section.
func (e *Entity) SetDetail(section, field string, v Value) error {
	return e.details.Set(section, field, v)
}

// Details returns the detail sections.
func (e *Entity) Details() *Details { return e.details }

// Group returns the named top-level group, nil when undeclared.
func (e *Entity) Group(name string) *Group {
	return e.groups[strings.TrimSpace(name)]
}

// Attachment returns the named top-level file field, nil when undeclared.
func (e *Entity) Attachment(name string) *Attachment {
	return e.attachments[strings.TrimSpace(name)]
}

// Images returns the image list, nil when the entity declares none.
func (e *Entity) Images() *ImageList { return e.images }

// AddImage stages a new upload in the image list.
func (e *Entity) AddImage(u *Upload) error {
	if e.images == nil {
		return fmt.Errorf("%w: %s", ErrNoImageList, e.spec.Name)
	}
	return e.images.Add(u)
}

// Tombstones returns the shared tombstone tracker.
func (e *Entity) Tombstones() *Tombstones { return e.tombstones }

// Close releases every preview handle held by the entity and ends the
// editing session: the tombstones are cleared.
func (e *Entity) Close() {
	if e.images != nil {
		e.images.Close()
	}
	e.tombstones.Reset()
}

func (e *Entity) variantFor(value string) string {
	if _, ok := e.spec.Variant(value); ok {
		return value
	}
	return ""
}
