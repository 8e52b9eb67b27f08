package form

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-editform/pkg/schema"
)

// Record is one element of a repeatable group. ID is empty for records
// created client side; Position is kept contiguous by the owning group.
type Record struct {
	ID       string
	Position int

	spec        schema.Group
	fields      map[string]Value
	groups      map[string]*Group
	attachments map[string]*Attachment
}

func newRecord(spec schema.Group, tombstones *Tombstones) *Record {
	rec := &Record{
		spec:        spec,
		fields:      make(map[string]Value, len(spec.Fields)),
		groups:      make(map[string]*Group, len(spec.Groups)),
		attachments: make(map[string]*Attachment),
	}
	for _, f := range spec.Fields {
		if f.Kind == schema.KindFile {
			rec.attachments[f.Name] = &Attachment{}
			continue
		}
		if f.Default != "" {
			rec.fields[f.Name] = Parse(f, f.Default)
		}
	}
	for _, child := range spec.Groups {
		rec.groups[child.Name] = newGroup(child, tombstones)
	}
	return rec
}

// Schema returns the group schema the record follows.
func (r *Record) Schema() schema.Group { return r.spec }

// Get returns the value stored for name.
func (r *Record) Get(name string) (Value, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Text returns the display text of name, empty when unset.
func (r *Record) Text(name string) string {
	return Text(r.fields[name])
}

// Set replaces one scalar field. Unknown fields and file fields are
// rejected; attachments go through Attachment.
func (r *Record) Set(name string, v Value) error {
	field, ok := r.spec.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, r.spec.Name, name)
	}
	if field.Kind == schema.KindFile {
		return fmt.Errorf("%w: %s.%s", ErrAttachmentField, r.spec.Name, name)
	}
	if v == nil {
		delete(r.fields, name)
		return nil
	}
	r.fields[name] = v
	return nil
}

// Group returns the nested group called name, nil when the schema does not
// declare it.
func (r *Record) Group(name string) *Group {
	return r.groups[strings.TrimSpace(name)]
}

// Attachment returns the file field called name, nil when the schema does
// not declare it.
func (r *Record) Attachment(name string) *Attachment {
	return r.attachments[strings.TrimSpace(name)]
}
