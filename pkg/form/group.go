package form

import (
	"fmt"
	"slices"
	"strings"

	"github.com/goliatone/go-editform/pkg/schema"
)

// Group is an ordered collection of records addressed by index. Every
// mutation renumbers positions so they stay the contiguous sequence 1..n.
type Group struct {
	spec       schema.Group
	items      []*Record
	tombstones *Tombstones
}

func newGroup(spec schema.Group, tombstones *Tombstones) *Group {
	return &Group{spec: spec, tombstones: tombstones}
}

// Name returns the group kind, also used as its wire key and tombstone kind.
func (g *Group) Name() string { return g.spec.Name }

// Schema returns the group schema.
func (g *Group) Schema() schema.Group { return g.spec }

// Len returns the number of records.
func (g *Group) Len() int { return len(g.items) }

// At returns the record at index, nil when out of range.
func (g *Group) At(index int) *Record {
	if index < 0 || index >= len(g.items) {
		return nil
	}
	return g.items[index]
}

// Items returns the records in order. The slice is a copy; the records are
// shared.
func (g *Group) Items() []*Record {
	return append([]*Record(nil), g.items...)
}

// Append adds a fresh record without identity at the end of the group.
func (g *Group) Append() *Record {
	return g.Insert(len(g.items))
}

// Insert adds a fresh record without identity at index. The index is clamped
// into [0, Len].
func (g *Group) Insert(index int) *Record {
	if index < 0 {
		index = 0
	}
	if index > len(g.items) {
		index = len(g.items)
	}
	rec := newRecord(g.spec, g.tombstones)
	g.items = slices.Insert(g.items, index, rec)
	g.renumber()
	return rec
}

// Hydrate appends a record fetched from the backend under id.
func (g *Group) Hydrate(id string) *Record {
	rec := newRecord(g.spec, g.tombstones)
	rec.ID = strings.TrimSpace(id)
	g.items = append(g.items, rec)
	g.renumber()
	return rec
}

// RemoveAt deletes the record at index. A record carrying an identity is
// tombstoned under the group kind; records created client side vanish
// without trace.
func (g *Group) RemoveAt(index int) error {
	if index < 0 || index >= len(g.items) {
		return fmt.Errorf("%w: %s[%d]", ErrIndexOutOfRange, g.spec.Name, index)
	}
	removed := g.items[index]
	g.items = slices.Delete(g.items, index, index+1)
	if removed.ID != "" && g.tombstones != nil {
		g.tombstones.Add(g.spec.Name, removed.ID)
	}
	g.renumber()
	return nil
}

// UpdateAt replaces one field of the record at index. Identity and position
// are left untouched.
func (g *Group) UpdateAt(index int, field string, v Value) error {
	rec := g.At(index)
	if rec == nil {
		return fmt.Errorf("%w: %s[%d]", ErrIndexOutOfRange, g.spec.Name, index)
	}
	return rec.Set(field, v)
}

func (g *Group) renumber() {
	for i, rec := range g.items {
		rec.Position = i + 1
	}
}
