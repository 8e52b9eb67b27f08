package form

import (
	"sort"
	"strings"
)

// Tombstones records identities of persisted child records removed during an
// editing session, keyed by group kind. Entries are never reconciled against
// re-additions: once removed, an identity stays tombstoned until Reset.
type Tombstones struct {
	ids  map[string][]string
	seen map[string]map[string]struct{}
}

// NewTombstones returns an empty tracker.
func NewTombstones() *Tombstones {
	return &Tombstones{
		ids:  make(map[string][]string),
		seen: make(map[string]map[string]struct{}),
	}
}

// Add records id under kind. Empty identities and duplicates are ignored;
// the return value reports whether the id was added.
func (t *Tombstones) Add(kind, id string) bool {
	kind = strings.TrimSpace(kind)
	id = strings.TrimSpace(id)
	if kind == "" || id == "" {
		return false
	}
	set, ok := t.seen[kind]
	if !ok {
		set = make(map[string]struct{})
		t.seen[kind] = set
	}
	if _, dup := set[id]; dup {
		return false
	}
	set[id] = struct{}{}
	t.ids[kind] = append(t.ids[kind], id)
	return true
}

// IDs returns the identities tombstoned for kind in insertion order.
func (t *Tombstones) IDs(kind string) []string {
	ids := t.ids[kind]
	if len(ids) == 0 {
		return nil
	}
	return append([]string(nil), ids...)
}

// Kinds lists the group kinds holding at least one tombstone, sorted.
func (t *Tombstones) Kinds() []string {
	kinds := make([]string, 0, len(t.ids))
	for kind, ids := range t.ids {
		if len(ids) > 0 {
			kinds = append(kinds, kind)
		}
	}
	sort.Strings(kinds)
	return kinds
}

// Len counts every tombstoned identity.
func (t *Tombstones) Len() int {
	n := 0
	for _, ids := range t.ids {
		n += len(ids)
	}
	return n
}

// Reset clears the tracker when the editing session ends.
func (t *Tombstones) Reset() {
	t.ids = make(map[string][]string)
	t.seen = make(map[string]map[string]struct{})
}
