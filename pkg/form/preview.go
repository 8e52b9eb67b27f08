package form

import (
	"sync"

	"github.com/google/uuid"
)

// PreviewHandle identifies a transient preview resource for an upload.
type PreviewHandle struct {
	ID  string
	URL string
}

// Previewer hands out preview resources for new uploads. Every acquired
// handle must be released exactly once.
type Previewer interface {
	Acquire(u *Upload) (PreviewHandle, error)
	Release(h PreviewHandle)
}

// MemoryPreviewer keeps previews as in-process handles and counts the ones
// still live.
type MemoryPreviewer struct {
	mu   sync.Mutex
	live map[string]*Upload
}

// NewMemoryPreviewer returns an empty previewer.
func NewMemoryPreviewer() *MemoryPreviewer {
	return &MemoryPreviewer{live: make(map[string]*Upload)}
}

// Acquire registers a handle for u.
func (p *MemoryPreviewer) Acquire(u *Upload) (PreviewHandle, error) {
	id := uuid.NewString()
	p.mu.Lock()
	p.live[id] = u
	p.mu.Unlock()
	return PreviewHandle{ID: id, URL: "preview:" + id}, nil
}

// Release frees h. Unknown or zero handles are ignored.
func (p *MemoryPreviewer) Release(h PreviewHandle) {
	if h.ID == "" {
		return
	}
	p.mu.Lock()
	delete(p.live, h.ID)
	p.mu.Unlock()
}

// Live returns the number of handles not yet released.
func (p *MemoryPreviewer) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}
