package images

import (
	"sync"

	"github.com/google/uuid"
)

// PreviewPath is the URL prefix under which preview bytes are served.
const PreviewPath = "/api/v1/previews/"

// Registry holds in-memory preview bytes addressable by revocable tokens.
// Previews are not garbage-collected: every issued Handle must be
// released by its owner or the bytes stay resident for the session.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]previewEntry
}

type previewEntry struct {
	data []byte
	mime string
}

// NewRegistry creates an empty preview registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]previewEntry)}
}

// Create stores the bytes under a fresh token and returns its handle.
func (r *Registry) Create(data []byte, mime string) *Handle {
	token := uuid.NewString()

	r.mu.Lock()
	r.entries[token] = previewEntry{data: data, mime: mime}
	r.mu.Unlock()

	return &Handle{registry: r, token: token}
}

// Get returns the bytes and MIME type for a token. ok is false for
// revoked or unknown tokens.
func (r *Registry) Get(token string) (data []byte, mime string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[token]
	return entry.data, entry.mime, ok
}

// Revoke drops the entry for a token. Revoking an unknown token is a no-op.
func (r *Registry) Revoke(token string) {
	r.mu.Lock()
	delete(r.entries, token)
	r.mu.Unlock()
}

// Len returns the number of live previews.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Handle is a revocable reference to preview bytes. Release is
// idempotent; after release the token serves nothing.
type Handle struct {
	registry *Registry
	token    string
	once     sync.Once
}

// Token returns the opaque preview token.
func (h *Handle) Token() string {
	return h.token
}

// URL returns the path the rendering layer loads the preview from.
func (h *Handle) URL() string {
	return PreviewPath + h.token
}

// Release revokes the preview. Safe to call more than once.
func (h *Handle) Release() {
	h.once.Do(func() {
		h.registry.Revoke(h.token)
	})
}
