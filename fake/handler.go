// File: fake/handler.go
// Author: momentics <momentics@gmail.com>

package fake

import (
	"sync"

	"github.com/momentics/muxio/api"
)

// WriteHandler is a fake api.WriteHandler recording completions.
type WriteHandler struct {
	mu       sync.Mutex
	contexts []any
}

var _ api.WriteHandler = (*WriteHandler)(nil)

// NewWriteHandler creates a recording write handler.
func NewWriteHandler() *WriteHandler { return &WriteHandler{} }

// Complete implements api.WriteHandler.
func (h *WriteHandler) Complete(ctx any) {
	h.mu.Lock()
	h.contexts = append(h.contexts, ctx)
	h.mu.Unlock()
}

// Completions reports how many times Complete fired.
func (h *WriteHandler) Completions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.contexts)
}

// Contexts returns the contexts passed to Complete, in order.
func (h *WriteHandler) Contexts() []any {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]any, len(h.contexts))
	copy(out, h.contexts)
	return out
}
