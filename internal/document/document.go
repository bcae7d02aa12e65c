// Package document holds the working document state that share links
// carry: role, mode, form data and images.
package document

import (
	"context"
	"maps"
	"sync"

	"github.com/dmitrijs2005/sharevault/internal/models"
)

// Source provides the current document state.
type Source interface {
	Load(ctx context.Context) (*models.Document, error)
}

// Sink receives state from an inbound link. Role and Mode replace the
// current values when set; FormData and Images are merged key by key.
type Sink interface {
	Apply(ctx context.Context, update models.Document) error
}

// RenderFunc is called after a sink changed the document.
type RenderFunc func(ctx context.Context, doc *models.Document) error

// Merge applies update onto doc in place. Form data values are copied, so
// later changes to update do not reach doc.
func Merge(doc *models.Document, update models.Document) {
	if update.Role != "" {
		doc.Role = update.Role
	}
	if update.Mode != "" {
		doc.Mode = update.Mode
	}
	if len(update.FormData) > 0 {
		if doc.FormData == nil {
			doc.FormData = make(map[string]any, len(update.FormData))
		}
		for k, v := range update.FormData {
			doc.FormData[k] = cloneValue(v)
		}
	}
	if len(update.Images) > 0 {
		if doc.Images == nil {
			doc.Images = make(map[string]string, len(update.Images))
		}
		maps.Copy(doc.Images, update.Images)
	}
}

// Clone returns a deep copy of doc. Nested form data objects and arrays
// are copied too.
func Clone(doc *models.Document) *models.Document {
	if doc == nil {
		return &models.Document{FormData: map[string]any{}, Images: map[string]string{}}
	}
	out := *doc
	out.FormData = make(map[string]any, len(doc.FormData))
	for k, v := range doc.FormData {
		out.FormData[k] = cloneValue(v)
	}
	out.Images = maps.Clone(doc.Images)
	if out.Images == nil {
		out.Images = map[string]string{}
	}
	return &out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}

// Memory is an in-process Source and Sink.
type Memory struct {
	mu     sync.Mutex
	doc    *models.Document
	render RenderFunc
}

// NewMemory returns a Memory seeded with a copy of doc.
func NewMemory(doc *models.Document, render RenderFunc) *Memory {
	return &Memory{doc: Clone(doc), render: render}
}

func (m *Memory) Load(ctx context.Context) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Clone(m.doc), nil
}

func (m *Memory) Apply(ctx context.Context, update models.Document) error {
	m.mu.Lock()
	Merge(m.doc, update)
	snapshot := Clone(m.doc)
	m.mu.Unlock()

	if m.render != nil {
		return m.render(ctx, snapshot)
	}
	return nil
}
