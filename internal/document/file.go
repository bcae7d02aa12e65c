package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/dmitrijs2005/sharevault/internal/filex"
	"github.com/dmitrijs2005/sharevault/internal/models"
)

// FileStore keeps the document as a JSON file.
type FileStore struct {
	path   string
	render RenderFunc
	mu     sync.Mutex
}

func NewFileStore(path string, render RenderFunc) *FileStore {
	return &FileStore{path: path, render: render}
}

// Path returns the backing file.
func (f *FileStore) Path() string { return f.path }

// Load returns an empty document when the file does not exist yet.
func (f *FileStore) Load(ctx context.Context) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *FileStore) Apply(ctx context.Context, update models.Document) error {
	f.mu.Lock()
	doc, err := f.read()
	if err != nil {
		f.mu.Unlock()
		return err
	}
	Merge(doc, update)
	err = f.write(doc)
	f.mu.Unlock()
	if err != nil {
		return err
	}

	if f.render != nil {
		return f.render(ctx, doc)
	}
	return nil
}

// Save replaces the stored document.
func (f *FileStore) Save(ctx context.Context, doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(Clone(doc))
}

func (f *FileStore) read() (*models.Document, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Clone(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", f.path, err)
	}
	return Clone(&doc), nil
}

func (f *FileStore) write(doc *models.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := filex.WriteAtomic(f.path, data, 0o600); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}
