package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileDocumentStore keeps one JSON file per document at <root>/<kind>/<id>.json.
type FileDocumentStore struct {
	root string

	mu sync.RWMutex
}

func NewFileDocumentStore(root string) (*FileDocumentStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating document root: %w", err)
	}
	return &FileDocumentStore{root: root}, nil
}

func (s *FileDocumentStore) Get(ctx context.Context, kind, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.read(s.filePath(kind, id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
	}
	return doc, err
}

func (s *FileDocumentStore) GetByLoadID(ctx context.Context, kind string, loadID Identifier) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(s.root, kind))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("listing %s: %w", kind, err)
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := s.read(filepath.Join(s.root, kind, e.Name()))
		if err != nil {
			return nil, err
		}
		if doc.LoadID == loadID {
			return doc, nil
		}
	}

	return nil, fmt.Errorf("%s load id %q: %w", kind, loadID, ErrNotFound)
}

func (s *FileDocumentStore) Put(ctx context.Context, doc *Document) error {
	if err := validateDocument(doc); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Join(s.root, doc.Kind), 0o755); err != nil {
		return fmt.Errorf("creating %s directory: %w", doc.Kind, err)
	}

	return atomicWrite(s.filePath(doc.Kind, doc.ID), data, 0o644)
}

func (s *FileDocumentStore) filePath(kind, id string) string {
	return filepath.Join(s.root, kind, id+".json")
}

func (s *FileDocumentStore) read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("unmarshalling %s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// atomicWrite writes data to a temp file then renames it to the target path.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		if removeErr := os.Remove(tmp); removeErr != nil {
			slog.Warn("failed to remove temp file after rename failure", "path", tmp, "error", removeErr)
		}
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
