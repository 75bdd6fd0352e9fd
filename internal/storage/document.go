package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("document not found")

// Document is one persisted entity. Kind partitions documents by entity type,
// ID is the store assigned identity and LoadID optionally links the document
// back to the content definition it was created from.
type Document struct {
	Kind   string          `json:"kind"`
	ID     string          `json:"id"`
	LoadID Identifier      `json:"load_id,omitempty"`
	Body   json.RawMessage `json:"body"`
}

// DocumentStore is the persistence boundary used by the simulation.
type DocumentStore interface {
	Get(ctx context.Context, kind, id string) (*Document, error)
	GetByLoadID(ctx context.Context, kind string, loadID Identifier) (*Document, error)
	Put(ctx context.Context, doc *Document) error
}

// PutJSON marshals v and stores it as a document.
func PutJSON(ctx context.Context, st DocumentStore, kind, id string, loadID Identifier, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshalling %s %q: %w", kind, id, err)
	}
	return st.Put(ctx, &Document{Kind: kind, ID: id, LoadID: loadID, Body: body})
}

// GetJSON loads a document by id and unmarshals its body into v.
func GetJSON(ctx context.Context, st DocumentStore, kind, id string, v any) error {
	doc, err := st.Get(ctx, kind, id)
	if err != nil {
		return err
	}
	return decodeBody(doc, v)
}

// GetJSONByLoadID loads a document by its load identifier and unmarshals its body into v.
func GetJSONByLoadID(ctx context.Context, st DocumentStore, kind string, loadID Identifier, v any) error {
	doc, err := st.GetByLoadID(ctx, kind, loadID)
	if err != nil {
		return err
	}
	return decodeBody(doc, v)
}

func decodeBody(doc *Document, v any) error {
	if err := json.Unmarshal(doc.Body, v); err != nil {
		return fmt.Errorf("unmarshalling %s %q: %w", doc.Kind, doc.ID, err)
	}
	return nil
}

func validateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("document is nil")
	}
	if doc.Kind == "" {
		return fmt.Errorf("document kind must be set")
	}
	if doc.ID == "" {
		return fmt.Errorf("document id must be set")
	}
	return nil
}
