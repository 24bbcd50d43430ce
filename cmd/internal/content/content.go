// Package content manages the site content document: a single JSON object
// whose top-level keys are the editable sections of the homepage. The
// document is read whole and rewritten whole; concurrent saves are
// serialized by the store's per-document locking.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"folio/cmd/internal/docstore"
)

// Sections that a save may target. Anything else, notably the embedded
// message list, is rejected.
var allowedSections = map[string]bool{
	"profile":  true,
	"about":    true,
	"skills":   true,
	"projects": true,
	"contact":  true,
	"social":   true,
	"settings": true,
}

// AllowedSection reports whether a section name may be saved directly.
func AllowedSection(name string) bool { return allowedSections[name] }

var (
	ErrUnknownSection = errors.New("unknown_section")
	ErrInvalidImport  = errors.New("invalid_import")
)

// timeStamp is the document's human-readable timestamp format.
const timeStamp = "2006-01-02 15:04:05"

// siteDoc keeps each section opaque; the service never interprets section
// bodies, only routes them.
type siteDoc map[string]json.RawMessage

// Service implements the content operations over the document store.
type Service struct {
	store docstore.Store

	now func() time.Time
}

// NewService wires the content service over the document store.
func NewService(store docstore.Store) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) stamp() json.RawMessage {
	b, _ := json.Marshal(s.now().Format(timeStamp))
	return b
}

func decodeSite(raw []byte) (siteDoc, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var doc siteDoc
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return nil, false
	}
	return doc, true
}

// Get returns the site document, seeding and persisting the defaults when
// none exists yet. Public: no session is required to read the site.
func (s *Service) Get(ctx context.Context) (json.RawMessage, error) {
	raw, err := s.store.Read(ctx, docstore.DocSiteData)
	if err == nil {
		if _, ok := decodeSite(raw); ok {
			return raw, nil
		}
	} else if !docstore.IsNotFound(err) {
		return nil, err
	}

	doc := defaultSite()
	seeded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(ctx, docstore.DocSiteData, seeded); err != nil {
		return nil, err
	}
	return seeded, nil
}

// Save replaces one section of the document and stamps updated_at.
// The read-modify-write runs inside the store's per-document update so two
// concurrent saves of different sections both land.
func (s *Service) Save(ctx context.Context, section string, data json.RawMessage) error {
	if !AllowedSection(section) {
		return ErrUnknownSection
	}
	if len(data) == 0 {
		return ErrUnknownSection
	}

	return s.store.Update(ctx, docstore.DocSiteData, func(current []byte) ([]byte, error) {
		doc, ok := decodeSite(current)
		if !ok {
			doc = defaultSite()
		}
		doc[section] = data
		doc["updated_at"] = s.stamp()
		return json.MarshalIndent(doc, "", "  ")
	})
}

// Export returns the document for download without seeding the store.
func (s *Service) Export(ctx context.Context) (json.RawMessage, error) {
	raw, err := s.store.Read(ctx, docstore.DocSiteData)
	if err == nil {
		if _, ok := decodeSite(raw); ok {
			return raw, nil
		}
	} else if !docstore.IsNotFound(err) {
		return nil, err
	}
	return json.MarshalIndent(defaultSite(), "", "  ")
}

// Import replaces the whole document with the provided object, stamping
// updated_at and imported_at. The previous document, message list included,
// is discarded.
func (s *Service) Import(ctx context.Context, data json.RawMessage) error {
	doc, ok := decodeSite(data)
	if !ok || len(doc) == 0 {
		return ErrInvalidImport
	}
	doc["updated_at"] = s.stamp()
	doc["imported_at"] = s.stamp()

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return s.store.Write(ctx, docstore.DocSiteData, raw)
}

// Reset restores the defaults and stamps reset_at. Messages are wiped with
// the rest of the document.
func (s *Service) Reset(ctx context.Context) error {
	doc := defaultSite()
	doc["reset_at"] = s.stamp()

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return s.store.Write(ctx, docstore.DocSiteData, raw)
}
