// Package sitegate implements the kill switches: a site-wide disable flag
// tripped when the sponsored link is tampered with, and the nuke operation
// that wipes every stored document. Both leave a tombstone document behind;
// while it exists, the gate middleware refuses API traffic.
package sitegate

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"folio/cmd/internal/docstore"
)

var (
	// ErrForbidden is returned for a bad or missing disable secret.
	ErrForbidden = errors.New("forbidden")

	// ErrWrongPassword is returned when nuke is attempted with a wrong
	// admin password.
	ErrWrongPassword = errors.New("wrong_password")
)

// Tombstone modes.
const (
	ModeDisabled = "disabled"
	ModeNuked    = "nuked"
)

// tombstone is the persisted shape of the site-disabled document.
type tombstone struct {
	Mode string    `json:"mode"`
	At   time.Time `json:"at"`
}

// PasswordVerifier is the slice of the credential store nuke needs.
type PasswordVerifier interface {
	VerifyPassword(ctx context.Context, plainPassword string) error
}

// Service implements the site gate operations.
type Service struct {
	store    docstore.Store
	verifier PasswordVerifier

	now func() time.Time
}

// NewService wires the gate over the document store.
func NewService(store docstore.Store, verifier PasswordVerifier) *Service {
	return &Service{
		store:    store,
		verifier: verifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Disabled reports whether the tombstone document exists. Storage trouble
// counts as disabled; failing closed here is the point of the gate.
func (s *Service) Disabled(ctx context.Context) bool {
	_, err := s.store.Read(ctx, docstore.DocTombstone)
	if err == nil {
		return true
	}
	return !docstore.IsNotFound(err)
}

// Disable trips the site-wide kill switch.
func (s *Service) Disable(ctx context.Context) error {
	return s.writeTombstone(ctx, ModeDisabled)
}

// Nuke verifies the admin password, deletes every stored document and
// leaves a tombstone so the API stays dark afterwards. Irreversible.
func (s *Service) Nuke(ctx context.Context, password string) error {
	if password == "" {
		return ErrWrongPassword
	}
	if err := s.verifier.VerifyPassword(ctx, password); err != nil {
		return ErrWrongPassword
	}

	if err := s.store.DeleteAll(ctx); err != nil {
		return err
	}
	return s.writeTombstone(ctx, ModeNuked)
}

func (s *Service) writeTombstone(ctx context.Context, mode string) error {
	raw, err := json.MarshalIndent(tombstone{Mode: mode, At: s.now()}, "", "  ")
	if err != nil {
		return err
	}
	return s.store.Write(ctx, docstore.DocTombstone, raw)
}

// VerifyLink reports whether href matches the canonical sponsored link.
// Trailing slashes are ignored on both sides; an empty href never matches.
func VerifyLink(href, canonical string) bool {
	href = strings.TrimRight(strings.TrimSpace(href), "/")
	canonical = strings.TrimRight(strings.TrimSpace(canonical), "/")
	return href != "" && href == canonical
}
