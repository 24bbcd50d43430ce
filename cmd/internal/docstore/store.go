// Package docstore is the persistence boundary for the site: a set of named
// JSON documents read and written whole. There are no partial updates and no
// transactions across documents; every mutation is a read-modify-write of one
// document, serialized per document name by the provider.
package docstore

import (
	"context"
	"errors"
	"fmt"
)

// Well-known document names.
const (
	DocCredentials = "auth"
	DocSessions    = "sessions"
	DocSiteData    = "site_data"
	DocLoginLogs   = "login_logs"
	DocRateLimit   = "rate_limit"
	DocTombstone   = "site_disabled"
)

// ErrNotFound is returned by Read when the named document does not exist.
var ErrNotFound = errors.New("document not found")

// UpdateFunc transforms the current raw document (nil when absent) into the
// bytes to persist. Returning the input unchanged is allowed.
type UpdateFunc func(current []byte) ([]byte, error)

// Store abstracts whole-document persistence.
//
// Contract:
//   - Read returns the full serialized document or ErrNotFound.
//   - Write replaces the full document.
//   - Update runs fn under a per-document lock so concurrent
//     read-modify-write cycles on the same name cannot lose updates.
//     Locks are per document only; cross-document invariants do not exist.
//   - DeleteAll removes every document (the nuke path).
type Store interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, doc []byte) error
	Update(ctx context.Context, name string, fn UpdateFunc) error
	DeleteAll(ctx context.Context) error
	Close() error
}

// IsNotFound reports whether err represents a missing document.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func validName(name string) error {
	if name == "" {
		return fmt.Errorf("docstore: empty document name")
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return fmt.Errorf("docstore: invalid document name %q", name)
		}
	}
	return nil
}
