package auth

import (
	"context"
	"encoding/json"
	"time"

	"folio/cmd/internal/docstore"
	"folio/cmd/security/token"
)

// DefaultSessionTTL is the fixed session lifetime. Lifetime counts from
// issuance; validation never extends it.
const DefaultSessionTTL = 3600 * time.Second

// Session is one issued bearer session, keyed in the collection by its
// token's digest.
type Session struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	IP        string    `json:"ip"`
}

// sessionDoc is the persisted shape of the collection, rewritten whole on
// every mutation. Keys are SHA-256 hex digests of the bearer token, so a
// leaked sessions document does not hand out usable tokens.
type sessionDoc map[string]Session

// SessionManager issues, validates and revokes bearer tokens against the
// sessions document.
type SessionManager struct {
	store docstore.Store
	ttl   time.Duration

	now func() time.Time
}

// NewSessionManager wires a manager over the document store.
func NewSessionManager(store docstore.Store, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{
		store: store,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// TTL returns the configured session lifetime.
func (m *SessionManager) TTL() time.Duration { return m.ttl }

func decodeSessions(raw []byte) sessionDoc {
	if len(raw) == 0 {
		return sessionDoc{}
	}
	var doc sessionDoc
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return sessionDoc{}
	}
	return doc
}

// Issue creates a session for username and persists the collection.
// Exactly one sessions-document write per call.
func (m *SessionManager) Issue(ctx context.Context, username, ip string) (string, error) {
	tok, err := token.NewSessionToken()
	if err != nil {
		return "", OpError{Op: "auth.sessions.issue", Kind: err}
	}

	sess := Session{
		Username:  username,
		CreatedAt: m.now(),
		IP:        ip,
	}

	err = m.store.Update(ctx, docstore.DocSessions, func(current []byte) ([]byte, error) {
		doc := decodeSessions(current)
		doc[token.HashSHA256Hex(tok)] = sess
		return json.MarshalIndent(doc, "", "  ")
	})
	if err != nil {
		return "", OpError{Op: "auth.sessions.issue", Kind: err}
	}
	return tok, nil
}

// Validate looks the token up in the collection.
//
//   - Absent token -> ErrUnauthenticated.
//   - Present but past its lifetime -> the session is removed and the
//     collection persisted (lazy eviction) before ErrUnauthenticated.
//   - Otherwise the session is returned.
func (m *SessionManager) Validate(ctx context.Context, tok string) (Session, error) {
	if tok == "" {
		return Session{}, ErrUnauthenticated
	}

	raw, err := m.store.Read(ctx, docstore.DocSessions)
	if err != nil {
		// Missing document means no session was ever issued.
		return Session{}, ErrUnauthenticated
	}

	key := token.HashSHA256Hex(tok)
	doc := decodeSessions(raw)
	sess, ok := doc[key]
	if !ok {
		return Session{}, ErrUnauthenticated
	}

	if m.now().Sub(sess.CreatedAt) >= m.ttl {
		// Lazy eviction: drop the expired session before reporting invalid.
		// A concurrent eviction of the same token is harmless.
		_ = m.store.Update(ctx, docstore.DocSessions, func(current []byte) ([]byte, error) {
			cur := decodeSessions(current)
			delete(cur, key)
			return json.MarshalIndent(cur, "", "  ")
		})
		return Session{}, ErrUnauthenticated
	}

	return sess, nil
}

// Revoke removes the token from the collection. Idempotent: revoking an
// absent token is not an error.
func (m *SessionManager) Revoke(ctx context.Context, tok string) error {
	if tok == "" {
		return nil
	}
	err := m.store.Update(ctx, docstore.DocSessions, func(current []byte) ([]byte, error) {
		doc := decodeSessions(current)
		delete(doc, token.HashSHA256Hex(tok))
		return json.MarshalIndent(doc, "", "  ")
	})
	if err != nil {
		return OpError{Op: "auth.sessions.revoke", Kind: err}
	}
	return nil
}

// RevokeOthers removes every session except keep. Used after a credential
// change so stolen or forgotten sessions do not outlive the old password.
func (m *SessionManager) RevokeOthers(ctx context.Context, keep string) error {
	err := m.store.Update(ctx, docstore.DocSessions, func(current []byte) ([]byte, error) {
		doc := decodeSessions(current)
		next := sessionDoc{}
		key := token.HashSHA256Hex(keep)
		if sess, ok := doc[key]; ok {
			next[key] = sess
		}
		return json.MarshalIndent(next, "", "  ")
	})
	if err != nil {
		return OpError{Op: "auth.sessions.revoke_others", Kind: err}
	}
	return nil
}
