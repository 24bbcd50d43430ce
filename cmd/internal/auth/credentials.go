package auth

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"folio/cmd/internal/docstore"
	"folio/cmd/security/password"
)

// Credential is the single admin account record. Exactly one instance exists;
// it is created on first use and never deleted.
type Credential struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at,omitzero"`
}

// CredentialStore reads and writes the credential document. A missing or
// corrupt document is replaced by the bootstrap default so the admin is never
// locked out of a fresh deployment.
type CredentialStore struct {
	store  docstore.Store
	hasher password.Hasher

	defaultUsername string
	defaultPassword string

	now func() time.Time
}

// NewCredentialStore wires a credential store over the document store.
func NewCredentialStore(store docstore.Store, hasher password.Hasher, defaultUsername, defaultPassword string) *CredentialStore {
	if strings.TrimSpace(defaultUsername) == "" {
		defaultUsername = "admin"
	}
	if defaultPassword == "" {
		defaultPassword = "123456"
	}
	return &CredentialStore{
		store:           store,
		hasher:          hasher,
		defaultUsername: defaultUsername,
		defaultPassword: defaultPassword,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Load returns the stored credential, bootstrapping the default record when
// the document is missing or unreadable.
func (s *CredentialStore) Load(ctx context.Context) (Credential, error) {
	raw, err := s.store.Read(ctx, docstore.DocCredentials)
	if err != nil {
		if docstore.IsNotFound(err) {
			return s.bootstrap(ctx)
		}
		return Credential{}, OpError{Op: "auth.credentials.load", Kind: err}
	}

	var cred Credential
	if err := json.Unmarshal(raw, &cred); err != nil ||
		strings.TrimSpace(cred.Username) == "" ||
		strings.TrimSpace(cred.PasswordHash) == "" {
		// Corrupt record: re-bootstrap rather than lock the admin out.
		return s.bootstrap(ctx)
	}
	return cred, nil
}

func (s *CredentialStore) bootstrap(ctx context.Context) (Credential, error) {
	hash, err := s.hasher.Hash(s.defaultPassword)
	if err != nil {
		return Credential{}, OpError{Op: "auth.credentials.bootstrap", Kind: err}
	}
	cred := Credential{
		Username:     s.defaultUsername,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.save(ctx, cred); err != nil {
		return Credential{}, err
	}
	return cred, nil
}

func (s *CredentialStore) save(ctx context.Context, cred Credential) error {
	raw, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return OpError{Op: "auth.credentials.save", Kind: err}
	}
	if err := s.store.Write(ctx, docstore.DocCredentials, raw); err != nil {
		return OpError{Op: "auth.credentials.save", Kind: err}
	}
	return nil
}

// Verify checks a username/password pair against the stored credential.
// Any mismatch, including storage trouble, collapses into
// ErrInvalidCredentials so login failures stay generic.
func (s *CredentialStore) Verify(ctx context.Context, username, plainPassword string) (Credential, error) {
	cred, err := s.Load(ctx)
	if err != nil {
		return Credential{}, ErrInvalidCredentials
	}
	if strings.TrimSpace(username) != cred.Username {
		return Credential{}, ErrInvalidCredentials
	}
	ok, err := s.hasher.Verify(cred.PasswordHash, plainPassword)
	if err != nil || !ok {
		return Credential{}, ErrInvalidCredentials
	}
	return cred, nil
}

// VerifyPassword checks a plaintext password against the stored credential
// without needing the username.
func (s *CredentialStore) VerifyPassword(ctx context.Context, plainPassword string) error {
	cred, err := s.Load(ctx)
	if err != nil {
		return ErrInvalidCredentials
	}
	ok, err := s.hasher.Verify(cred.PasswordHash, plainPassword)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}
	return nil
}

// UpdateInput describes a credential change. CurrentPassword is mandatory;
// at least one of NewUsername / NewPassword must be set.
type UpdateInput struct {
	CurrentPassword string
	NewUsername     string
	NewPassword     string
}

// Update verifies the current password and applies the requested changes.
// The new password is hashed before it ever touches the store.
func (s *CredentialStore) Update(ctx context.Context, in UpdateInput) (Credential, error) {
	if in.CurrentPassword == "" {
		return Credential{}, OpError{Op: "auth.credentials.update", Kind: ErrInvalidInput, Msg: "current password required"}
	}
	newUsername := strings.TrimSpace(in.NewUsername)
	if newUsername == "" && in.NewPassword == "" {
		return Credential{}, OpError{Op: "auth.credentials.update", Kind: ErrInvalidInput, Msg: "nothing to change"}
	}

	cred, err := s.Load(ctx)
	if err != nil {
		return Credential{}, err
	}
	ok, err := s.hasher.Verify(cred.PasswordHash, in.CurrentPassword)
	if err != nil || !ok {
		return Credential{}, ErrWrongPassword
	}

	if newUsername != "" {
		cred.Username = newUsername
	}
	if in.NewPassword != "" {
		hash, err := s.hasher.Hash(in.NewPassword)
		if err != nil {
			return Credential{}, OpError{Op: "auth.credentials.update", Kind: ErrInvalidInput, Msg: err.Error()}
		}
		cred.PasswordHash = hash
	}
	cred.UpdatedAt = s.now()

	if err := s.save(ctx, cred); err != nil {
		return Credential{}, err
	}
	return cred, nil
}
