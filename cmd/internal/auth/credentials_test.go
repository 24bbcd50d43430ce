package auth

import (
	"context"
	"errors"
	"testing"

	"folio/cmd/internal/docstore"
	"folio/cmd/security/password"
)

// testHasher trades hashing cost for test speed.
func testHasher() password.Hasher {
	return password.Hasher{
		Params: password.Params{
			MemoryKiB:   1024,
			Iterations:  1,
			Parallelism: 1,
			SaltLength:  16,
			KeyLength:   32,
		},
		MinLength: 6,
		MaxLength: 256,
	}
}

func newTestCredentials(t *testing.T) (*CredentialStore, *docstore.FileStore) {
	t.Helper()
	store := newTestStore(t)
	return NewCredentialStore(store, testHasher(), "admin", "123456"), store
}

func TestCredentialBootstrap(t *testing.T) {
	ctx := context.Background()
	creds, _ := newTestCredentials(t)

	cred, err := creds.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cred.Username != "admin" {
		t.Fatalf("username = %q, want admin", cred.Username)
	}
	if cred.PasswordHash == "" || cred.PasswordHash == "123456" {
		t.Fatal("bootstrap must store a hash, not the plaintext")
	}

	if _, err := creds.Verify(ctx, "admin", "123456"); err != nil {
		t.Fatalf("Verify bootstrap credential: %v", err)
	}
}

func TestCredentialVerifyFailuresAreGeneric(t *testing.T) {
	ctx := context.Background()
	creds, _ := newTestCredentials(t)

	tests := []struct {
		name     string
		username string
		pass     string
	}{
		{name: "wrong password", username: "admin", pass: "wrong-pass"},
		{name: "wrong username", username: "root", pass: "123456"},
		{name: "both wrong", username: "root", pass: "wrong-pass"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := creds.Verify(ctx, tc.username, tc.pass)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("Verify err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestCredentialRebootstrapOnCorruptDocument(t *testing.T) {
	ctx := context.Background()
	creds, store := newTestCredentials(t)

	if err := store.Write(ctx, docstore.DocCredentials, []byte(`{"username":""`)); err != nil {
		t.Fatalf("Write corrupt doc: %v", err)
	}

	cred, err := creds.Load(ctx)
	if err != nil {
		t.Fatalf("Load over corrupt doc: %v", err)
	}
	if cred.Username != "admin" {
		t.Fatalf("username = %q, want re-bootstrapped admin", cred.Username)
	}
	if _, err := creds.Verify(ctx, "admin", "123456"); err != nil {
		t.Fatalf("Verify after re-bootstrap: %v", err)
	}
}

func TestCredentialUpdate(t *testing.T) {
	ctx := context.Background()
	creds, _ := newTestCredentials(t)

	cred, err := creds.Update(ctx, UpdateInput{
		CurrentPassword: "123456",
		NewUsername:     "navid",
		NewPassword:     "correct horse battery",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if cred.Username != "navid" {
		t.Fatalf("username = %q, want navid", cred.Username)
	}
	if cred.UpdatedAt.IsZero() {
		t.Fatal("UpdatedAt not stamped")
	}

	if _, err := creds.Verify(ctx, "navid", "correct horse battery"); err != nil {
		t.Fatalf("Verify new credential: %v", err)
	}
	if _, err := creds.Verify(ctx, "admin", "123456"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old credential still valid: err = %v", err)
	}
}

func TestCredentialUpdateWrongCurrentPassword(t *testing.T) {
	ctx := context.Background()
	creds, _ := newTestCredentials(t)

	_, err := creds.Update(ctx, UpdateInput{
		CurrentPassword: "not-the-password",
		NewPassword:     "whatever-new",
	})
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("Update err = %v, want ErrWrongPassword", err)
	}

	// The stored credential must be untouched.
	if _, err := creds.Verify(ctx, "admin", "123456"); err != nil {
		t.Fatalf("original credential broken after failed update: %v", err)
	}
}

func TestCredentialUpdateValidatesInput(t *testing.T) {
	ctx := context.Background()
	creds, _ := newTestCredentials(t)

	tests := []struct {
		name string
		in   UpdateInput
	}{
		{name: "missing current password", in: UpdateInput{NewPassword: "whatever-new"}},
		{name: "nothing to change", in: UpdateInput{CurrentPassword: "123456"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := creds.Update(ctx, tc.in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Update err = %v, want ErrInvalidInput", err)
			}
		})
	}
}
