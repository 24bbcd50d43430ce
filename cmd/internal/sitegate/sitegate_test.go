package sitegate

import (
	"context"
	"errors"
	"testing"

	"folio/cmd/internal/docstore"
)

type stubVerifier struct {
	password string
}

func (v stubVerifier) VerifyPassword(_ context.Context, plain string) error {
	if plain == v.password {
		return nil
	}
	return errors.New("invalid_credentials")
}

func newTestGate(t *testing.T) (*Service, *docstore.FileStore) {
	t.Helper()
	store, err := docstore.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return NewService(store, stubVerifier{password: "123456"}), store
}

func TestDisabledFlag(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestGate(t)

	if svc.Disabled(ctx) {
		t.Fatal("fresh site reports disabled")
	}
	if err := svc.Disable(ctx); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if !svc.Disabled(ctx) {
		t.Fatal("site not disabled after Disable")
	}
}

func TestNukeWipesDocuments(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestGate(t)

	if err := store.Write(ctx, docstore.DocSiteData, []byte(`{"profile":{}}`)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := svc.Nuke(ctx, "123456"); err != nil {
		t.Fatalf("Nuke: %v", err)
	}

	if _, err := store.Read(ctx, docstore.DocSiteData); !docstore.IsNotFound(err) {
		t.Fatalf("site data survived the nuke: err = %v", err)
	}
	if !svc.Disabled(ctx) {
		t.Fatal("no tombstone after nuke")
	}
}

func TestNukeRequiresCorrectPassword(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestGate(t)

	if err := store.Write(ctx, docstore.DocSiteData, []byte(`{"profile":{}}`)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tests := []string{"", "wrong"}
	for _, pass := range tests {
		if err := svc.Nuke(ctx, pass); !errors.Is(err, ErrWrongPassword) {
			t.Fatalf("Nuke(%q) err = %v, want ErrWrongPassword", pass, err)
		}
	}

	if _, err := store.Read(ctx, docstore.DocSiteData); err != nil {
		t.Fatalf("data lost despite failed nuke: %v", err)
	}
	if svc.Disabled(ctx) {
		t.Fatal("failed nuke left a tombstone")
	}
}

func TestVerifyLink(t *testing.T) {
	const canonical = "https://sponsor.example.com/landing"

	tests := []struct {
		name string
		href string
		want bool
	}{
		{name: "exact", href: "https://sponsor.example.com/landing", want: true},
		{name: "trailing slash", href: "https://sponsor.example.com/landing/", want: true},
		{name: "double trailing slash", href: "https://sponsor.example.com/landing//", want: true},
		{name: "padded", href: "  https://sponsor.example.com/landing  ", want: true},
		{name: "tampered", href: "https://evil.example.com/landing", want: false},
		{name: "empty", href: "", want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := VerifyLink(tc.href, canonical); got != tc.want {
				t.Fatalf("VerifyLink(%q) = %v, want %v", tc.href, got, tc.want)
			}
		})
	}

	// Empty never matches, not even an empty canonical.
	if VerifyLink("", "") {
		t.Fatal("empty href matched empty canonical")
	}
}
