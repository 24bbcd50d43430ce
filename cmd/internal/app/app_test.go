package app

import (
	"context"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"folio/cmd/internal/docstore"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.HTTPAddr != "0.0.0.0:8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.RateWindow != 60*time.Second || cfg.RateMax != 3 {
		t.Fatalf("rate defaults = %v/%d", cfg.RateWindow, cfg.RateMax)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("FOLIO_HTTP_ADDR", "127.0.0.1:9999")
	t.Setenv("FOLIO_RATE_MAX", "10")
	t.Setenv("FOLIO_ALLOWED_ORIGINS", "https://example.com, https://admin.example.com")

	cfg := LoadConfig()
	if cfg.HTTPAddr != "127.0.0.1:9999" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.RateMax != 10 {
		t.Fatalf("RateMax = %d", cfg.RateMax)
	}
	want := []string{"https://example.com", "https://admin.example.com"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Fatalf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestNewStoreFileMode(t *testing.T) {
	cfg := LoadConfig()
	cfg.DataDir = t.TempDir()
	log := slog.Default()

	store, pool, dbEnabled, err := newStore(context.Background(), cfg, log)
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	if dbEnabled || pool != nil {
		t.Fatal("file mode reported a database")
	}
	if _, ok := store.(*docstore.FileStore); !ok {
		t.Fatalf("store type = %T, want *docstore.FileStore", store)
	}
}

func TestNewWiresHandlers(t *testing.T) {
	cfg := LoadConfig()
	cfg.DataDir = t.TempDir()

	a, err := New(cfg, slog.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.authH == nil || a.contentH == nil || a.msgH == nil || a.gateH == nil || a.ws == nil {
		t.Fatal("handler left unwired")
	}
	if a.metrics == nil {
		t.Fatal("metrics not constructed")
	}
}

func TestOriginHosts(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "urls",
			in:   []string{"http://localhost:5173", "https://example.com"},
			want: []string{"localhost", "example.com"},
		},
		{
			name: "dedup",
			in:   []string{"http://localhost", "https://localhost:8443"},
			want: []string{"localhost"},
		},
		{
			name: "bare host",
			in:   []string{"example.com"},
			want: []string{"example.com"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := originHosts(tc.in); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("originHosts(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}
