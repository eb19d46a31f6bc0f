package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wireline-rpc/wireline/transport"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Kind != KindStdio {
		t.Errorf("kind = %q, want stdio", cfg.Kind)
	}
}

func TestLoadAndValidate(t *testing.T) {
	path := writeFile(t, t.TempDir(), "wireline.toml", `
kind = "socket"
port = 9257
encoding = "utf-16le"
max_inflight = 8
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Kind != KindSocket || cfg.Port != 9257 {
		t.Errorf("cfg = %+v, want socket:9257", cfg)
	}
	if cfg.ChannelEncoding() != transport.UTF16LE {
		t.Errorf("encoding = %q, want utf-16le", cfg.ChannelEncoding())
	}
	if cfg.MaxInflight != 8 {
		t.Errorf("max_inflight = %d, want 8", cfg.MaxInflight)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown kind", `kind = "carrier-pigeon"`},
		{"bad encoding", `kind = "stdio"` + "\n" + `encoding = "utf-32"`},
		{"port out of range", `kind = "socket"` + "\n" + `port = 123456`},
		{"websocket without address", `kind = "websocket"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "bad.toml", tc.content)
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEnsureAddressGeneratesPipeName(t *testing.T) {
	cfg := &Config{Kind: KindPipe, PipePrefix: "cfgtest"}
	addr, err := cfg.EnsureAddress()
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if addr == "" || !strings.Contains(addr, "cfgtest-") {
		t.Errorf("address %q does not carry the configured prefix", addr)
	}
	again, err := cfg.EnsureAddress()
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if again != addr {
		t.Errorf("EnsureAddress regenerated: %q then %q", addr, again)
	}
}

func TestStoreSwapNotifiesListeners(t *testing.T) {
	store := NewStore(Default())

	var gotOld, gotNew *Config
	store.OnChange(func(old, new_ *Config) {
		gotOld, gotNew = old, new_
	})

	next := &Config{Kind: KindSocket, Port: 1234}
	store.Swap(next)

	if gotOld == nil || gotOld.Kind != KindStdio {
		t.Errorf("old config = %+v, want stdio default", gotOld)
	}
	if gotNew != next {
		t.Errorf("new config = %+v, want %+v", gotNew, next)
	}
	if store.Get() != next {
		t.Error("Get does not return the swapped config")
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "wireline.toml", `kind = "stdio"`)

	store := NewStore(Default())
	w, err := NewWatcher(path, store, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	defer w.Close()

	writeFile(t, dir, "wireline.toml", `
kind = "socket"
port = 4444
`)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cfg := store.Get(); cfg.Kind == KindSocket && cfg.Port == 4444 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("config never reloaded; current: %+v", store.Get())
}
