package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCachePath(t *testing.T) {
	testEnv(t)
	out, err := runCLI(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	want := filepath.Join(os.Getenv("XDG_CACHE_HOME"), "stegaplots")
	if strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", strings.TrimSpace(out), want)
	}
}

func TestCacheClear(t *testing.T) {
	testEnv(t)
	dir := filepath.Join(os.Getenv("XDG_CACHE_HOME"), "stegaplots")

	out, err := runCLI(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(out, "Cache is empty") {
		t.Errorf("clear on missing dir = %q", out)
	}

	entry := filepath.Join(dir, "ab", "cdef.json")
	if err := os.MkdirAll(filepath.Dir(entry), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, entry, `{"data":null}`)

	out, err = runCLI(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(out, "Cleared cache") {
		t.Errorf("clear output = %q", out)
	}
	if _, err := os.Stat(entry); !os.IsNotExist(err) {
		t.Error("cache entry survived clear")
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Error("cache dir should be recreated empty")
	}
}
