package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/muse/internal/config"
	"github.com/hpungsan/muse/internal/errors"
)

// withHome points HOME at a temp dir and creates ~/.muse/exports.
func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	exports := filepath.Join(home, ".muse", "exports")
	if err := os.MkdirAll(exports, 0700); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	return exports
}

func TestValidatePath_TraversalRejected(t *testing.T) {
	cfg := config.DefaultConfig()

	for _, path := range []string{
		"../backup.jsonl",
		"../../etc/backup.jsonl",
		"/tmp/../etc/backup.jsonl",
		"a/b/../../../c.jsonl",
	} {
		t.Run(path, func(t *testing.T) {
			if err := ValidatePath(path, PathCheckWrite, cfg); !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidatePath_ExtensionRequired(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true

	for _, path := range []string{"/tmp/backup", "/tmp/backup.json", "/tmp/backup.txt"} {
		t.Run(path, func(t *testing.T) {
			if err := ValidatePath(path, PathCheckWrite, cfg); !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidatePath_DirectoryRestriction(t *testing.T) {
	exports := withHome(t)
	cfg := config.DefaultConfig()

	if err := ValidatePath(filepath.Join(exports, "ok.jsonl"), PathCheckWrite, cfg); err != nil {
		t.Errorf("exports dir should be allowed: %v", err)
	}

	outside := filepath.Join(t.TempDir(), "backup.jsonl")
	if err := ValidatePath(outside, PathCheckWrite, cfg); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest outside allowed dirs, got: %v", err)
	}

	nested := filepath.Join(exports, "sub", "backup.jsonl")
	if err := ValidatePath(nested, PathCheckWrite, cfg); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest for nested path, got: %v", err)
	}
}

func TestValidatePath_AllowedPaths(t *testing.T) {
	withHome(t)
	extra := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{extra, "relative/ignored"}

	if err := ValidatePath(filepath.Join(extra, "backup.jsonl"), PathCheckWrite, cfg); err != nil {
		t.Errorf("allowed_paths entry should be allowed: %v", err)
	}
}

func TestValidatePath_AllowUnsafePaths(t *testing.T) {
	withHome(t)
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true

	path := filepath.Join(t.TempDir(), "deep", "backup.jsonl")
	if err := ValidatePath(path, PathCheckWrite, cfg); err != nil {
		t.Errorf("allow_unsafe_paths should allow any directory: %v", err)
	}
}

func TestValidatePath_FileNotFound_ReadMode(t *testing.T) {
	exports := withHome(t)

	err := ValidatePath(filepath.Join(exports, "missing.jsonl"), PathCheckRead, config.DefaultConfig())
	if !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got: %v", err)
	}
}

func TestValidatePath_SymlinkRejected_EvenWithUnsafePaths(t *testing.T) {
	exports := withHome(t)
	target := filepath.Join(t.TempDir(), "target.jsonl")
	if err := os.WriteFile(target, []byte("{}\n"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	link := filepath.Join(exports, "link.jsonl")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	cfg := config.DefaultConfig()
	if err := ValidatePath(link, PathCheckRead, cfg); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest for symlink, got: %v", err)
	}

	cfg.AllowUnsafePaths = true
	if err := ValidatePath(link, PathCheckWrite, cfg); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest for symlink with unsafe paths, got: %v", err)
	}
}

func TestContainsTraversal(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"backup.jsonl", false},
		{"/a/b/c.jsonl", false},
		{"..", true},
		{"../x.jsonl", true},
		{"/a/../b.jsonl", true},
		{"a..b.jsonl", false},
		{"/a/..hidden/b.jsonl", false},
	}
	for _, tt := range tests {
		if got := containsTraversal(tt.path); got != tt.want {
			t.Errorf("containsTraversal(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
