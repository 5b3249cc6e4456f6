package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/muse/internal/config"
	"github.com/hpungsan/muse/internal/errors"
)

// PathCheckMode indicates whether the path check is for reading or writing.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // import
	PathCheckWrite                      // export
)

// ValidatePath checks an import/export path:
// 1. No ".." components
// 2. .jsonl extension
// 3. File sits directly in ~/.muse/exports or an allowed_paths entry (unless allow_unsafe_paths)
// 4. Neither the file nor its parent directory is a symlink
//
// Requiring the file to be directly inside an allowed directory leaves no
// intermediate directory that could be swapped for a symlink after the check;
// O_NOFOLLOW at open time covers the final component.
func ValidatePath(path string, mode PathCheckMode, cfg *config.Config) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if filepath.Ext(cleaned) != ".jsonl" {
		return errors.NewInvalidRequest("path must have .jsonl extension")
	}

	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	if cfg == nil || !cfg.AllowUnsafePaths {
		allowedDirs, err := allowedDirs(cfg)
		if err != nil {
			return err
		}
		parentDir := filepath.Dir(absPath)
		if !isDirectlyIn(parentDir, allowedDirs) {
			return errors.NewInvalidRequest(
				fmt.Sprintf("file must be directly in an allowed directory (no subdirectories); allowed: %v", allowedDirs))
		}
		if isSymlink(parentDir) {
			return errors.NewInvalidRequest("parent directory must not be a symlink")
		}
	}

	if mode == PathCheckRead {
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			return errors.NewFileNotFound(path)
		}
	}

	// Symlinked files are rejected even with allow_unsafe_paths.
	if isSymlink(absPath) {
		return errors.NewInvalidRequest("path must not be a symlink")
	}

	return nil
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// allowedDirs returns the exports directory plus absolute allowed_paths,
// with symlinked entries resolved to their targets.
func allowedDirs(cfg *config.Config) ([]string, error) {
	exportsDir, err := DefaultExportsDir()
	if err != nil {
		return nil, err
	}
	dirs := []string{exportsDir}
	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			if filepath.IsAbs(p) {
				dirs = append(dirs, filepath.Clean(p))
			}
		}
	}

	result := make([]string, 0, len(dirs))
	for _, d := range dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid allowed path: %v", err))
		}
		if isSymlink(abs) {
			resolved, err := filepath.EvalSymlinks(abs)
			if err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
			}
			abs = resolved
		}
		result = append(result, abs)
	}
	return result, nil
}

func isDirectlyIn(parentDir string, dirs []string) bool {
	parentDir = filepath.Clean(parentDir)
	for _, d := range dirs {
		if parentDir == filepath.Clean(d) {
			return true
		}
	}
	return false
}

// DefaultExportsDir returns ~/.muse/exports.
func DefaultExportsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("failed to get home directory: %w", err))
	}
	return filepath.Join(homeDir, ".muse", "exports"), nil
}

// containsTraversal reports whether any path component is "..".
// Forward slashes are checked on every platform since paths come from user input.
func containsTraversal(path string) bool {
	split := func(r rune) bool { return r == '/' || r == filepath.Separator }
	for _, part := range strings.FieldsFunc(path, split) {
		if part == ".." {
			return true
		}
	}
	return false
}
