//go:build windows

package ops

import (
	"os"

	"github.com/hpungsan/muse/internal/errors"
)

// openFileNoFollow opens path normally; Windows has no O_NOFOLLOW.
// ValidatePath has already rejected symlinks.
func openFileNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	f, err := os.OpenFile(path, flag, perm)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, err
	}
	return f, nil
}

// openFileNoFollowRead opens path read-only.
func openFileNoFollowRead(path string) (*os.File, error) {
	return openFileNoFollow(path, os.O_RDONLY, 0)
}
