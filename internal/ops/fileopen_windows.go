//go:build windows

package ops

import (
	"os"

	"github.com/hpungsan/promptdeck/internal/errors"
)

// openNoFollow opens path. Windows has no O_NOFOLLOW; validatePath has already refused
// symlinks, and creating one there needs elevated privileges.
// flag 0 opens read-only.
func openNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	f, err := os.OpenFile(path, flag, perm)
	if err != nil && flag == 0 && os.IsNotExist(err) {
		return nil, errors.NewFileNotFound(path)
	}
	return f, err
}
