//go:build !windows

package ops

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/hpungsan/promptdeck/internal/errors"
)

// openNoFollow opens path with O_NOFOLLOW so a symlink in the final component is refused
// by the kernel. Directory components are covered by validatePath, which only accepts
// files sitting directly in an allowed directory.
// flag 0 opens read-only.
func openNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	fd, err := syscall.Open(path, flag|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, uint32(perm))
	if err == nil {
		return os.NewFile(uintptr(fd), path), nil
	}
	switch {
	case stderrors.Is(err, syscall.ELOOP):
		return nil, errors.NewInvalidRequest("path must not be a symlink")
	case flag == 0 && stderrors.Is(err, syscall.ENOENT):
		return nil, errors.NewFileNotFound(path)
	}
	return nil, &os.PathError{Op: "open", Path: path, Err: err}
}
