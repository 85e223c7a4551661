package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/promptdeck/internal/config"
	"github.com/hpungsan/promptdeck/internal/db"
	"github.com/hpungsan/promptdeck/internal/errors"
	"github.com/hpungsan/promptdeck/internal/library"
)

// ExportedAtLayout is the exportedAt timestamp format (UTC, millisecond precision).
const ExportedAtLayout = "2006-01-02T15:04:05.000Z"

// ExportFileOutput contains the result of ExportToFile.
type ExportFileOutput struct {
	Path       string `json:"path"`
	Folders    int    `json:"folders"`
	Prompts    int    `json:"prompts"`
	ExportedAt string `json:"exported_at"`
}

// ExportData snapshots the library with export metadata.
func (r *Repo) ExportData(ctx context.Context) (*library.ExportBundle, error) {
	state, _, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return &library.ExportBundle{
		SchemaVersion: library.SchemaVersion,
		ExportedAt:    r.now().UTC().Format(ExportedAtLayout),
		Folders:       state.Folders,
		Prompts:       state.Prompts,
		Settings:      state.Settings,
	}, nil
}

// ExportJSON returns the export bundle as indented JSON.
func (r *Repo) ExportJSON(ctx context.Context) (string, error) {
	bundle, err := r.ExportData(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return string(data), nil
}

// ExportToFile writes the export bundle to path, or to
// <base>/exports/promptdeck-<timestamp>.json when path is empty.
// The file is written to a temp file first and renamed into place.
func (r *Repo) ExportToFile(ctx context.Context, path string) (*ExportFileOutput, error) {
	bundle, err := r.ExportData(ctx)
	if err != nil {
		return nil, err
	}

	exportPath := path
	if exportPath == "" {
		dir, err := r.exportsDir()
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("promptdeck-%s.json", r.now().UTC().Format("2006-01-02T150405"))
		exportPath = filepath.Join(dir, name)
	}

	// Default paths go through the same checks as user paths
	if err := r.validatePath(exportPath, PathCheckWrite); err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := writeFileAtomic(exportPath, data); err != nil {
		return nil, err
	}

	r.logger.Info("library exported",
		zap.String("path", exportPath),
		zap.Int("prompts", len(bundle.Prompts)))
	return &ExportFileOutput{
		Path:       exportPath,
		Folders:    len(bundle.Folders),
		Prompts:    len(bundle.Prompts),
		ExportedAt: bundle.ExportedAt,
	}, nil
}

// exportsDir is <base>/exports, falling back to the user's base directory.
func (r *Repo) exportsDir() (string, error) {
	base := r.baseDir
	if base == "" {
		var err error
		base, err = config.BaseDir()
		if err != nil {
			return "", errors.NewInternal(err)
		}
	}
	return filepath.Join(base, db.ExportsDir), nil
}

// writeFileAtomic writes data beside path under a random temp name, syncs it, and
// renames it over path. An existing file at path survives any failure.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	suffix, err := gonanoid.New(12)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + suffix + ".tmp"

	file, err := openNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC|os.O_EXCL, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	if _, err := file.Write([]byte("\n")); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	// Close before rename (required on Windows)
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink planted after validation
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("path must not be a symlink")
	}

	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}
