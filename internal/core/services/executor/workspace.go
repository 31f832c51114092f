package executor

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"gitlab.com/codemark.net/internal/domain"
)

// workspaces hands out scratch directories on the host filesystem and fills
// them from the media store
type workspaces struct {
	fs    afero.Fs
	media afero.Fs
	root  string
}

func (w *workspaces) acquire(resultID uuid.UUID, level int) (string, error) {
	if w.root != "" {
		if err := w.fs.MkdirAll(w.root, 0o755); err != nil {
			return "", fmt.Errorf("failed to create workspace root: %w", err)
		}
	}
	dir, err := afero.TempDir(w.fs, w.root, fmt.Sprintf("codemark-%s-%d-", resultID, level))
	if err != nil {
		return "", fmt.Errorf("failed to create workspace: %w", err)
	}
	// containers may run as any user
	if err := w.fs.Chmod(dir, 0o777); err != nil {
		if rmErr := w.fs.RemoveAll(dir); rmErr != nil {
			return "", errors.Join(fmt.Errorf("failed to open workspace permissions: %w", err), rmErr)
		}
		return "", fmt.Errorf("failed to open workspace permissions: %w", err)
	}
	return dir, nil
}

// populate copies fixture files first and submission files second, so a
// submitted file replaces a fixture file of the same name
func (w *workspaces) populate(dir string, fixture *domain.Fixture, files []domain.File) error {
	if fixture != nil {
		for _, f := range fixture.Files {
			if err := w.copyFile(dir, f); err != nil {
				return err
			}
		}
	}
	for _, f := range files {
		if err := w.copyFile(dir, f); err != nil {
			return err
		}
	}
	return nil
}

func (w *workspaces) copyFile(dir string, f domain.File) error {
	src, err := w.media.Open(f.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Path, err)
	}
	defer src.Close()

	dst, err := w.fs.OpenFile(filepath.Join(dir, f.BaseName()), osCreateFlags, 0o666)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", f.BaseName(), err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to copy %s: %w", f.BaseName(), err)
	}
	return dst.Close()
}

func (w *workspaces) release(dir string) error {
	return w.fs.RemoveAll(dir)
}
