package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"coffeereg/internal/registration/models"
)

// FileStore writes uploads into a local directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Save(_ context.Context, registrationID string, up *models.Upload) (string, error) {
	name := registrationID + "-" + uuid.NewString() + extension(up)
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return "", fmt.Errorf("create attachment: %w", err)
	}
	if _, err := io.Copy(f, up.Content); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write attachment: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("close attachment: %w", err)
	}
	return backendFS + ":" + name, nil
}

// Delete removes a stored upload. Missing files are not an error.
func (s *FileStore) Delete(_ context.Context, ref string) error {
	backend, key, ok := splitRef(ref)
	if !ok || backend != backendFS || filepath.Base(key) != key {
		return fmt.Errorf("not a file attachment reference: %q", ref)
	}
	err := os.Remove(filepath.Join(s.dir, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}
