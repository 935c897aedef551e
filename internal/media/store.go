package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("media not found")
	ErrInvalidHandle = errors.New("invalid media handle")
)

const maxSaveAttempts = 5

// FileStore keeps downloaded media as files under a root directory. Handles
// are bare file names relative to that root.
type FileStore struct {
	root string
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir %q: %w", root, err)
	}
	return &FileStore{root: root}, nil
}

// Save writes data to a new, uniquely named file and returns its handle.
func (s *FileStore) Save(data []byte) (string, error) {
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		handle := uuid.NewString()
		f, err := os.OpenFile(filepath.Join(s.root, handle), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create media file: %w", err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", fmt.Errorf("write media file: %w", err)
		}
		if err := f.Close(); err != nil {
			os.Remove(f.Name())
			return "", fmt.Errorf("close media file: %w", err)
		}
		return handle, nil
	}
	return "", fmt.Errorf("create media file: no free name after %d attempts", maxSaveAttempts)
}

func (s *FileStore) Read(handle string) ([]byte, error) {
	path, err := s.path(handle)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	if err != nil {
		return nil, fmt.Errorf("read media %s: %w", handle, err)
	}
	return data, nil
}

func (s *FileStore) Exists(handle string) (bool, error) {
	path, err := s.path(handle)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat media %s: %w", handle, err)
	}
	return info.Mode().IsRegular(), nil
}

// Delete removes the blob. Deleting a missing blob is not an error.
func (s *FileStore) Delete(handle string) error {
	path, err := s.path(handle)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete media %s: %w", handle, err)
	}
	return nil
}

func (s *FileStore) path(handle string) (string, error) {
	if handle == "" || handle == "." || handle == ".." || strings.ContainsAny(handle, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
	}
	return filepath.Join(s.root, handle), nil
}
