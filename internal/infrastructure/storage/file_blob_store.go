package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"defect-inspector/internal/domain/port"
)

// FileBlobStore хранит каждый блоб отдельным файлом в каталоге.
// Запись идёт во временный файл с последующим переименованием, поэтому
// читатель видит либо старое, либо новое содержимое целиком.
type FileBlobStore struct {
	dir string
}

// NewFileBlobStore создаёт хранилище в каталоге dir.
func NewFileBlobStore(dir string) *FileBlobStore {
	if dir == "" {
		dir = "."
	}
	return &FileBlobStore{dir: dir}
}

// Path возвращает путь к файлу блоба.
func (s *FileBlobStore) Path(key string) string {
	return filepath.Join(s.dir, key)
}

func (s *FileBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, port.ErrBlobNotFound
	}
	return data, err
}

func (s *FileBlobStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, s.Path(key)); err != nil {
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

func (s *FileBlobStore) Close() error { return nil }

// Проверка реализации интерфейса
var _ port.BlobStore = (*FileBlobStore)(nil)
