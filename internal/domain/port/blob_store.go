package port

import (
	"context"
	"errors"
)

// ErrBlobNotFound возвращается, когда по ключу ничего не сохранено.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore интерфейс хранилища непрозрачных блобов
type BlobStore interface {
	// Get возвращает блоб по ключу или ErrBlobNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Put атомарно заменяет блоб по ключу
	Put(ctx context.Context, key string, data []byte) error

	// Close освобождает соединения
	Close() error
}
