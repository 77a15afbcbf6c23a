package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"defect-inspector/internal/domain/port"
)

// RedisBlobStore хранит блобы как строки Redis без срока жизни.
type RedisBlobStore struct {
	client *redis.Client
	prefix string
}

// NewRedisBlobStore создаёт хранилище; ключи получают префикс prefix.
func NewRedisBlobStore(client *redis.Client, prefix string) *RedisBlobStore {
	return &RedisBlobStore{client: client, prefix: prefix}
}

// blobKey возвращает ключ Redis для блоба.
func (s *RedisBlobStore) blobKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

func (s *RedisBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.blobKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisBlobStore) Put(ctx context.Context, key string, data []byte) error {
	return s.client.Set(ctx, s.blobKey(key), data, 0).Err()
}

func (s *RedisBlobStore) Close() error {
	return s.client.Close()
}

// Проверка реализации интерфейса
var _ port.BlobStore = (*RedisBlobStore)(nil)
