package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"defect-inspector/internal/domain/port"
)

// PostgresBlobStore хранит блобы в PostgreSQL.
type PostgresBlobStore struct {
	conn *pgx.Conn
}

// NewPostgresBlobStore подключается к базе и создаёт таблицу, если её нет.
func NewPostgresBlobStore(ctx context.Context, connString string) (*PostgresBlobStore, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &PostgresBlobStore{conn: conn}, nil
}

func initSchema(ctx context.Context, conn *pgx.Conn) error {
	_, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS defectd_blobs (
			key TEXT PRIMARY KEY,
			data BYTEA NOT NULL,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	return err
}

func (s *PostgresBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.conn.QueryRow(ctx, "SELECT data FROM defectd_blobs WHERE key = $1", key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Put заменяет блоб одним оператором, что атомарно само по себе.
func (s *PostgresBlobStore) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO defectd_blobs (key, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`, key, data)
	return err
}

func (s *PostgresBlobStore) Close() error {
	// основной контекст к этому моменту может быть отменён
	return s.conn.Close(context.Background())
}

// Проверка реализации интерфейса
var _ port.BlobStore = (*PostgresBlobStore)(nil)
