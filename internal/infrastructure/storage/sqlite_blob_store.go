package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"defect-inspector/internal/domain/port"
)

// BlobModel строка таблицы blobs.
type BlobModel struct {
	Name      string `gorm:"primaryKey;size:255"`
	Data      []byte `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName имя таблицы блобов.
func (BlobModel) TableName() string { return "blobs" }

// GormBlobStore хранит блобы в таблице через gorm.
type GormBlobStore struct {
	db *gorm.DB
}

// OpenSQLiteBlobStore открывает (и при необходимости создаёт) базу SQLite.
func OpenSQLiteBlobStore(path string) (*GormBlobStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return NewGormBlobStore(db)
}

// NewGormBlobStore создаёт хранилище поверх готового соединения и мигрирует таблицу.
func NewGormBlobStore(db *gorm.DB) (*GormBlobStore, error) {
	if err := db.AutoMigrate(&BlobModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return &GormBlobStore{db: db}, nil
}

func (s *GormBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var m BlobModel
	err := s.db.WithContext(ctx).Where("name = ?", key).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, port.ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}
	return m.Data, nil
}

// Put вставляет или целиком заменяет строку одним запросом.
func (s *GormBlobStore) Put(ctx context.Context, key string, data []byte) error {
	m := BlobModel{Name: key, Data: data, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&m).Error
}

func (s *GormBlobStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Проверка реализации интерфейса
var _ port.BlobStore = (*GormBlobStore)(nil)
