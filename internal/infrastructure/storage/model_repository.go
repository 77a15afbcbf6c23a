package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"defect-inspector/internal/domain"
	"defect-inspector/internal/domain/entity"
	"defect-inspector/internal/domain/port"
	"defect-inspector/internal/ml"
)

// ModelRepository хранит масштабатор и лес одним JSON-блобом, поэтому
// они всегда записываются и читаются вместе.
type ModelRepository struct {
	blobs port.BlobStore
}

// modelRecord формат блоба model.json.
type modelRecord struct {
	Extractor     string             `json:"extractor"`
	FeatureLength int                `json:"feature_length"`
	Scaler        *ml.StandardScaler `json:"scaler"`
	Forest        *ml.RandomForest   `json:"forest"`
	Accuracy      float64            `json:"accuracy"`
	Counts        entity.Counts      `json:"counts"`
	TrainedAt     time.Time          `json:"trained_at"`
}

func newModelRecord(m *entity.TrainedModel) (*modelRecord, error) {
	scaler, ok := m.Scaler.(*ml.StandardScaler)
	if !ok {
		return nil, fmt.Errorf("unsupported scaler %T", m.Scaler)
	}
	forest, ok := m.Forest.(*ml.RandomForest)
	if !ok {
		return nil, fmt.Errorf("unsupported classifier %T", m.Forest)
	}
	return &modelRecord{
		Extractor:     m.Extractor,
		FeatureLength: m.FeatureLength,
		Scaler:        scaler,
		Forest:        forest,
		Accuracy:      m.Accuracy,
		Counts:        m.Counts,
		TrainedAt:     m.TrainedAt,
	}, nil
}

func (r *modelRecord) model() *entity.TrainedModel {
	return &entity.TrainedModel{
		Extractor:     r.Extractor,
		FeatureLength: r.FeatureLength,
		Scaler:        r.Scaler,
		Forest:        r.Forest,
		Accuracy:      r.Accuracy,
		Counts:        r.Counts,
		TrainedAt:     r.TrainedAt,
	}
}

// NewModelRepository создаёт репозиторий модели.
func NewModelRepository(blobs port.BlobStore) *ModelRepository {
	return &ModelRepository{blobs: blobs}
}

// Load читает модель. Если модели нет или она нечитаема, возвращает domain.ErrModelNotTrained.
func (r *ModelRepository) Load(ctx context.Context) (*entity.TrainedModel, error) {
	data, err := r.blobs.Get(ctx, ModelKey)
	if errors.Is(err, port.ErrBlobNotFound) {
		return nil, domain.ErrModelNotTrained
	}
	if err != nil {
		return nil, &domain.IOError{Op: "load model", Path: ModelKey, Err: err}
	}

	var rec modelRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: saved model is unreadable: %v", domain.ErrModelNotTrained, err)
	}
	if err := rec.validate(); err != nil {
		return nil, fmt.Errorf("%w: saved model is invalid: %v", domain.ErrModelNotTrained, err)
	}
	return rec.model(), nil
}

// Save атомарно заменяет сохранённую модель.
func (r *ModelRepository) Save(ctx context.Context, m *entity.TrainedModel) error {
	rec, err := newModelRecord(m)
	if err != nil {
		return fmt.Errorf("refusing to save model: %w", err)
	}
	if err := rec.validate(); err != nil {
		return fmt.Errorf("refusing to save model: %w", err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if err := r.blobs.Put(ctx, ModelKey, data); err != nil {
		return &domain.IOError{Op: "persist model", Path: ModelKey, Err: err}
	}
	return nil
}

func (r *modelRecord) validate() error {
	if err := r.Scaler.Valid(); err != nil {
		return err
	}
	if err := r.Forest.Valid(); err != nil {
		return err
	}
	if r.Scaler.Features() != r.FeatureLength || r.Forest.NumFeatures != r.FeatureLength {
		return fmt.Errorf("feature length mismatch: model %d, scaler %d, forest %d",
			r.FeatureLength, r.Scaler.Features(), r.Forest.NumFeatures)
	}
	if r.Forest.NumClasses != len(entity.Labels) {
		return fmt.Errorf("forest has %d classes, want %d", r.Forest.NumClasses, len(entity.Labels))
	}
	return nil
}

// Проверка реализации интерфейсов
var (
	_ port.ModelRepository = (*ModelRepository)(nil)
	_ entity.Scaler        = (*ml.StandardScaler)(nil)
	_ entity.Classifier    = (*ml.RandomForest)(nil)
)
