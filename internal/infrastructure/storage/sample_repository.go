package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"defect-inspector/internal/domain"
	"defect-inspector/internal/domain/entity"
	"defect-inspector/internal/domain/port"
)

// Хорошо известные ключи двух долговременных артефактов.
const (
	SamplesKey = "training_data.json"
	ModelKey   = "model.json"
)

// corruptSuffix добавляется к ключу копии нечитаемого блоба.
const corruptSuffix = ".corrupt"

// SampleRepository хранит набор образцов одним JSON-блобом.
type SampleRepository struct {
	blobs port.BlobStore
	log   *slog.Logger
}

// NewSampleRepository создаёт репозиторий образцов.
func NewSampleRepository(blobs port.BlobStore, log *slog.Logger) *SampleRepository {
	if log == nil {
		log = slog.Default()
	}
	return &SampleRepository{blobs: blobs, log: log}
}

// Load возвращает сохранённый набор. Отсутствие данных и нечитаемые данные
// дают пустой набор; во втором случае исходный блоб копируется под ключ
// с суффиксом .corrupt, чтобы следующее сохранение его не уничтожило.
// Ошибка чтения из самого хранилища возвращается как есть.
func (r *SampleRepository) Load(ctx context.Context) (*entity.SampleSet, error) {
	data, err := r.blobs.Get(ctx, SamplesKey)
	if errors.Is(err, port.ErrBlobNotFound) {
		return entity.NewSampleSet(), nil
	}
	if err != nil {
		return nil, &domain.IOError{Op: "load samples", Path: SamplesKey, Err: err}
	}

	set, err := decodeSampleSet(data)
	if err != nil {
		r.log.Warn("sample store is corrupt, starting fresh", "key", SamplesKey, "error", err)
		if perr := r.blobs.Put(ctx, SamplesKey+corruptSuffix, data); perr != nil {
			r.log.Error("failed to preserve corrupt sample store", "error", perr)
		}
		return entity.NewSampleSet(), nil
	}
	return set, nil
}

// Save сериализует и атомарно заменяет весь набор.
func (r *SampleRepository) Save(ctx context.Context, set *entity.SampleSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode samples: %w", err)
	}
	if err := r.blobs.Put(ctx, SamplesKey, data); err != nil {
		return &domain.IOError{Op: "persist samples", Path: SamplesKey, Err: err}
	}
	return nil
}

func decodeSampleSet(data []byte) (*entity.SampleSet, error) {
	var set entity.SampleSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, err
	}
	if set.Samples == nil {
		return nil, errors.New("no samples section")
	}
	for label := range set.Samples {
		if _, err := entity.ParseLabel(string(label)); err != nil {
			return nil, err
		}
	}
	set.Normalize()

	length := set.FeatureLength()
	for _, label := range entity.Labels {
		for i, v := range set.Samples[label] {
			if len(v) != length {
				return nil, fmt.Errorf("%s sample %d has %d features, want %d", label, i, len(v), length)
			}
			if !v.Finite() {
				return nil, fmt.Errorf("%s sample %d has non-finite features", label, i)
			}
		}
	}
	return &set, nil
}

// Проверка реализации интерфейса
var _ port.SampleRepository = (*SampleRepository)(nil)
