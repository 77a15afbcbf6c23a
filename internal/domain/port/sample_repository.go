package port

import (
	"context"

	"defect-inspector/internal/domain/entity"
)

// SampleRepository интерфейс долговременного хранения образцов
type SampleRepository interface {
	// Load возвращает сохранённые образцы; при отсутствии или порче данных возвращает пустой набор
	Load(ctx context.Context) (*entity.SampleSet, error)

	// Save целиком и атомарно сохраняет набор образцов
	Save(ctx context.Context, set *entity.SampleSet) error
}

// ModelRepository интерфейс хранения обученной модели
type ModelRepository interface {
	// Load возвращает модель или ошибку domain.ErrModelNotTrained
	Load(ctx context.Context) (*entity.TrainedModel, error)

	// Save атомарно сохраняет масштабатор и классификатор одним блобом
	Save(ctx context.Context, model *entity.TrainedModel) error
}
