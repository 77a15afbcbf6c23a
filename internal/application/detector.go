package app

import (
	"context"
	"image"
	"log/slog"
	"sync"

	"defect-inspector/internal/domain"
	"defect-inspector/internal/domain/entity"
	"defect-inspector/internal/domain/port"
)

// DetectorOptions параметры обучения.
type DetectorOptions struct {
	Trees int
	Seed  uint64
}

// Detector связывает извлечение признаков, хранилище образцов, обучение
// и классификацию. Все операции выполняются под одним мьютексом, так что
// долговременное состояние меняет только один запрос за раз.
type Detector struct {
	mu        sync.Mutex
	extractor port.FeatureExtractor
	samples   *SampleStore
	trainer   *Trainer
	predictor *Predictor
	log       *slog.Logger
}

// NewDetector создаёт детектор поверх репозиториев.
func NewDetector(
	extractor port.FeatureExtractor,
	samples port.SampleRepository,
	models port.ModelRepository,
	opts DetectorOptions,
	log *slog.Logger,
) *Detector {
	if log == nil {
		log = slog.Default()
	}
	return &Detector{
		extractor: extractor,
		samples:   NewSampleStore(samples, extractor.Name()),
		trainer:   NewTrainer(models, opts.Trees, opts.Seed),
		predictor: NewPredictor(models, extractor),
		log:       log,
	}
}

// Extractor возвращает используемый экстрактор признаков.
func (d *Detector) Extractor() port.FeatureExtractor {
	return d.extractor
}

// AddSample извлекает признаки ROI и добавляет их к метке.
// Возвращает количество образцов метки после добавления.
func (d *Detector) AddSample(ctx context.Context, img image.Image, label entity.Label, roi entity.ROI) (int, error) {
	if label.Index() < 0 {
		return 0, domain.InvalidCommand("unknown label %q", label)
	}
	v, err := d.extractor.Extract(img, roi)
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.samples.Add(ctx, label, v)
	if err != nil {
		return 0, err
	}
	d.log.Debug("sample added", "label", label, "roi", roi.String(), "area", roi.Area(), "count", n)
	return n, nil
}

// Train обучает новую модель на текущих образцах и делает её активной.
func (d *Detector) Train(ctx context.Context) (*entity.TrainedModel, float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	set, err := d.samples.Snapshot(ctx)
	if err != nil {
		return nil, 0, err
	}
	if set.Extractor != "" && set.Extractor != d.extractor.Name() {
		return nil, 0, domain.Incompatible("stored samples were extracted by %q, current extractor is %q",
			set.Extractor, d.extractor.Name())
	}
	if set.Extractor == "" {
		set.Extractor = d.extractor.Name()
	}

	model, accuracy, err := d.trainer.Train(ctx, set)
	if err != nil {
		return nil, 0, err
	}
	d.predictor.Use(model)
	d.log.Info("model trained",
		"accuracy", accuracy,
		"good", model.Counts.Good,
		"bad", model.Counts.Bad,
		"trees", model.Forest.Size(),
	)
	return model, accuracy, nil
}

// Predict классифицирует ROI изображения.
func (d *Detector) Predict(ctx context.Context, img image.Image, roi entity.ROI) (entity.Prediction, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, err := d.predictor.Predict(ctx, img, roi)
	if err != nil {
		return entity.Prediction{}, err
	}
	d.log.Debug("prediction", "label", p.Label, "confidence", p.Confidence, "roi", roi.String(), "area", roi.Area())
	return p, nil
}

// Counts возвращает количество образцов по классам.
func (d *Detector) Counts(ctx context.Context) (entity.Counts, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.samples.Counts(ctx)
}

// ModelInfo возвращает активную модель, при необходимости загружая её.
func (d *Detector) ModelInfo(ctx context.Context) (*entity.TrainedModel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.predictor.Model(ctx)
}
