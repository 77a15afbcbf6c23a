package app

import (
	"context"
	"image"

	"defect-inspector/internal/domain"
	"defect-inspector/internal/domain/entity"
	"defect-inspector/internal/domain/port"
)

// Predictor классифицирует ROI обученной моделью. Модель загружается
// из репозитория при первом запросе и кешируется.
type Predictor struct {
	models    port.ModelRepository
	extractor port.FeatureExtractor
	model     *entity.TrainedModel
}

// NewPredictor создаёт предиктор.
func NewPredictor(models port.ModelRepository, extractor port.FeatureExtractor) *Predictor {
	return &Predictor{models: models, extractor: extractor}
}

// Use заменяет модель в памяти, например сразу после обучения.
func (p *Predictor) Use(m *entity.TrainedModel) {
	p.model = m
}

// Model возвращает текущую модель, при необходимости загружая её.
func (p *Predictor) Model(ctx context.Context) (*entity.TrainedModel, error) {
	if p.model != nil {
		return p.model, nil
	}
	m, err := p.models.Load(ctx)
	if err != nil {
		return nil, err
	}
	p.model = m
	return m, nil
}

// Predict возвращает наиболее вероятный класс ROI и его вероятность.
func (p *Predictor) Predict(ctx context.Context, img image.Image, roi entity.ROI) (entity.Prediction, error) {
	m, err := p.Model(ctx)
	if err != nil {
		return entity.Prediction{}, err
	}
	if m.Extractor != "" && m.Extractor != p.extractor.Name() {
		return entity.Prediction{}, domain.Incompatible("model was trained on %q features, current extractor is %q",
			m.Extractor, p.extractor.Name())
	}
	if want := entity.FeatureLength(p.extractor.Bins()); m.FeatureLength != want {
		return entity.Prediction{}, domain.Incompatible("model expects %d features, extractor produces %d",
			m.FeatureLength, want)
	}

	v, err := p.extractor.Extract(img, roi)
	if err != nil {
		return entity.Prediction{}, err
	}
	scaled, err := m.Scaler.Transform(v)
	if err != nil {
		return entity.Prediction{}, domain.Incompatible("%v", err)
	}
	class, proba, err := m.Forest.Predict(scaled)
	if err != nil {
		return entity.Prediction{}, err
	}
	return entity.Prediction{Label: entity.LabelAt(class), Confidence: proba, ROI: roi}, nil
}
