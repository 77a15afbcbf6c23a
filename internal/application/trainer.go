package app

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"defect-inspector/internal/domain"
	"defect-inspector/internal/domain/entity"
	"defect-inspector/internal/domain/port"
	"defect-inspector/internal/ml"
)

// Trainer обучает масштабатор и случайный лес на снимке образцов.
type Trainer struct {
	models port.ModelRepository
	trees  int
	seed   uint64
	now    func() time.Time
}

// NewTrainer создаёт тренера. trees <= 0 означает ml.DefaultTrees.
func NewTrainer(models port.ModelRepository, trees int, seed uint64) *Trainer {
	if trees <= 0 {
		trees = ml.DefaultTrees
	}
	return &Trainer{models: models, trees: trees, seed: seed, now: time.Now}
}

// Train обучает модель и сохраняет её. Возвращаемая точность посчитана
// на обучающей выборке и завышена относительно новых данных.
// Набор образцов не изменяется.
func (t *Trainer) Train(ctx context.Context, set *entity.SampleSet) (*entity.TrainedModel, float64, error) {
	var empty []entity.Label
	for _, l := range []entity.Label{entity.LabelGood, entity.LabelBad} {
		if set.Len(l) == 0 {
			empty = append(empty, l)
		}
	}
	if len(empty) > 0 {
		return nil, 0, &domain.InsufficientDataError{Empty: empty}
	}

	x, y, err := trainingMatrix(set)
	if err != nil {
		return nil, 0, err
	}

	scaler, err := ml.FitStandardScaler(x)
	if err != nil {
		return nil, 0, fmt.Errorf("fit scaler: %w", err)
	}
	scaled, err := scaler.TransformMatrix(x)
	if err != nil {
		return nil, 0, fmt.Errorf("scale training matrix: %w", err)
	}

	forest := ml.NewRandomForest(t.trees, t.seed)
	if err := forest.Fit(ctx, scaled, y, len(entity.Labels)); err != nil {
		return nil, 0, fmt.Errorf("fit forest: %w", err)
	}
	accuracy, err := forest.Score(scaled, y)
	if err != nil {
		return nil, 0, fmt.Errorf("score forest: %w", err)
	}

	_, cols := x.Dims()
	model := &entity.TrainedModel{
		Extractor:     set.Extractor,
		FeatureLength: cols,
		Scaler:        scaler,
		Forest:        forest,
		Accuracy:      accuracy,
		Counts:        set.Counts(),
		TrainedAt:     t.now().UTC(),
	}
	if err := t.models.Save(ctx, model); err != nil {
		return nil, 0, err
	}
	return model, accuracy, nil
}

// trainingMatrix собирает X и y: сначала все good, затем все bad.
func trainingMatrix(set *entity.SampleSet) (*mat.Dense, []int, error) {
	cols := set.FeatureLength()
	rows := set.Total()
	x := mat.NewDense(rows, cols, nil)
	y := make([]int, 0, rows)

	r := 0
	for _, l := range []entity.Label{entity.LabelGood, entity.LabelBad} {
		for i, v := range set.Samples[l] {
			if len(v) != cols {
				return nil, nil, domain.Incompatible("%s sample %d has %d features, want %d", l, i, len(v), cols)
			}
			x.SetRow(r, v)
			y = append(y, l.Index())
			r++
		}
	}
	return x, y, nil
}
