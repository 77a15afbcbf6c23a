package app

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"defect-inspector/internal/domain"
	"defect-inspector/internal/domain/entity"
)

// memoryModels репозиторий моделей в памяти.
type memoryModels struct {
	model   *entity.TrainedModel
	saveErr error
}

func (r *memoryModels) Load(context.Context) (*entity.TrainedModel, error) {
	if r.model == nil {
		return nil, domain.ErrModelNotTrained
	}
	return r.model, nil
}

func (r *memoryModels) Save(_ context.Context, m *entity.TrainedModel) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.model = m
	return nil
}

// syntheticSet два плотных облака признаков вокруг разных профилей.
func syntheticSet(n int) *entity.SampleSet {
	rng := rand.New(rand.NewPCG(3, 0))
	set := entity.NewSampleSet()
	set.Extractor = "native"
	profile := map[entity.Label][]float64{
		entity.LabelGood: {200, 5, 1, 10},
		entity.LabelBad:  {90, 60, 40, 900},
	}
	for _, l := range entity.Labels {
		for i := 0; i < n; i++ {
			v := make(entity.FeatureVector, len(profile[l]))
			for j, c := range profile[l] {
				v[j] = c + rng.NormFloat64()
			}
			set.Append(l, v)
		}
	}
	return set
}

func TestTrainer_Train(t *testing.T) {
	repo := &memoryModels{}
	trainer := NewTrainer(repo, 30, 42)
	trainer.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600)) }

	set := syntheticSet(15)
	before := set.Snapshot()

	model, accuracy, err := trainer.Train(context.Background(), set)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, accuracy, 0.95)
	assert.Same(t, model, repo.model)
	assert.Equal(t, 4, model.FeatureLength)
	assert.Equal(t, "native", model.Extractor)
	assert.Equal(t, time.UTC, model.TrainedAt.Location())
	assert.Equal(t, 30, model.Forest.Size())
	assert.Equal(t, before, set)
}

func TestTrainer_DefaultTrees(t *testing.T) {
	trainer := NewTrainer(&memoryModels{}, 0, 42)
	assert.Equal(t, 100, trainer.trees)
}

func TestTrainer_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty class", func(t *testing.T) {
		set := syntheticSet(2)
		set.Truncate(entity.LabelGood, 0)

		_, _, err := NewTrainer(&memoryModels{}, 5, 42).Train(ctx, set)
		var insufficient *domain.InsufficientDataError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, []entity.Label{entity.LabelGood}, insufficient.Empty)
		assert.Contains(t, err.Error(), "need samples from both classes")
	})

	t.Run("model not persisted", func(t *testing.T) {
		repo := &memoryModels{saveErr: &domain.IOError{Op: "persist model", Err: errors.New("disk full")}}
		_, _, err := NewTrainer(repo, 5, 42).Train(ctx, syntheticSet(3))
		require.ErrorIs(t, err, domain.ErrIO)
		assert.Nil(t, repo.model)
	})

	t.Run("ragged vectors", func(t *testing.T) {
		set := syntheticSet(2)
		set.Append(entity.LabelBad, entity.FeatureVector{1, 2})
		_, _, err := NewTrainer(&memoryModels{}, 5, 42).Train(ctx, set)
		require.ErrorIs(t, err, domain.ErrIncompatibleFeatures)
	})
}

func TestTrainingMatrix_RowOrder(t *testing.T) {
	set := entity.NewSampleSet()
	set.Append(entity.LabelBad, entity.FeatureVector{3, 3})
	set.Append(entity.LabelGood, entity.FeatureVector{1, 1})
	set.Append(entity.LabelGood, entity.FeatureVector{2, 2})

	x, y, err := trainingMatrix(set)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, x.RawRowView(0))
	assert.Equal(t, []float64{2, 2}, x.RawRowView(1))
	assert.Equal(t, []float64{3, 3}, x.RawRowView(2))
	assert.Equal(t, []int{entity.LabelGood.Index(), entity.LabelGood.Index(), entity.LabelBad.Index()}, y)
}
