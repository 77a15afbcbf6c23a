package app

import (
	"context"
	"errors"

	"defect-inspector/internal/domain"
	"defect-inspector/internal/domain/entity"
	"defect-inspector/internal/domain/port"
)

// SampleStore держит набор образцов в памяти и синхронизирует его
// с долговременным хранилищем после каждого добавления.
type SampleStore struct {
	repo      port.SampleRepository
	extractor string
	set       *entity.SampleSet
}

// NewSampleStore создаёт хранилище образцов для экстрактора с именем extractor.
// Данные читаются при первом обращении.
func NewSampleStore(repo port.SampleRepository, extractor string) *SampleStore {
	return &SampleStore{repo: repo, extractor: extractor}
}

// Load перечитывает набор из репозитория.
func (s *SampleStore) Load(ctx context.Context) error {
	set, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	set.Normalize()
	s.set = set
	return nil
}

func (s *SampleStore) ensure(ctx context.Context) error {
	if s.set != nil {
		return nil
	}
	return s.Load(ctx)
}

// Add добавляет вектор к метке и сохраняет весь набор. Если сохранить
// не удалось, добавление откатывается и возвращается IOError.
func (s *SampleStore) Add(ctx context.Context, label entity.Label, v entity.FeatureVector) (int, error) {
	if label.Index() < 0 {
		return 0, domain.InvalidCommand("unknown label %q", label)
	}
	if err := s.ensure(ctx); err != nil {
		return 0, err
	}
	if err := s.checkCompatible(v); err != nil {
		return 0, err
	}

	prevExtractor := s.set.Extractor
	n := s.set.Append(label, v)
	s.set.Extractor = s.extractor

	if err := s.repo.Save(ctx, s.set); err != nil {
		s.set.Truncate(label, n-1)
		s.set.Extractor = prevExtractor
		if !errors.Is(err, domain.ErrIO) {
			err = &domain.IOError{Op: "persist samples", Err: err}
		}
		return 0, err
	}
	return n, nil
}

func (s *SampleStore) checkCompatible(v entity.FeatureVector) error {
	if s.set.Total() == 0 {
		return nil
	}
	if s.set.Extractor != "" && s.set.Extractor != s.extractor {
		return domain.Incompatible("stored samples were extracted by %q, current extractor is %q",
			s.set.Extractor, s.extractor)
	}
	if want := s.set.FeatureLength(); len(v) != want {
		return domain.Incompatible("feature vector has %d values, stored samples have %d", len(v), want)
	}
	return nil
}

// Counts возвращает количество образцов по классам.
func (s *SampleStore) Counts(ctx context.Context) (entity.Counts, error) {
	if err := s.ensure(ctx); err != nil {
		return entity.Counts{}, err
	}
	return s.set.Counts(), nil
}

// Snapshot возвращает независимую копию набора для обучения.
func (s *SampleStore) Snapshot(ctx context.Context) (*entity.SampleSet, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	return s.set.Snapshot(), nil
}
