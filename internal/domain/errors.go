// Package domain содержит таксономию ошибок детектора дефектов.
package domain

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"defect-inspector/internal/domain/entity"
)

var (
	ErrOutOfBounds          = errors.New("roi out of bounds")
	ErrFeatureExtraction    = errors.New("feature extraction failed")
	ErrInsufficientData     = errors.New("insufficient training data")
	ErrModelNotTrained      = errors.New("model not trained yet and no saved model found")
	ErrIO                   = errors.New("i/o error")
	ErrInvalidCommand       = errors.New("invalid command")
	ErrIncompatibleFeatures = errors.New("incompatible feature semantics")
)

// OutOfBoundsError ROI не помещается в изображение.
type OutOfBoundsError struct {
	ROI    entity.ROI
	Bounds image.Rectangle
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("%s does not fit image %dx%d", e.ROI, e.Bounds.Dx(), e.Bounds.Dy())
}

func (e *OutOfBoundsError) Is(target error) bool { return target == ErrOutOfBounds }

// FeatureExtractionError ошибка вырезки, конвертации или расчёта признаков.
type FeatureExtractionError struct {
	ROI entity.ROI
	Err error
}

func (e *FeatureExtractionError) Error() string {
	return fmt.Sprintf("extract features for %s: %v", e.ROI, e.Err)
}

func (e *FeatureExtractionError) Is(target error) bool { return target == ErrFeatureExtraction }

func (e *FeatureExtractionError) Unwrap() error { return e.Err }

// InsufficientDataError обучение без образцов одного из классов.
type InsufficientDataError struct {
	Empty []entity.Label
}

func (e *InsufficientDataError) Error() string {
	names := make([]string, len(e.Empty))
	for i, l := range e.Empty {
		names[i] = string(l)
	}
	return fmt.Sprintf("not enough samples to train the model: no samples for %s; need samples from both classes",
		strings.Join(names, " and "))
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// IOError ошибка загрузки изображения или сохранения состояния.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Is(target error) bool { return target == ErrIO }

func (e *IOError) Unwrap() error { return e.Err }

// InvalidCommand оборачивает ошибку разбора запроса.
func InvalidCommand(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidCommand, fmt.Sprintf(format, args...))
}

// Incompatible сообщает о смешении признаков разных экстракторов.
func Incompatible(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIncompatibleFeatures, fmt.Sprintf(format, args...))
}

var kinds = []struct {
	err  error
	name string
}{
	{ErrOutOfBounds, "out_of_bounds"},
	{ErrFeatureExtraction, "feature_extraction"},
	{ErrInsufficientData, "insufficient_data"},
	{ErrModelNotTrained, "model_not_trained"},
	{ErrIncompatibleFeatures, "incompatible_features"},
	{ErrInvalidCommand, "invalid_command"},
	{ErrIO, "io"},
}

// KindOf возвращает стабильное имя вида ошибки для транспорта.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}
