//go:build !gocv
// +build !gocv

package vision

import (
	"errors"
	"image"

	"defect-inspector/internal/domain/entity"
)

// GoCVName имя экстрактора на OpenCV.
const GoCVName = "gocv"

// GoCVExtractor заглушка для сборки без OpenCV.
type GoCVExtractor struct{}

// NewGoCVExtractor возвращает ошибку, если сборка без тега gocv.
func NewGoCVExtractor(bins int) (*GoCVExtractor, error) {
	_ = bins
	return nil, errors.New("gocv build tag is not enabled")
}

func (e *GoCVExtractor) Name() string { return GoCVName }

func (e *GoCVExtractor) Bins() int { return 0 }

// Extract возвращает ошибку, если сборка без тега gocv.
func (e *GoCVExtractor) Extract(img image.Image, roi entity.ROI) (entity.FeatureVector, error) {
	_ = img
	_ = roi
	return nil, errors.New("gocv build tag is not enabled")
}
