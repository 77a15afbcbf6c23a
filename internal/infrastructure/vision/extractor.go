package vision

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"defect-inspector/internal/domain"
	"defect-inspector/internal/domain/entity"
	"defect-inspector/internal/domain/port"
)

// Пороги детектора границ по шкале яркости 0–255.
const (
	CannyLow  = 100
	CannyHigh = 200
)

// NativeName имя чистого Go-экстрактора.
const NativeName = "native"

// NativeExtractor считает признаки ROI без OpenCV.
type NativeExtractor struct {
	bins int
}

// NewNativeExtractor создаёт экстрактор с гистограммой из bins бинов.
func NewNativeExtractor(bins int) (*NativeExtractor, error) {
	if err := checkBins(bins); err != nil {
		return nil, err
	}
	return &NativeExtractor{bins: bins}, nil
}

func (e *NativeExtractor) Name() string { return NativeName }

func (e *NativeExtractor) Bins() int { return e.bins }

// Extract возвращает вектор: средняя яркость, СКО яркости, среднее карты
// границ Кэнни, дисперсия лапласиана и нормированная гистограмма яркости.
func (e *NativeExtractor) Extract(img image.Image, roi entity.ROI) (fv entity.FeatureVector, err error) {
	rect, err := cropRect(img, roi)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			fv, err = nil, &domain.FeatureExtractionError{ROI: roi, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	gray := toGray(img, rect)
	values := make([]float64, len(gray.pix))
	for i, p := range gray.pix {
		values[i] = float64(p)
	}

	mean, std := stat.PopMeanStdDev(values, nil)

	edges := canny(gray, CannyLow, CannyHigh)
	edgeSum := 0.0
	for _, v := range edges {
		edgeSum += float64(v)
	}
	edgeDensity := edgeSum / float64(len(edges))

	texture := stat.PopVariance(laplacian(gray), nil)

	hist, err := histogram(values, e.bins)
	if err != nil {
		return nil, &domain.FeatureExtractionError{ROI: roi, Err: err}
	}

	fv = make(entity.FeatureVector, 0, entity.FeatureLength(e.bins))
	fv = append(fv, mean, std, edgeDensity, texture)
	fv = append(fv, hist...)
	if !fv.Finite() {
		return nil, &domain.FeatureExtractionError{ROI: roi, Err: errors.New("non-finite feature value")}
	}
	return fv, nil
}

// histogram делит диапазон [0, 256) на bins равных бинов и нормирует
// счётчики на число пикселей.
func histogram(values []float64, bins int) ([]float64, error) {
	if len(values) == 0 {
		return nil, errors.New("empty crop")
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	dividers := floats.Span(make([]float64, bins+1), 0, 256)
	hist := stat.Histogram(nil, dividers, sorted, nil)
	floats.Scale(1/float64(len(values)), hist)
	return hist, nil
}

// cropRect проверяет ROI и переводит её в абсолютные координаты.
func cropRect(img image.Image, roi entity.ROI) (image.Rectangle, error) {
	if img == nil {
		return image.Rectangle{}, &domain.FeatureExtractionError{ROI: roi, Err: errors.New("nil image")}
	}
	b := img.Bounds()
	if !roi.Fits(b.Dx(), b.Dy()) {
		return image.Rectangle{}, &domain.OutOfBoundsError{ROI: roi, Bounds: b}
	}
	return roi.Rect(b), nil
}

func checkBins(bins int) error {
	if bins < 1 || bins > 256 {
		return fmt.Errorf("histogram bins must be in [1,256], got %d", bins)
	}
	return nil
}

// Проверка реализации интерфейса
var _ port.FeatureExtractor = (*NativeExtractor)(nil)
