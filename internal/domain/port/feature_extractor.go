package port

import (
	"image"

	"defect-inspector/internal/domain/entity"
)

// FeatureExtractor интерфейс извлечения признаков из ROI
type FeatureExtractor interface {
	// Name идентифицирует семантику признаков; векторы разных экстракторов несравнимы
	Name() string

	// Bins количество бинов гистограммы
	Bins() int

	// Extract вырезает ROI, переводит в оттенки серого и считает вектор признаков
	Extract(img image.Image, roi entity.ROI) (entity.FeatureVector, error)
}
