package entity

import "math"

// DefaultHistogramBins количество бинов гистограммы яркости по умолчанию.
const DefaultHistogramBins = 32

// ScalarFeatures количество скалярных статистик в начале вектора:
// средняя яркость, СКО яркости, плотность границ, текстура.
const ScalarFeatures = 4

// Индексы скалярных признаков.
const (
	FeatureMeanIntensity = iota
	FeatureStdIntensity
	FeatureEdgeDensity
	FeatureTexture
)

// FeatureVector признаки ROI в фиксированном порядке:
// четыре скаляра, затем нормированная гистограмма.
type FeatureVector []float64

// FeatureLength длина вектора для гистограммы из bins бинов.
func FeatureLength(bins int) int {
	return ScalarFeatures + bins
}

// Histogram возвращает хвост вектора с гистограммой.
func (v FeatureVector) Histogram() []float64 {
	if len(v) < ScalarFeatures {
		return nil
	}
	return v[ScalarFeatures:]
}

// Finite сообщает, что в векторе нет NaN и бесконечностей.
func (v FeatureVector) Finite() bool {
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Clone возвращает независимую копию вектора.
func (v FeatureVector) Clone() FeatureVector {
	out := make(FeatureVector, len(v))
	copy(out, v)
	return out
}
