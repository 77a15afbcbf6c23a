// Package ml содержит масштабатор признаков и случайный лес решающих деревьев.
package ml

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrEmptyInput = errors.New("ml: empty input")
	ErrNotFitted  = errors.New("ml: model is not fitted")
)

// DimensionError длина входа не совпадает с числом признаков модели.
type DimensionError struct {
	Got, Want int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("ml: got %d features, want %d", e.Got, e.Want)
}

// StandardScaler приводит каждый столбец к нулевому среднему и единичной дисперсии.
// Параметры считаются один раз при обучении и дальше только применяются.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitStandardScaler считает среднее и СКО (по генеральной совокупности) каждого столбца.
// Столбцы с нулевым разбросом получают масштаб 1.
func FitStandardScaler(x mat.Matrix) (*StandardScaler, error) {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return nil, ErrEmptyInput
	}

	s := &StandardScaler{
		Mean:  make([]float64, c),
		Scale: make([]float64, c),
	}
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, x)
		mean, std := stat.PopMeanStdDev(col, nil)
		s.Mean[j] = mean
		if std < 10*epsilon {
			std = 1
		}
		s.Scale[j] = std
	}
	return s, nil
}

const epsilon = 2.220446049250313e-16

// Features число признаков, на которых обучен масштабатор.
func (s *StandardScaler) Features() int {
	return len(s.Mean)
}

// Transform масштабирует один вектор.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if s == nil || len(s.Mean) == 0 {
		return nil, ErrNotFitted
	}
	if len(x) != len(s.Mean) {
		return nil, &DimensionError{Got: len(x), Want: len(s.Mean)}
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

// TransformMatrix масштабирует все строки матрицы.
func (s *StandardScaler) TransformMatrix(x mat.Matrix) (*mat.Dense, error) {
	if s == nil || len(s.Mean) == 0 {
		return nil, ErrNotFitted
	}
	r, c := x.Dims()
	if c != len(s.Mean) {
		return nil, &DimensionError{Got: c, Want: len(s.Mean)}
	}
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, x)
	return out, nil
}

// Valid проверяет целостность параметров после декодирования.
func (s *StandardScaler) Valid() error {
	if s == nil || len(s.Mean) == 0 {
		return ErrNotFitted
	}
	if len(s.Scale) != len(s.Mean) {
		return fmt.Errorf("ml: scaler has %d means and %d scales", len(s.Mean), len(s.Scale))
	}
	for j, v := range s.Scale {
		if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("ml: scaler column %d has invalid scale %v", j, v)
		}
	}
	return nil
}
