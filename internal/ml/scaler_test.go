package ml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestFitStandardScaler(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
		4, 5,
	})

	s, err := FitStandardScaler(x)
	require.NoError(t, err)
	require.NoError(t, s.Valid())
	require.Equal(t, 2, s.Features())

	assert.InDelta(t, 2.5, s.Mean[0], 1e-12)
	// СКО по генеральной совокупности: sqrt(1.25)
	assert.InDelta(t, math.Sqrt(1.25), s.Scale[0], 1e-12)
	// постоянный столбец не делится на ноль
	assert.Equal(t, 5.0, s.Mean[1])
	assert.Equal(t, 1.0, s.Scale[1])

	scaled, err := s.TransformMatrix(x)
	require.NoError(t, err)
	col := mat.Col(nil, 0, scaled)
	sum := 0.0
	for _, v := range col {
		sum += v
	}
	assert.InDelta(t, 0, sum, 1e-12)
	assert.Equal(t, 0.0, scaled.At(2, 1))

	row, err := s.Transform([]float64{2.5, 7})
	require.NoError(t, err)
	assert.InDelta(t, 0, row[0], 1e-12)
	assert.InDelta(t, 2, row[1], 1e-12)
}

func TestStandardScaler_Errors(t *testing.T) {
	var empty *StandardScaler
	_, err := empty.Transform([]float64{1})
	require.ErrorIs(t, err, ErrNotFitted)

	s := &StandardScaler{Mean: []float64{0, 0}, Scale: []float64{1, 1}}
	_, err = s.Transform([]float64{1})
	var dim *DimensionError
	require.ErrorAs(t, err, &dim)
	require.Equal(t, 2, dim.Want)

	broken := &StandardScaler{Mean: []float64{0}, Scale: []float64{0}}
	require.Error(t, broken.Valid())
}
