package entity

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestROICenter(t *testing.T) {
	r := ROI{X: 10, Y: 20, Width: 8, Height: 6}
	x, y := r.Center()
	require.Equal(t, 14, x)
	require.Equal(t, 23, y)
	require.Equal(t, 48, r.Area())
}

func TestROIFits(t *testing.T) {
	tests := []struct {
		name string
		roi  ROI
		want bool
	}{
		{"full frame", ROI{Width: 100, Height: 50}, true},
		{"inner", ROI{X: 10, Y: 10, Width: 20, Height: 20}, true},
		{"touches right edge", ROI{X: 90, Y: 0, Width: 10, Height: 50}, true},
		{"negative x", ROI{X: -1, Width: 10, Height: 10}, false},
		{"negative y", ROI{Y: -1, Width: 10, Height: 10}, false},
		{"zero width", ROI{Width: 0, Height: 10}, false},
		{"zero height", ROI{Width: 10, Height: 0}, false},
		{"overflows width", ROI{X: 91, Width: 10, Height: 10}, false},
		{"overflows height", ROI{Y: 41, Width: 10, Height: 10}, false},
		{"ends exactly at width", ROI{X: 50, Width: 50, Height: 1}, true},
		{"one past width", ROI{X: 50, Width: 51, Height: 1}, false},
		{"ends exactly at height", ROI{Y: 25, Width: 1, Height: 25}, true},
		{"one past height", ROI{Y: 25, Width: 1, Height: 26}, false},
		{"x plus width wraps", ROI{X: math.MaxInt - 5, Width: 10, Height: 10}, false},
		{"y plus height wraps", ROI{Y: math.MaxInt - 5, Width: 10, Height: 10}, false},
		{"huge width", ROI{X: 1, Width: math.MaxInt, Height: 10}, false},
		{"huge height", ROI{Y: 1, Width: 10, Height: math.MaxInt}, false},
		{"origin past image", ROI{X: 101, Width: 1, Height: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.roi.Fits(100, 50))
		})
	}
}

func TestROIRectHonoursBoundsOrigin(t *testing.T) {
	bounds := image.Rect(5, 7, 105, 57)
	r := ROI{X: 1, Y: 2, Width: 3, Height: 4}
	require.Equal(t, image.Rect(6, 9, 9, 13), r.Rect(bounds))
	require.Equal(t, ROI{Width: 100, Height: 50}, FullFrame(bounds))
}

func TestParseROI(t *testing.T) {
	r, err := ParseROI("10 20 30 40")
	require.NoError(t, err)
	require.Equal(t, ROI{X: 10, Y: 20, Width: 30, Height: 40}, r)

	r, err = ParseROI(" 1,2, 3,4 ")
	require.NoError(t, err)
	require.Equal(t, ROI{X: 1, Y: 2, Width: 3, Height: 4}, r)

	for _, bad := range []string{"", "1 2 3", "1 2 3 4 5", "a b c d"} {
		_, err := ParseROI(bad)
		require.Error(t, err, bad)
	}
}
