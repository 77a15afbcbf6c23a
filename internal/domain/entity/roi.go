package entity

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// ROI задаёт прямоугольную область интереса в координатах изображения.
// Смещения считаются от левого верхнего угла изображения.
type ROI struct {
	X      int `json:"x"`      // координата X левого верхнего угла
	Y      int `json:"y"`      // координата Y левого верхнего угла
	Width  int `json:"width"`  // ширина области в пикселях
	Height int `json:"height"` // высота области в пикселях
}

// FullFrame возвращает ROI, покрывающую всё изображение.
func FullFrame(bounds image.Rectangle) ROI {
	return ROI{Width: bounds.Dx(), Height: bounds.Dy()}
}

// Center возвращает координаты центра области
func (r ROI) Center() (x, y int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Area возвращает площадь области в пикселях
func (r ROI) Area() int {
	return r.Width * r.Height
}

// Fits сообщает, лежит ли область целиком внутри изображения width x height.
// Сумма x+width не вычисляется: она может переполнить int.
func (r ROI) Fits(width, height int) bool {
	return r.X >= 0 && r.Y >= 0 &&
		r.Width > 0 && r.Height > 0 &&
		r.X <= width && r.Y <= height &&
		r.Width <= width-r.X && r.Height <= height-r.Y
}

// Rect переводит ROI в абсолютный прямоугольник с учётом начала bounds.
func (r ROI) Rect(bounds image.Rectangle) image.Rectangle {
	min := bounds.Min.Add(image.Pt(r.X, r.Y))
	return image.Rectangle{Min: min, Max: min.Add(image.Pt(r.Width, r.Height))}
}

func (r ROI) String() string {
	return fmt.Sprintf("roi(x=%d y=%d w=%d h=%d)", r.X, r.Y, r.Width, r.Height)
}

// ParseROI разбирает строку "x y w h"; числа разделяются пробелами или запятыми.
func ParseROI(s string) (ROI, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) != 4 {
		return ROI{}, fmt.Errorf("roi %q: want 4 numbers x y width height", s)
	}
	var v [4]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return ROI{}, fmt.Errorf("roi %q: %w", s, err)
		}
		v[i] = n
	}
	return ROI{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}
