package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"defect-inspector/internal/domain/entity"
)

var (
	colorGood = color.RGBA{G: 200, A: 255}
	colorBad  = color.RGBA{R: 230, A: 255}
)

// Annotate рисует рамку ROI и подпись "метка уверенность" и возвращает JPEG.
func Annotate(img image.Image, p entity.Prediction) ([]byte, error) {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	c := colorGood
	if p.Label == entity.LabelBad {
		c = colorBad
	}
	r := image.Rect(p.ROI.X, p.ROI.Y, p.ROI.X+p.ROI.Width, p.ROI.Y+p.ROI.Height).Intersect(dst.Bounds())
	thickness := max(1, min(b.Dx(), b.Dy())/200)
	strokeRect(dst, r, c, thickness)

	caption := fmt.Sprintf("%s %.2f", p.Label, p.Confidence)
	face := basicfont.Face7x13
	y := r.Min.Y - 3
	if y < face.Ascent {
		y = r.Max.Y + face.Ascent + 2
	}
	// подпись центрируется над областью и не выходит за кадр
	cx, _ := p.ROI.Center()
	textWidth := font.MeasureString(face, caption).Ceil()
	x := max(0, min(cx-textWidth/2, b.Dx()-textWidth))
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(caption)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func strokeRect(dst *image.RGBA, r image.Rectangle, c color.Color, t int) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
}
