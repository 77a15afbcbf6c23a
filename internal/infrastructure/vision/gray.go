package vision

import (
	"image"
	"image/color"
)

// grayImage 8-битная яркость в построчном порядке.
type grayImage struct {
	w, h int
	pix  []uint8
}

func (g *grayImage) at(x, y int) uint8 {
	return g.pix[y*g.w+x]
}

// toGray вырезает rect и переводит в оттенки серого по формуле
// Y = 0.299R + 0.587G + 0.114B в целочисленном виде, как это делает OpenCV.
func toGray(img image.Image, rect image.Rectangle) *grayImage {
	g := &grayImage{w: rect.Dx(), h: rect.Dy()}
	g.pix = make([]uint8, g.w*g.h)

	if src, ok := img.(*image.Gray); ok {
		for y := 0; y < g.h; y++ {
			off := src.PixOffset(rect.Min.X, rect.Min.Y+y)
			copy(g.pix[y*g.w:(y+1)*g.w], src.Pix[off:off+g.w])
		}
		return g
	}

	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			c := color.NRGBAModel.Convert(img.At(rect.Min.X+x, rect.Min.Y+y)).(color.NRGBA)
			g.pix[y*g.w+x] = luma(c.R, c.G, c.B)
		}
	}
	return g
}

func luma(r, g, b uint8) uint8 {
	const (
		shift = 14
		rw    = 4899
		gw    = 9617
		bw    = 1868
	)
	return uint8((uint32(r)*rw + uint32(g)*gw + uint32(b)*bw + 1<<(shift-1)) >> shift)
}
