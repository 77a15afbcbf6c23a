package vision

// laplacian применяет ядро [0 1 0; 1 -4 1; 0 1 0] с отражением края
// без повтора граничного пикселя (…cb|abcd|cb…).
func laplacian(g *grayImage) []float64 {
	out := make([]float64, g.w*g.h)
	for y := 0; y < g.h; y++ {
		up, down := reflect101(y-1, g.h), reflect101(y+1, g.h)
		for x := 0; x < g.w; x++ {
			left, right := reflect101(x-1, g.w), reflect101(x+1, g.w)
			v := int(g.at(x, up)) + int(g.at(x, down)) +
				int(g.at(left, y)) + int(g.at(right, y)) - 4*int(g.at(x, y))
			out[y*g.w+x] = float64(v)
		}
	}
	return out
}

func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		} else {
			i = 2*(n-1) - i
		}
	}
	return i
}
