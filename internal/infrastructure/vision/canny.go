package vision

// tan(22.5°)
const tg22 = 0.4142135623730950488016887242097

// canny строит бинарную карту границ (0 или 255): Собель 3x3 с повтором
// краевых пикселей, L1-норма градиента, подавление немаксимумов и
// гистерезис с 8-связностью. Пиксель-кандидат должен иметь модуль градиента
// строго больше low, сильная граница строго больше high.
func canny(g *grayImage, low, high float64) []uint8 {
	w, h := g.w, g.h
	n := w * h
	dx := make([]int32, n)
	dy := make([]int32, n)
	mag := make([]int32, n)

	px := func(x, y int) int32 {
		x = clampInt(x, 0, w-1)
		y = clampInt(y, 0, h-1)
		return int32(g.at(x, y))
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := px(x+1, y-1) + 2*px(x+1, y) + px(x+1, y+1) -
				px(x-1, y-1) - 2*px(x-1, y) - px(x-1, y+1)
			gy := px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1) -
				px(x-1, y-1) - 2*px(x, y-1) - px(x+1, y-1)
			i := y*w + x
			dx[i], dy[i] = gx, gy
			mag[i] = absInt32(gx) + absInt32(gy)
		}
	}

	magAt := func(x, y int) int32 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	const (
		none = iota
		weak
		strong
	)
	lowT, highT := int32(low), int32(high)
	state := make([]uint8, n)
	stack := make([]int, 0, n/8+1)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			if m <= lowT {
				continue
			}

			xs := float64(absInt32(dx[i]))
			ys := float64(absInt32(dy[i]))
			tg22x := xs * tg22
			tg67x := tg22x + 2*xs

			var keep bool
			switch {
			case ys < tg22x:
				keep = m > magAt(x-1, y) && m >= magAt(x+1, y)
			case ys > tg67x:
				keep = m > magAt(x, y-1) && m >= magAt(x, y+1)
			default:
				s := 1
				if (dx[i] ^ dy[i]) < 0 {
					s = -1
				}
				keep = m > magAt(x-s, y-1) && m > magAt(x+s, y+1)
			}
			if !keep {
				continue
			}
			if m > highT {
				state[i] = strong
				stack = append(stack, i)
			} else {
				state[i] = weak
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for ny := y - 1; ny <= y+1; ny++ {
			for nx := x - 1; nx <= x+1; nx++ {
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if state[j] == weak {
					state[j] = strong
					stack = append(stack, j)
				}
			}
		}
	}

	edges := make([]uint8, n)
	for i, s := range state {
		if s == strong {
			edges[i] = 255
		}
	}
	return edges
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
