package vision

import "image"

// Default hysteresis thresholds for the scanner's edge map.
const (
	DefaultCannyLow  = 80
	DefaultCannyHigh = 190
)

// tan(22.5°) in Q15, as used for gradient direction quantisation.
const tg22 = 13573

const (
	edgeNone = iota
	edgeWeak
	edgeStrong
)

// Canny runs a 3x3 Sobel / L1-gradient Canny transform over gray and returns
// a binary edge map (0 or 255) of the same size. Borders are replicated for
// the Sobel pass; magnitudes outside the frame count as zero.
type Canny struct {
	Low  float64
	High float64
}

// NewCanny returns a Canny transform with the scanner defaults.
func NewCanny() Canny {
	return Canny{Low: DefaultCannyLow, High: DefaultCannyHigh}
}

// Edges implements the scanner's edge detector contract.
func (c Canny) Edges(gray *image.Gray) *image.Gray {
	return CannyEdges(gray, c.Low, c.High)
}

// CannyEdges computes the edge map of gray with the given thresholds.
func CannyEdges(gray *image.Gray, low, high float64) *image.Gray {
	if low > high {
		low, high = high, low
	}
	lo, hi := int32(low), int32(high)

	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}

	px := func(x, y int) int32 {
		if x < 0 {
			x = 0
		} else if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		} else if y >= h {
			y = h - 1
		}
		return int32(gray.Pix[gray.PixOffset(b.Min.X+x, b.Min.Y+y)])
	}

	dx := make([]int32, w*h)
	dy := make([]int32, w*h)
	mag := make([]int32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := (px(x+1, y-1) + 2*px(x+1, y) + px(x+1, y+1)) -
				(px(x-1, y-1) + 2*px(x-1, y) + px(x-1, y+1))
			gy := (px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1)) -
				(px(x-1, y-1) + 2*px(x, y-1) + px(x+1, y-1))
			i := y*w + x
			dx[i], dy[i] = gx, gy
			mag[i] = abs32(gx) + abs32(gy)
		}
	}

	at := func(x, y int) int32 {
		if x < 0 || x >= w || y < 0 || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	state := make([]uint8, w*h)
	stack := make([]int, 0, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			if m <= lo {
				continue
			}

			gx, gy := dx[i], dy[i]
			ax := int64(abs32(gx))
			ay := int64(abs32(gy)) << 15
			tg22x := ax * tg22

			var keep bool
			switch {
			case ay < tg22x:
				keep = m > at(x-1, y) && m >= at(x+1, y)
			case ay > tg22x+(ax<<16):
				keep = m > at(x, y-1) && m >= at(x, y+1)
			default:
				s := 1
				if (gx ^ gy) < 0 {
					s = -1
				}
				keep = m > at(x-s, y-1) && m > at(x+s, y+1)
			}
			if !keep {
				continue
			}

			if m > hi {
				state[i] = edgeStrong
				stack = append(stack, i)
			} else {
				state[i] = edgeWeak
			}
		}
	}

	// hysteresis: grow strong edges through 8-connected weak pixels
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out.Pix[i] = 255

		x, y := i%w, i/w
		for ny := y - 1; ny <= y+1; ny++ {
			for nx := x - 1; nx <= x+1; nx++ {
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				j := ny*w + nx
				if state[j] == edgeWeak {
					state[j] = edgeStrong
					stack = append(stack, j)
				}
			}
		}
	}

	return out
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
