// Package vision holds the pixel-level primitives the scanner folds over:
// grayscale conversion, Canny edge maps and region statistics.
package vision

import (
	"image"
	"image/color"
)

// BT.601 luma weights in Q14 fixed point, rounded the way OpenCV's
// RGB2GRAY does for 8-bit input.
const (
	lumaR     = 4899
	lumaG     = 9617
	lumaB     = 1868
	lumaShift = 14
	lumaRound = 1 << (lumaShift - 1)
)

func luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*lumaR + uint32(g)*lumaG + uint32(b)*lumaB + lumaRound) >> lumaShift)
}

// Gray converts img into a zero-origin *image.Gray whose stride equals its width.
func Gray(img image.Image) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*w:(y+1)*w], src.Pix[off:off+w])
		}
	case *image.RGBA:
		// alpha is expected to be opaque for decoded video, so premultiplied == straight
		for y := 0; y < h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := src.Pix[off : off+4*w]
			dst := out.Pix[y*w : (y+1)*w]
			for x := range dst {
				dst[x] = luma(row[4*x], row[4*x+1], row[4*x+2])
			}
		}
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := src.Pix[off : off+4*w]
			dst := out.Pix[y*w : (y+1)*w]
			for x := range dst {
				dst[x] = luma(row[4*x], row[4*x+1], row[4*x+2])
			}
		}
	default:
		for y := 0; y < h; y++ {
			dst := out.Pix[y*w : (y+1)*w]
			for x := range dst {
				c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
				dst[x] = luma(c.R, c.G, c.B)
			}
		}
	}

	return out
}
