package vision

import "image"

// RegionMean returns the mean pixel value of g inside r, in [0,255].
// r is in g's coordinate space and is clipped to its bounds; an empty
// region yields 0.
func RegionMean(g *image.Gray, r image.Rectangle) float64 {
	r = r.Intersect(g.Bounds())
	if r.Empty() {
		return 0
	}

	var sum uint64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := g.PixOffset(r.Min.X, y)
		for _, v := range g.Pix[off : off+r.Dx()] {
			sum += uint64(v)
		}
	}
	return float64(sum) / float64(r.Dx()*r.Dy())
}

// Density returns the fraction of edge pixels (mean/255) of an edge map inside r.
func Density(edges *image.Gray, r image.Rectangle) float64 {
	return RegionMean(edges, r) / 255.0
}

// MeanAbsDiff returns mean(|a-b|) over r, in [0,255]. Both images are
// addressed in their own coordinate space relative to their Min point, and
// r is clipped to the area they share.
func MeanAbsDiff(a, b *image.Gray, r image.Rectangle) float64 {
	ab, bb := a.Bounds(), b.Bounds()
	shared := image.Rect(0, 0, min(ab.Dx(), bb.Dx()), min(ab.Dy(), bb.Dy()))
	r = r.Intersect(shared)
	if r.Empty() {
		return 0
	}

	var sum uint64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		ao := a.PixOffset(ab.Min.X+r.Min.X, ab.Min.Y+y)
		bo := b.PixOffset(bb.Min.X+r.Min.X, bb.Min.Y+y)
		ar := a.Pix[ao : ao+r.Dx()]
		br := b.Pix[bo : bo+r.Dx()]
		for i, v := range ar {
			d := int(v) - int(br[i])
			if d < 0 {
				d = -d
			}
			sum += uint64(d)
		}
	}
	return float64(sum) / float64(r.Dx()*r.Dy())
}
