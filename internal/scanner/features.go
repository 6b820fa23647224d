package scanner

import (
	"image"
	"math"

	"github.com/kikiluvv/framescan/internal/vision"
)

// Region and weighting constants of the per-frame scores.
const (
	centerBoxX0 = 0.25
	centerBoxX1 = 0.75
	centerBoxY0 = 0.18
	centerBoxY1 = 0.85

	faceZoneX0 = 0.28
	faceZoneX1 = 0.72
	faceZoneY0 = 0.18
	faceZoneY1 = 0.8

	motionBandX0 = 0.2
	motionBandX1 = 0.8

	portraitBiasWeight     = 0.38
	portraitCenterWeight   = 0.26
	portraitFaceWeight     = 0.22
	portraitVerticalWeight = 0.14

	landscapeBiasWeight      = 0.42
	landscapeSidesWeight     = 0.27
	landscapeImbalanceWeight = 0.18
	landscapeNoFaceWeight    = 0.13
)

// Densities are the edge densities of the frame regions, each in [0,1].
type Densities struct {
	Left   float64
	Right  float64
	Top    float64
	Bottom float64
	Center float64
}

// RegionDensities splits the edge map at the integer midlines and the center box.
func RegionDensities(edges *image.Gray) Densities {
	b := edges.Bounds()
	w, h := b.Dx(), b.Dy()
	xMid, yMid := w/2, h/2

	center := image.Rect(
		int(float64(w)*centerBoxX0), int(float64(h)*centerBoxY0),
		int(float64(w)*centerBoxX1), int(float64(h)*centerBoxY1),
	)

	return Densities{
		Left:   vision.Density(edges, image.Rect(0, 0, xMid, h)),
		Right:  vision.Density(edges, image.Rect(xMid, 0, w, h)),
		Top:    vision.Density(edges, image.Rect(0, 0, w, yMid)),
		Bottom: vision.Density(edges, image.Rect(0, yMid, w, h)),
		Center: vision.Density(edges, center),
	}
}

// CenteredFaceRatio is the fraction of faces whose centroid lies in the safe
// central zone. No faces scores 0, not a neutral value.
func CenteredFaceRatio(faces []FaceRect, w, h int) float64 {
	if len(faces) == 0 {
		return 0.0
	}

	fw, fh := float64(w), float64(h)
	hits := 0
	for _, f := range faces {
		cx, cy := f.Center()
		if faceZoneX0*fw <= cx && cx <= faceZoneX1*fw && faceZoneY0*fh <= cy && cy <= faceZoneY1*fh {
			hits++
		}
	}
	return clamp(float64(hits)/float64(max(1, len(faces))), 0, 1)
}

// OrientationScores returns the portrait and landscape scores of one frame.
func OrientationScores(d Densities, centeredFace float64, w, h int) (portrait, landscape float64) {
	portraitBias, landscapeBias := 0.0, 0.0
	if h >= w {
		portraitBias = 1.0
	}
	if w > h {
		landscapeBias = 1.0
	}

	portrait = portraitBiasWeight*portraitBias +
		portraitCenterWeight*d.Center +
		portraitFaceWeight*centeredFace +
		portraitVerticalWeight*(d.Top+d.Bottom)*0.5
	landscape = landscapeBiasWeight*landscapeBias +
		landscapeSidesWeight*((d.Left+d.Right)*0.5) +
		landscapeImbalanceWeight*math.Abs(d.Left-d.Right) +
		landscapeNoFaceWeight*(1.0-centeredFace)
	return portrait, landscape
}

// Motion returns the whole-frame and horizontal-band mean absolute
// difference between two consecutive sampled frames, both in [0,1].
func Motion(prev, cur *image.Gray) (value, horizontal float64) {
	b := cur.Bounds()
	w, h := b.Dx(), b.Dy()
	band := image.Rect(int(float64(w)*motionBandX0), 0, int(float64(w)*motionBandX1), h)

	value = vision.MeanAbsDiff(prev, cur, image.Rect(0, 0, w, h)) / 255.0
	horizontal = vision.MeanAbsDiff(prev, cur, band) / 255.0
	return value, horizontal
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
