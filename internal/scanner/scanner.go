package scanner

import (
	"context"
	"errors"
	"image"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kikiluvv/framescan/internal/logging"
	"github.com/kikiluvv/framescan/internal/vision"
)

// defaultFPS is assumed when a source reports no frame rate.
const defaultFPS = 30.0

// Options configures a Scanner.
type Options struct {
	// Workers bounds concurrent frame decodes; values below 2 scan sequentially.
	Workers int
	Faces   FaceDetector
	Edges   EdgeDetector
}

// Scanner runs the sampled single-pass analysis over opened sources.
type Scanner struct {
	logger  zerolog.Logger
	opener  SourceOpener
	faces   FaceDetector
	edges   EdgeDetector
	workers int
}

// New creates a scanner. Missing detectors default to no faces and the
// built-in Canny transform.
func New(logger zerolog.Logger, opener SourceOpener, opts Options) *Scanner {
	s := &Scanner{
		logger:  logging.WithComponent(logger, "scanner"),
		opener:  opener,
		faces:   opts.Faces,
		edges:   opts.Edges,
		workers: max(1, opts.Workers),
	}
	if s.faces == nil {
		s.faces = NoFaces{}
	}
	if s.edges == nil {
		s.edges = vision.NewCanny()
	}
	return s
}

// sample is one decoded frame with its static (non-motion) scores.
type sample struct {
	index        int
	gray         *image.Gray
	portrait     float64
	landscape    float64
	centeredFace float64
}

// Scan opens path and analyses it. It never fails: any problem opening or
// decoding the source yields the Fallback result.
func (s *Scanner) Scan(ctx context.Context, path string, ratio float64) Result {
	logger := s.logger.With().
		Str("scan_id", uuid.New().String()).
		Str("input", path).
		Logger()

	if s.opener == nil {
		logger.Warn().Msg("no source opener configured, using fallback")
		return Fallback()
	}

	src, err := s.opener.Open(ctx, path)
	if err != nil {
		logger.Warn().Err(err).Msg("source unusable, using fallback")
		return Fallback()
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Debug().Err(err).Msg("closing source")
		}
	}()

	return s.scan(ctx, logger, src, ratio)
}

// ScanSource analyses an already opened source. The caller keeps ownership
// of src and must close it.
func (s *Scanner) ScanSource(ctx context.Context, src FrameSource, ratio float64) Result {
	logger := s.logger.With().Str("scan_id", uuid.New().String()).Logger()
	return s.scan(ctx, logger, src, ratio)
}

func (s *Scanner) scan(ctx context.Context, logger zerolog.Logger, src FrameSource, ratio float64) Result {
	meta := src.Meta()
	if !meta.Valid() {
		logger.Warn().
			Int("total_frames", meta.TotalFrames).
			Int("width", meta.Width).
			Int("height", meta.Height).
			Msg("source has no frames or no dimensions, using fallback")
		return Fallback()
	}

	fps := meta.FPS
	if fps <= 0 || math.IsNaN(fps) {
		fps = defaultFPS
	}

	plan := NewPlan(meta.TotalFrames, ratio)
	indices := plan.Indices()

	logger.Info().
		Int("total_frames", meta.TotalFrames).
		Float64("fps", fps).
		Int("width", meta.Width).
		Int("height", meta.Height).
		Float64("ratio", plan.Ratio).
		Int("stride", plan.Stride).
		Int("planned", len(indices)).
		Msg("starting frame scan")

	start := time.Now()
	agg := NewAggregator(len(indices))
	var prev *image.Gray
	skipped := 0

	for lo := 0; lo < len(indices); lo += s.workers {
		hi := min(len(indices), lo+s.workers)
		batch, err := s.decodeBatch(ctx, logger, src, indices[lo:hi])
		if err != nil {
			logger.Warn().Err(err).Int("sampled", agg.Sampled()).Msg("scan interrupted")
			break
		}

		for _, smp := range batch {
			if smp == nil {
				skipped++
				continue
			}

			score := FrameScore{
				Portrait:         smp.portrait,
				Landscape:        smp.landscape,
				CenteredFace:     smp.centeredFace,
				TimestampSeconds: float64(smp.index) / math.Max(1.0, fps),
			}
			if prev != nil {
				score.MotionValue, score.HorizontalMotion = Motion(prev, smp.gray)
			}
			agg.Add(score)
			prev = smp.gray

			logger.Debug().
				Int("frame", smp.index).
				Float64("portrait", score.Portrait).
				Float64("landscape", score.Landscape).
				Float64("centered_face", score.CenteredFace).
				Float64("motion", score.MotionValue).
				Msg("sampled frame")
		}
	}

	if agg.Sampled() == 0 {
		logger.Warn().Int("skipped", skipped).Msg("no frame could be decoded, using fallback")
		return Fallback()
	}

	res := Build(agg, plan.Stride)
	logger.Info().
		Int("sampled", res.SampledFrames).
		Int("skipped", skipped).
		Int("peaks", len(res.MotionPeaks)).
		Dur("elapsed", time.Since(start)).
		Msg("frame scan complete")
	return res
}

// decodeBatch decodes and scores indices, concurrently when the batch has
// more than one entry. Entries for frames that failed to decode are nil.
// Only context cancellation is reported as an error.
func (s *Scanner) decodeBatch(ctx context.Context, logger zerolog.Logger, src FrameSource, indices []int) ([]*sample, error) {
	out := make([]*sample, len(indices))

	if len(indices) == 1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[0] = s.extract(ctx, logger, src, indices[0])
		return out, ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, index := range indices {
		i, index := i, index
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = s.extract(gctx, logger, src, index)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, ctx.Err()
}

// extract decodes one frame and computes its static scores.
func (s *Scanner) extract(ctx context.Context, logger zerolog.Logger, src FrameSource, index int) *sample {
	img, err := src.ReadFrame(ctx, index)
	if err != nil || img == nil {
		if err == nil {
			err = ErrDecodeFailed
		}
		if !errors.Is(err, context.Canceled) {
			logger.Debug().Err(err).Int("frame", index).Msg("frame skipped")
		}
		return nil
	}

	gray := vision.Gray(img)
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		logger.Debug().Int("frame", index).Msg("empty frame skipped")
		return nil
	}

	edges := s.edges.Edges(gray)
	densities := RegionDensities(edges)

	faces, err := s.faces.Detect(gray)
	if err != nil {
		logger.Debug().Err(err).Int("frame", index).Msg("face detection failed, assuming no faces")
		faces = nil
	}
	centered := CenteredFaceRatio(faces, w, h)
	portrait, landscape := OrientationScores(densities, centered, w, h)

	return &sample{
		index:        index,
		gray:         gray,
		portrait:     portrait,
		landscape:    landscape,
		centeredFace: centered,
	}
}
