package pipeline

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/framescan/internal/cache"
	"github.com/kikiluvv/framescan/internal/config"
	"github.com/kikiluvv/framescan/internal/cvbackend"
	"github.com/kikiluvv/framescan/internal/faces"
	"github.com/kikiluvv/framescan/internal/ffmpeg"
	"github.com/kikiluvv/framescan/internal/logging"
	"github.com/kikiluvv/framescan/internal/scanner"
	"github.com/kikiluvv/framescan/internal/vision"
	"github.com/kikiluvv/framescan/pkg/util"
)

// Pipeline wires configuration into a decode backend, detectors, the
// scanner and the optional result cache.
type Pipeline struct {
	logger  zerolog.Logger
	config  *config.Config
	opener  scanner.SourceOpener
	faces   scanner.FaceDetector
	edges   scanner.EdgeDetector
	scanner *scanner.Scanner
	cache   *cache.Store
	closers []io.Closer
}

// Option overrides a component normally built from configuration.
type Option func(*Pipeline)

// WithOpener replaces the configured decode backend.
func WithOpener(o scanner.SourceOpener) Option {
	return func(p *Pipeline) { p.opener = o }
}

// WithFaceDetector replaces the configured face detector.
func WithFaceDetector(d scanner.FaceDetector) Option {
	return func(p *Pipeline) { p.faces = d }
}

// New creates a new pipeline instance. It never fails: a component that
// cannot start degrades to its fallback and the problem is logged.
func New(logger zerolog.Logger, cfg *config.Config, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}

	p := &Pipeline{
		logger: logging.WithComponent(logger, "pipeline"),
		config: cfg,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.opener == nil {
		p.opener = p.buildOpener(logger)
	}
	if p.faces == nil {
		p.faces = p.buildFaces(logger)
	}
	p.edges = p.buildEdges()
	p.cache = p.openCache()

	p.scanner = scanner.New(logger, p.opener, scanner.Options{
		Workers: cfg.Scan.Workers,
		Faces:   p.faces,
		Edges:   p.edges,
	})
	return p
}

func (p *Pipeline) buildOpener(logger zerolog.Logger) scanner.SourceOpener {
	switch p.config.Scan.Backend {
	case config.BackendOpenCV:
		o, err := cvbackend.NewOpener(logger)
		if err != nil {
			p.logger.Warn().Err(err).Msg("opencv backend unavailable, scans will fall back")
			return scanner.UnavailableOpener(err)
		}
		return o
	default:
		exec, err := ffmpeg.New(logger, ffmpeg.Options{
			FFmpegPath:  p.config.FFmpeg.FFmpegPath,
			FFprobePath: p.config.FFmpeg.FFprobePath,
			Threads:     p.config.FFmpeg.Threads,
		})
		if err != nil {
			p.logger.Warn().Err(err).Msg("ffmpeg unavailable, scans will fall back")
			return scanner.UnavailableOpener(err)
		}
		return ffmpeg.NewOpener(exec)
	}
}

func (p *Pipeline) buildFaces(logger zerolog.Logger) scanner.FaceDetector {
	fc := p.config.Faces
	if fc.Backend == config.BackendNone {
		return scanner.NoFaces{}
	}
	params := faces.Params{
		MinSize:        fc.MinSize,
		MaxWidth:       fc.MaxWidth,
		ScoreThreshold: fc.ScoreThreshold,
	}

	if fc.CascadePath != "" {
		if d := p.loadCascade(logger, fc.CascadePath, params); d != nil {
			return d
		}
	}

	d, err := faces.Default(logger, params)
	if err != nil {
		p.logger.Warn().Err(err).Msg("face detection unavailable, assuming no faces")
		return scanner.NoFaces{}
	}
	return d
}

// loadCascade builds the configured detector from a cascade file, returning
// nil when the embedded pigo cascade should be used instead.
func (p *Pipeline) loadCascade(logger zerolog.Logger, path string, params faces.Params) scanner.FaceDetector {
	cascade, err := util.ExpandPath(path)
	if err != nil {
		p.logger.Warn().Err(err).Msg("bad cascade path, using embedded cascade")
		return nil
	}

	if p.config.Faces.Backend == config.BackendOpenCV {
		d, err := cvbackend.NewFaceDetector(cascade, params.MinSize)
		if err != nil {
			p.logger.Warn().Err(err).Str("cascade", cascade).Msg("opencv face detection unavailable, using embedded cascade")
			return nil
		}
		p.closers = append(p.closers, d)
		return d
	}

	d, err := faces.LoadPigo(logger, cascade, params)
	if err != nil {
		p.logger.Warn().Err(err).Str("cascade", cascade).Msg("cascade unreadable, using embedded cascade")
		return nil
	}
	return d
}

func (p *Pipeline) buildEdges() scanner.EdgeDetector {
	sc := p.config.Scan
	if sc.Backend == config.BackendOpenCV && cvbackend.Available() {
		if e, err := cvbackend.NewEdgeDetector(sc.CannyLow, sc.CannyHigh); err == nil {
			return e
		}
	}
	return vision.Canny{Low: sc.CannyLow, High: sc.CannyHigh}
}

func (p *Pipeline) openCache() *cache.Store {
	if !p.config.Cache.Enabled {
		return nil
	}
	path, err := util.ExpandPath(p.config.Cache.Path)
	if err != nil {
		p.logger.Warn().Err(err).Msg("result cache unavailable")
		return nil
	}
	store, err := cache.Open(path)
	if err != nil {
		p.logger.Warn().Err(err).Str("path", path).Msg("result cache unavailable")
		return nil
	}
	return store
}

// Close releases pipeline resources
func (p *Pipeline) Close() error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c.Close())
	}
	if p.cache != nil {
		errs = append(errs, p.cache.Close())
	}
	return errors.Join(errs...)
}

// Scan analyses input. The result is served from the cache when enabled and
// the file is unchanged.
func (p *Pipeline) Scan(ctx context.Context, input string, ratio float64) scanner.Result {
	path, err := util.ExpandPath(input)
	if err != nil || input == "" {
		p.logger.Warn().Err(err).Str("input", input).Msg("invalid input path, using fallback")
		return scanner.Fallback()
	}

	key := ""
	if p.cache != nil {
		if key, err = cache.KeyFor(path, ratio); err != nil {
			p.logger.Debug().Err(err).Str("input", path).Msg("no cache key")
			key = ""
		}
	}

	if key != "" {
		res, ok, err := p.cache.Get(key)
		switch {
		case err != nil:
			p.logger.Warn().Err(err).Msg("cache lookup failed")
		case ok:
			p.logger.Debug().Str("input", path).Msg("cache hit")
			return res
		}
	}

	res := p.scanner.Scan(ctx, path, ratio)

	if ctx.Err() != nil {
		p.logger.Debug().Str("input", path).Msg("scan interrupted, not caching")
		return res
	}
	if key != "" && !res.IsFallback() {
		if err := p.cache.Put(key, path, res); err != nil {
			p.logger.Warn().Err(err).Msg("cache store failed")
		}
	}
	return res
}

// Probe opens input and reports its metadata, or the zero meta when the
// source is unusable.
func (p *Pipeline) Probe(ctx context.Context, input string) scanner.VideoMeta {
	path, err := util.ExpandPath(input)
	if err != nil || input == "" {
		return scanner.VideoMeta{}
	}

	src, err := p.opener.Open(ctx, path)
	if err != nil {
		p.logger.Warn().Err(err).Str("input", path).Msg("probe failed")
		return scanner.VideoMeta{}
	}
	defer src.Close()
	return src.Meta()
}
