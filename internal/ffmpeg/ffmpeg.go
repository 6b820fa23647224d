package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/framescan/internal/logging"
)

// Executor handles all ffmpeg and ffprobe invocations
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	threads     int
}

// New creates a new ffmpeg executor
func New(logger zerolog.Logger, opts Options) (*Executor, error) {
	ffmpegPath, err := lookup(opts.FFmpegPath, "ffmpeg")
	if err != nil {
		return nil, err
	}

	ffprobePath, err := lookup(opts.FFprobePath, "ffprobe")
	if err != nil {
		return nil, err
	}

	return &Executor{
		logger:      logging.WithComponent(logger, "ffmpeg"),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		threads:     opts.Threads,
	}, nil
}

func lookup(configured, name string) (string, error) {
	if configured == "" {
		configured = name
	}
	path, err := exec.LookPath(configured)
	if err != nil {
		return "", fmt.Errorf("%s not found: %w", name, errors.Join(ErrFFmpegNotFound, err))
	}
	return path, nil
}

// Run executes ffmpeg with the given arguments and returns its stdout
func (e *Executor) Run(ctx context.Context, opts RunOptions) ([]byte, error) {
	if len(opts.Args) == 0 {
		return nil, fmt.Errorf("no arguments provided")
	}

	// threads must precede the inputs
	baseArgs := []string{"-hide_banner", "-nostdin", "-loglevel", "error"}
	if e.threads > 0 {
		baseArgs = append(baseArgs, "-threads", strconv.Itoa(e.threads))
	}
	args := append(baseArgs, opts.Args...)

	e.logger.Trace().
		Str("cmd", "ffmpeg").
		Strs("args", args).
		Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	lastLine := e.streamOutput(stderr, opts.LogHandler)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if lastLine != "" {
			return nil, fmt.Errorf("ffmpeg execution failed: %w: %s", err, lastLine)
		}
		return nil, fmt.Errorf("ffmpeg execution failed: %w", err)
	}

	return stdout.Bytes(), nil
}

// streamOutput forwards stderr lines and returns the last one seen
func (e *Executor) streamOutput(r io.Reader, logHandler func(string)) string {
	scanner := bufio.NewScanner(r)
	last := ""
	for scanner.Scan() {
		last = scanner.Text()
		if logHandler != nil {
			logHandler(last)
		}
	}
	return last
}
