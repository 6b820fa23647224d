package watch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/framescan/internal/scanner"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) reports(t *testing.T) []Report {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Report
	sc := bufio.NewScanner(strings.NewReader(b.buf.String()))
	for sc.Scan() {
		var r Report
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		out = append(out, r)
	}
	return out
}

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) scan(_ context.Context, path string) scanner.Result {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	res := scanner.Fallback()
	res.SampledFrames = 7
	return res
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func startWatcher(t *testing.T, dir string, rec *recorder, out *syncBuffer) {
	t.Helper()

	w, err := New(zerolog.Nop(), dir, 50*time.Millisecond, rec.scan, out)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})
}

func TestWatchScansSettledVideos(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	out := &syncBuffer{}
	startWatcher(t, dir, rec, out)

	video := filepath.Join(dir, "clip.MP4")
	require.NoError(t, os.WriteFile(video, []byte("part one"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	require.Eventually(t, func() bool { return rec.count() == 1 }, 5*time.Second, 20*time.Millisecond)

	reports := out.reports(t)
	require.Len(t, reports, 1)
	abs, err := filepath.Abs(video)
	require.NoError(t, err)
	assert.Equal(t, abs, reports[0].Path)
	assert.Equal(t, 7, reports[0].Result.SampledFrames)
	assert.Equal(t, []float64{}, reports[0].Result.MotionPeaks)

	// no further scans once the file is settled
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestWatchDropsRemovedFiles(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	out := &syncBuffer{}
	startWatcher(t, dir, rec, out)

	gone := filepath.Join(dir, "gone.mkv")
	require.NoError(t, os.WriteFile(gone, []byte("x"), 0o644))
	require.NoError(t, os.Remove(gone))

	kept := filepath.Join(dir, "kept.webm")
	require.NoError(t, os.WriteFile(kept, []byte("y"), 0o644))

	require.Eventually(t, func() bool { return rec.count() >= 1 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(200 * time.Millisecond)

	reports := out.reports(t)
	require.Len(t, reports, 1)
	assert.Equal(t, "kept.webm", filepath.Base(reports[0].Path))
}

func TestNewMissingDir(t *testing.T) {
	_, err := New(zerolog.Nop(), filepath.Join(t.TempDir(), "missing"), 0, (&recorder{}).scan, &syncBuffer{})
	assert.Error(t, err)
}
