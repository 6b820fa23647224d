package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/framescan/internal/scanner"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "db", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleResult() scanner.Result {
	return scanner.Result{
		SampledFrames:              30,
		SampleStride:               10,
		PortraitSignal:             0.3812,
		LandscapeSignal:            0.1301,
		CenteredFaceVerticalSignal: 0.5,
		HorizontalMotionSignal:     0.0123,
		HighMotionShortClipSignal:  0.09,
		MotionPeaks:                []float64{5, 12.33},
	}
}

func TestPutGet(t *testing.T) {
	store := openTestStore(t)

	_, ok, err := store.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put("k1", "/videos/a.mp4", sampleResult()))
	got, ok, err := store.Get("k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleResult(), got)
}

func TestPutReplaces(t *testing.T) {
	store := openTestStore(t)

	first := sampleResult()
	require.NoError(t, store.Put("k1", "/videos/a.mp4", first))

	second := sampleResult()
	second.SampledFrames = 31
	second.MotionPeaks = []float64{}
	require.NoError(t, store.Put("k1", "/videos/a.mp4", second))

	got, ok, err := store.Get("k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second, got)

	n, err := store.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestPutSkipsFallback(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Put("k1", "/videos/broken.mp4", scanner.Fallback()))
	_, ok, err := store.Get("k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeyFor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	a, err := KeyFor(path, 0.1)
	require.NoError(t, err)

	same, err := KeyFor(path, 0)
	require.NoError(t, err)
	assert.Equal(t, a, same, "ratio 0 means the default ratio")

	clamped, err := KeyFor(path, 0.9)
	require.NoError(t, err)
	other, err := KeyFor(path, 0.5)
	require.NoError(t, err)
	assert.Equal(t, clamped, other)
	assert.NotEqual(t, a, other)

	// touching the file changes the key
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))
	touched, err := KeyFor(path, 0.1)
	require.NoError(t, err)
	assert.NotEqual(t, a, touched)

	_, err = KeyFor(filepath.Join(t.TempDir(), "missing.mp4"), 0.1)
	assert.Error(t, err)

	_, err = KeyFor(t.TempDir(), 0.1)
	assert.Error(t, err)
}
