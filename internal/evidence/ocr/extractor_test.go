package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docverify/pkg/platform/circuit"
	"docverify/pkg/platform/sentinel"
)

type fakeEngine struct {
	recognize func(ctx context.Context, path, lang string, progress ProgressFunc) (string, error)
	calls     atomic.Int32
}

func (f *fakeEngine) Recognize(ctx context.Context, path, lang string, progress ProgressFunc) (string, error) {
	f.calls.Add(1)
	return f.recognize(ctx, path, lang, progress)
}

func writeDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "license.png")
	require.NoError(t, os.WriteFile(path, []byte("image"), 0o600))
	return path
}

func TestExtractor_Success(t *testing.T) {
	engine := &fakeEngine{recognize: func(_ context.Context, _, lang string, progress ProgressFunc) (string, error) {
		progress.report(StatusRecognizing, 0.5)
		return "NAME: " + lang, nil
	}}
	e := New(engine, WithLogger(discardLogger()))

	res := e.Extract(context.Background(), writeDocument(t))

	assert.True(t, res.Success)
	assert.Equal(t, "NAME: eng", res.Text, "English is the default language")
	assert.Empty(t, res.Error)
}

func TestExtractor_Failures(t *testing.T) {
	t.Run("engine error is terminal and not retried", func(t *testing.T) {
		engine := &fakeEngine{recognize: func(context.Context, string, string, ProgressFunc) (string, error) {
			return "", errors.New("tesseract crashed")
		}}
		e := New(engine, WithLogger(discardLogger()))

		res := e.Extract(context.Background(), writeDocument(t))

		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "tesseract crashed")
		assert.Equal(t, int32(1), engine.calls.Load())
	})

	t.Run("blank text is a failure", func(t *testing.T) {
		engine := &fakeEngine{recognize: func(context.Context, string, string, ProgressFunc) (string, error) {
			return " \n\t ", nil
		}}
		e := New(engine, WithLogger(discardLogger()))

		res := e.Extract(context.Background(), writeDocument(t))

		assert.False(t, res.Success)
		assert.Empty(t, res.Text)
		assert.NotEmpty(t, res.Error)
	})

	t.Run("unreadable path never reaches the engine", func(t *testing.T) {
		engine := &fakeEngine{recognize: func(context.Context, string, string, ProgressFunc) (string, error) {
			return "text", nil
		}}
		breaker := circuit.New("test", circuit.WithFailureThreshold(1))
		e := New(engine, WithBreaker(breaker), WithLogger(discardLogger()))

		res := e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.png"))

		assert.False(t, res.Success)
		assert.Zero(t, engine.calls.Load())
		assert.False(t, breaker.IsOpen(), "bad uploads do not trip the breaker")
	})
}

func TestExtractor_CircuitBreaker(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	breaker := circuit.New("test",
		circuit.WithFailureThreshold(2),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }),
	)
	healthy := false
	engine := &fakeEngine{recognize: func(context.Context, string, string, ProgressFunc) (string, error) {
		if healthy {
			return "NAME: JOHN DOE", nil
		}
		return "", fmt.Errorf("tesseract: %w: exec: not found", sentinel.ErrUnavailable)
	}}
	e := New(engine, WithBreaker(breaker), WithLogger(discardLogger()))
	doc := writeDocument(t)

	e.Extract(context.Background(), doc)
	e.Extract(context.Background(), doc)
	require.True(t, breaker.IsOpen())

	res := e.Extract(context.Background(), doc)
	assert.False(t, res.Success)
	assert.Equal(t, "ocr engine unavailable", res.Error)
	assert.Equal(t, int32(2), engine.calls.Load(), "open circuit fails fast")

	now = now.Add(time.Minute)
	healthy = true
	res = e.Extract(context.Background(), doc)
	assert.True(t, res.Success, "probe after cooldown")
	assert.False(t, breaker.IsOpen())
}

func TestExtractor_RejectedDocumentsDoNotTripBreaker(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.png")
	valid := filepath.Join(dir, "license.png")
	require.NoError(t, os.WriteFile(corrupt, []byte("not an image"), 0o600))
	require.NoError(t, os.WriteFile(valid, []byte("image"), 0o600))

	engine := &fakeEngine{recognize: func(_ context.Context, path, _ string, _ ProgressFunc) (string, error) {
		if path == corrupt {
			return "", errors.New("tesseract: exit status 1: Error in pixReadStream: Unknown format")
		}
		return "NAME: JOHN DOE", nil
	}}
	breaker := circuit.New("test", circuit.WithFailureThreshold(5))
	e := New(engine, WithBreaker(breaker), WithLogger(discardLogger()))

	for range 10 {
		res := e.Extract(context.Background(), corrupt)
		require.False(t, res.Success)
		assert.Contains(t, res.Error, "Unknown format")
	}
	require.False(t, breaker.IsOpen())

	res := e.Extract(context.Background(), valid)
	assert.True(t, res.Success)
	assert.Equal(t, "NAME: JOHN DOE", res.Text)
	assert.Equal(t, int32(11), engine.calls.Load(), "every document reaches the engine")
}

func TestExtractor_RunTimeoutTripsBreaker(t *testing.T) {
	engine := &fakeEngine{recognize: func(runCtx context.Context, _, _ string, _ ProgressFunc) (string, error) {
		<-runCtx.Done()
		return "", runCtx.Err()
	}}
	breaker := circuit.New("test", circuit.WithFailureThreshold(1))
	e := New(engine, WithBreaker(breaker), WithRunTimeout(5*time.Millisecond), WithLogger(discardLogger()))

	e.Extract(context.Background(), writeDocument(t))

	assert.True(t, breaker.IsOpen())
}

func TestExtractor_RunIsDetachedFromCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sawCancel bool
	engine := &fakeEngine{recognize: func(runCtx context.Context, _, _ string, _ ProgressFunc) (string, error) {
		cancel()
		sawCancel = runCtx.Err() != nil
		return "NAME: JOHN DOE", nil
	}}
	e := New(engine, WithLogger(discardLogger()))

	res := e.Extract(ctx, writeDocument(t))

	assert.True(t, res.Success)
	assert.False(t, sawCancel)
}

func TestExtractor_RunTimeout(t *testing.T) {
	engine := &fakeEngine{recognize: func(runCtx context.Context, _, _ string, _ ProgressFunc) (string, error) {
		<-runCtx.Done()
		return "", runCtx.Err()
	}}
	e := New(engine, WithRunTimeout(10*time.Millisecond), WithLogger(discardLogger()))

	res := e.Extract(context.Background(), writeDocument(t))

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "exceeded")
}

func TestExtractor_BoundsConcurrency(t *testing.T) {
	var (
		inFlight atomic.Int32
		peak     atomic.Int32
		release  = make(chan struct{})
	)
	engine := &fakeEngine{recognize: func(context.Context, string, string, ProgressFunc) (string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		inFlight.Add(-1)
		return "text", nil
	}}
	e := New(engine, WithMaxConcurrent(2), WithLogger(discardLogger()))
	doc := writeDocument(t)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Extract(context.Background(), doc)
		}()
	}

	require.Eventually(t, func() bool { return inFlight.Load() == 2 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(2), peak.Load())
	assert.Equal(t, int32(5), engine.calls.Load())
}

func TestExtractor_QueueWaitHonoursContext(t *testing.T) {
	release := make(chan struct{})
	engine := &fakeEngine{recognize: func(context.Context, string, string, ProgressFunc) (string, error) {
		<-release
		return "text", nil
	}}
	e := New(engine, WithMaxConcurrent(1), WithLogger(discardLogger()))
	doc := writeDocument(t)

	done := make(chan Result)
	go func() { done <- e.Extract(context.Background(), doc) }()
	require.Eventually(t, func() bool { return engine.calls.Load() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	res := e.Extract(ctx, doc)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "waiting for ocr worker")

	close(release)
	assert.True(t, (<-done).Success)
}
