package ocr

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/lehigh-university-libraries/ocr-api/pkg/engine"
)

type stubEngine struct {
	detections []engine.Detection
	err        error
	closed     atomic.Bool
}

func (e *stubEngine) Name() string { return "stub" }

func (e *stubEngine) Detect(ctx context.Context, path string) ([]engine.Detection, error) {
	return e.detections, e.err
}

func (e *stubEngine) Close() error {
	e.closed.Store(true)
	return nil
}

func countingFactory(e engine.Engine, calls *atomic.Int32, failFirst int32) engine.Factory {
	return func(ctx context.Context, opts engine.Options) (engine.Engine, error) {
		n := calls.Add(1)
		if n <= failFirst {
			return nil, errors.New("model files missing")
		}
		return e, nil
	}
}

func TestInvoker_LazyInitialization(t *testing.T) {
	var calls atomic.Int32
	stub := &stubEngine{detections: []engine.Detection{{Text: "hi"}}}
	inv := NewInvoker("stub", countingFactory(stub, &calls, 0), engine.Options{})

	if inv.Ready() {
		t.Fatal("invoker should not be ready before first use")
	}
	if inv.State() != Uninitialized {
		t.Errorf("State() = %s, want uninitialized", inv.State())
	}

	dets, err := inv.Detect(context.Background(), "/tmp/x.png")
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(dets) != 1 || dets[0].Text != "hi" {
		t.Errorf("Detect() = %+v", dets)
	}
	if !inv.Ready() {
		t.Error("invoker should be ready after Detect")
	}

	if _, err := inv.Detect(context.Background(), "/tmp/y.png"); err != nil {
		t.Fatalf("second Detect() error = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("factory called %d times, want 1", calls.Load())
	}
}

func TestInvoker_ConcurrentFirstUse(t *testing.T) {
	var calls atomic.Int32
	inv := NewInvoker("stub", countingFactory(&stubEngine{}, &calls, 0), engine.Options{})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := inv.Detect(context.Background(), "img.png"); err != nil {
				t.Errorf("Detect() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("factory called %d times, want 1", calls.Load())
	}
}

func TestInvoker_InitFailureRetries(t *testing.T) {
	var calls atomic.Int32
	inv := NewInvoker("stub", countingFactory(&stubEngine{}, &calls, 1), engine.Options{})

	err := inv.Ensure(context.Background())
	var failure *EngineFailure
	if !errors.As(err, &failure) {
		t.Fatalf("expected EngineFailure, got %v", err)
	}
	if !strings.Contains(err.Error(), "model files missing") {
		t.Errorf("error should carry the cause, got %v", err)
	}
	if inv.Ready() {
		t.Error("invoker should not be ready after failed init")
	}

	if err := inv.Ensure(context.Background()); err != nil {
		t.Fatalf("second Ensure() error = %v", err)
	}
	if !inv.Ready() {
		t.Error("invoker should be ready after successful retry")
	}
}

func TestInvoker_DetectFailure(t *testing.T) {
	var calls atomic.Int32
	stub := &stubEngine{err: errors.New("corrupt image")}
	inv := NewInvoker("stub", countingFactory(stub, &calls, 0), engine.Options{})

	_, err := inv.Detect(context.Background(), "bad.png")
	var failure *EngineFailure
	if !errors.As(err, &failure) {
		t.Fatalf("expected EngineFailure, got %v", err)
	}
	if failure.Engine != "stub" {
		t.Errorf("Engine = %s, want stub", failure.Engine)
	}
	if !inv.Ready() {
		t.Error("a detection failure should not reset readiness")
	}
}

func TestInvoker_Close(t *testing.T) {
	var calls atomic.Int32
	stub := &stubEngine{}
	inv := NewInvoker("stub", countingFactory(stub, &calls, 0), engine.Options{})

	if err := inv.Close(); err != nil {
		t.Fatalf("Close() before init error = %v", err)
	}
	if err := inv.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if err := inv.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !stub.closed.Load() {
		t.Error("engine was not closed")
	}
	if inv.Ready() {
		t.Error("invoker should not be ready after Close")
	}
}

func TestMissingImageErrorIs(t *testing.T) {
	err := error(&MissingImageError{Field: "image"})
	if !errors.Is(err, ErrMissingImage) {
		t.Error("MissingImageError should match ErrMissingImage")
	}
	if !strings.Contains(err.Error(), `"image"`) {
		t.Errorf("message should name the field, got %q", err.Error())
	}
}

func TestInvoker_EngineOutlivesRequestContext(t *testing.T) {
	stub := &stubEngine{}
	var initCtx context.Context
	factory := func(ctx context.Context, opts engine.Options) (engine.Engine, error) {
		initCtx = ctx
		return stub, nil
	}
	inv := NewInvoker("stub", factory, engine.Options{})

	reqCtx, cancel := context.WithCancel(context.Background())
	if err := inv.Ensure(reqCtx); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	cancel()

	if initCtx.Err() != nil {
		t.Errorf("factory context canceled with the request: %v", initCtx.Err())
	}
}
