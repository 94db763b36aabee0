package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lehigh-university-libraries/ocr-api/pkg/engine"
)

// State of the engine held by an Invoker
type State int32

const (
	Uninitialized State = iota
	Initializing
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Invoker owns the process-wide engine instance. The engine is built at most
// once; concurrent first callers wait on the same initialization. A failed
// initialization leaves the invoker Uninitialized so a later call can retry.
type Invoker struct {
	name    string
	factory engine.Factory
	opts    engine.Options

	mu     sync.Mutex
	engine engine.Engine
	state  atomic.Int32
}

// NewInvoker creates an invoker for the named engine. Nothing is built until
// Ensure or Detect is called.
func NewInvoker(name string, factory engine.Factory, opts engine.Options) *Invoker {
	return &Invoker{
		name:    name,
		factory: factory,
		opts:    opts,
	}
}

// Name returns the engine name
func (i *Invoker) Name() string {
	return i.name
}

// State reports where the engine is in its lifecycle
func (i *Invoker) State() State {
	return State(i.state.Load())
}

// Ready reports whether the engine has been initialized
func (i *Invoker) Ready() bool {
	return i.State() == Ready
}

// Ensure initializes the engine if it is not ready yet
func (i *Invoker) Ensure(ctx context.Context) error {
	_, err := i.acquire(ctx)
	return err
}

// Detect runs the engine on the image at path, initializing it first if
// needed. The call blocks until the engine returns.
func (i *Invoker) Detect(ctx context.Context, path string) ([]engine.Detection, error) {
	e, err := i.acquire(ctx)
	if err != nil {
		return nil, err
	}

	detections, err := e.Detect(ctx, path)
	if err != nil {
		return nil, &EngineFailure{Engine: i.name, Cause: err}
	}
	return detections, nil
}

func (i *Invoker) acquire(ctx context.Context) (engine.Engine, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.engine != nil {
		return i.engine, nil
	}

	i.state.Store(int32(Initializing))
	start := time.Now()
	// The engine outlives the request that triggered initialization.
	e, err := i.factory(context.WithoutCancel(ctx), i.opts)
	if err != nil {
		i.state.Store(int32(Uninitialized))
		return nil, &EngineFailure{Engine: i.name, Cause: fmt.Errorf("initialization failed: %w", err)}
	}

	i.engine = e
	i.state.Store(int32(Ready))
	slog.Info("OCR engine initialized", "engine", i.name, "duration", time.Since(start))
	return e, nil
}

// Close releases the engine. The invoker is Uninitialized afterwards.
func (i *Invoker) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.engine == nil {
		return nil
	}
	err := i.engine.Close()
	i.engine = nil
	i.state.Store(int32(Uninitialized))
	return err
}
