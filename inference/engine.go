package inference

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Engine defines the interface for a loaded classifier.
type Engine interface {
	// Predict returns one confidence per class index for an encoded image.
	Predict(ctx context.Context, data []byte) ([]float32, error)
	Close() error
}

// LoaderFunc constructs an Engine. It is only called until one call succeeds.
type LoaderFunc func(ctx context.Context) (Engine, error)

// Runtime holds the process-wide engine.
//
// The first successful Load wins: later calls return the loaded engine and
// never invoke their loader. A failed load leaves the runtime empty so the
// next call retries.
type Runtime struct {
	mu     sync.Mutex
	engine Engine
}

// Load returns the loaded engine, constructing it with load on first use.
//
// Arguments:
//   - ctx: The context passed to the loader.
//   - load: The constructor for a cold start.
//
// Returns:
//   - Engine: The shared engine.
//   - bool: True if this call performed the load.
//   - error: The loader error if any.
func (r *Runtime) Load(ctx context.Context, load LoaderFunc) (Engine, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine != nil {
		return r.engine, false, nil
	}

	engine, err := load(ctx)
	if err != nil {
		return nil, false, err
	}
	if engine == nil {
		return nil, false, errors.Wrap(ErrModelLoad, "loader returned no engine")
	}
	r.engine = engine
	return engine, true, nil
}

// Close closes and drops the held engine.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine == nil {
		return nil
	}
	err := r.engine.Close()
	r.engine = nil
	return err
}
