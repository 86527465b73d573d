package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/strata/pkg/graph"
	"github.com/aretw0/strata/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed writer can hold a key lock.
const DefaultLockTTL = 10 * time.Second

// Recorder mirrors root-store fixes of stored nodes into a FixedStore.
// What-ifs are scenario scoped and never persisted.
type Recorder struct {
	store   ports.FixedStore
	locker  ports.Locker
	lockTTL time.Duration
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.Mutex
	errs      []error
	restoring bool
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger used to report write failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithLocker serializes writes per key through locker, for stores shared by
// several processes.
func WithLocker(locker ports.Locker, ttl time.Duration) Option {
	return func(r *Recorder) {
		r.locker = locker
		r.lockTTL = ttl
	}
}

// WithTimeout bounds each write. The default is five seconds.
func WithTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		r.timeout = d
	}
}

// WithClock overrides the time source used for Record.UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store ports.FixedStore, opts ...Option) *Recorder {
	r := &Recorder{
		store:   store,
		lockTTL: DefaultLockTTL,
		timeout: 5 * time.Second,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the underlying store.
func (r *Recorder) Store() ports.FixedStore { return r.store }

// Hooks returns the graph hooks that feed the recorder.
func (r *Recorder) Hooks() graph.Hooks {
	return graph.Hooks{OnFix: r.onFix}
}

func (r *Recorder) onFix(e *graph.FixEvent) {
	if !e.Root || !e.Node.Descriptor().Stored() {
		return
	}
	r.mu.Lock()
	restoring := r.restoring
	r.mu.Unlock()
	if restoring {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.write(ctx, e); err != nil {
		r.logger.Error("failed to persist fixed value", "node", e.Node.String(), "error", err)
		r.mu.Lock()
		r.errs = append(r.errs, err)
		r.mu.Unlock()
	}
}

func (r *Recorder) write(ctx context.Context, e *graph.FixEvent) error {
	key := e.Node.String()
	if r.locker != nil {
		unlock, err := r.locker.Lock(ctx, key, r.lockTTL)
		if err != nil {
			return fmt.Errorf("lock %s: %w", key, err)
		}
		defer func() { _ = unlock(context.WithoutCancel(ctx)) }()
	}

	if e.Cleared {
		return r.store.Delete(ctx, key)
	}
	return r.store.Save(ctx, ports.Record{
		Key:       key,
		Node:      e.Node.Name(),
		Value:     e.Value,
		UpdatedAt: r.now(),
	})
}

// Err returns the write failures seen since the previous call, joined.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := errors.Join(r.errs...)
	r.errs = nil
	return err
}

// Restore fixes every stored node among nodes to its persisted value in the
// root store of g. It returns how many values were restored. Restored values
// are not written back.
func (r *Recorder) Restore(ctx context.Context, g *graph.Graph, nodes []*graph.Node) (int, error) {
	r.mu.Lock()
	r.restoring = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.restoring = false
		r.mu.Unlock()
	}()

	restored := 0
	for _, n := range nodes {
		if !n.Descriptor().Stored() {
			continue
		}
		rec, err := r.store.Load(ctx, n.String())
		if errors.Is(err, ports.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return restored, fmt.Errorf("restore %s: %w", n, err)
		}
		if err := g.SetValue(n, rec.Value, g.Root()); err != nil {
			return restored, fmt.Errorf("restore %s: %w", n, err)
		}
		restored++
	}
	return restored, nil
}
