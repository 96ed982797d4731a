package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/taskcore/internal/live"
	"github.com/roach88/taskcore/internal/task"
)

// DefaultHighlightWindow is how long a toggled or edited task stays highlighted.
const DefaultHighlightWindow = 2 * time.Second

// Store is the persistence the coordinator drives. Implemented by *store.Store.
type Store interface {
	ObserveAll(ctx context.Context) (*live.Subscription[[]task.Task], error)
	Create(ctx context.Context, title string) (task.Task, error)
	Update(ctx context.Context, t task.Task) error
	Delete(ctx context.Context, t task.Task) error
}

// Coordinator serializes task commands and owns the highlight lifecycle.
//
// The coordinator never keeps its own copy of task records; the store's live
// query is the only source of record state.
//
// Thread-safety: all methods are safe for concurrent use.
type Coordinator struct {
	store  Store
	logger *slog.Logger
	opIDs  OpIDGenerator
	window time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	lanes     *lanes
	highlight *highlighter
	closeOnce sync.Once
}

// Option allows configuration of coordinator parameters.
type Option func(*Coordinator)

// WithHighlightWindow sets how long a highlight lasts.
//
// Default: 2s (DefaultHighlightWindow)
func WithHighlightWindow(d time.Duration) Option {
	return func(c *Coordinator) {
		c.window = d
	}
}

// WithLogger sets the logger for command diagnostics.
//
// Default: slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// WithOpIDGenerator overrides the operation id generator.
//
// Default: UUIDv7Generator
func WithOpIDGenerator(g OpIDGenerator) Option {
	return func(c *Coordinator) {
		c.opIDs = g
	}
}

// New creates a Coordinator over s. The coordinator does not own s; closing
// the coordinator leaves the store open.
func New(s Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  s,
		logger: slog.Default(),
		opIDs:  UUIDv7Generator{},
		window: DefaultHighlightWindow,
		lanes:  newLanes(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.highlight = newHighlighter(c.window, c.logger)
	return c
}

// AddTask creates a task with the given title.
// A blank title is silently ignored: no store call, nil result.
func (c *Coordinator) AddTask(title string) <-chan error {
	opID := c.opIDs.Generate()
	if task.IsBlank(title) {
		c.logger.Debug("blank title ignored", "op_id", opID, "op", "add")
		return resolved(nil)
	}

	return c.submit(createLane, "add", opID, 0, func(ctx context.Context) error {
		t, err := c.store.Create(ctx, title)
		if err != nil {
			return err
		}
		c.logger.Info("task added", "op_id", opID, "task_id", t.ID)
		return nil
	})
}

// ToggleTask flips t.Done, stores the result, then highlights t.ID.
// The toggle is computed from t as given, not from the latest stored state.
func (c *Coordinator) ToggleTask(t task.Task) <-chan error {
	opID := c.opIDs.Generate()
	updated := t.Toggled()

	return c.submit(t.ID, "toggle", opID, t.ID, func(ctx context.Context) error {
		if err := c.store.Update(ctx, updated); err != nil {
			return err
		}
		c.highlight.set(updated.ID)
		c.logger.Info("task toggled", "op_id", opID, "task_id", updated.ID, "done", updated.Done)
		return nil
	})
}

// UpdateTask retitles t, stores the result, then highlights t.ID.
// A blank newTitle is silently ignored, mirroring AddTask.
func (c *Coordinator) UpdateTask(t task.Task, newTitle string) <-chan error {
	opID := c.opIDs.Generate()
	if task.IsBlank(newTitle) {
		c.logger.Debug("blank title ignored", "op_id", opID, "op", "update", "task_id", t.ID)
		return resolved(nil)
	}
	updated := t.Retitled(newTitle)

	return c.submit(t.ID, "update", opID, t.ID, func(ctx context.Context) error {
		if err := c.store.Update(ctx, updated); err != nil {
			return err
		}
		c.highlight.set(updated.ID)
		c.logger.Info("task updated", "op_id", opID, "task_id", updated.ID)
		return nil
	})
}

// DeleteTask removes t. The highlight is left alone even if it names t.ID.
func (c *Coordinator) DeleteTask(t task.Task) <-chan error {
	opID := c.opIDs.Generate()

	return c.submit(t.ID, "delete", opID, t.ID, func(ctx context.Context) error {
		if err := c.store.Delete(ctx, t); err != nil {
			return err
		}
		c.logger.Info("task deleted", "op_id", opID, "task_id", t.ID)
		return nil
	})
}

// ObserveTasks proxies the store's live query unchanged.
func (c *Coordinator) ObserveTasks(ctx context.Context) (*live.Subscription[[]task.Task], error) {
	return c.store.ObserveAll(ctx)
}

// ObserveHighlight subscribes to the highlight slot. The current value is
// delivered immediately, then every change.
func (c *Coordinator) ObserveHighlight(ctx context.Context) (*live.Subscription[task.Highlight], error) {
	sub, err := c.highlight.value.Subscribe(ctx)
	if err != nil {
		return nil, task.ErrClosed
	}
	return sub, nil
}

// Highlight returns the current highlight.
func (c *Coordinator) Highlight() task.Highlight {
	return c.highlight.current()
}

// Wait blocks until every command issued so far has finished.
func (c *Coordinator) Wait() {
	c.lanes.wait()
}

// Close rejects new commands, lets queued ones finish, stops the pending
// highlight timer and ends highlight subscriptions. Safe to call more than once.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		c.lanes.close()
		c.lanes.wait()
		c.highlight.close()
		c.cancel()
	})
}

// submit queues fn on the lane for key and returns its result channel.
func (c *Coordinator) submit(key int64, op, opID string, id int64, fn func(context.Context) error) <-chan error {
	result := make(chan error, 1)

	ok := c.lanes.submit(key, func() {
		err := fn(c.ctx)
		if err != nil {
			c.logFailure(op, opID, id, err)
		}
		result <- err
		close(result)
	})
	if !ok {
		result <- task.NewError(op, id, task.ErrClosed)
		close(result)
	}

	return result
}

func (c *Coordinator) logFailure(op, opID string, id int64, err error) {
	attrs := []any{"op", op, "op_id", opID, "error", err}
	if id != 0 {
		attrs = append(attrs, "task_id", id)
	}

	switch {
	case task.IsNotFound(err), task.IsInvalidInput(err), errors.Is(err, task.ErrClosed):
		c.logger.Warn("command rejected", attrs...)
	default:
		c.logger.Error("command failed", attrs...)
	}
}

// resolved returns a closed result channel holding err.
func resolved(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	close(ch)
	return ch
}
