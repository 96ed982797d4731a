package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/taskcore/internal/coordinator"
	"github.com/roach88/taskcore/internal/store"
	"github.com/roach88/taskcore/internal/task"
)

// stepTimeout bounds how long a single command may take.
const stepTimeout = 5 * time.Second

// harness holds the per-run store and coordinator.
type harness struct {
	store  *store.Store
	coord  *coordinator.Coordinator
	window time.Duration
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger routes store and coordinator logs to l.
// Default: logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh database in a temporary directory that is
// removed afterwards. Command failures are recorded in the trace, not
// returned; Run only returns an error if the scenario cannot be executed
// (bad index, store setup failure, timeout).
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := &runConfig{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs by default
	}
	for _, opt := range opts {
		opt(cfg)
	}

	window, err := scenario.Window()
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "taskcore-harness-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	st, err := store.Open(filepath.Join(dir, "scenario.db"), store.WithLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	defer st.Close()

	coord := coordinator.New(st,
		coordinator.WithHighlightWindow(window),
		coordinator.WithLogger(cfg.logger),
	)
	defer coord.Close()

	h := &harness{store: st, coord: coord, window: window}
	result := NewResult()

	for i, step := range scenario.Steps {
		event, err := h.executeStep(ctx, i, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op(), err)
		}
		result.Trace = append(result.Trace, event)
	}

	final, err := h.tasks(ctx)
	if err != nil {
		return nil, err
	}
	result.Final = final
	result.Highlight = coord.Highlight()

	if scenario.Expect != nil {
		for _, msg := range checkExpect(scenario.Expect, result.Final, result.Highlight) {
			result.AddError(msg)
		}
	}

	return result, nil
}

func (h *harness) executeStep(ctx context.Context, i int, step Step) (TraceEvent, error) {
	event := TraceEvent{Step: i + 1, Op: step.Op()}

	var pending <-chan error
	switch {
	case step.Add != nil:
		event.Arg = *step.Add
		pending = h.coord.AddTask(*step.Add)

	case step.Toggle != nil:
		t, err := h.at(ctx, *step.Toggle)
		if err != nil {
			return event, err
		}
		event.TaskID = t.ID
		pending = h.coord.ToggleTask(t)

	case step.Edit != nil:
		t, err := h.at(ctx, step.Edit.Index)
		if err != nil {
			return event, err
		}
		event.TaskID = t.ID
		event.Arg = step.Edit.Title
		pending = h.coord.UpdateTask(t, step.Edit.Title)

	case step.Delete != nil:
		t, err := h.at(ctx, *step.Delete)
		if err != nil {
			return event, err
		}
		event.TaskID = t.ID
		pending = h.coord.DeleteTask(t)

	case step.WaitHighlightClear:
		if err := h.waitHighlightClear(ctx); err != nil {
			return event, err
		}
	}

	if pending != nil {
		select {
		case err := <-pending:
			if err != nil {
				event.Error = err.Error()
			}
		case <-ctx.Done():
			return event, ctx.Err()
		case <-time.After(stepTimeout):
			return event, fmt.Errorf("command did not complete within %s", stepTimeout)
		}
	}

	tasks, err := h.tasks(ctx)
	if err != nil {
		return event, err
	}
	event.Tasks = tasks
	if hl := h.coord.Highlight(); hl.Active {
		event.Highlight = hl.TaskID
	}

	return event, nil
}

// tasks returns the current snapshot from the live query.
func (h *harness) tasks(ctx context.Context) ([]task.Task, error) {
	sub, err := h.coord.ObserveTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("observe tasks: %w", err)
	}
	defer sub.Close()

	tasks, err := sub.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("read tasks: %w", err)
	}
	return tasks, nil
}

// at resolves a list index against the current snapshot.
func (h *harness) at(ctx context.Context, index int) (task.Task, error) {
	tasks, err := h.tasks(ctx)
	if err != nil {
		return task.Task{}, err
	}
	if index < 0 || index >= len(tasks) {
		return task.Task{}, fmt.Errorf("index out of range: have %d, got %d", len(tasks), index)
	}
	return tasks[index], nil
}

func (h *harness) waitHighlightClear(ctx context.Context) error {
	sub, err := h.coord.ObserveHighlight(ctx)
	if err != nil {
		return fmt.Errorf("observe highlight: %w", err)
	}
	defer sub.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*h.window+time.Second)
	defer cancel()

	for {
		hl, err := sub.Next(ctx)
		if err != nil {
			return fmt.Errorf("highlight did not clear: %w", err)
		}
		if !hl.Active {
			return nil
		}
	}
}

// checkExpect compares the final state with the expect clause.
func checkExpect(exp *ExpectClause, final []task.Task, hl task.Highlight) []string {
	var errs []string

	if exp.Tasks != nil {
		if len(final) != len(exp.Tasks) {
			errs = append(errs, fmt.Sprintf("expected %d tasks, got %d", len(exp.Tasks), len(final)))
		} else {
			for i, want := range exp.Tasks {
				got := final[i]
				if got.Title != want.Title || got.Done != want.Done {
					errs = append(errs, fmt.Sprintf("task %d: expected {title: %q, done: %t}, got {title: %q, done: %t}",
						i, want.Title, want.Done, got.Title, got.Done))
				}
			}
		}
	}

	switch exp.Highlight {
	case "":
	case "none":
		if hl.Active {
			errs = append(errs, fmt.Sprintf("expected no highlight, got task %d", hl.TaskID))
		}
	default:
		if !hl.Active {
			errs = append(errs, fmt.Sprintf("expected highlight on %q, got none", exp.Highlight))
			break
		}
		found := false
		for _, t := range final {
			if t.ID == hl.TaskID {
				found = true
				if t.Title != exp.Highlight {
					errs = append(errs, fmt.Sprintf("expected highlight on %q, got %q", exp.Highlight, t.Title))
				}
			}
		}
		if !found {
			errs = append(errs, fmt.Sprintf("expected highlight on %q, got deleted task %d", exp.Highlight, hl.TaskID))
		}
	}

	return errs
}
