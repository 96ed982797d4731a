package coordinator

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/taskcore/internal/store"
	"github.com/roach88/taskcore/internal/task"
)

func newTestCoordinator(t *testing.T, window time.Duration) (*Coordinator, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	c := New(st, WithHighlightWindow(window), WithOpIDGenerator(NewFixedGenerator("op-test")))
	t.Cleanup(func() {
		c.Close()
		st.Close()
	})
	return c, st
}

// await waits up to one second for a command result.
func await(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(time.Second):
		t.Fatal("command did not complete")
		return nil
	}
}

// currentTasks subscribes, takes the immediate snapshot, and unsubscribes.
func currentTasks(t *testing.T, c *Coordinator) []task.Task {
	t.Helper()
	sub, err := c.ObserveTasks(context.Background())
	require.NoError(t, err)
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	tasks, err := sub.Next(ctx)
	require.NoError(t, err)
	return tasks
}

func addTask(t *testing.T, c *Coordinator, title string) task.Task {
	t.Helper()
	require.NoError(t, await(t, c.AddTask(title)))
	tasks := currentTasks(t, c)
	require.NotEmpty(t, tasks)
	return tasks[0]
}

// highlightRecorder collects every highlight emission.
type highlightRecorder struct {
	mu  sync.Mutex
	got []task.Highlight
}

func recordHighlights(t *testing.T, c *Coordinator) *highlightRecorder {
	t.Helper()
	sub, err := c.ObserveHighlight(context.Background())
	require.NoError(t, err)
	t.Cleanup(sub.Close)

	r := &highlightRecorder{}
	go func() {
		for h := range sub.C() {
			r.mu.Lock()
			r.got = append(r.got, h)
			r.mu.Unlock()
		}
	}()

	// Take the initial value before the caller starts mutating, so it is not
	// coalesced away.
	require.Eventually(t, func() bool { return len(r.snapshot()) > 0 }, time.Second, time.Millisecond)
	return r
}

func (r *highlightRecorder) snapshot() []task.Highlight {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]task.Highlight, len(r.got))
	copy(out, r.got)
	return out
}

func (r *highlightRecorder) last() task.Highlight {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.got) == 0 {
		return task.None
	}
	return r.got[len(r.got)-1]
}

func titles(tasks []task.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}
