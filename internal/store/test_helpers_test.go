package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/taskcore/internal/task"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// nextSnapshot waits up to one second for the next snapshot on sub.
func nextSnapshot(t *testing.T, sub *Subscription) []task.Task {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	tasks, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	return tasks
}

func titles(tasks []task.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}
