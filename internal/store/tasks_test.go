package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taskcore/internal/task"
)

func TestCreate_AssignsIDAndLeadsSnapshot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sub, err := s.ObserveAll(ctx)
	require.NoError(t, err)
	defer sub.Close()
	assert.Empty(t, nextSnapshot(t, sub))

	created, err := s.Create(ctx, "Buy milk")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Buy milk", created.Title)
	assert.False(t, created.Done)

	tasks := nextSnapshot(t, sub)
	require.Len(t, tasks, 1)
	assert.Equal(t, created, tasks[0])
}

func TestCreate_NewestFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, err := s.Create(ctx, "A")
	require.NoError(t, err)
	b, err := s.Create(ctx, "B")
	require.NoError(t, err)
	assert.Greater(t, b.ID, a.ID)

	sub, err := s.ObserveAll(ctx)
	require.NoError(t, err)
	defer sub.Close()
	assert.Equal(t, []string{"B", "A"}, titles(nextSnapshot(t, sub)))

	listed, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []task.Task{b, a}, listed)
}

func TestCreate_BlankTitle(t *testing.T) {
	s := createTestStore(t)

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := s.Create(context.Background(), title)
		assert.True(t, task.IsInvalidInput(err), "title %q: got %v", title, err)
	}

	listed, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestCreate_NormalizesTitle(t *testing.T) {
	s := createTestStore(t)

	created, err := s.Create(context.Background(), "  cafe\u0301  ")
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9", created.Title)

	got, err := s.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9", got.Title)
}

func TestCreate_IDsNeverReused(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)

	a, err := s.Create(ctx, "A")
	require.NoError(t, err)
	b, err := s.Create(ctx, "B")
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, b))

	c, err := s.Create(ctx, "C")
	require.NoError(t, err)
	assert.Greater(t, c.ID, b.ID)
	require.NoError(t, s.Delete(ctx, c))
	require.NoError(t, s.Close())

	// Reopen: the high-water mark survives.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	d, err := s.Create(ctx, "D")
	require.NoError(t, err)
	assert.Greater(t, d.ID, c.ID)
	assert.Greater(t, d.ID, a.ID)
}

func TestUpdate_ReplacesFieldsOnly(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, err := s.Create(ctx, "A")
	require.NoError(t, err)
	b, err := s.Create(ctx, "B")
	require.NoError(t, err)

	sub, err := s.ObserveAll(ctx)
	require.NoError(t, err)
	defer sub.Close()
	nextSnapshot(t, sub)

	require.NoError(t, s.Update(ctx, b.Toggled()))

	tasks := nextSnapshot(t, sub)
	require.Len(t, tasks, 2)
	assert.Equal(t, task.Task{ID: b.ID, Title: "B", Done: true}, tasks[0])
	assert.Equal(t, a, tasks[1])

	require.NoError(t, s.Update(ctx, a.Retitled("A2")))
	tasks = nextSnapshot(t, sub)
	assert.Equal(t, []string{"B", "A2"}, titles(tasks))
	assert.True(t, tasks[0].Done)
	assert.False(t, tasks[1].Done)
}

func TestUpdate_NotFound(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, err := s.Create(ctx, "A")
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, a))

	err = s.Update(ctx, a.Toggled())
	require.Error(t, err)
	assert.True(t, task.IsNotFound(err))

	id, ok := task.TaskID(err)
	require.True(t, ok)
	assert.Equal(t, a.ID, id)
}

func TestUpdate_BlankTitle(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, err := s.Create(ctx, "A")
	require.NoError(t, err)

	err = s.Update(ctx, a.Retitled("  "))
	assert.True(t, task.IsInvalidInput(err))

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)
}

func TestDelete_RemovesRecord(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, err := s.Create(ctx, "A")
	require.NoError(t, err)
	_, err = s.Create(ctx, "B")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, a))

	listed, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, titles(listed))

	_, err = s.Get(ctx, a.ID)
	assert.True(t, task.IsNotFound(err))
}

func TestDelete_AbsentIsNoop(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "A")
	require.NoError(t, err)

	sub, err := s.ObserveAll(ctx)
	require.NoError(t, err)
	defer sub.Close()
	before := nextSnapshot(t, sub)

	require.NoError(t, s.Delete(ctx, task.Task{ID: 9999}))

	select {
	case got := <-sub.C():
		t.Fatalf("unexpected snapshot after no-op delete: %v", got)
	default:
	}

	listed, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, listed)
}

func TestObserveAll_IndependentSubscribers(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	slow, err := s.ObserveAll(ctx)
	require.NoError(t, err)
	defer slow.Close()
	fast, err := s.ObserveAll(ctx)
	require.NoError(t, err)
	defer fast.Close()
	nextSnapshot(t, fast)

	// slow never reads; writes and fast must not stall.
	for i := 0; i < 20; i++ {
		_, err := s.Create(ctx, "task")
		require.NoError(t, err)
		assert.Len(t, nextSnapshot(t, fast), i+1)
	}

	assert.Len(t, nextSnapshot(t, slow), 20)
}

func TestObserveAll_ReflectsAwaitedMutation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, err := s.Create(ctx, "A")
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, a.Toggled()))

	// A subscriber arriving after the awaited update sees the new state.
	sub, err := s.ObserveAll(ctx)
	require.NoError(t, err)
	defer sub.Close()

	tasks := nextSnapshot(t, sub)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Done)
}

func TestObserveAll_AfterClose(t *testing.T) {
	s := createTestStore(t)
	sub, err := s.ObserveAll(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.Close())
	<-sub.Done()

	_, err = s.ObserveAll(context.Background())
	assert.ErrorIs(t, err, task.ErrClosed)

	_, err = s.Create(context.Background(), "late")
	assert.ErrorIs(t, err, task.ErrClosed)
}

func TestConcurrentMutations_DifferentIDs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	var created []task.Task
	for i := 0; i < 10; i++ {
		c, err := s.Create(ctx, "t")
		require.NoError(t, err)
		created = append(created, c)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(created))
	for _, c := range created {
		wg.Add(1)
		go func(c task.Task) {
			defer wg.Done()
			errs <- s.Update(ctx, c.Toggled())
		}(c)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	sub, err := s.ObserveAll(ctx)
	require.NoError(t, err)
	defer sub.Close()
	for _, got := range nextSnapshot(t, sub) {
		assert.True(t, got.Done, "task %d not toggled", got.ID)
	}
}

func TestRefresh_PicksUpDirectWrites(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.DB().Exec("INSERT INTO tasks (title) VALUES ('direct')")
	require.NoError(t, err)

	sub, err := s.ObserveAll(ctx)
	require.NoError(t, err)
	defer sub.Close()
	assert.Empty(t, nextSnapshot(t, sub))

	require.NoError(t, s.Refresh(ctx))
	assert.Equal(t, []string{"direct"}, titles(nextSnapshot(t, sub)))
}

func TestOpen_LoadsExistingSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Create(ctx, "persisted")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	sub, err := s.ObserveAll(ctx)
	require.NoError(t, err)
	defer sub.Close()
	assert.Equal(t, []string{"persisted"}, titles(nextSnapshot(t, sub)))
}
