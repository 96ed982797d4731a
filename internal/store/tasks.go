package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/taskcore/internal/task"
)

// ObserveAll subscribes to the full record set, newest id first.
// The current snapshot is delivered immediately; a fresh one follows every
// successful mutation. Returns task.ErrClosed after Close.
//
// Delivered slices are shared between subscribers and must not be modified.
func (s *Store) ObserveAll(ctx context.Context) (*Subscription, error) {
	sub, err := s.snapshot.Subscribe(ctx)
	if err != nil {
		return nil, task.NewError("observe", 0, task.ErrClosed)
	}
	return sub, nil
}

// Create inserts a new task with a store-assigned id and done=false.
// The title is normalized first; a blank title fails with task.ErrInvalidInput.
func (s *Store) Create(ctx context.Context, title string) (task.Task, error) {
	title = task.NormalizeTitle(title)
	if title == "" {
		return task.Task{}, task.NewError("create", 0, task.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return task.Task{}, task.NewError("create", 0, task.ErrClosed)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (title, done)
		VALUES (?, 0)
	`, title)
	if err != nil {
		return task.Task{}, task.NewError("create", 0, fmt.Errorf("insert: %w", err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return task.Task{}, task.NewError("create", 0, fmt.Errorf("last insert id: %w", err))
	}

	t := task.Task{ID: id, Title: title}

	// New ids are always the largest, so the new record leads the snapshot.
	cur := s.snapshot.Get()
	next := make([]task.Task, 0, len(cur)+1)
	next = append(next, t)
	next = append(next, cur...)
	s.snapshot.Set(next)

	s.logger.Debug("task created", "task_id", id)
	return t, nil
}

// Update replaces the title and done fields of the record with t.ID.
// Fails with task.ErrNotFound if no such record exists and with
// task.ErrInvalidInput if t.Title is blank.
func (s *Store) Update(ctx context.Context, t task.Task) error {
	t.Title = task.NormalizeTitle(t.Title)
	if t.Title == "" {
		return task.NewError("update", t.ID, task.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return task.NewError("update", t.ID, task.ErrClosed)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, done = ?
		WHERE id = ?
	`, t.Title, t.Done, t.ID)
	if err != nil {
		return task.NewError("update", t.ID, fmt.Errorf("exec: %w", err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return task.NewError("update", t.ID, fmt.Errorf("rows affected: %w", err))
	}
	if n == 0 {
		return task.NewError("update", t.ID, task.ErrNotFound)
	}

	cur := s.snapshot.Get()
	next := make([]task.Task, len(cur))
	copy(next, cur)
	for i := range next {
		if next[i].ID == t.ID {
			next[i] = t
			break
		}
	}
	s.snapshot.Set(next)

	s.logger.Debug("task updated", "task_id", t.ID, "done", t.Done)
	return nil
}

// Delete removes the record with t.ID. Deleting an absent id succeeds and
// leaves the snapshot untouched.
func (s *Store) Delete(ctx context.Context, t task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return task.NewError("delete", t.ID, task.ErrClosed)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, t.ID)
	if err != nil {
		return task.NewError("delete", t.ID, fmt.Errorf("exec: %w", err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return task.NewError("delete", t.ID, fmt.Errorf("rows affected: %w", err))
	}
	if n == 0 {
		s.logger.Debug("delete of absent task ignored", "task_id", t.ID)
		return nil
	}

	cur := s.snapshot.Get()
	next := make([]task.Task, 0, len(cur))
	for _, old := range cur {
		if old.ID != t.ID {
			next = append(next, old)
		}
	}
	s.snapshot.Set(next)

	s.logger.Debug("task deleted", "task_id", t.ID)
	return nil
}

// Get returns the record with the given id, or task.ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (task.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, done
		FROM tasks
		WHERE id = ?
	`, id)

	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, task.NewError("get", id, task.ErrNotFound)
	}
	if err != nil {
		return task.Task{}, task.NewError("get", id, err)
	}
	return t, nil
}

// List reads the full record set from the database, newest id first.
// Returns an empty slice (not nil) if there are no records.
func (s *Store) List(ctx context.Context) ([]task.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, done
		FROM tasks
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}

// Refresh reloads the snapshot from the database and republishes it.
// Only needed after writing through DB() directly.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return task.NewError("refresh", 0, task.ErrClosed)
	}

	tasks, err := s.List(ctx)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	s.snapshot.Set(tasks)
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (task.Task, error) {
	var t task.Task
	if err := r.Scan(&t.ID, &t.Title, &t.Done); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return task.Task{}, err
		}
		return task.Task{}, fmt.Errorf("scan task: %w", err)
	}
	return t, nil
}
