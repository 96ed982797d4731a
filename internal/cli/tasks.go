package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/taskcore/internal/task"
)

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a task",
		Long: `Add a task with the given title.

Words are joined with single spaces. A title that is empty after trimming
is rejected.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			if task.IsBlank(title) {
				return NewExitError(ExitCommandError, "title must not be empty")
			}

			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			if err := await(ctx, s.coord.AddTask(title)); err != nil {
				return s.fail("failed to add task", err)
			}

			// Creates are serialized, so the newest row is ours.
			tasks, err := s.store.List(ctx)
			if err != nil {
				return s.fail("failed to read tasks", err)
			}
			created := tasks[0]
			return s.out.Success(fmt.Sprintf("Added %s", formatTask(created)), created)
		},
	}
}

// NewListCommand creates the ls command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "ls",
		Aliases:       []string{"list"},
		Short:         "List tasks, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			tasks, err := s.store.List(cmd.Context())
			if err != nil {
				return s.fail("failed to read tasks", err)
			}
			return s.out.Success(renderList(tasks, task.None), tasks)
		},
	}
}

// NewDoneCommand creates the done command. It flips completion, so running
// it twice restores the original state.
func NewDoneCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "done <id>",
		Short:         "Toggle a task's completion",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			t, err := s.store.Get(ctx, id)
			if err != nil {
				return s.fail("failed to toggle task", err)
			}
			if err := await(ctx, s.coord.ToggleTask(t)); err != nil {
				return s.fail("failed to toggle task", err)
			}

			toggled := t.Toggled()
			return s.out.Success(fmt.Sprintf("Toggled %s", formatTask(toggled)), toggled)
		},
	}
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "edit <id> <title...>",
		Short:         "Change a task's title",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			title := strings.Join(args[1:], " ")
			if task.IsBlank(title) {
				return NewExitError(ExitCommandError, "title must not be empty")
			}

			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			t, err := s.store.Get(ctx, id)
			if err != nil {
				return s.fail("failed to edit task", err)
			}
			if err := await(ctx, s.coord.UpdateTask(t, title)); err != nil {
				return s.fail("failed to edit task", err)
			}

			edited := t.Retitled(task.NormalizeTitle(title))
			return s.out.Success(fmt.Sprintf("Updated %s", formatTask(edited)), edited)
		},
	}
}

// NewRemoveCommand creates the rm command. Removing an id that does not
// exist succeeds.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "rm <id>",
		Aliases:       []string{"delete"},
		Short:         "Delete a task",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := await(cmd.Context(), s.coord.DeleteTask(task.Task{ID: id})); err != nil {
				return s.fail("failed to delete task", err)
			}
			return s.out.Success(fmt.Sprintf("Deleted task %d", id), map[string]int64{"id": id})
		},
	}
}

// fail reports err through the formatter and returns the matching exit error.
func (s *session) fail(message string, err error) error {
	_ = s.out.Error(ErrorCode(err), err.Error(), nil)
	code := ExitFailure
	if task.IsInvalidInput(err) {
		code = ExitCommandError
	}
	return &ExitError{Code: code, Message: message, Err: err, reported: true}
}

// await blocks until a command result arrives or ctx is cancelled.
func await(ctx context.Context, result <-chan error) error {
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// parseID parses a positive task id argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid task id %q", arg))
	}
	return id, nil
}

// formatTask renders one task as "#id [x] title".
func formatTask(t task.Task) string {
	return fmt.Sprintf("#%d %s %s", t.ID, checkbox(t.Done), t.Title)
}

// renderList renders tasks one per line, marking the highlighted one.
func renderList(tasks []task.Task, hl task.Highlight) string {
	if len(tasks) == 0 {
		return "No tasks."
	}
	var b strings.Builder
	for i, t := range tasks {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%4d  %s %s", t.ID, checkbox(t.Done), t.Title)
		if hl.Active && hl.TaskID == t.ID {
			b.WriteString("  (updated)")
		}
	}
	return b.String()
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}
