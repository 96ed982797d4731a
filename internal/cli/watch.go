package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/taskcore/internal/task"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	For time.Duration
}

// watchFrame is one JSON line emitted by watch.
type watchFrame struct {
	Tasks     []task.Task `json:"tasks"`
	Highlight int64       `json:"highlight"`
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream the task list and highlight",
		Long: `Print the task list every time it or the "Updated" highlight changes.

Runs until interrupted, or for the duration given by --for. In JSON mode
each change is one line: {"tasks": [...], "highlight": <id or 0>}.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			if opts.For > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, opts.For)
				defer cancel()
			}
			return s.watch(ctx)
		},
	}

	cmd.Flags().DurationVar(&opts.For, "for", 0, "stop after this long (0 = until interrupted)")

	return cmd
}

// watch prints a frame per change until ctx ends or the subscriptions close.
func (s *session) watch(ctx context.Context) error {
	tasksSub, err := s.coord.ObserveTasks(ctx)
	if err != nil {
		return s.fail("failed to observe tasks", err)
	}
	defer tasksSub.Close()

	hlSub, err := s.coord.ObserveHighlight(ctx)
	if err != nil {
		return s.fail("failed to observe highlight", err)
	}
	defer hlSub.Close()

	var (
		tasks []task.Task
		hl    task.Highlight
		ready bool // first task snapshot received
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case t, ok := <-tasksSub.C():
			if !ok {
				return nil
			}
			tasks, ready = t, true
		case h, ok := <-hlSub.C():
			if !ok {
				return nil
			}
			hl = h
			if !ready {
				continue
			}
		}
		if err := s.printFrame(tasks, hl); err != nil {
			return err
		}
	}
}

func (s *session) printFrame(tasks []task.Task, hl task.Highlight) error {
	if s.out.Format == "json" {
		return json.NewEncoder(s.out.Writer).Encode(watchFrame{Tasks: tasks, Highlight: hl.TaskID})
	}
	_, err := fmt.Fprintf(s.out.Writer, "%s\n%s\n", time.Now().Format(time.TimeOnly), renderList(tasks, hl))
	return err
}
