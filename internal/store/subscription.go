package store

import (
	"github.com/roach88/taskcore/internal/live"
	"github.com/roach88/taskcore/internal/task"
)

// Subscription is a live view of the record set.
type Subscription = live.Subscription[[]task.Task]
