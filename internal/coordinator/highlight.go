package coordinator

import (
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/taskcore/internal/live"
	"github.com/roach88/taskcore/internal/task"
)

// highlighter owns the single highlight slot and its expiry timer.
type highlighter struct {
	mu      sync.Mutex
	clock   *Clock
	window  time.Duration
	version int64 // version of the set currently holding the slot
	timer   *time.Timer
	closed  bool
	value   *live.Value[task.Highlight]
	logger  *slog.Logger
}

func newHighlighter(window time.Duration, logger *slog.Logger) *highlighter {
	return &highlighter{
		clock:  NewClock(),
		window: window,
		value: live.New(task.None, live.WithEqual(func(a, b task.Highlight) bool {
			return a == b
		})),
		logger: logger,
	}
}

// set highlights id and schedules a clear tagged with the new version.
// Returns the version, or 0 if the highlighter is closed.
func (h *highlighter) set(id int64) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0
	}

	v := h.clock.Next()
	h.version = v
	if h.timer != nil {
		h.timer.Stop()
	}
	h.value.Set(task.HighlightOf(id))
	h.timer = time.AfterFunc(h.window, func() { h.expire(v) })

	h.logger.Debug("highlight set", "task_id", id, "version", v)
	return v
}

// expire clears the slot if it still carries version v.
func (h *highlighter) expire(v int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	if h.version != v {
		h.logger.Debug("stale highlight clear ignored", "version", v, "current", h.version)
		return
	}

	h.timer = nil
	h.value.Set(task.None)
	h.logger.Debug("highlight cleared", "version", v)
}

func (h *highlighter) current() task.Highlight {
	return h.value.Get()
}

func (h *highlighter) close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.mu.Unlock()

	h.value.Close()
}
