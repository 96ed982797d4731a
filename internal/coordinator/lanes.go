package coordinator

import "sync"

// createLane is the lane key shared by all creates. Store ids start at 1.
const createLane int64 = 0

// lanes runs jobs in FIFO order per key, with one draining goroutine per
// non-empty lane. A lane is discarded as soon as it empties.
type lanes struct {
	mu      sync.Mutex
	idle    *sync.Cond // Broadcast when pending drops to zero
	queues  map[int64]*lane
	pending int
	closed  bool
}

type lane struct {
	jobs []func()
}

func newLanes() *lanes {
	l := &lanes{
		queues: make(map[int64]*lane),
	}
	l.idle = sync.NewCond(&l.mu)
	return l
}

// submit appends job to the lane for key.
// Returns false if the lanes have been closed.
func (l *lanes) submit(key int64, job func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false
	}
	l.pending++

	if q, ok := l.queues[key]; ok {
		q.jobs = append(q.jobs, job)
		return true
	}

	q := &lane{jobs: []func(){job}}
	l.queues[key] = q
	go l.drain(key, q)
	return true
}

func (l *lanes) drain(key int64, q *lane) {
	for {
		l.mu.Lock()
		if len(q.jobs) == 0 {
			delete(l.queues, key)
			l.mu.Unlock()
			return
		}
		job := q.jobs[0]
		// Nil out the slot so the closure can be collected.
		q.jobs[0] = nil
		q.jobs = q.jobs[1:]
		l.mu.Unlock()

		job()

		l.mu.Lock()
		l.pending--
		if l.pending == 0 {
			l.idle.Broadcast()
		}
		l.mu.Unlock()
	}
}

// wait blocks until every submitted job has finished.
func (l *lanes) wait() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.pending > 0 {
		l.idle.Wait()
	}
}

// active returns the number of non-empty lanes.
func (l *lanes) active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queues)
}

// close rejects further submits. Already queued jobs still run.
func (l *lanes) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}
