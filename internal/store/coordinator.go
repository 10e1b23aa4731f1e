package store

import "sync"

// task is a unit of work for the coordination goroutine.
type task struct {
	fn   func()
	done chan struct{}
}

// coordinator runs submitted functions one at a time on a single goroutine.
// It is the owner of a container's main context: every mutation of that
// context happens inside a task, so the pending change set has exactly one
// writer.
//
// The queue is unbounded so Submit never blocks. The signal channel
// (buffered, size 1) coalesces wakeups; closing it wakes the loop for the
// final drain.
type coordinator struct {
	mu      sync.Mutex
	tasks   []task
	closed  bool
	signal  chan struct{}
	stopped chan struct{}
}

// newCoordinator starts the coordination goroutine.
func newCoordinator() *coordinator {
	c := &coordinator{
		tasks:   make([]task, 0, 8),
		signal:  make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go c.loop()
	return c
}

// Submit queues fn and returns a channel closed after fn has run.
// Returns false if the coordinator is closed.
func (c *coordinator) Submit(fn func()) (<-chan struct{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, false
	}

	t := task{fn: fn, done: make(chan struct{})}
	c.tasks = append(c.tasks, t)

	select {
	case c.signal <- struct{}{}:
	default:
	}

	return t.done, true
}

// tryDequeue removes and returns the front task without blocking.
func (c *coordinator) tryDequeue() (task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.tasks) == 0 {
		return task{}, false
	}

	t := c.tasks[0]
	c.tasks[0] = task{} // release fn for GC
	if len(c.tasks) == 1 {
		c.tasks = c.tasks[:0]
	} else {
		c.tasks = c.tasks[1:]
	}
	return t, true
}

func (c *coordinator) loop() {
	defer close(c.stopped)

	for {
		for {
			t, ok := c.tryDequeue()
			if !ok {
				break
			}
			t.fn()
			close(t.done)
		}

		c.mu.Lock()
		finished := c.closed && len(c.tasks) == 0
		c.mu.Unlock()
		if finished {
			return
		}

		<-c.signal
	}
}

// Close stops accepting tasks, lets queued tasks finish, and waits for the
// goroutine to exit. Safe to call more than once.
func (c *coordinator) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.signal)
	}
	c.mu.Unlock()

	<-c.stopped
}
