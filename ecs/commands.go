package ecs

import "sync"

// Commands buffers work that must not run while systems do, such as replacing
// a singleton that a running system may be reading. The entity set is sealed,
// so deferred functions are the only kind of command.
//
// Commands is safe for concurrent use: systems of one phase may queue at the
// same time.
type Commands struct {
	mu     sync.Mutex
	defers []func()
}

func newCommands() *Commands {
	return &Commands{}
}

// Defer queues fn to run at the next Flush.
func (c *Commands) Defer(fn func()) {
	c.mu.Lock()
	c.defers = append(c.defers, fn)
	c.mu.Unlock()
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.defers)
}

// Flush runs the queued functions in queue order and resets the buffer.
// Functions queued by a running function are run by the same Flush.
func (c *Commands) Flush() {
	for {
		c.mu.Lock()
		pending := c.defers
		c.defers = nil
		c.mu.Unlock()

		if len(pending) == 0 {
			return
		}
		for _, fn := range pending {
			fn()
		}
	}
}
