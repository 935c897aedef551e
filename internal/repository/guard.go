package repository

import "sync"

// guard serializes every storage operation behind one lock. It must only wrap
// database calls; network or file I/O stays outside.
type guard struct {
	mu sync.Mutex
}

func (g *guard) do(fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn()
}
