package bus

import "sync"

// Loopback is an in-process Bus delivering every broadcast to all
// subscribers, the sender's own included. It backs tests and
// single-process deployments where the platform layer bridges the
// loopback to a real carrier.
type Loopback struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewLoopback creates an empty in-process bus.
func NewLoopback() *Loopback {
	return &Loopback{}
}

// Broadcast delivers msg synchronously to every subscriber.
func (l *Loopback) Broadcast(msg *Message) error {
	l.mu.RLock()
	handlers := make([]Handler, len(l.handlers))
	copy(handlers, l.handlers)
	l.mu.RUnlock()

	for _, h := range handlers {
		h(msg)
	}
	return nil
}

// Subscribe registers a handler for all subsequent broadcasts.
func (l *Loopback) Subscribe(h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, h)
}
