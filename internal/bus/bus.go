// Package bus defines the abstract message transport the engine runs
// on. The engine never opens sockets itself; the platform layer binds
// a Bus implementation to whatever carrier it has (multicast socket,
// WebSocket bridge, in-process loopback).
package bus

// Handler receives every message the transport can observe, including
// the local device's own broadcasts. Subscribers filter by identifier.
type Handler func(*Message)

// Bus is the transport contract: best-effort broadcast with no
// delivery guarantee and no acknowledgement. The periodic re-announce
// design compensates for lost messages.
type Bus interface {
	Broadcast(msg *Message) error
	Subscribe(h Handler)
}
