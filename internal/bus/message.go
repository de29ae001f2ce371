package bus

import (
	"time"

	"github.com/dlnacast/receiverd/internal/device"
)

// Kind tags a discovery or control message on the bus.
type Kind string

const (
	// KindAnnounce declares device presence ("ssdp:alive").
	KindAnnounce Kind = "announce"
	// KindByeBye declares device departure; peers may drop the sender
	// immediately instead of waiting out max-age.
	KindByeBye Kind = "byebye"
	// KindSearch requests devices matching a search target filter.
	KindSearch Kind = "search"
	// KindResponse answers a prior search; handled like an announce.
	KindResponse Kind = "response"
	// KindPresence is a lighter-weight announce used by cooperative
	// non-UPnP peers.
	KindPresence Kind = "presence"
	// KindServiceQuery asks for devices exposing any of the named services.
	KindServiceQuery Kind = "service-query"
	// KindServiceResponse answers a service query with the matching subset.
	KindServiceResponse Kind = "service-response"
	// KindCapabilityUpdate shares derived compatibility flags for a peer.
	KindCapabilityUpdate Kind = "capability-update"
	// KindControlRequest carries a transport-control action.
	KindControlRequest Kind = "control-request"
	// KindControlResponse carries the correlated action result.
	KindControlResponse Kind = "control-response"
)

// Message is the tagged union carried on the bus. Only the fields
// relevant to a message's Kind are populated.
type Message struct {
	Kind      Kind  `json:"kind"`
	Timestamp int64 `json:"ts"`

	// Sender identity, set on announce/byebye/response/presence/
	// service-response and capability-update messages.
	Device *device.Descriptor `json:"device,omitempty"`

	// Network location of the sender.
	Address string `json:"address,omitempty"`
	Port    int    `json:"port,omitempty"`

	// Announce metadata: cache lifetime in seconds and the location of
	// the device description document.
	MaxAge   int    `json:"max_age,omitempty"`
	Location string `json:"location,omitempty"`

	// Search filter, e.g. "upnp:rootdevice" or a device type URI.
	SearchTarget string `json:"st,omitempty"`

	// Service names for service-query / service-response messages.
	Services []string `json:"services,omitempty"`

	// Compatibility flags for capability-update messages.
	Capabilities *device.Capabilities `json:"capabilities,omitempty"`

	// Control action fields for control-request messages.
	RequestID string            `json:"request_id,omitempty"`
	Action    string            `json:"action,omitempty"`
	Args      map[string]string `json:"args,omitempty"`

	// Control result fields for control-response messages.
	Success bool              `json:"success,omitempty"`
	Result  map[string]string `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// New creates a message of the given kind with the current timestamp.
func New(kind Kind) *Message {
	return &Message{
		Kind:      kind,
		Timestamp: time.Now().UnixMilli(),
	}
}
