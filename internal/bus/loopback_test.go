package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopbackDeliversToAllSubscribers(t *testing.T) {
	l := NewLoopback()

	var first, second []*Message
	l.Subscribe(func(msg *Message) { first = append(first, msg) })
	l.Subscribe(func(msg *Message) { second = append(second, msg) })

	msg := New(KindAnnounce)
	require.NoError(t, l.Broadcast(msg))

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Same(t, msg, first[0])
}

func TestLoopbackDeliversOwnBroadcasts(t *testing.T) {
	l := NewLoopback()

	var seen []Kind
	l.Subscribe(func(msg *Message) { seen = append(seen, msg.Kind) })

	// A subscriber broadcasting sees its own message; self-filtering is
	// the engine's job, not the transport's
	require.NoError(t, l.Broadcast(New(KindSearch)))
	assert.Equal(t, []Kind{KindSearch}, seen)
}

func TestNewMessageTimestamp(t *testing.T) {
	msg := New(KindPresence)
	assert.Equal(t, KindPresence, msg.Kind)
	assert.NotZero(t, msg.Timestamp)
}
