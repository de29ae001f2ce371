package receiver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlnacast/receiverd/internal/bus"
	"github.com/dlnacast/receiverd/internal/config"
	"github.com/dlnacast/receiverd/internal/control"
	"github.com/dlnacast/receiverd/internal/device"
	"github.com/dlnacast/receiverd/internal/media"
)

type nopSurface struct {
	mu      sync.Mutex
	intents int
}

func (s *nopSurface) OnPlaybackIntent(media.Kind, string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents++
}

func (s *nopSurface) OnPause() {}

func (s *nopSurface) OnStop() {}

func (s *nopSurface) OnVolume(float64) {}

func (s *nopSurface) OnQueryPosition() (float64, float64, bool) {
	return 0, 0, false
}

var _ control.Surface = (*nopSurface)(nil)

// responseCollector gathers control responses off the bus.
type responseCollector struct {
	mu        sync.Mutex
	responses []*bus.Message
}

func (c *responseCollector) handle(msg *bus.Message) {
	if msg.Kind != bus.KindControlResponse {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses = append(c.responses, msg)
}

func (c *responseCollector) list() []*bus.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*bus.Message, len(c.responses))
	copy(out, c.responses)
	return out
}

func newTestService(t *testing.T) (*Service, *bus.Loopback, *responseCollector) {
	t.Helper()

	b := bus.NewLoopback()
	collector := &responseCollector{}
	b.Subscribe(collector.handle)

	svc := New(config.DefaultConfig(), "192.168.1.10", b, &nopSurface{}, zerolog.Nop())
	return svc, b, collector
}

func TestServiceStartStop(t *testing.T) {
	svc, _, _ := newTestService(t)

	svc.Start(context.Background())
	assert.False(t, svc.Degraded())
	assert.Empty(t, svc.Peers(), "own announcements must not appear as peers")

	svc.Stop()
}

func TestServiceRegistersRemotePeer(t *testing.T) {
	svc, b, _ := newTestService(t)

	svc.Start(context.Background())
	defer svc.Stop()

	announce := bus.New(bus.KindAnnounce)
	announce.Device = &device.Descriptor{
		UDN:          "uuid:remote",
		DeviceType:   device.TypeMediaRenderer,
		FriendlyName: "Other TV",
	}
	require.NoError(t, b.Broadcast(announce))

	peers := svc.Peers()
	require.Len(t, peers, 1)
	assert.Equal(t, "uuid:remote", peers[0].UDN)
}

func TestServiceControlRoundTrip(t *testing.T) {
	svc, b, collector := newTestService(t)

	svc.Start(context.Background())
	defer svc.Stop()

	// Non-network source: accepted without probing
	req := bus.New(bus.KindControlRequest)
	req.RequestID = "rt-1"
	req.Action = control.ActionSetAVTransportURI
	req.Args = map[string]string{"CurrentURI": "file:///media/demo.mp4"}
	require.NoError(t, b.Broadcast(req))

	responses := collector.list()
	require.Len(t, responses, 1, "every accepted request yields exactly one response")
	assert.Equal(t, "rt-1", responses[0].RequestID)
	assert.Equal(t, control.ActionSetAVTransportURI, responses[0].Action)
	assert.True(t, responses[0].Success)
}

func TestServiceControlErrorResponse(t *testing.T) {
	svc, b, collector := newTestService(t)

	svc.Start(context.Background())
	defer svc.Stop()

	req := bus.New(bus.KindControlRequest)
	req.RequestID = "play-1"
	req.Action = control.ActionPlay
	require.NoError(t, b.Broadcast(req))

	responses := collector.list()
	require.Len(t, responses, 1)
	assert.False(t, responses[0].Success)
	assert.Equal(t, "no media URI set", responses[0].Error)
}

func TestServiceDropsUnknownAction(t *testing.T) {
	svc, b, collector := newTestService(t)

	svc.Start(context.Background())
	defer svc.Stop()

	req := bus.New(bus.KindControlRequest)
	req.RequestID = "x-1"
	req.Action = "GetDeviceCapabilities"
	require.NoError(t, b.Broadcast(req))

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, collector.list(), "unsupported actions must not generate protocol noise")
}

func TestServiceDescription(t *testing.T) {
	svc, _, _ := newTestService(t)

	doc, err := svc.Description()
	require.NoError(t, err)
	assert.Contains(t, doc, svc.Device().UDN)
	assert.Contains(t, doc, device.AVTransportServiceType)
}
