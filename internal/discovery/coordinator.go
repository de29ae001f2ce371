package discovery

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dlnacast/receiverd/internal/bus"
	"github.com/dlnacast/receiverd/internal/device"
)

// LocationProber checks whether a peer's advertised description
// location actually answers. Used by compatibility probing.
type LocationProber func(ctx context.Context, location string) error

// Config holds the coordinator's protocol timing and local addressing.
type Config struct {
	AnnounceInterval  time.Duration
	DiscoveryInterval time.Duration
	MaxAge            time.Duration
	JitterMax         time.Duration

	// Location of the device description document, advertised in
	// announcements and search responses.
	Location string

	// Local network address and port advertised in presence messages.
	Address string
	Port    int
}

// defaultSearchTargets is the fixed set of device-type filters searched
// each discovery cycle. One search broadcast goes out per entry.
var defaultSearchTargets = []string{
	device.SearchTargetRootDevice,
	"urn:schemas-upnp-org:device:MediaRenderer:1",
	"urn:schemas-upnp-org:device:MediaServer:1",
}

// localServices is the set of service names this device answers
// service queries for.
var localServices = []string{
	device.AVTransportServiceType,
	device.RenderingControlServiceType,
}

// Coordinator runs the periodic announce and discovery cycles and
// reacts to inbound discovery messages, maintaining the peer registry.
// All failures inside a cycle are logged and the cycle continues; the
// coordinator never fails the host.
type Coordinator struct {
	cfg    Config
	self   device.Descriptor
	bus    bus.Bus
	reg    *Registry
	prober LocationProber
	log    zerolog.Logger

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewCoordinator creates a discovery coordinator. The registry is owned
// by the coordinator but may be read by presentation collaborators.
func NewCoordinator(cfg Config, self device.Descriptor, b bus.Bus, reg *Registry, prober LocationProber, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		cfg:    cfg,
		self:   self,
		bus:    b,
		reg:    reg,
		prober: prober,
		log:    log,
	}
}

// Registry exposes the peer registry read-only side.
func (c *Coordinator) Registry() *Registry {
	return c.reg
}

// Start sends the initial announcements and starts the periodic
// cycles. Send failures are logged, not returned: discovery degrades
// rather than failing the host.
func (c *Coordinator) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}
	c.running = true
	c.ctx, c.cancel = context.WithCancel(context.Background())

	// Initial alive announcement and presence, then one search round
	c.sendAnnounce(bus.KindAnnounce)
	c.sendPresence()
	c.searchOnce()

	c.wg.Add(2)
	go c.announceLoop()
	go c.discoveryLoop()

	c.log.Info().Str("udn", c.self.UDN).Msg("Discovery coordinator started")
}

// Stop broadcasts a departure announcement, cancels any pending
// jittered responses and waits for the cycles to finish.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	// Byebye lets peers drop us immediately instead of waiting out
	// max-age
	c.sendAnnounce(bus.KindByeBye)

	c.cancel()
	c.wg.Wait()
	c.log.Info().Msg("Discovery coordinator stopped")
}

// announceLoop broadcasts an alive announcement every announce interval.
func (c *Coordinator) announceLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.AnnounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.sendAnnounce(bus.KindAnnounce)
		}
	}
}

// discoveryLoop broadcasts search requests and ages out stale peers
// every discovery interval.
func (c *Coordinator) discoveryLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.DiscoveryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.searchOnce()
			if removed := c.reg.RemoveExpired(c.cfg.MaxAge); removed > 0 {
				c.log.Info().Int("removed", removed).Msg("Expired stale peers")
			}
		}
	}
}

// sendAnnounce broadcasts an alive or byebye announcement.
func (c *Coordinator) sendAnnounce(kind bus.Kind) {
	msg := bus.New(kind)
	msg.Device = &c.self
	msg.MaxAge = int(c.cfg.MaxAge / time.Second)
	msg.Location = c.cfg.Location
	msg.Address = c.cfg.Address
	msg.Port = c.cfg.Port

	if err := c.bus.Broadcast(msg); err != nil {
		c.log.Warn().Err(err).Str("kind", string(kind)).Msg("Announce broadcast failed")
	}
}

// sendPresence broadcasts the lighter-weight presence message used by
// cooperative non-UPnP peers.
func (c *Coordinator) sendPresence() {
	msg := bus.New(bus.KindPresence)
	msg.Device = &c.self
	msg.Address = c.cfg.Address
	msg.Port = c.cfg.Port

	if err := c.bus.Broadcast(msg); err != nil {
		c.log.Warn().Err(err).Msg("Presence broadcast failed")
	}
}

// searchOnce broadcasts one search request per tracked device-type
// filter to widen recall.
func (c *Coordinator) searchOnce() {
	for _, target := range defaultSearchTargets {
		msg := bus.New(bus.KindSearch)
		msg.Device = &c.self
		msg.SearchTarget = target

		if err := c.bus.Broadcast(msg); err != nil {
			c.log.Warn().Err(err).Str("st", target).Msg("Search broadcast failed")
		}
	}
}

// HandleMessage processes one inbound discovery message. Safe to call
// with the coordinator's own broadcasts; self-identified messages are
// filtered out.
func (c *Coordinator) HandleMessage(msg *bus.Message) {
	switch msg.Kind {
	case bus.KindAnnounce, bus.KindResponse:
		c.registerPeer(msg, SourceAnnounce)

	case bus.KindPresence:
		c.registerPeer(msg, SourcePresence)

	case bus.KindByeBye:
		if msg.Device != nil && msg.Device.UDN != c.self.UDN {
			c.reg.Remove(msg.Device.UDN)
			c.log.Info().Str("udn", msg.Device.UDN).Msg("Peer departed")
		}

	case bus.KindSearch:
		c.handleSearch(msg)

	case bus.KindServiceQuery:
		c.handleServiceQuery(msg)

	case bus.KindCapabilityUpdate:
		if msg.Device != nil && msg.Capabilities != nil {
			c.reg.MergeCapabilities(msg.Device.UDN, *msg.Capabilities)
		}
	}
}

// registerPeer upserts the sender of an announce-like message.
func (c *Coordinator) registerPeer(msg *bus.Message, source SourceTag) {
	if msg.Device == nil {
		return
	}

	rec := PeerRecord{
		Descriptor:  *msg.Device,
		Address:     msg.Address,
		Port:        msg.Port,
		LocationURL: msg.Location,
		Source:      source,
		Services:    msg.Services,
	}

	if c.reg.Upsert(rec) {
		c.log.Debug().
			Str("udn", rec.UDN).
			Str("name", rec.FriendlyName).
			Str("source", string(source)).
			Msg("Peer seen")
	}
}

// handleSearch replies to a matching search request after a randomized
// delay, mirroring standard discovery-protocol etiquette to avoid
// response storms.
func (c *Coordinator) handleSearch(msg *bus.Message) {
	// Never answer our own searches
	if msg.Device != nil && msg.Device.UDN == c.self.UDN {
		return
	}
	if msg.SearchTarget != device.SearchTargetRootDevice && msg.SearchTarget != c.self.DeviceType {
		return
	}

	c.replyAfterJitter(func() {
		resp := bus.New(bus.KindResponse)
		resp.Device = &c.self
		resp.MaxAge = int(c.cfg.MaxAge / time.Second)
		resp.Location = c.cfg.Location
		resp.Address = c.cfg.Address
		resp.Port = c.cfg.Port
		resp.SearchTarget = c.self.DeviceType

		if err := c.bus.Broadcast(resp); err != nil {
			c.log.Warn().Err(err).Msg("Search response failed")
		}
	})
}

// handleServiceQuery replies with the subset of queried services this
// device supports, under the same jitter policy as search responses.
func (c *Coordinator) handleServiceQuery(msg *bus.Message) {
	if msg.Device != nil && msg.Device.UDN == c.self.UDN {
		return
	}

	var matched []string
	for _, queried := range msg.Services {
		for _, local := range localServices {
			if queried == local {
				matched = append(matched, local)
				break
			}
		}
	}
	if len(matched) == 0 {
		return
	}

	c.replyAfterJitter(func() {
		resp := bus.New(bus.KindServiceResponse)
		resp.Device = &c.self
		resp.Services = matched
		resp.Location = c.cfg.Location
		resp.Address = c.cfg.Address
		resp.Port = c.cfg.Port

		if err := c.bus.Broadcast(resp); err != nil {
			c.log.Warn().Err(err).Msg("Service response failed")
		}
	})
}

// replyAfterJitter runs fn after a uniform random delay in
// [0, JitterMax). The delay is cancelled by Stop: no response fires
// after the coordinator is stopped.
func (c *Coordinator) replyAfterJitter(fn func()) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	ctx := c.ctx
	c.wg.Add(1)
	c.mu.Unlock()

	var delay time.Duration
	if c.cfg.JitterMax > 0 {
		delay = time.Duration(rand.Int63n(int64(c.cfg.JitterMax)))
	}

	go func() {
		defer c.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
		case <-timer.C:
			fn()
		}
	}()
}

// TestCompatibility derives compatibility flags for a known peer from
// its device type and exposed service names, verifies the peer's
// description location actually answers, then broadcasts a
// capability-update so cooperating peers converge on the same view.
func (c *Coordinator) TestCompatibility(ctx context.Context, udn string) (device.Capabilities, bool) {
	rec, ok := c.reg.Get(udn)
	if !ok {
		return device.Capabilities{}, false
	}

	caps := deriveCapabilities(rec)

	// A peer whose description endpoint does not answer gets no flags:
	// the advertised strings alone are not trusted
	if c.prober != nil && rec.LocationURL != "" {
		if err := c.prober(ctx, rec.LocationURL); err != nil {
			c.log.Debug().Str("udn", udn).Err(err).Msg("Compatibility probe failed")
			caps = device.Capabilities{}
		}
	}

	c.reg.MergeCapabilities(udn, caps)

	update := bus.New(bus.KindCapabilityUpdate)
	update.Device = &rec.Descriptor
	update.Capabilities = &caps
	if err := c.bus.Broadcast(update); err != nil {
		c.log.Warn().Err(err).Msg("Capability update broadcast failed")
	}

	return caps, true
}

// deriveCapabilities inspects a peer's device-type string and service
// names for protocol markers.
func deriveCapabilities(rec PeerRecord) device.Capabilities {
	var caps device.Capabilities

	haystack := strings.ToLower(rec.DeviceType)
	for _, svc := range rec.Services {
		haystack += " " + strings.ToLower(svc)
	}

	if strings.Contains(haystack, "schemas-upnp-org") {
		caps.UPnP = true
	}
	if caps.UPnP && (strings.Contains(haystack, "mediarenderer") ||
		strings.Contains(haystack, "mediaserver") ||
		strings.Contains(haystack, "avtransport") ||
		strings.Contains(haystack, "contentdirectory")) {
		caps.DLNA = true
	}
	if strings.Contains(haystack, "dial-multiscreen") || strings.Contains(haystack, "cast") {
		caps.Cast = true
	}
	if strings.Contains(haystack, "airplay") || strings.Contains(haystack, "raop") {
		caps.AirPlay = true
	}

	return caps
}
