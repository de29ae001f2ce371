// Package receiver ties the discovery coordinator, the action
// dispatcher and the message bus together into the cast receiver
// engine. The platform layer supplies the transport and the media
// surface; the engine supplies everything in between.
package receiver

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dlnacast/receiverd/internal/bus"
	"github.com/dlnacast/receiverd/internal/config"
	"github.com/dlnacast/receiverd/internal/control"
	"github.com/dlnacast/receiverd/internal/device"
	"github.com/dlnacast/receiverd/internal/discovery"
	"github.com/dlnacast/receiverd/internal/logging"
	"github.com/dlnacast/receiverd/internal/media"
)

// Service is the assembled receiver engine.
type Service struct {
	cfg        *config.Config
	log        zerolog.Logger
	self       device.Descriptor
	bus        bus.Bus
	coord      *discovery.Coordinator
	dispatcher *control.Dispatcher

	degraded bool
}

// New assembles the engine. addr is the local network address the
// platform acquired for this device; it is advertised in announcements
// but never bound by the engine itself.
func New(cfg *config.Config, addr string, b bus.Bus, surface control.Surface, log zerolog.Logger) *Service {
	if addr == "" {
		addr = "127.0.0.1"
	}

	self := device.NewDescriptor(device.Overrides{
		FriendlyName:     cfg.Device.FriendlyName,
		Manufacturer:     cfg.Device.Manufacturer,
		ManufacturerURL:  cfg.Device.ManufacturerURL,
		ModelDescription: cfg.Device.ModelDescription,
		ModelName:        cfg.Device.ModelName,
		ModelNumber:      cfg.Device.ModelNumber,
		ModelURL:         cfg.Device.ModelURL,
	})

	validator := media.NewValidator(
		cfg.Probe.Attempts,
		cfg.Probe.Timeout(),
		cfg.Probe.Backoff(),
		logging.Component(log, "validator"),
	)
	extractor := media.NewExtractor(logging.Component(log, "metadata"))

	dispatcher := control.NewDispatcher(
		surface,
		extractor,
		validator,
		logging.Component(log, "dispatcher"),
	)

	registry := discovery.NewRegistry(self.UDN)
	coord := discovery.NewCoordinator(
		discovery.Config{
			AnnounceInterval:  cfg.Network.AnnounceInterval(),
			DiscoveryInterval: cfg.Network.DiscoveryInterval(),
			MaxAge:            cfg.Network.MaxAge(),
			JitterMax:         cfg.Network.JitterMax(),
			Location:          fmt.Sprintf("http://%s:%d/device.xml", addr, cfg.Network.HTTPPort),
			Address:           addr,
			Port:              cfg.Network.HTTPPort,
		},
		self,
		b,
		registry,
		validator.Validate,
		logging.Component(log, "discovery"),
	)

	return &Service{
		cfg:        cfg,
		log:        log,
		self:       self,
		bus:        b,
		coord:      coord,
		dispatcher: dispatcher,
	}
}

// Start subscribes the engine on the bus and starts discovery. Startup
// is bounded by the configured timeout: on expiry the service keeps
// running in a degraded no-discovery mode instead of blocking the
// host. Start never returns an error that should abort the host.
func (s *Service) Start(ctx context.Context) {
	s.bus.Subscribe(s.handleMessage)

	started := make(chan struct{})
	go func() {
		s.coord.Start()
		close(started)
	}()

	timeout := s.cfg.Network.StartupTimeout()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-started:
		s.log.Info().Str("udn", s.self.UDN).Msg("Receiver engine started")
	case <-ctx.Done():
		s.degraded = true
		s.log.Warn().Msg("Startup cancelled, running without discovery")
	case <-timer.C:
		s.degraded = true
		s.log.Warn().Dur("timeout", timeout).Msg("Discovery startup timed out, running degraded")
	}
}

// Stop broadcasts departure and shuts the cycles down.
func (s *Service) Stop() {
	s.coord.Stop()
	s.log.Info().Msg("Receiver engine stopped")
}

// Degraded reports whether startup fell back to no-discovery mode.
func (s *Service) Degraded() bool {
	return s.degraded
}

// Device returns the immutable local device descriptor.
func (s *Service) Device() device.Descriptor {
	return s.self
}

// Peers returns a snapshot of the discovered peers for presentation.
func (s *Service) Peers() []discovery.PeerRecord {
	return s.coord.Registry().List()
}

// Description renders the device description document served by the
// platform HTTP layer.
func (s *Service) Description() (string, error) {
	return s.self.DescriptionXML()
}

// handleMessage routes inbound bus messages: control requests to the
// dispatcher, everything else to the discovery coordinator.
func (s *Service) handleMessage(msg *bus.Message) {
	switch msg.Kind {
	case bus.KindControlRequest:
		s.handleControlRequest(msg)
	case bus.KindControlResponse:
		// Our own responses echo back on the bus; nothing to do
	default:
		s.coord.HandleMessage(msg)
	}
}

// handleControlRequest dispatches one control action and sends its
// correlated response. Unknown actions yield no response by design.
func (s *Service) handleControlRequest(msg *bus.Message) {
	req := &control.Request{
		ID:     msg.RequestID,
		Action: msg.Action,
		Args:   msg.Args,
	}

	resp := s.dispatcher.Handle(context.Background(), req)
	if resp == nil {
		return
	}

	out := bus.New(bus.KindControlResponse)
	out.Device = &s.self
	out.RequestID = resp.ID
	out.Action = resp.Action
	out.Success = resp.Success
	out.Result = resp.Result
	out.Error = resp.Error

	if err := s.bus.Broadcast(out); err != nil {
		s.log.Warn().Err(err).Str("id", resp.ID).Msg("Control response send failed")
	}
}
