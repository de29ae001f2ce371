package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/dlnacast/receiverd/internal/bus"
	"github.com/dlnacast/receiverd/internal/config"
	"github.com/dlnacast/receiverd/internal/control"
	"github.com/dlnacast/receiverd/internal/logging"
	"github.com/dlnacast/receiverd/internal/media"
	"github.com/dlnacast/receiverd/internal/receiver"
)

var (
	configPath = flag.String("config", getDefaultConfigPath(), "Path to configuration file")
	logLevel   = flag.String("log-level", "", "Override log level (debug, info, warn, error)")
	addr       = flag.String("addr", "", "Local network address to advertise")
	name       = flag.String("name", "", "Override the device friendly name")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		l := logging.New("info")
		l.Fatal().Err(err).Msg("Failed to load config")
	}

	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *name != "" {
		cfg.Device.FriendlyName = *name
	}

	log := logging.New(cfg.Log.Level)

	// The engine runs on an abstract bus; the in-process loopback is
	// what a platform transport bridge attaches to.
	b := bus.NewLoopback()

	svc := receiver.New(cfg, *addr, b, &logSurface{log: logging.Component(log, "surface")}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.Start(ctx)
	defer svc.Stop()

	if desc, err := svc.Description(); err == nil {
		log.Debug().Int("bytes", len(desc)).Msg("Device description ready")
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info().Msg("Shutting down...")
}

// logSurface is a media surface that only logs playback intents. Real
// deployments replace it with the platform's video/image renderer.
type logSurface struct {
	log zerolog.Logger
}

func (s *logSurface) OnPlaybackIntent(kind media.Kind, url, title string) {
	s.log.Info().Str("kind", string(kind)).Str("url", url).Str("title", title).Msg("Playback intent")
}

func (s *logSurface) OnPause() {
	s.log.Info().Msg("Pause toggled")
}

func (s *logSurface) OnStop() {
	s.log.Info().Msg("Playback stopped")
}

func (s *logSurface) OnVolume(level float64) {
	s.log.Info().Float64("level", level).Msg("Volume set")
}

func (s *logSurface) OnQueryPosition() (relTime, duration float64, playing bool) {
	return 0, 0, false
}

var _ control.Surface = (*logSurface)(nil)

func getDefaultConfigPath() string {
	// Check common locations
	locations := []string{
		"./receiverd.yaml",
		"./config.yaml",
		filepath.Join(os.Getenv("HOME"), ".config", "receiverd", "config.yaml"),
		"/etc/receiverd/config.yaml",
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	// Default to first location if none exist
	return locations[0]
}
