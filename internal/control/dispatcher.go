// Package control parses inbound transport-control requests, routes
// them to per-action handlers and emits correlated responses. Accepted
// actions are translated into playback intents for the external media
// surface; the dispatcher itself keeps no playback state beyond the
// last-set source.
package control

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dlnacast/receiverd/internal/media"
)

// Request is an inbound control message.
type Request struct {
	ID     string
	Action string
	Args   map[string]string
}

// Response is the correlated result of a request. Every accepted
// request yields exactly one Response, success or error.
type Response struct {
	ID      string
	Action  string
	Success bool
	Result  map[string]string
	Error   string
}

// Surface is the external media surface the engine drives. These are
// the only outward calls the engine makes for media effects.
type Surface interface {
	OnPlaybackIntent(kind media.Kind, url, title string)
	OnPause()
	OnStop()
	OnVolume(level float64)
	// OnQueryPosition returns the current position and duration in
	// seconds, and whether media is actively playing.
	OnQueryPosition() (relTime, duration float64, playing bool)
}

// SourceValidator probes a candidate media URI before it is accepted.
type SourceValidator interface {
	Validate(ctx context.Context, uri string) error
}

// Dispatcher routes control requests to handlers. The only state it
// holds is the last successfully set source URI and its descriptor;
// both are updated all-or-nothing, gated by the validator.
type Dispatcher struct {
	surface   Surface
	extractor *media.Extractor
	validator SourceValidator
	log       zerolog.Logger

	mu          sync.Mutex
	currentURI  string
	currentMeta *media.Descriptor
}

// NewDispatcher creates an action dispatcher.
func NewDispatcher(surface Surface, extractor *media.Extractor, validator SourceValidator, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		surface:   surface,
		extractor: extractor,
		validator: validator,
		log:       log,
	}
}

// CurrentSource returns the last accepted source URI and descriptor,
// or an empty URI and nil before the first successful source-set.
func (d *Dispatcher) CurrentSource() (string, *media.Descriptor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentURI, d.currentMeta
}

// Handle dispatches one request and returns its correlated response.
// Unknown actions are logged and dropped: the returned response is nil
// and no protocol noise is generated.
func (d *Dispatcher) Handle(ctx context.Context, req *Request) *Response {
	d.log.Debug().Str("action", req.Action).Str("id", req.ID).Msg("Control request")

	switch req.Action {
	case ActionSetAVTransportURI:
		return d.handleSetURI(ctx, req)
	case ActionPlay:
		return d.handlePlay(req)
	case ActionPause:
		return d.handlePause(req)
	case ActionStop:
		return d.handleStop(req)
	case ActionSetVolume:
		return d.handleSetVolume(req)
	case ActionGetPositionInfo:
		return d.handleGetPositionInfo(req)
	default:
		d.log.Warn().Str("action", req.Action).Msg("Unknown control action, dropped")
		return nil
	}
}

// handleSetURI runs metadata extraction and reachability validation,
// then stores the new source. On validation failure the previous
// source is left untouched.
func (d *Dispatcher) handleSetURI(ctx context.Context, req *Request) *Response {
	args, err := parseSetURIArgs(req.Args)
	if err != nil {
		return errorResponse(req, err.Error())
	}

	desc := d.extractor.Extract(args.CurrentURIMetaData, args.CurrentURI)

	if err := d.validator.Validate(ctx, args.CurrentURI); err != nil {
		return errorResponse(req, "media unreachable or unsupported")
	}

	d.mu.Lock()
	d.currentURI = args.CurrentURI
	d.currentMeta = &desc
	d.mu.Unlock()

	d.log.Info().Str("title", desc.Title).Str("kind", string(desc.Kind)).Str("codec", desc.Codec).Msg("Media source set")

	return successResponse(req, map[string]string{
		"Title":      desc.Title,
		"MediaType":  string(desc.Kind),
		"Codec":      desc.Codec,
		"Duration":   desc.Duration,
		"Resolution": desc.Resolution,
		"Bitrate":    desc.Bitrate,
	})
}

// handlePlay emits a playback intent for the stored source.
func (d *Dispatcher) handlePlay(req *Request) *Response {
	d.mu.Lock()
	uri := d.currentURI
	meta := d.currentMeta
	d.mu.Unlock()

	if uri == "" {
		return errorResponse(req, "no media URI set")
	}

	d.surface.OnPlaybackIntent(meta.Kind, uri, meta.Title)
	return successResponse(req, nil)
}

// handlePause toggles play/pause on the external surface.
func (d *Dispatcher) handlePause(req *Request) *Response {
	d.surface.OnPause()
	return successResponse(req, nil)
}

// handleStop instructs the external surface to stop and reset.
func (d *Dispatcher) handleStop(req *Request) *Response {
	d.surface.OnStop()
	return successResponse(req, nil)
}

// handleSetVolume scales the 0-100 input to 0.0-1.0 and forwards it.
func (d *Dispatcher) handleSetVolume(req *Request) *Response {
	args, err := parseSetVolumeArgs(req.Args)
	if err != nil {
		return errorResponse(req, err.Error())
	}

	d.surface.OnVolume(float64(args.DesiredVolume) / 100)
	return successResponse(req, nil)
}

// handleGetPositionInfo reports the current position, zeroed when
// nothing is actively playing.
func (d *Dispatcher) handleGetPositionInfo(req *Request) *Response {
	d.mu.Lock()
	uri := d.currentURI
	d.mu.Unlock()

	result := map[string]string{
		"Track":         "1",
		"TrackDuration": "00:00:00",
		"TrackMetaData": "",
		"TrackURI":      uri,
		"RelTime":       "00:00:00",
		"AbsTime":       "00:00:00",
		"RelCount":      "0",
		"AbsCount":      "0",
	}

	if rel, dur, playing := d.surface.OnQueryPosition(); playing {
		result["RelTime"] = formatTime(rel)
		result["TrackDuration"] = formatTime(dur)
	}

	return successResponse(req, result)
}

// formatTime renders seconds as HH:MM:SS. Invalid or negative input
// formats as 00:00:00.
func formatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "00:00:00"
	}

	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

func successResponse(req *Request, result map[string]string) *Response {
	return &Response{
		ID:      req.ID,
		Action:  req.Action,
		Success: true,
		Result:  result,
	}
}

func errorResponse(req *Request, msg string) *Response {
	return &Response{
		ID:     req.ID,
		Action: req.Action,
		Error:  msg,
	}
}
