package control

import (
	"fmt"
	"strconv"
)

// Action names accepted by the dispatcher.
const (
	ActionSetAVTransportURI = "SetAVTransportURI"
	ActionPlay              = "Play"
	ActionPause             = "Pause"
	ActionStop              = "Stop"
	ActionSetVolume         = "SetVolume"
	ActionGetPositionInfo   = "GetPositionInfo"
)

// setURIArgs are the validated arguments of SetAVTransportURI.
type setURIArgs struct {
	CurrentURI         string
	CurrentURIMetaData string
}

// parseSetURIArgs validates the argument map for SetAVTransportURI.
// The metadata payload is optional; the URI is not.
func parseSetURIArgs(args map[string]string) (setURIArgs, error) {
	uri, ok := args["CurrentURI"]
	if !ok || uri == "" {
		return setURIArgs{}, fmt.Errorf("missing argument: CurrentURI")
	}

	return setURIArgs{
		CurrentURI:         uri,
		CurrentURIMetaData: args["CurrentURIMetaData"],
	}, nil
}

// setVolumeArgs are the validated arguments of SetVolume.
type setVolumeArgs struct {
	// DesiredVolume is clamped to 0-100; out-of-range input is not an
	// error.
	DesiredVolume int
}

// parseSetVolumeArgs validates the argument map for SetVolume.
func parseSetVolumeArgs(args map[string]string) (setVolumeArgs, error) {
	raw, ok := args["DesiredVolume"]
	if !ok || raw == "" {
		return setVolumeArgs{}, fmt.Errorf("missing argument: DesiredVolume")
	}

	vol, err := strconv.Atoi(raw)
	if err != nil {
		return setVolumeArgs{}, fmt.Errorf("invalid DesiredVolume %q", raw)
	}

	if vol < 0 {
		vol = 0
	}
	if vol > 100 {
		vol = 100
	}

	return setVolumeArgs{DesiredVolume: vol}, nil
}
