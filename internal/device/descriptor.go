// Package device holds the local device identity and the UPnP
// description document derived from it.
package device

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TypeMediaRenderer is the device type this receiver announces as.
const TypeMediaRenderer = "urn:schemas-upnp-org:device:MediaRenderer:1"

// SearchTargetRootDevice is the wildcard search filter matching any device.
const SearchTargetRootDevice = "upnp:rootdevice"

// Descriptor is the immutable identity record of a device. For the
// local device it is generated once at construction; the UDN changes
// only across process restarts.
type Descriptor struct {
	UDN              string `json:"udn"`
	DeviceType       string `json:"device_type"`
	FriendlyName     string `json:"friendly_name"`
	Manufacturer     string `json:"manufacturer"`
	ManufacturerURL  string `json:"manufacturer_url,omitempty"`
	ModelDescription string `json:"model_description,omitempty"`
	ModelName        string `json:"model_name"`
	ModelNumber      string `json:"model_number"`
	ModelURL         string `json:"model_url,omitempty"`
	SerialNumber     string `json:"serial_number"`
	PresentationURL  string `json:"presentation_url"`
}

// Capabilities annotates a device with the cast protocols it appears
// to support. Flags are derived by compatibility probing and shared
// between peers via capability-update messages.
type Capabilities struct {
	DLNA    bool `json:"dlna,omitempty"`
	UPnP    bool `json:"upnp,omitempty"`
	Cast    bool `json:"cast,omitempty"`
	AirPlay bool `json:"airplay,omitempty"`
}

// Overrides carries optional identity fields supplied by configuration.
// Empty fields keep their defaults.
type Overrides struct {
	FriendlyName     string
	Manufacturer     string
	ManufacturerURL  string
	ModelDescription string
	ModelName        string
	ModelNumber      string
	ModelURL         string
}

// NewDescriptor generates the local device descriptor. The UDN and
// serial number are fresh per process.
func NewDescriptor(o Overrides) Descriptor {
	d := Descriptor{
		UDN:              "uuid:" + uuid.NewString(),
		DeviceType:       TypeMediaRenderer,
		FriendlyName:     "DLNA Cast TV Receiver",
		Manufacturer:     "DLNA Cast",
		ManufacturerURL:  "http://dlnacast.com",
		ModelDescription: "DLNA Cast TV Receiver for Android TV",
		ModelName:        "TV Receiver",
		ModelNumber:      "1.0",
		ModelURL:         "http://dlnacast.com/tv-receiver",
		SerialNumber:     generateSerialNumber(),
		PresentationURL:  "/",
	}

	if o.FriendlyName != "" {
		d.FriendlyName = o.FriendlyName
	}
	if o.Manufacturer != "" {
		d.Manufacturer = o.Manufacturer
	}
	if o.ManufacturerURL != "" {
		d.ManufacturerURL = o.ManufacturerURL
	}
	if o.ModelDescription != "" {
		d.ModelDescription = o.ModelDescription
	}
	if o.ModelName != "" {
		d.ModelName = o.ModelName
	}
	if o.ModelNumber != "" {
		d.ModelNumber = o.ModelNumber
	}
	if o.ModelURL != "" {
		d.ModelURL = o.ModelURL
	}

	return d
}

// USN returns the unique service name used in announcements:
// "<UDN>::<deviceType>".
func (d Descriptor) USN() string {
	return fmt.Sprintf("%s::%s", d.UDN, d.DeviceType)
}

// generateSerialNumber derives a short per-process serial.
func generateSerialNumber() string {
	id := uuid.NewString()
	return "DLNA-TV-" + strings.ToUpper(strings.ReplaceAll(id, "-", "")[:9])
}
