package device

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDescriptorDefaults(t *testing.T) {
	d := NewDescriptor(Overrides{})

	assert.True(t, strings.HasPrefix(d.UDN, "uuid:"))
	assert.Equal(t, TypeMediaRenderer, d.DeviceType)
	assert.Equal(t, "DLNA Cast TV Receiver", d.FriendlyName)
	assert.True(t, strings.HasPrefix(d.SerialNumber, "DLNA-TV-"))
	assert.Equal(t, "/", d.PresentationURL)
}

func TestNewDescriptorUniquePerProcess(t *testing.T) {
	a := NewDescriptor(Overrides{})
	b := NewDescriptor(Overrides{})

	assert.NotEqual(t, a.UDN, b.UDN)
	assert.NotEqual(t, a.SerialNumber, b.SerialNumber)
}

func TestNewDescriptorOverrides(t *testing.T) {
	d := NewDescriptor(Overrides{
		FriendlyName: "Living Room TV",
		ModelName:    "TV-9000",
	})

	assert.Equal(t, "Living Room TV", d.FriendlyName)
	assert.Equal(t, "TV-9000", d.ModelName)
	// Untouched fields keep their defaults
	assert.Equal(t, "DLNA Cast", d.Manufacturer)
}

func TestUSN(t *testing.T) {
	d := NewDescriptor(Overrides{})
	assert.Equal(t, d.UDN+"::"+d.DeviceType, d.USN())
}

func TestDescriptionXML(t *testing.T) {
	d := NewDescriptor(Overrides{FriendlyName: "Test Device"})

	doc, err := d.DescriptionXML()
	require.NoError(t, err)

	assert.Contains(t, doc, "<?xml")
	assert.Contains(t, doc, "urn:schemas-upnp-org:device-1-0")
	assert.Contains(t, doc, "<friendlyName>Test Device</friendlyName>")
	assert.Contains(t, doc, "<UDN>"+d.UDN+"</UDN>")
	assert.Contains(t, doc, AVTransportServiceType)
	assert.Contains(t, doc, RenderingControlServiceType)
	assert.Contains(t, doc, "/AVTransport/control")
	assert.Contains(t, doc, "/RenderingControl/scpd.xml")
}
