package device

import (
	"encoding/xml"
	"fmt"
)

// Service endpoints exposed in the description document. The paths are
// served by the platform HTTP layer; the engine only substitutes fields.
const (
	AVTransportServiceType = "urn:schemas-upnp-org:service:AVTransport:1"
	AVTransportServiceID   = "urn:upnp-org:serviceId:AVTransport"

	RenderingControlServiceType = "urn:schemas-upnp-org:service:RenderingControl:1"
	RenderingControlServiceID   = "urn:upnp-org:serviceId:RenderingControl"
)

// ServiceEntry describes one control service in the description document.
type ServiceEntry struct {
	ServiceType string `xml:"serviceType"`
	ServiceID   string `xml:"serviceId"`
	ControlURL  string `xml:"controlURL"`
	EventSubURL string `xml:"eventSubURL"`
	SCPDURL     string `xml:"SCPDURL"`
}

// DefaultServices returns the two control services this renderer exposes.
func DefaultServices() []ServiceEntry {
	return []ServiceEntry{
		{
			ServiceType: AVTransportServiceType,
			ServiceID:   AVTransportServiceID,
			ControlURL:  "/AVTransport/control",
			EventSubURL: "/AVTransport/event",
			SCPDURL:     "/AVTransport/scpd.xml",
		},
		{
			ServiceType: RenderingControlServiceType,
			ServiceID:   RenderingControlServiceID,
			ControlURL:  "/RenderingControl/control",
			EventSubURL: "/RenderingControl/event",
			SCPDURL:     "/RenderingControl/scpd.xml",
		},
	}
}

type specVersion struct {
	Major int `xml:"major"`
	Minor int `xml:"minor"`
}

type descriptionDevice struct {
	DeviceType       string         `xml:"deviceType"`
	FriendlyName     string         `xml:"friendlyName"`
	Manufacturer     string         `xml:"manufacturer"`
	ManufacturerURL  string         `xml:"manufacturerURL,omitempty"`
	ModelDescription string         `xml:"modelDescription,omitempty"`
	ModelName        string         `xml:"modelName"`
	ModelNumber      string         `xml:"modelNumber"`
	ModelURL         string         `xml:"modelURL,omitempty"`
	SerialNumber     string         `xml:"serialNumber"`
	UDN              string         `xml:"UDN"`
	PresentationURL  string         `xml:"presentationURL"`
	Services         []ServiceEntry `xml:"serviceList>service"`
}

type descriptionRoot struct {
	XMLName     xml.Name          `xml:"root"`
	XMLNS       string            `xml:"xmlns,attr"`
	SpecVersion specVersion       `xml:"specVersion"`
	Device      descriptionDevice `xml:"device"`
}

// DescriptionXML renders the UPnP device description document for this
// descriptor. The platform HTTP layer serves it at /device.xml.
func (d Descriptor) DescriptionXML() (string, error) {
	root := descriptionRoot{
		XMLNS:       "urn:schemas-upnp-org:device-1-0",
		SpecVersion: specVersion{Major: 1, Minor: 0},
		Device: descriptionDevice{
			DeviceType:       d.DeviceType,
			FriendlyName:     d.FriendlyName,
			Manufacturer:     d.Manufacturer,
			ManufacturerURL:  d.ManufacturerURL,
			ModelDescription: d.ModelDescription,
			ModelName:        d.ModelName,
			ModelNumber:      d.ModelNumber,
			ModelURL:         d.ModelURL,
			SerialNumber:     d.SerialNumber,
			UDN:              d.UDN,
			PresentationURL:  d.PresentationURL,
			Services:         DefaultServices(),
		},
	}

	data, err := xml.MarshalIndent(root, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to render device description: %w", err)
	}

	return xml.Header + string(data), nil
}
