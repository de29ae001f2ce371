// Package media implements media descriptor extraction and source
// reachability validation for the cast receiver.
package media

import (
	"encoding/xml"
	"path"
	"strings"

	"github.com/rs/zerolog"
)

// Kind is the coarse media kind of a source.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindImage Kind = "image"
)

// Descriptor is the result of metadata extraction. Every field is
// populated: Title defaults to "unknown" and Codec falls back to
// "Unknown <Kind>" when nothing could be detected.
type Descriptor struct {
	Title      string
	Kind       Kind
	Codec      string
	Duration   string
	Resolution string
	Bitrate    string
	Size       string
	Artist     string
	Album      string
	Genre      string
}

// codecEntry maps a protocol-info substring to a human-readable codec
// label. Kept ordered so repeated extraction is deterministic.
type codecEntry struct {
	match string
	label string
}

// videoCodecs maps known video codec tokens to display labels
var videoCodecs = []codecEntry{
	{"h264", "H.264/AVC"},
	{"avc", "H.264/AVC"},
	{"h265", "H.265/HEVC"},
	{"hevc", "H.265/HEVC"},
	{"mpeg4", "MPEG-4"},
	{"mp4v", "MPEG-4"},
	{"mpeg2", "MPEG-2"},
	{"vp9", "VP9"},
	{"vp8", "VP8"},
	{"av1", "AV1"},
	{"wmv", "WMV"},
	{"xvid", "Xvid"},
}

// audioCodecs maps known audio codec tokens to display labels
var audioCodecs = []codecEntry{
	{"mp3", "MP3"},
	{"mpeg", "MP3"},
	{"aac", "AAC"},
	{"flac", "FLAC"},
	{"vorbis", "Vorbis"},
	{"ogg", "Vorbis"},
	{"opus", "Opus"},
	{"wma", "WMA"},
	{"alac", "ALAC"},
	{"ac3", "AC-3"},
	{"dts", "DTS"},
	{"pcm", "PCM"},
	{"wav", "PCM"},
}

// imageCodecs maps known image format tokens to display labels
var imageCodecs = []codecEntry{
	{"jpeg", "JPEG"},
	{"jpg", "JPEG"},
	{"png", "PNG"},
	{"gif", "GIF"},
	{"webp", "WebP"},
	{"bmp", "BMP"},
	{"tiff", "TIFF"},
}

// videoExtensions maps container file extensions to video codec labels
var videoExtensions = map[string]string{
	"mp4":  "H.264/AVC",
	"m4v":  "H.264/AVC",
	"mkv":  "H.264/AVC",
	"mov":  "H.264/AVC",
	"ts":   "MPEG-2",
	"mpg":  "MPEG-2",
	"mpeg": "MPEG-2",
	"avi":  "Xvid",
	"wmv":  "WMV",
	"webm": "VP9",
	"flv":  "H.264/AVC",
	"3gp":  "MPEG-4",
}

// audioExtensions maps audio file extensions to codec labels
var audioExtensions = map[string]string{
	"mp3":  "MP3",
	"mp2":  "MP3",
	"aac":  "AAC",
	"m4a":  "AAC",
	"flac": "FLAC",
	"ogg":  "Vorbis",
	"oga":  "Vorbis",
	"opus": "Opus",
	"wav":  "PCM",
	"aiff": "PCM",
	"aif":  "PCM",
	"wma":  "WMA",
	"ape":  "Monkey's Audio",
}

// imageExtensions maps image file extensions to format labels
var imageExtensions = map[string]string{
	"jpg":  "JPEG",
	"jpeg": "JPEG",
	"png":  "PNG",
	"gif":  "GIF",
	"webp": "WebP",
	"bmp":  "BMP",
	"tif":  "TIFF",
	"tiff": "TIFF",
	"svg":  "SVG",
}

// didlLite models the DIDL-Lite payload carried in CurrentURIMetaData.
// Unmarshalling matches elements by local name, so the dc/upnp
// namespace prefixes senders use do not matter.
type didlLite struct {
	XMLName xml.Name   `xml:"DIDL-Lite"`
	Items   []didlItem `xml:"item"`
}

type didlItem struct {
	Title   string    `xml:"title"`
	Creator string    `xml:"creator"`
	Artist  string    `xml:"artist"`
	Album   string    `xml:"album"`
	Genre   string    `xml:"genre"`
	Res     []didlRes `xml:"res"`
}

type didlRes struct {
	ProtocolInfo string `xml:"protocolInfo,attr"`
	Duration     string `xml:"duration,attr"`
	Resolution   string `xml:"resolution,attr"`
	Bitrate      string `xml:"bitrate,attr"`
	Size         string `xml:"size,attr"`
	URL          string `xml:",chardata"`
}

// Extractor parses media descriptor payloads.
type Extractor struct {
	log zerolog.Logger
}

// NewExtractor creates a metadata extractor.
func NewExtractor(log zerolog.Logger) *Extractor {
	return &Extractor{log: log}
}

// Extract builds a fully-populated Descriptor from an optional
// DIDL-Lite metadata payload and the source URI. Parse failures on the
// payload are logged and extraction continues with whatever fields were
// already populated; Extract never fails.
func (e *Extractor) Extract(metadata, uri string) Descriptor {
	desc := Descriptor{
		Title: "unknown",
		Kind:  KindVideo,
	}

	if metadata != "" {
		e.extractFromDIDL(metadata, &desc)
	}

	if desc.Codec == "" {
		e.extractFromExtension(uri, &desc)
	}

	if desc.Codec == "" {
		desc.Codec = unknownCodec(desc.Kind)
	}

	return desc
}

// extractFromDIDL fills desc from the structured metadata payload.
func (e *Extractor) extractFromDIDL(metadata string, desc *Descriptor) {
	var didl didlLite
	if err := xml.Unmarshal([]byte(metadata), &didl); err != nil {
		e.log.Debug().Err(err).Msg("Failed to parse media metadata, continuing with defaults")
		return
	}
	if len(didl.Items) == 0 {
		return
	}

	item := didl.Items[0]
	if item.Title != "" {
		desc.Title = item.Title
	}
	if item.Artist != "" {
		desc.Artist = item.Artist
	} else if item.Creator != "" {
		desc.Artist = item.Creator
	}
	desc.Album = item.Album
	desc.Genre = item.Genre

	if len(item.Res) == 0 {
		return
	}

	res := item.Res[0]
	desc.Duration = res.Duration
	desc.Resolution = res.Resolution
	desc.Bitrate = res.Bitrate
	desc.Size = res.Size

	info := strings.ToLower(res.ProtocolInfo)
	switch {
	case strings.Contains(info, "video"):
		desc.Kind = KindVideo
		desc.Codec = lookupCodec(videoCodecs, info)
	case strings.Contains(info, "audio"):
		desc.Kind = KindAudio
		desc.Codec = lookupCodec(audioCodecs, info)
	case strings.Contains(info, "image"):
		desc.Kind = KindImage
		desc.Codec = lookupCodec(imageCodecs, info)
	}
}

// extractFromExtension falls back to the URI's file extension when the
// metadata did not resolve a codec.
func (e *Extractor) extractFromExtension(uri string, desc *Descriptor) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(stripQuery(uri)), "."))
	if ext == "" {
		return
	}

	if codec, ok := videoExtensions[ext]; ok {
		desc.Kind = KindVideo
		desc.Codec = codec
		return
	}
	if codec, ok := audioExtensions[ext]; ok {
		desc.Kind = KindAudio
		desc.Codec = codec
		return
	}
	if codec, ok := imageExtensions[ext]; ok {
		desc.Kind = KindImage
		desc.Codec = codec
	}
}

// lookupCodec scans the table for the first token contained in the
// protocol-info string.
func lookupCodec(table []codecEntry, info string) string {
	for _, entry := range table {
		if strings.Contains(info, entry.match) {
			return entry.label
		}
	}
	return ""
}

// unknownCodec returns the per-kind fallback label.
func unknownCodec(kind Kind) string {
	switch kind {
	case KindAudio:
		return "Unknown Audio"
	case KindImage:
		return "Unknown Image"
	default:
		return "Unknown Video"
	}
}

// stripQuery drops any query or fragment so the extension lookup sees
// the path component only.
func stripQuery(uri string) string {
	if i := strings.IndexAny(uri, "?#"); i != -1 {
		return uri[:i]
	}
	return uri
}
