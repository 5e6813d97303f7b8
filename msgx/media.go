package msgx

import "fmt"

// MediaKind tags the variants of Media
type MediaKind string

const (
	KindText     MediaKind = "text"
	KindImage    MediaKind = "image"
	KindVideo    MediaKind = "video"
	KindAudio    MediaKind = "audio"
	KindDocument MediaKind = "document"
	KindSticker  MediaKind = "sticker"
	KindContact  MediaKind = "contact"
	KindLocation MediaKind = "location"
	KindUnknown  MediaKind = "unknown"
)

// Media is one decoded message payload
type Media interface {
	Kind() MediaKind
	// Describe renders a one-line preview
	Describe() string
}

type TextMedia struct{ Text string }

type ImageMedia struct {
	Caption  string
	MimeType string
	URL      string
}

type VideoMedia struct {
	Caption  string
	MimeType string
	URL      string
	Seconds  int
}

type AudioMedia struct {
	MimeType string
	Seconds  int
	Voice    bool
}

type DocumentMedia struct {
	FileName string
	MimeType string
	Caption  string
}

type StickerMedia struct{ Animated bool }

type ContactMedia struct {
	DisplayName string
	VCard       string
}

type LocationMedia struct {
	Latitude  float64
	Longitude float64
	Name      string
	Address   string
}

// UnknownMedia keeps the payload key that was not recognised
type UnknownMedia struct{ Type string }

func (TextMedia) Kind() MediaKind     { return KindText }
func (ImageMedia) Kind() MediaKind    { return KindImage }
func (VideoMedia) Kind() MediaKind    { return KindVideo }
func (AudioMedia) Kind() MediaKind    { return KindAudio }
func (DocumentMedia) Kind() MediaKind { return KindDocument }
func (StickerMedia) Kind() MediaKind  { return KindSticker }
func (ContactMedia) Kind() MediaKind  { return KindContact }
func (LocationMedia) Kind() MediaKind { return KindLocation }
func (UnknownMedia) Kind() MediaKind  { return KindUnknown }

func (m TextMedia) Describe() string { return m.Text }

func (m ImageMedia) Describe() string { return withCaption("📷 Imagem", m.Caption) }

func (m VideoMedia) Describe() string { return withCaption("🎥 Vídeo", m.Caption) }

func (m AudioMedia) Describe() string {
	label := "🎵 Áudio"
	if m.Voice {
		label = "🎤 Mensagem de voz"
	}
	if m.Seconds > 0 {
		return fmt.Sprintf("%s (%d:%02d)", label, m.Seconds/60, m.Seconds%60)
	}
	return label
}

func (m DocumentMedia) Describe() string {
	if m.FileName != "" {
		return "📄 " + m.FileName
	}
	return "📄 Documento"
}

func (StickerMedia) Describe() string { return "Sticker" }

func (m ContactMedia) Describe() string {
	if m.DisplayName != "" {
		return "👤 " + m.DisplayName
	}
	return "👤 Contato"
}

func (m LocationMedia) Describe() string {
	if m.Name != "" {
		return "📍 " + m.Name
	}
	return fmt.Sprintf("📍 %.5f, %.5f", m.Latitude, m.Longitude)
}

func (m UnknownMedia) Describe() string { return MediaPlaceholder }

func withCaption(label, caption string) string {
	if caption == "" {
		return label
	}
	return label + ": " + caption
}

// DecodeMedia classifies a gateway message payload
func DecodeMedia(content map[string]any) Media {
	if s, ok := content["conversation"].(string); ok && s != "" {
		return TextMedia{Text: s}
	}
	if ext, ok := content["extendedTextMessage"].(map[string]any); ok {
		return TextMedia{Text: str(ext, "text")}
	}
	if m, ok := content["imageMessage"].(map[string]any); ok {
		return ImageMedia{Caption: str(m, "caption"), MimeType: str(m, "mimetype"), URL: str(m, "url")}
	}
	if m, ok := content["videoMessage"].(map[string]any); ok {
		return VideoMedia{Caption: str(m, "caption"), MimeType: str(m, "mimetype"), URL: str(m, "url"), Seconds: num(m, "seconds")}
	}
	if m, ok := content["audioMessage"].(map[string]any); ok {
		ptt, _ := m["ptt"].(bool)
		return AudioMedia{MimeType: str(m, "mimetype"), Seconds: num(m, "seconds"), Voice: ptt}
	}
	if m, ok := content["documentMessage"].(map[string]any); ok {
		return DocumentMedia{FileName: str(m, "fileName"), MimeType: str(m, "mimetype"), Caption: str(m, "caption")}
	}
	if m, ok := content["stickerMessage"].(map[string]any); ok {
		animated, _ := m["isAnimated"].(bool)
		return StickerMedia{Animated: animated}
	}
	if m, ok := content["contactMessage"].(map[string]any); ok {
		return ContactMedia{DisplayName: str(m, "displayName"), VCard: str(m, "vcard")}
	}
	for _, key := range []string{"locationMessage", "liveLocationMessage"} {
		if m, ok := content[key].(map[string]any); ok {
			lat, _ := m["degreesLatitude"].(float64)
			lng, _ := m["degreesLongitude"].(float64)
			return LocationMedia{Latitude: lat, Longitude: lng, Name: str(m, "name"), Address: str(m, "address")}
		}
	}
	for key := range content {
		if key != "messageContextInfo" {
			return UnknownMedia{Type: key}
		}
	}
	return UnknownMedia{}
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func num(m map[string]any, key string) int {
	f, _ := m[key].(float64)
	return int(f)
}
