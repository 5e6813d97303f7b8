package msgx

import (
	"strings"
	"testing"

	"github.com/Abraxas-365/crmturbo/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode errx.Code
		action   Action
		instance string
	}{
		{"defaults instance", `{"action":"getQrCode"}`, "", ActionGetQRCode, DefaultInstance},
		{"empty instance", `{"action":"logout","instanceName":""}`, "", ActionLogout, DefaultInstance},
		{"explicit instance", `{"action":"getChats","instanceName":"sales_2"}`, "", ActionGetChats, "sales_2"},
		{"unknown action", `{"action":"dropTables"}`, ErrInvalidAction, "", ""},
		{"missing action", `{"instanceName":"x"}`, ErrInvalidAction, "", ""},
		{"numeric action", `{"action":7}`, ErrInvalidAction, "", ""},
		{"action checked first", `{"action":"nope","instanceName":"bad name"}`, ErrInvalidAction, "", ""},
		{"bad instance", `{"action":"getQrCode","instanceName":"../etc"}`, ErrInvalidInstance, "", ""},
		{"long instance", `{"action":"getQrCode","instanceName":"` + strings.Repeat("a", 51) + `"}`, ErrInvalidInstance, "", ""},
		{"numeric instance", `{"action":"getQrCode","instanceName":5}`, ErrInvalidInstance, "", ""},
		{"malformed", `{"action":`, ErrInvalidJSON, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand([]byte(tt.body), DefaultInstance)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, errx.IsCode(err, tt.wantCode), errx.Print(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.action, cmd.Action)
			assert.Equal(t, tt.instance, cmd.Instance)
			assert.NotNil(t, cmd.Data)
		})
	}
}

func TestCommandData(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"action":"getMessages","data":{"remoteJid":" 55@s.whatsapp.net ","limit":20,"convertToMp4":true}}`), DefaultInstance)
	require.NoError(t, err)
	jid, ok := cmd.Value("remoteJid")
	assert.True(t, ok)
	assert.Equal(t, " 55@s.whatsapp.net ", jid)
	assert.Equal(t, map[string]any{"remoteJid": " 55@s.whatsapp.net ", "limit": float64(20)}, cmd.Pick("remoteJid", "limit", "absent"))
	assert.Equal(t, 20, cmd.Int("limit", 50))
	assert.Equal(t, 50, cmd.Int("missing", 50))
	assert.True(t, cmd.Bool("convertToMp4"))

	cmd, err = ParseCommand([]byte(`{"action":"getChats","data":[1,2]}`), DefaultInstance)
	require.NoError(t, err)
	assert.Empty(t, cmd.Data)
}

func TestValidInstanceName(t *testing.T) {
	assert.True(t, ValidInstanceName("crm-turbo"))
	assert.True(t, ValidInstanceName(strings.Repeat("Z", 50)))
	assert.False(t, ValidInstanceName(""))
	assert.False(t, ValidInstanceName("has space"))
	assert.False(t, ValidInstanceName("ação"))
}

func TestParseWebhookEvent(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode errx.Code
		instance string
	}{
		{"ok", `{"event":"messages.upsert","instance":"crm-turbo","data":{}}`, "", "crm-turbo"},
		{"no instance", `{"event":"connection.update"}`, "", ""},
		{"empty instance", `{"event":"connection.update","instance":""}`, "", ""},
		{"bad json", `not json`, ErrInvalidJSON, ""},
		{"no event", `{"instance":"x"}`, ErrMissingEvent, ""},
		{"empty event", `{"event":""}`, ErrMissingEvent, ""},
		{"event not string", `{"event":1}`, ErrMissingEvent, ""},
		{"bad instance", `{"event":"x","instance":"a/b"}`, ErrInvalidInstance, ""},
		{"instance not string", `{"event":"x","instance":true}`, ErrInvalidInstance, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseWebhookEvent([]byte(tt.body))
			if tt.wantCode != "" {
				assert.True(t, errx.IsCode(err, tt.wantCode), errx.Print(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.instance, ev.Instance)
		})
	}
}

func TestFirstMessage(t *testing.T) {
	const msg = `{"key":{"remoteJid":"5511999@s.whatsapp.net","fromMe":true,"id":"ABC"},"pushName":"Ana","messageTimestamp":1700000000,"message":{"conversation":"Oi"}}`

	tests := []struct {
		name     string
		data     string
		wantCode errx.Code
	}{
		{"messages array", `{"messages":[` + msg + `]}`, ""},
		{"bare array", `[` + msg + `]`, ""},
		{"bare object", msg, ""},
		{"empty messages falls back to data", `{"messages":[],"key":{"remoteJid":"1@g.us"}}`, ""},
		{"no data", ``, ErrNoMessage},
		{"null data", `null`, ErrNoMessage},
		{"empty array", `[]`, ErrNoMessage},
		{"no jid", `{"key":{}}`, ErrNoRemoteJID},
		{"bad jid", `{"key":{"remoteJid":"5511999@broadcast"}}`, ErrInvalidRemoteJID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"event":"messages.upsert"`
			if tt.data != "" {
				body += `,"data":` + tt.data
			}
			body += `}`
			ev, err := ParseWebhookEvent([]byte(body))
			require.NoError(t, err)

			m, err := ev.FirstMessage()
			if tt.wantCode != "" {
				assert.True(t, errx.IsCode(err, tt.wantCode), errx.Print(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, ValidJID(m.RemoteJID))
		})
	}
}

func TestFirstMessage_Fields(t *testing.T) {
	ev, err := ParseWebhookEvent([]byte(`{"event":"messages.upsert","data":{"key":{"remoteJid":"5511999@s.whatsapp.net","fromMe":"true","id":"X1"},"pushName":"Ana","messageTimestamp":1700000000,"message":{"extendedTextMessage":{"text":"quoted"}}}}`))
	require.NoError(t, err)
	m, err := ev.FirstMessage()
	require.NoError(t, err)

	assert.False(t, m.FromMe, "only boolean true counts as fromMe")
	assert.Equal(t, "X1", m.ID)
	assert.Equal(t, "Ana", m.PushName)
	assert.Equal(t, int64(1700000000), m.Timestamp)
	assert.Equal(t, "quoted", m.Text())
	assert.Equal(t, KindText, m.Media().Kind())
}

func TestExtractText(t *testing.T) {
	assert.Equal(t, "Oi", ExtractText(map[string]any{"conversation": "Oi", "extendedTextMessage": map[string]any{"text": "x"}}))
	assert.Equal(t, "x", ExtractText(map[string]any{"conversation": "", "extendedTextMessage": map[string]any{"text": "x"}}))
	assert.Equal(t, MediaPlaceholder, ExtractText(map[string]any{"imageMessage": map[string]any{}}))
	assert.Equal(t, MediaPlaceholder, ExtractText(nil))
}

func TestSanitizeText(t *testing.T) {
	long := strings.Repeat("é", MaxMessageRunes+10)
	assert.Equal(t, MaxMessageRunes, len([]rune(SanitizeText(long))))

	assert.Equal(t, "abc\tdef\nghi\r", SanitizeText("a\x01b\x0Bc\tdef\n\x1Fghi\r\x00"))

	// truncation happens before stripping
	s := strings.Repeat("a", MaxMessageRunes-1) + "\x01b"
	assert.Equal(t, strings.Repeat("a", MaxMessageRunes-1), SanitizeText(s))
}

func TestContactName(t *testing.T) {
	assert.Nil(t, ContactName(""))
	assert.Equal(t, "Ana", *ContactName("Ana"))
	assert.Len(t, []rune(*ContactName(strings.Repeat("ñ", 300))), MaxContactNameRunes)
}

func TestPhoneFromJID(t *testing.T) {
	assert.Equal(t, "5511999", PhoneFromJID("5511999@s.whatsapp.net"))
	assert.Equal(t, "120363-123", PhoneFromJID("120363-123@g.us"))
	assert.True(t, IsGroupJID("120363-123@g.us"))
	assert.False(t, ValidJID("5511999@c.us"))
}

func TestJIDFromPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"+55 (11) 99999-0000", "5511999990000@s.whatsapp.net", true},
		{" 5511999990000 ", "5511999990000@s.whatsapp.net", true},
		{"120363-123@g.us", "120363-123@g.us", true},
		{"1234567", "", false},
		{"1234567890123456", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := JIDFromPhone(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestDecodeMedia(t *testing.T) {
	tests := []struct {
		content  map[string]any
		kind     MediaKind
		describe string
	}{
		{map[string]any{"conversation": "hi"}, KindText, "hi"},
		{map[string]any{"imageMessage": map[string]any{"caption": "look"}}, KindImage, "📷 Imagem: look"},
		{map[string]any{"videoMessage": map[string]any{}}, KindVideo, "🎥 Vídeo"},
		{map[string]any{"audioMessage": map[string]any{"ptt": true, "seconds": float64(75)}}, KindAudio, "🎤 Mensagem de voz (1:15)"},
		{map[string]any{"documentMessage": map[string]any{"fileName": "nf.pdf"}}, KindDocument, "📄 nf.pdf"},
		{map[string]any{"stickerMessage": map[string]any{}}, KindSticker, "Sticker"},
		{map[string]any{"contactMessage": map[string]any{"displayName": "Bia"}}, KindContact, "👤 Bia"},
		{map[string]any{"liveLocationMessage": map[string]any{"degreesLatitude": -23.5, "degreesLongitude": -46.6}}, KindLocation, "📍 -23.50000, -46.60000"},
		{map[string]any{"pollCreationMessage": map[string]any{}}, KindUnknown, MediaPlaceholder},
		{nil, KindUnknown, MediaPlaceholder},
	}
	for _, tt := range tests {
		m := DecodeMedia(tt.content)
		assert.Equal(t, tt.kind, m.Kind())
		assert.Equal(t, tt.describe, m.Describe())
	}
}
