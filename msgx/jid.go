package msgx

import "strings"

const (
	UserJIDSuffix  = "@s.whatsapp.net"
	GroupJIDSuffix = "@g.us"
)

// ValidJID reports whether jid names a user or group chat
func ValidJID(jid string) bool {
	return strings.Contains(jid, UserJIDSuffix) || strings.Contains(jid, GroupJIDSuffix)
}

// IsGroupJID reports whether jid names a group chat
func IsGroupJID(jid string) bool {
	return strings.Contains(jid, GroupJIDSuffix)
}

// PhoneFromJID strips the chat suffixes from jid
func PhoneFromJID(jid string) string {
	phone := strings.Replace(jid, UserJIDSuffix, "", 1)
	return strings.Replace(phone, GroupJIDSuffix, "", 1)
}

// JIDFromPhone turns a phone number typed in the panel into a user JID.
// Formatting characters are dropped; a value that already is a JID is kept.
// The bool is false when fewer than 8 or more than 15 digits remain.
func JIDFromPhone(phone string) (string, bool) {
	phone = strings.TrimSpace(phone)
	if ValidJID(phone) {
		return phone, true
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if len(digits) < 8 || len(digits) > 15 {
		return "", false
	}
	return digits + UserJIDSuffix, true
}
