package msgx

import (
	"regexp"
	"unicode/utf8"
)

const (
	MaxMessageRunes     = 5000
	MaxContactNameRunes = 255
	MediaPlaceholder    = "[Mídia]"
)

var controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)

// Truncate keeps the first n runes of s
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// SanitizeText truncates to MaxMessageRunes and then drops ASCII control
// characters other than tab, line feed and carriage return
func SanitizeText(s string) string {
	return controlChars.ReplaceAllString(Truncate(s, MaxMessageRunes), "")
}

// ContactName caps a push name; empty names yield nil
func ContactName(pushName string) *string {
	name := Truncate(pushName, MaxContactNameRunes)
	if name == "" {
		return nil
	}
	return &name
}

// ExtractText returns the plain text of a message payload: the conversation
// text, then the extended text, then MediaPlaceholder
func ExtractText(content map[string]any) string {
	if s, ok := content["conversation"].(string); ok && s != "" {
		return s
	}
	if ext, ok := content["extendedTextMessage"].(map[string]any); ok {
		if s, ok := ext["text"].(string); ok && s != "" {
			return s
		}
	}
	return MediaPlaceholder
}
