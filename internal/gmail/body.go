package gmail

import (
	"encoding/base64"
	"errors"
	"mime"
	"strings"
	"unicode/utf8"

	gmail "google.golang.org/api/gmail/v1"
)

const (
	// NoReadableContent is returned when a message has no plain-text part.
	NoReadableContent = "[No readable content]"

	// UndecodableBody is returned when every plain-text part failed to decode.
	UndecodableBody = "[Could not decode message body]"
)

var errNotUTF8 = errors.New("body is not valid UTF-8")

// walkParts visits part and its descendants depth-first, children before the
// next sibling, in the order the provider returned them. It stops as soon as
// fn returns false.
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart) bool) bool {
	if part == nil {
		return true
	}
	if !fn(part) {
		return false
	}
	for _, child := range part.Parts {
		if !walkParts(child, fn) {
			return false
		}
	}
	return true
}

// ExtractBody returns the decoded text of the first text/plain part found in
// a depth-first walk of payload. A part that fails to decode is skipped.
func ExtractBody(payload *gmail.MessagePart) string {
	var (
		body         string
		found        bool
		decodeFailed bool
	)
	walkParts(payload, func(part *gmail.MessagePart) bool {
		if !isPlainText(part.MimeType) || part.Body == nil || part.Body.Data == "" {
			return true
		}
		text, err := decodeBody(part.Body.Data)
		if err != nil {
			decodeFailed = true
			return true
		}
		body, found = text, true
		return false
	})

	switch {
	case found:
		return body
	case decodeFailed:
		return UndecodableBody
	default:
		return NoReadableContent
	}
}

func isPlainText(mimeType string) bool {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.EqualFold(strings.TrimSpace(mimeType), "text/plain")
	}
	return mediaType == "text/plain"
}

// decodeBody decodes Gmail's base64url body data, tolerating missing or
// present padding.
func decodeBody(data string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", errNotUTF8
	}
	return string(raw), nil
}
