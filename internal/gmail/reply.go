package gmail

import (
	"fmt"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// buildReply renders a plain-text RFC 2822 reply to original.
func buildReply(original *gmail.Message, body string) ([]byte, error) {
	to := HeaderValue(original, "Reply-To")
	if to == "" {
		to = HeaderValue(original, "From")
	}
	if to == "" {
		return nil, fmt.Errorf("original message has no From header")
	}

	subject := HeaderValue(original, "Subject")
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}

	messageID := HeaderValue(original, "Message-ID")
	references := HeaderValue(original, "References")
	if messageID != "" {
		references = strings.TrimSpace(references + " " + messageID)
	}

	var b strings.Builder
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + encodeRFC2047(subject) + "\r\n")
	if messageID != "" {
		b.WriteString("In-Reply-To: " + messageID + "\r\n")
	}
	if references != "" {
		b.WriteString("References: " + references + "\r\n")
	}
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)

	return []byte(b.String()), nil
}
