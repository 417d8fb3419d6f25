package gmail

import (
	"fmt"
	"strings"
	"time"

	gmail "google.golang.org/api/gmail/v1"
)

const (
	// SnippetMaxLength bounds a normalized thread's snippet, ellipsis included.
	SnippetMaxLength = 160

	// SummarySnippetMaxLength bounds a listing snippet before the ellipsis.
	SummarySnippetMaxLength = 100

	ellipsis = "..."
)

var messageSeparator = strings.Repeat("-", 80)

// Message is one rendered message of a normalized thread.
type Message struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"ts"`
}

// NormalizedThread is the plain-text view of a thread handed to drafting.
type NormalizedThread struct {
	ID           string    `json:"id"`
	Subject      *string   `json:"subject"`
	Participants []string  `json:"participants"`
	Snippet      string    `json:"snippet"`
	Messages     []Message `json:"messages"`
	UpdatedAt    int64     `json:"updated_at"`
}

// Text joins the rendered messages into the thread text.
func (t *NormalizedThread) Text() string {
	parts := make([]string, len(t.Messages))
	for i, m := range t.Messages {
		parts[i] = m.Text
	}
	return strings.Join(parts, "\n")
}

// SubjectOrEmpty returns the subject or "" when unknown.
func (t *NormalizedThread) SubjectOrEmpty() string {
	if t.Subject == nil {
		return ""
	}
	return *t.Subject
}

var crlf = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Snippet collapses newlines and truncates text to SnippetMaxLength runes.
func Snippet(text string) string {
	s := crlf.Replace(strings.TrimSpace(text))
	return truncate(s, SnippetMaxLength-len(ellipsis), SnippetMaxLength)
}

// SummarySnippet truncates a provider snippet for thread listings.
func SummarySnippet(s string) string {
	return truncate(s, SummarySnippetMaxLength, SummarySnippetMaxLength)
}

// truncate keeps the first keep runes plus an ellipsis when s exceeds limit runes.
func truncate(s string, keep, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:keep]) + ellipsis
}

// Placeholder builds a degraded single-message thread.
func Placeholder(threadID, text string, now time.Time) *NormalizedThread {
	return &NormalizedThread{
		ID:           threadID,
		Participants: []string{},
		Snippet:      Snippet(text),
		Messages:     []Message{{Text: text, Timestamp: now.Unix()}},
		UpdatedAt:    now.Unix(),
	}
}

// Placeholder texts for degraded fetches.
func noCredentialText(threadID string) string {
	return fmt.Sprintf("[Thread %s] No access token available.", threadID)
}

func fetchErrorText(threadID string, err error) string {
	return fmt.Sprintf("[Thread %s] Error fetching thread: %v", threadID, err)
}

func noMessagesText(threadID string) string {
	return fmt.Sprintf("[Thread %s] No messages found.", threadID)
}

// renderMessage formats a single message block.
func renderMessage(m *gmail.Message) string {
	var b strings.Builder
	b.WriteString("From: ")
	b.WriteString(headerOr(m, "From", "Unknown"))
	b.WriteString("\nDate: ")
	b.WriteString(HeaderValue(m, "Date"))
	b.WriteString("\nSubject: ")
	b.WriteString(headerOr(m, "Subject", "No Subject"))
	b.WriteString("\n\n")
	b.WriteString(ExtractBody(m.Payload))
	b.WriteString("\n\n")
	b.WriteString(messageSeparator)
	return b.String()
}

// Normalize reduces a provider thread to a NormalizedThread. It is pure apart
// from now, which stamps messages without an internal date and UpdatedAt.
func Normalize(threadID string, thread *gmail.Thread, now time.Time) *NormalizedThread {
	if thread == nil || len(thread.Messages) == 0 {
		return Placeholder(threadID, noMessagesText(threadID), now)
	}

	nt := &NormalizedThread{
		ID:           threadID,
		Participants: []string{},
		Messages:     make([]Message, 0, len(thread.Messages)),
		UpdatedAt:    now.Unix(),
	}

	if subject := HeaderValue(thread.Messages[0], "Subject"); subject != "" {
		nt.Subject = &subject
	}

	seen := make(map[string]bool)
	for _, m := range thread.Messages {
		if from := HeaderValue(m, "From"); from != "" && !seen[from] {
			seen[from] = true
			nt.Participants = append(nt.Participants, from)
		}

		ts := now.Unix()
		if m.InternalDate > 0 {
			ts = m.InternalDate / 1000
		}
		nt.Messages = append(nt.Messages, Message{Text: renderMessage(m), Timestamp: ts})
	}

	nt.Snippet = Snippet(nt.Text())
	return nt
}
