package gmail

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func message(from, date, subject string, payload *gmail.MessagePart) *gmail.Message {
	headers := []*gmail.MessagePartHeader{}
	if from != "" {
		headers = append(headers, &gmail.MessagePartHeader{Name: "From", Value: from})
	}
	if date != "" {
		headers = append(headers, &gmail.MessagePartHeader{Name: "Date", Value: date})
	}
	if subject != "" {
		headers = append(headers, &gmail.MessagePartHeader{Name: "Subject", Value: subject})
	}
	if payload == nil {
		payload = &gmail.MessagePart{}
	}
	payload.Headers = append(payload.Headers, headers...)
	return &gmail.Message{Payload: payload}
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short", "hello\nworld", "hello world"},
		{"trimmed", "  \nhello\n  ", "hello"},
		{"crlf", "Hello\r\nWorld\r\n", "Hello World"},
		{"bare cr", "Hello\rWorld", "Hello World"},
		{"exactly limit", strings.Repeat("a", 160), strings.Repeat("a", 160)},
		{"over limit", strings.Repeat("a", 161), strings.Repeat("a", 157) + "..."},
		{"multibyte counted as runes", strings.Repeat("ü", 200), strings.Repeat("ü", 157) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Snippet(tt.in)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len([]rune(got)), SnippetMaxLength)
		})
	}
}

func TestSummarySnippet(t *testing.T) {
	assert.Equal(t, "short", SummarySnippet("short"))
	assert.Equal(t, strings.Repeat("x", 100), SummarySnippet(strings.Repeat("x", 100)))
	assert.Equal(t, strings.Repeat("x", 100)+"...", SummarySnippet(strings.Repeat("x", 101)))
}

func TestNormalize(t *testing.T) {
	thread := &gmail.Thread{Messages: []*gmail.Message{
		message("Alice <alice@example.com>", "Mon, 10 Mar 2025 09:00:00 +0000", "Launch plan", textPart("text/plain", b64("Can we ship Friday?"))),
		message("Bob <bob@example.com>", "Mon, 10 Mar 2025 10:00:00 +0000", "Re: Launch plan", textPart("text/plain", b64("Yes."))),
		message("Alice <alice@example.com>", "", "", textPart("text/html", b64("<b>ok</b>"))),
	}}
	thread.Messages[0].InternalDate = 1741597200000

	nt := Normalize("t1", thread, fixedNow)

	require.NotNil(t, nt.Subject)
	assert.Equal(t, "Launch plan", *nt.Subject)
	assert.Equal(t, []string{"Alice <alice@example.com>", "Bob <bob@example.com>"}, nt.Participants)
	require.Len(t, nt.Messages, 3)
	assert.Equal(t, int64(1741597200), nt.Messages[0].Timestamp)
	assert.Equal(t, fixedNow.Unix(), nt.Messages[1].Timestamp)
	assert.Equal(t, fixedNow.Unix(), nt.UpdatedAt)

	dashes := strings.Repeat("-", 80)
	wantFirst := "From: Alice <alice@example.com>\nDate: Mon, 10 Mar 2025 09:00:00 +0000\nSubject: Launch plan\n\nCan we ship Friday?\n\n" + dashes
	assert.Equal(t, wantFirst, nt.Messages[0].Text)
	assert.Contains(t, nt.Messages[2].Text, "Subject: No Subject")
	assert.Contains(t, nt.Messages[2].Text, NoReadableContent)

	text := nt.Text()
	assert.True(t, strings.HasPrefix(text, wantFirst+"\nFrom: Bob"))
	assert.Equal(t, Snippet(text), nt.Snippet)
}

func TestNormalize_MissingFrom(t *testing.T) {
	thread := &gmail.Thread{Messages: []*gmail.Message{
		message("", "", "", textPart("text/plain", b64("body"))),
	}}
	nt := Normalize("t1", thread, fixedNow)

	assert.Nil(t, nt.Subject)
	assert.Empty(t, nt.Participants)
	assert.Contains(t, nt.Messages[0].Text, "From: Unknown\n")
}

func TestNormalize_Empty(t *testing.T) {
	nt := Normalize("t9", &gmail.Thread{}, fixedNow)
	assert.Equal(t, "[Thread t9] No messages found.", nt.Text())
	assert.Equal(t, "[Thread t9] No messages found.", nt.Snippet)
}

func TestNormalize_Deterministic(t *testing.T) {
	build := func() *gmail.Thread {
		return &gmail.Thread{Messages: []*gmail.Message{
			message("a@example.com", "d1", "s", multipart("multipart/mixed",
				multipart("multipart/alternative", textPart("text/plain", b64(strings.Repeat("long line\n", 40)))),
			)),
			message("b@example.com", "d2", "s", textPart("text/plain", b64("reply"))),
		}}
	}

	first, err := json.Marshal(Normalize("t1", build(), fixedNow))
	require.NoError(t, err)
	second, err := json.Marshal(Normalize("t1", build(), fixedNow))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
