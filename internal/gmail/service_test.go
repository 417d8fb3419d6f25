package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/inboxreply/internal/credential"
)

type fakeGmail struct {
	threads  map[string]*gmail.Thread
	listed   []string
	failGet  bool
	sent     *gmail.Message
	getCalls atomic.Int32

	mu       sync.Mutex
	lastAuth string
}

func (f *fakeGmail) setAuth(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAuth = v
}

func (f *fakeGmail) auth() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth
}

func (f *fakeGmail) sentMessage() *gmail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent
}

func (f *fakeGmail) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}

	mux.HandleFunc("GET /gmail/v1/users/me/threads", func(w http.ResponseWriter, r *http.Request) {
		f.setAuth(r.Header.Get("Authorization"))
		assert.Equal(t, "INBOX", r.URL.Query().Get("labelIds"))
		res := &gmail.ListThreadsResponse{}
		for _, id := range f.listed {
			res.Threads = append(res.Threads, &gmail.Thread{Id: id})
		}
		writeJSON(w, res)
	})
	mux.HandleFunc("GET /gmail/v1/users/me/threads/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.getCalls.Add(1)
		f.setAuth(r.Header.Get("Authorization"))
		if f.failGet {
			http.Error(w, `{"error":{"code":500,"message":"backend error"}}`, http.StatusInternalServerError)
			return
		}
		thread, ok := f.threads[r.PathValue("id")]
		if !ok {
			http.Error(w, `{"error":{"code":404,"message":"Requested entity was not found."}}`, http.StatusNotFound)
			return
		}
		writeJSON(w, thread)
	})
	mux.HandleFunc("POST /gmail/v1/users/me/messages/send", func(w http.ResponseWriter, r *http.Request) {
		var msg gmail.Message
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		f.mu.Lock()
		f.sent = &msg
		f.mu.Unlock()
		writeJSON(w, &gmail.Message{Id: "sent-1", ThreadId: msg.ThreadId})
	})
	return mux
}

func newTestService(t *testing.T, f *fakeGmail) *Service {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	dial := NewDialer(5*time.Second, nil, option.WithEndpoint(srv.URL+"/"))
	return NewService(dial,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return fixedNow }),
	)
}

var testCred = &credential.Credential{AccessToken: "tok-abc"}

func sampleThread() *gmail.Thread {
	return &gmail.Thread{
		Id:      "t1",
		Snippet: strings.Repeat("s", 120),
		Messages: []*gmail.Message{
			message("Alice <alice@example.com>", "Mon, 10 Mar 2025 09:00:00 +0000", "Quarterly numbers",
				multipart("multipart/mixed",
					multipart("multipart/alternative",
						textPart("text/html", b64("<p>x</p>")),
						textPart("text/plain", b64("Numbers attached.")),
					),
				)),
		},
	}
}

func TestService_FetchAndNormalize(t *testing.T) {
	f := &fakeGmail{threads: map[string]*gmail.Thread{"t1": sampleThread()}}
	s := newTestService(t, f)

	nt := s.FetchAndNormalize(context.Background(), "t1", testCred)

	assert.Equal(t, "Bearer tok-abc", f.auth())
	require.NotNil(t, nt.Subject)
	assert.Equal(t, "Quarterly numbers", *nt.Subject)
	assert.Contains(t, nt.Text(), "Numbers attached.")
	assert.Equal(t, []string{"Alice <alice@example.com>"}, nt.Participants)
}

func TestService_FetchAndNormalize_Degrades(t *testing.T) {
	tests := []struct {
		name     string
		cred     *credential.Credential
		failGet  bool
		threadID string
		want     string
	}{
		{
			name:     "no credential",
			cred:     nil,
			threadID: "t1",
			want:     "[Thread t1] No access token available.",
		},
		{
			name:     "upstream error",
			cred:     testCred,
			failGet:  true,
			threadID: "t1",
			want:     "[Thread t1] Error fetching thread:",
		},
		{
			name:     "unknown thread",
			cred:     testCred,
			threadID: "missing",
			want:     "[Thread missing] Error fetching thread:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeGmail{threads: map[string]*gmail.Thread{"t1": sampleThread()}, failGet: tt.failGet}
			s := newTestService(t, f)

			nt := s.FetchAndNormalize(context.Background(), tt.threadID, tt.cred)
			require.NotNil(t, nt)
			require.Len(t, nt.Messages, 1)
			assert.True(t, strings.HasPrefix(nt.Messages[0].Text, tt.want), nt.Messages[0].Text)
			assert.Nil(t, nt.Subject)
			if tt.cred == nil {
				assert.Equal(t, int32(0), f.getCalls.Load())
			}
		})
	}
}

func TestService_ListThreads(t *testing.T) {
	bare := &gmail.Thread{Id: "t2", Snippet: "short", Messages: []*gmail.Message{message("", "", "", nil)}}
	f := &fakeGmail{
		threads: map[string]*gmail.Thread{"t1": sampleThread(), "t2": bare, "t3": {Id: "t3"}},
		listed:  []string{"t1", "t2", "t3"},
	}
	s := newTestService(t, f)

	got := s.ListThreads(context.Background(), testCred, "INBOX", 0)
	require.Len(t, got, 2)

	assert.Equal(t, ThreadSummary{
		ID:      "t1",
		Subject: "Quarterly numbers",
		From:    "Alice <alice@example.com>",
		Date:    "Mon, 10 Mar 2025 09:00:00 +0000",
		Snippet: strings.Repeat("s", 100) + "...",
	}, got[0])
	assert.Equal(t, ThreadSummary{ID: "t2", Subject: "No Subject", From: "Unknown", Snippet: "short"}, got[1])
}

func TestService_ListThreads_Degrades(t *testing.T) {
	t.Run("no credential", func(t *testing.T) {
		s := newTestService(t, &fakeGmail{})
		got := s.ListThreads(context.Background(), nil, "INBOX", 20)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("metadata error", func(t *testing.T) {
		f := &fakeGmail{listed: []string{"t1"}, failGet: true}
		s := newTestService(t, f)
		got := s.ListThreads(context.Background(), testCred, "INBOX", 20)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestClampMaxResults(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 20},
		{-5, 1},
		{1, 1},
		{50, 50},
		{100, 100},
		{500, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampMaxResults(tt.in), "input %d", tt.in)
	}
}

func TestService_SendReply(t *testing.T) {
	thread := &gmail.Thread{Id: "t1", Messages: []*gmail.Message{
		message("alice@example.com", "", "Plans", nil),
		{Payload: &gmail.MessagePart{Headers: []*gmail.MessagePartHeader{
			{Name: "From", Value: "Bob <bob@example.com>"},
			{Name: "Subject", Value: "Re: Plans"},
			{Name: "Message-ID", Value: "<m2@example.com>"},
			{Name: "References", Value: "<m1@example.com>"},
		}}},
	}}
	f := &fakeGmail{threads: map[string]*gmail.Thread{"t1": thread}}
	s := newTestService(t, f)

	sent, err := s.SendReply(context.Background(), testCred, "t1", "Sounds good.")
	require.NoError(t, err)
	assert.Equal(t, SentMessage{MessageID: "sent-1", ThreadID: "t1"}, sent)

	msg := f.sentMessage()
	require.NotNil(t, msg)
	assert.Equal(t, "t1", msg.ThreadId)
	raw, err := base64.URLEncoding.DecodeString(msg.Raw)
	require.NoError(t, err)
	mime := string(raw)
	assert.Contains(t, mime, "To: Bob <bob@example.com>\r\n")
	assert.Contains(t, mime, "Subject: Re: Plans\r\n")
	assert.Contains(t, mime, "In-Reply-To: <m2@example.com>\r\n")
	assert.Contains(t, mime, "References: <m1@example.com> <m2@example.com>\r\n")
	assert.True(t, strings.HasSuffix(mime, "\r\n\r\nSounds good."))
}

func TestService_SendReply_Errors(t *testing.T) {
	f := &fakeGmail{threads: map[string]*gmail.Thread{"empty": {Id: "empty"}}}
	s := newTestService(t, f)

	_, err := s.SendReply(context.Background(), nil, "t1", "hi")
	assert.ErrorIs(t, err, ErrNoCredential)

	_, err = s.SendReply(context.Background(), testCred, "t1", "   ")
	assert.Error(t, err)

	_, err = s.SendReply(context.Background(), testCred, "empty", "hi")
	assert.ErrorIs(t, err, ErrEmptyThread)
}

func TestEncodeRFC2047(t *testing.T) {
	assert.Equal(t, "Plain subject", encodeRFC2047("Plain subject"))
	assert.Equal(t, "=?UTF-8?b?R3LDvMOfZQ==?=", encodeRFC2047("Grüße"))
}
