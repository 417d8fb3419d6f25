// Package credential resolves the per-project access credential used to talk
// to the mail provider.
//
// A stored record is usable only while its expiry is absent or strictly in
// the future. All comparisons happen in UTC, so records written with naive
// timestamps and records written with an explicit offset behave the same.
package credential

import (
	"context"
	"errors"
	"time"
)

// ProviderGoogle is the provider key under which Gmail credentials are stored.
const ProviderGoogle = "google"

var (
	// ErrNotConnected means the project never stored a credential.
	ErrNotConnected = errors.New("no credential connected for project")

	// ErrExpired means the stored credential's expiry has passed.
	ErrExpired = errors.New("stored credential has expired")

	// ErrUnavailable means the credential store could not be read.
	ErrUnavailable = errors.New("credential store unavailable")
)

// Record is a stored credential row.
type Record struct {
	ProjectID    string
	Provider     string
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
	Scopes       []string
}

// Credential is a usable bearer credential.
type Credential struct {
	AccessToken string
	ExpiresAt   *time.Time
}

// Store reads stored credential records. Lookup returns (nil, nil) when the
// project has no record for the provider.
type Store interface {
	Lookup(ctx context.Context, projectID, provider string) (*Record, error)
}

// Writer persists credential records, idempotent on (project, provider).
type Writer interface {
	Upsert(ctx context.Context, rec Record) error
}

// NormalizeUTC returns t in UTC. A zero-offset wall-clock time (a naive
// timestamp read back from storage) is kept as is.
func NormalizeUTC(t time.Time) time.Time {
	return t.UTC()
}

// Usable reports whether rec can be used at instant now.
func (r *Record) Usable(now time.Time) bool {
	if r == nil || r.AccessToken == "" {
		return false
	}
	if r.ExpiresAt == nil {
		return true
	}
	return NormalizeUTC(*r.ExpiresAt).After(NormalizeUTC(now))
}
