package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/teemow/inboxreply/internal/config"
	"github.com/teemow/inboxreply/internal/credential"
)

// DefaultProjectID is used when the state or query omits a project.
const DefaultProjectID = "default"

// ErrNotConfigured is returned when client id, secret or redirect URI is missing.
var ErrNotConfigured = errors.New("google oauth credentials not configured")

// Flow runs the authorization code flow for a single OAuth client.
type Flow struct {
	conf *oauth2.Config
}

// NewFlow creates a Flow from configuration. It fails when the client is
// only partially configured.
func NewFlow(cfg config.GoogleConfig) (*Flow, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	return &Flow{conf: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       GmailScopes,
	}}, nil
}

// newFlowWithEndpoint is used by tests to point the flow at a fake token server.
func newFlowWithEndpoint(cfg config.GoogleConfig, endpoint oauth2.Endpoint) *Flow {
	return &Flow{conf: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       GmailScopes,
	}}
}

// EncodeState builds the opaque state parameter for a project.
func EncodeState(projectID, redirectTo string) string {
	if projectID == "" {
		projectID = DefaultProjectID
	}
	return projectID + "|" + redirectTo
}

// ParseState splits a state parameter back into project and redirect target.
// An empty project falls back to DefaultProjectID.
func ParseState(state string) (projectID, redirectTo string) {
	projectID, redirectTo, _ = strings.Cut(state, "|")
	if projectID == "" {
		projectID = DefaultProjectID
	}
	return projectID, redirectTo
}

// AuthURL returns the consent URL and the state it carries. Offline access
// and a forced consent prompt make Google return a refresh token every time.
func (f *Flow) AuthURL(projectID, redirectTo string) (url, state string) {
	state = EncodeState(projectID, redirectTo)
	url = f.conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
	return url, state
}

// Exchange trades an authorization code for a token.
func (f *Flow) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := f.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return tok, nil
}

// RecordFromToken converts an exchanged token into a stored credential record.
// Granted scopes come from the token response when present.
func RecordFromToken(projectID string, tok *oauth2.Token) credential.Record {
	rec := credential.Record{
		ProjectID:    projectID,
		Provider:     credential.ProviderGoogle,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Scopes:       GmailScopes,
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.UTC()
		rec.ExpiresAt = &exp
	}
	if raw, ok := tok.Extra("scope").(string); ok && raw != "" {
		rec.Scopes = strings.Fields(raw)
	}
	return rec
}

// HTTPClient returns an HTTP client that authenticates with a bearer access
// token. The client uses HTTP/1.1 to avoid HTTP/2 stream errors against the
// Gmail API, and bounds every request with timeout.
func HTTPClient(ctx context.Context, accessToken string, timeout time.Duration) *http.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})
	client := oauth2.NewClient(ctx, ts)

	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}
	client.Timeout = timeout
	return client
}
