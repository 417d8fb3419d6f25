// Package google provides the OAuth2 consent flow for connecting a project's
// Gmail account, and the authenticated HTTP client used against Google APIs.
//
// The authorization state carries the project id and an optional redirect
// target in the form "project|redirect". Exchanged tokens are converted to
// credential records and stored by the caller.
package google
