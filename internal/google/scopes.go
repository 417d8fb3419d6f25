package google

// GmailScopes are the scopes requested when a project connects Gmail.
// Reading threads, sending replies, and listing headers is all the service does.
var GmailScopes = []string{
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/gmail.metadata",
}
