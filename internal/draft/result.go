package draft

// Source tells which path produced a draft.
type Source string

const (
	SourceModel    Source = "model"
	SourceTemplate Source = "template"
)

// TokenUsage is the backend's token accounting for one draft.
type TokenUsage struct {
	Prompt     int64 `json:"prompt"`
	Completion int64 `json:"completion"`
	Total      int64 `json:"total"`
}

// Meta describes a draft. TokenUsage is nil for template drafts.
type Meta struct {
	Subject      *string     `json:"subject"`
	Participants []string    `json:"participants"`
	TokenUsage   *TokenUsage `json:"token_usage"`
}

// Result is a finished draft.
type Result struct {
	Text   string `json:"text"`
	Meta   Meta   `json:"meta"`
	Source Source `json:"-"`
}

// Request is the input of a draft.
type Request struct {
	ThreadText   string
	Subject      *string
	Participants []string
	Input        string
	Controls     Controls
}
