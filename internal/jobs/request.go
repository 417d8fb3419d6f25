package jobs

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/teemow/inboxreply/internal/draft"
)

// DefaultProjectID is the project the CLI and MCP surfaces fall back to.
const DefaultProjectID = "default"

var validate = validator.New(validator.WithRequiredStructEnabled())

// RunMeta carries the thread reference and drafting controls.
type RunMeta struct {
	ThreadID string        `json:"threadId" validate:"required"`
	Tone     string        `json:"tone,omitempty"`
	Length   *draft.Length `json:"length,omitempty"`
	Bullets  bool          `json:"bullets,omitempty"`
}

// RunRequest is the input of Run.
type RunRequest struct {
	ProjectID string   `json:"projectId" validate:"required"`
	Input     string   `json:"input"`
	Meta      *RunMeta `json:"meta" validate:"required"`
}

// Controls returns the defaulted drafting controls of the request.
func (r RunRequest) Controls() draft.Controls {
	c := draft.Controls{}
	if r.Meta != nil {
		c.Tone = draft.Tone(r.Meta.Tone)
		c.Bullets = r.Meta.Bullets
		if r.Meta.Length != nil {
			c.Length = *r.Meta.Length
		}
	}
	return c.Normalize()
}

// normalize trims identifiers, then validates. A missing thread is reported
// before a missing project.
func (r RunRequest) normalize() (RunRequest, error) {
	r.ProjectID = strings.TrimSpace(r.ProjectID)
	if r.Meta != nil {
		meta := *r.Meta
		meta.ThreadID = strings.TrimSpace(meta.ThreadID)
		r.Meta = &meta
	}

	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.StructField() != "ProjectID" {
					return r, &RequestError{Detail: "meta.threadId is required"}
				}
			}
			return r, &RequestError{Detail: "projectId is required"}
		}
		return r, &RequestError{Detail: err.Error()}
	}
	return r, nil
}
