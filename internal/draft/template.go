package draft

import "strings"

const (
	shortBody    = "Thanks for the update."
	detailedBody = "Thank you for the detailed update. I appreciate the context you shared."
	bulletBlock  = "\n\n- Next steps\n- Timeline\n- Any blockers?"
	closing      = "\n\nBest regards,\n"
)

// TemplateFallback builds a deterministic draft from the controls alone.
// It never touches the network and always returns non-empty text.
func TemplateFallback(req Request) Result {
	c := req.Controls.Normalize()

	greeting := "Hey,"
	if c.Tone == ToneFormal {
		greeting = "Hi,"
	}

	body := detailedBody
	if c.Length.IsShort() {
		body = shortBody
	}
	if c.Bullets {
		body += bulletBlock
	}

	var b strings.Builder
	b.WriteString(greeting)
	b.WriteString("\n\n")
	b.WriteString(body)
	b.WriteString(closing)

	return Result{
		Text: b.String(),
		Meta: Meta{
			Subject:      req.Subject,
			Participants: req.Participants,
		},
		Source: SourceTemplate,
	}
}
