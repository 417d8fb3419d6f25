package draft

import (
	"fmt"
	"strings"
)

// SystemPrompt sets the assistant's role and the secrets rule.
const SystemPrompt = "You are an email assistant that drafts replies on behalf of the user. " +
	"Write only the body of the reply, starting with a greeting line and ending with a closing line. " +
	"Never include passwords, API keys, access tokens, or other secrets in the reply."

var toneDirectives = map[Tone]string{
	ToneFriendly:     "Use a warm, friendly and conversational tone.",
	ToneFormal:       "Use a formal, courteous tone with complete sentences.",
	ToneBrief:        "Be brief and to the point. Avoid pleasantries beyond a greeting and closing.",
	ToneProfessional: "Use a clear, professional business tone.",
}

// StyleDirective renders controls into instructions for the backend.
func StyleDirective(c Controls) string {
	c = c.Normalize()

	lines := []string{
		toneDirectives[c.Tone],
		fmt.Sprintf("Aim for about %d words.", c.Length.TargetWords()),
	}
	if c.Bullets {
		lines = append(lines, "Summarize action items as a bulleted list using \"- \" markers.")
	} else {
		lines = append(lines, "Write in plain paragraphs without bullet points.")
	}
	return strings.Join(lines, "\n")
}

// UserPrompt builds the user message: style directive, optional nudge, and
// the trimmed thread.
func UserPrompt(req Request, trimmer *Trimmer) string {
	var b strings.Builder
	b.WriteString(StyleDirective(req.Controls))
	b.WriteString("\n\n")

	if input := strings.TrimSpace(req.Input); input != "" {
		b.WriteString("The user wants the reply to address the following:\n")
		b.WriteString(input)
		b.WriteString("\n\n")
	}

	b.WriteString("Email thread:\n")
	b.WriteString(trimmer.Trim(req.ThreadText))
	return b.String()
}
