package draft

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStyleDirective(t *testing.T) {
	tests := []struct {
		name     string
		controls Controls
		contains []string
	}{
		{
			name:     "defaults",
			controls: Controls{},
			contains: []string{"friendly", "about 80 words", "without bullet points"},
		},
		{
			name:     "formal medium bullets",
			controls: Controls{Tone: ToneFormal, Length: Length{Size: LengthMedium}, Bullets: true},
			contains: []string{"formal", "about 150 words", "bulleted list"},
		},
		{
			name:     "numeric length",
			controls: Controls{Tone: ToneBrief, Length: Length{Words: 42}},
			contains: []string{"brief", "about 42 words"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StyleDirective(tt.controls)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
		})
	}
}

func TestSystemPrompt_ForbidsSecrets(t *testing.T) {
	assert.Contains(t, SystemPrompt, "Never include passwords, API keys, access tokens, or other secrets")
}

func TestUserPrompt(t *testing.T) {
	req := Request{ThreadText: "From: a\n\nhello", Input: "  decline politely  "}
	got := UserPrompt(req, nil)

	assert.Contains(t, got, "decline politely\n\n")
	assert.True(t, strings.HasSuffix(got, "Email thread:\nFrom: a\n\nhello"))

	withoutInput := UserPrompt(Request{ThreadText: "x"}, nil)
	assert.NotContains(t, withoutInput, "The user wants")
}

func TestTrimmer_EstimateKeepsTail(t *testing.T) {
	tr := &Trimmer{maxTokens: 2}

	assert.Equal(t, "abcdef", tr.Trim("abcdef"))
	assert.Equal(t, "ghijkl", tr.Trim("abcdefghijkl"))
	assert.Equal(t, "äöüßéè", tr.Trim("xyzäöüßéè"))
}

func TestTrimmer_Disabled(t *testing.T) {
	var nilTrimmer *Trimmer
	assert.Equal(t, "text", nilTrimmer.Trim("text"))
	assert.Equal(t, "text", (&Trimmer{}).Trim("text"))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("ab"))
	assert.Equal(t, 2, EstimateTokens("abcd"))
}
