package draft

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTone(t *testing.T) {
	tests := []struct {
		in   string
		want Tone
	}{
		{"", ToneFriendly},
		{"friendly", ToneFriendly},
		{"formal", ToneFormal},
		{" Formal ", ToneFormal},
		{"brief", ToneBrief},
		{"professional", ToneProfessional},
		{"sarcastic", ToneFriendly},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseTone(tt.in), "input %q", tt.in)
	}
}

func TestLength_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantWords int
		wantShort bool
		wantErr   bool
	}{
		{name: "number", in: `120`, wantWords: 120},
		{name: "numeric string", in: `"90"`, wantWords: 90},
		{name: "short", in: `"short"`, wantWords: 80, wantShort: true},
		{name: "medium", in: `"medium"`, wantWords: 150},
		{name: "long", in: `"LONG"`, wantWords: 250},
		{name: "unknown string", in: `"huge"`, wantWords: 80, wantShort: true},
		{name: "null", in: `null`, wantWords: 80, wantShort: true},
		{name: "zero", in: `0`, wantErr: true},
		{name: "object", in: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l Length
			err := json.Unmarshal([]byte(tt.in), &l)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantWords, l.TargetWords())
			assert.Equal(t, tt.wantShort, l.IsShort())
		})
	}
}

func TestControls_UnmarshalDefaults(t *testing.T) {
	var c Controls
	require.NoError(t, json.Unmarshal([]byte(`{"tone":"unknown"}`), &c))
	c = c.Normalize()

	assert.Equal(t, ToneFriendly, c.Tone)
	assert.True(t, c.Length.IsShort())
	assert.False(t, c.Bullets)
}

func TestLength_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(Length{Words: 42})
	require.NoError(t, err)
	assert.JSONEq(t, `42`, string(out))

	out, err = json.Marshal(Length{})
	require.NoError(t, err)
	assert.JSONEq(t, `"short"`, string(out))
}
