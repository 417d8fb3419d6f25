package draft

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Tone is the prose style of a draft.
type Tone string

const (
	ToneFriendly     Tone = "friendly"
	ToneFormal       Tone = "formal"
	ToneBrief        Tone = "brief"
	ToneProfessional Tone = "professional"
)

// ParseTone maps a tone name to a Tone. Empty and unknown names are friendly.
func ParseTone(s string) Tone {
	switch t := Tone(strings.ToLower(strings.TrimSpace(s))); t {
	case ToneFormal, ToneBrief, ToneProfessional, ToneFriendly:
		return t
	default:
		return ToneFriendly
	}
}

// Qualitative lengths and their word targets.
const (
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"
)

var lengthWords = map[string]int{
	LengthShort:  80,
	LengthMedium: 150,
	LengthLong:   250,
}

// Length is either a word-count target or a qualitative size. The zero
// value is short.
type Length struct {
	Words int
	Size  string
}

// ParseLength accepts a qualitative size or a positive integer.
// Unrecognized values fall back to short.
func ParseLength(s string) Length {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return Length{Words: n}
	}
	if _, ok := lengthWords[s]; ok {
		return Length{Size: s}
	}
	return Length{Size: LengthShort}
}

// IsShort reports whether the length is the qualitative short size.
func (l Length) IsShort() bool {
	return l.Words == 0 && (l.Size == "" || l.Size == LengthShort)
}

// TargetWords is the word count the backend is asked to aim for.
func (l Length) TargetWords() int {
	if l.Words > 0 {
		return l.Words
	}
	if n, ok := lengthWords[l.Size]; ok {
		return n
	}
	return lengthWords[LengthShort]
}

// String renders the length the way it was given.
func (l Length) String() string {
	if l.Words > 0 {
		return strconv.Itoa(l.Words)
	}
	if l.Size == "" {
		return LengthShort
	}
	return l.Size
}

// MarshalJSON encodes a word target as a number and a size as a string.
func (l Length) MarshalJSON() ([]byte, error) {
	if l.Words > 0 {
		return json.Marshal(l.Words)
	}
	return json.Marshal(l.String())
}

// UnmarshalJSON accepts a number, a numeric string, or a size name.
func (l *Length) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = Length{Size: LengthShort}
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		if n < 1 {
			return fmt.Errorf("length must be positive, got %v", n)
		}
		*l = Length{Words: int(n)}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("length must be a number or a string: %w", err)
	}
	*l = ParseLength(s)
	return nil
}

// Controls are the style inputs of a draft.
type Controls struct {
	Tone    Tone   `json:"tone"`
	Length  Length `json:"length"`
	Bullets bool   `json:"bullets"`
}

// Normalize fills defaults and maps unknown values to their defaults.
func (c Controls) Normalize() Controls {
	c.Tone = ParseTone(string(c.Tone))
	if c.Length.Words <= 0 {
		c.Length = ParseLength(c.Length.Size)
	}
	return c
}
