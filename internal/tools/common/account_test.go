package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectFromArgs(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{name: "missing", args: map[string]interface{}{}, want: "default"},
		{name: "blank", args: map[string]interface{}{"projectId": "  "}, want: "default"},
		{name: "wrong type", args: map[string]interface{}{"projectId": 3.0}, want: "default"},
		{name: "set", args: map[string]interface{}{"projectId": " acme "}, want: "acme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProjectFromArgs(tt.args))
		})
	}
}

func TestArgs(t *testing.T) {
	args := map[string]interface{}{"n": 5.0, "i": 7, "b": true, "s": "x"}

	assert.Equal(t, 5, IntArg(args, "n", 1))
	assert.Equal(t, 7, IntArg(args, "i", 1))
	assert.Equal(t, 1, IntArg(args, "missing", 1))
	assert.True(t, BoolArg(args, "b"))
	assert.False(t, BoolArg(args, "s"))
	assert.Equal(t, "x", StringArg(args, "s"))
	assert.Equal(t, "", StringArg(args, "b"))
}
