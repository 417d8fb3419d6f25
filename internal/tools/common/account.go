package common

import (
	"strings"

	"github.com/teemow/inboxreply/internal/jobs"
)

// ProjectFromArgs returns the "projectId" argument, or the default project.
func ProjectFromArgs(args map[string]interface{}) string {
	if v, ok := args["projectId"].(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return jobs.DefaultProjectID
}

// StringArg returns a string argument or "".
func StringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

// BoolArg returns a boolean argument or false.
func BoolArg(args map[string]interface{}, key string) bool {
	v, _ := args[key].(bool)
	return v
}

// IntArg returns a numeric argument. JSON numbers arrive as float64.
func IntArg(args map[string]interface{}, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}
