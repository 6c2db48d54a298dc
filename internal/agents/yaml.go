// Package agents implements the agents the salience loop is built from:
// task creation, summarization, execution, status grading and action
// selection.
package agents

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// unmarshalCompletion parses YAML out of an LLM completion, tolerating
// fenced code blocks around the document.
func unmarshalCompletion(completion string, out any) error {
	return yaml.Unmarshal([]byte(stripFences(completion)), out)
}

// stripFences removes a surrounding ``` or ```yaml fence if present.
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if i := strings.IndexByte(trimmed, '\n'); i >= 0 {
		trimmed = trimmed[i+1:] // drop the language tag line
	}
	if i := strings.LastIndex(trimmed, "```"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return strings.TrimSpace(trimmed)
}
