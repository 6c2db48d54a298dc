package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain document", "status: completed", "status: completed"},
		{"yaml fence", "```yaml\nstatus: completed\n```", "status: completed"},
		{"bare fence", "```\nstatus: completed\n```", "status: completed"},
		{"surrounding whitespace", "\n\n```yaml\nstatus: completed\n```\n", "status: completed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}

func TestUnmarshalCompletion(t *testing.T) {
	var parsed struct {
		Status string `yaml:"status"`
	}
	require.NoError(t, unmarshalCompletion("```yaml\nstatus: completed\n```", &parsed))
	assert.Equal(t, "completed", parsed.Status)
}
