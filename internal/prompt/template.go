// Package prompt renders the sectioned templates the agents complete with.
//
// A template is an ordered list of sections. A section renders only when
// every variable it references is present and non-empty, which is how
// optional inputs (context, feedback, summaries) drop out of a prompt
// without leaving dangling headers behind.
package prompt

import (
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// Section is one named block of a template.
type Section struct {
	Name     string
	Template string
}

// Template is an ordered set of sections. The first section is treated as
// the system prompt by RenderSystemUser.
type Template struct {
	Sections []Section
}

// Vars maps placeholder names to their values.
type Vars map[string]string

// Render substitutes vars into every renderable section and joins them.
func (t Template) Render(vars Vars) string {
	parts := make([]string, 0, len(t.Sections))
	for _, sec := range t.Sections {
		if rendered, ok := renderSection(sec, vars); ok {
			parts = append(parts, rendered)
		}
	}
	return strings.Join(parts, "\n\n")
}

// RenderSystemUser renders the first section as the system prompt and the
// remainder as the user prompt.
func (t Template) RenderSystemUser(vars Vars) (system, user string) {
	if len(t.Sections) == 0 {
		return "", ""
	}
	if rendered, ok := renderSection(t.Sections[0], vars); ok {
		system = rendered
	}
	rest := Template{Sections: t.Sections[1:]}
	return system, rest.Render(vars)
}

// renderSection substitutes placeholders, reporting false when any
// referenced variable is missing or empty.
func renderSection(sec Section, vars Vars) (string, bool) {
	for _, match := range placeholderRe.FindAllStringSubmatch(sec.Template, -1) {
		if strings.TrimSpace(vars[match[1]]) == "" {
			return "", false
		}
	}
	out := placeholderRe.ReplaceAllStringFunc(sec.Template, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		return vars[name]
	})
	return strings.TrimSpace(out), true
}
