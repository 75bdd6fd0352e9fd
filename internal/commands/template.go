package commands

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// templateFuncs provides utility functions for templates.
var templateFuncs = sprig.TxtFuncMap()

// TemplateData is what command config templates can see.
type TemplateData struct {
	Actor string
	Room  string
	Args  []string
	// Rest is every argument joined with spaces.
	Rest string
}

// ExpandTemplate expands a template string using the provided data.
// The data can be any struct - templates access fields via {{ .FieldName }}.
func ExpandTemplate(tmplStr string, data any) (string, error) {
	// Quick check: if no template markers, return as-is
	if !strings.Contains(tmplStr, "{{") {
		return tmplStr, nil
	}

	tmpl, err := template.New("").Funcs(templateFuncs).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}

// expandConfig expands every string value of config. Non-string values are
// rendered with fmt.
func expandConfig(config map[string]any, data *TemplateData) (map[string]string, error) {
	out := make(map[string]string, len(config))
	for k, v := range config {
		s, ok := v.(string)
		if !ok {
			out[k] = fmt.Sprint(v)
			continue
		}
		expanded, err := ExpandTemplate(s, data)
		if err != nil {
			return nil, fmt.Errorf("config %q: %w", k, err)
		}
		out[k] = expanded
	}
	return out, nil
}

// checkTemplate reports whether tmplStr parses.
func checkTemplate(tmplStr string) error {
	if _, err := template.New("").Funcs(templateFuncs).Parse(tmplStr); err != nil {
		return fmt.Errorf("parsing template: %w", err)
	}
	return nil
}
