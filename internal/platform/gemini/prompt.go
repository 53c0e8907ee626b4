package gemini

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"github.com/phrazzld/dsh-elg/internal/annotator"
)

//go:embed prompt.tmpl
var defaultPrompt string

// loadPromptTemplate parses the template at path, or the built-in prompt when path is empty.
func loadPromptTemplate(path string) (*template.Template, error) {
	content := defaultPrompt
	name := "default"
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				annotator.ErrInvalidConfig, path, err)
		}
		content = string(raw)
		name = path
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			annotator.ErrInvalidConfig, err)
	}
	return tmpl, nil
}

// renderPrompt executes tmpl with the text to annotate.
func renderPrompt(tmpl *template.Template, text string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, promptData{Text: text}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}
