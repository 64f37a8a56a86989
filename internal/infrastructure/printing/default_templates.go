package printing

import (
	"embed"
	"fmt"

	"github.com/crm/backend/internal/domain/document"
)

//go:embed templates/*.html
var templateFS embed.FS

const defaultTemplatePath = "templates/document.html"

// TemplateSource resolves the HTML template for a document type
type TemplateSource interface {
	Template(docType document.DocType) (name, content string, err error)
}

// EmbeddedTemplates serves the built-in template for every document type
type EmbeddedTemplates struct {
	overrides map[document.DocType]string
}

// NewEmbeddedTemplates creates the built-in template source. overrides maps
// a document type to another file inside the embedded templates directory.
func NewEmbeddedTemplates(overrides map[document.DocType]string) *EmbeddedTemplates {
	return &EmbeddedTemplates{overrides: overrides}
}

// Template implements TemplateSource
func (t *EmbeddedTemplates) Template(docType document.DocType) (string, string, error) {
	path := defaultTemplatePath
	if p, ok := t.overrides[docType]; ok {
		path = p
	}
	content, err := templateFS.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read template %s: %w", path, err)
	}
	return path, string(content), nil
}

// ListTemplateFiles returns the embedded template file names
func ListTemplateFiles() ([]string, error) {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, "templates/"+e.Name())
		}
	}
	return files, nil
}
