package printing

import (
	"context"
	"fmt"

	"github.com/crm/backend/internal/domain/printing"
	"go.uber.org/zap"
)

// HTMLRenderer executes the document template and prints it with a PDFRenderer
type HTMLRenderer struct {
	engine    *TemplateEngine
	templates TemplateSource
	pdf       PDFRenderer
	logger    *zap.Logger
}

// NewHTMLRenderer creates the HTML backend. pdf may be nil when only
// previews are needed.
func NewHTMLRenderer(engine *TemplateEngine, templates TemplateSource, pdf PDFRenderer, logger *zap.Logger) *HTMLRenderer {
	if engine == nil {
		engine = NewTemplateEngine()
	}
	if templates == nil {
		templates = NewEmbeddedTemplates(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTMLRenderer{engine: engine, templates: templates, pdf: pdf, logger: logger}
}

// Backend implements DocumentRenderer
func (r *HTMLRenderer) Backend() printing.Backend {
	return printing.BackendHTML
}

// RenderHTML executes the template for the document type
func (r *HTMLRenderer) RenderHTML(ctx context.Context, data *DocumentData) (string, error) {
	if data == nil {
		return "", NewRenderError(ErrCodeInvalidDocument, "document data is nil", nil)
	}
	if data.Assets == nil {
		view := *data
		view.Assets = &RenderAssets{}
		data = &view
	}
	name, content, err := r.templates.Template(data.Meta.DocType)
	if err != nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "template not available", err)
	}
	return r.engine.RenderString(ctx, name, content, data)
}

// RenderDocument implements DocumentRenderer
func (r *HTMLRenderer) RenderDocument(ctx context.Context, data *DocumentData, opts printing.Options) (*RenderResult, error) {
	if r.pdf == nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "no HTML to PDF printer configured", nil)
	}
	opts = opts.Normalize()

	html, err := r.RenderHTML(ctx, data)
	if err != nil {
		return nil, err
	}

	result, err := r.pdf.Render(ctx, &RenderRequest{
		HTML:        html,
		PaperSize:   opts.PaperSize,
		Orientation: opts.Orientation,
		Margins:     opts.Margins,
		Title:       data.Meta.Title + " " + data.Meta.Number,
		FooterHTML:  pageFooter(data.Labels.Page),
	})
	if err != nil {
		r.logger.Warn("HTML backend failed to print document",
			zap.String("number", data.Meta.Number),
			zap.Error(err))
		return nil, err
	}
	result.Backend = printing.BackendHTML
	return result, nil
}

// pageFooter is Chrome's footer template with page numbers
func pageFooter(label string) string {
	return fmt.Sprintf(`<div style="font-size:8px;width:100%%;text-align:center;color:#808080;">%s <span class="pageNumber"></span> / <span class="totalPages"></span></div>`, label)
}

var _ DocumentRenderer = (*HTMLRenderer)(nil)
