package printing

import (
	"context"
	"time"

	"github.com/crm/backend/internal/domain/printing"
	"go.uber.org/zap"
)

// LayoutRenderer draws documents by hand with gofpdf
type LayoutRenderer struct {
	theme  LayoutTheme
	logger *zap.Logger
}

// NewLayoutRenderer creates the manual-drawing backend
func NewLayoutRenderer(logger *zap.Logger) *LayoutRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LayoutRenderer{theme: DefaultLayoutTheme(), logger: logger}
}

// Backend implements DocumentRenderer
func (r *LayoutRenderer) Backend() printing.Backend {
	return printing.BackendLayout
}

// RenderDocument implements DocumentRenderer. If the PDF cannot be written
// with the fetched logo or font, it is drawn again without them.
func (r *LayoutRenderer) RenderDocument(ctx context.Context, data *DocumentData, opts printing.Options) (*RenderResult, error) {
	if data == nil {
		return nil, NewRenderError(ErrCodeInvalidDocument, "document data is nil", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeRenderTimeout, "render cancelled", err)
	}
	opts = opts.Normalize()
	start := time.Now()

	pdf, err := r.draw(data, opts, data.Assets)
	if err != nil && (data.Assets.HasLogo() || data.Assets.HasFont()) {
		r.logger.Warn("Layout render failed with assets, retrying with defaults", zap.Error(err))
		pdf, err = r.draw(data, opts, nil)
	}
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "layout rendering failed", err)
	}

	return &RenderResult{
		PDFData:        pdf,
		PageCount:      1,
		RenderDuration: time.Since(start),
		Backend:        printing.BackendLayout,
	}, nil
}

func (r *LayoutRenderer) draw(data *DocumentData, opts printing.Options, assets *RenderAssets) ([]byte, error) {
	width, height := opts.PaperSize.Points(opts.Orientation)

	var fontData, boldData []byte
	if assets.HasFont() {
		fontData, boldData = assets.Font, assets.BoldFont
	}
	page, fonts := newFpdfDocument(width, height, fontData, boldData)
	if assets.HasFont() && !fonts.Custom {
		r.logger.Warn("Custom font could not be loaded, using Helvetica")
	}
	page.SetMetadata(data.Meta.Title+" "+data.Meta.Number, data.Meta.Title, data.Seller.Name)

	top, right, bottom, left := opts.Margins.Points()
	doc := DocumentLayout{
		Fonts: LayoutFonts{Regular: fonts.Regular, Bold: fonts.Bold},
		Theme: r.theme,
		Frame: Frame{Left: left, Right: width - right, Top: height - top, Bottom: bottom},
	}

	view := *data
	view.Assets = assets
	if assets.HasLogo() {
		if pw, ph, ok := ImageDimensions(assets.Logo); ok {
			doc.LogoSize = func(h float64) (float64, float64) {
				return float64(pw) * h / float64(ph), h
			}
		}
	}

	doc.Compose(page, &view)
	return page.Bytes()
}

var _ DocumentRenderer = (*LayoutRenderer)(nil)
