package printing

import (
	"context"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/printing"
	"github.com/crm/backend/internal/infrastructure/printing/layout"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/zap"
)

var (
	componentText   = colorProp(layout.DarkGray)
	componentMuted  = colorProp(layout.Gray)
	componentRule   = colorProp(layout.LightGray)
	componentStripe = colorProp(layout.Stripe)
	componentWhite  = colorProp(layout.White)
)

const (
	componentBodySize  = 9.0
	componentSmallSize = 8.0
	componentLineMM    = 4.2
	// maroto lays columns on a 12 unit grid
	componentGrid     = 12
	componentDescCols = 5
	componentCellTop  = 1.5
	componentCellLeft = 1.0
)

// componentMetrics sizes wrapped rows for one page setup. Line counts come
// from layout.WrapText with the Helvetica metrics maroto draws with; row
// heights are in mm.
type componentMetrics struct {
	font         layout.Font
	contentWidth float64 // pt
	itemStyle    layout.TableStyle
	noteStyle    layout.TableStyle
}

func newComponentMetrics(opts printing.Options) componentMetrics {
	width, _ := opts.PaperSize.Points(opts.Orientation)
	_, right, _, left := opts.Margins.Points()
	return componentMetrics{
		font:         newCoreFont(""),
		contentWidth: width - left - right,
		itemStyle: layout.TableStyle{
			FontSize:      componentBodySize,
			BaseRowHeight: 7,
			LineSpacing:   componentLineMM,
			Padding:       2 * componentCellTop,
		},
		noteStyle: layout.TableStyle{
			FontSize:      componentBodySize,
			BaseRowHeight: componentLineMM,
			LineSpacing:   componentLineMM,
		},
	}
}

// textWidth is the room text has in a span of grid columns, less the cell
// inset on both sides
func (m componentMetrics) textWidth(cols int) float64 {
	return m.contentWidth*float64(cols)/componentGrid - 2*printing.MMToPoints(componentCellLeft)
}

func (m componentMetrics) lines(text string, cols int) int {
	return len(layout.WrapText(text, m.font, componentBodySize, m.textWidth(cols)))
}

// itemRowHeight is the height of a line item row, which grows with its
// wrapped description
func (m componentMetrics) itemRowHeight(description string) float64 {
	return layout.RowHeight(max(1, m.lines(description, componentDescCols)), m.itemStyle)
}

// noteRowHeight is the height of one paragraph of full-width text
func (m componentMetrics) noteRowHeight(paragraph string) float64 {
	return layout.RowHeight(m.lines(paragraph, componentGrid), m.noteStyle)
}

// ComponentRenderer builds documents as a maroto row/column tree
type ComponentRenderer struct {
	accent *props.Color
	logger *zap.Logger
}

// NewComponentRenderer creates the component-tree backend
func NewComponentRenderer(logger *zap.Logger) *ComponentRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComponentRenderer{
		accent: colorProp(DefaultLayoutTheme().Accent),
		logger: logger,
	}
}

// Backend implements DocumentRenderer
func (r *ComponentRenderer) Backend() printing.Backend {
	return printing.BackendComponent
}

// RenderDocument implements DocumentRenderer
func (r *ComponentRenderer) RenderDocument(ctx context.Context, data *DocumentData, opts printing.Options) (*RenderResult, error) {
	if data == nil {
		return nil, NewRenderError(ErrCodeInvalidDocument, "document data is nil", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeRenderTimeout, "render cancelled", err)
	}
	opts = opts.Normalize()
	start := time.Now()

	pdf, err := r.generate(data, opts, data.Assets)
	if err != nil && data.Assets.HasLogo() {
		r.logger.Warn("Component render failed with logo, retrying without", zap.Error(err))
		pdf, err = r.generate(data, opts, nil)
	}
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "component rendering failed", err)
	}

	return &RenderResult{
		PDFData:        pdf,
		PageCount:      estimatePageCount(pdf),
		RenderDuration: time.Since(start),
		Backend:        printing.BackendComponent,
	}, nil
}

func (r *ComponentRenderer) generate(data *DocumentData, opts printing.Options, assets *RenderAssets) ([]byte, error) {
	m := maroto.New(r.config(data, opts))
	metrics := newComponentMetrics(opts)

	m.AddRows(r.headerRows(data, assets)...)
	m.AddRows(r.partyRows(data)...)
	m.AddRows(r.itemRows(data, metrics)...)
	m.AddRows(r.totalRows(data)...)
	m.AddRows(r.noteRows(data, metrics)...)
	m.AddRows(r.footerRows(data)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func (r *ComponentRenderer) config(data *DocumentData, opts printing.Options) *entity.Config {
	size := pagesize.A4
	switch opts.PaperSize {
	case printing.PaperSizeA5:
		size = pagesize.A5
	case printing.PaperSizeLetter:
		size = pagesize.Letter
	}
	orient := orientation.Vertical
	if opts.Orientation == printing.OrientationLandscape {
		orient = orientation.Horizontal
	}

	return config.NewBuilder().
		WithPageSize(size).
		WithOrientation(orient).
		WithLeftMargin(float64(opts.Margins.Left)).
		WithTopMargin(float64(opts.Margins.Top)).
		WithRightMargin(float64(opts.Margins.Right)).
		WithBottomMargin(float64(opts.Margins.Bottom)).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: componentBodySize}).
		WithTitle(strings.TrimSpace(data.Meta.Title+" "+data.Meta.Number), true).
		WithAuthor(data.Seller.Name, true).
		Build()
}

func (r *ComponentRenderer) headerRows(data *DocumentData, assets *RenderAssets) []core.Row {
	brand := col.New(6)
	if assets.HasLogo() {
		brand.Add(image.NewFromBytes(assets.Logo, logoExtension(assets.LogoType), props.Rect{
			Percent: 90,
		}))
	} else {
		brand.Add(text.New(data.Seller.Name, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Color: componentText,
		}))
	}

	title := col.New(6).Add(
		text.New(data.Meta.Title, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Right,
			Color: r.accent,
		}),
	)

	rows := []core.Row{row.New(18).Add(brand, title)}
	for _, kv := range metaPairs(data) {
		rows = append(rows, row.New(5).Add(
			col.New(8),
			text.NewCol(2, kv[0], props.Text{Size: componentSmallSize, Color: componentMuted, Align: align.Right}),
			text.NewCol(2, kv[1], props.Text{Size: componentSmallSize, Style: fontstyle.Bold, Align: align.Right, Color: componentText}),
		))
	}
	rows = append(rows, row.New(6))
	return rows
}

func metaPairs(data *DocumentData) [][2]string {
	pairs := [][2]string{}
	if data.Meta.Number != "" {
		pairs = append(pairs, [2]string{data.Labels.Number, data.Meta.Number})
	}
	if data.Meta.IssueDate != "" {
		pairs = append(pairs, [2]string{data.Labels.Date, data.Meta.IssueDate})
	}
	if data.Meta.DueDate != "" {
		pairs = append(pairs, [2]string{data.Labels.DueDate, data.Meta.DueDate})
	}
	if data.Meta.ValidUntil != "" {
		pairs = append(pairs, [2]string{data.Labels.ValidUntil, data.Meta.ValidUntil})
	}
	if data.Meta.Reference != "" {
		pairs = append(pairs, [2]string{data.Labels.Reference, data.Meta.Reference})
	}
	return pairs
}

func (r *ComponentRenderer) partyRows(data *DocumentData) []core.Row {
	seller := data.Seller.Lines(data.Labels.VAT)
	buyer := data.Buyer.Lines(data.Labels.VAT)

	rows := []core.Row{
		row.New(5).Add(
			text.NewCol(6, strings.ToUpper(data.Labels.Seller), props.Text{Size: componentSmallSize, Style: fontstyle.Bold, Color: componentMuted}),
			text.NewCol(6, strings.ToUpper(data.Labels.Buyer), props.Text{Size: componentSmallSize, Style: fontstyle.Bold, Color: componentMuted}),
		),
		row.New(6).Add(
			text.NewCol(6, data.Seller.Name, props.Text{Size: 10, Style: fontstyle.Bold, Color: componentText}),
			text.NewCol(6, data.Buyer.Name, props.Text{Size: 10, Style: fontstyle.Bold, Color: componentText}),
		),
	}

	n := max(len(seller), len(buyer))
	for i := 0; i < n; i++ {
		rows = append(rows, row.New(componentLineMM+0.4).Add(
			text.NewCol(6, lineAt(seller, i), props.Text{Size: componentBodySize, Color: componentText}),
			text.NewCol(6, lineAt(buyer, i), props.Text{Size: componentBodySize, Color: componentText}),
		))
	}
	return append(rows, row.New(8))
}

func lineAt(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}

func (r *ComponentRenderer) itemRows(data *DocumentData, metrics componentMetrics) []core.Row {
	head := props.Text{Size: componentSmallSize, Style: fontstyle.Bold, Color: componentWhite, Top: 2, Left: 1}
	headRight := head
	headRight.Align = align.Right
	headRight.Right = 1

	rows := []core.Row{
		row.New(7).Add(
			text.NewCol(5, data.Labels.Description, head),
			text.NewCol(1, data.Labels.Qty, headRight),
			text.NewCol(2, data.Labels.UnitPrice, headRight),
			text.NewCol(1, data.Labels.Discount, headRight),
			text.NewCol(3, data.Labels.Amount, headRight),
		).WithStyle(&props.Cell{BackgroundColor: r.accent}),
	}

	if len(data.Items) == 0 {
		rows = append(rows, row.New(7).Add(
			text.NewCol(12, data.Labels.NoItems, props.Text{Size: componentBodySize, Color: componentMuted, Top: 1.5, Left: 1}),
		))
		return append(rows, line.NewRow(1, props.Line{Color: componentRule, Thickness: 0.3}))
	}

	for i, item := range data.Items {
		cell := props.Text{Size: componentBodySize, Color: componentText, Top: componentCellTop, Left: componentCellLeft}
		right := cell
		right.Align = align.Right
		right.Right = 1

		tr := row.New(metrics.itemRowHeight(item.Description)).Add(
			text.NewCol(componentDescCols, item.Description, cell),
			text.NewCol(1, item.Qty, right),
			text.NewCol(2, item.UnitPrice, right),
			text.NewCol(1, item.Discount, right),
			text.NewCol(3, item.Amount, right),
		)
		if i%2 == 1 {
			tr.WithStyle(&props.Cell{BackgroundColor: componentStripe})
		}
		rows = append(rows, tr)
	}
	return append(rows, line.NewRow(1, props.Line{Color: componentRule, Thickness: 0.3}))
}

func (r *ComponentRenderer) totalRows(data *DocumentData) []core.Row {
	label := props.Text{Size: componentBodySize, Color: componentMuted, Align: align.Right, Top: 1}
	value := props.Text{Size: componentBodySize, Color: componentText, Align: align.Right, Top: 1, Right: 1}
	bold := props.Text{Size: 11, Style: fontstyle.Bold, Color: r.accent, Align: align.Right, Top: 1.5, Right: 1}

	return []core.Row{
		row.New(3),
		row.New(6).Add(col.New(6), text.NewCol(3, data.Labels.Subtotal, label), text.NewCol(3, data.Totals.Subtotal, value)),
		row.New(6).Add(col.New(6), text.NewCol(3, data.Labels.Tax, label), text.NewCol(3, data.Totals.Tax, value)),
		row.New(1).Add(col.New(6), line.NewCol(6, props.Line{Color: componentRule, Thickness: 0.3})),
		row.New(8).Add(col.New(6), text.NewCol(3, data.Labels.Total, label), text.NewCol(3, data.Totals.Total, bold)),
		row.New(6),
	}
}

func (r *ComponentRenderer) noteRows(data *DocumentData, metrics componentMetrics) []core.Row {
	var rows []core.Row
	add := func(label, body string) {
		if body == "" {
			return
		}
		rows = append(rows, row.New(6).Add(
			text.NewCol(12, label, props.Text{Size: componentSmallSize, Style: fontstyle.Bold, Color: componentMuted}),
		))
		for _, part := range strings.Split(body, "\n") {
			rows = append(rows, row.New(metrics.noteRowHeight(part)).Add(
				text.NewCol(componentGrid, part, props.Text{Size: componentBodySize, Color: componentText}),
			))
		}
		rows = append(rows, row.New(4))
	}
	add(data.Labels.Terms, data.Terms)
	add(data.Labels.Notes, data.Notes)
	return rows
}

func (r *ComponentRenderer) footerRows(data *DocumentData) []core.Row {
	parts := []string{data.Seller.Name}
	if data.Seller.VATNumber != "" {
		parts = append(parts, data.Labels.VAT+" "+data.Seller.VATNumber)
	}
	if data.Seller.Email != "" {
		parts = append(parts, data.Seller.Email)
	}
	return []core.Row{
		line.NewRow(2, props.Line{Color: componentRule, Thickness: 0.3}),
		row.New(5).Add(
			text.NewCol(12, strings.Join(parts, "  ·  "), props.Text{Size: 7, Color: componentMuted, Align: align.Center}),
		),
	}
}

func logoExtension(kind string) extension.Type {
	if kind == "JPG" {
		return extension.Jpg
	}
	return extension.Png
}

func colorProp(c layout.Color) *props.Color {
	return &props.Color{Red: int(c.R), Green: int(c.G), Blue: int(c.B)}
}

var _ DocumentRenderer = (*ComponentRenderer)(nil)
