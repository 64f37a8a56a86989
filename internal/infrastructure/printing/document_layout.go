package printing

import (
	"strings"

	"github.com/crm/backend/internal/infrastructure/printing/layout"
)

// LayoutFonts are the faces used to compose a document
type LayoutFonts struct {
	Regular layout.Font
	Bold    layout.Font
}

// LayoutTheme holds the sizes and colors of the composed document
type LayoutTheme struct {
	Accent      layout.Color
	Muted       layout.Color
	TitleSize   float64
	BodySize    float64
	SmallSize   float64
	LogoHeight  float64
	SectionGap  float64
	TotalsWidth float64
}

// DefaultLayoutTheme returns the standard document theme
func DefaultLayoutTheme() LayoutTheme {
	return LayoutTheme{
		Accent:      layout.Color{R: 30, G: 64, B: 175},
		Muted:       layout.Gray,
		TitleSize:   20,
		BodySize:    9,
		SmallSize:   8,
		LogoHeight:  48,
		SectionGap:  18,
		TotalsWidth: 220,
	}
}

// Frame is the printable area of a page in points
type Frame struct {
	Left   float64
	Right  float64
	Top    float64
	Bottom float64
}

// Width returns the printable width
func (f Frame) Width() float64 {
	return f.Right - f.Left
}

// DocumentLayout composes a document page from layout primitives only.
// Each section takes the cursor left by the previous one.
type DocumentLayout struct {
	Fonts LayoutFonts
	Theme LayoutTheme
	Frame Frame
	// LogoSize reports the drawn size of the logo at a given height;
	// nil means the logo is skipped
	LogoSize func(height float64) (float64, float64)
}

// Compose draws the whole document and returns the final cursor
func (l DocumentLayout) Compose(page layout.Page, data *DocumentData) layout.Cursor {
	cursor := layout.At(l.Frame.Top)
	cursor = l.drawHeader(page, data, cursor)
	cursor = l.drawParties(page, data, cursor.Down(l.Theme.SectionGap))
	cursor = layout.DrawTable(page, l.itemsTable(data), cursor.Down(l.Theme.SectionGap))
	cursor = l.drawTotals(page, data, cursor.Down(l.Theme.SectionGap/2))
	cursor = l.drawNotes(page, data, cursor.Down(l.Theme.SectionGap))
	l.drawFooter(page, data)
	return cursor
}

func (l DocumentLayout) text(bold bool, size float64, color layout.Color) layout.TextStyle {
	font := l.Fonts.Regular
	if bold {
		font = l.Fonts.Bold
	}
	return layout.TextStyle{Font: font, Size: size, Color: color}
}

// drawHeader places the logo on the left and the title with meta lines on the right
func (l DocumentLayout) drawHeader(page layout.Page, data *DocumentData, cursor layout.Cursor) layout.Cursor {
	left := cursor
	if data.Assets.HasLogo() && l.LogoSize != nil {
		w, h := l.LogoSize(l.Theme.LogoHeight)
		if w > 0 && h > 0 {
			page.DrawImage(layout.Image{Name: "logo", Type: data.Assets.LogoType, Data: data.Assets.Logo},
				layout.Rect{X: l.Frame.Left, Y: cursor.Y - h, Width: w, Height: h})
			left = cursor.Down(h)
		}
	} else if data.Seller.Name != "" {
		left = layout.DrawText(page, layout.TextBlock{
			Text:     data.Seller.Name,
			X:        l.Frame.Left,
			Y:        cursor.Y - l.Theme.TitleSize*0.8,
			Style:    l.text(true, 14, layout.Black),
			MaxWidth: l.Frame.Width() / 2,
		})
	}

	right := layout.DrawText(page, layout.TextBlock{
		Text:  data.Meta.Title,
		X:     l.Frame.Right,
		Y:     cursor.Y - l.Theme.TitleSize*0.8,
		Align: layout.AlignRight,
		Style: l.text(true, l.Theme.TitleSize, l.Theme.Accent),
	})

	meta := []string{data.Labels.Number + ": " + data.Meta.Number}
	if data.Meta.IssueDate != "" {
		meta = append(meta, data.Labels.Date+": "+data.Meta.IssueDate)
	}
	if data.Meta.DueDate != "" {
		meta = append(meta, data.Labels.DueDate+": "+data.Meta.DueDate)
	}
	if data.Meta.ValidUntil != "" {
		meta = append(meta, data.Labels.ValidUntil+": "+data.Meta.ValidUntil)
	}
	if data.Meta.Reference != "" {
		meta = append(meta, data.Labels.Reference+": "+data.Meta.Reference)
	}
	right = layout.DrawText(page, layout.TextBlock{
		Lines: meta,
		X:     l.Frame.Right,
		Y:     right.Y,
		Align: layout.AlignRight,
		Style: l.text(false, l.Theme.BodySize, layout.DarkGray),
	})

	return layout.Lowest(left, right)
}

// drawParty draws one address block and returns the cursor below it
func (l DocumentLayout) drawParty(page layout.Page, label string, p PartyInfo, vatLabel string, x, width float64, cursor layout.Cursor) layout.Cursor {
	c := layout.DrawText(page, layout.TextBlock{
		Text:  strings.ToUpper(label),
		X:     x,
		Y:     cursor.Y,
		Style: l.text(true, l.Theme.SmallSize, l.Theme.Muted),
	})
	c = layout.DrawText(page, layout.TextBlock{
		Text:     p.Name,
		X:        x,
		Y:        c.Y - 2,
		Style:    l.text(true, 11, layout.Black),
		MaxWidth: width,
	})
	var body []string
	for _, line := range p.Lines(vatLabel) {
		body = append(body, layout.WrapText(line, l.Fonts.Regular, l.Theme.BodySize, width)...)
	}
	return layout.DrawText(page, layout.TextBlock{
		Lines: body,
		X:     x,
		Y:     c.Y,
		Style: l.text(false, l.Theme.BodySize, layout.Black),
	})
}

// drawParties places seller and buyer side by side
func (l DocumentLayout) drawParties(page layout.Page, data *DocumentData, cursor layout.Cursor) layout.Cursor {
	col := l.Frame.Width() / 2
	seller := l.drawParty(page, data.Labels.Seller, data.Seller, data.Labels.VAT, l.Frame.Left, col-12, cursor)
	buyer := l.drawParty(page, data.Labels.Buyer, data.Buyer, data.Labels.VAT, l.Frame.Left+col, col-12, cursor)
	return layout.Lowest(seller, buyer)
}

// itemsTable builds the line item table to span the frame width
func (l DocumentLayout) itemsTable(data *DocumentData) layout.Table {
	qtyW, priceW, discW, amountW := 45.0, 80.0, 50.0, 85.0
	descW := l.Frame.Width() - qtyW - priceW - discW - amountW

	rows := make([][]string, len(data.Items))
	for i, item := range data.Items {
		rows[i] = []string{item.Description, item.Qty, item.UnitPrice, item.Discount, item.Amount}
	}

	style := layout.DefaultTableStyle()
	style.FontSize = l.Theme.BodySize
	style.EmptyText = data.Labels.NoItems

	return layout.Table{
		X: l.Frame.Left,
		Columns: []layout.Column{
			{Header: data.Labels.Description, Width: descW, Align: layout.AlignLeft, Wrap: true},
			{Header: data.Labels.Qty, Width: qtyW, Align: layout.AlignRight},
			{Header: data.Labels.UnitPrice, Width: priceW, Align: layout.AlignRight},
			{Header: data.Labels.Discount, Width: discW, Align: layout.AlignRight},
			{Header: data.Labels.Amount, Width: amountW, Align: layout.AlignRight},
		},
		Rows:    rows,
		Regular: l.Fonts.Regular,
		Bold:    l.Fonts.Bold,
		Style:   style,
	}
}

// drawTotals draws the right-aligned totals box below the table
func (l DocumentLayout) drawTotals(page layout.Page, data *DocumentData, cursor layout.Cursor) layout.Cursor {
	const (
		lineHeight = 16.0
		pad        = 8.0
	)
	width := l.Theme.TotalsWidth
	x := l.Frame.Right - width
	height := 3*lineHeight + 2*pad

	page.DrawRectangle(layout.Rect{X: x, Y: cursor.Y - height, Width: width, Height: height},
		layout.BoxStyle{Fill: layout.Stripe.Ptr(), Border: layout.LightGray.Ptr(), BorderWidth: 0.5})

	regular := l.text(false, l.Theme.BodySize, layout.Black)
	bold := l.text(true, l.Theme.BodySize+1, layout.Black)

	c := layout.At(cursor.Y - pad - l.Theme.BodySize)
	c = layout.LabelValue(page, data.Labels.Subtotal, data.Totals.Subtotal, x+pad, width-2*pad, c, regular, regular, lineHeight)
	c = layout.LabelValue(page, data.Labels.Tax, data.Totals.Tax, x+pad, width-2*pad, c, regular, regular, lineHeight)
	page.DrawLine(x+pad, c.Y+lineHeight-4, x+width-pad, c.Y+lineHeight-4, 0.5, layout.Gray)
	layout.LabelValue(page, data.Labels.Total, data.Totals.Total, x+pad, width-2*pad, c, bold, bold, lineHeight)

	return layout.Cursor{Y: cursor.Y - height, Lines: 3}
}

// drawNotes draws payment terms and free-text notes across the frame
func (l DocumentLayout) drawNotes(page layout.Page, data *DocumentData, cursor layout.Cursor) layout.Cursor {
	sections := []struct{ label, body string }{
		{data.Labels.Terms, data.Terms},
		{data.Labels.Notes, data.Notes},
	}
	for _, s := range sections {
		if s.body == "" {
			continue
		}
		cursor = layout.DrawText(page, layout.TextBlock{
			Text:  s.label,
			X:     l.Frame.Left,
			Y:     cursor.Y,
			Style: l.text(true, l.Theme.BodySize, layout.Black),
		})
		cursor = layout.DrawText(page, layout.TextBlock{
			Text:     s.body,
			X:        l.Frame.Left,
			Y:        cursor.Y,
			Style:    l.text(false, l.Theme.BodySize, layout.DarkGray),
			MaxWidth: l.Frame.Width(),
		}).Down(l.Theme.SectionGap / 2)
	}
	return cursor
}

// drawFooter prints the seller's contact line centered at the bottom
func (l DocumentLayout) drawFooter(page layout.Page, data *DocumentData) {
	var parts []string
	for _, p := range []string{data.Seller.Name, data.Seller.Email, data.Seller.Phone} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if data.Seller.VATNumber != "" {
		parts = append(parts, data.Labels.VAT+" "+data.Seller.VATNumber)
	}
	if len(parts) == 0 {
		return
	}
	page.DrawLine(l.Frame.Left, l.Frame.Bottom+14, l.Frame.Right, l.Frame.Bottom+14, 0.5, layout.LightGray)
	layout.DrawText(page, layout.TextBlock{
		Text:     strings.Join(parts, "  |  "),
		X:        l.Frame.Left + l.Frame.Width()/2,
		Y:        l.Frame.Bottom,
		Align:    layout.AlignCenter,
		Style:    l.text(false, l.Theme.SmallSize, l.Theme.Muted),
		MaxWidth: l.Frame.Width(),
	})
}
