package layout

import "math"

// Column is one table column. Widths are in points; X offsets are derived
// from the table origin and the widths of the preceding columns.
type Column struct {
	Header string
	Width  float64
	Align  Align
	Wrap   bool
}

// TableStyle holds the sizing and colors of a table
type TableStyle struct {
	FontSize      float64
	HeaderHeight  float64
	BaseRowHeight float64
	LineSpacing   float64
	Padding       float64 // vertical padding added to wrapped rows
	CellPadding   float64 // horizontal inset inside each cell
	HeaderFill    Color
	HeaderText    Color
	Text          Color
	StripeFill    Color
	RuleColor     Color
	EmptyText     string
}

// DefaultTableStyle returns the style used for document line items
func DefaultTableStyle() TableStyle {
	return TableStyle{
		FontSize:      9,
		HeaderHeight:  20,
		BaseRowHeight: 20,
		LineSpacing:   11,
		Padding:       9,
		CellPadding:   5,
		HeaderFill:    LightGray,
		HeaderText:    Black,
		Text:          Black,
		StripeFill:    Stripe,
		RuleColor:     LightGray,
		EmptyText:     "Ingen linjer",
	}
}

// Table is a header plus body rows of pre-formatted cell strings
type Table struct {
	X       float64
	Columns []Column
	Rows    [][]string
	Regular Font
	Bold    Font
	Style   TableStyle
}

// RowPlan is the computed geometry of one body row
type RowPlan struct {
	Top    float64
	Height float64
	Lines  int
	Cells  [][]string
	Stripe bool
}

// TablePlan is the computed geometry of a whole table
type TablePlan struct {
	HeaderTop float64
	Rows      []RowPlan
	Empty     bool
	Bottom    float64
}

// RowHeight returns max(base, lines*lineSpacing + padding)
func RowHeight(lines int, style TableStyle) float64 {
	return math.Max(style.BaseRowHeight, float64(lines)*style.LineSpacing+style.Padding)
}

// Width returns the sum of the column widths
func (t Table) Width() float64 {
	var w float64
	for _, c := range t.Columns {
		w += c.Width
	}
	return w
}

// ColumnX returns the left edge of column i
func (t Table) ColumnX(i int) float64 {
	x := t.X
	for j := 0; j < i && j < len(t.Columns); j++ {
		x += t.Columns[j].Width
	}
	return x
}

// cellLines wraps a cell when its column wraps, otherwise keeps one line
func (t Table) cellLines(col int, text string) []string {
	c := t.Columns[col]
	if !c.Wrap {
		if text == "" {
			return nil
		}
		return []string{text}
	}
	return WrapText(text, t.Regular, t.Style.FontSize, c.Width-2*t.Style.CellPadding)
}

// Plan computes the table geometry starting with the header top at top.
// It does not draw.
func (t Table) Plan(top float64) TablePlan {
	plan := TablePlan{HeaderTop: top}
	y := top - t.Style.HeaderHeight

	if len(t.Rows) == 0 {
		plan.Empty = true
		plan.Rows = []RowPlan{{Top: y, Height: t.Style.BaseRowHeight, Lines: 1}}
		plan.Bottom = y - t.Style.BaseRowHeight
		return plan
	}

	plan.Rows = make([]RowPlan, 0, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([][]string, len(t.Columns))
		maxLines := 1
		for col := range t.Columns {
			if col >= len(row) {
				continue
			}
			cells[col] = t.cellLines(col, row[col])
			if n := len(cells[col]); n > maxLines {
				maxLines = n
			}
		}
		h := RowHeight(maxLines, t.Style)
		plan.Rows = append(plan.Rows, RowPlan{
			Top:    y,
			Height: h,
			Lines:  maxLines,
			Cells:  cells,
			Stripe: i%2 == 1,
		})
		y -= h
	}
	plan.Bottom = y
	return plan
}

// anchorX returns the text anchor for column i given its alignment
func (t Table) anchorX(i int) float64 {
	c := t.Columns[i]
	x := t.ColumnX(i)
	switch c.Align {
	case AlignRight:
		return x + c.Width - t.Style.CellPadding
	case AlignCenter:
		return x + c.Width/2
	default:
		return x + t.Style.CellPadding
	}
}

// firstBaseline places the first text line inside a box whose top is top
func (t Table) firstBaseline(top, height float64, lines int) float64 {
	if lines <= 1 {
		return top - height/2 - t.Style.FontSize*0.35
	}
	return top - t.Style.Padding/2 - t.Style.FontSize*0.8
}

// DrawTable draws the header, body rows and rules starting at cursor.Y
// (the top edge of the header) and returns the cursor at the table bottom.
// Lines on the returned cursor counts the body rows drawn.
func DrawTable(page Page, t Table, cursor Cursor) Cursor {
	plan := t.Plan(cursor.Y)
	width := t.Width()
	st := t.Style

	page.DrawRectangle(Rect{X: t.X, Y: plan.HeaderTop - st.HeaderHeight, Width: width, Height: st.HeaderHeight},
		BoxStyle{Fill: st.HeaderFill.Ptr()})
	headerStyle := TextStyle{Font: t.Bold, Size: st.FontSize, Color: st.HeaderText}
	for i, c := range t.Columns {
		DrawText(page, TextBlock{
			Text:  c.Header,
			X:     t.anchorX(i),
			Y:     t.firstBaseline(plan.HeaderTop, st.HeaderHeight, 1),
			Align: c.Align,
			Style: headerStyle,
		})
	}

	bodyStyle := TextStyle{Font: t.Regular, Size: st.FontSize, Color: st.Text}
	if plan.Empty {
		r := plan.Rows[0]
		DrawText(page, TextBlock{
			Text:  st.EmptyText,
			X:     t.X + width/2,
			Y:     t.firstBaseline(r.Top, r.Height, 1),
			Align: AlignCenter,
			Style: TextStyle{Font: t.Regular, Size: st.FontSize, Color: Gray},
		})
		page.DrawLine(t.X, plan.Bottom, t.X+width, plan.Bottom, 0.5, st.RuleColor)
		return Cursor{Y: plan.Bottom, Lines: 0}
	}

	for _, r := range plan.Rows {
		if r.Stripe {
			page.DrawRectangle(Rect{X: t.X, Y: r.Top - r.Height, Width: width, Height: r.Height},
				BoxStyle{Fill: st.StripeFill.Ptr()})
		}
		for col, lines := range r.Cells {
			if len(lines) == 0 {
				continue
			}
			DrawText(page, TextBlock{
				Lines:      lines,
				X:          t.anchorX(col),
				Y:          t.firstBaseline(r.Top, r.Height, r.Lines),
				Align:      t.Columns[col].Align,
				Style:      bodyStyle,
				LineHeight: st.LineSpacing,
			})
		}
		bottom := r.Top - r.Height
		page.DrawLine(t.X, bottom, t.X+width, bottom, 0.5, st.RuleColor)
	}
	return Cursor{Y: plan.Bottom, Lines: len(plan.Rows)}
}
