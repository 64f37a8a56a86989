package layout

import (
	"math"
	"strings"
)

// Align is the horizontal alignment of a text block relative to its anchor
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// TextBlock is a request to place text at an anchor point.
// When Lines is set it is used verbatim; otherwise Text is split on
// newlines and, if MaxWidth > 0, each paragraph is word-wrapped.
type TextBlock struct {
	Text       string
	Lines      []string
	X          float64
	Y          float64
	Align      Align
	Style      TextStyle
	LineHeight float64
	MaxWidth   float64
}

// RenderedLine is one line of a laid-out block with its draw origin
type RenderedLine struct {
	Text  string
	X     float64
	Y     float64
	Width float64
}

// Cursor is the vertical layout position threaded between drawing calls.
// Y is the next free baseline; Lines counts the lines placed by the call
// that produced it.
type Cursor struct {
	Y     float64
	Lines int
}

// At returns a cursor positioned at y
func At(y float64) Cursor {
	return Cursor{Y: y}
}

// Down returns a cursor moved down by dy points
func (c Cursor) Down(dy float64) Cursor {
	return Cursor{Y: c.Y - dy, Lines: c.Lines}
}

// Lowest returns whichever cursor sits lower on the page
func Lowest(a, b Cursor) Cursor {
	if b.Y < a.Y {
		return b
	}
	return a
}

// DefaultLineHeight is round(size * 1.2)
func DefaultLineHeight(size float64) float64 {
	return math.Round(size * 1.2)
}

// AlignX returns the draw origin for a line of the given width
func AlignX(x, width float64, align Align) float64 {
	switch align {
	case AlignCenter:
		return x - width/2
	case AlignRight:
		return x - width
	default:
		return x
	}
}

// blockLines resolves the lines a block will draw
func blockLines(b TextBlock) []string {
	if b.Lines != nil {
		return b.Lines
	}
	if strings.TrimSpace(b.Text) == "" {
		return nil
	}

	var lines []string
	for _, para := range strings.Split(b.Text, "\n") {
		if b.MaxWidth > 0 {
			wrapped := WrapText(para, b.Style.Font, b.Style.Size, b.MaxWidth)
			if len(wrapped) == 0 {
				wrapped = []string{""}
			}
			lines = append(lines, wrapped...)
			continue
		}
		lines = append(lines, strings.TrimRight(para, " \t\r"))
	}
	return lines
}

// LayoutText computes where each line of a block is drawn without drawing
// anything. The first line sits on b.Y and each following line is
// LineHeight lower. The returned cursor is one line height below the last
// line, or at b.Y when there is nothing to draw.
func LayoutText(b TextBlock) ([]RenderedLine, Cursor) {
	lineHeight := b.LineHeight
	if lineHeight <= 0 {
		lineHeight = DefaultLineHeight(b.Style.Size)
	}

	lines := blockLines(b)
	out := make([]RenderedLine, 0, len(lines))
	y := b.Y
	for _, line := range lines {
		width := b.Style.Font.WidthOfTextAtSize(line, b.Style.Size)
		out = append(out, RenderedLine{
			Text:  line,
			X:     AlignX(b.X, width, b.Align),
			Y:     y,
			Width: width,
		})
		y -= lineHeight
	}
	return out, Cursor{Y: y, Lines: len(out)}
}

// DrawText lays out a block and draws it onto the page
func DrawText(page Page, b TextBlock) Cursor {
	lines, cursor := LayoutText(b)
	for _, l := range lines {
		if l.Text == "" {
			continue
		}
		page.DrawText(l.Text, l.X, l.Y, b.Style)
	}
	return cursor
}

// LabelValue draws a left-aligned label at x and a right-aligned value at
// x+width on the same baseline, returning the cursor below the taller side.
func LabelValue(page Page, label, value string, x, width float64, cursor Cursor, labelStyle, valueStyle TextStyle, lineHeight float64) Cursor {
	left := DrawText(page, TextBlock{
		Text:       label,
		X:          x,
		Y:          cursor.Y,
		Align:      AlignLeft,
		Style:      labelStyle,
		LineHeight: lineHeight,
	})
	right := DrawText(page, TextBlock{
		Text:       value,
		X:          x + width,
		Y:          cursor.Y,
		Align:      AlignRight,
		Style:      valueStyle,
		LineHeight: lineHeight,
	})
	return Lowest(left, right)
}
