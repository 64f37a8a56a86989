package layout

import "unicode/utf8"

// monoFont gives every rune the same advance: size * 0.5
type monoFont struct{}

func (monoFont) WidthOfTextAtSize(text string, size float64) float64 {
	return float64(utf8.RuneCountInString(text)) * size * 0.5
}

type textCall struct {
	Text string
	X, Y float64
}

type rectCall struct {
	Rect  Rect
	Style BoxStyle
}

// recordingPage captures drawing calls
type recordingPage struct {
	texts []textCall
	rects []rectCall
	lines int
}

func (p *recordingPage) Size() (float64, float64) { return 595, 842 }

func (p *recordingPage) DrawText(text string, x, y float64, _ TextStyle) {
	p.texts = append(p.texts, textCall{Text: text, X: x, Y: y})
}

func (p *recordingPage) DrawRectangle(r Rect, style BoxStyle) {
	p.rects = append(p.rects, rectCall{Rect: r, Style: style})
}

func (p *recordingPage) DrawLine(_, _, _, _, _ float64, _ Color) {
	p.lines++
}

func (p *recordingPage) DrawImage(Image, Rect) {}
