package layout

// Font measures text. Backends wrap their own font handles in this.
type Font interface {
	WidthOfTextAtSize(text string, size float64) float64
}

// TextStyle describes how a run of text is drawn
type TextStyle struct {
	Font  Font
	Size  float64
	Color Color
}

// Rect is a box whose (X, Y) is the bottom-left corner
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// BoxStyle controls rectangle fill and border. A nil color skips that part.
type BoxStyle struct {
	Fill        *Color
	Border      *Color
	BorderWidth float64
}

// Image is a decoded asset ready to be placed on a page
type Image struct {
	Name string
	Type string // "PNG" or "JPG"
	Data []byte
}

// Page is the minimal drawing surface the layout engine needs.
// Implementations are not safe for concurrent use.
type Page interface {
	Size() (width, height float64)
	DrawText(text string, x, y float64, style TextStyle)
	DrawRectangle(r Rect, style BoxStyle)
	DrawLine(x1, y1, x2, y2, thickness float64, color Color)
	DrawImage(img Image, r Rect)
}
