package printing

import "strings"

// Backend selects how a document is turned into PDF bytes
type Backend string

const (
	BackendLayout    Backend = "LAYOUT"    // manual drawing through the layout engine
	BackendHTML      Backend = "HTML"      // HTML template printed by a headless browser
	BackendComponent Backend = "COMPONENT" // row/column component tree
)

// IsValid checks if the Backend is a valid value
func (b Backend) IsValid() bool {
	switch b {
	case BackendLayout, BackendHTML, BackendComponent:
		return true
	}
	return false
}

// String returns the string representation of Backend
func (b Backend) String() string {
	return string(b)
}

// ParseBackend parses a backend name case-insensitively
func ParseBackend(s string) (Backend, bool) {
	b := Backend(strings.ToUpper(strings.TrimSpace(s)))
	return b, b.IsValid()
}

// AllBackends returns all valid Backend values
func AllBackends() []Backend {
	return []Backend{BackendLayout, BackendHTML, BackendComponent}
}

// PaperSize represents the paper size for printing
type PaperSize string

const (
	PaperSizeA4     PaperSize = "A4"     // 210mm x 297mm
	PaperSizeA5     PaperSize = "A5"     // 148mm x 210mm
	PaperSizeLetter PaperSize = "LETTER" // 216mm x 279mm
)

// IsValid checks if the PaperSize is a valid value
func (p PaperSize) IsValid() bool {
	switch p {
	case PaperSizeA4, PaperSizeA5, PaperSizeLetter:
		return true
	}
	return false
}

// String returns the string representation of PaperSize
func (p PaperSize) String() string {
	return string(p)
}

// Dimensions returns the paper dimensions in millimeters (width, height)
func (p PaperSize) Dimensions() (width, height int) {
	switch p {
	case PaperSizeA5:
		return 148, 210
	case PaperSizeLetter:
		return 216, 279
	default:
		return 210, 297
	}
}

// Points returns the paper dimensions in PDF points for an orientation
func (p PaperSize) Points(o Orientation) (width, height float64) {
	w, h := p.Dimensions()
	width, height = MMToPoints(float64(w)), MMToPoints(float64(h))
	if o == OrientationLandscape {
		return height, width
	}
	return width, height
}

// AllPaperSizes returns all valid PaperSize values
func AllPaperSizes() []PaperSize {
	return []PaperSize{PaperSizeA4, PaperSizeA5, PaperSizeLetter}
}

// Orientation represents the page orientation for printing
type Orientation string

const (
	OrientationPortrait  Orientation = "PORTRAIT"
	OrientationLandscape Orientation = "LANDSCAPE"
)

// IsValid checks if the Orientation is a valid value
func (o Orientation) IsValid() bool {
	switch o {
	case OrientationPortrait, OrientationLandscape:
		return true
	}
	return false
}

// String returns the string representation of Orientation
func (o Orientation) String() string {
	return string(o)
}

// MMToPoints converts millimeters to PDF points (1/72 inch)
func MMToPoints(mm float64) float64 {
	return mm * 72 / 25.4
}
