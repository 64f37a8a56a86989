package printing

import "github.com/crm/backend/internal/domain/shared"

// Margins represents the page margins in millimeters
type Margins struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// NewMargins creates a new Margins value object
func NewMargins(top, right, bottom, left int) (Margins, error) {
	if top < 0 || right < 0 || bottom < 0 || left < 0 {
		return Margins{}, shared.NewDomainError("INVALID_MARGINS", "Margins cannot be negative")
	}
	if top > 100 || right > 100 || bottom > 100 || left > 100 {
		return Margins{}, shared.NewDomainError("INVALID_MARGINS", "Margins cannot exceed 100mm")
	}
	return Margins{Top: top, Right: right, Bottom: bottom, Left: left}, nil
}

// DefaultMargins returns the default document margins
func DefaultMargins() Margins {
	return Margins{Top: 15, Right: 15, Bottom: 15, Left: 15}
}

// IsZero returns true if all margins are zero
func (m Margins) IsZero() bool {
	return m.Top == 0 && m.Right == 0 && m.Bottom == 0 && m.Left == 0
}

// Points returns the margins converted to PDF points (top, right, bottom, left)
func (m Margins) Points() (top, right, bottom, left float64) {
	return MMToPoints(float64(m.Top)), MMToPoints(float64(m.Right)),
		MMToPoints(float64(m.Bottom)), MMToPoints(float64(m.Left))
}

// Options bundles the page setup for a render
type Options struct {
	Backend     Backend     `json:"backend"`
	PaperSize   PaperSize   `json:"paper_size"`
	Orientation Orientation `json:"orientation"`
	Margins     Margins     `json:"margins"`
}

// DefaultOptions returns A4 portrait with default margins on the layout backend
func DefaultOptions() Options {
	return Options{
		Backend:     BackendLayout,
		PaperSize:   PaperSizeA4,
		Orientation: OrientationPortrait,
		Margins:     DefaultMargins(),
	}
}

// Normalize fills unset or invalid fields with defaults
func (o Options) Normalize() Options {
	def := DefaultOptions()
	if !o.Backend.IsValid() {
		o.Backend = def.Backend
	}
	if !o.PaperSize.IsValid() {
		o.PaperSize = def.PaperSize
	}
	if !o.Orientation.IsValid() {
		o.Orientation = def.Orientation
	}
	if o.Margins.IsZero() {
		o.Margins = def.Margins
	}
	return o
}
