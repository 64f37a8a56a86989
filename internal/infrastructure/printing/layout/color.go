package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an RGB color with 0-255 channels
type Color struct {
	R uint8
	G uint8
	B uint8
}

// Common colors
var (
	Black     = Color{0, 0, 0}
	White     = Color{255, 255, 255}
	DarkGray  = Color{64, 64, 64}
	Gray      = Color{128, 128, 128}
	LightGray = Color{230, 230, 230}
	Stripe    = Color{245, 246, 248}
)

// RGB returns the channels as ints, the form most PDF libraries expect
func (c Color) RGB() (r, g, b int) {
	return int(c.R), int(c.G), int(c.B)
}

// Hex returns the color as #rrggbb
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Ptr returns a pointer to a copy of c, for optional style fields
func (c Color) Ptr() *Color {
	return &c
}

// ParseHex parses "#rrggbb", "rrggbb" or the short "#rgb" form
func ParseHex(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return Color{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// ParseHexOr is like ParseHex but returns fallback on error
func ParseHexOr(s string, fallback Color) Color {
	c, err := ParseHex(s)
	if err != nil {
		return fallback
	}
	return c
}
