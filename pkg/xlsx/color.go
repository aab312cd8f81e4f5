package xlsx

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an RGB colour. The zero value means "automatic", which leaves
// the colour out of the generated XML.
type Color struct {
	rgb uint32
	set bool
}

// Named colours.
var (
	ColorBlack   = RGB(0x000000)
	ColorBlue    = RGB(0x0000FF)
	ColorBrown   = RGB(0x800000)
	ColorCyan    = RGB(0x00FFFF)
	ColorGray    = RGB(0x808080)
	ColorGreen   = RGB(0x008000)
	ColorLime    = RGB(0x00FF00)
	ColorMagenta = RGB(0xFF00FF)
	ColorNavy    = RGB(0x000080)
	ColorOrange  = RGB(0xFF6600)
	ColorPink    = RGB(0xFFC0CB)
	ColorPurple  = RGB(0x800080)
	ColorRed     = RGB(0xFF0000)
	ColorSilver  = RGB(0xC0C0C0)
	ColorWhite   = RGB(0xFFFFFF)
	ColorYellow  = RGB(0xFFFF00)
)

var namedColors = map[string]Color{
	"black":   ColorBlack,
	"blue":    ColorBlue,
	"brown":   ColorBrown,
	"cyan":    ColorCyan,
	"gray":    ColorGray,
	"grey":    ColorGray,
	"green":   ColorGreen,
	"lime":    ColorLime,
	"magenta": ColorMagenta,
	"navy":    ColorNavy,
	"orange":  ColorOrange,
	"pink":    ColorPink,
	"purple":  ColorPurple,
	"red":     ColorRed,
	"silver":  ColorSilver,
	"white":   ColorWhite,
	"yellow":  ColorYellow,
}

// RGB builds a colour from a 0xRRGGBB value. Bits above 24 are dropped.
func RGB(v uint32) Color {
	return Color{rgb: v & 0xFFFFFF, set: true}
}

// ParseColor accepts "#RRGGBB", "RRGGBB" or a colour name such as "red".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("%w: colour %q is not #RRGGBB or a known name", ErrParameter, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: colour %q: %v", ErrParameter, s, err)
	}
	return RGB(uint32(v)), nil
}

// IsSet reports whether c names a colour rather than "automatic".
func (c Color) IsSet() bool { return c.set }

// ARGB renders the colour as the opaque AARRGGBB string used by the
// spreadsheet schema.
func (c Color) ARGB() string {
	return fmt.Sprintf("FF%06X", c.rgb)
}

// String renders the colour as #RRGGBB, or "automatic".
func (c Color) String() string {
	if !c.set {
		return "automatic"
	}
	return fmt.Sprintf("#%06X", c.rgb)
}
