package book

import (
	"fmt"
	"strings"

	"github.com/klytics/xlsxkit/pkg/xlsx"
)

var alignNames = map[string]xlsx.HAlign{
	"general":       xlsx.AlignGeneral,
	"left":          xlsx.AlignLeft,
	"center":        xlsx.AlignCenter,
	"right":         xlsx.AlignRight,
	"fill":          xlsx.AlignFill,
	"justify":       xlsx.AlignJustify,
	"center_across": xlsx.AlignCenterAcross,
	"distributed":   xlsx.AlignDistributed,
}

var valignNames = map[string]xlsx.VAlign{
	"bottom":      xlsx.VAlignBottom,
	"top":         xlsx.VAlignTop,
	"center":      xlsx.VAlignCenter,
	"justify":     xlsx.VAlignJustify,
	"distributed": xlsx.VAlignDistributed,
}

func parseBorder(name string) (xlsx.BorderStyle, error) {
	for b := xlsx.BorderNone; b <= xlsx.BorderSlantDashDot; b++ {
		if strings.EqualFold(b.String(), name) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown border style %q", name)
}

func parseColor(field, s string) (xlsx.Color, error) {
	c, err := xlsx.ParseColor(s)
	if err != nil {
		return c, fmt.Errorf("%s: %w", field, err)
	}
	return c, nil
}

// Format converts the description to an xlsx.Format.
func (s FormatSpec) Format() (xlsx.Format, error) {
	f := xlsx.NewFormat()
	if s.NumFormat != "" {
		f = f.SetNumFormat(s.NumFormat)
	}
	if s.Bold {
		f = f.SetBold()
	}
	if s.Italic {
		f = f.SetItalic()
	}
	if s.Underline {
		f = f.SetUnderline(xlsx.UnderlineSingle)
	}
	if s.Strike {
		f = f.SetStrikethrough()
	}
	if s.FontName != "" {
		f = f.SetFontName(s.FontName)
	}
	if s.FontSize > 0 {
		f = f.SetFontSize(s.FontSize)
	}
	if s.FontColor != "" {
		c, err := parseColor("font_color", s.FontColor)
		if err != nil {
			return f, err
		}
		f = f.SetFontColor(c)
	}
	if s.Background != "" {
		c, err := parseColor("background", s.Background)
		if err != nil {
			return f, err
		}
		f = f.SetBackgroundColor(c)
	}
	if s.Border != "" {
		b, err := parseBorder(s.Border)
		if err != nil {
			return f, err
		}
		f = f.SetBorder(b)
	}
	if s.BorderColor != "" {
		c, err := parseColor("border_color", s.BorderColor)
		if err != nil {
			return f, err
		}
		f = f.SetBorderColor(c)
	}
	if s.Align != "" {
		a, ok := alignNames[strings.ToLower(s.Align)]
		if !ok {
			return f, fmt.Errorf("unknown alignment %q", s.Align)
		}
		f = f.SetAlign(a)
	}
	if s.VAlign != "" {
		v, ok := valignNames[strings.ToLower(s.VAlign)]
		if !ok {
			return f, fmt.Errorf("unknown vertical alignment %q", s.VAlign)
		}
		f = f.SetVerticalAlign(v)
	}
	if s.Wrap {
		f = f.SetTextWrap()
	}
	if s.Rotation != 0 {
		f = f.SetRotation(s.Rotation)
	}
	if s.Indent > 0 {
		f = f.SetIndent(s.Indent)
	}
	return f, nil
}
