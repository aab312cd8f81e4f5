package xlsx

// Format describes how a cell, row or column is displayed. Formats are
// plain comparable values: two formats with the same properties are equal
// and share one style record in the saved file. Builder methods return a
// modified copy, so a Format can be reused as a base for variations.
//
//	bold := xlsx.NewFormat().SetBold()
//	money := bold.SetNumFormat("$#,##0.00")
type Format struct {
	numFormat string
	font      fontProps
	fill      fillProps
	border    borderProps
	align     alignProps
	protect   protectProps
}

type fontProps struct {
	bold      bool
	italic    bool
	strike    bool
	underline Underline
	script    Script
	name      string
	size      float64
	color     Color
}

type fillProps struct {
	pattern Pattern
	fg      Color
	bg      Color
}

type borderSide struct {
	style BorderStyle
	color Color
}

type borderProps struct {
	left, right, top, bottom borderSide
}

type alignProps struct {
	horizontal HAlign
	vertical   VAlign
	wrap       bool
	shrink     bool
	rotation   int16
	indent     uint8
}

type protectProps struct {
	unlocked bool
	hidden   bool
}

// Underline styles.
type Underline uint8

const (
	UnderlineNone Underline = iota
	UnderlineSingle
	UnderlineDouble
	UnderlineSingleAccounting
	UnderlineDoubleAccounting
)

// Script is the font vertical alignment.
type Script uint8

const (
	ScriptNone Script = iota
	ScriptSuperscript
	ScriptSubscript
)

// Pattern is a cell fill pattern.
type Pattern uint8

const (
	PatternNone Pattern = iota
	PatternSolid
	PatternMediumGray
	PatternDarkGray
	PatternLightGray
	PatternDarkHorizontal
	PatternDarkVertical
	PatternDarkDown
	PatternDarkUp
	PatternDarkGrid
	PatternDarkTrellis
	PatternLightHorizontal
	PatternLightVertical
	PatternLightDown
	PatternLightUp
	PatternLightGrid
	PatternLightTrellis
	PatternGray125
	PatternGray0625
)

var patternNames = [...]string{
	"none", "solid", "mediumGray", "darkGray", "lightGray",
	"darkHorizontal", "darkVertical", "darkDown", "darkUp", "darkGrid",
	"darkTrellis", "lightHorizontal", "lightVertical", "lightDown",
	"lightUp", "lightGrid", "lightTrellis", "gray125", "gray0625",
}

func (p Pattern) String() string {
	if int(p) < len(patternNames) {
		return patternNames[p]
	}
	return "none"
}

// BorderStyle is a cell border line style.
type BorderStyle uint8

const (
	BorderNone BorderStyle = iota
	BorderThin
	BorderMedium
	BorderDashed
	BorderDotted
	BorderThick
	BorderDouble
	BorderHair
	BorderMediumDashed
	BorderDashDot
	BorderMediumDashDot
	BorderDashDotDot
	BorderMediumDashDotDot
	BorderSlantDashDot
)

var borderNames = [...]string{
	"none", "thin", "medium", "dashed", "dotted", "thick", "double", "hair",
	"mediumDashed", "dashDot", "mediumDashDot", "dashDotDot",
	"mediumDashDotDot", "slantDashDot",
}

func (b BorderStyle) String() string {
	if int(b) < len(borderNames) {
		return borderNames[b]
	}
	return "none"
}

// HAlign is horizontal alignment.
type HAlign uint8

const (
	AlignGeneral HAlign = iota
	AlignLeft
	AlignCenter
	AlignRight
	AlignFill
	AlignJustify
	AlignCenterAcross
	AlignDistributed
)

var hAlignNames = [...]string{
	"", "left", "center", "right", "fill", "justify", "centerContinuous", "distributed",
}

// VAlign is vertical alignment.
type VAlign uint8

const (
	VAlignBottom VAlign = iota
	VAlignTop
	VAlignCenter
	VAlignJustify
	VAlignDistributed
)

var vAlignNames = [...]string{"", "top", "center", "justify", "distributed"}

// Default font properties. Sizes and names equal to these are written out
// but never make a format distinct from the default.
const (
	DefaultFontName = "Calibri"
	DefaultFontSize = 11.0
)

// NewFormat returns the default format.
func NewFormat() Format {
	return Format{}
}

// IsDefault reports whether f carries no properties.
func (f Format) IsDefault() bool {
	return f == Format{}
}

// SetNumFormat sets a number format string such as "0.00%" or "yyyy-mm-dd".
func (f Format) SetNumFormat(code string) Format {
	if code == "General" {
		code = ""
	}
	f.numFormat = code
	return f
}

// SetNumFormatIndex selects one of Excel's built-in number formats by id.
// Unknown ids leave the format unchanged.
func (f Format) SetNumFormatIndex(id uint8) Format {
	if code, ok := builtinNumFormatCodes[id]; ok {
		return f.SetNumFormat(code)
	}
	return f
}

// NumFormat returns the number format string, "" for General.
func (f Format) NumFormat() string { return f.numFormat }

func (f Format) SetBold() Format {
	f.font.bold = true
	return f
}

func (f Format) SetItalic() Format {
	f.font.italic = true
	return f
}

func (f Format) SetStrikethrough() Format {
	f.font.strike = true
	return f
}

func (f Format) SetUnderline(u Underline) Format {
	f.font.underline = u
	return f
}

func (f Format) SetFontScript(s Script) Format {
	f.font.script = s
	return f
}

// SetFontName sets the font family name.
func (f Format) SetFontName(name string) Format {
	if name == DefaultFontName {
		name = ""
	}
	f.font.name = name
	return f
}

// SetFontSize sets the font size in points.
func (f Format) SetFontSize(size float64) Format {
	if size == DefaultFontSize {
		size = 0
	}
	f.font.size = size
	return f
}

func (f Format) SetFontColor(c Color) Format {
	f.font.color = c
	return f
}

// SetPattern sets the fill pattern.
func (f Format) SetPattern(p Pattern) Format {
	f.fill.pattern = p
	return f
}

// SetBackgroundColor sets the fill colour. With no pattern this produces
// a solid fill.
func (f Format) SetBackgroundColor(c Color) Format {
	f.fill.bg = c
	return f
}

// SetForegroundColor sets the pattern colour.
func (f Format) SetForegroundColor(c Color) Format {
	f.fill.fg = c
	return f
}

// SetBorder sets all four borders to the same style.
func (f Format) SetBorder(style BorderStyle) Format {
	f.border.left.style = style
	f.border.right.style = style
	f.border.top.style = style
	f.border.bottom.style = style
	return f
}

// SetBorderColor sets the colour of all four borders.
func (f Format) SetBorderColor(c Color) Format {
	f.border.left.color = c
	f.border.right.color = c
	f.border.top.color = c
	f.border.bottom.color = c
	return f
}

func (f Format) SetBorderLeft(style BorderStyle, c Color) Format {
	f.border.left = borderSide{style: style, color: c}
	return f
}

func (f Format) SetBorderRight(style BorderStyle, c Color) Format {
	f.border.right = borderSide{style: style, color: c}
	return f
}

func (f Format) SetBorderTop(style BorderStyle, c Color) Format {
	f.border.top = borderSide{style: style, color: c}
	return f
}

func (f Format) SetBorderBottom(style BorderStyle, c Color) Format {
	f.border.bottom = borderSide{style: style, color: c}
	return f
}

func (f Format) SetAlign(h HAlign) Format {
	f.align.horizontal = h
	return f
}

func (f Format) SetVerticalAlign(v VAlign) Format {
	f.align.vertical = v
	return f
}

func (f Format) SetTextWrap() Format {
	f.align.wrap = true
	return f
}

func (f Format) SetShrinkToFit() Format {
	f.align.shrink = true
	return f
}

// SetRotation sets text rotation in degrees, -90 to 90, or 270 for
// vertical stacked text. Out-of-range values are ignored.
func (f Format) SetRotation(deg int16) Format {
	switch {
	case deg == 270:
		f.align.rotation = 255
	case deg >= -90 && deg < 0:
		f.align.rotation = 90 - deg
	case deg >= 0 && deg <= 90:
		f.align.rotation = deg
	}
	return f
}

func (f Format) SetIndent(level uint8) Format {
	f.align.indent = level
	return f
}

// SetUnlocked clears cell protection for the cell.
func (f Format) SetUnlocked() Format {
	f.protect.unlocked = true
	return f
}

// SetHidden hides the formula when the sheet is protected.
func (f Format) SetHidden() Format {
	f.protect.hidden = true
	return f
}

// normalized folds equivalent fill encodings together: a background
// colour without a pattern is a solid fill whose colour lives in fgColor.
func (f Format) normalized() Format {
	fill := &f.fill
	if fill.pattern <= PatternSolid && fill.bg.set && !fill.fg.set {
		fill.fg = fill.bg
		fill.bg = Color{}
		fill.pattern = PatternSolid
	}
	if fill.pattern == PatternNone && fill.fg.set {
		fill.pattern = PatternSolid
	}
	return f
}

func (f Format) hasFont() bool    { return f.font != fontProps{} }
func (f Format) hasFill() bool    { return f.fill != fillProps{} }
func (f Format) hasBorder() bool  { return f.border != borderProps{} }
func (f Format) hasAlign() bool   { return f.align != alignProps{} }
func (f Format) hasProtect() bool { return f.protect != protectProps{} }

// builtinNumFormats maps Excel's predefined number format codes to their
// fixed ids.
var builtinNumFormats = map[string]uint16{
	"0":                             1,
	"0.00":                          2,
	"#,##0":                         3,
	"#,##0.00":                      4,
	"($#,##0_);($#,##0)":            5,
	"($#,##0_);[Red]($#,##0)":       6,
	"($#,##0.00_);($#,##0.00)":      7,
	"($#,##0.00_);[Red]($#,##0.00)": 8,
	"0%":                            9,
	"0.00%":                         10,
	"0.00E+00":                      11,
	"# ?/?":                         12,
	"# ??/??":                       13,
	"m/d/yy":                        14,
	"d-mmm-yy":                      15,
	"d-mmm":                         16,
	"mmm-yy":                        17,
	"h:mm AM/PM":                    18,
	"h:mm:ss AM/PM":                 19,
	"h:mm":                          20,
	"h:mm:ss":                       21,
	"m/d/yy h:mm":                   22,
	"(#,##0_);(#,##0)":              37,
	"(#,##0_);[Red](#,##0)":         38,
	"(#,##0.00_);(#,##0.00)":        39,
	"(#,##0.00_);[Red](#,##0.00)":   40,
	"mm:ss":                         45,
	"[h]:mm:ss":                     46,
	"mm:ss.0":                       47,
	"##0.0E+0":                      48,
	"@":                             49,
}

var builtinNumFormatCodes = func() map[uint8]string {
	m := make(map[uint8]string, len(builtinNumFormats))
	for code, id := range builtinNumFormats {
		m[uint8(id)] = code
	}
	m[0] = "General"
	return m
}()
