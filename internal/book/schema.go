// Package book describes a whole workbook in YAML (or JSON) and builds it
// with the xlsx writer.
package book

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Book is the root of a workbook description.
type Book struct {
	Properties Properties            `yaml:"properties"`
	Formats    map[string]FormatSpec `yaml:"formats"`
	Names      map[string]string     `yaml:"names"`
	Sheets     []Sheet               `yaml:"sheets"`
}

// Properties are the document properties plus free-form custom ones.
type Properties struct {
	Title    string         `yaml:"title"`
	Subject  string         `yaml:"subject"`
	Author   string         `yaml:"author"`
	Manager  string         `yaml:"manager"`
	Company  string         `yaml:"company"`
	Category string         `yaml:"category"`
	Keywords string         `yaml:"keywords"`
	Comment  string         `yaml:"comment"`
	Status   string         `yaml:"status"`
	Custom   map[string]any `yaml:"custom"`
}

// FormatSpec is a named cell format.
type FormatSpec struct {
	NumFormat   string  `yaml:"num_format"`
	Bold        bool    `yaml:"bold"`
	Italic      bool    `yaml:"italic"`
	Underline   bool    `yaml:"underline"`
	Strike      bool    `yaml:"strikethrough"`
	FontName    string  `yaml:"font_name"`
	FontSize    float64 `yaml:"font_size"`
	FontColor   string  `yaml:"font_color"`
	Background  string  `yaml:"background"`
	Border      string  `yaml:"border"`
	BorderColor string  `yaml:"border_color"`
	Align       string  `yaml:"align"`
	VAlign      string  `yaml:"valign"`
	Wrap        bool    `yaml:"wrap"`
	Rotation    int16   `yaml:"rotation"`
	Indent      uint8   `yaml:"indent"`
}

// Sheet describes one worksheet. Items are applied in the order the
// fields are declared here.
type Sheet struct {
	Name      string `yaml:"name"`
	Hidden    bool   `yaml:"hidden"`
	Active    bool   `yaml:"active"`
	TabColor  string `yaml:"tab_color"`
	Zoom      uint16 `yaml:"zoom"`
	Freeze    string `yaml:"freeze"`
	Landscape bool   `yaml:"landscape"`
	Header    string `yaml:"header"`
	Footer    string `yaml:"footer"`
	PrintArea string `yaml:"print_area"`

	Columns      []Column      `yaml:"columns"`
	Rows         []Row         `yaml:"rows"`
	Cells        []Cell        `yaml:"cells"`
	Records      []Records     `yaml:"records"`
	Merges       []Merge       `yaml:"merges"`
	Tables       []Table       `yaml:"tables"`
	Conditionals []Conditional `yaml:"conditionals"`
	Images       []Image       `yaml:"images"`
	Charts       []Chart       `yaml:"charts"`

	Autofilter string `yaml:"autofilter"`
	Autofit    bool   `yaml:"autofit"`
}

// Column sets width, visibility or format for one column ("B") or a
// span ("B:D").
type Column struct {
	Col    string  `yaml:"col"`
	Width  float64 `yaml:"width"`
	Hidden bool    `yaml:"hidden"`
	Format string  `yaml:"format"`
}

// Row writes values left to right starting at At.
type Row struct {
	At     string `yaml:"at"`
	Values []any  `yaml:"values"`
	Format string `yaml:"format"`
}

// Cell writes a single value. Strings starting with "=" are formulas.
type Cell struct {
	Ref     string `yaml:"ref"`
	Value   any    `yaml:"value"`
	Formula string `yaml:"formula"`
	Result  string `yaml:"result"`
	URL     string `yaml:"url"`
	Format  string `yaml:"format"`
}

// Records lays out a list of maps as a header row plus one row per item.
type Records struct {
	At           string            `yaml:"at"`
	Fields       []string          `yaml:"fields"`
	Rename       map[string]string `yaml:"rename"`
	Case         string            `yaml:"case"`
	HeaderFormat string            `yaml:"header_format"`
	HideHeaders  bool              `yaml:"hide_headers"`
	Items        []map[string]any  `yaml:"items"`
}

// Merge merges Range and writes Text into it.
type Merge struct {
	Range  string `yaml:"range"`
	Text   string `yaml:"text"`
	Format string `yaml:"format"`
}

// Table turns Range into a worksheet table.
type Table struct {
	Range   string   `yaml:"range"`
	Name    string   `yaml:"name"`
	Style   string   `yaml:"style"`
	Columns []string `yaml:"columns"`
}

// Conditional is a conditional format over Range. Type is one of cell,
// formula, data_bar, two_color or three_color.
type Conditional struct {
	Range    string   `yaml:"range"`
	Type     string   `yaml:"type"`
	Operator string   `yaml:"operator"`
	Values   []any    `yaml:"values"`
	Formula  string   `yaml:"formula"`
	Format   string   `yaml:"format"`
	Colors   []string `yaml:"colors"`
}

// Image places a picture file with its top-left corner in cell At.
// Relative paths are resolved against the description's directory.
type Image struct {
	At      string  `yaml:"at"`
	Path    string  `yaml:"path"`
	OffsetX uint32  `yaml:"offset_x"`
	OffsetY uint32  `yaml:"offset_y"`
	Scale   float64 `yaml:"scale"`
	Alt     string  `yaml:"alt"`
}

// Chart places a chart with its top-left corner in cell At.
type Chart struct {
	At     string   `yaml:"at"`
	Type   string   `yaml:"type"`
	Title  string   `yaml:"title"`
	XTitle string   `yaml:"x_title"`
	YTitle string   `yaml:"y_title"`
	Legend string   `yaml:"legend"`
	Width  uint32   `yaml:"width"`
	Height uint32   `yaml:"height"`
	Series []Series `yaml:"series"`
}

// Series is one chart series. Ranges are plain A1 ranges on the chart's
// own sheet ("B2:B7") or full references ("Data!$B$2:$B$7").
type Series struct {
	Name       string `yaml:"name"`
	Categories string `yaml:"categories"`
	Values     string `yaml:"values"`
	Color      string `yaml:"color"`
}

// Load reads and parses a workbook description file.
func Load(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("workbook description not found: %s", path)
		}
		return nil, fmt.Errorf("could not read workbook description %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a workbook description. JSON input is accepted as well
// since it is valid YAML.
func Parse(data []byte) (*Book, error) {
	var b Book
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("invalid workbook description: %w", err)
	}
	if err := validate(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

func validate(b *Book) error {
	if len(b.Sheets) == 0 {
		return fmt.Errorf("workbook description has no sheets")
	}
	seen := make(map[string]bool)
	for i, s := range b.Sheets {
		if s.Name != "" {
			key := strings.ToLower(s.Name)
			if seen[key] {
				return fmt.Errorf("duplicate sheet name %q", s.Name)
			}
			seen[key] = true
		}
		for _, ref := range formatRefs(s) {
			if ref == "" {
				continue
			}
			if _, ok := b.Formats[ref]; !ok {
				return fmt.Errorf("sheet %d (%s) uses undefined format %q", i+1, s.Name, ref)
			}
		}
		for _, c := range s.Cells {
			if c.Ref == "" {
				return fmt.Errorf("sheet %d (%s) has a cell without 'ref'", i+1, s.Name)
			}
		}
		for _, img := range s.Images {
			if img.Path == "" {
				return fmt.Errorf("sheet %d (%s) has an image without 'path'", i+1, s.Name)
			}
		}
	}
	return nil
}

func formatRefs(s Sheet) []string {
	var refs []string
	for _, c := range s.Columns {
		refs = append(refs, c.Format)
	}
	for _, r := range s.Rows {
		refs = append(refs, r.Format)
	}
	for _, c := range s.Cells {
		refs = append(refs, c.Format)
	}
	for _, r := range s.Records {
		refs = append(refs, r.HeaderFormat)
	}
	for _, m := range s.Merges {
		refs = append(refs, m.Format)
	}
	for _, c := range s.Conditionals {
		refs = append(refs, c.Format)
	}
	return refs
}
