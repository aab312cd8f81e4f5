package xlsx

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	xw "github.com/klytics/xlsxkit/pkg/xlsx/internal/xmlwriter"
)

// URL is a hyperlink value for Worksheet.Write. Supported schemes are
// http, https, ftp, ftps, mailto and file, plus internal:Sheet!A1 for
// links within the workbook and external:path#Sheet!A1 for other files.
type URL struct {
	link string
	text string
	tip  string
}

// NewURL builds a hyperlink whose cell text is the link itself.
func NewURL(link string) URL {
	return URL{link: link}
}

// SetText sets the text shown in the cell.
func (u URL) SetText(text string) URL {
	u.text = text
	return u
}

// SetTip sets the tooltip shown on hover.
func (u URL) SetTip(tip string) URL {
	u.tip = tip
	return u
}

type linkKind uint8

const (
	linkExternal linkKind = iota
	linkInternal
	linkFile
)

type hyperlink struct {
	kind     linkKind
	target   string
	location string
	display  string
	tip      string
}

var linkPrefixes = []string{"http://", "https://", "ftp://", "ftps://", "mailto:", "file://", "internal:", "external:"}

func parseLink(u URL) (*hyperlink, error) {
	if utf8.RuneCountInString(u.link) > MaxURLLen {
		return nil, ErrURLTooLong
	}
	known := false
	for _, p := range linkPrefixes {
		if strings.HasPrefix(u.link, p) {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: unsupported url %q", ErrParameter, u.link)
	}
	h := &hyperlink{tip: u.tip}
	display := u.link
	switch {
	case strings.HasPrefix(u.link, "internal:"):
		h.kind = linkInternal
		h.location = strings.TrimPrefix(u.link, "internal:")
		display = h.location
	case strings.HasPrefix(u.link, "external:"):
		h.kind = linkFile
		path := strings.TrimPrefix(u.link, "external:")
		display = path
		if i := strings.Index(path, "#"); i >= 0 {
			h.location = path[i+1:]
			path = path[:i]
		}
		h.target = strings.ReplaceAll(path, " ", "%20")
		if strings.Contains(path, `\`) || strings.Contains(path, ":") {
			h.target = "file:///" + strings.ReplaceAll(h.target, `\`, "/")
		}
	case strings.HasPrefix(u.link, "mailto:"):
		h.target = u.link
		display = strings.TrimPrefix(u.link, "mailto:")
	default:
		h.target = u.link
		if i := strings.Index(h.target, "#"); i >= 0 {
			h.location = h.target[i+1:]
			h.target = h.target[:i]
		}
		h.target = strings.ReplaceAll(h.target, " ", "%20")
	}
	if u.text != "" {
		display = u.text
	}
	h.display = display
	return h, nil
}

func defaultLinkFormat() Format {
	return NewFormat().SetFontColor(RGB(0x0563C1)).SetUnderline(UnderlineSingle)
}

// WriteURL writes a hyperlink. Without a format the cell uses the usual
// blue underlined hyperlink style.
func (ws *Worksheet) WriteURL(row RowNum, col ColNum, link string, format ...Format) error {
	return ws.writeURL(row, col, NewURL(link), firstFormat(format))
}

// WriteURLWithText writes a hyperlink showing text instead of the link.
func (ws *Worksheet) WriteURLWithText(row RowNum, col ColNum, link, text string, format ...Format) error {
	return ws.writeURL(row, col, NewURL(link).SetText(text), firstFormat(format))
}

func (ws *Worksheet) writeURL(row RowNum, col ColNum, u URL, f *Format) error {
	if err := checkCell(row, col); err != nil {
		return ws.cellError(row, col, err)
	}
	h, err := parseLink(u)
	if err != nil {
		return ws.cellError(row, col, err)
	}
	key := cellKey{row, col}
	if _, exists := ws.links[key]; !exists && len(ws.links) >= MaxHyperlinks {
		return ws.cellError(row, col, ErrMaxHyperlinks)
	}
	if f == nil {
		if _, ok := ws.inheritedFormat(row, col); !ok {
			def := defaultLinkFormat()
			f = &def
		}
	}
	if err := ws.writeString(row, col, h.display, f); err != nil {
		return err
	}
	ws.links[key] = h
	return nil
}

func (ws *Worksheet) sortedLinks() []cellKey {
	keys := make([]cellKey, 0, len(ws.links))
	for k := range ws.links {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].row != keys[j].row {
			return keys[i].row < keys[j].row
		}
		return keys[i].col < keys[j].col
	})
	return keys
}

// writeHyperlinks emits <hyperlinks>, adding a relationship for every
// link that leaves the workbook.
func (ws *Worksheet) writeHyperlinks(w *xw.Writer, rels *relationships) {
	if len(ws.links) == 0 {
		return
	}
	w.StartTag("hyperlinks")
	for _, key := range ws.sortedLinks() {
		h := ws.links[key]
		attrs := []xw.Attr{xw.Str("ref", CellName(key.row, key.col))}
		if h.kind != linkInternal {
			id := rels.addExternal(relHyperlink, h.target)
			attrs = append(attrs, xw.Str("r:id", id))
		}
		if h.location != "" {
			attrs = append(attrs, xw.Str("location", h.location))
		}
		if h.kind == linkInternal || h.display != h.target {
			attrs = append(attrs, xw.Str("display", h.display))
		}
		if h.tip != "" {
			attrs = append(attrs, xw.Str("tooltip", h.tip))
		}
		w.EmptyTag("hyperlink", attrs...)
	}
	w.EndTag("hyperlinks")
}
