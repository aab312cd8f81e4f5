package xlsx

import (
	"fmt"
	"math"
	"strconv"
	"time"

	xw "github.com/klytics/xlsxkit/pkg/xlsx/internal/xmlwriter"
)

// DocProperties are the document properties shown in File > Info.
type DocProperties struct {
	Title         string
	Subject       string
	Author        string
	Manager       string
	Company       string
	Category      string
	Keywords      string
	Comment       string
	Status        string
	HyperlinkBase string

	// Created defaults to the time the workbook was made.
	Created time.Time
}

// SetProperties replaces the document properties. A zero Created keeps
// the current creation time.
func (wb *Workbook) SetProperties(p DocProperties) {
	if p.Created.IsZero() {
		p.Created = wb.props.Created
	}
	wb.props = p
}

// Properties returns the document properties.
func (wb *Workbook) Properties() DocProperties { return wb.props }

type customProperty struct {
	name  string
	kind  string
	value string
}

// SetCustomProperty adds a custom document property. Values may be
// strings, float64, int (32-bit range), bool or time.Time. Setting a name
// again replaces its value.
func (wb *Workbook) SetCustomProperty(name string, value any) error {
	if name == "" {
		return fmt.Errorf("%w: empty property name", ErrParameter)
	}
	if len(name) > 255 {
		return fmt.Errorf("%w: property name longer than 255 characters", ErrParameter)
	}
	p := customProperty{name: name}
	switch v := value.(type) {
	case string:
		p.kind, p.value = "vt:lpwstr", v
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("property %s: %w", name, ErrNumberNotFinite)
		}
		p.kind, p.value = "vt:r8", strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		if v < math.MinInt32 || v > math.MaxInt32 {
			p.kind, p.value = "vt:r8", strconv.Itoa(v)
		} else {
			p.kind, p.value = "vt:i4", strconv.Itoa(v)
		}
	case bool:
		p.kind, p.value = "vt:bool", strconv.FormatBool(v)
	case time.Time:
		p.kind, p.value = "vt:filetime", v.UTC().Format("2006-01-02T15:04:05Z")
	default:
		return fmt.Errorf("%w: unsupported property type %T", ErrParameter, value)
	}
	for i := range wb.custom {
		if wb.custom[i].name == name {
			wb.custom[i] = p
			return nil
		}
	}
	wb.custom = append(wb.custom, p)
	return nil
}

func writeCoreXML(w *xw.Writer, p DocProperties) {
	created := p.Created.UTC().Format("2006-01-02T15:04:05Z")
	w.XMLDeclaration()
	w.StartTag("cp:coreProperties",
		xw.Str("xmlns:cp", "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"),
		xw.Str("xmlns:dc", "http://purl.org/dc/elements/1.1/"),
		xw.Str("xmlns:dcterms", "http://purl.org/dc/terms/"),
		xw.Str("xmlns:dcmitype", "http://purl.org/dc/dcmitype/"),
		xw.Str("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance"))
	optional := func(tag, v string) {
		if v != "" {
			w.DataElement(tag, v)
		}
	}
	optional("dc:title", p.Title)
	optional("dc:subject", p.Subject)
	w.DataElement("dc:creator", p.Author)
	optional("cp:keywords", p.Keywords)
	optional("dc:description", p.Comment)
	w.DataElement("cp:lastModifiedBy", p.Author)
	w.DataElement("dcterms:created", created, xw.Str("xsi:type", "dcterms:W3CDTF"))
	w.DataElement("dcterms:modified", created, xw.Str("xsi:type", "dcterms:W3CDTF"))
	optional("cp:category", p.Category)
	optional("cp:contentStatus", p.Status)
	w.EndTag("cp:coreProperties")
}

func writeAppXML(w *xw.Writer, p DocProperties, sheetNames []string) {
	w.XMLDeclaration()
	w.StartTag("Properties",
		xw.Str("xmlns", "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"),
		xw.Str("xmlns:vt", "http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes"))
	w.DataElement("Application", "Microsoft Excel")
	w.DataElement("DocSecurity", "0")
	w.DataElement("ScaleCrop", "false")

	w.StartTag("HeadingPairs")
	w.StartTag("vt:vector", xw.Str("size", "2"), xw.Str("baseType", "variant"))
	w.StartTag("vt:variant")
	w.DataElement("vt:lpstr", "Worksheets")
	w.EndTag("vt:variant")
	w.StartTag("vt:variant")
	w.DataElement("vt:i4", strconv.Itoa(len(sheetNames)))
	w.EndTag("vt:variant")
	w.EndTag("vt:vector")
	w.EndTag("HeadingPairs")

	w.StartTag("TitlesOfParts")
	w.StartTag("vt:vector", xw.Int("size", len(sheetNames)), xw.Str("baseType", "lpstr"))
	for _, name := range sheetNames {
		w.DataElement("vt:lpstr", name)
	}
	w.EndTag("vt:vector")
	w.EndTag("TitlesOfParts")

	if p.Manager != "" {
		w.DataElement("Manager", p.Manager)
	}
	w.DataElement("Company", p.Company)
	w.DataElement("LinksUpToDate", "false")
	w.DataElement("SharedDoc", "false")
	if p.HyperlinkBase != "" {
		w.DataElement("HyperlinkBase", p.HyperlinkBase)
	}
	w.DataElement("HyperlinksChanged", "false")
	w.DataElement("AppVersion", "12.0000")
	w.EndTag("Properties")
}

func writeCustomXML(w *xw.Writer, props []customProperty) {
	w.XMLDeclaration()
	w.StartTag("Properties",
		xw.Str("xmlns", "http://schemas.openxmlformats.org/officeDocument/2006/custom-properties"),
		xw.Str("xmlns:vt", "http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes"))
	for i, p := range props {
		w.StartTag("property",
			xw.Str("fmtid", "{D5CDD505-2E9C-101B-9397-08002B2CF9AE}"),
			xw.Int("pid", i+2),
			xw.Str("name", p.name))
		w.DataElement(p.kind, p.value)
		w.EndTag("property")
	}
	w.EndTag("Properties")
}
