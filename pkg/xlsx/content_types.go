package xlsx

import (
	xw "github.com/klytics/xlsxkit/pkg/xlsx/internal/xmlwriter"
)

const (
	ctApp           = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
	ctCore          = "application/vnd.openxmlformats-package.core-properties+xml"
	ctCustom        = "application/vnd.openxmlformats-officedocument.custom-properties+xml"
	ctWorkbook      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"
	ctWorksheet     = "application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"
	ctStyles        = "application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"
	ctSharedStrings = "application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml"
	ctDrawing       = "application/vnd.openxmlformats-officedocument.drawing+xml"
	ctChart         = "application/vnd.openxmlformats-officedocument.drawingml.chart+xml"
	ctTable         = "application/vnd.openxmlformats-officedocument.spreadsheetml.table+xml"
	ctMetadata      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheetMetadata+xml"
	ctVML           = "application/vnd.openxmlformats-officedocument.vmlDrawing"
	ctRelationships = "application/vnd.openxmlformats-package.relationships+xml"
)

type override struct {
	part        string
	contentType string
}

// contentTypes builds [Content_Types].xml.
type contentTypes struct {
	overrides []override
	images    map[ImageType]bool
	vml       bool
}

func newContentTypes() *contentTypes {
	return &contentTypes{images: make(map[ImageType]bool)}
}

func (ct *contentTypes) add(part, contentType string) {
	ct.overrides = append(ct.overrides, override{part: part, contentType: contentType})
}

func (ct *contentTypes) writeXML(w *xw.Writer) {
	w.XMLDeclaration()
	w.StartTag("Types", xw.Str("xmlns", "http://schemas.openxmlformats.org/package/2006/content-types"))
	w.EmptyTag("Default", xw.Str("Extension", "rels"), xw.Str("ContentType", ctRelationships))
	w.EmptyTag("Default", xw.Str("Extension", "xml"), xw.Str("ContentType", "application/xml"))
	for _, t := range []ImageType{ImagePNG, ImageJPEG, ImageGIF, ImageBMP} {
		if ct.images[t] {
			w.EmptyTag("Default", xw.Str("Extension", t.extension()), xw.Str("ContentType", "image/"+t.extension()))
		}
	}
	if ct.vml {
		w.EmptyTag("Default", xw.Str("Extension", "vml"), xw.Str("ContentType", ctVML))
	}
	for _, o := range ct.overrides {
		w.EmptyTag("Override", xw.Str("PartName", o.part), xw.Str("ContentType", o.contentType))
	}
	w.EndTag("Types")
}

// writeMetadataXML writes xl/metadata.xml, which marks cells with cm="1"
// as dynamic array formulas.
func writeMetadataXML(w *xw.Writer) {
	w.XMLDeclaration()
	w.StartTag("metadata",
		xw.Str("xmlns", nsMain),
		xw.Str("xmlns:xda", "http://schemas.microsoft.com/office/spreadsheetml/2017/dynamicarray"))
	w.StartTag("metadataTypes", xw.Str("count", "1"))
	w.EmptyTag("metadataType",
		xw.Str("name", "XLDAPR"),
		xw.Str("minSupportedVersion", "120000"),
		xw.Str("copy", "1"),
		xw.Str("pasteAll", "1"),
		xw.Str("pasteValues", "1"),
		xw.Str("merge", "1"),
		xw.Str("splitFirst", "1"),
		xw.Str("rowColShift", "1"),
		xw.Str("clearFormats", "1"),
		xw.Str("clearComments", "1"),
		xw.Str("assign", "1"),
		xw.Str("coerce", "1"),
		xw.Str("cellMeta", "1"))
	w.EndTag("metadataTypes")
	w.StartTag("futureMetadata", xw.Str("name", "XLDAPR"), xw.Str("count", "1"))
	w.StartTag("bk")
	w.StartTag("extLst")
	w.StartTag("ext", xw.Str("uri", "{bdbb8cdc-fa1e-496e-a857-3c3f30c029c3}"))
	w.EmptyTag("xda:dynamicArrayProperties", xw.Str("fDynamic", "1"), xw.Str("fCollapsed", "0"))
	w.EndTag("ext")
	w.EndTag("extLst")
	w.EndTag("bk")
	w.EndTag("futureMetadata")
	w.StartTag("cellMetadata", xw.Str("count", "1"))
	w.StartTag("bk")
	w.EmptyTag("rc", xw.Str("t", "1"), xw.Str("v", "0"))
	w.EndTag("bk")
	w.EndTag("cellMetadata")
	w.EndTag("metadata")
}
