package xlsx

import (
	"strconv"

	xw "github.com/klytics/xlsxkit/pkg/xlsx/internal/xmlwriter"
)

// XML namespaces.
const (
	nsMain          = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
	nsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPackageRels   = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsDrawing       = "http://schemas.openxmlformats.org/drawingml/2006/spreadsheetDrawing"
	nsDrawingMain   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsChart         = "http://schemas.openxmlformats.org/drawingml/2006/chart"
)

// Relationship types.
const (
	relOfficeDocument = nsRelationships + "/officeDocument"
	relWorksheet      = nsRelationships + "/worksheet"
	relStyles         = nsRelationships + "/styles"
	relSharedStrings  = nsRelationships + "/sharedStrings"
	relSheetMetadata  = nsRelationships + "/sheetMetadata"
	relHyperlink      = nsRelationships + "/hyperlink"
	relDrawing        = nsRelationships + "/drawing"
	relChart          = nsRelationships + "/chart"
	relImage          = nsRelationships + "/image"
	relTable          = nsRelationships + "/table"
	relVMLDrawing     = nsRelationships + "/vmlDrawing"
	relExtended       = nsRelationships + "/extended-properties"
	relCustom         = nsRelationships + "/custom-properties"
	relCore           = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
)

type relationship struct {
	id       string
	kind     string
	target   string
	external bool
}

// relationships collects the entries of one .rels part, numbering them
// rId1, rId2, ... in the order they are added.
type relationships struct {
	items []relationship
}

func (r *relationships) add(kind, target string) string {
	id := "rId" + strconv.Itoa(len(r.items)+1)
	r.items = append(r.items, relationship{id: id, kind: kind, target: target})
	return id
}

func (r *relationships) addExternal(kind, target string) string {
	id := "rId" + strconv.Itoa(len(r.items)+1)
	r.items = append(r.items, relationship{id: id, kind: kind, target: target, external: true})
	return id
}

func (r *relationships) empty() bool { return len(r.items) == 0 }

func (r *relationships) writeXML(w *xw.Writer) {
	w.XMLDeclaration()
	w.StartTag("Relationships", xw.Str("xmlns", nsPackageRels))
	for _, rel := range r.items {
		attrs := []xw.Attr{
			xw.Str("Id", rel.id),
			xw.Str("Type", rel.kind),
			xw.Str("Target", rel.target),
		}
		if rel.external {
			attrs = append(attrs, xw.Str("TargetMode", "External"))
		}
		w.EmptyTag("Relationship", attrs...)
	}
	w.EndTag("Relationships")
}
