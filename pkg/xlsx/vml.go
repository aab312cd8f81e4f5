package xlsx

import (
	"fmt"
	"strconv"

	xw "github.com/klytics/xlsxkit/pkg/xlsx/internal/xmlwriter"
)

var headerShapeIDs = [2][3]string{{"LH", "CH", "RH"}, {"LF", "CF", "RF"}}

var imageShapeFormulas = []string{
	"if lineDrawn pixelLineWidth 0",
	"sum @0 1 0",
	"sum 0 0 @1",
	"prod @2 1 2",
	"prod @3 21600 pixelWidth",
	"prod @3 21600 pixelHeight",
	"sum @0 0 1",
	"prod @6 1 2",
	"prod @7 21600 pixelWidth",
	"sum @8 21600 0",
	"prod @7 21600 pixelHeight",
	"sum @10 21600 0",
}

// writeHeaderVML writes xl/drawings/vmlDrawingN.vml holding the header
// and footer images. media gives the media part name per image in
// header left/center/right then footer left/center/right order, with ""
// for empty slots.
func (ws *Worksheet) writeHeaderVML(w *xw.Writer, id int, media [6]string, rels *relationships) {
	w.StartTag("xml",
		xw.Str("xmlns:v", "urn:schemas-microsoft-com:vml"),
		xw.Str("xmlns:o", "urn:schemas-microsoft-com:office:office"),
		xw.Str("xmlns:x", "urn:schemas-microsoft-com:office:excel"))

	w.StartTag("o:shapelayout", xw.Str("v:ext", "edit"))
	w.EmptyTag("o:idmap", xw.Str("v:ext", "edit"), xw.Int("data", id))
	w.EndTag("o:shapelayout")

	w.StartTag("v:shapetype",
		xw.Str("id", "_x0000_t75"),
		xw.Str("coordsize", "21600,21600"),
		xw.Str("o:spt", "75"),
		xw.Str("o:preferrelative", "t"),
		xw.Str("path", "m@4@5l@4@11@9@11@9@5xe"),
		xw.Str("filled", "f"),
		xw.Str("stroked", "f"))
	w.EmptyTag("v:stroke", xw.Str("joinstyle", "miter"))
	w.StartTag("v:formulas")
	for _, eqn := range imageShapeFormulas {
		w.EmptyTag("v:f", xw.Str("eqn", eqn))
	}
	w.EndTag("v:formulas")
	w.EmptyTag("v:path", xw.Str("o:extrusionok", "f"), xw.Str("gradientshapeok", "t"), xw.Str("o:connecttype", "rect"))
	w.EmptyTag("o:lock", xw.Str("v:ext", "edit"), xw.Str("aspectratio", "t"))
	w.EndTag("v:shapetype")

	shape := 1024*id + 1
	for slot, img := range ws.headerFooterImages() {
		if img == nil {
			continue
		}
		rid := rels.add(relImage, "../media/"+media[slot])
		style := fmt.Sprintf("position:absolute;margin-left:0;margin-top:0;width:%spt;height:%spt;z-index:%d",
			strconv.FormatFloat(img.displayWidth()*0.75, 'f', -1, 64),
			strconv.FormatFloat(img.displayHeight()*0.75, 'f', -1, 64),
			shape-1024*id)
		w.StartTag("v:shape",
			xw.Str("id", headerShapeIDs[slot/3][slot%3]),
			xw.Str("o:spid", "_x0000_s"+strconv.Itoa(shape)),
			xw.Str("type", "#_x0000_t75"),
			xw.Str("style", style))
		w.EmptyTag("v:imagedata", xw.Str("o:relid", rid), xw.Str("o:title", headerShapeIDs[slot/3][slot%3]))
		w.EmptyTag("o:lock", xw.Str("v:ext", "edit"), xw.Str("rotation", "t"))
		w.EndTag("v:shape")
		shape++
	}
	w.EndTag("xml")
}

// headerFooterImages lists header then footer image slots.
func (ws *Worksheet) headerFooterImages() [6]*Image {
	var all [6]*Image
	copy(all[:3], ws.headerImages[:])
	copy(all[3:], ws.footerImages[:])
	return all
}
