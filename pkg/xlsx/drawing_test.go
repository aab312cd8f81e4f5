package xlsx

import (
	"testing"

	xw "github.com/klytics/xlsxkit/pkg/xlsx/internal/xmlwriter"
)

func TestAnchorDefaultGrid(t *testing.T) {
	_, ws := newTestSheet(t)
	a := ws.anchorFor(0, 0, 0, 0, 100, 50)
	if a.fromCol != 0 || a.fromRow != 0 || a.fromColOff != 0 {
		t.Errorf("expected anchor to start at A1, got %+v", a)
	}
	if a.toCol != 1 || a.toColOff != 36*emuPerPixel {
		t.Errorf("expected end in column B at 36px, got col %d off %d", a.toCol, a.toColOff)
	}
	if a.toRow != 2 || a.toRowOff != 10*emuPerPixel {
		t.Errorf("expected end in row 3 at 10px, got row %d off %d", a.toRow, a.toRowOff)
	}
	if a.width != 100*emuPerPixel || a.height != 50*emuPerPixel {
		t.Errorf("unexpected extent %dx%d", a.width, a.height)
	}
}

func TestAnchorOffsetMovesStartCell(t *testing.T) {
	_, ws := newTestSheet(t)
	a := ws.anchorFor(0, 0, 70, 25, 10, 10)
	if a.fromCol != 1 || a.fromColOff != 6*emuPerPixel {
		t.Errorf("expected start in column B at 6px, got col %d off %d", a.fromCol, a.fromColOff)
	}
	if a.fromRow != 1 || a.fromRowOff != 5*emuPerPixel {
		t.Errorf("expected start in row 2 at 5px, got row %d off %d", a.fromRow, a.fromRowOff)
	}
	if a.x != 70*emuPerPixel || a.y != 25*emuPerPixel {
		t.Errorf("expected absolute position 70,25 px, got %d,%d", a.x, a.y)
	}
}

func TestAnchorSkipsHiddenAndSizedCells(t *testing.T) {
	_, ws := newTestSheet(t)
	ws.SetColumnHidden(0)
	ws.SetRowHeightPixels(0, 40)

	a := ws.anchorFor(0, 0, 0, 0, 10, 30)
	if a.fromCol != 1 {
		t.Errorf("expected hidden column A to be skipped, got col %d", a.fromCol)
	}
	if a.toRow != 0 || a.toRowOff != 30*emuPerPixel {
		t.Errorf("expected image to end inside the 40px row, got row %d off %d", a.toRow, a.toRowOff)
	}
}

func TestWriteDrawing(t *testing.T) {
	_, ws := newTestSheet(t)
	img, err := NewImageFromBytes(encodePNG(t, 20, 20))
	if err != nil {
		t.Fatalf("NewImageFromBytes failed: %v", err)
	}
	img.SetAltText("Company logo")
	if err := ws.InsertImage(1, 1, img); err != nil {
		t.Fatalf("InsertImage failed: %v", err)
	}
	ch := NewChart(ChartLine)
	ch.AddSeries().SetValues("Sheet1!$A$1:$A$3")
	if err := ws.InsertChart(5, 0, ch); err != nil {
		t.Fatalf("InsertChart failed: %v", err)
	}

	var rels relationships
	w := xw.New()
	ws.writeDrawing(w, drawingMedia{images: []string{"image1.png"}, charts: []int{4}}, &rels)
	out := w.String()

	mustContain(t, out, `<xdr:twoCellAnchor editAs="oneCell">`)
	mustContain(t, out, `<xdr:cNvPr id="2" name="Picture 1" descr="Company logo"/>`)
	mustContain(t, out, `r:embed="rId1"`)
	mustContain(t, out, `<xdr:cNvPr id="3" name="Chart 1"/>`)
	mustContain(t, out, `r:id="rId2"`)
	mustContain(t, out, `<xdr:graphicFrame macro="">`)

	rw := xw.New()
	rels.writeXML(rw)
	mustContain(t, rw.String(), `Target="../media/image1.png"`)
	mustContain(t, rw.String(), `Target="../charts/chart4.xml"`)
}

func TestWriteHeaderVML(t *testing.T) {
	_, ws := newTestSheet(t)
	img, err := NewImageFromBytes(encodePNG(t, 40, 20))
	if err != nil {
		t.Fatalf("NewImageFromBytes failed: %v", err)
	}
	ws.SetHeader("&C&G")
	ws.SetHeaderImage(HeaderCenter, img)

	var rels relationships
	w := xw.New()
	ws.writeHeaderVML(w, 2, [6]string{1: "image3.png"}, &rels)
	out := w.String()

	mustContain(t, out, `<o:idmap v:ext="edit" data="2"/>`)
	mustContain(t, out, `id="CH" o:spid="_x0000_s2049"`)
	mustContain(t, out, `width:30pt;height:15pt`)
	mustContain(t, out, `<v:imagedata o:relid="rId1" o:title="CH"/>`)
}
