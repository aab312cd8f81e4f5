package xlsx

import (
	"errors"
	"strings"
	"testing"

	"github.com/klytics/xlsxkit/pkg/xlsx/internal/sst"
	xw "github.com/klytics/xlsxkit/pkg/xlsx/internal/xmlwriter"
)

// linkXML assembles ws and returns the sheet part and its relationships.
func linkXML(t *testing.T, ws *Worksheet) (string, string) {
	t.Helper()
	parts := &sheetParts{}
	w := xw.New()
	if err := ws.assembleXML(w, sst.New(), parts); err != nil {
		t.Fatalf("assembleXML failed: %v", err)
	}
	if parts.rels.empty() {
		return w.String(), ""
	}
	rw := xw.New()
	parts.rels.writeXML(rw)
	return w.String(), rw.String()
}

func TestHyperlinkInternal(t *testing.T) {
	_, ws := newTestSheet(t)
	if err := ws.WriteURL(0, 0, "internal:'Q1 Data'!B3"); err != nil {
		t.Fatalf("WriteURL failed: %v", err)
	}
	out, rels := linkXML(t, ws)
	mustContain(t, out, `<hyperlink ref="A1" location="'Q1 Data'!B3" display="'Q1 Data'!B3"/>`)
	mustNotContain(t, out, `r:id=`)
	if rels != "" {
		t.Errorf("expected no relationships for an internal link, got %s", rels)
	}
	if got := cellString(t, ws, 0, 0); got != "'Q1 Data'!B3" {
		t.Errorf("expected cell text %q, got %q", "'Q1 Data'!B3", got)
	}
}

func TestHyperlinkExternalFile(t *testing.T) {
	_, ws := newTestSheet(t)
	if err := ws.WriteURL(0, 0, `external:C:\data\book.xlsx#Sheet1!A1`); err != nil {
		t.Fatalf("WriteURL failed: %v", err)
	}
	if err := ws.WriteURL(1, 0, "external:other book.xlsx#Data!C5"); err != nil {
		t.Fatalf("WriteURL failed: %v", err)
	}
	out, rels := linkXML(t, ws)
	mustContain(t, out, `<hyperlink ref="A1" r:id="rId1" location="Sheet1!A1" display="C:\data\book.xlsx#Sheet1!A1"/>`)
	mustContain(t, out, `<hyperlink ref="A2" r:id="rId2" location="Data!C5" display="other book.xlsx#Data!C5"/>`)
	mustContain(t, rels, `Id="rId1" Type="`+relHyperlink+`" Target="file:///C:/data/book.xlsx" TargetMode="External"`)
	mustContain(t, rels, `Id="rId2" Type="`+relHyperlink+`" Target="other%20book.xlsx" TargetMode="External"`)
	mustNotContain(t, rels, "#")
}

func TestHyperlinkMailtoDisplay(t *testing.T) {
	_, ws := newTestSheet(t)
	if err := ws.WriteURL(0, 0, "mailto:jo@example.com"); err != nil {
		t.Fatalf("WriteURL failed: %v", err)
	}
	if err := ws.WriteURLWithText(1, 0, "mailto:help@example.com", "Contact us"); err != nil {
		t.Fatalf("WriteURLWithText failed: %v", err)
	}
	if got := cellString(t, ws, 0, 0); got != "jo@example.com" {
		t.Errorf("expected cell text %q, got %q", "jo@example.com", got)
	}
	if got := cellString(t, ws, 1, 0); got != "Contact us" {
		t.Errorf("expected cell text %q, got %q", "Contact us", got)
	}
	out, rels := linkXML(t, ws)
	mustContain(t, out, `<hyperlink ref="A1" r:id="rId1" display="jo@example.com"/>`)
	mustContain(t, out, `<hyperlink ref="A2" r:id="rId2" display="Contact us"/>`)
	mustContain(t, rels, `Target="mailto:jo@example.com" TargetMode="External"`)
}

func TestHyperlinkWebLocationAndTip(t *testing.T) {
	_, ws := newTestSheet(t)
	u := NewURL("https://example.com/a b#top").SetText("Home").SetTip("Go & see")
	if err := ws.Write(2, 1, u); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out, rels := linkXML(t, ws)
	mustContain(t, out, `<hyperlink ref="B3" r:id="rId1" location="top" display="Home" tooltip="Go &amp; see"/>`)
	mustContain(t, rels, `Target="https://example.com/a%20b" TargetMode="External"`)
}

func TestHyperlinkDefaultFormat(t *testing.T) {
	wb, ws := newTestSheet(t)
	if err := ws.WriteURL(0, 0, "https://example.com"); err != nil {
		t.Fatalf("WriteURL failed: %v", err)
	}
	parts := saveParts(t, wb)
	mustContain(t, parts["xl/styles.xml"], `<u/>`)
	mustContain(t, parts["xl/styles.xml"], `rgb="FF0563C1"`)
}

func TestHyperlinkRejected(t *testing.T) {
	_, ws := newTestSheet(t)
	long := "https://example.com/" + strings.Repeat("a", MaxURLLen)
	err := ws.WriteURL(0, 0, long)
	if !errors.Is(err, ErrURLTooLong) {
		t.Errorf("expected ErrURLTooLong, got %v", err)
	}
	var ce *CellError
	if !errors.As(err, &ce) || ce.Row != 0 || ce.Col != 0 {
		t.Errorf("expected CellError at A1, got %v", err)
	}
	if err := ws.WriteURL(0, 1, "gopher://example.com"); !errors.Is(err, ErrParameter) {
		t.Errorf("expected ErrParameter for unknown scheme, got %v", err)
	}
	if len(ws.links) != 0 {
		t.Errorf("expected no stored links, got %d", len(ws.links))
	}
	if ws.cellAt(0, 0) != nil {
		t.Error("expected rejected link to leave the cell empty")
	}

	exact := "https://example.com/" + strings.Repeat("a", MaxURLLen-len("https://example.com/"))
	if err := ws.WriteURL(1, 0, exact); err != nil {
		t.Errorf("expected %d character url to be accepted, got %v", MaxURLLen, err)
	}
}

func TestHyperlinkLimit(t *testing.T) {
	_, ws := newTestSheet(t)
	for i := 0; i < MaxHyperlinks; i++ {
		if err := ws.WriteURL(RowNum(i), 0, "internal:A1"); err != nil {
			t.Fatalf("WriteURL %d failed: %v", i, err)
		}
	}
	err := ws.WriteURL(MaxHyperlinks, 0, "internal:A1")
	if !errors.Is(err, ErrMaxHyperlinks) {
		t.Errorf("expected ErrMaxHyperlinks, got %v", err)
	}
	// Replacing an existing link does not count against the limit.
	if err := ws.WriteURL(0, 0, "internal:B2"); err != nil {
		t.Errorf("expected overwrite to succeed, got %v", err)
	}
}
