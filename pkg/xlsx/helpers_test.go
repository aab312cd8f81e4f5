package xlsx

import (
	"bytes"
	"encoding/xml"
	"io"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/klytics/xlsxkit/pkg/xlsx/internal/sst"
	xw "github.com/klytics/xlsxkit/pkg/xlsx/internal/xmlwriter"
)

func newTestSheet(t *testing.T) (*Workbook, *Worksheet) {
	t.Helper()
	wb := NewWorkbook()
	ws, err := wb.AddWorksheet("")
	if err != nil {
		t.Fatalf("AddWorksheet failed: %v", err)
	}
	return wb, ws
}

// sheetXML assembles one worksheet part on its own.
func sheetXML(t *testing.T, ws *Worksheet) string {
	t.Helper()
	w := xw.New()
	if err := ws.assembleXML(w, sst.New(), &sheetParts{}); err != nil {
		t.Fatalf("assembleXML failed: %v", err)
	}
	return w.String()
}

// saveParts saves wb to memory and returns every archive entry by name.
func saveParts(t *testing.T, wb *Workbook) map[string]string {
	t.Helper()
	data, err := wb.SaveToBuffer()
	if err != nil {
		t.Fatalf("SaveToBuffer failed: %v", err)
	}
	return unzipParts(t, data)
}

func unzipParts(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("could not open archive: %v", err)
	}
	parts := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("could not open %s: %v", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("could not read %s: %v", f.Name, err)
		}
		parts[f.Name] = string(b)
	}
	return parts
}

func mustContain(t *testing.T, doc, want string) {
	t.Helper()
	if !bytes.Contains([]byte(doc), []byte(want)) {
		t.Errorf("expected output to contain %q\ngot: %s", want, doc)
	}
}

func mustNotContain(t *testing.T, doc, unwanted string) {
	t.Helper()
	if bytes.Contains([]byte(doc), []byte(unwanted)) {
		t.Errorf("expected output not to contain %q\ngot: %s", unwanted, doc)
	}
}

// wellFormed fails the test if doc does not parse as XML.
func wellFormed(t *testing.T, name, doc string) {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader([]byte(doc)))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return
		}
		if err != nil {
			t.Errorf("%s is not well-formed: %v", name, err)
			return
		}
	}
}
