package xlsx

import (
	"strings"
	"testing"

	xw "github.com/klytics/xlsxkit/pkg/xlsx/internal/xmlwriter"
)

func TestRegistryDefaultIsZero(t *testing.T) {
	r := newXFRegistry()
	if r.len() != 1 {
		t.Fatalf("expected 1 pre-registered format, got %d", r.len())
	}
	if got := r.register(NewFormat()); got != 0 {
		t.Errorf("expected default format at 0, got %d", got)
	}
}

func TestRegistryDeduplicates(t *testing.T) {
	r := newXFRegistry()
	bold := r.register(NewFormat().SetBold())
	italic := r.register(NewFormat().SetItalic())
	again := r.register(NewFormat().SetBold())

	if bold != 1 || italic != 2 {
		t.Errorf("expected first-seen order 1, 2; got %d, %d", bold, italic)
	}
	if again != bold {
		t.Errorf("expected equal formats to share index %d, got %d", bold, again)
	}
	if r.len() != 3 {
		t.Errorf("expected 3 formats, got %d", r.len())
	}
}

func TestRegistryNormalizesBackground(t *testing.T) {
	r := newXFRegistry()
	a := r.register(NewFormat().SetBackgroundColor(ColorRed))
	b := r.register(NewFormat().SetPattern(PatternSolid).SetForegroundColor(ColorRed))
	if a != b {
		t.Errorf("expected background-only and solid foreground fills to collapse, got %d and %d", a, b)
	}
}

func TestDXFRegistryStartsEmpty(t *testing.T) {
	r := newDXFRegistry()
	if r.len() != 0 {
		t.Fatalf("expected empty dxf registry, got %d", r.len())
	}
	if got := r.register(NewFormat().SetFontColor(ColorRed)); got != 0 {
		t.Errorf("expected first dxf at 0, got %d", got)
	}
}

func TestStylesCountsMatchRegistry(t *testing.T) {
	xfs := newXFRegistry()
	xfs.register(NewFormat().SetBold())
	xfs.register(NewFormat().SetNumFormat("0.000"))
	xfs.register(NewFormat().SetNumFormat("0.00"))
	dxfs := newDXFRegistry()
	dxfs.register(NewFormat().SetFontColor(ColorRed))

	w := xw.New()
	writeStyles(w, xfs, dxfs)
	out := w.String()

	mustContain(t, out, `<cellXfs count="4">`)
	mustContain(t, out, `<numFmt numFmtId="164" formatCode="0.000"/>`)
	mustContain(t, out, `numFmtId="2"`)
	mustContain(t, out, `<dxfs count="1">`)
	if strings.Count(out, "<numFmt ") != 1 {
		t.Errorf("expected only the custom number format to be listed")
	}
}
