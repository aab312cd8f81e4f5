package xmlwriter

import "testing"

func TestElements(t *testing.T) {
	w := New()
	w.XMLDeclaration()
	w.StartTag("row", Int("r", 1), Str("spans", "1:3"))
	w.EmptyTag("c", Str("r", "A1"))
	w.DataElement("v", "42")
	w.EndTag("row")

	want := declaration + `<row r="1" spans="1:3"><c r="A1"/><v>42</v></row>`
	if got := w.String(); got != want {
		t.Errorf("unexpected output:\n got: %s\nwant: %s", got, want)
	}
}

func TestEscapeData(t *testing.T) {
	got := EscapeData(`a & b < c > d "e" 'f'`)
	want := `a &amp; b &lt; c &gt; d &quot;e&quot; &apos;f&apos;`
	if got != want {
		t.Errorf("EscapeData = %q, want %q", got, want)
	}
}

func TestEscapeAttrNewline(t *testing.T) {
	got := EscapeAttr("line1\nline2 & \"x\"")
	want := "line1&#xA;line2 &amp; &quot;x&quot;"
	if got != want {
		t.Errorf("EscapeAttr = %q, want %q", got, want)
	}
}

func TestStripInvalid(t *testing.T) {
	in := "ok\x00\x01\tkept\n\r\uFFFEend\uFFFF"
	if got := StripInvalid(in); got != "ok\tkept\n\rend" {
		t.Errorf("StripInvalid = %q", got)
	}
	if got := StripInvalid("plain"); got != "plain" {
		t.Errorf("StripInvalid changed clean input: %q", got)
	}
}

func TestStripInvalidRepairsUTF8(t *testing.T) {
	if got := StripInvalid("caf\xe9"); got != "caf\uFFFD" {
		t.Errorf("StripInvalid = %q", got)
	}
	if got := EscapeData("a\xff<b"); got != "a\uFFFD&lt;b" {
		t.Errorf("EscapeData = %q", got)
	}
	if got := EscapeAttr("x\xc3"); got != "x\uFFFD" {
		t.Errorf("EscapeAttr = %q", got)
	}
}

func TestRawNotEscaped(t *testing.T) {
	w := New()
	w.StartTag("si")
	w.Raw("<r><t>&amp;</t></r>")
	w.EndTag("si")
	if got := w.String(); got != `<si><r><t>&amp;</t></r></si>` {
		t.Errorf("Raw = %s", got)
	}
}

func TestReset(t *testing.T) {
	w := New()
	w.Raw("<x/>")
	if w.Len() == 0 {
		t.Fatal("expected content before reset")
	}
	w.Reset()
	if w.Len() != 0 {
		t.Errorf("expected empty writer after Reset, got %d bytes", w.Len())
	}
}

func TestAttrHelpers(t *testing.T) {
	cases := []struct {
		attr Attr
		want string
	}{
		{Float("width", 9.140625), "9.140625"},
		{Float("ht", 15), "15"},
		{Bool("hidden", true), "1"},
		{Bool("hidden", false), "0"},
		{Uint("count", 7), "7"},
	}
	for _, c := range cases {
		if c.attr.Value != c.want {
			t.Errorf("%s = %q, want %q", c.attr.Key, c.attr.Value, c.want)
		}
	}
}
