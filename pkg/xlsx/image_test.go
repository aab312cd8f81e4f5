package xlsx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/gif"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"

	xw "github.com/klytics/xlsxkit/pkg/xlsx/internal/xmlwriter"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}
	return buf.Bytes()
}

// withPHYs inserts a pHYs chunk after IHDR. The CRC is left zero; the
// header parser does not check it.
func withPHYs(data []byte, pxPerMetre uint32) []byte {
	chunk := make([]byte, 21)
	binary.BigEndian.PutUint32(chunk[0:], 9)
	copy(chunk[4:], "pHYs")
	binary.BigEndian.PutUint32(chunk[8:], pxPerMetre)
	binary.BigEndian.PutUint32(chunk[12:], pxPerMetre)
	chunk[16] = 1
	const ihdrEnd = 8 + 25
	out := append([]byte(nil), data[:ihdrEnd]...)
	out = append(out, chunk...)
	return append(out, data[ihdrEnd:]...)
}

func minimalJPEG(width, height, dpi uint16) []byte {
	var b bytes.Buffer
	b.Write([]byte{0xFF, 0xD8})
	// APP0 (JFIF) with density in dots per inch.
	b.Write([]byte{0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x01})
	binary.Write(&b, binary.BigEndian, dpi)
	binary.Write(&b, binary.BigEndian, dpi)
	b.Write([]byte{0x00, 0x00})
	// SOF0
	b.Write([]byte{0xFF, 0xC0, 0x00, 0x11, 0x08})
	binary.Write(&b, binary.BigEndian, height)
	binary.Write(&b, binary.BigEndian, width)
	b.Write([]byte{0x03, 0x01, 0x22, 0x00, 0x02, 0x11, 0x01, 0x03, 0x11, 0x01})
	b.Write([]byte{0xFF, 0xDA, 0x00, 0x02})
	return b.Bytes()
}

func TestImagePNG(t *testing.T) {
	img, err := NewImageFromBytes(encodePNG(t, 3, 2))
	if err != nil {
		t.Fatalf("NewImageFromBytes failed: %v", err)
	}
	if img.Type() != ImagePNG || img.Width() != 3 || img.Height() != 2 {
		t.Errorf("expected 3x2 png, got %s %dx%d", img.Type(), img.Width(), img.Height())
	}
	if img.WidthDPI() != 96 {
		t.Errorf("expected default 96 dpi, got %v", img.WidthDPI())
	}

	hi, err := NewImageFromBytes(withPHYs(encodePNG(t, 3, 2), 5906))
	if err != nil {
		t.Fatalf("NewImageFromBytes failed: %v", err)
	}
	if math.Abs(hi.WidthDPI()-150) > 0.1 || math.Abs(hi.HeightDPI()-150) > 0.1 {
		t.Errorf("expected ~150 dpi from pHYs, got %v x %v", hi.WidthDPI(), hi.HeightDPI())
	}
}

func TestImagePNGZeroDensity(t *testing.T) {
	img, err := NewImageFromBytes(withPHYs(encodePNG(t, 30, 20), 0))
	if err != nil {
		t.Fatalf("NewImageFromBytes failed: %v", err)
	}
	if img.WidthDPI() != 96 || img.HeightDPI() != 96 {
		t.Errorf("expected 96 dpi for zero pHYs density, got %v x %v", img.WidthDPI(), img.HeightDPI())
	}
	if w, h := img.displayWidth(), img.displayHeight(); w != 30 || h != 20 {
		t.Errorf("expected 30x20 display size, got %vx%v", w, h)
	}

	_, ws := newTestSheet(t)
	if err := ws.InsertImage(0, 0, img); err != nil {
		t.Fatalf("InsertImage failed: %v", err)
	}
	var rels relationships
	w := xw.New()
	ws.writeDrawing(w, drawingMedia{images: []string{"image1.png"}}, &rels)
	mustContain(t, w.String(), `<a:ext cx="285750" cy="190500"/>`)
}

func TestImageJPEG(t *testing.T) {
	img, err := NewImageFromBytes(minimalJPEG(40, 30, 72))
	if err != nil {
		t.Fatalf("NewImageFromBytes failed: %v", err)
	}
	if img.Type() != ImageJPEG || img.Width() != 40 || img.Height() != 30 {
		t.Errorf("expected 40x30 jpeg, got %s %dx%d", img.Type(), img.Width(), img.Height())
	}
	if img.WidthDPI() != 72 {
		t.Errorf("expected 72 dpi, got %v", img.WidthDPI())
	}
	if got := img.displayWidth(); math.Abs(got-40*96.0/72) > 1e-9 {
		t.Errorf("expected display width scaled to 96 dpi, got %v", got)
	}

	unitless, err := NewImageFromBytes(minimalJPEG(40, 30, 1))
	if err != nil {
		t.Fatalf("NewImageFromBytes failed: %v", err)
	}
	if unitless.WidthDPI() != 96 {
		t.Errorf("expected density of 1 to fall back to 96 dpi, got %v", unitless.WidthDPI())
	}
}

func TestImageBMPAndGIF(t *testing.T) {
	var bmpBuf bytes.Buffer
	if err := bmp.Encode(&bmpBuf, image.NewRGBA(image.Rect(0, 0, 5, 4))); err != nil {
		t.Fatalf("bmp.Encode failed: %v", err)
	}
	b, err := NewImageFromBytes(bmpBuf.Bytes())
	if err != nil {
		t.Fatalf("NewImageFromBytes(bmp) failed: %v", err)
	}
	if b.Type() != ImageBMP || b.Width() != 5 || b.Height() != 4 {
		t.Errorf("expected 5x4 bmp, got %s %dx%d", b.Type(), b.Width(), b.Height())
	}

	var gifBuf bytes.Buffer
	if err := gif.Encode(&gifBuf, image.NewPaletted(image.Rect(0, 0, 7, 6), nil), nil); err != nil {
		t.Fatalf("gif.Encode failed: %v", err)
	}
	g, err := NewImageFromBytes(gifBuf.Bytes())
	if err != nil {
		t.Fatalf("NewImageFromBytes(gif) failed: %v", err)
	}
	if g.Type() != ImageGIF || g.Width() != 7 || g.Height() != 6 {
		t.Errorf("expected 7x6 gif, got %s %dx%d", g.Type(), g.Width(), g.Height())
	}
}

func TestImageErrors(t *testing.T) {
	if _, err := NewImageFromBytes([]byte("not an image at all")); !errors.Is(err, ErrUnknownImageType) {
		t.Errorf("expected ErrUnknownImageType, got %v", err)
	}
	if _, err := NewImageFromBytes(minimalJPEG(0, 30, 72)); !errors.Is(err, ErrImageDimension) {
		t.Errorf("expected ErrImageDimension, got %v", err)
	}
	if _, err := NewImage(filepath.Join(t.TempDir(), "missing.png")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}

func TestNewImageFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	if err := os.WriteFile(path, encodePNG(t, 8, 8), 0o644); err != nil {
		t.Fatalf("could not write fixture: %v", err)
	}
	img, err := NewImage(path)
	if err != nil {
		t.Fatalf("NewImage failed: %v", err)
	}
	if img.Width() != 8 {
		t.Errorf("expected width 8, got %d", img.Width())
	}
}

func TestImageSameContent(t *testing.T) {
	data := encodePNG(t, 2, 2)
	a, _ := NewImageFromBytes(data)
	b, _ := NewImageFromBytes(append([]byte(nil), data...))
	c, _ := NewImageFromBytes(encodePNG(t, 3, 3))
	if !a.sameContent(b) {
		t.Errorf("expected identical bytes to match")
	}
	if a.sameContent(c) {
		t.Errorf("expected different images not to match")
	}
}

func TestHeaderImagePlaceholders(t *testing.T) {
	_, ws := newTestSheet(t)
	logo, err := NewImageFromBytes(encodePNG(t, 4, 4))
	if err != nil {
		t.Fatalf("NewImageFromBytes failed: %v", err)
	}
	ws.SetHeader("&L&G")
	if err := ws.validate(); !errors.Is(err, ErrHeaderImageMismatch) {
		t.Errorf("expected ErrHeaderImageMismatch without an image, got %v", err)
	}
	if err := ws.SetHeaderImage(HeaderLeft, logo); err != nil {
		t.Fatalf("SetHeaderImage failed: %v", err)
	}
	if err := ws.validate(); err != nil {
		t.Errorf("expected matching header to validate, got %v", err)
	}
	if err := ws.SetFooterImage(HeaderRight, logo); err != nil {
		t.Fatalf("SetFooterImage failed: %v", err)
	}
	var sheetErr *SheetError
	if err := ws.validate(); !errors.As(err, &sheetErr) {
		t.Errorf("expected *SheetError for footer image without &G, got %v", err)
	}
	if err := ws.SetHeaderImage(HeaderImagePosition(5), logo); !errors.Is(err, ErrParameter) {
		t.Errorf("expected ErrParameter for bad position, got %v", err)
	}
}
