package xlsx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/image/bmp"
)

// ImageType is the file format of an image.
type ImageType uint8

const (
	ImagePNG ImageType = iota + 1
	ImageJPEG
	ImageGIF
	ImageBMP
)

func (t ImageType) extension() string {
	switch t {
	case ImagePNG:
		return "png"
	case ImageJPEG:
		return "jpeg"
	case ImageGIF:
		return "gif"
	case ImageBMP:
		return "bmp"
	}
	return ""
}

func (t ImageType) String() string { return t.extension() }

// Image holds the bytes of a PNG, JPEG, GIF or BMP file together with the
// size and resolution read from its header. The bytes are never copied
// after loading; inserting the same Image many times stores it once.
type Image struct {
	data      []byte
	kind      ImageType
	width     uint32
	height    uint32
	widthDPI  float64
	heightDPI float64
	scaleW    float64
	scaleH    float64
	altText   string
	hash      uint64
}

// NewImage reads an image file.
func NewImage(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read image %s: %w", path, err)
	}
	img, err := NewImageFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", path, err)
	}
	return img, nil
}

// NewImageFromBytes parses an image held in memory. The slice must not be
// modified afterwards.
func NewImageFromBytes(data []byte) (*Image, error) {
	img := &Image{data: data, widthDPI: 96, heightDPI: 96, scaleW: 1, scaleH: 1}
	if err := img.parseHeader(); err != nil {
		return nil, err
	}
	if img.width == 0 || img.height == 0 {
		return nil, ErrImageDimension
	}
	img.hash = xxhash.Sum64(data)
	return img, nil
}

func (img *Image) Type() ImageType    { return img.kind }
func (img *Image) Width() uint32      { return img.width }
func (img *Image) Height() uint32     { return img.height }
func (img *Image) WidthDPI() float64  { return img.widthDPI }
func (img *Image) HeightDPI() float64 { return img.heightDPI }

// SetScale scales the displayed size. Non-positive factors are ignored.
func (img *Image) SetScale(width, height float64) *Image {
	if width > 0 {
		img.scaleW = width
	}
	if height > 0 {
		img.scaleH = height
	}
	return img
}

// SetAltText sets the accessibility description.
func (img *Image) SetAltText(text string) *Image {
	img.altText = text
	return img
}

// displayWidth and displayHeight are the on-sheet size in pixels,
// normalised to 96 dpi.
func (img *Image) displayWidth() float64 {
	return float64(img.width) * img.scaleW * 96 / img.widthDPI
}

func (img *Image) displayHeight() float64 {
	return float64(img.height) * img.scaleH * 96 / img.heightDPI
}

func (img *Image) sameContent(other *Image) bool {
	return img.hash == other.hash && bytes.Equal(img.data, other.data)
}

func (img *Image) parseHeader() error {
	d := img.data
	switch {
	case len(d) >= 8 && bytes.Equal(d[1:4], []byte("PNG")):
		img.kind = ImagePNG
		img.parsePNG()
	case len(d) >= 4 && d[0] == 0xFF && d[1] == 0xD8:
		img.kind = ImageJPEG
		img.parseJPEG()
	case len(d) >= 26 && d[0] == 'B' && d[1] == 'M':
		img.kind = ImageBMP
		img.parseBMP()
	case len(d) >= 10 && bytes.Equal(d[0:4], []byte("GIF8")):
		img.kind = ImageGIF
		img.width = uint32(binary.LittleEndian.Uint16(d[6:]))
		img.height = uint32(binary.LittleEndian.Uint16(d[8:]))
	default:
		return ErrUnknownImageType
	}
	return nil
}

// parsePNG walks the chunk list for IHDR and pHYs.
func (img *Image) parsePNG() {
	d := img.data
	for off := 8; off+8 <= len(d); {
		length := int(binary.BigEndian.Uint32(d[off:]))
		marker := string(d[off+4 : off+8])
		switch marker {
		case "IHDR":
			if off+16 <= len(d) {
				img.width = binary.BigEndian.Uint32(d[off+8:])
				img.height = binary.BigEndian.Uint32(d[off+12:])
			}
		case "pHYs":
			if off+17 <= len(d) && d[off+16] == 1 {
				x := binary.BigEndian.Uint32(d[off+8:])
				y := binary.BigEndian.Uint32(d[off+12:])
				if x != 0 {
					img.widthDPI = float64(x) * 0.0254
				}
				if y != 0 {
					img.heightDPI = float64(y) * 0.0254
				}
			}
		case "IEND":
			return
		}
		off += length + 12
	}
}

// parseJPEG reads the size from the first SOFn segment and the density
// from APP0.
func (img *Image) parseJPEG() {
	d := img.data
	for off := 2; off+4 <= len(d); {
		marker := binary.BigEndian.Uint16(d[off:])
		length := int(binary.BigEndian.Uint16(d[off+2:]))
		if marker&0xFFF0 == 0xFFC0 && marker != 0xFFC4 && marker != 0xFFC8 && marker != 0xFFCC {
			if off+9 <= len(d) {
				img.height = uint32(binary.BigEndian.Uint16(d[off+5:]))
				img.width = uint32(binary.BigEndian.Uint16(d[off+7:]))
			}
		}
		if marker == 0xFFE0 && off+16 <= len(d) {
			units := d[off+11]
			x := float64(binary.BigEndian.Uint16(d[off+12:]))
			y := float64(binary.BigEndian.Uint16(d[off+14:]))
			switch units {
			case 1:
				img.widthDPI, img.heightDPI = x, y
			case 2:
				img.widthDPI, img.heightDPI = x*2.54, y*2.54
			}
			if img.widthDPI == 0 || img.widthDPI == 1 {
				img.widthDPI = 96
			}
			if img.heightDPI == 0 || img.heightDPI == 1 {
				img.heightDPI = 96
			}
		}
		if marker == 0xFFDA {
			return
		}
		off += length + 2
	}
}

func (img *Image) parseBMP() {
	if cfg, err := bmp.DecodeConfig(bytes.NewReader(img.data)); err == nil {
		img.width, img.height = uint32(cfg.Width), uint32(cfg.Height)
		return
	}
	// Header variants the decoder rejects still carry the size here.
	img.width = binary.LittleEndian.Uint32(img.data[18:])
	img.height = binary.LittleEndian.Uint32(img.data[22:])
}

// HeaderImagePosition selects the header or footer section an image goes
// in.
type HeaderImagePosition uint8

const (
	HeaderLeft HeaderImagePosition = iota
	HeaderCenter
	HeaderRight
)

type placedImage struct {
	image *Image
	row   RowNum
	col   ColNum
	x, y  uint32
}

// InsertImage places an image with its top-left corner in a cell.
func (ws *Worksheet) InsertImage(row RowNum, col ColNum, img *Image) error {
	return ws.InsertImageWithOffset(row, col, img, 0, 0)
}

// InsertImageWithOffset places an image offset by x, y pixels from the
// top-left corner of a cell.
func (ws *Worksheet) InsertImageWithOffset(row RowNum, col ColNum, img *Image, x, y uint32) error {
	if err := checkCell(row, col); err != nil {
		return ws.cellError(row, col, err)
	}
	if img == nil {
		return ws.cellError(row, col, fmt.Errorf("%w: nil image", ErrParameter))
	}
	ws.images = append(ws.images, &placedImage{image: img, row: row, col: col, x: x, y: y})
	return nil
}

// SetHeaderImage places an image in the page header. The header text
// needs a matching &G in the same section.
func (ws *Worksheet) SetHeaderImage(pos HeaderImagePosition, img *Image) error {
	if pos > HeaderRight {
		return ws.sheetError(fmt.Errorf("%w: unknown header position %d", ErrParameter, pos))
	}
	ws.headerImages[pos] = img
	return nil
}

// SetFooterImage places an image in the page footer.
func (ws *Worksheet) SetFooterImage(pos HeaderImagePosition, img *Image) error {
	if pos > HeaderRight {
		return ws.sheetError(fmt.Errorf("%w: unknown footer position %d", ErrParameter, pos))
	}
	ws.footerImages[pos] = img
	return nil
}

func (ws *Worksheet) hasHeaderImages() bool {
	for i := range ws.headerImages {
		if ws.headerImages[i] != nil || ws.footerImages[i] != nil {
			return true
		}
	}
	return false
}
