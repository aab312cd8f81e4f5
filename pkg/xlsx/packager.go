package xlsx

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/klytics/xlsxkit/pkg/xlsx/internal/sst"
	xw "github.com/klytics/xlsxkit/pkg/xlsx/internal/xmlwriter"
)

// zipModified is stamped on every archive entry so that saving an
// unchanged workbook twice produces the same bytes.
var zipModified = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

type part struct {
	name string
	data []byte
}

type mediaFile struct {
	image *Image
	name  string
}

// packager turns a workbook into package parts. It is built fresh for
// every save and only reads the workbook.
type packager struct {
	wb    *Workbook
	parts []part
	media map[uint64][]mediaFile
	count int
	ct    *contentTypes

	sheetCT, drawingCT, chartCT, tableCT []string
}

func newPackager(wb *Workbook) *packager {
	return &packager{wb: wb, media: make(map[uint64][]mediaFile), ct: newContentTypes()}
}

func (p *packager) add(name string, w *xw.Writer) {
	data := append([]byte(nil), w.Bytes()...)
	p.parts = append(p.parts, part{name: name, data: data})
	p.wb.logger.Printf("debug: %s (%d bytes)", name, len(data))
}

// mediaName returns the xl/media file name for img, storing identical
// bytes once.
func (p *packager) mediaName(img *Image) string {
	for _, m := range p.media[img.hash] {
		if m.image.sameContent(img) {
			return m.name
		}
	}
	p.count++
	name := "image" + strconv.Itoa(p.count) + "." + img.kind.extension()
	p.media[img.hash] = append(p.media[img.hash], mediaFile{image: img, name: name})
	p.parts = append(p.parts, part{name: "xl/media/" + name, data: img.data})
	p.ct.images[img.kind] = true
	return name
}

func packageError(name string, err error) error {
	return &PackageError{Part: name, Err: err}
}

// build assembles every part in dependency order: worksheets first so
// the shared strings are complete, then strings, styles and workbook.
func (p *packager) build() ([]part, error) {
	wb := p.wb
	if len(wb.sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no worksheets", ErrParameter)
	}
	for _, ws := range wb.sheets {
		if err := ws.validate(); err != nil {
			return nil, err
		}
	}

	strs := sst.New()
	var drawings, charts, tables, vmls int
	dynamic := false
	for i, ws := range wb.sheets {
		sheetName := fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1)
		parts := &sheetParts{}
		if len(ws.images) > 0 || len(ws.charts) > 0 {
			drawings++
			parts.drawing = drawings
		}
		if ws.hasHeaderImages() {
			vmls++
			parts.vml = vmls
		}
		for range ws.tables {
			tables++
			parts.tables = append(parts.tables, tables)
		}
		for _, cf := range ws.condFormats {
			if cf.rule.usesDXF() && !wb.dxfs.has(cf.dxf) {
				return nil, packageError(sheetName, fmt.Errorf("%w: conditional format %s uses dxf %d", ErrReferential, cf.area, cf.dxf))
			}
		}
		dynamic = dynamic || ws.hasDynamicArrays()

		w := xw.New()
		if err := ws.assembleXML(w, strs, parts); err != nil {
			return nil, packageError(sheetName, err)
		}
		p.add(sheetName, w)
		p.sheetCT = append(p.sheetCT, "/"+sheetName)

		if parts.drawing > 0 {
			media := drawingMedia{}
			for _, img := range ws.images {
				media.images = append(media.images, p.mediaName(img.image))
			}
			for _, ch := range ws.charts {
				charts++
				media.charts = append(media.charts, charts)
				cw := xw.New()
				writeChart(cw, ch.chart)
				name := fmt.Sprintf("xl/charts/chart%d.xml", charts)
				p.add(name, cw)
				p.chartCT = append(p.chartCT, "/"+name)
			}
			var rels relationships
			dw := xw.New()
			ws.writeDrawing(dw, media, &rels)
			name := fmt.Sprintf("xl/drawings/drawing%d.xml", parts.drawing)
			p.add(name, dw)
			p.addRels(fmt.Sprintf("xl/drawings/_rels/drawing%d.xml.rels", parts.drawing), &rels)
			p.drawingCT = append(p.drawingCT, "/"+name)
		}

		for j, t := range ws.tables {
			tw := xw.New()
			writeTable(tw, t, parts.tables[j])
			name := fmt.Sprintf("xl/tables/table%d.xml", parts.tables[j])
			p.add(name, tw)
			p.tableCT = append(p.tableCT, "/"+name)
		}

		if parts.vml > 0 {
			var media [6]string
			for slot, img := range ws.headerFooterImages() {
				if img != nil {
					media[slot] = p.mediaName(img)
				}
			}
			var rels relationships
			vw := xw.New()
			ws.writeHeaderVML(vw, parts.vml, media, &rels)
			p.add(fmt.Sprintf("xl/drawings/vmlDrawing%d.vml", parts.vml), vw)
			p.addRels(fmt.Sprintf("xl/drawings/_rels/vmlDrawing%d.vml.rels", parts.vml), &rels)
			p.ct.vml = true
		}

		p.addRels(fmt.Sprintf("xl/worksheets/_rels/sheet%d.xml.rels", i+1), &parts.rels)
	}

	if strs.Len() > 0 {
		w := xw.New()
		strs.WriteXML(w)
		p.add("xl/sharedStrings.xml", w)
		wb.logger.Printf("debug: %d unique strings, %d references", strs.Len(), strs.Count())
	}

	sw := xw.New()
	writeStyles(sw, wb.xfs, wb.dxfs)
	p.add("xl/styles.xml", sw)

	if dynamic {
		mw := xw.New()
		writeMetadataXML(mw)
		p.add("xl/metadata.xml", mw)
	}

	var wbRels relationships
	sheetRels := make([]string, len(wb.sheets))
	sheetNames := make([]string, len(wb.sheets))
	for i, ws := range wb.sheets {
		sheetRels[i] = wbRels.add(relWorksheet, fmt.Sprintf("worksheets/sheet%d.xml", i+1))
		sheetNames[i] = ws.name
	}
	wbRels.add(relStyles, "styles.xml")
	if strs.Len() > 0 {
		wbRels.add(relSharedStrings, "sharedStrings.xml")
	}
	if dynamic {
		wbRels.add(relSheetMetadata, "metadata.xml")
	}
	ww := xw.New()
	wb.writeWorkbookXML(ww, sheetRels)
	p.add("xl/workbook.xml", ww)
	p.addRels("xl/_rels/workbook.xml.rels", &wbRels)

	var rootRels relationships
	rootRels.add(relOfficeDocument, "xl/workbook.xml")
	rootRels.add(relCore, "docProps/core.xml")
	rootRels.add(relExtended, "docProps/app.xml")
	if len(wb.custom) > 0 {
		rootRels.add(relCustom, "docProps/custom.xml")
	}
	p.addRels("_rels/.rels", &rootRels)

	cw := xw.New()
	writeCoreXML(cw, wb.props)
	p.add("docProps/core.xml", cw)
	aw := xw.New()
	writeAppXML(aw, wb.props, sheetNames)
	p.add("docProps/app.xml", aw)
	if len(wb.custom) > 0 {
		uw := xw.New()
		writeCustomXML(uw, wb.custom)
		p.add("docProps/custom.xml", uw)
	}

	p.ct.add("/docProps/app.xml", ctApp)
	p.ct.add("/docProps/core.xml", ctCore)
	if len(wb.custom) > 0 {
		p.ct.add("/docProps/custom.xml", ctCustom)
	}
	p.ct.add("/xl/workbook.xml", ctWorkbook)
	for _, name := range p.sheetCT {
		p.ct.add(name, ctWorksheet)
	}
	p.ct.add("/xl/styles.xml", ctStyles)
	if strs.Len() > 0 {
		p.ct.add("/xl/sharedStrings.xml", ctSharedStrings)
	}
	for _, name := range p.drawingCT {
		p.ct.add(name, ctDrawing)
	}
	for _, name := range p.chartCT {
		p.ct.add(name, ctChart)
	}
	for _, name := range p.tableCT {
		p.ct.add(name, ctTable)
	}
	if dynamic {
		p.ct.add("/xl/metadata.xml", ctMetadata)
	}
	tw := xw.New()
	p.ct.writeXML(tw)

	all := make([]part, 0, len(p.parts)+1)
	all = append(all, part{name: "[Content_Types].xml", data: append([]byte(nil), tw.Bytes()...)})
	all = append(all, p.parts...)
	return all, nil
}

func (p *packager) addRels(name string, rels *relationships) {
	if rels.empty() {
		return
	}
	w := xw.New()
	rels.writeXML(w)
	p.add(name, w)
}

func writeArchive(out io.Writer, parts []part) error {
	zw := zip.NewWriter(out)
	for _, pt := range parts {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     pt.name,
			Method:   zip.Deflate,
			Modified: zipModified,
		})
		if err != nil {
			return packageError(pt.name, err)
		}
		if _, err := fw.Write(pt.data); err != nil {
			return packageError(pt.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("could not finalize archive: %w", err)
	}
	return nil
}

// SaveToWriter writes the workbook as an .xlsx package to out.
func (wb *Workbook) SaveToWriter(out io.Writer) error {
	parts, err := newPackager(wb).build()
	if err != nil {
		return err
	}
	return writeArchive(out, parts)
}

// SaveToBuffer returns the workbook as .xlsx bytes.
func (wb *Workbook) SaveToBuffer() ([]byte, error) {
	var buf bytes.Buffer
	if err := wb.SaveToWriter(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the workbook to path. The file is written next to the
// target and renamed into place, so a failed save leaves any existing
// file untouched. A new file gets mode 0644; a replaced file keeps its
// mode.
func (wb *Workbook) Save(path string) error {
	data, err := wb.SaveToBuffer()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".xlsxkit-*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temporary file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("could not set mode on %s: %w", tmpName, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("could not write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("could not close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("could not move workbook to %s: %w", path, err)
	}
	wb.logger.Printf("saved %s (%d bytes)", path, len(data))
	return nil
}
