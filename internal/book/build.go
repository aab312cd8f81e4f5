package book

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klytics/xlsxkit/pkg/xlsx"
)

// Defaults fill in what a description leaves out. They usually come from
// the user's configuration.
type Defaults struct {
	Author     string
	Company    string
	DateFormat string
	TableStyle string
}

// Options control Build.
type Options struct {
	// BaseDir resolves relative image paths.
	BaseDir  string
	Defaults Defaults
	Logger   *log.Logger
	// OnSheet is called after each worksheet is built.
	OnSheet func(done, total int, name string)
}

// Result summarises a saved workbook.
type Result struct {
	Output string `json:"output"`
	Sheets int    `json:"sheets"`
	Bytes  int64  `json:"bytes"`
}

type builder struct {
	book    *Book
	opts    Options
	wb      *xlsx.Workbook
	formats map[string]xlsx.Format
	records int
}

// Build turns a description into a workbook ready to save.
func Build(b *Book, opts Options) (*xlsx.Workbook, error) {
	bd := &builder{
		book:    b,
		opts:    opts,
		wb:      xlsx.NewWorkbook(),
		formats: make(map[string]xlsx.Format, len(b.Formats)),
	}
	if opts.Logger != nil {
		bd.wb.SetLogger(opts.Logger)
	}
	if opts.Defaults.DateFormat != "" {
		bd.wb.SetDefaultDateTimeFormat(opts.Defaults.DateFormat)
	}
	if err := bd.properties(); err != nil {
		return nil, err
	}
	for name, spec := range b.Formats {
		f, err := spec.Format()
		if err != nil {
			return nil, fmt.Errorf("format %q: %w", name, err)
		}
		bd.formats[name] = f
	}
	for i := range b.Sheets {
		s := &b.Sheets[i]
		ws, err := bd.wb.AddWorksheet(s.Name)
		if err != nil {
			return nil, err
		}
		if err := bd.sheet(ws, s); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", ws.Name(), err)
		}
		if opts.OnSheet != nil {
			opts.OnSheet(i+1, len(b.Sheets), ws.Name())
		}
	}
	names := make([]string, 0, len(b.Names))
	for name := range b.Names {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := bd.wb.DefineName(name, b.Names[name]); err != nil {
			return nil, fmt.Errorf("defined name %q: %w", name, err)
		}
	}
	return bd.wb, nil
}

// BuildFile loads the description at path, builds it and saves the
// workbook to output.
func BuildFile(path, output string, opts Options) (*Result, error) {
	b, err := Load(path)
	if err != nil {
		return nil, err
	}
	if opts.BaseDir == "" {
		opts.BaseDir = filepath.Dir(path)
	}
	wb, err := Build(b, opts)
	if err != nil {
		return nil, err
	}
	return Save(wb, output)
}

// OutputPath names the workbook built from desc: the description's base
// name with an .xlsx extension, placed in dir or next to desc when dir is
// empty.
func OutputPath(desc, dir string) string {
	base := strings.TrimSuffix(filepath.Base(desc), filepath.Ext(desc)) + ".xlsx"
	if dir == "" {
		dir = filepath.Dir(desc)
	}
	return filepath.Join(dir, base)
}

// Save writes wb to output and reports its size.
func Save(wb *xlsx.Workbook, output string) (*Result, error) {
	if err := wb.Save(output); err != nil {
		return nil, fmt.Errorf("could not save %s: %w", output, err)
	}
	info, err := os.Stat(output)
	if err != nil {
		return nil, fmt.Errorf("could not stat %s: %w", output, err)
	}
	return &Result{Output: output, Sheets: len(wb.Worksheets()), Bytes: info.Size()}, nil
}

// Dependencies lists the files other than the description itself that a
// build reads, resolved against baseDir.
func (b *Book) Dependencies(baseDir string) []string {
	seen := make(map[string]bool)
	var deps []string
	for _, s := range b.Sheets {
		for _, img := range s.Images {
			p := resolve(baseDir, img.Path)
			if !seen[p] {
				seen[p] = true
				deps = append(deps, p)
			}
		}
	}
	return deps
}

func resolve(baseDir, path string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

func (bd *builder) properties() error {
	p := bd.book.Properties
	if p.Author == "" {
		p.Author = bd.opts.Defaults.Author
	}
	if p.Company == "" {
		p.Company = bd.opts.Defaults.Company
	}
	bd.wb.SetProperties(xlsx.DocProperties{
		Title:    p.Title,
		Subject:  p.Subject,
		Author:   p.Author,
		Manager:  p.Manager,
		Company:  p.Company,
		Category: p.Category,
		Keywords: p.Keywords,
		Comment:  p.Comment,
		Status:   p.Status,
	})
	keys := make([]string, 0, len(p.Custom))
	for k := range p.Custom {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := bd.wb.SetCustomProperty(k, Value(p.Custom[k])); err != nil {
			return fmt.Errorf("custom property %q: %w", k, err)
		}
	}
	return nil
}

// format returns the named format. Names were checked when the
// description was parsed; an empty name is the default format.
func (bd *builder) format(name string) xlsx.Format {
	if name == "" {
		return xlsx.NewFormat()
	}
	return bd.formats[name]
}

func (bd *builder) sheet(ws *xlsx.Worksheet, s *Sheet) error {
	if err := bd.view(ws, s); err != nil {
		return err
	}
	for _, c := range s.Columns {
		if err := bd.column(ws, c); err != nil {
			return err
		}
	}
	for _, r := range s.Rows {
		row, col, err := ParseCell(r.At)
		if err != nil {
			return err
		}
		values := make([]any, len(r.Values))
		for i, v := range r.Values {
			values[i] = Value(v)
		}
		if r.Format != "" {
			err = ws.WriteRow(row, col, values, bd.format(r.Format))
		} else {
			err = ws.WriteRow(row, col, values)
		}
		if err != nil {
			return err
		}
	}
	for _, c := range s.Cells {
		if err := bd.cell(ws, c); err != nil {
			return err
		}
	}
	for _, r := range s.Records {
		if err := bd.recordBlock(ws, r); err != nil {
			return err
		}
	}
	for _, m := range s.Merges {
		r, err := ParseRange(m.Range)
		if err != nil {
			return err
		}
		if err := ws.MergeRange(r.FirstRow, r.FirstCol, r.LastRow, r.LastCol, m.Text, bd.format(m.Format)); err != nil {
			return err
		}
	}
	for _, t := range s.Tables {
		if err := bd.table(ws, t); err != nil {
			return err
		}
	}
	for _, c := range s.Conditionals {
		if err := bd.conditional(ws, c); err != nil {
			return err
		}
	}
	for _, img := range s.Images {
		if err := bd.image(ws, img); err != nil {
			return err
		}
	}
	for _, ch := range s.Charts {
		if err := bd.chart(ws, ch); err != nil {
			return err
		}
	}
	if s.Autofilter != "" {
		r, err := ParseRange(s.Autofilter)
		if err != nil {
			return err
		}
		if err := ws.Autofilter(r.FirstRow, r.FirstCol, r.LastRow, r.LastCol); err != nil {
			return err
		}
	}
	if s.Autofit {
		ws.Autofit()
	}
	return nil
}

func (bd *builder) view(ws *xlsx.Worksheet, s *Sheet) error {
	if s.Hidden {
		ws.SetHidden(true)
	}
	if s.Active {
		ws.SetActive()
	}
	if s.TabColor != "" {
		c, err := parseColor("tab_color", s.TabColor)
		if err != nil {
			return err
		}
		ws.SetTabColor(c)
	}
	if s.Zoom != 0 {
		if err := ws.SetZoom(s.Zoom); err != nil {
			return err
		}
	}
	if s.Freeze != "" {
		row, col, err := ParseCell(s.Freeze)
		if err != nil {
			return err
		}
		if err := ws.FreezePanes(row, col); err != nil {
			return err
		}
	}
	if s.Landscape {
		ws.SetLandscape()
	}
	if s.Header != "" {
		if err := ws.SetHeader(s.Header); err != nil {
			return err
		}
	}
	if s.Footer != "" {
		if err := ws.SetFooter(s.Footer); err != nil {
			return err
		}
	}
	if s.PrintArea != "" {
		r, err := ParseRange(s.PrintArea)
		if err != nil {
			return err
		}
		if err := ws.SetPrintArea(r.FirstRow, r.FirstCol, r.LastRow, r.LastCol); err != nil {
			return err
		}
	}
	return nil
}

func (bd *builder) column(ws *xlsx.Worksheet, c Column) error {
	first, last, err := ParseColumns(c.Col)
	if err != nil {
		return err
	}
	for col := first; col <= last; col++ {
		if c.Width > 0 {
			if err := ws.SetColumnWidth(col, c.Width); err != nil {
				return err
			}
		}
		if c.Format != "" {
			if err := ws.SetColumnFormat(col, bd.format(c.Format)); err != nil {
				return err
			}
		}
		if c.Hidden {
			if err := ws.SetColumnHidden(col); err != nil {
				return err
			}
		}
	}
	return nil
}

func (bd *builder) cell(ws *xlsx.Worksheet, c Cell) error {
	row, col, err := ParseCell(c.Ref)
	if err != nil {
		return err
	}
	var value any
	switch {
	case c.Formula != "":
		value = xlsx.NewFormula(c.Formula).SetResult(c.Result)
	case c.URL != "":
		u := xlsx.NewURL(c.URL)
		if text, ok := c.Value.(string); ok && text != "" {
			u = u.SetText(text)
		}
		value = u
	default:
		value = Value(c.Value)
	}
	if c.Format != "" {
		return ws.WriteWithFormat(row, col, value, bd.format(c.Format))
	}
	return ws.Write(row, col, value)
}

// recordRow adapts one map item to xlsx.Record so the serializer can
// place it below its header row.
type recordRow struct {
	typ    string
	fields []string
	item   map[string]any
}

func (r recordRow) TypeName() string     { return r.typ }
func (r recordRow) FieldNames() []string { return r.fields }
func (r recordRow) FieldValues() ([]any, error) {
	values := make([]any, len(r.fields))
	for i, f := range r.fields {
		values[i] = Value(r.item[f])
	}
	return values, nil
}

var headerCases = map[string]xlsx.HeaderCase{
	"":       xlsx.CaseUnchanged,
	"snake":  xlsx.CaseSnake,
	"kebab":  xlsx.CaseKebab,
	"camel":  xlsx.CaseCamel,
	"pascal": xlsx.CasePascal,
	"upper":  xlsx.CaseUpper,
}

// recordFields returns the declared field order, or the sorted union of
// the item keys when none is declared.
func recordFields(r Records) []string {
	if len(r.Fields) > 0 {
		return r.Fields
	}
	seen := make(map[string]bool)
	var fields []string
	for _, item := range r.Items {
		for k := range item {
			if !seen[k] {
				seen[k] = true
				fields = append(fields, k)
			}
		}
	}
	sort.Strings(fields)
	return fields
}

func (bd *builder) recordBlock(ws *xlsx.Worksheet, r Records) error {
	at := r.At
	if at == "" {
		at = "A1"
	}
	row, col, err := ParseCell(at)
	if err != nil {
		return err
	}
	hc, ok := headerCases[strings.ToLower(r.Case)]
	if !ok {
		return fmt.Errorf("unknown header case %q", r.Case)
	}
	bd.records++
	schema := recordRow{
		typ:    fmt.Sprintf("%s/records%d", ws.Name(), bd.records),
		fields: recordFields(r),
	}
	opts := xlsx.NewHeaderOptions().RenameAll(hc).HideHeaders(r.HideHeaders)
	if r.HeaderFormat != "" {
		opts = opts.SetHeaderFormat(bd.format(r.HeaderFormat))
	}
	var custom []xlsx.CustomField
	for _, f := range schema.fields {
		if header, ok := r.Rename[f]; ok {
			custom = append(custom, xlsx.NewCustomField(f).Rename(header))
		}
	}
	if len(custom) > 0 {
		opts = opts.SetCustomHeaders(custom...)
	}
	if err := ws.SerializeHeadersWithOptions(row, col, schema, opts); err != nil {
		return err
	}
	for _, item := range r.Items {
		rec := schema
		rec.item = item
		if err := ws.Serialize(rec); err != nil {
			return err
		}
	}
	return nil
}

func (bd *builder) table(ws *xlsx.Worksheet, t Table) error {
	r, err := ParseRange(t.Range)
	if err != nil {
		return err
	}
	tbl := xlsx.NewTable()
	if t.Name != "" {
		tbl.SetName(t.Name)
	}
	style := t.Style
	if style == "" {
		style = bd.opts.Defaults.TableStyle
	}
	if style != "" {
		tbl.SetStyle(style)
	}
	if len(t.Columns) > 0 {
		tbl.SetColumnHeaders(t.Columns...)
	}
	return ws.AddTable(r.FirstRow, r.FirstCol, r.LastRow, r.LastCol, tbl)
}

var cellOperators = map[string]xlsx.CellOperator{
	"==":                    xlsx.CellEqual,
	"equal":                 xlsx.CellEqual,
	"!=":                    xlsx.CellNotEqual,
	"not_equal":             xlsx.CellNotEqual,
	">":                     xlsx.CellGreaterThan,
	"greater_than":          xlsx.CellGreaterThan,
	">=":                    xlsx.CellGreaterThanOrEqual,
	"greater_than_or_equal": xlsx.CellGreaterThanOrEqual,
	"<":                     xlsx.CellLessThan,
	"less_than":             xlsx.CellLessThan,
	"<=":                    xlsx.CellLessThanOrEqual,
	"less_than_or_equal":    xlsx.CellLessThanOrEqual,
	"between":               xlsx.CellBetween,
	"not_between":           xlsx.CellNotBetween,
}

func (bd *builder) colors(c Conditional, want int) ([]xlsx.Color, error) {
	if len(c.Colors) != want {
		return nil, fmt.Errorf("%s rule needs %d colour(s), got %d", c.Type, want, len(c.Colors))
	}
	out := make([]xlsx.Color, want)
	for i, s := range c.Colors {
		col, err := parseColor("colors", s)
		if err != nil {
			return nil, err
		}
		out[i] = col
	}
	return out, nil
}

func (bd *builder) conditional(ws *xlsx.Worksheet, c Conditional) error {
	r, err := ParseRange(c.Range)
	if err != nil {
		return err
	}
	var cf xlsx.ConditionalFormat
	switch strings.ToLower(c.Type) {
	case "cell", "":
		op, ok := cellOperators[strings.ToLower(c.Operator)]
		if !ok {
			return fmt.Errorf("unknown operator %q", c.Operator)
		}
		cf = xlsx.ConditionalCell(op, bd.format(c.Format), c.Values...)
	case "formula":
		cf = xlsx.ConditionalFormula(c.Formula, bd.format(c.Format))
	case "data_bar":
		cols, err := bd.colors(c, 1)
		if err != nil {
			return err
		}
		cf = xlsx.ConditionalDataBar(cols[0])
	case "two_color":
		cols, err := bd.colors(c, 2)
		if err != nil {
			return err
		}
		cf = xlsx.ConditionalTwoColorScale(cols[0], cols[1])
	case "three_color":
		cols, err := bd.colors(c, 3)
		if err != nil {
			return err
		}
		cf = xlsx.ConditionalThreeColorScale(cols[0], cols[1], cols[2])
	default:
		return fmt.Errorf("unknown conditional format type %q", c.Type)
	}
	return ws.AddConditionalFormat(r.FirstRow, r.FirstCol, r.LastRow, r.LastCol, cf)
}

func (bd *builder) image(ws *xlsx.Worksheet, spec Image) error {
	row, col, err := ParseCell(spec.At)
	if err != nil {
		return err
	}
	img, err := xlsx.NewImage(resolve(bd.opts.BaseDir, spec.Path))
	if err != nil {
		return err
	}
	if spec.Scale > 0 {
		img.SetScale(spec.Scale, spec.Scale)
	}
	if spec.Alt != "" {
		img.SetAltText(spec.Alt)
	}
	return ws.InsertImageWithOffset(row, col, img, spec.OffsetX, spec.OffsetY)
}

var legendPositions = map[string]xlsx.LegendPosition{
	"":       xlsx.LegendRight,
	"right":  xlsx.LegendRight,
	"left":   xlsx.LegendLeft,
	"top":    xlsx.LegendTop,
	"bottom": xlsx.LegendBottom,
	"none":   xlsx.LegendNone,
}

func (bd *builder) chart(ws *xlsx.Worksheet, spec Chart) error {
	row, col, err := ParseCell(spec.At)
	if err != nil {
		return err
	}
	kind, err := xlsx.ParseChartType(spec.Type)
	if err != nil {
		return err
	}
	legend, ok := legendPositions[strings.ToLower(spec.Legend)]
	if !ok {
		return fmt.Errorf("unknown legend position %q", spec.Legend)
	}
	ch := xlsx.NewChart(kind).SetLegendPosition(legend)
	if spec.Title != "" {
		ch.SetTitle(spec.Title)
	}
	if spec.XTitle != "" {
		ch.SetXAxisTitle(spec.XTitle)
	}
	if spec.YTitle != "" {
		ch.SetYAxisTitle(spec.YTitle)
	}
	if spec.Width > 0 || spec.Height > 0 {
		w, h := spec.Width, spec.Height
		if w == 0 {
			w = xlsx.DefaultChartWidth
		}
		if h == 0 {
			h = xlsx.DefaultChartHeight
		}
		ch.SetSize(w, h)
	}
	for _, s := range spec.Series {
		cats, err := sheetRange(ws.Name(), s.Categories)
		if err != nil {
			return err
		}
		vals, err := sheetRange(ws.Name(), s.Values)
		if err != nil {
			return err
		}
		series := ch.AddSeries().SetCategories(cats).SetValues(vals)
		if s.Name != "" {
			series.SetName(s.Name)
		}
		if s.Color != "" {
			c, err := parseColor("color", s.Color)
			if err != nil {
				return err
			}
			series.SetColor(c)
		}
	}
	return ws.InsertChart(row, col, ch)
}
