package xlsx

import (
	"fmt"
	"strings"

	xw "github.com/klytics/xlsxkit/pkg/xlsx/internal/xmlwriter"
)

// ChartType selects the kind of chart.
type ChartType uint8

const (
	ChartColumn ChartType = iota
	ChartBar
	ChartLine
	ChartArea
	ChartPie
	ChartDoughnut
	ChartScatter
)

var chartTypeNames = map[string]ChartType{
	"column":   ChartColumn,
	"bar":      ChartBar,
	"line":     ChartLine,
	"area":     ChartArea,
	"pie":      ChartPie,
	"doughnut": ChartDoughnut,
	"scatter":  ChartScatter,
}

// ParseChartType maps a lower-case name such as "column" to a ChartType.
func ParseChartType(name string) (ChartType, error) {
	t, ok := chartTypeNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("%w: unknown chart type %q", ErrParameter, name)
	}
	return t, nil
}

// LegendPosition places the chart legend.
type LegendPosition uint8

const (
	LegendRight LegendPosition = iota
	LegendLeft
	LegendTop
	LegendBottom
	LegendNone
)

var legendPosCodes = [...]string{"r", "l", "t", "b", ""}

// Default chart size in pixels.
const (
	DefaultChartWidth  = 480
	DefaultChartHeight = 288
)

// ChartSeries is one data series. Ranges are formulas such as
// "Sheet1!$B$2:$B$7"; build them with ChartRange.
type ChartSeries struct {
	name       string
	nameRef    string
	categories string
	values     string
	color      Color
}

// SetName sets the series name. A name starting with "=" is taken as a
// cell reference.
func (s *ChartSeries) SetName(name string) *ChartSeries {
	if strings.HasPrefix(name, "=") {
		s.nameRef = strings.TrimPrefix(name, "=")
		s.name = ""
		return s
	}
	s.name = name
	s.nameRef = ""
	return s
}

// SetCategories sets the category (or scatter X value) range.
func (s *ChartSeries) SetCategories(ref string) *ChartSeries {
	s.categories = strings.TrimPrefix(ref, "=")
	return s
}

// SetValues sets the value range.
func (s *ChartSeries) SetValues(ref string) *ChartSeries {
	s.values = strings.TrimPrefix(ref, "=")
	return s
}

// SetColor sets the series fill or line colour.
func (s *ChartSeries) SetColor(c Color) *ChartSeries {
	s.color = c
	return s
}

// Chart is a chart that can be inserted into a worksheet.
type Chart struct {
	kind   ChartType
	series []*ChartSeries
	title  string
	xTitle string
	yTitle string
	legend LegendPosition
	width  uint32
	height uint32
}

// NewChart returns an empty chart of the given type.
func NewChart(kind ChartType) *Chart {
	return &Chart{kind: kind, width: DefaultChartWidth, height: DefaultChartHeight}
}

// AddSeries appends a series and returns it for configuration.
func (ch *Chart) AddSeries() *ChartSeries {
	s := &ChartSeries{}
	ch.series = append(ch.series, s)
	return s
}

func (ch *Chart) SetTitle(title string) *Chart {
	ch.title = title
	return ch
}

func (ch *Chart) SetXAxisTitle(title string) *Chart {
	ch.xTitle = title
	return ch
}

func (ch *Chart) SetYAxisTitle(title string) *Chart {
	ch.yTitle = title
	return ch
}

func (ch *Chart) SetLegendPosition(pos LegendPosition) *Chart {
	ch.legend = pos
	return ch
}

// SetSize sets the chart size in pixels. Zero keeps the current value.
func (ch *Chart) SetSize(width, height uint32) *Chart {
	if width > 0 {
		ch.width = width
	}
	if height > 0 {
		ch.height = height
	}
	return ch
}

func (ch *Chart) validate() error {
	if ch.kind > ChartScatter {
		return fmt.Errorf("%w: unknown chart type %d", ErrParameter, ch.kind)
	}
	if len(ch.series) == 0 {
		return fmt.Errorf("%w: chart has no series", ErrParameter)
	}
	for i, s := range ch.series {
		if s.values == "" {
			return fmt.Errorf("%w: chart series %d has no values", ErrParameter, i+1)
		}
		if ch.kind == ChartScatter && s.categories == "" {
			return fmt.Errorf("%w: scatter series %d has no X values", ErrParameter, i+1)
		}
	}
	return nil
}

type placedChart struct {
	chart *Chart
	row   RowNum
	col   ColNum
	x, y  uint32
}

// InsertChart places a chart with its top-left corner in a cell.
func (ws *Worksheet) InsertChart(row RowNum, col ColNum, chart *Chart) error {
	return ws.InsertChartWithOffset(row, col, chart, 0, 0)
}

// InsertChartWithOffset places a chart offset by x, y pixels within a cell.
func (ws *Worksheet) InsertChartWithOffset(row RowNum, col ColNum, chart *Chart, x, y uint32) error {
	if err := checkCell(row, col); err != nil {
		return ws.cellError(row, col, err)
	}
	if chart == nil {
		return ws.cellError(row, col, fmt.Errorf("%w: nil chart", ErrParameter))
	}
	if err := chart.validate(); err != nil {
		return ws.cellError(row, col, err)
	}
	ws.charts = append(ws.charts, &placedChart{chart: chart, row: row, col: col, x: x, y: y})
	return nil
}

const (
	catAxisID = "50010001"
	valAxisID = "50010002"
)

// writeChart writes xl/charts/chartN.xml.
func writeChart(w *xw.Writer, ch *Chart) {
	w.XMLDeclaration()
	w.StartTag("c:chartSpace",
		xw.Str("xmlns:c", nsChart),
		xw.Str("xmlns:a", nsDrawingMain),
		xw.Str("xmlns:r", nsRelationships))
	w.EmptyTag("c:lang", xw.Str("val", "en-US"))
	w.StartTag("c:chart")
	if ch.title != "" {
		writeChartTitle(w, ch.title, false)
	}
	w.StartTag("c:plotArea")
	w.EmptyTag("c:layout")
	switch ch.kind {
	case ChartColumn, ChartBar:
		w.StartTag("c:barChart")
		dir := "col"
		if ch.kind == ChartBar {
			dir = "bar"
		}
		w.EmptyTag("c:barDir", xw.Str("val", dir))
		w.EmptyTag("c:grouping", xw.Str("val", "clustered"))
		writeSeries(w, ch)
		writeAxisIDs(w)
		w.EndTag("c:barChart")
	case ChartLine:
		w.StartTag("c:lineChart")
		w.EmptyTag("c:grouping", xw.Str("val", "standard"))
		writeSeries(w, ch)
		w.EmptyTag("c:marker", xw.Str("val", "1"))
		writeAxisIDs(w)
		w.EndTag("c:lineChart")
	case ChartArea:
		w.StartTag("c:areaChart")
		w.EmptyTag("c:grouping", xw.Str("val", "standard"))
		writeSeries(w, ch)
		writeAxisIDs(w)
		w.EndTag("c:areaChart")
	case ChartPie:
		w.StartTag("c:pieChart")
		w.EmptyTag("c:varyColors", xw.Str("val", "1"))
		writeSeries(w, ch)
		w.EmptyTag("c:firstSliceAng", xw.Str("val", "0"))
		w.EndTag("c:pieChart")
	case ChartDoughnut:
		w.StartTag("c:doughnutChart")
		w.EmptyTag("c:varyColors", xw.Str("val", "1"))
		writeSeries(w, ch)
		w.EmptyTag("c:firstSliceAng", xw.Str("val", "0"))
		w.EmptyTag("c:holeSize", xw.Str("val", "50"))
		w.EndTag("c:doughnutChart")
	case ChartScatter:
		w.StartTag("c:scatterChart")
		w.EmptyTag("c:scatterStyle", xw.Str("val", "lineMarker"))
		writeSeries(w, ch)
		writeAxisIDs(w)
		w.EndTag("c:scatterChart")
	}
	writeAxes(w, ch)
	w.EndTag("c:plotArea")
	if ch.legend != LegendNone {
		w.StartTag("c:legend")
		w.EmptyTag("c:legendPos", xw.Str("val", legendPosCodes[ch.legend]))
		w.EmptyTag("c:overlay", xw.Str("val", "0"))
		w.EndTag("c:legend")
	}
	w.EmptyTag("c:plotVisOnly", xw.Str("val", "1"))
	w.EmptyTag("c:dispBlanksAs", xw.Str("val", "gap"))
	w.EndTag("c:chart")
	w.EndTag("c:chartSpace")
}

func writeAxisIDs(w *xw.Writer) {
	w.EmptyTag("c:axId", xw.Str("val", catAxisID))
	w.EmptyTag("c:axId", xw.Str("val", valAxisID))
}

func writeChartTitle(w *xw.Writer, text string, vertical bool) {
	w.StartTag("c:title")
	w.StartTag("c:tx")
	w.StartTag("c:rich")
	if vertical {
		w.EmptyTag("a:bodyPr", xw.Str("rot", "-5400000"), xw.Str("vert", "horz"))
	} else {
		w.EmptyTag("a:bodyPr")
	}
	w.EmptyTag("a:lstStyle")
	w.StartTag("a:p")
	w.StartTag("a:pPr")
	w.EmptyTag("a:defRPr")
	w.EndTag("a:pPr")
	w.StartTag("a:r")
	w.EmptyTag("a:rPr", xw.Str("lang", "en-US"))
	w.DataElement("a:t", text)
	w.EndTag("a:r")
	w.EndTag("a:p")
	w.EndTag("c:rich")
	w.EndTag("c:tx")
	w.EmptyTag("c:overlay", xw.Str("val", "0"))
	w.EndTag("c:title")
}

func writeSeries(w *xw.Writer, ch *Chart) {
	for i, s := range ch.series {
		w.StartTag("c:ser")
		w.EmptyTag("c:idx", xw.Int("val", i))
		w.EmptyTag("c:order", xw.Int("val", i))
		switch {
		case s.nameRef != "":
			w.StartTag("c:tx")
			w.StartTag("c:strRef")
			w.DataElement("c:f", s.nameRef)
			w.EndTag("c:strRef")
			w.EndTag("c:tx")
		case s.name != "":
			w.StartTag("c:tx")
			w.DataElement("c:v", s.name)
			w.EndTag("c:tx")
		}
		writeSeriesColor(w, ch.kind, s.color)
		if ch.kind == ChartScatter {
			w.StartTag("c:xVal")
			w.StartTag("c:numRef")
			w.DataElement("c:f", s.categories)
			w.EndTag("c:numRef")
			w.EndTag("c:xVal")
			w.StartTag("c:yVal")
			w.StartTag("c:numRef")
			w.DataElement("c:f", s.values)
			w.EndTag("c:numRef")
			w.EndTag("c:yVal")
		} else {
			if s.categories != "" {
				w.StartTag("c:cat")
				w.StartTag("c:strRef")
				w.DataElement("c:f", s.categories)
				w.EndTag("c:strRef")
				w.EndTag("c:cat")
			}
			w.StartTag("c:val")
			w.StartTag("c:numRef")
			w.DataElement("c:f", s.values)
			w.EndTag("c:numRef")
			w.EndTag("c:val")
		}
		if ch.kind == ChartLine || ch.kind == ChartScatter {
			w.EmptyTag("c:smooth", xw.Str("val", "0"))
		}
		w.EndTag("c:ser")
	}
}

func writeSeriesColor(w *xw.Writer, kind ChartType, c Color) {
	if kind == ChartScatter {
		// Markers only, as Excel's default scatter.
		w.StartTag("c:spPr")
		w.StartTag("a:ln", xw.Str("w", "28575"))
		w.EmptyTag("a:noFill")
		w.EndTag("a:ln")
		w.EndTag("c:spPr")
		return
	}
	if !c.IsSet() {
		return
	}
	rgb := c.ARGB()[2:]
	w.StartTag("c:spPr")
	if kind == ChartLine {
		w.StartTag("a:ln")
		w.StartTag("a:solidFill")
		w.EmptyTag("a:srgbClr", xw.Str("val", rgb))
		w.EndTag("a:solidFill")
		w.EndTag("a:ln")
	} else {
		w.StartTag("a:solidFill")
		w.EmptyTag("a:srgbClr", xw.Str("val", rgb))
		w.EndTag("a:solidFill")
	}
	w.EndTag("c:spPr")
}

func writeAxes(w *xw.Writer, ch *Chart) {
	switch ch.kind {
	case ChartPie, ChartDoughnut:
		return
	case ChartScatter:
		writeValAxis(w, catAxisID, valAxisID, "b", ch.xTitle, false, "midCat")
		writeValAxis(w, valAxisID, catAxisID, "l", ch.yTitle, true, "midCat")
		return
	}
	catPos, valPos := "b", "l"
	if ch.kind == ChartBar {
		catPos, valPos = "l", "b"
	}
	w.StartTag("c:catAx")
	w.EmptyTag("c:axId", xw.Str("val", catAxisID))
	writeScaling(w)
	w.EmptyTag("c:delete", xw.Str("val", "0"))
	w.EmptyTag("c:axPos", xw.Str("val", catPos))
	if ch.xTitle != "" {
		writeChartTitle(w, ch.xTitle, ch.kind == ChartBar)
	}
	w.EmptyTag("c:numFmt", xw.Str("formatCode", "General"), xw.Str("sourceLinked", "1"))
	writeTickMarks(w)
	w.EmptyTag("c:crossAx", xw.Str("val", valAxisID))
	w.EmptyTag("c:crosses", xw.Str("val", "autoZero"))
	w.EmptyTag("c:auto", xw.Str("val", "1"))
	w.EmptyTag("c:lblAlgn", xw.Str("val", "ctr"))
	w.EmptyTag("c:lblOffset", xw.Str("val", "100"))
	w.EmptyTag("c:noMultiLvlLbl", xw.Str("val", "0"))
	w.EndTag("c:catAx")
	writeValAxis(w, valAxisID, catAxisID, valPos, ch.yTitle, true, "between")
}

func writeValAxis(w *xw.Writer, id, cross, pos, title string, gridlines bool, crossBetween string) {
	w.StartTag("c:valAx")
	w.EmptyTag("c:axId", xw.Str("val", id))
	writeScaling(w)
	w.EmptyTag("c:delete", xw.Str("val", "0"))
	w.EmptyTag("c:axPos", xw.Str("val", pos))
	if gridlines {
		w.EmptyTag("c:majorGridlines")
	}
	if title != "" {
		writeChartTitle(w, title, pos == "l")
	}
	w.EmptyTag("c:numFmt", xw.Str("formatCode", "General"), xw.Str("sourceLinked", "1"))
	writeTickMarks(w)
	w.EmptyTag("c:crossAx", xw.Str("val", cross))
	w.EmptyTag("c:crosses", xw.Str("val", "autoZero"))
	w.EmptyTag("c:crossBetween", xw.Str("val", crossBetween))
	w.EndTag("c:valAx")
}

func writeScaling(w *xw.Writer) {
	w.StartTag("c:scaling")
	w.EmptyTag("c:orientation", xw.Str("val", "minMax"))
	w.EndTag("c:scaling")
}

func writeTickMarks(w *xw.Writer) {
	w.EmptyTag("c:majorTickMark", xw.Str("val", "out"))
	w.EmptyTag("c:minorTickMark", xw.Str("val", "none"))
	w.EmptyTag("c:tickLblPos", xw.Str("val", "nextTo"))
}
