package xlsx

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/huandu/xstrings"
)

// HeaderCase renames generated headers.
type HeaderCase uint8

const (
	CaseUnchanged HeaderCase = iota
	CaseSnake
	CaseKebab
	CaseCamel
	CasePascal
	CaseUpper
)

func (c HeaderCase) apply(s string) string {
	switch c {
	case CaseSnake:
		return xstrings.ToSnakeCase(s)
	case CaseKebab:
		return xstrings.ToKebabCase(s)
	case CaseCamel:
		return xstrings.ToCamelCase(xstrings.ToSnakeCase(s))
	case CasePascal:
		return xstrings.ToPascalCase(xstrings.ToSnakeCase(s))
	case CaseUpper:
		return strings.ToUpper(xstrings.ToSnakeCase(s))
	}
	return s
}

// CustomField overrides how one struct field is laid out.
type CustomField struct {
	field        string
	header       string
	headerFormat *Format
	columnFormat *Format
	valueFormat  *Format
	skip         bool
	width        float64
	widthPixels  uint16
}

// NewCustomField targets the field with the given (tag) name.
func NewCustomField(field string) CustomField {
	return CustomField{field: field}
}

// Rename sets the header caption.
func (f CustomField) Rename(header string) CustomField {
	f.header = header
	return f
}

func (f CustomField) SetHeaderFormat(format Format) CustomField {
	f.headerFormat = &format
	return f
}

// SetColumnFormat formats the whole column, including cells written later.
func (f CustomField) SetColumnFormat(format Format) CustomField {
	f.columnFormat = &format
	return f
}

// SetValueFormat formats the serialized values only.
func (f CustomField) SetValueFormat(format Format) CustomField {
	f.valueFormat = &format
	return f
}

func (f CustomField) Skip(skip bool) CustomField {
	f.skip = skip
	return f
}

func (f CustomField) SetColumnWidth(width float64) CustomField {
	f.width = width
	return f
}

func (f CustomField) SetColumnWidthPixels(px uint16) CustomField {
	f.widthPixels = px
	return f
}

// HeaderOptions configures SerializeHeadersWithOptions.
type HeaderOptions struct {
	headerFormat *Format
	hidden       bool
	custom       []CustomField
	customOnly   bool
	skip         map[string]bool
	rename       HeaderCase
}

func NewHeaderOptions() HeaderOptions {
	return HeaderOptions{}
}

func (o HeaderOptions) SetHeaderFormat(format Format) HeaderOptions {
	o.headerFormat = &format
	return o
}

// HideHeaders registers the columns without writing a header row. Data
// then starts on the anchor row.
func (o HeaderOptions) HideHeaders(hide bool) HeaderOptions {
	o.hidden = hide
	return o
}

// SetCustomHeaders overrides fields by name. Fields keep their
// declaration order unless UseCustomHeadersOnly is set.
func (o HeaderOptions) SetCustomHeaders(fields ...CustomField) HeaderOptions {
	o.custom = append([]CustomField(nil), fields...)
	return o
}

// UseCustomHeadersOnly limits the columns to the custom headers, in the
// order given.
func (o HeaderOptions) UseCustomHeadersOnly(only bool) HeaderOptions {
	o.customOnly = only
	return o
}

func (o HeaderOptions) SkipFields(names ...string) HeaderOptions {
	skip := make(map[string]bool, len(o.skip)+len(names))
	for k := range o.skip {
		skip[k] = true
	}
	for _, n := range names {
		skip[n] = true
	}
	o.skip = skip
	return o
}

// RenameAll applies a case conversion to every header not renamed
// explicitly.
func (o HeaderOptions) RenameAll(c HeaderCase) HeaderOptions {
	o.rename = c
	return o
}

type fieldState struct {
	col         ColNum
	row         RowNum
	valueFormat *Format
}

// serializerState maps registered type names to the column and next row
// of each field. It is per worksheet.
type serializerState struct {
	structs map[string]map[string]*fieldState
}

func newSerializerState() serializerState {
	return serializerState{structs: make(map[string]map[string]*fieldState)}
}

// SerializeHeaders writes a header row for the fields of v, a struct,
// struct pointer or RecordSchema, and registers the columns so Serialize
// can place values of that type below it.
func (ws *Worksheet) SerializeHeaders(row RowNum, col ColNum, v any) error {
	return ws.SerializeHeadersWithOptions(row, col, v, NewHeaderOptions())
}

// SerializeHeadersWithFormat is SerializeHeaders with a header format.
func (ws *Worksheet) SerializeHeadersWithFormat(row RowNum, col ColNum, v any, format Format) error {
	return ws.SerializeHeadersWithOptions(row, col, v, NewHeaderOptions().SetHeaderFormat(format))
}

func (ws *Worksheet) SerializeHeadersWithOptions(row RowNum, col ColNum, v any, opts HeaderOptions) error {
	schema, err := schemaOf(v)
	if err != nil {
		return ws.cellError(row, col, err)
	}
	return ws.registerHeaders(row, col, schema, opts)
}

// DeserializeHeaders registers headers for T from its type alone.
func DeserializeHeaders[T any](ws *Worksheet, row RowNum, col ColNum) error {
	return DeserializeHeadersWithOptions[T](ws, row, col, NewHeaderOptions())
}

func DeserializeHeadersWithFormat[T any](ws *Worksheet, row RowNum, col ColNum, format Format) error {
	return DeserializeHeadersWithOptions[T](ws, row, col, NewHeaderOptions().SetHeaderFormat(format))
}

func DeserializeHeadersWithOptions[T any](ws *Worksheet, row RowNum, col ColNum, opts HeaderOptions) error {
	t := reflect.TypeOf((*T)(nil)).Elem()
	var schema RecordSchema
	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface {
		var zero T
		if s, ok := any(zero).(RecordSchema); ok {
			schema = s
		}
	}
	if schema == nil {
		s, err := schemaOfType(t)
		if err != nil {
			return ws.cellError(row, col, err)
		}
		schema = s
	}
	return ws.registerHeaders(row, col, schema, opts)
}

type resolvedColumn struct {
	CustomField
	caption string
}

func resolveColumns(fields []string, opts HeaderOptions) []resolvedColumn {
	custom := make(map[string]CustomField, len(opts.custom))
	for _, c := range opts.custom {
		custom[c.field] = c
	}
	var chosen []CustomField
	if opts.customOnly {
		chosen = opts.custom
	} else {
		for _, name := range fields {
			if c, ok := custom[name]; ok {
				chosen = append(chosen, c)
			} else {
				chosen = append(chosen, NewCustomField(name))
			}
		}
	}
	cols := make([]resolvedColumn, 0, len(chosen))
	for _, c := range chosen {
		if c.skip || opts.skip[c.field] {
			continue
		}
		caption := c.header
		if caption == "" {
			caption = opts.rename.apply(c.field)
		}
		cols = append(cols, resolvedColumn{CustomField: c, caption: caption})
	}
	return cols
}

func (ws *Worksheet) registerHeaders(row RowNum, col ColNum, schema RecordSchema, opts HeaderOptions) error {
	cols := resolveColumns(schema.FieldNames(), opts)
	if err := checkCell(row, col); err != nil {
		return ws.cellError(row, col, err)
	}
	if len(cols) > 0 && int(col)+len(cols)-1 >= int(MaxCols) {
		return ws.cellError(row, col, ErrRowColumnLimit)
	}
	dataRow := row
	if !opts.hidden {
		if row+1 >= MaxRows {
			return ws.cellError(row, col, ErrRowColumnLimit)
		}
		dataRow = row + 1
	}

	fields := make(map[string]*fieldState, len(cols))
	for i, c := range cols {
		at := col + ColNum(i)
		if !opts.hidden {
			f := c.headerFormat
			if f == nil {
				f = opts.headerFormat
			}
			if err := ws.writeString(row, at, c.caption, f); err != nil {
				return err
			}
		}
		if c.columnFormat != nil {
			if err := ws.SetColumnFormat(at, *c.columnFormat); err != nil {
				return err
			}
		}
		switch {
		case c.width > 0:
			if err := ws.SetColumnWidth(at, c.width); err != nil {
				return err
			}
		case c.widthPixels > 0:
			if err := ws.SetColumnWidthPixels(at, c.widthPixels); err != nil {
				return err
			}
		}
		fields[c.field] = &fieldState{col: at, row: dataRow, valueFormat: c.valueFormat}
	}
	ws.serializer.structs[schema.TypeName()] = fields
	ws.wb.logger.Printf("debug: %s: registered %d column(s) for %s at %s",
		ws.name, len(fields), schema.TypeName(), CellName(row, col))
	return nil
}

// Serialize writes v below the headers registered for its type. v may be
// a struct, a pointer to one, a Record, or a slice or array of those.
// Values of types with no registered headers are skipped.
func (ws *Worksheet) Serialize(v any) error {
	if rec, ok := v.(Record); ok {
		return ws.serializeRecord(rec)
	}
	return ws.serializeValue(reflect.ValueOf(v))
}

func (ws *Worksheet) serializeValue(rv reflect.Value) error {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		if rec, ok := rv.Interface().(Record); ok {
			return ws.serializeRecord(rec)
		}
		rv = rv.Elem()
	}
	if rv.CanInterface() {
		if rec, ok := rv.Interface().(Record); ok {
			return ws.serializeRecord(rec)
		}
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := ws.serializeValue(rv.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		if rec, ok := recordOf(rv); ok {
			return ws.serializeRecord(rec)
		}
	case reflect.Invalid:
		return nil
	}
	return ws.sheetError(fmt.Errorf("%w: cannot serialize %s", ErrParameter, rv.Type()))
}

func (ws *Worksheet) serializeRecord(rec Record) error {
	fields, ok := ws.serializer.structs[rec.TypeName()]
	if !ok {
		ws.wb.logger.Printf("debug: %s: no headers registered for %s, skipped", ws.name, rec.TypeName())
		return nil
	}
	values, err := rec.FieldValues()
	if err != nil {
		return ws.sheetError(fmt.Errorf("could not read %s: %w", rec.TypeName(), err))
	}
	names := rec.FieldNames()
	if len(values) != len(names) {
		return ws.sheetError(fmt.Errorf("%w: %s has %d field(s) but %d value(s)",
			ErrParameter, rec.TypeName(), len(names), len(values)))
	}
	for i, name := range names {
		fs, ok := fields[name]
		if !ok {
			continue
		}
		if err := ws.writeField(fs, reflect.ValueOf(values[i])); err != nil {
			return err
		}
	}
	return nil
}

// writeField writes one value at the field's next row. Slices of
// scalars fill consecutive rows.
func (ws *Worksheet) writeField(fs *fieldState, rv reflect.Value) error {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return ws.writeFieldValue(fs, nil)
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return ws.writeFieldValue(fs, nil)
	}
	if rv.Type() == timeType {
		return ws.writeFieldValue(fs, rv.Interface().(time.Time))
	}
	if rv.CanInterface() {
		switch v := rv.Interface().(type) {
		case Formula, URL:
			return ws.writeFieldValue(fs, v)
		}
	}
	switch rv.Kind() {
	case reflect.Bool:
		return ws.writeFieldValue(fs, rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return ws.writeFieldValue(fs, float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return ws.writeFieldValue(fs, float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return ws.writeFieldValue(fs, rv.Float())
	case reflect.String:
		return ws.writeFieldValue(fs, rv.String())
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := ws.writeField(fs, rv.Index(i)); err != nil {
				return err
			}
		}
		return nil
	}
	ws.wb.logger.Printf("debug: %s: skipped value of type %s", ws.name, rv.Type())
	return nil
}

func (ws *Worksheet) writeFieldValue(fs *fieldState, v any) error {
	if fs.row >= MaxRows {
		return ws.cellError(fs.row, fs.col, ErrRowColumnLimit)
	}
	var err error
	switch x := v.(type) {
	case nil:
		if fs.valueFormat != nil {
			err = ws.writeBlank(fs.row, fs.col, *fs.valueFormat)
		}
	case string:
		err = ws.writeString(fs.row, fs.col, x, fs.valueFormat)
	default:
		err = ws.write(fs.row, fs.col, x, fs.valueFormat)
	}
	if err != nil {
		return err
	}
	fs.row++
	return nil
}
