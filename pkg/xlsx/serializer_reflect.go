package xlsx

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
)

// RecordSchema describes a record type: a stable type name and its field
// names in declaration order. Headers are registered against the type
// name.
type RecordSchema interface {
	TypeName() string
	FieldNames() []string
}

// Record is a RecordSchema that can also produce one value per field, in
// FieldNames order. Implement it to serialize types the reflection
// adapter cannot describe.
type Record interface {
	RecordSchema
	FieldValues() ([]any, error)
}

var timeType = reflect.TypeOf(time.Time{})

type structField struct {
	name  string
	index []int
}

type structSchema struct {
	typ    reflect.Type
	fields []structField
}

var schemaCache sync.Map // reflect.Type -> *structSchema

// schemaFor returns the cached field layout of a struct type. Exported
// fields are included unless tagged `xlsx:"-"`; a tag name replaces the
// field name. Fields holding bytes, maps, channels, functions or structs
// other than time.Time are left out, and embedded structs are flattened.
func schemaFor(t reflect.Type) *structSchema {
	if s, ok := schemaCache.Load(t); ok {
		return s.(*structSchema)
	}
	s := &structSchema{typ: t}
	collectFields(t, nil, &s.fields)
	actual, _ := schemaCache.LoadOrStore(t, s)
	return actual.(*structSchema)
}

func collectFields(t reflect.Type, prefix []int, out *[]structField) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), prefix...), i)
		tag := f.Tag.Get("xlsx")
		if tag == "-" {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Type != timeType && tag == "" {
			collectFields(f.Type, index, out)
			continue
		}
		if !f.IsExported() || !serializableType(f.Type) {
			continue
		}
		name := f.Name
		if tag != "" {
			name = strings.Split(tag, ",")[0]
		}
		*out = append(*out, structField{name: name, index: index})
	}
}

func serializableType(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer,
		reflect.Complex64, reflect.Complex128, reflect.Invalid:
		return false
	case reflect.Struct:
		return t == timeType
	case reflect.Slice, reflect.Array:
		return serializableType(t.Elem()) && t.Elem().Kind() != reflect.Slice
	}
	return true
}

func (s *structSchema) TypeName() string { return s.typ.String() }

func (s *structSchema) FieldNames() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.name
	}
	return names
}

// typeOnlyRecord describes a type without holding a value.
type typeOnlyRecord struct{ *structSchema }

func (typeOnlyRecord) FieldValues() ([]any, error) { return nil, ErrSchemaOnly }

// structRecord reads field values from a struct value.
type structRecord struct {
	*structSchema
	v reflect.Value
}

func (r structRecord) FieldValues() ([]any, error) {
	values := make([]any, len(r.fields))
	for i, f := range r.fields {
		fv, err := r.v.FieldByIndexErr(f.index)
		if err != nil {
			// Nil embedded pointer: treat as a missing value.
			values[i] = nil
			continue
		}
		values[i] = fv.Interface()
	}
	return values, nil
}

// schemaOf adapts v for header registration.
func schemaOf(v any) (RecordSchema, error) {
	if s, ok := v.(RecordSchema); ok {
		return s, nil
	}
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, fmt.Errorf("%w: cannot take headers from nil", ErrParameter)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t == timeType {
		return nil, fmt.Errorf("%w: headers need a struct, got %s", ErrParameter, t)
	}
	return typeOnlyRecord{schemaFor(t)}, nil
}

// schemaOfType adapts a type with no value.
func schemaOfType(t reflect.Type) (RecordSchema, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t == timeType {
		return nil, fmt.Errorf("%w: headers need a struct type, got %s", ErrParameter, t)
	}
	return typeOnlyRecord{schemaFor(t)}, nil
}

// recordOf adapts one struct value for serialization.
func recordOf(v reflect.Value) (Record, bool) {
	if v.Kind() == reflect.Struct && v.Type() != timeType {
		return structRecord{structSchema: schemaFor(v.Type()), v: v}, true
	}
	return nil, false
}
