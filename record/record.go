// Package record implements the CssTable row object: a schema-bound,
// provenance-tracked row plus the fixed-width ASCII text codec used to
// move it to and from a flat-file store.
//
// A Record's typed fields live in a Go struct allocated from its
// Schema's RowType and addressed through reflect (the same
// struct-field-by-name approach the teacher uses in schemaAttrs/
// chunkedStructSlices); fields the schema declares Extra, or that
// belong to a dynamic schema with no backing Go type, live in Props.
package record

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/sixy6e/go-ffdb/quark"
	"github.com/sixy6e/go-ffdb/schema"
)

var (
	ErrUnknownMember  = errors.New("record: no such member")
	ErrTypeMismatch   = errors.New("record: value type does not match column type")
	ErrNoBackingType  = errors.New("record: column has no backing Go struct field")
	ErrFieldNotExtra  = errors.New("record: field is not an extra/dynamic column")
)

// Provenance records where a Record came from: the FFDB account it was
// read under, the quark handle of its source file path, and the byte
// offset of its line within that file. A freshly constructed Record
// not yet written anywhere has a zero Provenance.
type Provenance struct {
	Account    string
	Path       quark.Handle
	FileOffset int64
}

// Record is one row of a CSS 3.0 table.
type Record struct {
	Schema     *schema.Schema
	row        reflect.Value // addressable struct value, or invalid for a pure-dynamic schema
	Props      map[string]string
	Provenance Provenance
	Selected   bool
	Loaded     bool
}

// New allocates a Record bound to sch with every column pre-filled
// with its declared null value (so an unset Record round-trips through
// WriteLine/ReadLine identically to a freshly read all-null row).
func New(sch *schema.Schema) *Record {
	rec := &Record{
		Schema: sch,
		Props:  make(map[string]string),
	}
	if sch.RowType != nil {
		rec.row = reflect.New(sch.RowType).Elem()
	}
	for _, col := range sch.Columns {
		_ = rec.setNull(col)
	}
	return rec
}

// Clone deep-copies rec: typed fields, Props, and Provenance.
func (rec *Record) Clone() *Record {
	out := &Record{
		Schema:     rec.Schema,
		Props:      make(map[string]string, len(rec.Props)),
		Provenance: rec.Provenance,
		Selected:   rec.Selected,
		Loaded:     rec.Loaded,
	}
	if rec.row.IsValid() {
		out.row = reflect.New(rec.Schema.RowType).Elem()
		out.row.Set(rec.row)
	}
	for k, v := range rec.Props {
		out.Props[k] = v
	}
	return out
}

// column looks up name's Column and, when it is backed by a struct
// field, the addressable reflect.Value for that field.
func (rec *Record) column(name string) (schema.Column, error) {
	col, ok := rec.Schema.ColumnByName(name)
	if !ok {
		return schema.Column{}, fmt.Errorf("%w: %s.%s", ErrUnknownMember, rec.Schema.Name, name)
	}
	return col, nil
}

// MemberAddress returns the addressable reflect.Value backing a
// non-extra column, for callers (the text codec, the binary-waveform
// join path) that want to write into it directly rather than going
// through Set.
func (rec *Record) MemberAddress(name string) (reflect.Value, error) {
	col, err := rec.column(name)
	if err != nil {
		return reflect.Value{}, err
	}
	if col.Extra || !rec.row.IsValid() {
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrNoBackingType, name)
	}
	return rec.row.FieldByName(col.FieldName), nil
}

// MemberType returns the Go type backing name's column.
func (rec *Record) MemberType(name string) (reflect.Type, error) {
	addr, err := rec.MemberAddress(name)
	if err != nil {
		return nil, err
	}
	return addr.Type(), nil
}

// Get returns name's value: the reflected struct field for a typed
// column, or the raw string from Props for an extra/dynamic one.
func (rec *Record) Get(name string) (any, error) {
	col, err := rec.column(name)
	if err != nil {
		return nil, err
	}
	if col.Extra || !rec.row.IsValid() {
		return rec.Props[name], nil
	}
	return rec.row.FieldByName(col.FieldName).Interface(), nil
}

// GetStringValue renders name's value as it would appear in the
// schema's ASCII text form, using the column's write-side Format verb.
func (rec *Record) GetStringValue(name string) (string, error) {
	col, err := rec.column(name)
	if err != nil {
		return "", err
	}
	if col.Extra || !rec.row.IsValid() {
		return rec.Props[name], nil
	}
	v := rec.row.FieldByName(col.FieldName).Interface()
	return formatColumn(col, v)
}

// Set assigns v to a typed column, after checking its dynamic type
// against the field's Go type.
func (rec *Record) Set(name string, v any) error {
	col, err := rec.column(name)
	if err != nil {
		return err
	}
	if col.Extra || !rec.row.IsValid() {
		return rec.SetExtra(name, v)
	}
	field := rec.row.FieldByName(col.FieldName)
	val := reflect.ValueOf(v)
	if !val.Type().AssignableTo(field.Type()) {
		return fmt.Errorf("%w: %s.%s wants %s, got %s", ErrTypeMismatch, rec.Schema.Name, name, field.Type(), val.Type())
	}
	field.Set(val)
	return nil
}

// SetExtra assigns v (formatted to its string representation when not
// already a string) into Props, for a dynamic/extra column.
func (rec *Record) SetExtra(name string, v any) error {
	switch s := v.(type) {
	case string:
		rec.Props[name] = s
	default:
		rec.Props[name] = fmt.Sprint(v)
	}
	return nil
}

// setNull fills col with its declared null value, typed-struct field
// or Props entry as appropriate.
func (rec *Record) setNull(col schema.Column) error {
	if col.Extra || !rec.row.IsValid() {
		rec.Props[col.Name] = col.Null
		return nil
	}
	field := rec.row.FieldByName(col.FieldName)
	return assignNull(field, col)
}

func assignNull(field reflect.Value, col schema.Column) error {
	switch col.Type {
	case schema.String, schema.LoadDate:
		field.SetString(col.Null)
	case schema.Double, schema.Float:
		f, err := strconv.ParseFloat(col.Null, 64)
		if err != nil {
			return fmt.Errorf("record: null literal %q for %s is not numeric: %w", col.Null, col.Name, err)
		}
		field.SetFloat(f)
	case schema.Int, schema.Long, schema.Time, schema.Date, schema.JulianDate, schema.QuarkInterned:
		n, err := strconv.ParseInt(col.Null, 10, 64)
		if err != nil {
			if col.Type == schema.Time {
				// epoch times use a fractional null sentinel
				// (-9999999999.999); fall back to float parsing.
				f, ferr := strconv.ParseFloat(col.Null, 64)
				if ferr != nil {
					return fmt.Errorf("record: null literal %q for %s is not numeric: %w", col.Null, col.Name, ferr)
				}
				field.SetFloat(f)
				return nil
			}
			return fmt.Errorf("record: null literal %q for %s is not an integer: %w", col.Null, col.Name, err)
		}
		switch field.Kind() {
		case reflect.Int64, reflect.Int32, reflect.Int:
			field.SetInt(n)
		case reflect.Uint64, reflect.Uint32, reflect.Uint:
			field.SetUint(uint64(n))
		case reflect.Float64, reflect.Float32:
			field.SetFloat(float64(n))
		default:
			return fmt.Errorf("record: unsupported kind %s for column %s", field.Kind(), col.Name)
		}
	case schema.Bool:
		field.SetBool(col.Null == "y" || col.Null == "true")
	default:
		return fmt.Errorf("record: unknown column type %s for %s", col.Type, col.Name)
	}
	return nil
}

func formatColumn(col schema.Column, v any) (string, error) {
	switch col.Type {
	case schema.String, schema.LoadDate:
		return fmt.Sprintf("%-*s", col.Size, v), nil
	case schema.Double, schema.Float, schema.Time:
		return fmt.Sprintf("%*.*f", col.Size, precisionFor(col.Format), v), nil
	default:
		return fmt.Sprintf("%*v", col.Size, v), nil
	}
}

// precisionFor pulls the decimal precision out of a printf-style
// format spec such as "17.5f"; defaults to 4 when none is present,
// matching the loosest CSS 3.0 float columns.
func precisionFor(format string) int {
	for i := 0; i < len(format); i++ {
		if format[i] == '.' {
			j := i + 1
			for j < len(format) && format[j] >= '0' && format[j] <= '9' {
				j++
			}
			if j > i+1 {
				n, err := strconv.Atoi(format[i+1 : j])
				if err == nil {
					return n
				}
			}
		}
	}
	return 4
}
