// Package schema implements the CSS 3.0 typed row schema registry: named,
// immutable-after-registration field layouts used by the record and text
// codec packages to decode/encode fixed-size ASCII lines.
//
// Column metadata is pulled from `css:"..."` struct tags on a prototype
// Go row value using github.com/yuin/stagparser, the same reflect-plus-
// struct-tag approach the teacher uses to turn a row type into a TileDB
// attribute list (see the teacher's schemaAttrs in schema.go) — here it
// drives a fixed-size ASCII column list instead of a TileDB schema.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	stgpsr "github.com/yuin/stagparser"
)

var (
	ErrUnknownSchema    = errors.New("schema: unknown table name")
	ErrSchemaMismatch   = errors.New("schema: redefinition does not match existing definition")
	ErrRowSizeExceeded  = errors.New("schema: accumulated column size exceeds declared row size")
	ErrMissingTag       = errors.New("schema: field is missing a css struct tag")
	ErrMissingAttribute = errors.New("schema: css tag is missing a required attribute")
)

// Schema is an immutable-after-registration row layout: an ordered list
// of Columns, the line length the text codec must produce/consume
// exactly, and (when the schema is backed by a concrete Go type) the
// reflect.Type used to allocate zero records.
type Schema struct {
	Name       string
	Columns    []Column
	LineLength int // includes the trailing newline
	RowType    reflect.Type
}

// ColumnByName returns the column with the given name, or false.
func (s *Schema) ColumnByName(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Registry maps schema name to Schema. Populated once at startup in
// the common case (see Builtin below); read-only from many goroutines
// thereafter, matching the concurrency model of spec.md §5 ("The
// schema registry (§4.B): populated at startup; subsequent access is
// read-only from many threads").
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

// NewRegistry constructs an empty registry. Tests that need an
// isolated instance (rather than the process-wide Builtin registry)
// should use this.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*Schema)}
}

// Define registers a new schema named name, with column metadata
// derived by reflecting over row's `css` struct tags. row must be a
// pointer to a struct (the zero value is fine; only its type and tags
// are inspected). lineLength is the ASCII line length (including the
// trailing newline) the text codec must produce/consume exactly; if
// the accumulated column widths (plus one separating space per column
// after the first, per the CSS convention) exceed lineLength-1, Define
// fails with ErrRowSizeExceeded.
//
// Define fails if name is already registered with a different
// definition; redefining identically is a no-op success, matching
// spec.md's "fails... if name is already defined and not identical".
func (r *Registry) Define(name string, row any, lineLength int) error {
	cols, rowType, err := columnsFromTags(row)
	if err != nil {
		return fmt.Errorf("schema %s: %w", name, err)
	}

	size := 0
	for i, c := range cols {
		size += c.Size
		if i > 0 {
			size++ // separating space
		}
	}
	if size > lineLength-1 {
		return fmt.Errorf("%w: %s wants %d, declared %d", ErrRowSizeExceeded, name, size+1, lineLength)
	}

	sch := &Schema{Name: name, Columns: cols, LineLength: lineLength, RowType: rowType}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.schemas[name]; ok {
		if !sameColumns(existing.Columns, sch.Columns) || existing.LineLength != sch.LineLength {
			return fmt.Errorf("%w: %s", ErrSchemaMismatch, name)
		}
		return nil
	}
	r.schemas[name] = sch
	return nil
}

// Redefine replaces name's definition unconditionally. Records already
// constructed against the old *Schema keep pointing at it (records pin
// their schema, per spec.md §4.B) — Redefine only affects lookups that
// happen after it returns.
func (r *Registry) Redefine(name string, row any, lineLength int) error {
	cols, rowType, err := columnsFromTags(row)
	if err != nil {
		return fmt.Errorf("schema %s: %w", name, err)
	}
	sch := &Schema{Name: name, Columns: cols, LineLength: lineLength, RowType: rowType}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[name] = sch
	return nil
}

// DefineDynamic registers a schema purely from a Column slice, with no
// backing Go struct — the open "dynamic-column row" extension spec.md
// §3 names for user-defined tables. Every column is logically extra:
// values live in a Record's property map rather than a reflected
// struct field.
func (r *Registry) DefineDynamic(name string, cols []Column, lineLength int) error {
	dyn := make([]Column, len(cols))
	for i, c := range cols {
		c.Extra = true
		dyn[i] = c
	}
	sch := &Schema{Name: name, Columns: dyn, LineLength: lineLength}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[name] = sch
	return nil
}

// Lookup returns the named schema.
func (r *Registry) Lookup(name string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sch, ok := r.schemas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}
	return sch, nil
}

// Description returns the column list for name.
func (r *Registry) Description(name string) ([]Column, error) {
	sch, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return sch.Columns, nil
}

// AllNames returns every registered schema name, in no particular order.
func (r *Registry) AllNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for n := range r.schemas {
		names = append(names, n)
	}
	return names
}

// LineLength returns the registered ASCII line length for name.
func (r *Registry) LineLength(name string) (int, error) {
	sch, err := r.Lookup(name)
	if err != nil {
		return 0, err
	}
	return sch.LineLength, nil
}

// IsCssTable reports whether name is registered.
func (r *Registry) IsCssTable(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.schemas[name]
	return ok
}

func sameColumns(a, b []Column) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// columnsFromTags walks row's exported fields in declaration order,
// pulling `css:"..."` tag attributes via stagparser the way the
// teacher's schemaAttrs walks `tiledb:"..."` tags.
func columnsFromTags(row any) ([]Column, reflect.Type, error) {
	defs, err := stgpsr.ParseStruct(row, "css")
	if err != nil {
		return nil, nil, err
	}

	rowType := reflect.TypeOf(row)
	if rowType.Kind() == reflect.Ptr {
		rowType = rowType.Elem()
	}

	cols := make([]Column, 0, rowType.NumField())
	offset := 0
	for i := 0; i < rowType.NumField(); i++ {
		field := rowType.Field(i)
		if !field.IsExported() {
			continue
		}
		fieldDefs := defs[field.Name]
		attrs := make(map[string]stgpsr.Definition, len(fieldDefs))
		for _, d := range fieldDefs {
			attrs[d.Name()] = d
		}

		size, err := intAttr(attrs, "size")
		if err != nil {
			return nil, nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		format, err := strAttr(attrs, "format")
		if err != nil {
			return nil, nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		scan, _ := strAttr(attrs, "scan")
		null, err := strAttr(attrs, "null")
		if err != nil {
			return nil, nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		typeName, err := strAttr(attrs, "type")
		if err != nil {
			return nil, nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		ctype, err := parseColumnType(typeName)
		if err != nil {
			return nil, nil, fmt.Errorf("field %s: %w", field.Name, err)
		}

		cols = append(cols, Column{
			Name:      cssName(field.Name),
			FieldName: field.Name,
			Offset:    offset,
			Size:     size,
			Format:    format,
			Scan:      scan,
			Type:      ctype,
			Null:      null,
		})
		offset += size
	}

	return cols, rowType, nil
}

func intAttr(attrs map[string]stgpsr.Definition, key string) (int, error) {
	def, ok := attrs[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingAttribute, key)
	}
	v, ok := def.Attribute(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingAttribute, key)
	}
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %s is not an int", ErrMissingAttribute, key)
	}
}

func strAttr(attrs map[string]stgpsr.Definition, key string) (string, error) {
	def, ok := attrs[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingAttribute, key)
	}
	v, ok := def.Attribute(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingAttribute, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", ErrMissingAttribute, key)
	}
	return s, nil
}

func parseColumnType(name string) (ColumnType, error) {
	switch name {
	case "string":
		return String, nil
	case "double":
		return Double, nil
	case "float":
		return Float, nil
	case "int":
		return Int, nil
	case "long":
		return Long, nil
	case "time":
		return Time, nil
	case "date":
		return Date, nil
	case "loaddate":
		return LoadDate, nil
	case "quark":
		return QuarkInterned, nil
	case "bool":
		return Bool, nil
	case "juliandate":
		return JulianDate, nil
	default:
		return 0, fmt.Errorf("unknown css column type %q", name)
	}
}

// cssName lower-cases a PascalCase Go field name into the CSS 3.0
// column name it mirrors, e.g. "Samprate" -> "samprate". This is the
// inverse of the teacher's pascalCase helper in schema.go, which goes
// the other way (subrecord name -> Go field name).
func cssName(fieldName string) string {
	if fieldName == "" {
		return fieldName
	}
	b := []byte(fieldName)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] = b[0] - 'A' + 'a'
	}
	return string(b)
}
