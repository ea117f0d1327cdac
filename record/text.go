package record

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sixy6e/go-ffdb/quark"
	"github.com/sixy6e/go-ffdb/schema"
)

var (
	ErrLineLength  = errors.New("record: line does not match schema's declared length")
	ErrFieldDecode = errors.New("record: failed to decode field")
)

// ReadLine reads exactly one schema-length ASCII line from r into rec,
// decoding every column by its Format/Type and interning
// QuarkInterned columns through pool. It fails closed on a short or
// over-length line rather than guessing at a truncated row, matching
// the "never silently accept a malformed row" posture spec.md takes
// for the rest of the store.
func ReadLine(rec *Record, r io.Reader, pool *quark.Pool) error {
	line := make([]byte, rec.Schema.LineLength)
	if _, err := io.ReadFull(r, line); err != nil {
		return fmt.Errorf("record: reading %s line: %w", rec.Schema.Name, err)
	}
	if line[len(line)-1] != '\n' {
		return fmt.Errorf("%w: %s expected trailing newline", ErrLineLength, rec.Schema.Name)
	}

	fields := strings.Fields(string(line[:len(line)-1]))
	cols := rec.Schema.Columns
	if len(fields) < len(cols) {
		return fmt.Errorf("%w: %s wants %d fields, line has %d", ErrLineLength, rec.Schema.Name, len(cols), len(fields))
	}

	for i, col := range cols {
		raw := fields[i]
		if raw == col.Null {
			if err := rec.setNull(col); err != nil {
				return fmt.Errorf("%w: %s.%s: %v", ErrFieldDecode, rec.Schema.Name, col.Name, err)
			}
			continue
		}
		if err := decodeField(rec, col, raw, pool); err != nil {
			return fmt.Errorf("%w: %s.%s: %v", ErrFieldDecode, rec.Schema.Name, col.Name, err)
		}
	}
	rec.Loaded = true
	return nil
}

func decodeField(rec *Record, col schema.Column, raw string, pool *quark.Pool) error {
	switch col.Type {
	case schema.String, schema.LoadDate:
		return rec.Set(col.Name, raw)
	case schema.Double, schema.Time:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		return rec.Set(col.Name, f)
	case schema.Float:
		f, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return err
		}
		return rec.Set(col.Name, float32(f))
	case schema.Int:
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return err
		}
		return rec.Set(col.Name, n)
	case schema.Long, schema.Date, schema.JulianDate:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		return rec.Set(col.Name, n)
	case schema.QuarkInterned:
		h := pool.Intern(raw)
		return rec.Set(col.Name, h)
	case schema.Bool:
		return rec.Set(col.Name, raw == "y" || raw == "true")
	default:
		return fmt.Errorf("unhandled column type %s", col.Type)
	}
}

// WriteLine emits rec as exactly schema.LineLength bytes, fields
// separated by a single space and terminated with one newline — the
// teacher has no direct text-codec analogue, but the contract mirrors
// the fixed-field *_WCS30 printf templates in original_source exactly.
func WriteLine(rec *Record, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i, col := range rec.Schema.Columns {
		if i > 0 {
			if err := bw.WriteByte(' '); err != nil {
				return err
			}
		}
		s, err := rec.GetStringValue(col.Name)
		if err != nil {
			return fmt.Errorf("record: writing %s.%s: %w", rec.Schema.Name, col.Name, err)
		}
		if len(s) != col.Size {
			s = fitWidth(s, col.Size)
		}
		if _, err := bw.WriteString(s); err != nil {
			return err
		}
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	return bw.Flush()
}

// fitWidth truncates or right-pads s to exactly n bytes so a rendered
// field can never desync the fixed-width line, even if a Format verb
// under- or over-produces for an edge-case value.
func fitWidth(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}
