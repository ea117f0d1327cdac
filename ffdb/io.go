package ffdb

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sixy6e/go-ffdb/record"
	"github.com/sixy6e/go-ffdb/schema"
)

// staticTableNames are the global/per-process tables spec.md §4.H
// names explicitly: resolved by a single configured path under
// param_root and cached behind an mtime check rather than partitioned
// by author or time.
var staticTableNames = map[string]bool{
	"site": true, "sitechan": true, "affiliation": true,
	"instrument": true, "lastid": true, "staconf": true, "ampdescript": true,
}

func (db *Database) staticTablePath(name string) string {
	return filepath.Join(db.ParamRoot, name+".static")
}

// ReadStaticTable loads name once per process and again whenever its
// backing file's mtime advances, returning the cached vector of
// records otherwise. A missing optional table is not an error: it
// returns an empty slice, per spec.md §4.H's failure semantics.
func (db *Database) ReadStaticTable(name string) ([]*record.Record, error) {
	sch, err := db.Registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	path := db.staticTablePath(name)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrStatFile, path, err)
	}

	db.mu.Lock()
	entry, cached := db.static[name]
	if cached && entry.mtime.Equal(info.ModTime()) {
		out := entry.records
		db.mu.Unlock()
		return out, nil
	}
	db.mu.Unlock()

	recs, err := db.readTableFile(path, sch)
	if err != nil {
		return nil, err
	}

	db.mu.Lock()
	db.static[name] = &staticEntry{mtime: info.ModTime(), records: recs}
	db.mu.Unlock()
	return recs, nil
}

// readTableFile reads every fixed-width line of path as sch, skipping
// (and reporting via TableReadErr) any line that fails schema
// validation rather than aborting the whole read.
func (db *Database) readTableFile(path string, sch *schema.Schema) ([]*record.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpenRead, path, err)
	}
	defer f.Close()

	var (
		out       []*record.Record
		lineNo    int
		offset    int64
		pathQuark = db.Pool.Intern(path)
	)
	for {
		rec := record.New(sch)
		rec.Provenance = record.Provenance{Path: pathQuark, FileOffset: offset}
		err := record.ReadLine(rec, f, db.Pool)
		lineNo++
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			// ReadLine always consumes exactly LineLength bytes before
			// any content-validation error, so the stream is already
			// positioned at the next line: skip this row and continue,
			// per spec.md §4.H's TableReadErr contract.
			offset += int64(sch.LineLength)
			db.recordReadError(&TableReadErr{File: path, LineNo: lineNo, Reason: err.Error()})
			continue
		}
		offset += int64(sch.LineLength)
		out = append(out, rec)
	}
	return out, nil
}

// InsertTable appends rec to author's current partition file for its
// schema, creating the partition directory if necessary.
func (db *Database) InsertTable(rec *record.Record, author string) error {
	db.mu.Lock()
	a, ok := db.authors[author]
	db.mu.Unlock()
	if !ok {
		return ErrUnknownAuthor
	}
	if !a.Writable {
		return ErrAuthorNotWritable
	}

	t, err := primaryTime(rec)
	if err != nil {
		t = 0
	}
	prefix, err := partitionPrefix(rec)
	if err != nil {
		prefix = author
	}
	path := db.recordPath(rec.Schema.Name, author, prefix, t)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCreateDir, filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOpenWrite, path, err)
	}
	defer f.Close()
	if err := record.WriteLine(rec, f); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAuthorWrite, path, err)
	}
	return nil
}

// InsertTables inserts each record in order, stopping at the first error.
func (db *Database) InsertTables(recs []*record.Record, author string) error {
	for _, rec := range recs {
		if err := db.InsertTable(rec, author); err != nil {
			return err
		}
	}
	return nil
}

// primaryTime extracts the column most tables key their partitioning
// on: "time" when present, else zero (static/global tables have
// neither and partition trivially).
func primaryTime(rec *record.Record) (float64, error) {
	v, err := rec.Get("time")
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("ffdb: time column is not float64")
	}
	return f, nil
}

// partitionPrefix picks the row-file name prefix: station for
// per-station tables (wfdisc), else the schema's own name.
func partitionPrefix(rec *record.Record) (string, error) {
	v, err := rec.Get("sta")
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

// UpdateTables replaces each old[i] with new[i], locating it by
// re-reading the file it was provenanced from and overwriting the
// line at its recorded offset in place when the rewritten line is the
// same length (always true for a fixed-width schema), else rewriting
// the whole file and renaming over the original to keep concurrent
// readers consistent.
func (db *Database) UpdateTables(oldRecs, newRecs []*record.Record) error {
	if len(oldRecs) != len(newRecs) {
		return fmt.Errorf("ffdb: UpdateTables: old/new length mismatch")
	}
	for i := range oldRecs {
		if err := db.updateOne(oldRecs[i], newRecs[i]); err != nil {
			return err
		}
	}
	return nil
}

// UpdateTableWhere updates rows matched by whereIndices (a subset of
// candidates whose member values equal the corresponding entries in
// where) rather than by record identity, applying new to every match.
func (db *Database) UpdateTableWhere(candidates []*record.Record, whereIndices []int, where []any, newRec *record.Record) error {
	for _, rec := range candidates {
		match := true
		for i, idx := range whereIndices {
			col := rec.Schema.Columns[idx]
			v, err := rec.Get(col.Name)
			if err != nil {
				return err
			}
			if v != where[i] {
				match = false
				break
			}
		}
		if match {
			if err := db.updateOne(rec, newRec); err != nil {
				return err
			}
		}
	}
	return nil
}

func (db *Database) updateOne(oldRec, newRec *record.Record) error {
	path, ok := db.Pool.Lookup(oldRec.Provenance.Path)
	if !ok {
		return ErrRecordNotFound
	}
	return db.rewriteRow(path, oldRec.Provenance.FileOffset, oldRec.Schema, newRec, false)
}

// DeleteTable removes rec's line from its owning file without leaving
// a torn file: the file is rewritten without that line and renamed
// over the original.
func (db *Database) DeleteTable(rec *record.Record) error {
	path, ok := db.Pool.Lookup(rec.Provenance.Path)
	if !ok {
		return ErrRecordNotFound
	}
	return db.rewriteRow(path, rec.Provenance.FileOffset, rec.Schema, nil, true)
}

// rewriteRow performs the in-place-or-rewrite update/delete contract:
// when newRec is non-nil and its rendered line is exactly one
// schema.LineLength (always true for fixed-width schemas), the line at
// offset is overwritten in place; otherwise (or for a delete) the
// whole file is rewritten to a temp path and renamed over the
// original, so no reader ever observes a torn file.
func (db *Database) rewriteRow(path string, offset int64, sch *schema.Schema, newRec *record.Record, deleteLine bool) error {
	if !deleteLine && newRec != nil {
		var buf bytes.Buffer
		if err := record.WriteLine(newRec, &buf); err != nil {
			return err
		}
		if buf.Len() == sch.LineLength {
			f, err := os.OpenFile(path, os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrOpenWrite, path, err)
			}
			defer f.Close()
			if _, err := f.WriteAt(buf.Bytes(), offset); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrAuthorWrite, path, err)
			}
			return nil
		}
	}
	return db.rewriteFileSkipping(path, offset, sch, newRec)
}

// rewriteFileSkipping rewrites every line of path except the one at
// offset, substituting newRec's rendering there when newRec is
// non-nil (update), or omitting it entirely (delete); the result is
// written to a temp file and renamed over path.
func (db *Database) rewriteFileSkipping(path string, offset int64, sch *schema.Schema, newRec *record.Record) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOpenRead, path, err)
	}
	defer f.Close()

	tmp, err := os.CreateTemp(filepath.Dir(path), ".ffdb-rewrite-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOpenWrite, path, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	var pos int64
	for {
		rec := record.New(sch)
		readErr := record.ReadLine(rec, f, db.Pool)
		if readErr != nil {
			break
		}
		if pos == offset {
			if newRec != nil {
				if err := record.WriteLine(newRec, tmp); err != nil {
					tmp.Close()
					return err
				}
			}
		} else {
			if err := record.WriteLine(rec, tmp); err != nil {
				tmp.Close()
				return err
			}
		}
		pos += int64(sch.LineLength)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAuthorWrite, path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAuthorWrite, path, err)
	}
	return nil
}

// ResolveWfdisc opens wfdisc's owning seg_root file and returns the
// raw sample bytes for that row, its declared datatype, calib, and
// nsamp, transparently decompressing a .gz-suffixed dfile. The caller
// decodes the returned bytes with wfcodec.Decode.
func (db *Database) ResolveWfdisc(wfdisc *record.Record) ([]byte, string, float32, int64, error) {
	sta, _ := wfdisc.Get("sta")
	dir, _ := wfdisc.Get("dir")
	dfile, _ := wfdisc.Get("dfile")
	foff, _ := wfdisc.Get("foff")
	nsamp, _ := wfdisc.Get("nsamp")
	datatype, _ := wfdisc.Get("datatype")
	calib, _ := wfdisc.Get("calib")
	t, _ := wfdisc.Get("time")

	path := db.segPath(sta.(string), t.(float64), dir.(string), dfile.(string))
	nbytes := int64(nsamp.(int64)) * bytesPerSample(datatype.(string))

	r, closeFn, err := openReader(path, false)
	if err != nil {
		return nil, "", 0, 0, err
	}
	defer closeFn()

	if seeker, ok := r.(interface {
		Seek(int64, int) (int64, error)
	}); ok {
		if _, err := seeker.Seek(foff.(int64), 0); err != nil {
			return nil, "", 0, 0, fmt.Errorf("%w: %s: %v", ErrOpenRead, path, err)
		}
	}

	buf := make([]byte, nbytes)
	if _, err := readFull(r, buf); err != nil {
		return nil, "", 0, 0, fmt.Errorf("%w: %s: %v", ErrOpenRead, path, err)
	}
	return buf, datatype.(string), calib.(float32), nsamp.(int64), nil
}

func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func bytesPerSample(datatype string) int64 {
	switch datatype {
	case "s2", "i2", "g2":
		return 2
	case "s3":
		return 3
	case "s4", "i4", "t4", "f4":
		return 4
	default:
		return 4
	}
}
