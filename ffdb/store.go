package ffdb

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sixy6e/go-ffdb/idservice"
	"github.com/sixy6e/go-ffdb/quark"
	"github.com/sixy6e/go-ffdb/record"
	"github.com/sixy6e/go-ffdb/schema"
)

// Author identifies the producer of a set of records: a name mapping
// to a subdirectory under param_root, a validity window, and whether
// new records may currently be appended under it.
type Author struct {
	Name     string
	Tmin     float64
	Tmax     float64
	Writable bool
}

// staticEntry is one cached static table: the records read the last
// time the backing file's mtime was observed, plus that mtime.
type staticEntry struct {
	mtime   time.Time
	records []*record.Record
}

// Database is the flat-file store's handle: two directory roots, the
// partitioning scheme applied to per-author and per-station record
// files, and the process-scoped singletons (quark pool, schema
// registry, static-table cache, id service) a single open database
// needs, all reachable off one struct rather than package-level
// globals so a test can create an isolated instance (spec.md §7's
// "Global mutable state ... maps to process-scoped singletons ...
// all entry points accept a database handle").
type Database struct {
	ParamRoot         string
	SegRoot           string
	DirectoryStructure string
	Duration          time.Duration

	Pool     *quark.Pool
	Registry *schema.Registry
	IDs      *idservice.Service
	Logger   *log.Logger

	mu         sync.Mutex
	authors    map[string]*Author
	static     map[string]*staticEntry
	readErrors []*TableReadErr
}

// Open validates both roots exist and constructs a Database ready for
// reads and writes. directoryStructure is a token template as
// documented in spec.md §4.H (%Y %j %H %A %S); duration configures the
// partition window size for per-author and per-station bucketing.
func Open(paramRoot, segRoot, directoryStructure string, duration time.Duration) (*Database, error) {
	if info, err := os.Stat(paramRoot); err != nil || !info.IsDir() {
		return nil, ErrNoParamRoot
	}
	if info, err := os.Stat(segRoot); err != nil || !info.IsDir() {
		return nil, ErrNoSegRoot
	}
	if err := validateStructure(directoryStructure); err != nil {
		return nil, err
	}

	ids, err := idservice.Open(filepath.Join(paramRoot, "lastid.kv"))
	if err != nil {
		return nil, err
	}

	db := &Database{
		ParamRoot:          paramRoot,
		SegRoot:            segRoot,
		DirectoryStructure: directoryStructure,
		Duration:           duration,
		Pool:               quark.NewPool(),
		Registry:           schema.Builtin,
		IDs:                ids,
		Logger:             log.Default(),
		authors:            map[string]*Author{},
		static:             map[string]*staticEntry{},
	}
	db.loadAuthors()
	return db, nil
}

// recordReadError logs a skipped-row report through db.Logger and
// retains it for ReadErrors, per spec.md §4.H/§7's "reported with
// TableReadErr{file, line_no, reason} and skipped" contract.
func (db *Database) recordReadError(e *TableReadErr) {
	db.Logger.Println(e.Error())
	db.mu.Lock()
	db.readErrors = append(db.readErrors, e)
	db.mu.Unlock()
}

// ReadErrors drains and returns every TableReadErr accumulated since
// the last call, in the order rows were skipped.
func (db *Database) ReadErrors() []*TableReadErr {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := db.readErrors
	db.readErrors = nil
	return out
}

var structureTokens = map[byte]bool{'Y': true, 'j': true, 'H': true, 'A': true, 'S': true}

func validateStructure(structure string) error {
	for i := 0; i < len(structure); i++ {
		if structure[i] != '%' {
			continue
		}
		if i+1 >= len(structure) || !structureTokens[structure[i+1]] {
			return ErrBadStructure
		}
		i++
	}
	return nil
}

// loadAuthors populates db.authors from the author subdirectories of
// param_root; a newly discovered author defaults to writable, and its
// Tmin/Tmax validity window is left at zero.
func (db *Database) loadAuthors() {
	entries, err := os.ReadDir(db.ParamRoot)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		db.authors[e.Name()] = &Author{Name: e.Name(), Writable: true}
	}
}

// Authors returns every known author, in no particular order.
func (db *Database) Authors() []Author {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]Author, 0, len(db.authors))
	for _, a := range db.authors {
		out = append(out, *a)
	}
	return out
}

// SetDefaultAuthor ensures name is registered, creating its param_root
// subdirectory if it does not already exist.
func (db *Database) SetDefaultAuthor(name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.authors[name]; ok {
		return nil
	}
	dir := filepath.Join(db.ParamRoot, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCreateDir, dir, err)
	}
	db.authors[name] = &Author{Name: name, Writable: true}
	return nil
}

// SetAuthorWritable toggles whether name accepts further inserts.
func (db *Database) SetAuthorWritable(name string, writable bool) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	a, ok := db.authors[name]
	if !ok {
		return ErrUnknownAuthor
	}
	a.Writable = writable
	return nil
}

// expandStructure substitutes every recognized token in
// db.DirectoryStructure against t (a Unix timestamp), author and
// station, producing the partition-relative directory path.
func (db *Database) expandStructure(t float64, author, station string) string {
	tm := time.Unix(int64(t), 0).UTC()
	var b strings.Builder
	s := db.DirectoryStructure
	for i := 0; i < len(s); i++ {
		if s[i] != '%' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case 'Y':
			b.WriteString(strconv.Itoa(tm.Year()))
		case 'j':
			b.WriteString(fmt.Sprintf("%03d", tm.YearDay()))
		case 'H':
			b.WriteString(fmt.Sprintf("%02d", tm.Hour()))
		case 'A':
			b.WriteString(author)
		case 'S':
			b.WriteString(station)
		default:
			b.WriteByte(s[i])
			b.WriteByte(s[i+1])
		}
		i++
	}
	return b.String()
}

// partitionStart floors t to the start of its Duration-sized bucket,
// the same edge every record within one partition file shares.
func (db *Database) partitionStart(t float64) float64 {
	if db.Duration <= 0 {
		return t
	}
	secs := db.Duration.Seconds()
	return float64(int64(t/secs)) * secs
}

// recordPath builds the {param_root}/{author}/{partition}/{prefix}.{schema}
// path for author's current record file of the named schema at time t,
// per spec.md §4.H's row-file discovery rule.
func (db *Database) recordPath(schemaName, author, prefix string, t float64) string {
	partition := db.expandStructure(db.partitionStart(t), author, prefix)
	return filepath.Join(db.ParamRoot, author, partition, prefix+"."+schemaName)
}

// segPath builds the {seg_root}/{dir}/{dfile} path for a wfdisc's
// waveform blob, bucketed per-station under the same directory
// structure as record files.
func (db *Database) segPath(station string, t float64, dir, dfile string) string {
	partition := db.expandStructure(db.partitionStart(t), "", station)
	if dir != "" {
		return filepath.Join(db.SegRoot, partition, dir, dfile)
	}
	return filepath.Join(db.SegRoot, partition, dfile)
}
