package ffdb

import (
	"os"
	"path/filepath"

	"github.com/sixy6e/go-ffdb/query"
	"github.com/sixy6e/go-ffdb/record"
)

// Bounds reports the database's global time bounds, used to seed a
// query's local time window (spec.md §4.I step 3) for a table with no
// literal time constraint of its own. FFDB has no fixed epoch, so this
// is the widest representable window rather than a discovered min/max
// over every partition (discovering that exactly would mean touching
// every file before planning, defeating partition pruning).
func (db *Database) Bounds() (float64, float64) {
	return 0, 9999999999
}

// ReadPartitions satisfies query.TableSource: for every author it reads
// and concatenates the rows of every "*.<schema>" file under
// param_root/<author>. tmin and tmax do not prune partitions (see
// findPartitionFiles). Static tables (site, sitechan, ...) have
// no time partitioning and are read via ReadStaticTable instead.
func (db *Database) ReadPartitions(table query.PlanTable, tmin, tmax float64) ([]*record.Record, error) {
	if staticTableNames[table.Schema.Name] {
		return db.ReadStaticTable(table.Schema.Name)
	}

	var out []*record.Record
	for _, author := range db.Authors() {
		files, err := db.findPartitionFiles(author.Name, table.Schema.Name, tmin, tmax)
		if err != nil {
			return nil, err
		}
		for _, path := range files {
			recs, err := db.readTableFile(path, table.Schema)
			if err != nil {
				return nil, err
			}
			out = append(out, recs...)
		}
	}
	return out, nil
}

// findPartitionFiles walks author's param_root subtree for files
// named "*.<schema>", without attempting to parse the directory-
// structure template back out of each path — the window check happens
// at row-read time via each row's own time/endtime or ondate/offdate
// columns (satisfiesSingleTable in the query package), so a partition
// that turns out to be outside the window simply contributes rows the
// WHERE clause then filters out.
func (db *Database) findPartitionFiles(author, schemaName string, tmin, tmax float64) ([]string, error) {
	root := filepath.Join(db.ParamRoot, author)
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) == "."+schemaName {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// QueryPrefix runs text (a §4.I SELECT query) and returns every
// matching row, materializing the
// full result rather than streaming it — for callers that already
// know the result set is small (a single-table, fully-bound lookup).
func (db *Database) QueryPrefix(text string) ([]*record.Record, error) {
	plan, err := query.Parse(text, db.Registry)
	if err != nil {
		return nil, err
	}
	exec := query.NewExecutor(db)
	rs, err := exec.Stream(plan)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var out []*record.Record
	for {
		batch, err := rs.Next(query.MAX_MEM_RECORDS)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		out = append(out, batch...)
	}
	return out, nil
}

// QueryTableInit parses and plans text, launching its streaming
// producer; QueryTableResults/QueryTableClose drain and release it.
func (db *Database) QueryTableInit(text string) (*query.ResultStream, error) {
	plan, err := query.Parse(text, db.Registry)
	if err != nil {
		return nil, err
	}
	return query.NewExecutor(db).Stream(plan)
}

// QueryTableResults dequeues up to n rows from handle.
func (db *Database) QueryTableResults(handle *query.ResultStream, n int) ([]*record.Record, error) {
	return handle.Next(n)
}

// QueryTableClose signals cancellation and joins handle's producer.
func (db *Database) QueryTableClose(handle *query.ResultStream) error {
	return handle.Close()
}
