// Command ffdbctl is the flat-file waveform database's CLI shell: one
// cli.App with subcommands for opening a database, running a SELECT
// query, and managing authors and batched ids, mirroring the shape of
// the teacher's own cmd/main.go (one cli.App, each cli.Command a
// StringFlag/BoolFlag/IntFlag list plus an Action closure).
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/sixy6e/go-ffdb/ffdb"
	"github.com/sixy6e/go-ffdb/query"
	"github.com/sixy6e/go-ffdb/record"
)

func openDatabase(cCtx *cli.Context) (*ffdb.Database, error) {
	duration := time.Duration(cCtx.Int("duration-secs")) * time.Second
	return ffdb.Open(
		cCtx.String("param-root"),
		cCtx.String("seg-root"),
		cCtx.String("directory-structure"),
		duration,
	)
}

var rootFlags = []cli.Flag{
	&cli.StringFlag{
		Name:     "param-root",
		Usage:    "Root directory for CSS 3.0 parameter (row) files.",
		Required: true,
	},
	&cli.StringFlag{
		Name:     "seg-root",
		Usage:    "Root directory for waveform segment (dir/dfile) files.",
		Required: true,
	},
	&cli.StringFlag{
		Name:  "directory-structure",
		Usage: "Directory-structure token template (%Y %j %H %A %S).",
		Value: "%A/%Y/%j",
	},
	&cli.IntFlag{
		Name:  "duration-secs",
		Usage: "Partition window size in seconds.",
		Value: 86400,
	},
}

// queryAction runs text against the opened database and prints every
// matching row's columns (all of them, see rowText), one row per line, draining the
// streaming executor in MAX_MEM_RECORDS-sized batches rather than
// materializing the whole result up front.
func queryAction(cCtx *cli.Context) error {
	db, err := openDatabase(cCtx)
	if err != nil {
		return err
	}

	text := cCtx.String("sql")
	log.Println("Running query:", text)

	handle, err := db.QueryTableInit(text)
	if err != nil {
		return err
	}
	defer db.QueryTableClose(handle)

	total := 0
	for {
		rows, err := db.QueryTableResults(handle, query.MAX_MEM_RECORDS)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			break
		}
		for _, rec := range rows {
			fmt.Println(rowText(rec))
		}
		total += len(rows)
	}
	log.Println("Rows returned:", total)
	return nil
}

// rowText renders rec's columns in schema declaration order, space
// separated, the same column order its fixed-width line is written
// in — ffdbctl prints whole rows rather than re-deriving a SELECT
// projection, since the executor's ResultStream already yields full
// records.
func rowText(rec *record.Record) string {
	var b []byte
	for i, col := range rec.Schema.Columns {
		if i > 0 {
			b = append(b, ' ')
		}
		s, err := rec.GetStringValue(col.Name)
		if err != nil {
			s = "?"
		}
		b = append(b, s...)
	}
	return string(b)
}

func authorsAction(cCtx *cli.Context) error {
	db, err := openDatabase(cCtx)
	if err != nil {
		return err
	}
	for _, a := range db.Authors() {
		fmt.Printf("%s\twritable=%v\n", a.Name, a.Writable)
	}
	return nil
}

func addAuthorAction(cCtx *cli.Context) error {
	db, err := openDatabase(cCtx)
	if err != nil {
		return err
	}
	return db.SetDefaultAuthor(cCtx.String("name"))
}

func setAuthorWritableAction(cCtx *cli.Context) error {
	db, err := openDatabase(cCtx)
	if err != nil {
		return err
	}
	return db.SetAuthorWritable(cCtx.String("name"), cCtx.Bool("writable"))
}

func idsRequestAction(cCtx *cli.Context) error {
	db, err := openDatabase(cCtx)
	if err != nil {
		return err
	}
	ids, err := db.IDs.RequestIds(cCtx.String("keyname"), cCtx.Int("count"), cCtx.Bool("consecutive"))
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func idsRecycleAction(cCtx *cli.Context) error {
	db, err := openDatabase(cCtx)
	if err != nil {
		return err
	}
	ids := make([]int64, 0, cCtx.Args().Len())
	for _, a := range cCtx.Args().Slice() {
		var id int64
		if _, err := fmt.Sscanf(a, "%d", &id); err != nil {
			return fmt.Errorf("ffdbctl: invalid id %q: %w", a, err)
		}
		ids = append(ids, id)
	}
	db.IDs.RecycleIds(cCtx.String("keyname"), ids)
	return nil
}

func main() {
	app := &cli.App{
		Name:  "ffdbctl",
		Usage: "Inspect and query a CSS 3.0 flat-file waveform database.",
		Commands: []*cli.Command{
			{
				Name:  "query",
				Usage: "Run a restricted SELECT query and print matching rows.",
				Flags: append(append([]cli.Flag{}, rootFlags...), &cli.StringFlag{
					Name:     "sql",
					Usage:    "SELECT query text.",
					Required: true,
				}),
				Action: queryAction,
			},
			{
				Name:  "authors",
				Usage: "List known authors and their writable state.",
				Flags: rootFlags,
				Action: authorsAction,
			},
			{
				Name:  "add-author",
				Usage: "Register a new writable author.",
				Flags: append(append([]cli.Flag{}, rootFlags...), &cli.StringFlag{
					Name:     "name",
					Required: true,
				}),
				Action: addAuthorAction,
			},
			{
				Name:  "set-author-writable",
				Usage: "Toggle whether an author accepts inserts.",
				Flags: append(append([]cli.Flag{}, rootFlags...),
					&cli.StringFlag{Name: "name", Required: true},
					&cli.BoolFlag{Name: "writable", Value: true},
				),
				Action: setAuthorWritableAction,
			},
			{
				Name:  "ids-request",
				Usage: "Allocate ids for a keyname (arid, orid, wfid, ...).",
				Flags: append(append([]cli.Flag{}, rootFlags...),
					&cli.StringFlag{Name: "keyname", Required: true},
					&cli.IntFlag{Name: "count", Value: 1},
					&cli.BoolFlag{Name: "consecutive", Value: true},
				),
				Action: idsRequestAction,
			},
			{
				Name:      "ids-recycle",
				Usage:     "Return ids to a keyname's free list.",
				ArgsUsage: "ID [ID ...]",
				Flags: append(append([]cli.Flag{}, rootFlags...),
					&cli.StringFlag{Name: "keyname", Required: true},
				),
				Action: idsRecycleAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
