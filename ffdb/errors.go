package ffdb

import (
	"errors"
	"strconv"
)

// Typed error surface, flat sentinel list per the teacher's errors.go
// convention, expanded to the closed Kind enum spec.md §7 requires.
var (
	ErrNoParamRoot       = errors.New("ffdb: param_root does not exist")
	ErrNoSegRoot         = errors.New("ffdb: seg_root does not exist")
	ErrBadStructure      = errors.New("ffdb: unrecognized directory-structure token")
	ErrCreateDir         = errors.New("ffdb: failed to create directory")
	ErrOpenDir           = errors.New("ffdb: failed to open directory")
	ErrStatFile          = errors.New("ffdb: failed to stat file")
	ErrOpenRead          = errors.New("ffdb: failed to open file for reading")
	ErrOpenWrite         = errors.New("ffdb: failed to open file for writing")
	ErrAuthorNotWritable = errors.New("ffdb: author is not writable")
	ErrAuthorWrite       = errors.New("ffdb: author write failed")
	ErrUnknownAuthor     = errors.New("ffdb: unknown author")
	ErrRecordNotFound    = errors.New("ffdb: record not found")
	ErrInvalidQuery      = errors.New("ffdb: invalid query")
)

// TableReadErr reports a row that failed schema validation while
// reading a file; the reader skips it and continues, per spec.md §4.H.
type TableReadErr struct {
	File   string
	LineNo int
	Reason string
}

func (e *TableReadErr) Error() string {
	return e.File + ": line " + strconv.Itoa(e.LineNo) + ": " + e.Reason
}
