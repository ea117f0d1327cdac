package query

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alitto/pond"
	"github.com/samber/lo"

	"github.com/sixy6e/go-ffdb/record"
)

// MAX_MEM_RECORDS bounds the producer's result channel, per spec.md
// §5's "bounded queue" streaming contract.
const MAX_MEM_RECORDS = 5000

var (
	ErrQueryClosed = errors.New("query: result stream already closed")
)

// TableSource supplies candidate records for one bound table within a
// time window, decoupling the executor from ffdb.Database so §4.H and
// §4.I stay independent packages (ffdb.QueryTableInit and
// ffdb.QueryPrefix construct a Plan and pass the database, which
// satisfies this interface, to NewExecutor).
type TableSource interface {
	ReadPartitions(table PlanTable, tmin, tmax float64) ([]*record.Record, error)
	Bounds() (float64, float64)
}

// Executor runs a Plan against a TableSource, producing a streamed
// ResultStream. One pond.WorkerPool-backed goroutine per active query
// acts as the background producer, mirroring the teacher's own
// pond.New(n, 0, pond.MinWorkers(n), pond.Context(ctx)) pattern in
// cmd/main.go, generalized from "one worker per GSF file converted" to
// "one worker: the query's producer loop".
type Executor struct {
	source TableSource
}

// NewExecutor constructs an Executor reading from source.
func NewExecutor(source TableSource) *Executor {
	return &Executor{source: source}
}

// ResultStream is a handle to a streaming query's in-flight results.
type ResultStream struct {
	ch     chan *record.Record
	errCh  chan error
	cancel context.CancelFunc
	pool   *pond.WorkerPool
	once   sync.Once
	closed bool
}

// Stream launches the query's producer and returns immediately; rows
// arrive on the stream as the producer materializes them.
func (e *Executor) Stream(plan *Plan) (*ResultStream, error) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := pond.New(1, 0, pond.MinWorkers(1), pond.Context(ctx))

	rs := &ResultStream{
		ch:     make(chan *record.Record, MAX_MEM_RECORDS),
		errCh:  make(chan error, 1),
		cancel: cancel,
		pool:   pool,
	}

	pool.Submit(func() {
		defer close(rs.ch)
		if err := e.run(ctx, plan, rs.ch); err != nil {
			select {
			case rs.errCh <- err:
			default:
			}
		}
	})

	return rs, nil
}

func (e *Executor) run(ctx context.Context, plan *Plan, out chan<- *record.Record) error {
	ordered := OrderTables(plan)
	if len(ordered) == 0 {
		return fmt.Errorf("%w: empty FROM clause", ErrInvalidQuery)
	}
	dbMin, dbMax := e.source.Bounds()

	outer := ordered[0]
	tmin, tmax := LocalWindow(plan, outer.Alias, dbMin, dbMax)
	outerRows, err := e.source.ReadPartitions(outer, tmin, tmax)
	if err != nil {
		return err
	}

	seen := &distinctSeen{}
	for _, row := range outerRows {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		bound := map[string]*record.Record{outer.Alias: row}
		if !satisfiesSingleTable(plan, outer.Alias, row) {
			continue
		}
		if err := e.joinInner(ctx, plan, ordered[1:], bound, out, seen); err != nil {
			return err
		}
	}
	return nil
}

// joinInner nested-loops through remaining tables, binding a row for
// each before evaluating cross-table equality constraints, per
// spec.md §4.I's "nested-loop with inner-side indexing on the current
// join key" (the inner rows loaded per outer row already index-filter
// by window; no separate hash index is needed at this scale).
func (e *Executor) joinInner(ctx context.Context, plan *Plan, remaining []PlanTable, bound map[string]*record.Record, out chan<- *record.Record, seen *distinctSeen) error {
	if len(remaining) == 0 {
		return emit(plan, bound, out, seen)
	}
	inner := remaining[0]
	dbMin, dbMax := e.source.Bounds()
	tmin, tmax := LocalWindow(plan, inner.Alias, dbMin, dbMax)
	rows, err := e.source.ReadPartitions(inner, tmin, tmax)
	if err != nil {
		return err
	}
	for _, row := range rows {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if !satisfiesSingleTable(plan, inner.Alias, row) {
			continue
		}
		candidate := make(map[string]*record.Record, len(bound)+1)
		for k, v := range bound {
			candidate[k] = v
		}
		candidate[inner.Alias] = row
		if !satisfiesJoinConstraints(plan, candidate) {
			continue
		}
		if err := e.joinInner(ctx, plan, remaining[1:], candidate, out, seen); err != nil {
			return err
		}
	}
	return nil
}

func satisfiesSingleTable(plan *Plan, alias string, row *record.Record) bool {
	for _, c := range plan.Constraints {
		if c.Alias != alias || c.RefAlias != "" {
			continue
		}
		v, err := row.Get(c.Column)
		if err != nil {
			return false
		}
		if !compareConstraint(v, c) {
			return false
		}
	}
	return true
}

func satisfiesJoinConstraints(plan *Plan, bound map[string]*record.Record) bool {
	for _, c := range plan.Constraints {
		if c.RefAlias == "" {
			continue
		}
		left, ok := bound[c.Alias]
		if !ok {
			continue
		}
		right, ok := bound[c.RefAlias]
		if !ok {
			continue
		}
		lv, err := left.Get(c.Column)
		if err != nil {
			return false
		}
		rv, err := right.Get(c.RefColumn)
		if err != nil {
			return false
		}
		if fmt.Sprint(lv) != fmt.Sprint(rv) {
			return false
		}
	}
	return true
}

func compareConstraint(v any, c Constraint) bool {
	switch c.Op {
	case OpIn:
		for _, item := range c.ValueList {
			if fmt.Sprint(v) == fmt.Sprint(item) {
				return true
			}
		}
		return false
	case OpLike:
		s, _ := v.(string)
		pattern, _ := c.Value.(string)
		return likeMatch(s, pattern)
	default:
		return compareScalar(v, c.Op, c.Value)
	}
}

func compareScalar(v any, op Op, target any) bool {
	lf, lok := toFloat(v)
	rf, rok := toFloat(target)
	if lok && rok {
		switch op {
		case OpEq:
			return lf == rf
		case OpNeq:
			return lf != rf
		case OpLt:
			return lf < rf
		case OpLte:
			return lf <= rf
		case OpGt:
			return lf > rf
		case OpGte:
			return lf >= rf
		}
	}
	ls, rs := fmt.Sprint(v), fmt.Sprint(target)
	switch op {
	case OpEq:
		return ls == rs
	case OpNeq:
		return ls != rs
	case OpLt:
		return ls < rs
	case OpLte:
		return ls <= rs
	case OpGt:
		return ls > rs
	case OpGte:
		return ls >= rs
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

// likeMatch implements the restricted SQL LIKE wildcard (% matches
// any run, _ matches one char) without pulling in a regex dependency
// for a single-wildcard-family match.
func likeMatch(s, pattern string) bool {
	return likeMatchRunes([]rune(s), []rune(pattern))
}

func likeMatchRunes(s, p []rune) bool {
	if len(p) == 0 {
		return len(s) == 0
	}
	switch p[0] {
	case '%':
		for i := 0; i <= len(s); i++ {
			if likeMatchRunes(s[i:], p[1:]) {
				return true
			}
		}
		return false
	case '_':
		if len(s) == 0 {
			return false
		}
		return likeMatchRunes(s[1:], p[1:])
	default:
		if len(s) == 0 || s[0] != p[0] {
			return false
		}
		return likeMatchRunes(s[1:], p[1:])
	}
}

// distinctSeen tracks DISTINCT row-bytes keys observed so far. addIfNew
// appends key and re-derives the set through lo.Uniq, reporting
// whether key was genuinely new; a plain map would do the same book-
// keeping but lo.Uniq is the dedup primitive spec.md §4.I names.
type distinctSeen struct {
	keys []string
}

func (d *distinctSeen) addIfNew(key string) bool {
	before := len(d.keys)
	d.keys = lo.Uniq(append(d.keys, key))
	return len(d.keys) > before
}

// emit sends the whole record bound to the first FROM-clause table,
// one per joined row group; the SELECT list is not projected onto it.
// When plan.Distinct is set, a group whose SELECT-listed values were
// already emitted is dropped (dedup key via lo.Uniq).
func emit(plan *Plan, bound map[string]*record.Record, out chan<- *record.Record, seen *distinctSeen) error {
	outer := plan.Tables[0]
	row, ok := bound[outer.Alias]
	if !ok {
		return nil
	}
	if plan.Distinct {
		key, err := rowKey(plan, bound)
		if err != nil {
			return err
		}
		if !seen.addIfNew(key) {
			return nil
		}
	}
	out <- row
	return nil
}

func rowKey(plan *Plan, bound map[string]*record.Record) (string, error) {
	var b []byte
	for _, col := range plan.SelectCols {
		rec, ok := bound[col.Alias]
		if !ok {
			continue
		}
		s, err := rec.GetStringValue(col.Column)
		if err != nil {
			return "", err
		}
		b = append(b, s...)
		b = append(b, 0)
	}
	return string(b), nil
}

// Next dequeues up to n records, blocking until n have been collected
// or the producer has finished; an empty result means the stream is
// exhausted. A producer error surfaces on
// the first Next call after it occurred, per spec.md §4.I's streaming
// contract.
func (rs *ResultStream) Next(n int) ([]*record.Record, error) {
	select {
	case err := <-rs.errCh:
		return nil, err
	default:
	}
	out := make([]*record.Record, 0, n)
	for len(out) < n {
		row, ok := <-rs.ch
		if !ok {
			break
		}
		out = append(out, row)
	}
	if len(out) == 0 {
		select {
		case err := <-rs.errCh:
			return nil, err
		default:
		}
	}
	return out, nil
}

// Close signals cancellation and joins the producer. Closing an
// already-closed stream reports ErrQueryClosed.
func (rs *ResultStream) Close() error {
	if rs.closed {
		return ErrQueryClosed
	}
	rs.once.Do(func() {
		rs.cancel()
		rs.pool.StopAndWait()
		rs.closed = true
	})
	return nil
}
