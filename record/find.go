package record

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Find returns the first record in records whose member field equals
// value, the way the teacher's FindGsf walks a tree looking for the
// first path matching a glob (search/search.go) — same "linear scan,
// stop at first match" shape, applied to in-memory rows instead of a
// VFS tree.
func Find(records []*Record, member string, value any) (*Record, bool) {
	for _, rec := range records {
		v, err := rec.Get(member)
		if err != nil {
			continue
		}
		if v == value {
			return rec, true
		}
	}
	return nil, false
}

// SortBy orders records in place by member, ascending; the sort is
// stable, so records with equal values keep their order. String-typed
// members sort lexicographically; everything else is compared as a
// float64 (wide enough to hold every CSS 3.0 numeric column without
// precision loss for the sizes these tables use).
func SortBy(records []*Record, member string) error {
	var firstErr error
	slices.SortStableFunc(records, func(a, b *Record) int {
		av, err := a.Get(member)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("record: SortBy %s: %w", member, err)
		}
		bv, err := b.Get(member)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("record: SortBy %s: %w", member, err)
		}
		return compare(av, bv)
	})
	return firstErr
}

// compare returns -1, 0, or 1 the way slices.SortStableFunc's cmp expects.
func compare(a, b any) int {
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			switch {
			case as < bs:
				return -1
			case as > bs:
				return 1
			default:
				return 0
			}
		}
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
