package ffdb

import "sort"

// period is a half-open [Start, End) time interval.
type period struct {
	Start float64
	End   float64
}

// periodSet is a sorted, merging interval set of half-open time
// ranges, grounded on original_source/gbase/include/gobject/Periods.h,
// which keeps the same sorted-merge representation. The store's
// partition reads (ReadPartitions, findPartitionFiles) do not consult
// it.
type periodSet struct {
	periods []period
}

// newPeriodSet builds a periodSet from the given intervals, merging
// any that overlap or touch.
func newPeriodSet(intervals ...period) *periodSet {
	ps := &periodSet{}
	for _, p := range intervals {
		ps.Add(p)
	}
	return ps
}

// Add unions p into the set, merging it with any interval it overlaps
// or abuts.
func (ps *periodSet) Add(p period) {
	if p.End <= p.Start {
		return
	}
	ps.periods = append(ps.periods, p)
	sort.Slice(ps.periods, func(i, j int) bool { return ps.periods[i].Start < ps.periods[j].Start })

	merged := ps.periods[:1]
	for _, cur := range ps.periods[1:] {
		last := &merged[len(merged)-1]
		if cur.Start <= last.End {
			if cur.End > last.End {
				last.End = cur.End
			}
			continue
		}
		merged = append(merged, cur)
	}
	ps.periods = merged
}

// Contains reports whether t falls within any interval of the set.
func (ps *periodSet) Contains(t float64) bool {
	for _, p := range ps.periods {
		if t >= p.Start && t < p.End {
			return true
		}
	}
	return false
}

// Overlaps reports whether [start, end) intersects any interval of
// the set — the predicate partition pruning actually needs: "does
// this candidate partition's window intersect the query's window."
func (ps *periodSet) Overlaps(start, end float64) bool {
	for _, p := range ps.periods {
		if start < p.End && end > p.Start {
			return true
		}
	}
	return false
}

// Bounds returns the set's overall [min, max) span. ok is false for an
// empty set.
func (ps *periodSet) Bounds() (period, bool) {
	if len(ps.periods) == 0 {
		return period{}, false
	}
	min := ps.periods[0].Start
	max := ps.periods[0].End
	for _, p := range ps.periods[1:] {
		if p.Start < min {
			min = p.Start
		}
		if p.End > max {
			max = p.End
		}
	}
	return period{Start: min, End: max}, true
}
