package query

import "sort"

// boundLiteralCounts returns, for each table alias, the number of
// Constraints that bind it to a literal value (not a cross-table
// reference) — spec.md §4.I step 4's "tables with more bound literal
// terms first".
func boundLiteralCounts(plan *Plan) map[string]int {
	counts := make(map[string]int, len(plan.Tables))
	for _, t := range plan.Tables {
		counts[t.Alias] = 0
	}
	for _, c := range plan.Constraints {
		if c.RefAlias == "" {
			counts[c.Alias]++
		}
	}
	return counts
}

// OrderTables returns plan.Tables reordered constrained-first: the
// table with the most literal-bound WHERE terms becomes the outer
// loop, ties broken by original FROM-clause order for determinism.
func OrderTables(plan *Plan) []PlanTable {
	counts := boundLiteralCounts(plan)
	ordered := make([]PlanTable, len(plan.Tables))
	copy(ordered, plan.Tables)
	sort.SliceStable(ordered, func(i, j int) bool {
		return counts[ordered[i].Alias] > counts[ordered[j].Alias]
	})
	return ordered
}

// LocalWindow computes the union of (time, endtime) or (ondate,
// offdate) literal constraints bound to alias, per spec.md §4.I step
// 3. dbMin/dbMax are the global database bounds, always included so an
// unconstrained table still gets a usable (if wide) window.
func LocalWindow(plan *Plan, alias string, dbMin, dbMax float64) (float64, float64) {
	lo, hi := dbMin, dbMax
	for _, c := range plan.Constraints {
		if c.Alias != alias || c.RefAlias != "" {
			continue
		}
		switch c.Column {
		case "time", "ondate":
			if f, ok := c.Value.(float64); ok {
				switch c.Op {
				case OpGte, OpGt, OpEq:
					if f > lo {
						lo = f
					}
				}
			}
		case "endtime", "offdate":
			if f, ok := c.Value.(float64); ok {
				switch c.Op {
				case OpLte, OpLt, OpEq:
					if f < hi {
						hi = f
					}
				}
			}
		}
	}
	return lo, hi
}
