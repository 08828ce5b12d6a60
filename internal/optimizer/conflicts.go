package optimizer

import "sort"

// ResolveConflicts selects a non-overlapping subset of scored edits.
// Selection is greedy over the whole candidate set: highest final confidence
// first, ties broken by larger token savings, then by smaller start offset.
// An edit is kept only if its span does not intersect any already-kept span.
// The returned slice is ordered by start offset.
func ResolveConflicts(edits []ScoredEdit) []ScoredEdit {
	if len(edits) <= 1 {
		return edits
	}
	ranked := make([]ScoredEdit, len(edits))
	copy(ranked, edits)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := &ranked[i], &ranked[j]
		if a.Confidence.Final != b.Confidence.Final {
			return a.Confidence.Final > b.Confidence.Final
		}
		if a.TokenSavings != b.TokenSavings {
			return a.TokenSavings > b.TokenSavings
		}
		return a.Start < b.Start
	})

	var kept []ScoredEdit
	for _, e := range ranked {
		if overlapsAny(kept, e) {
			continue
		}
		kept = append(kept, e)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}

func overlapsAny(kept []ScoredEdit, e ScoredEdit) bool {
	for _, k := range kept {
		if e.Start < k.End && k.Start < e.End {
			return true
		}
	}
	return false
}
