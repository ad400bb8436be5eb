package snapshot

import "github.com/galpt/datahub/pkg/tree"

// isTimely reports whether e itself (ignoring its children) counts as
// timely for a since threshold: its resource accepted a value more
// recently than since. Newness is a separate self-qualification clause
// (FilterCreated), not folded into timeliness.
func isTimely(e *tree.Entry, since float64) bool {
	return e.LastModified() > since
}

// selfQualifies implements the self-qualification rule for one node under
// filter: FilterCreated and IsNew, or FilterDeleted and IsDeleted, or
// (FilterCreated|FilterNormal) and timely.
func selfQualifies(e *tree.Entry, since float64, filter FilterMask) bool {
	if filter&FilterCreated != 0 && e.IsNew() {
		return true
	}
	if filter&FilterDeleted != 0 && e.IsDeleted() {
		return true
	}
	if filter&(FilterCreated|FilterNormal) != 0 && isTimely(e, since) {
		return true
	}
	return false
}

// updateRelevance recomputes the per-pass relevance scratch flag
// bottom-up: an entry is relevant if it is the root, if it self-qualifies
// under filter, or if any descendant is relevant. Matches UpdateRelevance
// in the original, which exists so the formatter can skip whole subtrees
// that have nothing to report instead of emitting empty namespace nodes.
//
// A FilterDeleted pass walks deleted children too (includeDeleted), since
// those are exactly the nodes it exists to find; a live-data pass does
// not, matching FirstChild/NextSibling's default visibility.
func updateRelevance(e *tree.Entry, since float64, filter FilterMask, isRoot bool) bool {
	includeDeleted := filter&FilterDeleted != 0
	relevant := isRoot || selfQualifies(e, since, filter)
	for c := e.FirstChild(includeDeleted); c != nil; c = c.NextSibling(includeDeleted) {
		if updateRelevance(c, since, filter, false) {
			relevant = true
		}
	}
	e.SetRelevant(relevant)
	return relevant
}
