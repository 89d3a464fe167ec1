package util

import "github.com/antzucaro/matchr"

// LabelGroup is a cluster of labels judged to be near-duplicates of one
// another, e.g. "1abcA00" and "1abcA01" reported as separate hits against
// what is really the same domain boundary typo.
type LabelGroup struct {
	Labels []string
}

// GroupSimilarLabels clusters labels by Jaro-Winkler similarity. Labels are graph-connected
// (union of pairwise matches above threshold), not just matched against a
// single representative, so a chain of near-duplicates collapses into one
// group even if the endpoints alone fall below threshold.
//
// threshold is a Jaro-Winkler similarity in [0,1]; 0.9 is a reasonable
// default for catching single-character domain-boundary typos in CATH
// labels without merging genuinely distinct domains.
func GroupSimilarLabels(labels []string, threshold float64) []LabelGroup {
	n := len(labels)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim, err := matchr.JaroWinkler(labels[i], labels[j], true)
			if err != nil {
				continue
			}
			if sim >= threshold {
				union(i, j)
			}
		}
	}

	byRoot := map[int][]string{}
	var order []int
	for i, label := range labels {
		r := find(i)
		if _, seen := byRoot[r]; !seen {
			order = append(order, r)
		}
		byRoot[r] = append(byRoot[r], label)
	}

	groups := make([]LabelGroup, 0, len(order))
	for _, r := range order {
		groups = append(groups, LabelGroup{Labels: byRoot[r]})
	}
	return groups
}
