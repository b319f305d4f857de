package scorer

// editCosts holds the unit costs of the three edit operations.
type editCosts struct {
	insert  int
	replace int
	delete  int
}

var defaultEditCosts = editCosts{insert: 1, replace: 1, delete: 1}

// levenshtein computes the minimum-cost edit distance between a and b using
// the given unit costs. It operates on runes and keeps only two rolling rows
// of length len(b)+1 instead of the full matrix.
func levenshtein(a, b string, costs editCosts) int {
	if a == b {
		return 0
	}
	runesA := []rune(a)
	runesB := []rune(b)
	if len(runesA) == 0 {
		return len(runesB) * costs.insert
	}
	if len(runesB) == 0 {
		return len(runesA) * costs.delete
	}

	prev := make([]int, len(runesB)+1)
	curr := make([]int, len(runesB)+1)
	for j := range prev {
		prev[j] = j * costs.insert
	}

	for i := 1; i <= len(runesA); i++ {
		curr[0] = i * costs.delete
		for j := 1; j <= len(runesB); j++ {
			sub := prev[j-1]
			if runesA[i-1] != runesB[j-1] {
				sub += costs.replace
			}
			best := prev[j] + costs.delete
			if ins := curr[j-1] + costs.insert; ins < best {
				best = ins
			}
			if sub < best {
				best = sub
			}
			curr[j] = best
		}
		prev, curr = curr, prev
	}
	return prev[len(runesB)]
}
