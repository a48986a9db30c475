package simulate

// spearman returns the rank correlation between two orderings of the same
// ids. Ids missing from either side are ignored. Fewer than two shared ids
// correlate perfectly.
func spearman(truth, ranked []string) float64 {
	pos := make(map[string]int, len(ranked))
	for i, id := range ranked {
		pos[id] = i
	}

	type pair struct{ a, b int }
	var shared []pair
	for i, id := range truth {
		if j, ok := pos[id]; ok {
			shared = append(shared, pair{a: i, b: j})
		}
	}
	n := len(shared)
	if n < 2 {
		return 1
	}

	// Re-rank over the shared subset so both sides use 0..n-1.
	ra := denseRanks(shared, func(p pair) int { return p.a })
	rb := denseRanks(shared, func(p pair) int { return p.b })

	var sum float64
	for i := range shared {
		d := float64(ra[i] - rb[i])
		sum += d * d
	}
	nf := float64(n)
	return 1 - 6*sum/(nf*(nf*nf-1))
}

func denseRanks[T any](xs []T, key func(T) int) []int {
	ranks := make([]int, len(xs))
	for i := range xs {
		for j := range xs {
			if key(xs[j]) < key(xs[i]) {
				ranks[i]++
			}
		}
	}
	return ranks
}

// samePair reports whether two matchups name the same unordered pair.
func samePair(a, b matchupResponse) bool {
	return (a.Left.ID == b.Left.ID && a.Right.ID == b.Right.ID) ||
		(a.Left.ID == b.Right.ID && a.Right.ID == b.Left.ID)
}
