// Package balance splits a group of ranked participants into two teams of
// comparable total skill.
package balance

import "github.com/okian/rankteam/internal/domain/model"

// TeamSize returns floor(n/2), the size of team A for n eligible participants.
func TeamSize(n int) int { return n / 2 }

// CombinationCount returns C(n, floor(n/2)), the number of partitions
// Generate yields for n participants. It returns 0 for n <= 0.
func CombinationCount(n int) int {
	if n <= 0 {
		return 0
	}
	k := TeamSize(n)
	c := 1
	for i := 1; i <= k; i++ {
		c = c * (n - k + i) / i
	}
	return c
}

// Generate enumerates every partition of players into a team A of
// floor(N/2) members and its complement B.
//
// Team A index sets are produced in lexicographic order over the input
// order, the same order as an include-first depth-first walk, so identical
// input always yields identical output. The result holds C(N, N/2)
// entries; callers bound N before calling.
func Generate(players []model.ScoredParticipant) []model.Combination {
	n := len(players)
	if n == 0 {
		return nil
	}
	k := TeamSize(n)

	out := make([]model.Combination, 0, CombinationCount(n))
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		out = append(out, split(players, idx))

		// Advance to the next k-subset: bump the rightmost index that still
		// has room, then reset everything after it.
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return out
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// split builds the combination whose team A holds players at the sorted
// positions in idx.
func split(players []model.ScoredParticipant, idx []int) model.Combination {
	a := make([]model.ScoredParticipant, 0, len(idx))
	b := make([]model.ScoredParticipant, 0, len(players)-len(idx))
	next := 0
	for i, p := range players {
		if next < len(idx) && idx[next] == i {
			a = append(a, p)
			next++
			continue
		}
		b = append(b, p)
	}
	return model.Combination{A: model.Team{Members: a}, B: model.Team{Members: b}}
}
