package geom

import "sort"

// NormalizeZ maps arbitrary z-index values to the dense sequence 0..N-1,
// keeping their relative order. Equal values keep input order.
func NormalizeZ(z []int) []int {
	idx := make([]int, len(z))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return z[idx[a]] < z[idx[b]] })

	out := make([]int, len(z))
	for rank, i := range idx {
		out[i] = rank
	}
	return out
}
