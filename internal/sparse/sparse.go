// Package sparse provides set algebra on sparse bit vectors represented as
// sorted int slices.
package sparse

// Diff returns the elements of a that are not in b. Both inputs must be
// sorted ascending; the result is sorted.
func Diff(a, b []int) []int {
	var out []int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			j++
		default:
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return out
}

// FromDense returns the indices of all true entries, in ascending order.
func FromDense(dense []bool) []int {
	n := 0
	for _, v := range dense {
		if v {
			n++
		}
	}
	out := make([]int, 0, n)
	for i, v := range dense {
		if v {
			out = append(out, i)
		}
	}
	return out
}

// Hamming returns the number of indices present in exactly one of a and b.
// Both inputs must be sorted ascending.
func Hamming(a, b []int) int {
	distance := 0
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			distance++
			i++
		case a[i] > b[j]:
			distance++
			j++
		default:
			i++
			j++
		}
	}
	distance += len(a) - i
	distance += len(b) - j
	return distance
}

// Contains reports whether the sorted slice a contains x.
func Contains(a []int, x int) bool {
	lo, hi := 0, len(a)
	for lo < hi {
		mid := (lo + hi) / 2
		if a[mid] < x {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo < len(a) && a[lo] == x
}
