// Package stablesort provides a generic, stable, descending in-place sort.
//
// The account listing renders accounts in decreasing balance order and must
// keep equal-balance accounts in their original relative order, so stability
// is the contract here, not speed. Insertion sort gives stability for free
// and the inputs are small.
package stablesort

// Descending sorts s in place into non-increasing order under cmp.
//
// cmp returns a positive number if a ranks above b, zero if they are tied,
// and a negative number otherwise. Elements comparing equal keep their
// original relative order.
func Descending[T any](s []T, cmp func(a, b T) int) {
	for i := 1; i < len(s); i++ {
		toInsert := s[i]
		j := i
		// Shift forward every element that ranks strictly below toInsert.
		// Stopping at cmp == 0 is what preserves stability.
		for j > 0 && cmp(s[j-1], toInsert) < 0 {
			s[j] = s[j-1]
			j--
		}
		s[j] = toInsert
	}
}
