package mapping

import "sort"

// DuplicateButtonIndices returns every index used by two or more buttons.
func DuplicateButtonIndices(m GamepadMapping) map[int]bool {
	counts := make(map[int]int, len(m.Buttons))
	for _, b := range m.Buttons {
		counts[b.Index]++
	}
	return repeated(counts)
}

// DuplicateButtonNames returns every name used by two or more buttons.
// Empty names are reported separately by the editor.
func DuplicateButtonNames(m GamepadMapping) map[string]bool {
	counts := make(map[string]int, len(m.Buttons))
	for _, b := range m.Buttons {
		counts[b.Name]++
	}
	return repeated(counts)
}

// DuplicateAxisIndices returns every axis index used more than once across
// all directionals. The x and y of a single directional count separately.
func DuplicateAxisIndices(m GamepadMapping) map[int]bool {
	counts := make(map[int]int, 2*len(m.Directionals))
	for _, d := range m.Directionals {
		counts[d.X]++
		counts[d.Y]++
	}
	return repeated(counts)
}

// NextButtonIndex returns the first button index not used contiguously from
// zero.
func NextButtonIndex(m GamepadMapping) int {
	used := make([]int, 0, len(m.Buttons))
	for _, b := range m.Buttons {
		used = append(used, b.Index)
	}
	return nextFree(used)
}

// NextAxisIndex returns the first axis index not used contiguously from zero.
func NextAxisIndex(m GamepadMapping) int {
	return nextFree(axisPool(m))
}

func axisPool(m GamepadMapping) []int {
	pool := make([]int, 0, 2*len(m.Directionals))
	for _, d := range m.Directionals {
		pool = append(pool, d.X, d.Y)
	}
	return pool
}

// nextFree sorts a copy of used and advances the candidate only on an exact
// match, so repeated values never open a gap.
func nextFree(used []int) int {
	sorted := append([]int(nil), used...)
	sort.Ints(sorted)

	next := 0
	for _, i := range sorted {
		if i == next {
			next++
		}
	}
	return next
}

func repeated[K comparable](counts map[K]int) map[K]bool {
	out := make(map[K]bool)
	for k, n := range counts {
		if n > 1 {
			out[k] = true
		}
	}
	return out
}
