package export

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Mask selects indices by flag. A nil mask includes everything; a non-nil
// mask includes only indices flagged true.
type Mask map[int]bool

// Includes reports whether index i is selected.
func (m Mask) Includes(i int) bool {
	if m == nil {
		return true
	}
	return m[i]
}

// Selected returns the included indices below n in ascending order.
func (m Mask) Selected(n int) []int {
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if m.Includes(i) {
			out = append(out, i)
		}
	}
	return out
}

// ParseMask parses a comma-separated index list such as "0,2,5" or "1-3".
// An empty string yields a nil mask.
func ParseMask(s string) (Mask, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	m := make(Mask)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(lo)
		if err != nil || start < 0 {
			return nil, fmt.Errorf("invalid index %q", part)
		}
		end := start
		if isRange {
			if end, err = strconv.Atoi(hi); err != nil || end < start {
				return nil, fmt.Errorf("invalid range %q", part)
			}
		}
		for i := start; i <= end; i++ {
			m[i] = true
		}
	}
	return m, nil
}

// String lists the included indices.
func (m Mask) String() string {
	if m == nil {
		return "all"
	}
	var idx []int
	for i, ok := range m {
		if ok {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	parts := make([]string, len(idx))
	for i, v := range idx {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
