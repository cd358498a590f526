package dub

import (
	"fmt"
)

type matcher interface {
	match(i int) bool
}

type rangeMatch struct {
	start, end int
}

func (r rangeMatch) match(i int) bool {
	return (i >= r.start || r.start == -1) && (i <= r.end || r.end == -1)
}

var matchAll = rangeMatch{-1, -1}

type listMatch []int

func (l listMatch) match(i int) bool {
	for _, k := range l {
		if k == i {
			return true
		}
	}
	return false
}

// Selector picks bars by their 1-based number: '3, '1:4, '1,3,5, '1:2,7 or
// '* for every bar.
type Selector struct {
	matchers []matcher
	max      int // highest bar named explicitly
}

func (s Selector) match(bar int) bool {
	for _, m := range s.matchers {
		if m.match(bar) {
			return true
		}
	}
	return false
}

// Bars returns the 0-based indexes selected in a progression of n bars.
// Naming a bar beyond n is an error.
func (s Selector) Bars(n int) ([]int, error) {
	if s.max > n {
		return nil, fmt.Errorf("bar %d out of range 1-%d", s.max, n)
	}
	var bars []int
	for i := 1; i <= n; i++ {
		if s.match(i) {
			bars = append(bars, i-1)
		}
	}
	return bars, nil
}
