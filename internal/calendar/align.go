// Package calendar aligns irregular event streams onto a daily trading
// calendar with backward ("as of") lookup.
package calendar

import (
	"sort"
	"time"
)

// Alignment maps every base date to an index into the target dates.
//
// Index[i] is the position of the most recent target date <= base[i]. When no
// such date exists the index is clamped to 0 and Preceded[i] is false, so the
// first known target value is attributed to earlier base dates.
type Alignment struct {
	Index    []int
	Preceded []bool
}

// AsOf aligns target onto base. Both must be sorted ascending. The result has
// len(base) entries; an empty target yields all-zero, all-unpreceded indices.
func AsOf(base, target []time.Time) Alignment {
	a := Alignment{
		Index:    make([]int, len(base)),
		Preceded: make([]bool, len(base)),
	}
	for i, d := range base {
		// Insertion point to the right of equal values, then one step back.
		pos := sort.Search(len(target), func(j int) bool {
			return target[j].After(d)
		})
		if pos == 0 {
			continue
		}
		a.Index[i] = pos - 1
		a.Preceded[i] = true
	}
	return a
}

// Take materializes values[Index[i]] for every base date.
func (a Alignment) Take(values []float64) []float64 {
	out := make([]float64, len(a.Index))
	if len(values) == 0 {
		return out
	}
	for i, idx := range a.Index {
		out[i] = values[idx]
	}
	return out
}

// Spread places each target value on the first base date on or after its own
// date and zero everywhere else. Values of several targets that fall into the
// same base day are summed. Targets before the first or after the last base
// date are dropped.
func Spread(base, target []time.Time, values []float64) []float64 {
	a := AsOf(base, target)
	out := make([]float64, len(base))
	prev := -1
	for i, idx := range a.Index {
		if !a.Preceded[i] {
			continue
		}
		for j := prev + 1; j <= idx; j++ {
			if i == 0 && target[j].Before(base[0]) {
				continue
			}
			out[i] += values[j]
		}
		prev = idx
	}
	return out
}
