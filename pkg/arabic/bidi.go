package arabic

import (
	"golang.org/x/text/unicode/bidi"
)

// mirrors pairs the characters that swap glyphs inside right-to-left runs.
var mirrors = map[rune]rune{
	'(': ')', ')': '(',
	'[': ']', ']': '[',
	'{': '}', '}': '{',
	'<': '>', '>': '<',
	'\u00ab': '\u00bb', '\u00bb': '\u00ab',
	'\u2039': '\u203a', '\u203a': '\u2039',
}

// invisible marks are resolved like any other character and then dropped,
// fonts rarely carry glyphs for them.
func invisible(r rune) bool {
	return r == '\u200e' || r == '\u200f' || r == '\u061c'
}

// Reorder converts a single logical line into display order. The paragraph
// direction comes from the first strong character and defaults to
// right-to-left. Explicit embedding controls are ignored and removed.
func Reorder(s string) string {
	var runes []rune
	var orig []bidi.Class
	for _, r := range s {
		p, _ := bidi.LookupRune(r)
		c := p.Class()
		switch c {
		case bidi.BN, bidi.LRE, bidi.RLE, bidi.LRO, bidi.RLO, bidi.PDF,
			bidi.LRI, bidi.RLI, bidi.FSI, bidi.PDI, bidi.Control:
			continue
		}
		runes = append(runes, r)
		orig = append(orig, c)
	}
	n := len(runes)
	if n == 0 {
		return ""
	}

	base := paragraphLevel(orig)
	sor := bidi.L
	if base == 1 {
		sor = bidi.R
	}

	types := make([]bidi.Class, n)
	copy(types, orig)
	resolveWeak(types, sor)
	resolveNeutral(types, sor)
	levels := resolveImplicit(types, base)
	resetTrailing(orig, levels, base)

	order := visualOrder(levels)
	order = moveMarks(order, orig, levels)

	out := make([]rune, 0, n)
	for _, idx := range order {
		r := runes[idx]
		if invisible(r) {
			continue
		}
		if levels[idx]%2 == 1 {
			if m, ok := mirrors[r]; ok {
				r = m
			}
		}
		out = append(out, r)
	}
	return string(out)
}

// paragraphLevel applies rules P2 and P3.
func paragraphLevel(types []bidi.Class) int {
	for _, t := range types {
		switch t {
		case bidi.L:
			return 0
		case bidi.R, bidi.AL:
			return 1
		}
	}
	return 1
}

// lastStrong returns the nearest strong class before i, or sor.
func lastStrong(types []bidi.Class, i int, sor bidi.Class) bidi.Class {
	for j := i - 1; j >= 0; j-- {
		switch types[j] {
		case bidi.L, bidi.R, bidi.AL:
			return types[j]
		}
	}
	return sor
}

// resolveWeak applies rules W1 to W7.
func resolveWeak(types []bidi.Class, sor bidi.Class) {
	n := len(types)

	// W1
	for i := range types {
		if types[i] == bidi.NSM {
			if i == 0 {
				types[i] = sor
			} else {
				types[i] = types[i-1]
			}
		}
	}
	// W2
	for i := range types {
		if types[i] == bidi.EN && lastStrong(types, i, sor) == bidi.AL {
			types[i] = bidi.AN
		}
	}
	// W3
	for i := range types {
		if types[i] == bidi.AL {
			types[i] = bidi.R
		}
	}
	// W4
	for i := 1; i+1 < n; i++ {
		prev, next := types[i-1], types[i+1]
		switch types[i] {
		case bidi.ES:
			if prev == bidi.EN && next == bidi.EN {
				types[i] = bidi.EN
			}
		case bidi.CS:
			if prev == bidi.EN && next == bidi.EN {
				types[i] = bidi.EN
			} else if prev == bidi.AN && next == bidi.AN {
				types[i] = bidi.AN
			}
		}
	}
	// W5
	for i := 0; i < n; {
		if types[i] != bidi.ET {
			i++
			continue
		}
		j := i
		for j < n && types[j] == bidi.ET {
			j++
		}
		if (i > 0 && types[i-1] == bidi.EN) || (j < n && types[j] == bidi.EN) {
			for k := i; k < j; k++ {
				types[k] = bidi.EN
			}
		}
		i = j
	}
	// W6
	for i, t := range types {
		switch t {
		case bidi.ES, bidi.ET, bidi.CS:
			types[i] = bidi.ON
		}
	}
	// W7
	for i := range types {
		if types[i] == bidi.EN && lastStrong(types, i, sor) == bidi.L {
			types[i] = bidi.L
		}
	}
}

func isNeutral(t bidi.Class) bool {
	switch t {
	case bidi.B, bidi.S, bidi.WS, bidi.ON:
		return true
	}
	return false
}

// strongDir maps a resolved class to the direction it imposes on neutrals.
func strongDir(t bidi.Class) bidi.Class {
	if t == bidi.L {
		return bidi.L
	}
	return bidi.R
}

// resolveNeutral applies rules N1 and N2 over a single level run.
func resolveNeutral(types []bidi.Class, sor bidi.Class) {
	n := len(types)
	for i := 0; i < n; {
		if !isNeutral(types[i]) {
			i++
			continue
		}
		j := i
		for j < n && isNeutral(types[j]) {
			j++
		}
		before, after := sor, sor
		if i > 0 {
			before = strongDir(types[i-1])
		}
		if j < n {
			after = strongDir(types[j])
		}
		dir := sor
		if before == after {
			dir = before
		}
		for k := i; k < j; k++ {
			types[k] = dir
		}
		i = j
	}
}

// resolveImplicit applies rules I1 and I2.
func resolveImplicit(types []bidi.Class, base int) []int {
	levels := make([]int, len(types))
	for i, t := range types {
		lvl := base
		if base%2 == 0 {
			switch t {
			case bidi.R:
				lvl++
			case bidi.AN, bidi.EN:
				lvl += 2
			}
		} else {
			switch t {
			case bidi.L, bidi.EN, bidi.AN:
				lvl++
			}
		}
		levels[i] = lvl
	}
	return levels
}

// resetTrailing applies rule L1 to separators and trailing whitespace.
func resetTrailing(orig []bidi.Class, levels []int, base int) {
	trailing := true
	for i := len(orig) - 1; i >= 0; i-- {
		switch orig[i] {
		case bidi.S, bidi.B:
			levels[i] = base
			trailing = true
		case bidi.WS:
			if trailing {
				levels[i] = base
			}
		default:
			trailing = false
		}
	}
}

// visualOrder applies rule L2 and returns logical indexes in display order.
func visualOrder(levels []int) []int {
	order := make([]int, len(levels))
	maxLevel, minOdd := 0, -1
	for i, l := range levels {
		order[i] = i
		if l > maxLevel {
			maxLevel = l
		}
		if l%2 == 1 && (minOdd < 0 || l < minOdd) {
			minOdd = l
		}
	}
	if minOdd < 0 {
		return order
	}
	for lvl := maxLevel; lvl >= minOdd; lvl-- {
		for i := 0; i < len(order); {
			if levels[order[i]] < lvl {
				i++
				continue
			}
			j := i
			for j < len(order) && levels[order[j]] >= lvl {
				j++
			}
			for a, b := i, j-1; a < b; a, b = a+1, b-1 {
				order[a], order[b] = order[b], order[a]
			}
			i = j
		}
	}
	return order
}

// moveMarks applies rule L3: reversed marks in right-to-left runs are moved
// back behind their base character so they attach to it when drawn.
func moveMarks(order []int, orig []bidi.Class, levels []int) []int {
	for i := 0; i < len(order); {
		idx := order[i]
		if orig[idx] != bidi.NSM || levels[idx]%2 == 0 {
			i++
			continue
		}
		j := i
		for j < len(order) && orig[order[j]] == bidi.NSM && levels[order[j]]%2 == 1 {
			j++
		}
		if j == len(order) {
			break
		}
		// order[i:j] are marks, order[j] is their base
		baseIdx := order[j]
		copy(order[i+1:j+1], order[i:j])
		order[i] = baseIdx
		i = j + 1
	}
	return order
}
