package resolve

import (
	"github.com/xrash/smetrics"
)

// Ratio returns the normalized Indel similarity of a and b in [0,100]:
// 100 * (1 - distance/(len(a)+len(b))) where only insertions and deletions
// are counted and lengths are in runes.
func Ratio(a, b string) float64 {
	return ratio([]rune(a), []rune(b))
}

func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	sa, sb, ok := compact(a, b)
	if !ok {
		sa, sb = string(a), string(b)
		total = len(sa) + len(sb)
	}
	d := smetrics.WagnerFischer(sa, sb, 1, 1, 2)
	return 100 * float64(total-d) / float64(total)
}

// compact rewrites a and b over a shared single-byte alphabet so that a
// byte-level edit distance counts runes. It fails when a and b use more than
// 256 distinct runes.
func compact(a, b []rune) (string, string, bool) {
	alphabet := make(map[rune]byte, len(a)+len(b))
	encode := func(rs []rune) ([]byte, bool) {
		out := make([]byte, len(rs))
		for i, r := range rs {
			code, ok := alphabet[r]
			if !ok {
				if len(alphabet) == 256 {
					return nil, false
				}
				code = byte(len(alphabet))
				alphabet[r] = code
			}
			out[i] = code
		}
		return out, true
	}
	ea, ok := encode(a)
	if !ok {
		return "", "", false
	}
	eb, ok := encode(b)
	if !ok {
		return "", "", false
	}
	return string(ea), string(eb), true
}

// PartialRatio returns the best Ratio between the shorter string and every
// window of the longer one with the same length, including the windows that
// run off either end. Empty input scores 0.
func PartialRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}

	best := bestWindow(short, long)
	if len(short) == len(long) && best < 100 {
		best = max(best, bestWindow(long, short))
	}
	return best
}

func bestWindow(short, long []rune) float64 {
	n, m := len(short), len(long)

	var best float64
	consider := func(window []rune) bool {
		if r := ratio(short, window); r > best {
			best = r
		}
		return best == 100
	}

	for i := 1; i < n; i++ {
		if consider(long[:i]) {
			return best
		}
	}
	for i := 0; i+n <= m; i++ {
		if consider(long[i : i+n]) {
			return best
		}
	}
	for i := max(m-n+1, 1); i < m; i++ {
		if consider(long[i:]) {
			return best
		}
	}
	return best
}
