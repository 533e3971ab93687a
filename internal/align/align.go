// Package align computes minimum-cost edit scripts between two phoneme
// sequences.
//
// [Align] fills the classic Levenshtein table over the full sequences (not
// only vowels) and walks it back from the bottom-right corner. The script
// transforms expected into actual using four operations:
//
//   - [Match]: same symbol on both sides, cost 0.
//   - [Substitute]: different symbols, cost 1 by default.
//   - [Delete]: an expected symbol with no counterpart, cost 1.
//   - [Insert]: an actual symbol with no counterpart, cost 1.
//
// When several paths have the same minimum cost, the backtrace prefers
// Match, then Substitute, then Delete, then Insert at every cell. Diagonal
// moves win over gap moves, so the alignment pairs phonemes wherever it can.
// Given identical inputs the script is always identical.
//
// Substitution cost is an extension point ([WithSubstitutionCost]); the
// default is uniform.
package align

import "github.com/MrWong99/vowelscore/internal/phoneme"

// Kind enumerates the edit operations.
type Kind int

const (
	KindMatch Kind = iota
	KindSubstitute
	KindDelete
	KindInsert
)

// String returns the lower-case operation name.
func (k Kind) String() string {
	switch k {
	case KindMatch:
		return "match"
	case KindSubstitute:
		return "substitute"
	case KindDelete:
		return "delete"
	case KindInsert:
		return "insert"
	}
	return "unknown"
}

// Op is one edit operation. The concrete types are [Match], [Substitute],
// [Delete] and [Insert]; the interface is sealed so a type switch over those
// four is exhaustive.
type Op interface {
	Kind() Kind
	sealed()
}

// Match pairs equal symbols.
type Match struct{ Expected, Actual int }

// Substitute pairs different symbols.
type Substitute struct{ Expected, Actual int }

// Delete drops an expected symbol.
type Delete struct{ Expected int }

// Insert adds an actual symbol.
type Insert struct{ Actual int }

func (Match) Kind() Kind      { return KindMatch }
func (Substitute) Kind() Kind { return KindSubstitute }
func (Delete) Kind() Kind     { return KindDelete }
func (Insert) Kind() Kind     { return KindInsert }

func (Match) sealed()      {}
func (Substitute) sealed() {}
func (Delete) sealed()     {}
func (Insert) sealed()     {}

// Script is an ordered edit script. Expected and actual indices are
// non-decreasing along the script and each index appears exactly once.
type Script []Op

// Count returns how many operations of kind k the script holds.
func (s Script) Count(k Kind) int {
	n := 0
	for _, op := range s {
		if op.Kind() == k {
			n++
		}
	}
	return n
}

// Distance returns the number of non-match operations.
func (s Script) Distance() int {
	return len(s) - s.Count(KindMatch)
}

// SubstitutionCost returns the cost of replacing expected with actual. It is
// only called for different symbols. Negative results are treated as 0.
type SubstitutionCost func(expected, actual string) int

// Option configures [Align].
type Option func(*aligner)

// WithSubstitutionCost replaces the uniform substitution cost.
func WithSubstitutionCost(fn SubstitutionCost) Option {
	return func(a *aligner) {
		if fn != nil {
			a.subCost = fn
		}
	}
}

const gapCost = 1

type aligner struct {
	subCost SubstitutionCost
}

func uniformCost(_, _ string) int { return 1 }

// Align returns the minimum-cost edit script from expected to actual. Time
// and space are O(len(expected) * len(actual)).
func Align(expected, actual phoneme.Sequence, opts ...Option) Script {
	a := &aligner{subCost: uniformCost}
	for _, o := range opts {
		o(a)
	}

	n, m := len(expected), len(actual)
	if n == 0 && m == 0 {
		return Script{}
	}

	width := m + 1
	cost := make([]int, (n+1)*width)
	at := func(i, j int) int { return cost[i*width+j] }

	for j := 0; j <= m; j++ {
		cost[j] = j * gapCost
	}
	for i := 1; i <= n; i++ {
		cost[i*width] = i * gapCost
		for j := 1; j <= m; j++ {
			diag := at(i-1, j-1) + a.pairCost(expected[i-1].Symbol, actual[j-1].Symbol)
			del := at(i-1, j) + gapCost
			ins := at(i, j-1) + gapCost
			cost[i*width+j] = min(diag, del, ins)
		}
	}

	script := make(Script, 0, max(n, m))
	i, j := n, m
	for i > 0 || j > 0 {
		cur := at(i, j)
		switch {
		case i > 0 && j > 0 && expected[i-1].Symbol == actual[j-1].Symbol && cur == at(i-1, j-1):
			i, j = i-1, j-1
			script = append(script, Match{Expected: i, Actual: j})
		case i > 0 && j > 0 && expected[i-1].Symbol != actual[j-1].Symbol &&
			cur == at(i-1, j-1)+a.pairCost(expected[i-1].Symbol, actual[j-1].Symbol):
			i, j = i-1, j-1
			script = append(script, Substitute{Expected: i, Actual: j})
		case i > 0 && cur == at(i-1, j)+gapCost:
			i--
			script = append(script, Delete{Expected: i})
		default:
			j--
			script = append(script, Insert{Actual: j})
		}
	}

	for l, r := 0, len(script)-1; l < r; l, r = l+1, r-1 {
		script[l], script[r] = script[r], script[l]
	}
	return script
}

func (a *aligner) pairCost(expected, actual string) int {
	if expected == actual {
		return 0
	}
	return max(a.subCost(expected, actual), 0)
}
