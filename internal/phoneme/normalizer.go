package phoneme

import (
	"strings"
	"unicode"
)

// NormalizerOption configures a [Normalizer].
type NormalizerOption func(*Normalizer)

// WithStripMarkers replaces the inventory's stripped-marker set. Entries
// longer than one rune are ignored.
func WithStripMarkers(markers ...string) NormalizerOption {
	return func(n *Normalizer) {
		n.strip = runeSet(markers)
	}
}

// WithDiphthongMerge controls whether adjacent tokens that together spell a
// known multi-symbol vowel ("a" "ʊ") are joined into one token. Default: true.
func WithDiphthongMerge(enabled bool) NormalizerOption {
	return func(n *Normalizer) {
		n.mergeDiphthongs = enabled
	}
}

// Normalizer canonicalizes raw phoneme strings. It is read-only after
// construction and safe for concurrent use.
type Normalizer struct {
	inv             *Inventory
	strip           map[rune]struct{}
	mergeDiphthongs bool
}

// NewNormalizer returns a Normalizer over inv. A nil inv selects
// [DefaultInventory].
func NewNormalizer(inv *Inventory, opts ...NormalizerOption) *Normalizer {
	if inv == nil {
		inv = DefaultInventory()
	}
	n := &Normalizer{
		inv:             inv,
		strip:           runeSet(inv.strip),
		mergeDiphthongs: true,
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Inventory returns the inventory the normalizer classifies against.
func (n *Normalizer) Inventory() *Inventory {
	return n.inv
}

// Normalize splits raw into symbols and classifies each one. The result is
// never nil; empty or unparseable input yields an empty sequence.
func (n *Normalizer) Normalize(raw string) Sequence {
	syms := n.Split(raw)
	seq := make(Sequence, len(syms))
	for i, s := range syms {
		seq[i] = n.inv.Classify(s)
	}
	return seq
}

// NormalizeSymbols normalizes a list of pre-split tokens, each of which may
// still carry stress marks or hold more than one phoneme.
func (n *Normalizer) NormalizeSymbols(tokens []string) Sequence {
	return n.Normalize(strings.Join(tokens, " "))
}

// Split returns the canonical phoneme symbols in raw.
func (n *Normalizer) Split(raw string) []string {
	var out []string
	for _, field := range strings.Fields(raw) {
		if n.inv.skipped(field) {
			continue
		}
		if ipa, ok := n.arpabet(field); ok {
			out = append(out, ipa)
			continue
		}
		out = n.munch(out, n.clean(field))
	}
	if n.mergeDiphthongs {
		out = n.merge(out)
	}
	return out
}

// arpabet converts a CMU ARPAbet token such as "AW1" or "HH". Tokens that
// are not upper-case ASCII with an optional trailing stress digit, or whose
// base is not in the table, are left for IPA handling.
func (n *Normalizer) arpabet(field string) (string, bool) {
	base := field
	if last := field[len(field)-1]; last >= '0' && last <= '2' {
		base = field[:len(field)-1]
	}
	if base == "" {
		return "", false
	}
	for i := 0; i < len(base); i++ {
		if base[i] < 'A' || base[i] > 'Z' {
			return "", false
		}
	}
	return n.inv.ARPAbet(base)
}

// clean removes stripped markers and stray punctuation that is not itself a
// known symbol. Diacritics and modifier letters such as "ʰ" are dropped too
// unless some inventory symbol is spelled with them.
func (n *Normalizer) clean(field string) []rune {
	runes := make([]rune, 0, len(field))
	for _, r := range field {
		if _, drop := n.strip[r]; drop {
			continue
		}
		if (unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsDigit(r)) && !n.inv.Known(string(r)) {
			continue
		}
		if unicode.In(r, unicode.Lm, unicode.Mn) && !n.inv.spells(r) {
			continue
		}
		runes = append(runes, r)
	}
	return runes
}

// munch appends the symbols of runes to out using longest match over the
// inventory. Runes with no table entry are emitted one at a time.
func (n *Normalizer) munch(out []string, runes []rune) []string {
	for i := 0; i < len(runes); {
		size := 1
		for l := min(n.inv.maxRunes, len(runes)-i); l > 1; l-- {
			if n.inv.Known(string(runes[i : i+l])) {
				size = l
				break
			}
		}
		out = append(out, n.inv.alias(string(runes[i:i+size])))
		i += size
	}
	return out
}

// merge joins adjacent vowel pieces that were delimited separately but
// together form a known vowel symbol.
func (n *Normalizer) merge(syms []string) []string {
	if len(syms) < 2 {
		return syms
	}
	out := syms[:0]
	for i := 0; i < len(syms); i++ {
		if i+1 < len(syms) {
			joined := syms[i] + syms[i+1]
			if n.inv.IsVowel(joined) {
				out = append(out, joined)
				i++
				continue
			}
		}
		out = append(out, syms[i])
	}
	return out
}

func runeSet(markers []string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(markers))
	for _, m := range markers {
		r := []rune(m)
		if len(r) == 1 {
			set[r[0]] = struct{}{}
		}
	}
	return set
}
