package phoneme

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"sync"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

//go:embed inventory.yaml
var defaultInventoryYAML []byte

// InventoryFile is the YAML schema of a phoneme inventory. The embedded
// default lives in inventory.yaml next to this file; alternative accents are
// loaded with [LoadInventory].
type InventoryFile struct {
	// StripMarkers lists runes removed before splitting (stress, length,
	// diacritics). Each entry must be exactly one rune.
	StripMarkers []string `yaml:"strip_markers"`

	// SkipTokens lists whole whitespace-delimited tokens that are dropped,
	// such as recogniser padding and word-boundary markers.
	SkipTokens []string `yaml:"skip_tokens"`

	// Vowels is the vowel table. Order matters: the first symbol of a class
	// becomes that class's display symbol.
	Vowels []VowelDef `yaml:"vowels"`

	// Consonants lists known consonant symbols. Only multi-rune entries
	// affect splitting; everything not in Vowels is a consonant anyway.
	Consonants []string `yaml:"consonants"`

	// Aliases rewrites symbols after splitting (e.g. ASCII "g" to IPA "ɡ").
	Aliases map[string]string `yaml:"aliases"`

	// ARPAbet maps CMU ARPAbet base symbols (no stress digit) to IPA.
	ARPAbet map[string]string `yaml:"arpabet"`

	// Confusions lists unordered pairs of vowel symbols that learners
	// commonly confuse.
	Confusions [][]string `yaml:"confusions"`
}

// VowelDef is one row of the vowel table.
type VowelDef struct {
	Symbol     string     `yaml:"symbol"`
	Class      VowelClass `yaml:"class"`
	Name       string     `yaml:"name"`
	Example    string     `yaml:"example"`
	Difficulty string     `yaml:"difficulty"`
}

// ClassInfo describes a vowel class for presentation.
type ClassInfo struct {
	Class      VowelClass `json:"class"`
	Symbol     string     `json:"symbol"`
	Name       string     `json:"name"`
	Example    string     `json:"example"`
	Difficulty string     `json:"difficulty"`
	Symbols    []string   `json:"symbols"`
}

// Inventory is the single source of truth for phoneme identity: which
// symbols exist, which of them are vowels, and which class each vowel
// belongs to. An Inventory is read-only after construction and safe for
// concurrent use.
type Inventory struct {
	vowels     map[string]VowelClass
	classes    map[VowelClass]*ClassInfo
	classOrder []VowelClass
	known      map[string]struct{}
	runes      map[rune]struct{}
	maxRunes   int
	aliases    map[string]string
	arpabet    map[string]string
	strip      []string
	skip       map[string]struct{}
	confusions map[[2]string]struct{}
}

var (
	defaultInventory     *Inventory
	defaultInventoryOnce sync.Once
)

// DefaultInventory returns the embedded General American / RP inventory.
// Panics if the embedded table is invalid, which is a build defect.
func DefaultInventory() *Inventory {
	defaultInventoryOnce.Do(func() {
		inv, err := LoadInventoryFromReader(bytes.NewReader(defaultInventoryYAML))
		if err != nil {
			panic("phoneme: embedded inventory: " + err.Error())
		}
		defaultInventory = inv
	})
	return defaultInventory
}

// LoadInventory reads and validates an inventory YAML file.
func LoadInventory(path string) (*Inventory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("phoneme: open inventory %q: %w", path, err)
	}
	defer f.Close()

	inv, err := LoadInventoryFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("phoneme: parse inventory %q: %w", path, err)
	}
	return inv, nil
}

// LoadInventoryFromReader decodes an inventory from r. Unknown keys are
// rejected to catch typos in hand-edited tables.
func LoadInventoryFromReader(r io.Reader) (*Inventory, error) {
	var f InventoryFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("phoneme: decode inventory yaml: %w", err)
	}
	return NewInventory(f)
}

// NewInventory validates f and builds the lookup tables. All problems are
// reported together as a joined error.
func NewInventory(f InventoryFile) (*Inventory, error) {
	inv := &Inventory{
		vowels:     make(map[string]VowelClass, len(f.Vowels)),
		classes:    make(map[VowelClass]*ClassInfo),
		known:      make(map[string]struct{}, len(f.Vowels)+len(f.Consonants)),
		runes:      make(map[rune]struct{}),
		aliases:    make(map[string]string, len(f.Aliases)),
		arpabet:    make(map[string]string, len(f.ARPAbet)),
		skip:       make(map[string]struct{}, len(f.SkipTokens)),
		confusions: make(map[[2]string]struct{}, len(f.Confusions)),
	}
	var errs []error

	if len(f.Vowels) == 0 {
		errs = append(errs, errors.New("vowels: at least one vowel is required"))
	}

	for i, m := range f.StripMarkers {
		if utf8.RuneCountInString(m) != 1 {
			errs = append(errs, fmt.Errorf("strip_markers[%d] %q must be a single rune", i, m))
			continue
		}
		inv.strip = append(inv.strip, m)
	}

	for _, t := range f.SkipTokens {
		inv.skip[t] = struct{}{}
	}

	for i, v := range f.Vowels {
		prefix := fmt.Sprintf("vowels[%d]", i)
		if v.Symbol == "" {
			errs = append(errs, fmt.Errorf("%s.symbol is required", prefix))
			continue
		}
		if v.Class == "" {
			errs = append(errs, fmt.Errorf("%s.class is required for %q", prefix, v.Symbol))
			continue
		}
		if _, dup := inv.vowels[v.Symbol]; dup {
			errs = append(errs, fmt.Errorf("%s.symbol %q is a duplicate", prefix, v.Symbol))
			continue
		}
		inv.vowels[v.Symbol] = v.Class
		inv.addKnown(v.Symbol)

		info, ok := inv.classes[v.Class]
		if !ok {
			name := v.Name
			if name == "" {
				name = string(v.Class)
			}
			info = &ClassInfo{
				Class:      v.Class,
				Symbol:     v.Symbol,
				Name:       name,
				Example:    v.Example,
				Difficulty: v.Difficulty,
			}
			inv.classes[v.Class] = info
			inv.classOrder = append(inv.classOrder, v.Class)
		}
		info.Symbols = append(info.Symbols, v.Symbol)
	}

	for i, c := range f.Consonants {
		if c == "" {
			errs = append(errs, fmt.Errorf("consonants[%d] is empty", i))
			continue
		}
		if _, isVowel := inv.vowels[c]; isVowel {
			errs = append(errs, fmt.Errorf("consonants[%d] %q is also listed as a vowel", i, c))
			continue
		}
		inv.addKnown(c)
	}

	for from, to := range f.Aliases {
		if from == "" || to == "" {
			errs = append(errs, fmt.Errorf("aliases: empty symbol in %q -> %q", from, to))
			continue
		}
		inv.aliases[from] = to
		inv.addKnown(from)
	}

	for arpa, ipa := range f.ARPAbet {
		if arpa == "" || ipa == "" {
			errs = append(errs, fmt.Errorf("arpabet: empty symbol in %q -> %q", arpa, ipa))
			continue
		}
		inv.arpabet[arpa] = ipa
	}

	for i, pair := range f.Confusions {
		if len(pair) != 2 {
			errs = append(errs, fmt.Errorf("confusions[%d] must have exactly two symbols, got %d", i, len(pair)))
			continue
		}
		for _, s := range pair {
			if _, ok := inv.vowels[s]; !ok {
				errs = append(errs, fmt.Errorf("confusions[%d] %q is not a vowel", i, s))
			}
		}
		inv.confusions[confusionKey(pair[0], pair[1])] = struct{}{}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("phoneme: invalid inventory: %w", err)
	}
	return inv, nil
}

func (inv *Inventory) addKnown(sym string) {
	inv.known[sym] = struct{}{}
	for _, r := range sym {
		inv.runes[r] = struct{}{}
	}
	if n := utf8.RuneCountInString(sym); n > inv.maxRunes {
		inv.maxRunes = n
	}
}

// Classify returns the token for symbol. Unknown symbols are consonants:
// classification never fails.
func (inv *Inventory) Classify(symbol string) Token {
	class, ok := inv.vowels[symbol]
	return Token{Symbol: symbol, IsVowel: ok, Class: class}
}

// IsVowel reports whether symbol is in the vowel table.
func (inv *Inventory) IsVowel(symbol string) bool {
	_, ok := inv.vowels[symbol]
	return ok
}

// spells reports whether r occurs in any listed symbol.
func (inv *Inventory) spells(r rune) bool {
	_, ok := inv.runes[r]
	return ok
}

// Known reports whether symbol is listed anywhere in the inventory.
func (inv *Inventory) Known(symbol string) bool {
	_, ok := inv.known[symbol]
	return ok
}

// Class returns presentation info for class.
func (inv *Inventory) Class(class VowelClass) (ClassInfo, bool) {
	info, ok := inv.classes[class]
	if !ok {
		return ClassInfo{}, false
	}
	return *info, true
}

// Classes returns every vowel class in table order.
func (inv *Inventory) Classes() []ClassInfo {
	out := make([]ClassInfo, 0, len(inv.classOrder))
	for _, c := range inv.classOrder {
		out = append(out, *inv.classes[c])
	}
	return out
}

// VowelName returns the human-readable class name for a vowel symbol, or
// the symbol itself when it is not a vowel.
func (inv *Inventory) VowelName(symbol string) string {
	if class, ok := inv.vowels[symbol]; ok {
		return inv.classes[class].Name
	}
	return symbol
}

// Confusable reports whether a and b form a known confusion pair.
func (inv *Inventory) Confusable(a, b string) bool {
	_, ok := inv.confusions[confusionKey(a, b)]
	return ok
}

// StripMarkers returns a copy of the inventory's default stripped markers.
func (inv *Inventory) StripMarkers() []string {
	out := make([]string, len(inv.strip))
	copy(out, inv.strip)
	return out
}

// ARPAbet returns the IPA symbol for an ARPAbet base symbol.
func (inv *Inventory) ARPAbet(base string) (string, bool) {
	ipa, ok := inv.arpabet[base]
	return ipa, ok
}

// skipped reports whether a whole token is a non-phoneme marker.
func (inv *Inventory) skipped(tok string) bool {
	_, ok := inv.skip[tok]
	return ok
}

// alias returns the canonical spelling of sym.
func (inv *Inventory) alias(sym string) string {
	if to, ok := inv.aliases[sym]; ok {
		return to
	}
	return sym
}

// Symbols returns all known symbols sorted, mainly for diagnostics.
func (inv *Inventory) Symbols() []string {
	return slices.Sorted(maps.Keys(inv.known))
}

func confusionKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}
