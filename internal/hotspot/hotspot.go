// Package hotspot rewrites target hotspot annotations from the numbering of the
// original target chains into the numbering of the single concatenated chain
// that is built when a target spans more than one chain.
package hotspot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

const (
	// Gap is the number of residue numbers left empty between successive
	// chains after concatenation.
	Gap = 50

	// Concatenated is the chain label of the concatenated target.
	Concatenated = "A"
)

// ErrMissingChain is returned when a chain in the chain order has no sequence.
var ErrMissingChain = errors.New("chain not found in target structure")

// Chains is an ordered list of chain identifiers. In config files it can be
// either a comma separated string ("A,B,C") or a list.
type Chains []string

// ParseChains splits comma separated chain identifiers, dropping blanks.
func ParseChains(s string) Chains {
	return Chains{s}.Normalize()
}

// Normalize splits any comma separated entries and trims whitespace.
func (c Chains) Normalize() Chains {
	out := Chains{}
	for _, entry := range c {
		for _, id := range strings.Split(entry, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}

// Multi is whether there is more than one chain.
func (c Chains) Multi() bool {
	return len(c.Normalize()) > 1
}

// First is the first chain or an empty string if there are none.
func (c Chains) First() string {
	n := c.Normalize()
	if len(n) == 0 {
		return ""
	}
	return n[0]
}

// String joins the chains with commas.
func (c Chains) String() string {
	return strings.Join(c.Normalize(), ",")
}

// MarshalYAML writes the chains as a comma separated string.
func (c Chains) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// UnmarshalYAML reads chains from a comma separated string or a list.
func (c *Chains) UnmarshalYAML(value *yaml.Node) error {
	var list []string
	if value.Kind == yaml.SequenceNode {
		if err := value.Decode(&list); err != nil {
			return err
		}
	} else {
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		list = []string{s}
	}

	*c = Chains(list).Normalize()
	return nil
}

// Offsets maps an original chain identifier to the amount its residue
// numbers are shifted by in the concatenated chain.
type Offsets map[string]int

// NewOffsets builds the offset table for chains concatenated in order. The
// first chain isn't shifted. Each subsequent chain starts Gap residues after
// the end of the one before it.
func NewOffsets(order Chains, seqs map[string]string) (Offsets, error) {
	offsets := make(Offsets)
	running := 0
	for i, ch := range order.Normalize() {
		seq, ok := seqs[ch]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingChain, ch)
		}

		if i > 0 {
			running += Gap
		}
		offsets[ch] = running
		running += len(seq)
	}

	return offsets, nil
}

// Result is the outcome of remapping a hotspot list.
type Result struct {
	// Hotspots is the rewritten, comma separated hotspot list
	Hotspots string

	// Unchanged are the tokens that couldn't be remapped and were
	// passed through as they were
	Unchanged []string
}

// Remap rewrites every token of a comma separated hotspot list into the
// concatenated chain's numbering.
//
// Tokens look like "B23", "B5-10" or, without a chain, "23" and "5-10" (in
// which case the first chain in order is assumed). A token that can't be
// parsed, or that names a chain that isn't in order, is kept as-is and
// reported in Result.Unchanged.
func Remap(hotspots string, order Chains, offsets Offsets) Result {
	order = order.Normalize()

	var res Result
	var out []string
	for _, raw := range strings.Split(hotspots, ",") {
		tok := strings.TrimSpace(raw)
		if tok == "" {
			continue
		}

		remapped, ok := remapToken(tok, order, offsets)
		if !ok {
			res.Unchanged = append(res.Unchanged, tok)
		}
		out = append(out, remapped)
	}

	res.Hotspots = strings.Join(out, ",")
	return res
}

// remapToken returns the token in concatenated numbering, or the token itself
// and false if it can't be remapped.
func remapToken(tok string, order Chains, offsets Offsets) (string, bool) {
	chain, residues := splitChain(tok, order)
	off, ok := offsets[chain]
	if !ok {
		return tok, false
	}

	if strings.Count(residues, "-") == 1 {
		bounds := strings.SplitN(residues, "-", 2)
		start, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
		if err != nil {
			return tok, false
		}
		end, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if err != nil {
			return tok, false
		}
		return fmt.Sprintf("%s%d-%s%d", Concatenated, off+start, Concatenated, off+end), true
	}

	r, err := strconv.Atoi(strings.TrimSpace(residues))
	if err != nil {
		return tok, false
	}
	return fmt.Sprintf("%s%d", Concatenated, off+r), true
}

// splitChain separates a leading chain letter from the residue numbers. Without
// a letter the first chain in order is used.
func splitChain(tok string, order Chains) (chain, residues string) {
	first, size := utf8.DecodeRuneInString(tok)
	if unicode.IsLetter(first) {
		return tok[:size], tok[size:]
	}

	if len(order) > 0 {
		chain = order[0]
	}
	return chain, tok
}
