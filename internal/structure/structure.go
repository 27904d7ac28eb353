// Package structure is for the two services run initialization leans on:
// building a starting binder+target complex and reading chain sequences out of
// a structure file.
package structure

import (
	"errors"

	"github.com/cytokineking/germinal/internal/hotspot"
)

var (
	// ErrNoAtoms is returned when a structure has no ATOM records to work with
	ErrNoAtoms = errors.New("no ATOM records")

	// ErrChainClash is returned when the binder chain would share a label with
	// the target chain in the starting complex
	ErrChainClash = errors.New("binder chain clashes with the target chain")

	// ErrNumbering is returned when concatenated target chains can't be numbered
	// without two residues sharing a number or overflowing the residue number field
	ErrNumbering = errors.New("target chains can't be concatenated")
)

// Creator writes a combined starting complex to out.
//
// When more than one target chain is passed, the target chains are concatenated,
// in order, into a single chain labeled "A". Each residue number is shifted by
// its chain's offset in hotspot.NewOffsets.
type Creator interface {
	Create(out, binderTemplate, target, binderChain string, targetChains hotspot.Chains) error
}

// SequenceReader returns the one-letter sequence of each chain in a structure
// file, keyed by chain identifier.
type SequenceReader interface {
	Sequences(path string) (map[string]string, error)
}
