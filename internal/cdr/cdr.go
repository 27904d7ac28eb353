// Package cdr is for turning CDR and framework lengths into the residue
// ranges of each CDR loop on a binder.
package cdr

import (
	"errors"
	"fmt"
)

var (
	// ErrLengthMismatch is returned when there isn't exactly one more framework
	// segment than CDR loops
	ErrLengthMismatch = errors.New("framework lengths must have one more entry than CDR lengths")

	// ErrNonPositive is returned when a CDR or framework length is less than one
	ErrNonPositive = errors.New("CDR and framework lengths must be positive")
)

// Range is an inclusive, 1-based range of residue indexes on the binder.
type Range struct {
	Start int `yaml:"start" json:"start"`
	End   int `yaml:"end" json:"end"`
}

// Len is the number of residues in the range.
func (r Range) Len() int {
	return r.End - r.Start + 1
}

// String formats the range like "11-15".
func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Positions returns the residue range of each CDR, in order.
//
// The binder is laid out as FW0, CDR0, FW1, CDR1, ... FWn. A cursor starts at
// residue 1 and is advanced past each segment. Framework segments are skipped
// and each CDR segment is recorded as [cursor, cursor+length-1].
func Positions(cdrLengths, fwLengths []int) ([]Range, error) {
	if err := validate(cdrLengths, fwLengths); err != nil {
		return nil, err
	}

	ranges := make([]Range, 0, len(cdrLengths))
	cursor := 1
	for i, l := range cdrLengths {
		cursor += fwLengths[i]
		ranges = append(ranges, Range{Start: cursor, End: cursor + l - 1})
		cursor += l
	}

	return ranges, nil
}

// Total is the full length of the binder: every framework and CDR residue.
func Total(cdrLengths, fwLengths []int) int {
	total := 0
	for _, l := range cdrLengths {
		total += l
	}
	for _, l := range fwLengths {
		total += l
	}
	return total
}

func validate(cdrLengths, fwLengths []int) error {
	if len(fwLengths) != len(cdrLengths)+1 {
		return fmt.Errorf("%w: %d CDRs, %d frameworks", ErrLengthMismatch, len(cdrLengths), len(fwLengths))
	}

	for i, l := range cdrLengths {
		if l < 1 {
			return fmt.Errorf("%w: CDR %d has length %d", ErrNonPositive, i+1, l)
		}
	}
	for i, l := range fwLengths {
		if l < 1 {
			return fmt.Errorf("%w: framework %d has length %d", ErrNonPositive, i+1, l)
		}
	}

	return nil
}
