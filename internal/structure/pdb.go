package structure

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cytokineking/germinal/internal/hotspot"
)

// three letter residue names to their one letter codes
var residueCodes = map[string]byte{
	"ALA": 'A', "ARG": 'R', "ASN": 'N', "ASP": 'D', "CYS": 'C',
	"GLN": 'Q', "GLU": 'E', "GLY": 'G', "HIS": 'H', "ILE": 'I',
	"LEU": 'L', "LYS": 'K', "MET": 'M', "PHE": 'F', "PRO": 'P',
	"SER": 'S', "THR": 'T', "TRP": 'W', "TYR": 'Y', "VAL": 'V',
	"MSE": 'M', "SEC": 'U', "PYL": 'O',
}

// bounds of the four column residue number field
const (
	minResSeq = -999
	maxResSeq = 9999
)

// PDB reads and writes the ATOM records of PDB files. Only the first model of
// a file is used.
type PDB struct{}

// atom is a single ATOM record, kept as its raw line so everything but the
// fields that get rewritten passes through untouched.
type atom struct {
	line string
}

func (a atom) chain() string {
	return string(a.line[21])
}

// residue is the key that changes between residues on a chain
func (a atom) residue() string {
	return a.line[22:27]
}

// resSeq is the residue number, without the insertion code
func (a atom) resSeq() (int, error) {
	return strconv.Atoi(strings.TrimSpace(a.line[22:26]))
}

func (a atom) resName() string {
	return strings.TrimSpace(a.line[17:20])
}

// with returns a copy of the record with a new serial, chain and residue number.
// The insertion code is cleared.
func (a atom) with(serial int, chain string, resSeq int) atom {
	b := []byte(a.line)
	copy(b[6:11], fmt.Sprintf("%5d", serial%100000))
	b[21] = chain[0]
	copy(b[22:26], fmt.Sprintf("%4d", resSeq))
	b[26] = ' '
	return atom{line: string(b)}
}

func (a atom) withSerial(serial int) atom {
	b := []byte(a.line)
	copy(b[6:11], fmt.Sprintf("%5d", serial%100000))
	return atom{line: string(b)}
}

// readAtoms parses the ATOM records of the first model in a PDB file.
func readAtoms(path string) ([]atom, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var atoms []atom
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "ENDMDL") {
			break
		}
		if !strings.HasPrefix(line, "ATOM  ") {
			continue
		}
		if len(line) < 54 {
			return nil, fmt.Errorf("failed to parse %s: short ATOM record %q", path, line)
		}
		if len(line) < 80 {
			line += strings.Repeat(" ", 80-len(line))
		}
		atoms = append(atoms, atom{line: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return atoms, nil
}

// Sequences returns the sequence of every chain in the PDB file at path.
// Residues with unrecognized names are written as 'X'.
func (PDB) Sequences(path string) (map[string]string, error) {
	atoms, err := readAtoms(path)
	if err != nil {
		return nil, err
	}
	if len(atoms) == 0 {
		return nil, fmt.Errorf("failed to read sequences from %s: %w", path, ErrNoAtoms)
	}

	seqs := make(map[string]*strings.Builder)
	lastChain, lastResidue := "", ""
	for _, a := range atoms {
		ch := a.chain()
		if ch == lastChain && a.residue() == lastResidue {
			continue
		}
		lastChain, lastResidue = ch, a.residue()

		code, ok := residueCodes[a.resName()]
		if !ok {
			code = 'X'
		}
		if _, ok := seqs[ch]; !ok {
			seqs[ch] = &strings.Builder{}
		}
		seqs[ch].WriteByte(code)
	}

	out := make(map[string]string, len(seqs))
	for ch, b := range seqs {
		out[ch] = b.String()
	}
	return out, nil
}

// Create writes the target chains followed by the binder chain of the binder
// template to out.
//
// A single target chain keeps its label and numbering. Multiple target chains are
// relabeled "A" and each residue number is shifted by its chain's offset (see
// hotspot.NewOffsets), the same shift hotspot.Remap applies to hotspots.
// Insertion codes are dropped, so residues that end up sharing a number, or
// numbers that don't fit the PDB format, are an ErrNumbering error.
func (p PDB) Create(out, binderTemplate, target, binderChain string, targetChains hotspot.Chains) error {
	chains := targetChains.Normalize()
	if len(chains) == 0 {
		return fmt.Errorf("failed to create %s: no target chains", out)
	}
	if binderChain == "" {
		return fmt.Errorf("failed to create %s: no binder chain", out)
	}
	multi := len(chains) > 1
	if (multi && binderChain == hotspot.Concatenated) || (!multi && binderChain == chains[0]) {
		return fmt.Errorf("failed to create %s: %w", out, ErrChainClash)
	}

	targetAtoms, err := readAtoms(target)
	if err != nil {
		return fmt.Errorf("failed to read target structure: %w", err)
	}
	binderAtoms, err := readAtoms(binderTemplate)
	if err != nil {
		return fmt.Errorf("failed to read binder template: %w", err)
	}

	byChain := make(map[string][]atom)
	for _, a := range targetAtoms {
		byChain[a.chain()] = append(byChain[a.chain()], a)
	}

	var offsets hotspot.Offsets
	if multi {
		seqs, err := p.Sequences(target)
		if err != nil {
			return err
		}
		if offsets, err = hotspot.NewOffsets(chains, seqs); err != nil {
			return fmt.Errorf("failed to concatenate target chains: %w", err)
		}
	}

	var b strings.Builder
	serial := 1
	used := make(map[int]string)
	for _, ch := range chains {
		atoms, ok := byChain[ch]
		if !ok {
			return fmt.Errorf("failed to find chain %s in %s: %w", ch, target, ErrNoAtoms)
		}

		lastResidue, number := "", 0
		for _, a := range atoms {
			if !multi {
				writeRecord(&b, a.withSerial(serial).line)
				serial++
				continue
			}

			if a.residue() != lastResidue {
				lastResidue = a.residue()
				if number, err = concatenatedNumber(a, offsets[ch]); err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}

				residue := ch + strings.TrimSpace(a.residue())
				if prev, ok := used[number]; ok {
					return fmt.Errorf("failed to create %s: %w: %s and %s both become %s%d", out, ErrNumbering, prev, residue, hotspot.Concatenated, number)
				}
				used[number] = residue
			}
			writeRecord(&b, a.with(serial, hotspot.Concatenated, number).line)
			serial++
		}
		if !multi {
			writeRecord(&b, "TER")
		}
	}
	if multi {
		writeRecord(&b, "TER")
	}

	binder := binderRecords(binderAtoms, binderChain)
	if len(binder) == 0 {
		return fmt.Errorf("failed to read binder from %s: %w", binderTemplate, ErrNoAtoms)
	}
	index, lastResidue := 0, ""
	for _, a := range binder {
		if a.residue() != lastResidue {
			index++
			lastResidue = a.residue()
		}
		writeRecord(&b, a.with(serial, binderChain, index).line)
		serial++
	}
	writeRecord(&b, "TER")
	writeRecord(&b, "END")

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("failed to create structure dir: %w", err)
	}
	return os.WriteFile(out, []byte(b.String()), 0644)
}

// concatenatedNumber is the residue's number in the concatenated chain.
func concatenatedNumber(a atom, offset int) (int, error) {
	n, err := a.resSeq()
	if err != nil {
		return 0, fmt.Errorf("%w: bad residue number in %q", ErrNumbering, strings.TrimSpace(a.line))
	}

	number := offset + n
	if number < minResSeq || number > maxResSeq {
		return 0, fmt.Errorf("%w: %s%d shifted by %d is out of range", ErrNumbering, a.chain(), n, offset)
	}
	return number, nil
}

// binderRecords are the atoms of the binder chain in the template, or every
// atom in the template if it doesn't have that chain.
func binderRecords(atoms []atom, binderChain string) []atom {
	var binder []atom
	for _, a := range atoms {
		if a.chain() == binderChain {
			binder = append(binder, a)
		}
	}
	if len(binder) == 0 {
		return atoms
	}
	return binder
}

func writeRecord(b *strings.Builder, line string) {
	b.WriteString(strings.TrimRight(line, " "))
	b.WriteByte('\n')
}
