// Package germinal is for preparing the starting state of a design run: the
// starting binder+target complex, the CDR positions of the binder, and target
// hotspots in the numbering of the starting complex.
package germinal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cytokineking/germinal/internal/cdr"
	"github.com/cytokineking/germinal/internal/hotspot"
	"github.com/cytokineking/germinal/internal/structure"
	"k8s.io/klog/v2"
)

var (
	// ErrMissingTargetStructure is returned when a starting complex has to be
	// built but the target structure doesn't exist
	ErrMissingTargetStructure = errors.New("target structure does not exist")

	// ErrMissingBinderChain is returned when the starting complex has no binder chain
	ErrMissingBinderChain = errors.New("binder chain not found in starting complex")
)

// Preparer builds starting complexes and reads sequences out of them.
type Preparer struct {
	creator   structure.Creator
	sequences structure.SequenceReader
}

// NewPreparer returns a Preparer that uses creator to build starting complexes
// and sequences to read chain sequences from structures.
func NewPreparer(creator structure.Creator, sequences structure.SequenceReader) *Preparer {
	return &Preparer{creator: creator, sequences: sequences}
}

// ComplexName is the name of the starting complex for a target, CDR lengths and
// binder type, ex: "pdl1_5_7_nb".
func ComplexName(run RunParameters, target TargetParameters) string {
	lengths := make([]string, len(run.CDRLengths))
	for i, l := range run.CDRLengths {
		lengths[i] = strconv.Itoa(l)
	}
	return fmt.Sprintf("%s_%s_%s", target.Name, strings.Join(lengths, "_"), run.BinderType)
}

// ComplexPath is where the starting complex is written.
func ComplexPath(run RunParameters, target TargetParameters) string {
	return filepath.Join(run.StructureDir, ComplexName(run, target)+".pdb")
}

// Prepare returns copies of the run and target parameters, enriched for design.
//
// The starting complex is built unless one already exists. If the target spans
// multiple chains, they're concatenated into chain "A" of the complex and the
// hotspots are rewritten into that chain's numbering (once: a target that's
// already Remapped is left as it is). The binder sequence is then read from the
// complex.
//
// The passed parameters aren't changed. On error, nothing is returned.
func (p *Preparer) Prepare(run RunParameters, target TargetParameters) (RunParameters, TargetParameters, error) {
	run, target = run.clone(), target.clone()

	positions, err := cdr.Positions(run.CDRLengths, run.FWLengths)
	if err != nil {
		return RunParameters{}, TargetParameters{}, fmt.Errorf("failed to compute CDR positions: %w", err)
	}
	run.CDRPositions = positions

	complexPath := ComplexPath(run, target)
	if err := p.ensureComplex(complexPath, run, target); err != nil {
		return RunParameters{}, TargetParameters{}, err
	}

	if target, err = p.concatenate(target); err != nil {
		return RunParameters{}, TargetParameters{}, err
	}

	seqs, err := p.sequences.Sequences(complexPath)
	if err != nil {
		return RunParameters{}, TargetParameters{}, fmt.Errorf("failed to read starting complex: %w", err)
	}
	binderSeq, ok := seqs[target.BinderChain]
	if !ok {
		return RunParameters{}, TargetParameters{}, fmt.Errorf("%w: chain %s in %s", ErrMissingBinderChain, target.BinderChain, complexPath)
	}

	run.StartingBinderSeq = binderSeq
	run.StartingComplexPath = complexPath
	run.DesignModels = designModels(run.UseMultimerDesign)
	run.BiasRedesign = run.BiasRedesign.Normalize()

	klog.InfoS("Prepared starting state",
		"complex", complexPath,
		"binderLength", len(binderSeq),
		"cdrPositions", positions,
		"targetChain", target.TargetChains.String(),
		"hotspots", target.Hotspots,
	)

	return run, target, nil
}

// ensureComplex builds the starting complex if it isn't already on disk.
func (p *Preparer) ensureComplex(complexPath string, run RunParameters, target TargetParameters) error {
	exists, err := fileExists(complexPath)
	if err != nil {
		return err
	}
	if exists {
		klog.InfoS("Using existing starting complex", "path", complexPath)
		return nil
	}

	targetExists, err := fileExists(target.StructurePath)
	if err != nil {
		return err
	}
	if !targetExists {
		return fmt.Errorf("%w: %q", ErrMissingTargetStructure, target.StructurePath)
	}

	binderTemplate := filepath.Join(run.StructureDir, string(run.BinderType)+".pdb")
	klog.InfoS("Creating starting complex",
		"path", complexPath,
		"binderTemplate", binderTemplate,
		"target", target.StructurePath,
		"targetChain", target.TargetChains.String(),
	)

	err = p.creator.Create(complexPath, binderTemplate, target.StructurePath, target.BinderChain, target.TargetChains)
	if err != nil {
		return fmt.Errorf("failed to create starting complex %s: %w", complexPath, err)
	}

	return nil
}

// concatenate moves a multi-chain target into the numbering of the single
// concatenated chain of the starting complex.
func (p *Preparer) concatenate(target TargetParameters) (TargetParameters, error) {
	order := target.TargetChains.Normalize()
	if !order.Multi() || target.Remapped {
		return target, nil
	}

	if !hasHotspots(target.Hotspots) {
		target.Hotspots = ""
	} else {
		// offsets come from the chains as they were before concatenation
		seqs, err := p.sequences.Sequences(target.StructurePath)
		if err != nil {
			return target, fmt.Errorf("failed to read target chains: %w", err)
		}
		offsets, err := hotspot.NewOffsets(order, seqs)
		if err != nil {
			return target, fmt.Errorf("failed to remap hotspots: %w", err)
		}

		res := hotspot.Remap(target.Hotspots, order, offsets)
		for _, tok := range res.Unchanged {
			klog.Warningf("Hotspot %q could not be remapped to chain %s, keeping it as is", tok, hotspot.Concatenated)
		}
		klog.V(2).InfoS("Remapped hotspots", "from", target.Hotspots, "to", res.Hotspots, "offsets", offsets)
		target.Hotspots = res.Hotspots
	}

	target.TargetChains = hotspot.Chains{hotspot.Concatenated}
	target.Remapped = true
	return target, nil
}

// hasHotspots is whether a hotspot list has any tokens
func hasHotspots(hotspots string) bool {
	return strings.Trim(hotspots, ", \t\n") != ""
}

// designModels are the indexes of the models used for design
func designModels(multimer bool) []int {
	if multimer {
		return []int{0, 1, 2, 3, 4}
	}
	return []int{0, 1}
}

func fileExists(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
