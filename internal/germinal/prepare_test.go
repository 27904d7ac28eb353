package germinal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/cytokineking/germinal/internal/cdr"
	"github.com/cytokineking/germinal/internal/hotspot"
	"github.com/cytokineking/germinal/internal/structure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// fakeCreator writes a placeholder complex and records how it was called
type fakeCreator struct {
	calls  int
	chains hotspot.Chains
	binder string
}

func (f *fakeCreator) Create(out, binderTemplate, target, binderChain string, targetChains hotspot.Chains) error {
	f.calls++
	f.chains = targetChains
	f.binder = binderTemplate
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	return os.WriteFile(out, []byte("complex"), 0644)
}

// fakeSequences returns chain sequences by structure path
type fakeSequences map[string]map[string]string

func (f fakeSequences) Sequences(path string) (map[string]string, error) {
	seqs, ok := f[path]
	if !ok {
		return nil, fmt.Errorf("no structure at %s: %w", path, os.ErrNotExist)
	}
	return seqs, nil
}

// fixture is a run with a two chain target (A: 100 residues, B: 60 residues)
type fixture struct {
	run       RunParameters
	target    TargetParameters
	creator   *fakeCreator
	sequences fakeSequences
	complex   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	targetPath := filepath.Join(dir, "target.pdb")
	require.NoError(t, os.WriteFile(targetPath, []byte("target"), 0644))

	run := RunParameters{
		StructureDir:      filepath.Join(dir, "pdbs"),
		BinderType:        Nanobody,
		CDRLengths:        []int{5, 7},
		FWLengths:         []int{10, 15, 8},
		UseMultimerDesign: true,
		BiasRedesign:      Bias{Value: -0.5},
	}
	target := TargetParameters{
		Name:          "pdl1",
		StructurePath: targetPath,
		BinderChain:   "B",
		TargetChains:  hotspot.ParseChains("A,B"),
		Hotspots:      "B23, A10-20,B5-10,B5-",
	}
	complexPath := filepath.Join(run.StructureDir, "pdl1_5_7_nb.pdb")

	return &fixture{
		run:     run,
		target:  target,
		creator: &fakeCreator{},
		sequences: fakeSequences{
			targetPath: {
				"A": strings.Repeat("G", 100),
				"B": strings.Repeat("K", 60),
			},
			complexPath: {
				"A": strings.Repeat("G", 210),
				"B": "QVQLVESGG",
			},
		},
		complex: complexPath,
	}
}

func (f *fixture) preparer() *Preparer {
	return NewPreparer(f.creator, f.sequences)
}

func TestComplexName(t *testing.T) {
	tests := []struct {
		name   string
		run    RunParameters
		target TargetParameters
		want   string
	}{
		{
			"nanobody",
			RunParameters{CDRLengths: []int{7, 6, 16}, BinderType: Nanobody},
			TargetParameters{Name: "pdl1"},
			"pdl1_7_6_16_nb",
		},
		{
			"scfv",
			RunParameters{CDRLengths: []int{5, 7}, BinderType: SCFV},
			TargetParameters{Name: "il3"},
			"il3_5_7_scfv",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComplexName(tt.run, tt.target); got != tt.want {
				t.Errorf("ComplexName() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrepare(t *testing.T) {
	f := newFixture(t)

	run, target, err := f.preparer().Prepare(f.run, f.target)
	require.NoError(t, err)

	assert.Equal(t, 1, f.creator.calls)
	assert.Equal(t, hotspot.Chains{"A", "B"}, f.creator.chains)
	assert.Equal(t, filepath.Join(f.run.StructureDir, "nb.pdb"), f.creator.binder)

	assert.Equal(t, []cdr.Range{{Start: 11, End: 15}, {Start: 31, End: 37}}, run.CDRPositions)
	assert.Equal(t, "QVQLVESGG", run.StartingBinderSeq)
	assert.Equal(t, f.complex, run.StartingComplexPath)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, run.DesignModels)
	assert.Equal(t, Bias{Disabled: true}, run.BiasRedesign)

	assert.Equal(t, hotspot.Chains{"A"}, target.TargetChains)
	assert.Equal(t, "A173,A10-A20,A155-A160,B5-", target.Hotspots)
	assert.True(t, target.Remapped)

	// the inputs are left alone
	assert.Equal(t, "B23, A10-20,B5-10,B5-", f.target.Hotspots)
	assert.Equal(t, hotspot.Chains{"A", "B"}, f.target.TargetChains)
	assert.Nil(t, f.run.CDRPositions)
}

func TestPrepare_existingComplex(t *testing.T) {
	f := newFixture(t)
	p := f.preparer()

	run1, target1, err := p.Prepare(f.run, f.target)
	require.NoError(t, err)

	// again, with the same inputs: the complex is reused and hotspots are
	// remapped from the original numbering, not on top of the first result
	run2, target2, err := p.Prepare(f.run, f.target)
	require.NoError(t, err)
	assert.Equal(t, 1, f.creator.calls)
	assert.Equal(t, run1, run2)
	assert.Equal(t, target1, target2)

	// and with the first call's output: nothing is shifted twice
	run3, target3, err := p.Prepare(run1, target1)
	require.NoError(t, err)
	assert.Equal(t, 1, f.creator.calls)
	assert.Equal(t, run1, run3)
	assert.Equal(t, target1, target3)
}

func TestPrepare_remappedFlag(t *testing.T) {
	f := newFixture(t)

	// a persisted target that was remapped but still lists its chains
	f.target.Hotspots = "A173"
	f.target.Remapped = true

	_, target, err := f.preparer().Prepare(f.run, f.target)
	require.NoError(t, err)
	assert.Equal(t, "A173", target.Hotspots)
	assert.Equal(t, hotspot.Chains{"A", "B"}, target.TargetChains)
}

func TestPrepare_singleChain(t *testing.T) {
	f := newFixture(t)
	f.target.TargetChains = hotspot.Chains{"B"}
	f.target.Hotspots = "B23"
	f.run.UseMultimerDesign = false
	f.run.BiasRedesign = Bias{Value: 0.3}

	run, target, err := f.preparer().Prepare(f.run, f.target)
	require.NoError(t, err)

	assert.Equal(t, hotspot.Chains{"B"}, target.TargetChains)
	assert.Equal(t, "B23", target.Hotspots)
	assert.False(t, target.Remapped)
	assert.Equal(t, []int{0, 1}, run.DesignModels)
	assert.Equal(t, Bias{Value: 0.3}, run.BiasRedesign)
}

func TestPrepare_noHotspots(t *testing.T) {
	for _, hotspots := range []string{"", "  ", " , "} {
		t.Run(fmt.Sprintf("%q", hotspots), func(t *testing.T) {
			f := newFixture(t)
			f.target.Hotspots = hotspots

			// the original target isn't read when there's nothing to remap
			delete(f.sequences, f.target.StructurePath)

			_, target, err := f.preparer().Prepare(f.run, f.target)
			require.NoError(t, err)
			assert.Equal(t, "", target.Hotspots)
			assert.Equal(t, hotspot.Chains{"A"}, target.TargetChains)
			assert.True(t, target.Remapped)
		})
	}
}

func TestPrepare_errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(f *fixture)
		want   error
	}{
		{
			"missing target structure",
			func(f *fixture) { f.target.StructurePath = filepath.Join(t.TempDir(), "missing.pdb") },
			ErrMissingTargetStructure,
		},
		{
			"no target structure",
			func(f *fixture) { f.target.StructurePath = "" },
			ErrMissingTargetStructure,
		},
		{
			"mismatched CDR and framework lengths",
			func(f *fixture) { f.run.FWLengths = []int{10, 15} },
			cdr.ErrLengthMismatch,
		},
		{
			"hotspot chain missing from target",
			func(f *fixture) { f.target.TargetChains = hotspot.Chains{"A", "C"} },
			hotspot.ErrMissingChain,
		},
		{
			"binder chain missing from complex",
			func(f *fixture) { f.target.BinderChain = "H" },
			ErrMissingBinderChain,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.modify(f)

			run, target, err := f.preparer().Prepare(f.run, f.target)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, RunParameters{}, run)
			assert.Equal(t, TargetParameters{}, target)
		})
	}
}

func TestPrepare_pdb(t *testing.T) {
	dir := t.TempDir()
	pdbs := filepath.Join(dir, "pdbs")
	require.NoError(t, os.MkdirAll(pdbs, 0755))

	var target strings.Builder
	for i := 1; i <= 3; i++ {
		target.WriteString(pdbAtom(i, "GLY", "A", i))
	}
	for i := 1; i <= 2; i++ {
		target.WriteString(pdbAtom(3+i, "LYS", "C", i))
	}
	targetPath := filepath.Join(dir, "target.pdb")
	require.NoError(t, os.WriteFile(targetPath, []byte(target.String()), 0644))

	binder := pdbAtom(1, "GLN", "B", 1) + pdbAtom(2, "VAL", "B", 2)
	require.NoError(t, os.WriteFile(filepath.Join(pdbs, "scfv.pdb"), []byte(binder), 0644))

	pdb := structure.PDB{}
	run, tgt, err := NewPreparer(pdb, pdb).Prepare(
		RunParameters{
			StructureDir: pdbs,
			BinderType:   SCFV,
			CDRLengths:   []int{1},
			FWLengths:    []int{1, 1},
		},
		TargetParameters{
			Name:          "toy",
			StructurePath: targetPath,
			BinderChain:   "B",
			TargetChains:  hotspot.Chains{"A", "C"},
			Hotspots:      "C2,A1-3",
		},
	)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(pdbs, "toy_1_scfv.pdb"), run.StartingComplexPath)
	assert.Equal(t, "QV", run.StartingBinderSeq)
	assert.Equal(t, "A55,A1-A3", tgt.Hotspots)

	seqs, err := pdb.Sequences(run.StartingComplexPath)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "GGGKK", "B": "QV"}, seqs)
}

func TestPrepare_pdbNumbering(t *testing.T) {
	dir := t.TempDir()
	pdbs := filepath.Join(dir, "pdbs")
	require.NoError(t, os.MkdirAll(pdbs, 0755))

	// chain A is numbered from 20, chain C from 1
	var target strings.Builder
	for i, name := range []string{"GLY", "ALA", "TRP", "LYS", "SER"} {
		target.WriteString(pdbAtom(i+1, name, "A", 20+i))
	}
	target.WriteString(pdbAtom(6, "MET", "C", 1))
	targetPath := filepath.Join(dir, "target.pdb")
	require.NoError(t, os.WriteFile(targetPath, []byte(target.String()), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(pdbs, "nb.pdb"), []byte(pdbAtom(1, "GLN", "B", 1)), 0644))

	pdb := structure.PDB{}
	run, tgt, err := NewPreparer(pdb, pdb).Prepare(
		RunParameters{
			StructureDir: pdbs,
			BinderType:   Nanobody,
			CDRLengths:   []int{1},
			FWLengths:    []int{1, 1},
		},
		TargetParameters{
			Name:          "toy",
			StructurePath: targetPath,
			BinderChain:   "B",
			TargetChains:  hotspot.Chains{"A", "C"},
			Hotspots:      "A22,C1",
		},
	)
	require.NoError(t, err)
	assert.Equal(t, "A22,A56", tgt.Hotspots)

	// every hotspot names the same residue in the starting complex
	names := residueNames(t, run.StartingComplexPath, "A")
	assert.Equal(t, "TRP", names[22])
	assert.Equal(t, "MET", names[56])
}

func TestRunParameters_yaml(t *testing.T) {
	run := RunParameters{
		BinderType:   Nanobody,
		BiasRedesign: Bias{Disabled: true},
		CDRPositions: []cdr.Range{{Start: 11, End: 15}},
		DesignModels: []int{0, 1},
		Extra:        map[string]interface{}{"max_trajectories": 10},
	}
	out, err := yaml.Marshal(run)
	require.NoError(t, err)

	assert.Contains(t, string(out), "bias_redesign: false")
	assert.Contains(t, string(out), "max_trajectories: 10")
	assert.Contains(t, string(out), "start: 11")
	assert.Contains(t, string(out), "end: 15")

	target, err := yaml.Marshal(TargetParameters{TargetChains: hotspot.Chains{"A", "B"}})
	require.NoError(t, err)
	assert.Contains(t, string(target), "target_chain: A,B")
}

func pdbAtom(serial int, resName, chain string, resSeq int) string {
	return fmt.Sprintf(
		"ATOM  %5d  CA  %3s %1s%4d    %8.3f%8.3f%8.3f%6.2f%6.2f           C\n",
		serial, resName, chain, resSeq, 0.0, 0.0, 0.0, 1.0, 0.0,
	)
}

// residueNames maps the residue numbers of a chain in a PDB file to residue names
func residueNames(t *testing.T, path, chain string) map[int]string {
	t.Helper()

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	names := make(map[int]string)
	for _, line := range strings.Split(string(contents), "\n") {
		if !strings.HasPrefix(line, "ATOM  ") || line[21:22] != chain {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(line[22:26]))
		require.NoError(t, err)
		names[n] = line[17:20]
	}
	return names
}
