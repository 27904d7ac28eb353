package germinal

import (
	"errors"
	"fmt"

	"github.com/cytokineking/germinal/config"
	"github.com/cytokineking/germinal/internal/cdr"
	"github.com/cytokineking/germinal/internal/hotspot"
	"gopkg.in/yaml.v3"
)

// ErrBinderType is returned for binder types other than nb and scfv
var ErrBinderType = errors.New("unknown binder type")

// BinderType is the kind of binder being designed.
type BinderType string

const (
	// Nanobody is a single-domain VHH binder
	Nanobody BinderType = "nb"

	// SCFV is a single-chain variable fragment binder
	SCFV BinderType = "scfv"
)

// ParseBinderType returns the BinderType named by s.
func ParseBinderType(s string) (BinderType, error) {
	switch t := BinderType(s); t {
	case Nanobody, SCFV:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q, want %q or %q", ErrBinderType, s, Nanobody, SCFV)
	}
}

// Bias is the redesign bias. A disabled bias is written as false.
type Bias struct {
	Value    float64
	Disabled bool
}

// Normalize disables negative biases.
func (b Bias) Normalize() Bias {
	if !b.Disabled && b.Value < 0 {
		return Bias{Disabled: true}
	}
	return b
}

// MarshalYAML writes the bias as its value or false.
func (b Bias) MarshalYAML() (interface{}, error) {
	if b.Disabled {
		return false, nil
	}
	return b.Value, nil
}

// UnmarshalYAML reads a bias written by MarshalYAML.
func (b *Bias) UnmarshalYAML(value *yaml.Node) error {
	if value.ShortTag() == "!!bool" {
		var enabled bool
		if err := value.Decode(&enabled); err != nil {
			return err
		}
		if enabled {
			return fmt.Errorf("line %d: bias_redesign is true, want a number or false", value.Line)
		}
		*b = Bias{Disabled: true}
		return nil
	}

	var v float64
	if err := value.Decode(&v); err != nil {
		return err
	}
	*b = Bias{Value: v}
	return nil
}

// RunParameters are the run settings, enriched by Prepare with everything later
// design stages need to know about the binder and the starting complex.
type RunParameters struct {
	ProjectDir     string `yaml:"project_dir"`
	ResultsDir     string `yaml:"results_dir"`
	ExperimentName string `yaml:"experiment_name"`
	RunConfig      string `yaml:"run_config"`

	StructureDir      string     `yaml:"pdb_dir"`
	BinderType        BinderType `yaml:"type"`
	CDRLengths        []int      `yaml:"cdr_lengths"`
	FWLengths         []int      `yaml:"fw_lengths"`
	UseMultimerDesign bool       `yaml:"use_multimer_design"`
	BiasRedesign      Bias       `yaml:"bias_redesign"`

	// set by Prepare
	CDRPositions        []cdr.Range `yaml:"cdr_positions,omitempty"`
	StartingBinderSeq   string      `yaml:"starting_binder_seq,omitempty"`
	StartingComplexPath string      `yaml:"starting_pdb_complex,omitempty"`
	DesignModels        []int       `yaml:"design_models,omitempty"`

	Extra map[string]interface{} `yaml:",inline"`
}

// TargetParameters describe the target and where on it to bind.
type TargetParameters struct {
	Name          string         `yaml:"target_name"`
	StructurePath string         `yaml:"target_pdb_path"`
	BinderChain   string         `yaml:"binder_chain"`
	TargetChains  hotspot.Chains `yaml:"target_chain"`
	Hotspots      string         `yaml:"target_hotspots"`

	// Remapped is set once the chains and hotspots are in the numbering of
	// the concatenated target. It keeps hotspots from being shifted twice.
	Remapped bool `yaml:"hotspots_remapped,omitempty"`
}

// NewParameters converts loaded settings into run and target parameters.
func NewParameters(c *config.Config) (RunParameters, TargetParameters, error) {
	binderType, err := ParseBinderType(c.Run.Type)
	if err != nil {
		return RunParameters{}, TargetParameters{}, err
	}

	run := RunParameters{
		ProjectDir:        c.Run.ProjectDir,
		ResultsDir:        c.Run.ResultsDir,
		ExperimentName:    c.Run.ExperimentName,
		RunConfig:         c.Run.RunConfig,
		StructureDir:      c.Run.StructureDir,
		BinderType:        binderType,
		CDRLengths:        c.Run.CDRLengths,
		FWLengths:         c.Run.FWLengths,
		UseMultimerDesign: c.Run.UseMultimerDesign,
		BiasRedesign:      Bias{Value: c.Run.BiasRedesign},
		Extra:             c.Run.Extra,
	}

	target := TargetParameters{
		Name:          c.Target.Name,
		StructurePath: c.Target.StructurePath,
		BinderChain:   c.Target.BinderChain,
		TargetChains:  hotspot.Chains(c.Target.TargetChain).Normalize(),
		Hotspots:      c.Target.Hotspots,
		Remapped:      c.Target.Remapped,
	}

	return run, target, nil
}

// clone copies the slices and map so the copy can be changed freely.
func (r RunParameters) clone() RunParameters {
	out := r
	out.CDRLengths = append([]int(nil), r.CDRLengths...)
	out.FWLengths = append([]int(nil), r.FWLengths...)
	out.CDRPositions = append([]cdr.Range(nil), r.CDRPositions...)
	out.DesignModels = append([]int(nil), r.DesignModels...)
	if r.Extra != nil {
		out.Extra = make(map[string]interface{}, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

func (t TargetParameters) clone() TargetParameters {
	out := t
	out.TargetChains = append(hotspot.Chains(nil), t.TargetChains...)
	return out
}
