package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"custos/internal/escalation"
	dErrors "custos/pkg/domain-errors"
)

// file is the YAML layout of a policy file:
//
//	policies:
//	  - name: procurement_amount
//	    bands:
//	      - {upper: 50000, level: autonomous}
//	      - {upper: 100000, level: semi_autonomous}
//	    terminal: human_review
//	    review_at: human_review
//	    boundary: strict
//	    domain: {min: 0}
type file struct {
	Policies []spec `yaml:"policies"`
}

type spec struct {
	Name     string      `yaml:"name"`
	Bands    []bandSpec  `yaml:"bands"`
	Terminal string      `yaml:"terminal"`
	ReviewAt string      `yaml:"review_at"`
	Boundary string      `yaml:"boundary"`
	Domain   *domainSpec `yaml:"domain"`
}

type bandSpec struct {
	Upper float64 `yaml:"upper"`
	Level string  `yaml:"level"`
}

type domainSpec struct {
	Min float64  `yaml:"min"`
	Max *float64 `yaml:"max"`
}

// Load reads a policy file and overlays it on the defaults, so a file only
// needs to declare the tables it changes.
//
// Errors: CodeConfiguration for unreadable or malformed files. Raised at
// startup, never at evaluation time.
func Load(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, fmt.Sprintf("read policy file %s", path))
	}
	return Parse(data)
}

// Parse builds a policy set from YAML, overlaid on the defaults.
func Parse(data []byte) (Set, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "parse policy file")
	}

	set := Default()
	for _, s := range f.Policies {
		if s.Name == "" {
			return nil, dErrors.New(dErrors.CodeConfiguration, "policy requires a name")
		}
		ev, err := build(s)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, fmt.Sprintf("policy %q", s.Name))
		}
		set[s.Name] = ev
	}
	return set, nil
}

func build(s spec) (*escalation.Evaluator, error) {
	bands := make([]escalation.Band, 0, len(s.Bands))
	for _, b := range s.Bands {
		bands = append(bands, escalation.Band{
			UpperBound: b.Upper,
			Level:      escalation.Level(b.Level),
		})
	}

	var opts []escalation.TableOption
	if s.Boundary != "" {
		opts = append(opts, escalation.WithBoundary(escalation.BoundaryPolicy(s.Boundary)))
	}
	if s.Domain != nil {
		max := unboundedMax
		if s.Domain.Max != nil {
			max = *s.Domain.Max
		}
		opts = append(opts, escalation.WithDomain(s.Domain.Min, max))
	}

	table, err := escalation.NewThresholdTable(bands, escalation.Level(s.Terminal), opts...)
	if err != nil {
		return nil, err
	}
	return escalation.NewEvaluator(table, escalation.Level(s.ReviewAt))
}
