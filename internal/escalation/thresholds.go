package escalation

import (
	"math"

	dErrors "custos/pkg/domain-errors"
)

// Level is one outcome of a threshold table. Each table defines its own
// closed set of levels; severity is the position of the level in the table,
// so a table's levels are totally ordered from least to most severe.
type Level string

// Levels used by the built-in policies. Tables are free to define others.
const (
	LevelGreen  Level = "green"
	LevelYellow Level = "yellow"
	LevelRed    Level = "red"

	LevelAutonomous     Level = "autonomous"
	LevelSemiAutonomous Level = "semi_autonomous"
	LevelHumanReview    Level = "human_review"
	LevelEscalation     Level = "escalation"
)

// BoundaryPolicy controls which band a signal exactly equal to an upper
// bound falls into. The governed rule sets mixed > and >= comparisons, so
// the semantics are configuration, not hardcoded policy.
type BoundaryPolicy string

const (
	// BoundaryStrict keeps equality in the lower-severity band: a signal
	// escalates only when it strictly exceeds the bound. This is the
	// default, matching the majority of the governed rule sets.
	BoundaryStrict BoundaryPolicy = "strict"

	// BoundaryInclusive pushes equality into the next band: a signal at
	// the bound already escalates.
	BoundaryInclusive BoundaryPolicy = "inclusive"
)

// Band maps the range below UpperBound to a Level.
type Band struct {
	UpperBound float64
	Level      Level
}

// ThresholdTable is an ordered mapping from signal ranges to outcome levels.
// It is immutable after construction; all validation happens in
// NewThresholdTable so classification never fails on configuration.
type ThresholdTable struct {
	bands     []Band
	terminal  Level
	boundary  BoundaryPolicy
	domainMin float64
	domainMax float64
}

// TableOption configures a ThresholdTable.
type TableOption func(*ThresholdTable)

// WithBoundary sets the bound-equality policy.
func WithBoundary(p BoundaryPolicy) TableOption {
	return func(t *ThresholdTable) { t.boundary = p }
}

// WithDomain restricts valid signal values to [min, max]. Use math.Inf(1)
// for an unbounded maximum. The default domain is [0, +Inf).
func WithDomain(min, max float64) TableOption {
	return func(t *ThresholdTable) {
		t.domainMin = min
		t.domainMax = max
	}
}

// NewThresholdTable validates and builds a table. Bands must be non-empty
// with finite, strictly increasing bounds; levels must be unique within the
// table so severity ordering is well defined. The terminal level applies to
// signals above every bound.
//
// Errors: CodeConfiguration for any malformed table, raised here at
// construction, never at evaluation time.
func NewThresholdTable(bands []Band, terminal Level, opts ...TableOption) (*ThresholdTable, error) {
	if len(bands) == 0 {
		return nil, dErrors.New(dErrors.CodeConfiguration, "threshold table requires at least one band")
	}
	if terminal == "" {
		return nil, dErrors.New(dErrors.CodeConfiguration, "threshold table requires a terminal level")
	}

	t := &ThresholdTable{
		bands:     append([]Band(nil), bands...),
		terminal:  terminal,
		boundary:  BoundaryStrict,
		domainMin: 0,
		domainMax: math.Inf(1),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.boundary != BoundaryStrict && t.boundary != BoundaryInclusive {
		return nil, dErrors.Newf(dErrors.CodeConfiguration, "unknown boundary policy %q", t.boundary)
	}
	if math.IsNaN(t.domainMin) || math.IsNaN(t.domainMax) || t.domainMin >= t.domainMax {
		return nil, dErrors.New(dErrors.CodeConfiguration, "signal domain must satisfy min < max")
	}

	seen := map[Level]bool{}
	prev := math.Inf(-1)
	for _, b := range t.bands {
		if math.IsNaN(b.UpperBound) || math.IsInf(b.UpperBound, 0) {
			return nil, dErrors.New(dErrors.CodeConfiguration, "band bounds must be finite")
		}
		if b.UpperBound <= prev {
			return nil, dErrors.New(dErrors.CodeConfiguration, "band bounds must be strictly increasing")
		}
		if b.Level == "" {
			return nil, dErrors.New(dErrors.CodeConfiguration, "band level cannot be empty")
		}
		if seen[b.Level] {
			return nil, dErrors.Newf(dErrors.CodeConfiguration, "duplicate level %q in threshold table", b.Level)
		}
		seen[b.Level] = true
		prev = b.UpperBound
	}
	if seen[terminal] {
		return nil, dErrors.Newf(dErrors.CodeConfiguration, "terminal level %q duplicates a band level", terminal)
	}

	return t, nil
}

// Levels returns the table's levels from least to most severe.
func (t *ThresholdTable) Levels() []Level {
	levels := make([]Level, 0, len(t.bands)+1)
	for _, b := range t.bands {
		levels = append(levels, b.Level)
	}
	return append(levels, t.terminal)
}

// SeverityOf returns the severity rank of a level within this table, or -1
// when the level does not belong to the table.
func (t *ThresholdTable) SeverityOf(level Level) int {
	for i, b := range t.bands {
		if b.Level == level {
			return i
		}
	}
	if level == t.terminal {
		return len(t.bands)
	}
	return -1
}

// Classify maps a value already known to be in-domain to its level and
// severity rank. Pure function of the value and the table.
func (t *ThresholdTable) Classify(value float64) (Level, int) {
	for i, b := range t.bands {
		if t.boundary == BoundaryStrict {
			if value <= b.UpperBound {
				return b.Level, i
			}
		} else if value < b.UpperBound {
			return b.Level, i
		}
	}
	return t.terminal, len(t.bands)
}

func (t *ThresholdTable) inDomain(value float64) bool {
	return value >= t.domainMin && value <= t.domainMax
}
