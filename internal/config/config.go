// Package config holds the configuration options consumed by the core
// imputation engine, as enumerated in the design's external interfaces
// section. Values outside their declared range are a fatal error before
// any work begins.
package config

import "fmt"

// PathType selects which HMM path finder runs for a sample.
type PathType int

const (
	Haploid PathType = iota
	Diploid
)

func (p PathType) String() string {
	if p == Diploid {
		return "diploid"
	}
	return "haploid"
}

// Config is the full set of tunables shared by the index builder, read
// mapper, ancestor selector and HMM path finders.
type Config struct {
	// Emission / transition model.
	ProbCorrect           float64 // binomial success prob for a read matching its assigned haplotype
	ProbSameGamete        float64 // HMM self-transition probability
	InbreedingCoefficient float64 // f, diploid transition model

	// Range filtering (shared by haploid and diploid path finders).
	MinGametes    int     // drop ranges with fewer gametes than this
	MinReads      int     // drop ranges with fewer distinct observed haplotype-sets
	MaxReadsPerKb float64 // drop ranges with higher read density than this
	RemoveEqual   bool    // drop ranges where all haplotypes have identical support

	// Ancestor pruning.
	UseLikelyAncestors bool
	MaxAncestors       int
	MinCoverage        float64

	PathType PathType
	Threads  int

	// K-mer index build filters.
	MaxHaplotypeProportion float64
	HashMask               uint64
	HashFilterValue        uint64

	// Read mapping filters.
	MinProportionOfMaxCount float64
	LimitSingleRefRange     bool
	MinSameReferenceRange   float64
}

// Default returns the configuration with every default named in the design.
func Default() Config {
	return Config{
		ProbCorrect:             0.99,
		ProbSameGamete:          0.99,
		InbreedingCoefficient:   0,
		MinGametes:              0,
		MinReads:                0,
		MaxReadsPerKb:           1e9,
		RemoveEqual:             false,
		UseLikelyAncestors:      false,
		MaxAncestors:            0,
		MinCoverage:             1.0,
		PathType:                Haploid,
		Threads:                 3,
		MaxHaplotypeProportion:  0.75,
		HashMask:                0,
		HashFilterValue:         0,
		MinProportionOfMaxCount: 1.0,
		LimitSingleRefRange:     false,
		MinSameReferenceRange:   0.9,
	}
}

// Validate reports the first configuration value found outside its
// declared domain. Per the error handling design, this must be checked
// before any work begins.
func (c Config) Validate() error {
	type bound struct {
		name     string
		value    float64
		min, max float64
	}
	for _, b := range []bound{
		{"ProbCorrect", c.ProbCorrect, 0, 1},
		{"ProbSameGamete", c.ProbSameGamete, 0, 1},
		{"InbreedingCoefficient", c.InbreedingCoefficient, 0, 1},
		{"MaxHaplotypeProportion", c.MaxHaplotypeProportion, 0, 1},
		{"MinProportionOfMaxCount", c.MinProportionOfMaxCount, 0, 1},
		{"MinSameReferenceRange", c.MinSameReferenceRange, 0, 1},
		{"MinCoverage", c.MinCoverage, 0, 1},
	} {
		if b.value < b.min || b.value > b.max {
			return fmt.Errorf("config: %s=%v out of range [%v,%v]", b.name, b.value, b.min, b.max)
		}
	}
	if c.MinGametes < 0 {
		return fmt.Errorf("config: MinGametes=%d must be >= 0", c.MinGametes)
	}
	if c.MinReads < 0 {
		return fmt.Errorf("config: MinReads=%d must be >= 0", c.MinReads)
	}
	if c.MaxReadsPerKb < 0 {
		return fmt.Errorf("config: MaxReadsPerKb=%v must be >= 0", c.MaxReadsPerKb)
	}
	if c.MaxAncestors < 0 {
		return fmt.Errorf("config: MaxAncestors=%d must be >= 0", c.MaxAncestors)
	}
	if c.Threads <= 0 {
		return fmt.Errorf("config: Threads=%d must be > 0", c.Threads)
	}
	if c.PathType != Haploid && c.PathType != Diploid {
		return fmt.Errorf("config: PathType=%d invalid", c.PathType)
	}
	return nil
}
