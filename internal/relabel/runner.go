package relabel

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/setlabel/internal/config"
	"github.com/banshee-data/setlabel/internal/fsutil"
	"github.com/banshee-data/setlabel/internal/security"
	"github.com/banshee-data/setlabel/internal/timeutil"
)

// Options describes one relabel run.
type Options struct {
	InputPath  string
	LabelPath  string
	OutputPath string
	// DefinitionsPath overrides the config's definitions_path when set.
	DefinitionsPath string

	Config   *config.RelabelConfig // nil means defaults
	FS       fsutil.FileSystem     // for labels and definitions; nil means the OS
	Taxonomy *Taxonomy             // nil means DefaultTaxonomy()
	Clock    timeutil.Clock        // nil means the wall clock
}

// Result is what a successful run reports.
type Result struct {
	RunID      string
	InputPath  string
	LabelPath  string
	OutputPath string
	Strategy   string
	StartedAt  time.Time
	Duration   time.Duration

	Labels   int64
	Remap    RemapStats
	Pipeline PipelineStats
	Output   FinalizeResult
}

// NewTableBuilder selects the TableBuilder named by cfg's remap_strategy.
// The definition document is only read for the taxonomy strategy.
func NewTableBuilder(cfg *config.RelabelConfig, fsys fsutil.FileSystem, defsPath string, taxonomy *Taxonomy) (TableBuilder, error) {
	switch strategy := cfg.GetRemapStrategy(); strategy {
	case config.StrategyIdentity:
		return IdentityTableBuilder{}, nil
	case config.StrategyArray:
		return ArrayTableBuilder{Codes: cfg.RemapArray}, nil
	case config.StrategyTaxonomy:
		if defsPath == "" {
			defsPath = cfg.GetDefinitionsPath()
		}
		dict, err := LoadClassDictionary(fsys, defsPath)
		if err != nil {
			return nil, err
		}
		if taxonomy == nil {
			taxonomy = DefaultTaxonomy()
		}
		return TaxonomyTableBuilder{Dictionary: dict, Taxonomy: taxonomy}, nil
	default:
		return nil, fmt.Errorf("%w: unknown remap strategy %q", ErrConfig, strategy)
	}
}

func policiesFromConfig(cfg *config.RelabelConfig) (UnmappedPolicy, OverflowPolicy, LabelSizePolicy) {
	unmapped := UnmappedZero
	if cfg.GetUnmappedPolicy() == config.UnmappedFail {
		unmapped = UnmappedFail
	}
	overflow := OverflowReject
	if cfg.GetOverflowPolicy() == config.OverflowClamp {
		overflow = OverflowClamp
	}
	labelSize := LabelSizeReject
	if cfg.GetLabelSizePolicy() == config.LabelSizeTruncate {
		labelSize = LabelSizeTruncate
	}
	return unmapped, overflow, labelSize
}

// Run relabels opts.InputPath into opts.OutputPath. Configuration and input
// problems are reported before the output file is created. Once the output
// exists, any failure removes it again, so a returned error never leaves a
// partial point cloud behind.
func Run(opts Options) (*Result, error) {
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	start := clock.Now()
	cfg := opts.Config
	if cfg == nil {
		cfg = config.EmptyRelabelConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	if opts.InputPath == "" || opts.LabelPath == "" || opts.OutputPath == "" {
		return nil, fmt.Errorf("%w: input, label and output paths are all required", ErrConfig)
	}
	if err := security.ValidateDistinctPaths(opts.OutputPath, opts.InputPath, opts.LabelPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	res := &Result{
		RunID:      uuid.New().String(),
		InputPath:  opts.InputPath,
		LabelPath:  opts.LabelPath,
		OutputPath: opts.OutputPath,
		Strategy:   cfg.GetRemapStrategy(),
		StartedAt:  start,
	}
	unmapped, overflow, labelSize := policiesFromConfig(cfg)

	builder, err := NewTableBuilder(cfg, fsys, opts.DefinitionsPath, opts.Taxonomy)
	if err != nil {
		return nil, err
	}
	table, err := builder.Build()
	if err != nil {
		return nil, err
	}
	diagf("run %s: %s remap table with %d entries", res.RunID, res.Strategy, len(table))

	labels, err := LoadLabels(fsys, opts.LabelPath, labelSize)
	if err != nil {
		return nil, err
	}
	res.Labels = int64(len(labels))

	src, err := OpenLASSource(opts.InputPath)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	diagf("Loaded %d points from %s", src.DeclaredPointCount(), opts.InputPath)

	if declared := src.DeclaredPointCount(); declared != res.Labels {
		return nil, &CountMismatchError{Stage: StageLabels, Expected: declared, Got: res.Labels}
	}

	engine := &RemapEngine{Table: table, Policy: unmapped}
	if res.Remap, err = engine.Apply(labels); err != nil {
		return nil, err
	}

	sink, err := CreateLASSink(opts.OutputPath, src.Header())
	if err != nil {
		return nil, err
	}

	pipeline := &Pipeline{Overflow: overflow}
	if res.Pipeline, err = pipeline.Run(src, labels, sink); err != nil {
		if abortErr := sink.Abort(); abortErr != nil {
			opsf("failed to remove unfinished output %s: %v", opts.OutputPath, abortErr)
		}
		return nil, err
	}

	if res.Output, err = Finalize(sink, src); err != nil {
		if abortErr := sink.Abort(); abortErr != nil {
			opsf("failed to remove unfinished output %s: %v", opts.OutputPath, abortErr)
		}
		return nil, err
	}

	res.Duration = clock.Since(start)
	diagf("run %s: relabeled %d points (%d kept their class) in %s",
		res.RunID, res.Pipeline.PointsRead, res.Pipeline.AlreadyClassified, res.Duration)
	return res, nil
}
