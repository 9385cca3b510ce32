// Command setlabel writes the labels of a per-point label file into the
// classification field of a LAS point cloud.
//
//	setlabel in.las in.label out.las
//	setlabel -i in.las -l in.label -o out.las -v
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/setlabel/internal/config"
	"github.com/banshee-data/setlabel/internal/db"
	"github.com/banshee-data/setlabel/internal/relabel"
	"github.com/banshee-data/setlabel/internal/report"
	"github.com/banshee-data/setlabel/internal/version"
)

type cliArgs struct {
	input      string
	labels     string
	output     string
	configPath string
	defsPath   string
	historyDB  string
	reportDir  string
	verbose    bool
	trace      bool
	version    bool
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		w := fs.Output()
		fmt.Fprintf(w, "usage:\n")
		fmt.Fprintf(w, "  setlabel in.las in.label out.las\n")
		fmt.Fprintf(w, "  setlabel -i in.las -l in.label -o out.las -v\n")
		fmt.Fprintf(w, "  setlabel -h\n\n")
		fs.PrintDefaults()
	}
}

// parseArgs accepts the flag form, the positional form, or a mix where
// positional arguments fill whichever of input, labels and output the flags
// left unset.
func parseArgs(args []string, stderr io.Writer) (*cliArgs, error) {
	a := &cliArgs{}
	fs := flag.NewFlagSet("setlabel", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usage(fs)

	fs.StringVar(&a.input, "i", "", "input LAS file")
	fs.StringVar(&a.labels, "l", "", "input label file (little-endian uint32 per point)")
	fs.StringVar(&a.output, "o", "", "output LAS file")
	fs.StringVar(&a.configPath, "config", "", "path to a JSON relabel config")
	fs.StringVar(&a.defsPath, "defs", "", "class definition document (.xml, .yaml or .json)")
	fs.StringVar(&a.historyDB, "history-db", "", "record the run in this SQLite database")
	fs.StringVar(&a.reportDir, "report-dir", "", "write HTML and PNG class reports to this directory")
	fs.BoolVar(&a.verbose, "v", false, "verbose output")
	fs.BoolVar(&a.verbose, "verbose", false, "verbose output")
	fs.BoolVar(&a.trace, "vv", false, "verbose output plus per-point diagnostics")
	fs.BoolVar(&a.trace, "trace", false, "verbose output plus per-point diagnostics")
	fs.BoolVar(&a.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if a.version {
		return a, nil
	}

	positional := fs.Args()
	for _, dst := range []*string{&a.input, &a.labels, &a.output} {
		if *dst == "" && len(positional) > 0 {
			*dst = positional[0]
			positional = positional[1:]
		}
	}
	if len(positional) > 0 {
		fs.Usage()
		return nil, fmt.Errorf("cannot understand argument %q", positional[0])
	}

	switch {
	case a.input == "":
		fs.Usage()
		return nil, errors.New("no input specified")
	case a.labels == "":
		fs.Usage()
		return nil, errors.New("no input labels specified")
	case a.output == "":
		fs.Usage()
		return nil, errors.New("no output specified")
	}
	return a, nil
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(a *cliArgs) (*config.RelabelConfig, error) {
	cfg := config.EmptyRelabelConfig()
	if a.configPath != "" {
		var err error
		if cfg, err = config.LoadRelabelConfig(a.configPath); err != nil {
			return nil, err
		}
	}
	if a.historyDB != "" {
		cfg.HistoryDB = &a.historyDB
	}
	if a.reportDir != "" {
		cfg.ReportDir = &a.reportDir
		if cfg.ReportHTML == nil && cfg.ReportPNG == nil {
			on := true
			cfg.ReportHTML, cfg.ReportPNG = &on, &on
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(a *cliArgs, stdout, stderr io.Writer) error {
	if a.version {
		fmt.Fprintln(stdout, version.String())
		return nil
	}

	var diag, trace io.Writer
	if a.verbose || a.trace {
		diag = stderr
	}
	if a.trace {
		trace = stderr
	}
	relabel.SetLogWriters(stderr, diag, trace)

	cfg, err := loadConfig(a)
	if err != nil {
		return err
	}

	res, err := relabel.Run(relabel.Options{
		InputPath:       a.input,
		LabelPath:       a.labels,
		OutputPath:      a.output,
		DefinitionsPath: a.defsPath,
		Config:          cfg,
	})
	if err != nil {
		return err
	}
	if a.verbose || a.trace {
		fmt.Fprintf(stderr, "total time: %g sec %d bytes for %d points\n",
			res.Duration.Seconds(), res.Output.BytesWritten, res.Output.PointsWritten)
	}

	if path := cfg.GetHistoryDB(); path != "" {
		if err := recordHistory(path, res); err != nil {
			return fmt.Errorf("output written but run history failed: %w", err)
		}
	}
	if cfg.GetReportHTML() || cfg.GetReportPNG() {
		if err := writeReports(cfg, res); err != nil {
			return fmt.Errorf("output written but report failed: %w", err)
		}
	}
	return nil
}

func recordHistory(path string, res *relabel.Result) error {
	store, err := db.OpenDB(path)
	if err != nil {
		return err
	}
	defer store.Close()

	classes := make(map[uint8]int64)
	for class, n := range res.Pipeline.Classes {
		if n > 0 {
			classes[uint8(class)] = n
		}
	}
	return store.RecordRun(&db.RunRecord{
		RunID:             res.RunID,
		StartedAt:         res.StartedAt,
		Duration:          res.Duration,
		InputPath:         res.InputPath,
		LabelPath:         res.LabelPath,
		OutputPath:        res.OutputPath,
		Strategy:          res.Strategy,
		Labels:            res.Labels,
		PointsRead:        res.Pipeline.PointsRead,
		PointsLabeled:     res.Pipeline.Labeled,
		AlreadyClassified: res.Pipeline.AlreadyClassified,
		Clamped:           res.Pipeline.Clamped,
		Unmapped:          res.Remap.Unmapped,
		BytesWritten:      res.Output.BytesWritten,
		ToolVersion:       version.Version,
		Classes:           classes,
	})
}

func writeReports(cfg *config.RelabelConfig, res *relabel.Result) error {
	dir := cfg.GetReportDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	summary := report.Summarize(res, nil)

	if cfg.GetReportHTML() {
		path, err := summary.Path(dir, ".html")
		if err != nil {
			return err
		}
		if err := report.WriteHTML(summary, path); err != nil {
			return err
		}
		log.Printf("wrote %s", path)
	}
	if cfg.GetReportPNG() {
		path, err := summary.Path(dir, ".png")
		if err != nil {
			return err
		}
		if err := report.WritePNG(summary, path); err != nil {
			return err
		}
		log.Printf("wrote %s", path)
	}
	return nil
}

func main() {
	a, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	if err := run(a, os.Stdout, os.Stderr); err != nil {
		log.Fatalf("ERROR: %v", err)
	}
}
