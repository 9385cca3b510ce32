// Package report turns the result of a relabel run into a class
// distribution summary and renders it as HTML or PNG.
package report

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/setlabel/internal/config"
	"github.com/banshee-data/setlabel/internal/relabel"
	"github.com/banshee-data/setlabel/internal/security"
)

// ClassShare is one bar of the class histogram.
type ClassShare struct {
	Class  uint8
	Name   string
	Points int64
	Share  float64 // fraction of all points, 0..1
}

// Summary describes the output classification of one run.
type Summary struct {
	RunID      string
	InputPath  string
	OutputPath string
	StartedAt  time.Time
	Duration   time.Duration

	Points            int64
	Labeled           int64
	AlreadyClassified int64
	Clamped           int64
	Unmapped          int64

	// Classes holds every class with at least one point, in class order.
	Classes []ClassShare
	// Entropy of the class distribution in bits.
	Entropy float64
}

// Summarize builds the Summary of res. For taxonomy runs, classes that are
// reduced codes of taxonomy are named after their category; nil means the
// default taxonomy. Other strategies name every class by number.
func Summarize(res *relabel.Result, taxonomy *relabel.Taxonomy) *Summary {
	if res.Strategy != config.StrategyTaxonomy {
		taxonomy = nil
	} else if taxonomy == nil {
		taxonomy = relabel.DefaultTaxonomy()
	}
	s := &Summary{
		RunID:             res.RunID,
		InputPath:         res.InputPath,
		OutputPath:        res.OutputPath,
		StartedAt:         res.StartedAt,
		Duration:          res.Duration,
		Points:            res.Pipeline.PointsRead,
		Labeled:           res.Pipeline.Labeled,
		AlreadyClassified: res.Pipeline.AlreadyClassified,
		Clamped:           res.Pipeline.Clamped,
		Unmapped:          res.Remap.Unmapped,
	}

	var total int64
	for _, n := range res.Pipeline.Classes {
		total += n
	}
	if total == 0 {
		return s
	}

	probs := make([]float64, 0, 8)
	for class, n := range res.Pipeline.Classes {
		if n == 0 {
			continue
		}
		share := float64(n) / float64(total)
		name := fmt.Sprintf("class %d", class)
		if taxonomy != nil {
			if category, ok := taxonomy.CategoryName(uint32(class)); ok {
				name = category
			}
		}
		s.Classes = append(s.Classes, ClassShare{Class: uint8(class), Name: name, Points: n, Share: share})
		probs = append(probs, share)
	}
	// stat.Entropy is in nats.
	s.Entropy = stat.Entropy(probs) / math.Ln2
	return s
}

// Path returns the report file for s inside dir with the given extension,
// named after the input file and run id.
func (s *Summary) Path(dir, ext string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(s.InputPath), filepath.Ext(s.InputPath))
	id := s.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	name := security.SanitizeFilename(fmt.Sprintf("%s_%s", base, id)) + ext
	path := filepath.Join(dir, name)
	if err := security.ValidatePathWithinDirectory(path, dir); err != nil {
		return "", fmt.Errorf("invalid report path: %w", err)
	}
	return path, nil
}

func (s *Summary) names() []string {
	names := make([]string, len(s.Classes))
	for i, c := range s.Classes {
		names[i] = fmt.Sprintf("%d %s", c.Class, c.Name)
	}
	return names
}
