package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDefinitionsPath is where the class definition document is looked
// up when neither the config file nor the CLI names one.
const DefaultDefinitionsPath = "labels.xml"

// Remap table strategies.
const (
	StrategyTaxonomy = "taxonomy"
	StrategyIdentity = "identity"
	StrategyArray    = "array"
)

// Unmapped label policies.
const (
	UnmappedZero = "zero"
	UnmappedFail = "fail"
)

// Classification overflow policies.
const (
	OverflowReject = "reject"
	OverflowClamp  = "clamp"
)

// Label file size policies for files that are not a multiple of 4 bytes.
const (
	LabelSizeReject   = "reject"
	LabelSizeTruncate = "truncate"
)

// maxRemapArray is the number of raw ids an explicit array may cover.
const maxRemapArray = 256

// RelabelConfig holds the optional settings of a relabel run. Every field is
// a pointer so that a partial JSON file leaves the rest at their defaults,
// which the Get* methods supply.
type RelabelConfig struct {
	// Remap table construction
	RemapStrategy   *string  `json:"remap_strategy,omitempty"` // taxonomy, identity or array
	DefinitionsPath *string  `json:"definitions_path,omitempty"`
	RemapArray      []uint32 `json:"remap_array,omitempty"` // index = raw id, value = code

	// Failure policies
	UnmappedPolicy  *string `json:"unmapped_policy,omitempty"`   // zero or fail
	OverflowPolicy  *string `json:"overflow_policy,omitempty"`   // reject or clamp
	LabelSizePolicy *string `json:"label_size_policy,omitempty"` // reject or truncate

	// Run history and reports
	HistoryDB  *string `json:"history_db,omitempty"`
	ReportDir  *string `json:"report_dir,omitempty"`
	ReportHTML *bool   `json:"report_html,omitempty"`
	ReportPNG  *bool   `json:"report_png,omitempty"`
}

// Helper functions to create pointers
func ptrString(v string) *string { return &v }
func ptrBool(v bool) *bool       { return &v }

// EmptyRelabelConfig returns a RelabelConfig with all fields unset.
func EmptyRelabelConfig() *RelabelConfig {
	return &RelabelConfig{}
}

// DefaultRelabelConfig returns a RelabelConfig with every field set to the
// value its getter would default to.
func DefaultRelabelConfig() *RelabelConfig {
	return &RelabelConfig{
		RemapStrategy:   ptrString(StrategyTaxonomy),
		DefinitionsPath: ptrString(DefaultDefinitionsPath),
		UnmappedPolicy:  ptrString(UnmappedZero),
		OverflowPolicy:  ptrString(OverflowReject),
		LabelSizePolicy: ptrString(LabelSizeReject),
		HistoryDB:       ptrString(""),
		ReportDir:       ptrString(""),
		ReportHTML:      ptrBool(false),
		ReportPNG:       ptrBool(false),
	}
}

// LoadRelabelConfig loads a RelabelConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadRelabelConfig(path string) (*RelabelConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRelabelConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *RelabelConfig) Validate() error {
	if c.RemapStrategy != nil {
		switch *c.RemapStrategy {
		case StrategyTaxonomy, StrategyIdentity:
		case StrategyArray:
			if len(c.RemapArray) == 0 {
				return fmt.Errorf("remap_strategy %q requires a non-empty remap_array", StrategyArray)
			}
		default:
			return fmt.Errorf("unknown remap_strategy %q", *c.RemapStrategy)
		}
	}
	if len(c.RemapArray) > 0 && c.GetRemapStrategy() != StrategyArray {
		return fmt.Errorf("remap_array is only used with remap_strategy %q, got %q", StrategyArray, c.GetRemapStrategy())
	}
	if len(c.RemapArray) > maxRemapArray {
		return fmt.Errorf("remap_array has %d entries (max %d)", len(c.RemapArray), maxRemapArray)
	}

	if c.UnmappedPolicy != nil && *c.UnmappedPolicy != UnmappedZero && *c.UnmappedPolicy != UnmappedFail {
		return fmt.Errorf("unmapped_policy must be %q or %q, got %q", UnmappedZero, UnmappedFail, *c.UnmappedPolicy)
	}
	if c.OverflowPolicy != nil && *c.OverflowPolicy != OverflowReject && *c.OverflowPolicy != OverflowClamp {
		return fmt.Errorf("overflow_policy must be %q or %q, got %q", OverflowReject, OverflowClamp, *c.OverflowPolicy)
	}
	if c.LabelSizePolicy != nil && *c.LabelSizePolicy != LabelSizeReject && *c.LabelSizePolicy != LabelSizeTruncate {
		return fmt.Errorf("label_size_policy must be %q or %q, got %q", LabelSizeReject, LabelSizeTruncate, *c.LabelSizePolicy)
	}

	if (c.GetReportHTML() || c.GetReportPNG()) && c.GetReportDir() == "" {
		return fmt.Errorf("report_html/report_png require report_dir")
	}

	return nil
}

// GetRemapStrategy returns the remap_strategy value or the default.
func (c *RelabelConfig) GetRemapStrategy() string {
	if c.RemapStrategy == nil || *c.RemapStrategy == "" {
		return StrategyTaxonomy
	}
	return *c.RemapStrategy
}

// GetDefinitionsPath returns the definitions_path value or the default.
func (c *RelabelConfig) GetDefinitionsPath() string {
	if c.DefinitionsPath == nil || *c.DefinitionsPath == "" {
		return DefaultDefinitionsPath
	}
	return *c.DefinitionsPath
}

// GetUnmappedPolicy returns the unmapped_policy value or the default.
func (c *RelabelConfig) GetUnmappedPolicy() string {
	if c.UnmappedPolicy == nil {
		return UnmappedZero
	}
	return *c.UnmappedPolicy
}

// GetOverflowPolicy returns the overflow_policy value or the default.
func (c *RelabelConfig) GetOverflowPolicy() string {
	if c.OverflowPolicy == nil {
		return OverflowReject
	}
	return *c.OverflowPolicy
}

// GetLabelSizePolicy returns the label_size_policy value or the default.
func (c *RelabelConfig) GetLabelSizePolicy() string {
	if c.LabelSizePolicy == nil {
		return LabelSizeReject
	}
	return *c.LabelSizePolicy
}

// GetHistoryDB returns the history_db path, empty when disabled.
func (c *RelabelConfig) GetHistoryDB() string {
	if c.HistoryDB == nil {
		return ""
	}
	return *c.HistoryDB
}

// GetReportDir returns the report_dir path, empty when disabled.
func (c *RelabelConfig) GetReportDir() string {
	if c.ReportDir == nil {
		return ""
	}
	return *c.ReportDir
}

// GetReportHTML returns the report_html value or the default.
func (c *RelabelConfig) GetReportHTML() bool {
	if c.ReportHTML == nil {
		return false
	}
	return *c.ReportHTML
}

// GetReportPNG returns the report_png value or the default.
func (c *RelabelConfig) GetReportPNG() bool {
	if c.ReportPNG == nil {
		return false
	}
	return *c.ReportPNG
}
