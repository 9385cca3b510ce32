package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRelabelConfig(t *testing.T) {
	cfg := DefaultRelabelConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.GetRemapStrategy() != StrategyTaxonomy {
		t.Errorf("GetRemapStrategy() = %q, want %q", cfg.GetRemapStrategy(), StrategyTaxonomy)
	}
	if cfg.GetDefinitionsPath() != DefaultDefinitionsPath {
		t.Errorf("GetDefinitionsPath() = %q, want %q", cfg.GetDefinitionsPath(), DefaultDefinitionsPath)
	}
	if cfg.GetUnmappedPolicy() != UnmappedZero {
		t.Errorf("GetUnmappedPolicy() = %q, want %q", cfg.GetUnmappedPolicy(), UnmappedZero)
	}
	if cfg.GetOverflowPolicy() != OverflowReject {
		t.Errorf("GetOverflowPolicy() = %q, want %q", cfg.GetOverflowPolicy(), OverflowReject)
	}
	if cfg.GetLabelSizePolicy() != LabelSizeReject {
		t.Errorf("GetLabelSizePolicy() = %q, want %q", cfg.GetLabelSizePolicy(), LabelSizeReject)
	}
	if cfg.GetHistoryDB() != "" || cfg.GetReportDir() != "" || cfg.GetReportHTML() || cfg.GetReportPNG() {
		t.Error("history and reports should be disabled by default")
	}
}

func TestEmptyRelabelConfigGetters(t *testing.T) {
	cfg := EmptyRelabelConfig()
	def := DefaultRelabelConfig()

	if cfg.GetRemapStrategy() != def.GetRemapStrategy() ||
		cfg.GetDefinitionsPath() != def.GetDefinitionsPath() ||
		cfg.GetUnmappedPolicy() != def.GetUnmappedPolicy() ||
		cfg.GetOverflowPolicy() != def.GetOverflowPolicy() ||
		cfg.GetLabelSizePolicy() != def.GetLabelSizePolicy() {
		t.Error("empty config getters should match DefaultRelabelConfig")
	}
}

func TestLoadRelabelConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "relabel.json")
	testJSON := `{
  "remap_strategy": "array",
  "remap_array": [0, 2, 2, 6],
  "unmapped_policy": "fail",
  "overflow_policy": "clamp",
  "label_size_policy": "truncate",
  "history_db": "runs.db",
  "report_dir": "reports",
  "report_html": true
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadRelabelConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetRemapStrategy() != StrategyArray {
		t.Errorf("GetRemapStrategy() = %q, want array", cfg.GetRemapStrategy())
	}
	if len(cfg.RemapArray) != 4 || cfg.RemapArray[3] != 6 {
		t.Errorf("unexpected RemapArray %v", cfg.RemapArray)
	}
	if cfg.GetUnmappedPolicy() != UnmappedFail {
		t.Errorf("GetUnmappedPolicy() = %q, want fail", cfg.GetUnmappedPolicy())
	}
	if cfg.GetOverflowPolicy() != OverflowClamp {
		t.Errorf("GetOverflowPolicy() = %q, want clamp", cfg.GetOverflowPolicy())
	}
	if cfg.GetLabelSizePolicy() != LabelSizeTruncate {
		t.Errorf("GetLabelSizePolicy() = %q, want truncate", cfg.GetLabelSizePolicy())
	}
	if cfg.GetHistoryDB() != "runs.db" {
		t.Errorf("GetHistoryDB() = %q, want runs.db", cfg.GetHistoryDB())
	}
	if !cfg.GetReportHTML() || cfg.GetReportPNG() {
		t.Errorf("unexpected report flags html=%v png=%v", cfg.GetReportHTML(), cfg.GetReportPNG())
	}
	// Unset fields fall back to defaults.
	if cfg.GetDefinitionsPath() != DefaultDefinitionsPath {
		t.Errorf("GetDefinitionsPath() = %q, want default", cfg.GetDefinitionsPath())
	}
}

func TestLoadRelabelConfigMissing(t *testing.T) {
	if _, err := LoadRelabelConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file, got nil")
	}
}

func TestLoadRelabelConfigInvalidJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(configPath, []byte(`{"remap_strategy": `), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	if _, err := LoadRelabelConfig(configPath); err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestLoadRelabelConfigRejectsNonJSON(t *testing.T) {
	if _, err := LoadRelabelConfig("/some/path/relabel.yaml"); err == nil {
		t.Error("Expected error for non-.json extension, got nil")
	}
}

func TestLoadRelabelConfigRejectsLargeFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "large.json")
	if err := os.WriteFile(configPath, make([]byte, 2*1024*1024), 0644); err != nil {
		t.Fatalf("Failed to write large file: %v", err)
	}
	if _, err := LoadRelabelConfig(configPath); err == nil {
		t.Error("Expected error for file size > 1MB, got nil")
	}
}

func TestRelabelValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *RelabelConfig
		wantErr bool
	}{
		{name: "empty config is valid", cfg: &RelabelConfig{}},
		{name: "identity strategy", cfg: &RelabelConfig{RemapStrategy: ptrString(StrategyIdentity)}},
		{
			name:    "unknown strategy",
			cfg:     &RelabelConfig{RemapStrategy: ptrString("lookup")},
			wantErr: true,
		},
		{
			name:    "array strategy without array",
			cfg:     &RelabelConfig{RemapStrategy: ptrString(StrategyArray)},
			wantErr: true,
		},
		{
			name:    "array too long",
			cfg:     &RelabelConfig{RemapStrategy: ptrString(StrategyArray), RemapArray: make([]uint32, 257)},
			wantErr: true,
		},
		{
			name: "array strategy with array",
			cfg:  &RelabelConfig{RemapStrategy: ptrString(StrategyArray), RemapArray: []uint32{0, 2, 1}},
		},
		{
			name:    "array with default strategy",
			cfg:     &RelabelConfig{RemapArray: []uint32{0, 2, 1}},
			wantErr: true,
		},
		{
			name:    "array with identity strategy",
			cfg:     &RelabelConfig{RemapStrategy: ptrString(StrategyIdentity), RemapArray: []uint32{0, 2, 1}},
			wantErr: true,
		},
		{
			name:    "bad unmapped policy",
			cfg:     &RelabelConfig{UnmappedPolicy: ptrString("ignore")},
			wantErr: true,
		},
		{
			name:    "bad overflow policy",
			cfg:     &RelabelConfig{OverflowPolicy: ptrString("wrap")},
			wantErr: true,
		},
		{
			name:    "bad label size policy",
			cfg:     &RelabelConfig{LabelSizePolicy: ptrString("pad")},
			wantErr: true,
		},
		{
			name:    "report without directory",
			cfg:     &RelabelConfig{ReportPNG: ptrBool(true)},
			wantErr: true,
		},
		{
			name: "report with directory",
			cfg:  &RelabelConfig{ReportPNG: ptrBool(true), ReportDir: ptrString("out")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
