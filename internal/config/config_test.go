package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.Disassembler != "builtin" {
		t.Errorf("Disassembler = %q, want builtin", cfg.Disassembler)
	}
	if cfg.JavapTimeout != 30*time.Second {
		t.Errorf("JavapTimeout = %v, want 30s", cfg.JavapTimeout)
	}
	if cfg.MetadataVersion != "2.1.0" {
		t.Errorf("MetadataVersion = %q, want 2.1.0", cfg.MetadataVersion)
	}
	if !reflect.DeepEqual(cfg.ClassExtensions, []string{".class"}) {
		t.Errorf("ClassExtensions = %v, want [.class]", cfg.ClassExtensions)
	}
	if cfg.FullDump || cfg.ForgiveExtraFiles {
		t.Error("FullDump and ForgiveExtraFiles should default to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

// TestLoadConfigValidFile tests loading a valid YAML config file
func TestLoadConfigValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `log_level: debug
log_dir: /tmp/outcmp-logs
full_dump: true
forgive_extra_files: true
class_extensions: [".class", ".klass"]
exclude_dirs: ["tmp"]
disassembler: javap
javap_path: /opt/jdk/bin/javap
javap_timeout: 45s
metadata_version: 2.0.0
normalize:
  - pattern: 'kotlin_version=\S+'
    replace: 'kotlin_version=<v>'
report_dir: /tmp/reports
history_db: /tmp/history.db
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	want := &Config{
		LogLevel:          "debug",
		LogDir:            "/tmp/outcmp-logs",
		FullDump:          true,
		ForgiveExtraFiles: true,
		ClassExtensions:   []string{".class", ".klass"},
		ExcludeDirs:       []string{"tmp"},
		Disassembler:      "javap",
		JavapPath:         "/opt/jdk/bin/javap",
		JavapTimeout:      45 * time.Second,
		MetadataVersion:   "2.0.0",
		Normalize:         []NormalizeRule{{Pattern: `kotlin_version=\S+`, Replace: "kotlin_version=<v>"}},
		ReportDir:         "/tmp/reports",
		HistoryDB:         "/tmp/history.db",
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("LoadConfig() = %+v, want %+v", cfg, want)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

// TestLoadConfigPartialFile verifies unset keys keep their defaults
func TestLoadConfigPartialFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("log_level: warn\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	want := DefaultConfig()
	want.LogLevel = "warn"
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("LoadConfig() = %+v, want %+v", cfg, want)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("missing file should yield defaults, got %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"malformed yaml", "log_level: [unclosed", "failed to parse config file"},
		{"bad duration", "javap_timeout: soon\n", "invalid javap_timeout format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadConfig(configPath)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Normalize = []NormalizeRule{{Pattern: "a", Replace: "b"}}
	cfg.ExcludeDirs = []string{"tmp"}

	level := "debug"
	full := true
	forgive := false
	dis := "javap"
	reports := "/tmp/r"
	cfg.MergeWithFlags(FlagOverrides{
		LogLevel:          &level,
		FullDump:          &full,
		ForgiveExtraFiles: &forgive,
		Disassembler:      &dis,
		ExcludeDirs:       []string{".gradle"},
		Normalize:         []NormalizeRule{{Pattern: "c", Replace: "d"}},
		ReportDir:         &reports,
	})

	if cfg.LogLevel != "debug" || !cfg.FullDump || cfg.ForgiveExtraFiles || cfg.Disassembler != "javap" || cfg.ReportDir != "/tmp/r" {
		t.Errorf("flags not merged: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.ExcludeDirs, []string{"tmp", ".gradle"}) {
		t.Errorf("ExcludeDirs = %v", cfg.ExcludeDirs)
	}
	if len(cfg.Normalize) != 2 || cfg.Normalize[1].Pattern != "c" {
		t.Errorf("Normalize = %v", cfg.Normalize)
	}

	before := *cfg
	cfg.MergeWithFlags(FlagOverrides{})
	if !reflect.DeepEqual(*cfg, before) {
		t.Error("empty overrides should not change the config")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "invalid log_level"},
		{"bad disassembler", func(c *Config) { c.Disassembler = "procyon" }, "invalid disassembler"},
		{"javap without path", func(c *Config) { c.Disassembler = "javap"; c.JavapPath = "" }, "javap_path cannot be empty"},
		{"negative timeout", func(c *Config) { c.JavapTimeout = -time.Second }, "javap_timeout must be >= 0"},
		{"no class extensions", func(c *Config) { c.ClassExtensions = nil }, "class_extensions cannot be empty"},
		{"empty pattern", func(c *Config) { c.Normalize = []NormalizeRule{{Replace: "x"}} }, "pattern cannot be empty"},
		{"bad pattern", func(c *Config) { c.Normalize = []NormalizeRule{{Pattern: "("}} }, "invalid pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeTransform(t *testing.T) {
	cfg := DefaultConfig()
	fn, err := cfg.NormalizeTransform()
	if err != nil || fn != nil {
		t.Fatalf("no rules should give a nil transform, got %v, %v", fn != nil, err)
	}

	cfg.Normalize = []NormalizeRule{
		{Pattern: `(Greeter\.class) \d+`, Replace: "$1 <crc>"},
		{Pattern: `build-\d+`, Replace: "build-N"},
	}
	fn, err = cfg.NormalizeTransform()
	if err != nil {
		t.Fatalf("NormalizeTransform() error = %v", err)
	}
	e, a := fn("    Greeter.class 12\nbuild-1\n", "    Greeter.class 34\nbuild-2\n")
	if e != a || e != "    Greeter.class <crc>\nbuild-N\n" {
		t.Errorf("transform = %q, %q", e, a)
	}

	cfg.Normalize = []NormalizeRule{{Pattern: "("}}
	if _, err := cfg.NormalizeTransform(); err == nil {
		t.Error("expected error for invalid pattern")
	}
}
