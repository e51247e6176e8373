package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// NormalizeRule is a regular expression replacement applied to both renders
// before the last comparison step.
type NormalizeRule struct {
	// Pattern is a Go regular expression
	Pattern string `yaml:"pattern"`

	// Replace is the replacement text; $1 style references are expanded
	Replace string `yaml:"replace"`
}

// Config represents outcmp configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir enables run logs in this directory when non-empty
	LogDir string `yaml:"log_dir"`

	// FullDump renders every file, not only the changed ones
	FullDump bool `yaml:"full_dump"`

	// ForgiveExtraFiles tolerates extra files in the actual directory
	ForgiveExtraFiles bool `yaml:"forgive_extra_files"`

	// ClassExtensions are the file suffixes decoded as class files
	ClassExtensions []string `yaml:"class_extensions"`

	// ExcludeDirs are directory names skipped in both trees
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// Disassembler selects the class listing backend (builtin, javap)
	Disassembler string `yaml:"disassembler"`

	// JavapPath is the javap binary used by the javap backend
	JavapPath string `yaml:"javap_path"`

	// JavapTimeout bounds a single javap run
	JavapTimeout time.Duration `yaml:"javap_timeout"`

	// MetadataVersion is the newest Kotlin metadata version accepted
	MetadataVersion string `yaml:"metadata_version"`

	// Normalize lists the replacements forming the comparison transform
	Normalize []NormalizeRule `yaml:"normalize"`

	// ReportDir is where mismatch reports are written
	ReportDir string `yaml:"report_dir"`

	// HistoryDB is the sqlite database recording comparison runs
	HistoryDB string `yaml:"history_db"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel:          "info",
		LogDir:            "",
		FullDump:          false,
		ForgiveExtraFiles: false,
		ClassExtensions:   []string{".class"},
		ExcludeDirs:       []string{},
		Disassembler:      "builtin",
		JavapPath:         "javap",
		JavapTimeout:      30 * time.Second,
		MetadataVersion:   "2.1.0",
		Normalize:         []NormalizeRule{},
		ReportDir:         filepath.Join(".outcmp", "reports"),
		HistoryDB:         filepath.Join(".outcmp", "history.db"),
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations are read as strings so "45s" style values work
	type yamlConfig struct {
		LogLevel          string          `yaml:"log_level"`
		LogDir            string          `yaml:"log_dir"`
		FullDump          bool            `yaml:"full_dump"`
		ForgiveExtraFiles bool            `yaml:"forgive_extra_files"`
		ClassExtensions   []string        `yaml:"class_extensions"`
		ExcludeDirs       []string        `yaml:"exclude_dirs"`
		Disassembler      string          `yaml:"disassembler"`
		JavapPath         string          `yaml:"javap_path"`
		JavapTimeout      string          `yaml:"javap_timeout"`
		MetadataVersion   string          `yaml:"metadata_version"`
		Normalize         []NormalizeRule `yaml:"normalize"`
		ReportDir         string          `yaml:"report_dir"`
		HistoryDB         string          `yaml:"history_db"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Booleans and lists only override defaults when present in the file
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	present := func(key string) bool {
		_, ok := rawMap[key]
		return ok
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if present("full_dump") {
		cfg.FullDump = yamlCfg.FullDump
	}
	if present("forgive_extra_files") {
		cfg.ForgiveExtraFiles = yamlCfg.ForgiveExtraFiles
	}
	if present("class_extensions") {
		cfg.ClassExtensions = yamlCfg.ClassExtensions
	}
	if present("exclude_dirs") {
		cfg.ExcludeDirs = yamlCfg.ExcludeDirs
	}
	if yamlCfg.Disassembler != "" {
		cfg.Disassembler = yamlCfg.Disassembler
	}
	if yamlCfg.JavapPath != "" {
		cfg.JavapPath = yamlCfg.JavapPath
	}
	if yamlCfg.JavapTimeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.JavapTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid javap_timeout format %q: %w", yamlCfg.JavapTimeout, err)
		}
		cfg.JavapTimeout = timeout
	}
	if yamlCfg.MetadataVersion != "" {
		cfg.MetadataVersion = yamlCfg.MetadataVersion
	}
	if present("normalize") {
		cfg.Normalize = yamlCfg.Normalize
	}
	if yamlCfg.ReportDir != "" {
		cfg.ReportDir = yamlCfg.ReportDir
	}
	if yamlCfg.HistoryDB != "" {
		cfg.HistoryDB = yamlCfg.HistoryDB
	}

	return cfg, nil
}

// FlagOverrides holds CLI flag values; nil fields were not set
type FlagOverrides struct {
	LogLevel          *string
	FullDump          *bool
	ForgiveExtraFiles *bool
	Disassembler      *string
	ExcludeDirs       []string
	Normalize         []NormalizeRule
	ReportDir         *string
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values and flag normalize
// rules run after the configured ones
func (c *Config) MergeWithFlags(f FlagOverrides) {
	if f.LogLevel != nil {
		c.LogLevel = *f.LogLevel
	}
	if f.FullDump != nil {
		c.FullDump = *f.FullDump
	}
	if f.ForgiveExtraFiles != nil {
		c.ForgiveExtraFiles = *f.ForgiveExtraFiles
	}
	if f.Disassembler != nil {
		c.Disassembler = *f.Disassembler
	}
	if len(f.ExcludeDirs) > 0 {
		c.ExcludeDirs = append(append([]string{}, c.ExcludeDirs...), f.ExcludeDirs...)
	}
	if len(f.Normalize) > 0 {
		c.Normalize = append(append([]NormalizeRule{}, c.Normalize...), f.Normalize...)
	}
	if f.ReportDir != nil {
		c.ReportDir = *f.ReportDir
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	switch c.Disassembler {
	case "builtin":
	case "javap":
		if c.JavapPath == "" {
			return fmt.Errorf("javap_path cannot be empty when disassembler is javap")
		}
	default:
		return fmt.Errorf("invalid disassembler %q, must be one of: builtin, javap", c.Disassembler)
	}

	if c.JavapTimeout < 0 {
		return fmt.Errorf("javap_timeout must be >= 0, got %v", c.JavapTimeout)
	}

	if len(c.ClassExtensions) == 0 {
		return fmt.Errorf("class_extensions cannot be empty")
	}

	for i, rule := range c.Normalize {
		if rule.Pattern == "" {
			return fmt.Errorf("normalize[%d]: pattern cannot be empty", i)
		}
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return fmt.Errorf("normalize[%d]: invalid pattern %q: %w", i, rule.Pattern, err)
		}
	}

	return nil
}

// NormalizeTransform compiles the normalize rules into a function applied
// to both renders. It returns nil when no rules are configured.
func (c *Config) NormalizeTransform() (func(expected, actual string) (string, string), error) {
	if len(c.Normalize) == 0 {
		return nil, nil
	}

	patterns := make([]*regexp.Regexp, len(c.Normalize))
	for i, rule := range c.Normalize {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("normalize[%d]: invalid pattern %q: %w", i, rule.Pattern, err)
		}
		patterns[i] = re
	}

	apply := func(s string) string {
		for i, re := range patterns {
			s = re.ReplaceAllString(s, c.Normalize[i].Replace)
		}
		return s
	}
	return func(expected, actual string) (string, string) {
		return apply(expected), apply(actual)
	}, nil
}
