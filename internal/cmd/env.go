package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/harrison/outcmp/internal/config"
	"github.com/harrison/outcmp/internal/kotlinmeta"
	"github.com/harrison/outcmp/internal/logger"
	"github.com/harrison/outcmp/internal/render"
)

// environment is the configuration and logging shared by subcommands.
type environment struct {
	cfg     *config.Config
	home    string
	log     logger.Logger
	fileLog *logger.FileLogger
}

// loadEnvironment loads the configuration of the current home directory,
// applies flag overrides and sets up console and run-file logging.
func loadEnvironment(out io.Writer, overrides config.FlagOverrides) (*environment, error) {
	cfg, home, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.MergeWithFlags(overrides)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	env := &environment{cfg: cfg, home: home}
	console := logger.NewConsoleLogger(out, cfg.LogLevel)
	env.log = console

	if cfg.LogDir != "" {
		fileLog, err := logger.NewFileLoggerWithDirAndLevel(env.path(cfg.LogDir), cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		env.fileLog = fileLog
		env.log = logger.MultiLogger{console, fileLog}
	}
	return env, nil
}

// path resolves a configured path against the project directory.
func (e *environment) path(p string) string {
	return config.ResolvePath(e.home, p)
}

func (e *environment) Close() error {
	if e.fileLog != nil {
		return e.fileLog.Close()
	}
	return nil
}

// newRenderer builds the content renderer described by cfg.
func newRenderer(cfg *config.Config) (*render.Renderer, error) {
	version, err := kotlinmeta.ParseVersion(cfg.MetadataVersion)
	if err != nil {
		return nil, fmt.Errorf("metadata_version: %w", err)
	}

	r := render.NewRenderer()
	r.ClassExtensions = cfg.ClassExtensions
	r.Metadata = kotlinmeta.NewDecoder(version)
	if cfg.Disassembler == "javap" {
		javap := render.NewJavapDisassembler()
		javap.Path = cfg.JavapPath
		javap.Timeout = cfg.JavapTimeout
		r.Disassembler = javap
	}
	return r, nil
}

// parseNormalizeRules parses "pattern=replace" flag values. The pattern ends
// at the first "=".
func parseNormalizeRules(values []string) ([]config.NormalizeRule, error) {
	rules := make([]config.NormalizeRule, 0, len(values))
	for _, v := range values {
		pattern, replace, ok := strings.Cut(v, "=")
		if !ok || pattern == "" {
			return nil, fmt.Errorf("invalid --normalize value %q, expected pattern=replace", v)
		}
		rules = append(rules, config.NormalizeRule{Pattern: pattern, Replace: replace})
	}
	return rules, nil
}
