// Package config loads and validates the YAML configuration document
// that tunes ZOON's encode heuristics and the directory-ingestion
// manager's file selection.
package config

import (
	stdlibErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueErrors "cuelang.org/go/cue/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/zoon-format/zoon"
)

// Config holds the tunables loaded from a zoon.yml document.
type Config struct {
	Encode EncodeConfig `yaml:"encode"`
	Files  FilesConfig  `yaml:"files"`
}

// EncodeConfig mirrors the 'encode' section of zoon.yml and maps
// directly onto zoon.EncodeOptions.
type EncodeConfig struct {
	EnumMaxUnique           int     `yaml:"enum_max_unique" cue:"enum_max_unique"`
	EnumMaxRatioDenominator int     `yaml:"enum_max_ratio_denominator" cue:"enum_max_ratio_denominator"`
	TextThreshold           float64 `yaml:"text_threshold" cue:"text_threshold"`
	MaxAliases              int     `yaml:"max_aliases" cue:"max_aliases"`
	LogLevel                string  `yaml:"log_level" cue:"log_level"`
}

// ToOptions converts the loaded configuration into zoon.EncodeOptions.
func (e EncodeConfig) ToOptions() zoon.EncodeOptions {
	return zoon.EncodeOptions{
		EnumMaxUnique:           e.EnumMaxUnique,
		EnumMaxRatioDenominator: e.EnumMaxRatioDenominator,
		TextThreshold:           e.TextThreshold,
		MaxAliases:              e.MaxAliases,
	}
}

// BuildLogger returns a *slog.Logger at the level named by LogLevel
// ("debug", "info", "warn", "error"; unrecognized or empty values fall
// back to "info"), writing JSON-formatted records to w. Pass the
// result to util.SetLogger or util.WithLogger to see the
// schema-inference diagnostics EncodeContext/DecodeContext emit.
func (e EncodeConfig) BuildLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(e.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// FilesConfig matches the 'files' section of zoon.yml: doublestar glob
// patterns used by the directory-ingestion manager (internal/ingest).
type FilesConfig struct {
	Include []string `yaml:"include" cue:"include"`
	Exclude []string `yaml:"exclude" cue:"exclude"`
}

// ErrUnknownField wraps a CUE unification error caused by a field the
// schema does not recognize.
type ErrUnknownField struct {
	Err error
}

func (e *ErrUnknownField) Error() string {
	return fmt.Sprintf("unknown field in configuration: %v", e.Err)
}

func (e *ErrUnknownField) Unwrap() error {
	return e.Err
}

// DefaultConfigPath is the conventional location of the config file.
const DefaultConfigPath = "zoon.yml"

// envVarWithDefaultRegex matches "${VAR:=default}" or bare "$VAR"; a
// braced "${VAR}" without a default is not matched.
var envVarWithDefaultRegex = regexp.MustCompile(`\$\{([^:}]+):=([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return path
}

// expandWithDefault expands "${VAR:=default}" and "$VAR" occurrences
// in s against the current environment, recursing so a default value
// may itself reference another variable.
func expandWithDefault(s string) string {
	return envVarWithDefaultRegex.ReplaceAllStringFunc(s, func(match string) string {
		parts := envVarWithDefaultRegex.FindStringSubmatch(match)
		if len(parts) > 2 && parts[1] != "" && parts[2] != "" {
			varName, defaultValue := parts[1], parts[2]
			if value, exists := os.LookupEnv(varName); exists {
				return expandPath(value)
			}
			return expandPath(expandWithDefault(defaultValue))
		}
		if len(parts) > 3 && parts[3] != "" {
			value, _ := os.LookupEnv(parts[3])
			return expandPath(value)
		}
		return expandPath(match)
	})
}

func expandSlice(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = expandWithDefault(v)
	}
	return out
}

// Load reads configPath as YAML, validates it against the embedded CUE
// schema (or cueSchemaPath, if non-empty, instead of the embedded
// default), and expands environment-variable references in
// files.include/files.exclude. If an ".env" file exists alongside
// configPath it is loaded first via godotenv, so expansion can draw on
// project-local variables without requiring them in the shell.
func Load(configPath string, cueSchemaPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	if envPath := filepath.Join(filepath.Dir(configPath), ".env"); fileExists(envPath) {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load .env file %s: %w", envPath, err)
		}
	}

	schemaBytes := embeddedCueSchema
	if cueSchemaPath != "" {
		b, err := os.ReadFile(cueSchemaPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CUE schema file %s: %w", cueSchemaPath, err)
		}
		schemaBytes = b
	}

	yamlData, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(yamlData, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML data from %s: %w", configPath, err)
	}

	ctx := cuecontext.New()
	schemaVal := ctx.CompileBytes(schemaBytes, cue.Filename("config_schema.cue"))
	if err := schemaVal.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile CUE schema: %w", err)
	}

	cueVal := ctx.Encode(cfg)
	if err := cueVal.Err(); err != nil {
		return nil, fmt.Errorf("failed to encode config struct to CUE value: %w", err)
	}

	configDef := schemaVal.LookupPath(cue.ParsePath("#Config"))
	if !configDef.Exists() {
		return nil, fmt.Errorf("#Config definition not found in CUE schema")
	}

	instanceVal := configDef.Unify(cueVal)
	if err := checkCueError(instanceVal.Err(), configPath); err != nil {
		return nil, err
	}
	if err := checkCueError(instanceVal.Validate(cue.Concrete(true)), configPath); err != nil {
		return nil, err
	}

	cfg.Files.Include = expandSlice(cfg.Files.Include)
	cfg.Files.Exclude = expandSlice(cfg.Files.Exclude)

	return &cfg, nil
}

func checkCueError(err error, configPath string) error {
	if err == nil {
		return nil
	}
	var cueErrList cueErrors.Error
	if stdlibErrors.As(err, &cueErrList) {
		for _, single := range cueErrors.Errors(cueErrList) {
			detail := cueErrors.Details(single, nil)
			if strings.Contains(detail, "field not allowed") || strings.Contains(detail, "is not a field in") {
				return &ErrUnknownField{Err: err}
			}
		}
	}
	return fmt.Errorf("CUE validation failed for %s: %w", configPath, err)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GetDefaultConfig returns the EncodeOptions/FilesConfig defaults
// described in spec.md §4.2.1 step 4–5, expressed as a Config.
func GetDefaultConfig() *Config {
	opts := zoon.DefaultEncodeOptions()
	return &Config{
		Encode: EncodeConfig{
			EnumMaxUnique:           opts.EnumMaxUnique,
			EnumMaxRatioDenominator: opts.EnumMaxRatioDenominator,
			TextThreshold:           opts.TextThreshold,
			MaxAliases:              opts.MaxAliases,
			LogLevel:                "info",
		},
		Files: FilesConfig{
			Include: []string{"**/*.csv", "**/*.json", "**/*.jsonl", "**/*.xlsx", "**/*.parquet", "**/*.sqlite"},
			Exclude: []string{".git/**", "node_modules/**"},
		},
	}
}

// WriteDefaultConfig writes the default configuration to configPath
// (DefaultConfigPath if empty).
func WriteDefaultConfig(configPath string) error {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	data, err := yaml.Marshal(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory for config file %s: %w", configPath, err)
		}
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write default config to %s: %w", configPath, err)
	}
	return nil
}
