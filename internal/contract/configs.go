package contract

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/defectlab/defectscan/schema"
	"github.com/dustin/go-humanize"
)

// Default values for configuration.
const (
	DefaultResultLimit    = 25
	MaxResultLimit        = 1000
	DefaultPrecision      = 2
	DefaultThreshold      = 0.5
	DefaultTrees          = 200
	MaxTrees              = 2000
	DefaultPort           = 8080
	DefaultRateLimit      = 60
	DefaultMaxUpload      = "1MiB"
	DefaultModelPath      = "defect_model.bin"
	DefaultDataDir        = "data"
	DefaultBurstMultiple  = 2
	DefaultShutdownWaitMs = 5000
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for analysis, training and serving.
// This struct remains the "final, validated" config.
type Config struct {
	Paths       []string // positional file/directory inputs
	ModelPath   string
	DataDir     string
	ResultLimit int
	Workers     int
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Excludes    []string
	Threshold   float64 // defect probability gate for the check command

	Trees      int    // forest size for training
	ReportFile string // optional HTML training report
	ExportFile string // optional Parquet export prefix

	RunBackend   schema.DatabaseBackend
	RunDBConnect string // Please use env var as this is plaintext

	Port            int
	CORSOrigins     []string
	RateLimitPerMin int
	MaxUploadBytes  int64

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	PathArgs []string

	// --- Fields from rootCmd.PersistentFlags() ---
	Limit        int    `mapstructure:"limit"`
	Workers      int    `mapstructure:"workers"`
	Precision    int    `mapstructure:"precision"`
	Output       string `mapstructure:"output"`
	OutputFile   string `mapstructure:"output-file"`
	Exclude      string `mapstructure:"exclude"`
	Model        string `mapstructure:"model"`
	RunBackend   string `mapstructure:"run-backend"`
	RunDBConnect string `mapstructure:"run-db-connect"`
	Emoji        string `mapstructure:"emoji"`
	Color        string `mapstructure:"color"`

	// --- Fields from trainCmd.Flags() ---
	DataDir string `mapstructure:"data-dir"`
	Trees   int    `mapstructure:"trees"`
	Report  string `mapstructure:"report"`
	Export  string `mapstructure:"export"`

	// --- Fields from checkCmd.Flags() ---
	Threshold float64 `mapstructure:"threshold"`

	// --- Fields from serveCmd.Flags() ---
	Port      int    `mapstructure:"port"`
	Origins   string `mapstructure:"origins"`
	RateLimit int    `mapstructure:"rate-limit"`
	MaxUpload string `mapstructure:"max-upload"`
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	// All validation functions read from 'input' and populate 'cfg'.
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateTrainInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	if err := validateServerInputs(cfg, input); err != nil {
		return err
	}
	cfg.Paths = input.PathArgs
	return nil
}

// validateSimpleInputs processes and validates all non-server fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.ModelPath = input.Model
	if cfg.ModelPath == "" {
		cfg.ModelPath = DefaultModelPath
	}

	// Parse emoji flag
	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. ResultLimit Validation ---
	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 4 {
		return fmt.Errorf("precision must be between 1 and 4 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", cfg.Output)
	}

	// --- 4. Threshold Validation ---
	if input.Threshold < 0.0 || input.Threshold > 1.0 {
		return fmt.Errorf("threshold must be between 0.0 and 1.0 (received %.2f)", input.Threshold)
	}
	cfg.Threshold = input.Threshold

	// --- 5. Excludes Processing ---
	defaults := []string{
		".git/", "node_modules/", "vendor/", "dist/", "build/", "out/", "target/", "bin/",
		"Cargo.lock", "go.sum", "package-lock.json", "yarn.lock", "pnpm-lock.yaml", "composer.lock", "uv.lock",
		".min.js", ".min.css",
		".jpg", ".jpeg", ".png", ".gif", ".svg", ".ico", ".mp4", ".mov", ".webm", ".mp3", ".ogg", ".pdf", ".webp",
		".zip", ".gz", ".tar", ".exe", ".dll", ".so", ".dylib", ".bin",
		".DS_Store",
	}
	cfg.Excludes = defaults // Set defaults first

	if input.Exclude != "" {
		parts := strings.SplitSeq(input.Exclude, ",")
		for p := range parts {
			trimmedP := strings.TrimSpace(p)
			if trimmedP != "" {
				cfg.Excludes = append(cfg.Excludes, trimmedP)
			}
		}
	}

	return nil
}

// validateTrainInputs processes the training-related fields.
func validateTrainInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.DataDir = input.DataDir
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}

	if input.Trees <= 0 || input.Trees > MaxTrees {
		return fmt.Errorf("trees must be greater than 0 and cannot exceed %d (received %d)", MaxTrees, input.Trees)
	}
	cfg.Trees = input.Trees

	cfg.ReportFile = input.Report
	cfg.ExportFile = input.Export
	return nil
}

// validateBackendConfig validates the run-store backend configuration.
// An empty backend disables run tracking entirely.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.RunBackend = schema.DatabaseBackend(strings.ToLower(input.RunBackend))
	if cfg.RunBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.RunBackend]; !ok {
		return fmt.Errorf("invalid run backend '%s'. must be sqlite, mysql, postgresql, none", input.RunBackend)
	}
	cfg.RunDBConnect = input.RunDBConnect
	return ValidateDatabaseConnectionString(cfg.RunBackend, cfg.RunDBConnect)
}

// validateServerInputs processes and validates the HTTP server fields.
func validateServerInputs(cfg *Config, input *ConfigRawInput) error {
	if input.Port < 1 || input.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535 (received %d)", input.Port)
	}
	cfg.Port = input.Port

	if input.RateLimit <= 0 {
		return fmt.Errorf("rate-limit must be greater than 0 (received %d)", input.RateLimit)
	}
	cfg.RateLimitPerMin = input.RateLimit

	maxUpload, err := humanize.ParseBytes(input.MaxUpload)
	if err != nil {
		return fmt.Errorf("invalid max-upload value '%s': %w", input.MaxUpload, err)
	}
	if maxUpload == 0 {
		return fmt.Errorf("max-upload must be greater than 0")
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	cfg.CORSOrigins = nil
	for origin := range strings.SplitSeq(input.Origins, ",") {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, trimmed)
		}
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("run-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("run-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Paths != nil {
		clone.Paths = make([]string, len(c.Paths))
		copy(clone.Paths, c.Paths)
	}
	if c.Excludes != nil {
		clone.Excludes = make([]string, len(c.Excludes))
		copy(clone.Excludes, c.Excludes)
	}
	if c.CORSOrigins != nil {
		clone.CORSOrigins = make([]string, len(c.CORSOrigins))
		copy(clone.CORSOrigins, c.CORSOrigins)
	}
	return &clone
}
