package contract

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/classdrift/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit = 25
	MaxResultLimit     = 10000
	DefaultPrecision   = 1
)

// DefaultWorkers is the default number of concurrent class decoders.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Default namespace prefixes and ignored dependencies.
var (
	DefaultIOPrefixes      = []string{"java.io.", "java.nio.", "java.net.", "java.sql."}
	DefaultGUIPrefixes     = []string{"java.awt.", "javax.swing.", "org.eclipse.swt.", "javafx."}
	DefaultUtilityPrefixes = []string{"java.util."}
	DefaultIgnoredDeps     = []string{
		schema.RootObjectType, "java.lang.String",
		"java.lang.Boolean", "java.lang.Byte", "java.lang.Character", "java.lang.Short",
		"java.lang.Integer", "java.lang.Long", "java.lang.Float", "java.lang.Double",
		"java.lang.Void", "java.lang.Number",
	}
)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// AnalysisSettings holds the namespace settings used by the parser and graph engine.
type AnalysisSettings struct {
	IOPrefixes          []string
	GUIPrefixes         []string
	UtilityPrefixes     []string
	IgnoredDependencies map[string]struct{}
}

// DefaultAnalysisSettings returns the built-in namespace settings.
func DefaultAnalysisSettings() AnalysisSettings {
	ignored := make(map[string]struct{}, len(DefaultIgnoredDeps))
	for _, d := range DefaultIgnoredDeps {
		ignored[d] = struct{}{}
	}
	return AnalysisSettings{
		IOPrefixes:          slices.Clone(DefaultIOPrefixes),
		GUIPrefixes:         slices.Clone(DefaultGUIPrefixes),
		UtilityPrefixes:     slices.Clone(DefaultUtilityPrefixes),
		IgnoredDependencies: ignored,
	}
}

// IsIgnored reports whether a dependency is in the ignored set.
func (s AnalysisSettings) IsIgnored(name string) bool {
	_, ok := s.IgnoredDependencies[name]
	return ok
}

// Config holds the runtime configuration.
// This struct remains the "final, validated" config.
type Config struct {
	System         string // positional system key for report commands
	DescriptorPath string // positional descriptor path for extract/run

	Workers     int
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)
	ResultLimit int
	RSN         int           // 0 = latest release
	SortMetric  schema.Metric // classes report ordering
	ClassName   string        // class report target

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	RunBackend   schema.DatabaseBackend
	RunDBConnect string // Please use env var as this is plaintext

	Analysis AnalysisSettings

	UseEmojis bool // Enable emojis in progress lines
	UseColors bool // Enable colored labels in table output
	Quiet     bool // Suppress progress lines
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// These are set manually from positional args, so no tag
	SystemArg     string
	DescriptorArg string
	ClassArg      string

	// --- Fields from rootCmd.PersistentFlags() ---
	Workers        int    `mapstructure:"workers"`
	Precision      int    `mapstructure:"precision"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Width          int    `mapstructure:"width"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	RunBackend     string `mapstructure:"run-backend"`
	RunDBConnect   string `mapstructure:"run-db-connect"`
	Emoji          string `mapstructure:"emoji"`
	Color          string `mapstructure:"color"`
	Quiet          bool   `mapstructure:"quiet"`

	// --- Fields from report commands ---
	Limit int    `mapstructure:"limit"`
	RSN   int    `mapstructure:"rsn"`
	Sort  string `mapstructure:"sort"`

	// --- Analysis settings (flags or config file) ---
	IOPrefixes      string `mapstructure:"io-prefixes"`
	GUIPrefixes     string `mapstructure:"gui-prefixes"`
	UtilityPrefixes string `mapstructure:"utility-prefixes"`
	IgnoredDeps     string `mapstructure:"ignored-dependencies"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Analysis.IOPrefixes = slices.Clone(c.Analysis.IOPrefixes)
	clone.Analysis.GUIPrefixes = slices.Clone(c.Analysis.GUIPrefixes)
	clone.Analysis.UtilityPrefixes = slices.Clone(c.Analysis.UtilityPrefixes)
	if c.Analysis.IgnoredDependencies != nil {
		clone.Analysis.IgnoredDependencies = make(map[string]struct{}, len(c.Analysis.IgnoredDependencies))
		for k := range c.Analysis.IgnoredDependencies {
			clone.Analysis.IgnoredDependencies[k] = struct{}{}
		}
	}
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return processAnalysisSettings(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a db-connect value is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a db-connect value is required when using %s backend", backend)
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

// validateBackendConfigs validates snapshot and run backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Snapshot Backend Validation ---
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return err
	}

	// --- Run Backend Validation ---
	cfg.RunBackend = schema.DatabaseBackend(strings.ToLower(input.RunBackend))
	if cfg.RunBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.RunBackend]; !ok {
		return fmt.Errorf("invalid run backend '%s'. must be sqlite, mysql, postgresql, none", input.RunBackend)
	}
	cfg.RunDBConnect = input.RunDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunBackend, cfg.RunDBConnect); err != nil {
		return err
	}

	// Separate SQLite files keep run tracking out of the snapshot database
	if cfg.StoreBackend == schema.SQLiteBackend && cfg.RunBackend == schema.SQLiteBackend {
		storePath := cfg.StoreDBConnect
		if storePath == "" {
			storePath = GetStoreDBFilePath()
		}
		runPath := cfg.RunDBConnect
		if runPath == "" {
			runPath = GetRunDBFilePath()
		}
		if storePath == runPath && storePath != ":memory:" {
			return fmt.Errorf("snapshot and run storage must use different SQLite database files. Both resolve to %q", storePath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all non-backend fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.System = strings.TrimSpace(input.SystemArg)
	cfg.DescriptorPath = strings.TrimSpace(input.DescriptorArg)
	cfg.ClassName = strings.TrimSpace(input.ClassArg)
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Quiet = input.Quiet

	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

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

	// --- 3. RSN Validation ---
	if input.RSN < 0 {
		return fmt.Errorf("rsn must be 0 (latest) or a positive release sequence number (received %d)", input.RSN)
	}
	cfg.RSN = input.RSN

	// --- 4. Sort Metric Validation ---
	cfg.SortMetric = schema.Instability
	if input.Sort != "" {
		info, ok := schema.LookupMetric(input.Sort)
		if !ok {
			return fmt.Errorf("unknown sort metric '%s'. run 'classdrift metrics' for the list", input.Sort)
		}
		cfg.SortMetric = info.Name
	}

	// --- 5. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", cfg.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for parquet output")
	}

	return nil
}

// processAnalysisSettings builds the namespace settings, falling back to defaults
// for every list left empty.
func processAnalysisSettings(cfg *Config, input *ConfigRawInput) error {
	settings := DefaultAnalysisSettings()
	if v := SplitList(input.IOPrefixes); len(v) > 0 {
		settings.IOPrefixes = v
	}
	if v := SplitList(input.GUIPrefixes); len(v) > 0 {
		settings.GUIPrefixes = v
	}
	if v := SplitList(input.UtilityPrefixes); len(v) > 0 {
		settings.UtilityPrefixes = v
	}
	if v := SplitList(input.IgnoredDeps); len(v) > 0 {
		settings.IgnoredDependencies = make(map[string]struct{}, len(v))
		for _, d := range v {
			settings.IgnoredDependencies[d] = struct{}{}
		}
	}
	for _, p := range slices.Concat(settings.IOPrefixes, settings.GUIPrefixes, settings.UtilityPrefixes) {
		if strings.ContainsAny(p, "/ ") {
			return fmt.Errorf("namespace prefix %q must be a dotted package prefix", p)
		}
	}
	cfg.Analysis = settings
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
