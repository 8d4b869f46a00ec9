// Package constants provides shared constants for the invoice-roi application.
package constants

// DateLayout is the date format used in report headers and filenames.
const DateLayout = "2006-01-02"

// Projection constants
const (
	// BiasFactor inflates the projected monthly savings. It is a deliberate
	// optimism bias built into the model, not a statistical adjustment.
	BiasFactor = 1.15

	// MinTimeHorizonMonths is the shortest accepted projection window.
	MinTimeHorizonMonths = 1

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"

	// OutputFormatYAML is the YAML output format
	OutputFormatYAML = "yaml"
)

// Report format constants
const (
	ReportFormatMarkdown = "markdown"
	ReportFormatHTML     = "html"
	ReportFormatText     = "text"

	// DefaultLinesPerPage is the number of body lines laid onto one report page.
	DefaultLinesPerPage = 30
)

// Scenario store backends
const (
	StoreBackendMemory   = "memory"
	StoreBackendPostgres = "postgres"
	StoreBackendRedis    = "redis"

	// DefaultRedisPrefix namespaces all scenario keys in Redis.
	DefaultRedisPrefix = "invoice-roi"
)

// Report export backends
const (
	ExportBackendNone  = "none"
	ExportBackendDir   = "dir"
	ExportBackendMinio = "minio"

	// DefaultExportExpireDays is the lifetime of a presigned report URL.
	DefaultExportExpireDays = 7
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment overrides read by viper.
	EnvPrefix = "INVOICE_ROI"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024
)
