// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/iwvelando/invoice-roi/pkg/constants"
	"github.com/iwvelando/invoice-roi/pkg/roi"
	"github.com/iwvelando/invoice-roi/pkg/validation"
)

// Configuration holds all configuration for invoice-roi.
type Configuration struct {
	Inputs  InputsConfig  `yaml:"inputs" mapstructure:"inputs"`
	Logging LoggingConfig `yaml:"logging,omitempty" mapstructure:"logging"`
	Output  OutputConfig  `yaml:"output,omitempty" mapstructure:"output"`
	Store   StoreConfig   `yaml:"store,omitempty" mapstructure:"store"`
	Report  ReportConfig  `yaml:"report,omitempty" mapstructure:"report"`
	Export  ExportConfig  `yaml:"export,omitempty" mapstructure:"export"`
}

// InputsConfig holds the projection parameters. When ErrorRatesInPercent is
// set, the two error rates are read as percentages (0-100).
type InputsConfig struct {
	InvoiceVolume           float64 `yaml:"invoiceVolume" mapstructure:"invoiceVolume"`
	StaffCount              float64 `yaml:"staffCount" mapstructure:"staffCount"`
	HourlyWage              float64 `yaml:"hourlyWage" mapstructure:"hourlyWage"`
	HoursPerInvoice         float64 `yaml:"hoursPerInvoice" mapstructure:"hoursPerInvoice"`
	ManualErrorRate         float64 `yaml:"manualErrorRate" mapstructure:"manualErrorRate"`
	AutoErrorRate           float64 `yaml:"autoErrorRate" mapstructure:"autoErrorRate"`
	ErrorCost               float64 `yaml:"errorCost" mapstructure:"errorCost"`
	AutomatedCostPerInvoice float64 `yaml:"automatedCostPerInvoice" mapstructure:"automatedCostPerInvoice"`
	ImplementationCost      float64 `yaml:"implementationCost" mapstructure:"implementationCost"`
	TimeHorizonMonths       float64 `yaml:"timeHorizonMonths" mapstructure:"timeHorizonMonths"`
	ErrorRatesInPercent     bool    `yaml:"errorRatesInPercent,omitempty" mapstructure:"errorRatesInPercent"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json, yaml
}

// StoreConfig selects and configures the scenario store.
type StoreConfig struct {
	Backend  string         `yaml:"backend,omitempty" mapstructure:"backend"` // memory, postgres, redis
	Memory   MemoryConfig   `yaml:"memory,omitempty" mapstructure:"memory"`
	Postgres PostgresConfig `yaml:"postgres,omitempty" mapstructure:"postgres"`
	Redis    RedisConfig    `yaml:"redis,omitempty" mapstructure:"redis"`
}

// MemoryConfig bounds the in-memory store. Zero keeps every record.
type MemoryConfig struct {
	MaxRecords int `yaml:"maxRecords,omitempty" mapstructure:"maxRecords"`
}

// PostgresConfig configures the PostgreSQL store. URL falls back to the
// DATABASE_URL environment variable.
type PostgresConfig struct {
	URL          string `yaml:"url,omitempty" mapstructure:"url"`
	Table        string `yaml:"table,omitempty" mapstructure:"table"`
	EnsureSchema bool   `yaml:"ensureSchema,omitempty" mapstructure:"ensureSchema"`
}

// RedisConfig configures the Redis store.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty" mapstructure:"addr"`
	Password string `yaml:"password,omitempty" mapstructure:"password"`
	DB       int    `yaml:"db,omitempty" mapstructure:"db"`
	Prefix   string `yaml:"prefix,omitempty" mapstructure:"prefix"`
}

// ReportConfig holds report layout options.
type ReportConfig struct {
	LinesPerPage int    `yaml:"linesPerPage,omitempty" mapstructure:"linesPerPage"`
	Format       string `yaml:"format,omitempty" mapstructure:"format"` // markdown, html, text
}

// ExportConfig selects where rendered reports are delivered.
type ExportConfig struct {
	Backend string      `yaml:"backend,omitempty" mapstructure:"backend"` // none, dir, minio
	Dir     string      `yaml:"dir,omitempty" mapstructure:"dir"`
	Minio   MinioConfig `yaml:"minio,omitempty" mapstructure:"minio"`
}

// MinioConfig configures the MinIO report exporter.
type MinioConfig struct {
	Endpoint   string `yaml:"endpoint,omitempty" mapstructure:"endpoint"`
	AccessKey  string `yaml:"accessKey,omitempty" mapstructure:"accessKey"`
	SecretKey  string `yaml:"secretKey,omitempty" mapstructure:"secretKey"`
	Bucket     string `yaml:"bucket,omitempty" mapstructure:"bucket"`
	Region     string `yaml:"region,omitempty" mapstructure:"region"`
	UseSSL     bool   `yaml:"useSSL,omitempty" mapstructure:"useSSL"`
	ExpireDays int    `yaml:"expireDays,omitempty" mapstructure:"expireDays"`
}

// LoadDotEnv loads environment variables from the given .env files. Missing
// files are skipped; variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}
	return nil
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("store.backend", constants.StoreBackendMemory)
	v.SetDefault("store.postgres.table", "scenarios")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.prefix", constants.DefaultRedisPrefix)
	v.SetDefault("report.linesPerPage", constants.DefaultLinesPerPage)
	v.SetDefault("report.format", constants.ReportFormatMarkdown)
	v.SetDefault("export.backend", constants.ExportBackendNone)
	v.SetDefault("export.minio.accessKey", "")
	v.SetDefault("export.minio.secretKey", "")
	v.SetDefault("export.minio.expireDays", constants.DefaultExportExpireDays)

	// Supabase and most hosted Postgres providers hand out DATABASE_URL.
	_ = v.BindEnv("store.postgres.url", constants.EnvPrefix+"_STORE_POSTGRES_URL", "DATABASE_URL")
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// ProjectionInputs converts the configured parameters into engine inputs,
// scaling percentage error rates to ratios when configured to.
func (c InputsConfig) ProjectionInputs() roi.Inputs {
	in := roi.Inputs{
		InvoiceVolume:           c.InvoiceVolume,
		StaffCount:              c.StaffCount,
		HourlyWage:              c.HourlyWage,
		HoursPerInvoice:         c.HoursPerInvoice,
		ManualErrorRate:         c.ManualErrorRate,
		AutoErrorRate:           c.AutoErrorRate,
		ErrorCost:               c.ErrorCost,
		AutomatedCostPerInvoice: c.AutomatedCostPerInvoice,
		ImplementationCost:      c.ImplementationCost,
		TimeHorizonMonths:       c.TimeHorizonMonths,
	}
	if c.ErrorRatesInPercent {
		return roi.FromPercentRates(in)
	}
	return in
}

// Validate rejects configuration that cannot be run: unknown formats or
// backends and projection inputs that fail boundary validation.
func (c *Configuration) Validate() error {
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return err
	}
	if err := validation.ValidateReportFormat(c.Report.Format); err != nil {
		return err
	}

	switch c.Store.Backend {
	case constants.StoreBackendMemory, constants.StoreBackendRedis:
	case constants.StoreBackendPostgres:
		if c.Store.Postgres.URL == "" {
			return fmt.Errorf("store backend %s requires store.postgres.url or DATABASE_URL", c.Store.Backend)
		}
	default:
		return fmt.Errorf("unsupported store backend %q", c.Store.Backend)
	}

	switch c.Export.Backend {
	case constants.ExportBackendNone:
	case constants.ExportBackendDir:
		if c.Export.Dir == "" {
			return fmt.Errorf("export backend %s requires export.dir", c.Export.Backend)
		}
	case constants.ExportBackendMinio:
		if c.Export.Minio.Endpoint == "" || c.Export.Minio.Bucket == "" {
			return fmt.Errorf("export backend %s requires export.minio.endpoint and export.minio.bucket", c.Export.Backend)
		}
	default:
		return fmt.Errorf("unsupported export backend %q", c.Export.Backend)
	}

	if c.Inputs.ErrorRatesInPercent {
		if err := validation.ValidatePercentRates(c.Inputs.ManualErrorRate, c.Inputs.AutoErrorRate); err != nil {
			return err
		}
	}
	return validation.ValidateInputs(c.Inputs.ProjectionInputs())
}

// ValidateConfiguration performs general validation of the inputs and
// returns warnings about projections that will read oddly.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string
	in := c.Inputs.ProjectionInputs()

	if in.AutoErrorRate > in.ManualErrorRate {
		warnings = append(warnings, fmt.Sprintf(
			"Automated error rate (%v) exceeds manual error rate (%v) - error savings will be negative",
			in.AutoErrorRate, in.ManualErrorRate))
	}
	if in.ImplementationCost == 0 {
		warnings = append(warnings, "Implementation cost is zero - ROI percentage and payback period are reported as 0")
	}
	if in.TimeHorizonMonths != math.Trunc(in.TimeHorizonMonths) {
		warnings = append(warnings, fmt.Sprintf("Time horizon %v is not a whole number of months", in.TimeHorizonMonths))
	}
	if !c.Inputs.ErrorRatesInPercent && (in.ManualErrorRate > 1 || in.AutoErrorRate > 1) {
		warnings = append(warnings, "Error rates above 1 look like percentages - set inputs.errorRatesInPercent")
	}

	return warnings
}
