// Package constants provides shared constants for the qslp-calculator application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// 2025 IRS elective deferral limits and plan assumptions
const (
	// StandardContributionLimit is the annual cap for participants under the catch-up age
	StandardContributionLimit = 23500.0

	// CatchUpContributionLimit is the annual cap including catch-up contributions
	CatchUpContributionLimit = 31000.0

	// CatchUpAge is the age at which catch-up contributions become available
	CatchUpAge = 50

	// RetirementAge is the horizon used by the growth projection
	RetirementAge = 65

	// DefaultAnnualReturn is the assumed annual return for projections
	DefaultAnnualReturn = 0.07

	// MinimumAge is the youngest age the calculator accepts
	MinimumAge = 22

	// MaximumAge is the oldest age the calculator accepts; the form uses it for "65+"
	MaximumAge = 70

	// DefaultAge is the age the wizard starts with
	DefaultAge = 25

	// ProjectionYears is the length of the year-by-year growth series
	ProjectionYears = 30
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

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// EnvPrefix is the prefix for environment variable overrides
	EnvPrefix = "QSLP"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the web UI
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (64 KB)
	DefaultMaxUploadSizeBytes int64 = 64 * 1024

	// DefaultRequestsPerSecond is the default per-client request rate
	DefaultRequestsPerSecond = 10.0

	// DefaultRequestBurst is the default per-client burst size
	DefaultRequestBurst = 20
)

// Session store constants
const (
	// SessionBackendMemory keeps wizard sessions in process memory
	SessionBackendMemory = "memory"

	// SessionBackendRedis keeps wizard sessions in Redis
	SessionBackendRedis = "redis"

	// DefaultSessionTTL is how long an idle wizard session survives
	DefaultSessionTTL = "30m"

	// DefaultRedisKeyPrefix namespaces wizard sessions in Redis
	DefaultRedisKeyPrefix = "qslp:wizard:"
)
