// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/qslp-calculator/pkg/constants"
	"github.com/iwvelando/qslp-calculator/pkg/match"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for qslp-calculator.
type Configuration struct {
	Logging     LoggingConfig     `yaml:"logging,omitempty" mapstructure:"logging"`
	Output      OutputConfig      `yaml:"output,omitempty" mapstructure:"output"`
	Server      ServerConfig      `yaml:"server,omitempty" mapstructure:"server"`
	Sessions    SessionConfig     `yaml:"sessions,omitempty" mapstructure:"sessions"`
	Assumptions match.Assumptions `yaml:"assumptions,omitempty" mapstructure:"assumptions"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format     string `yaml:"format,omitempty" mapstructure:"format" validate:"omitempty,oneof=json console"`
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format" validate:"omitempty,oneof=pretty csv json yaml"`
}

// ServerConfig holds runtime parameters for the HTTP server.
type ServerConfig struct {
	Address           string  `yaml:"address,omitempty" mapstructure:"address" validate:"required"`
	MaxUploadSize     string  `yaml:"maxUploadSize,omitempty" mapstructure:"maxUploadSize"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty" mapstructure:"requestsPerSecond" validate:"gte=0"`
	Burst             int     `yaml:"burst,omitempty" mapstructure:"burst" validate:"gte=0"`
}

// SessionConfig selects and configures the wizard session store.
type SessionConfig struct {
	Backend string        `yaml:"backend,omitempty" mapstructure:"backend" validate:"oneof=memory redis"`
	TTL     time.Duration `yaml:"ttl,omitempty" mapstructure:"ttl" validate:"gt=0"`
	Redis   RedisConfig   `yaml:"redis,omitempty" mapstructure:"redis"`
}

// RedisConfig holds connection settings for the Redis session store.
type RedisConfig struct {
	Address   string `yaml:"address,omitempty" mapstructure:"address"`
	Password  string `yaml:"password,omitempty" mapstructure:"password"`
	DB        int    `yaml:"db,omitempty" mapstructure:"db" validate:"gte=0"`
	KeyPrefix string `yaml:"keyPrefix,omitempty" mapstructure:"keyPrefix"`
}

// Defaults returns the configuration used when no file is supplied.
func Defaults() *Configuration {
	ttl, _ := time.ParseDuration(constants.DefaultSessionTTL)
	return &Configuration{
		Output: OutputConfig{Format: constants.OutputFormatPretty},
		Server: ServerConfig{
			Address:           constants.DefaultServerAddress,
			MaxUploadSize:     fmt.Sprintf("%d", constants.DefaultMaxUploadSizeBytes),
			RequestsPerSecond: constants.DefaultRequestsPerSecond,
			Burst:             constants.DefaultRequestBurst,
		},
		Sessions: SessionConfig{
			Backend: constants.SessionBackendMemory,
			TTL:     ttl,
			Redis: RedisConfig{
				KeyPrefix: constants.DefaultRedisKeyPrefix,
			},
		},
		Assumptions: match.DefaultAssumptions(),
	}
}

// newViper returns a viper instance seeded with defaults and environment
// overrides (e.g. QSLP_SERVER_ADDRESS).
func newViper() *viper.Viper {
	v := viper.New()
	d := Defaults()

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.outputFile", d.Logging.OutputFile)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.maxUploadSize", d.Server.MaxUploadSize)
	v.SetDefault("server.requestsPerSecond", d.Server.RequestsPerSecond)
	v.SetDefault("server.burst", d.Server.Burst)
	v.SetDefault("sessions.backend", d.Sessions.Backend)
	v.SetDefault("sessions.ttl", d.Sessions.TTL)
	v.SetDefault("sessions.redis.address", d.Sessions.Redis.Address)
	v.SetDefault("sessions.redis.password", d.Sessions.Redis.Password)
	v.SetDefault("sessions.redis.db", d.Sessions.Redis.DB)
	v.SetDefault("sessions.redis.keyPrefix", d.Sessions.Redis.KeyPrefix)
	v.SetDefault("assumptions.standardLimit", d.Assumptions.StandardLimit)
	v.SetDefault("assumptions.catchUpLimit", d.Assumptions.CatchUpLimit)
	v.SetDefault("assumptions.catchUpAge", d.Assumptions.CatchUpAge)
	v.SetDefault("assumptions.retirementAge", d.Assumptions.RetirementAge)
	v.SetDefault("assumptions.annualReturn", d.Assumptions.AnnualReturn)
	v.SetDefault("assumptions.minAge", d.Assumptions.MinAge)
	v.SetDefault("assumptions.maxAge", d.Assumptions.MaxAge)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yml")
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path yields the defaults with environment
// overrides applied.
func LoadConfiguration(configPath string) (*Configuration, error) {
	return LoadConfigurationWithFlags(configPath, nil)
}

// LoadConfigurationWithFlags loads configuration like LoadConfiguration and
// binds command-line flags to configuration keys. A flag that was set on the
// command line takes precedence over the file and the environment. Nil flags
// are skipped.
func LoadConfigurationWithFlags(configPath string, flags map[string]*pflag.Flag) (*Configuration, error) {
	v := newViper()

	for key, flag := range flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s to %s: %w", flag.Name, key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}

	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	if r == nil {
		return nil, errors.New("config reader cannot be nil")
	}

	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %w", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	return &configuration, nil
}

// Validate checks the configuration for errors and returns warnings for
// settings that are legal but probably unintended.
func (c *Configuration) Validate() ([]string, error) {
	v := validator.New()
	v.RegisterStructValidation(validateSessions, SessionConfig{})

	if err := v.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return nil, formatValidationErrors(validationErrors)
		}
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var warnings []string
	a := c.Assumptions
	if a.CatchUpLimit > 0 && a.StandardLimit > 0 && a.CatchUpLimit < a.StandardLimit {
		warnings = append(warnings, fmt.Sprintf("catch-up limit %.0f is below the standard limit %.0f",
			a.CatchUpLimit, a.StandardLimit))
	}
	if a.AnnualReturn > 0.2 {
		warnings = append(warnings, fmt.Sprintf("annual return %.2f looks like a percentage; expected a decimal such as 0.07",
			a.AnnualReturn))
	}
	if a.RetirementAge > 0 && a.MinAge > 0 && a.RetirementAge <= a.MinAge {
		warnings = append(warnings, fmt.Sprintf("retirement age %d is not above the minimum age %d; projections will be zero",
			a.RetirementAge, a.MinAge))
	}
	if c.Server.RequestsPerSecond == 0 {
		warnings = append(warnings, "server rate limiting is disabled")
	}

	return warnings, nil
}

func validateSessions(sl validator.StructLevel) {
	sessions := sl.Current().Interface().(SessionConfig)
	if sessions.Backend == constants.SessionBackendRedis && strings.TrimSpace(sessions.Redis.Address) == "" {
		sl.ReportError(sessions.Redis.Address, "Redis.Address", "Address", "required_with_redis", "")
	}
}

func formatValidationErrors(errs validator.ValidationErrors) error {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Param() != "" {
			messages = append(messages, fmt.Sprintf("%s failed %s=%s (got %v)", e.Namespace(), e.Tag(), e.Param(), e.Value()))
			continue
		}
		messages = append(messages, fmt.Sprintf("%s failed %s (got %v)", e.Namespace(), e.Tag(), e.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}
