package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/fixtures/internal/logging"
	"github.com/mesh-intelligence/fixtures/internal/paths"
	"github.com/mesh-intelligence/fixtures/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envFileName    = ".env"
	envPrefix      = "FIXTURES"

	cfgKeyDriver      = "driver"
	cfgKeyDSN         = "dsn"
	cfgKeyFixturesDir = "fixtures_dir"
	cfgKeyHintsFile   = "hints_file"
	cfgKeyLogLevel    = "log.level"
	cfgKeyLogFormat   = "log.format"
)

// settings is the merged configuration for one command run: flags over
// FIXTURES_* environment over config.yaml over defaults.
type settings struct {
	Driver      string         `mapstructure:"driver" yaml:"driver" validate:"required,oneof=sqlite postgres mysql"`
	DSN         string         `mapstructure:"dsn" yaml:"dsn,omitempty"`
	FixturesDir string         `mapstructure:"fixtures_dir" yaml:"fixtures_dir,omitempty"`
	HintsFile   string         `mapstructure:"hints_file" yaml:"hints_file,omitempty"`
	Log         logging.Config `mapstructure:"log" yaml:"log"`

	configDir string
}

// database returns the connection settings for the store.
func (s *settings) database() types.Config {
	return types.Config{Driver: s.Driver, DSN: s.DSN, FixturesDir: s.FixturesDir}
}

var structValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// loadSettings resolves the config directory, loads any .env files and
// reads config.yaml. A missing config.yaml is not an error.
func loadSettings(f rootFlags) (*settings, error) {
	configDir, err := paths.ResolveConfigDir(f.configDir)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	if err := loadEnvFiles(envFileName, filepath.Join(configDir, envFileName)); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault(cfgKeyDriver, types.DriverSQLite)
	v.SetDefault(cfgKeyDSN, "")
	v.SetDefault(cfgKeyFixturesDir, "")
	v.SetDefault(cfgKeyHintsFile, "")
	v.SetDefault(cfgKeyLogLevel, "warn")
	v.SetDefault(cfgKeyLogFormat, logging.FormatConsole)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	for key, val := range map[string]string{
		cfgKeyDriver:    f.driver,
		cfgKeyDSN:       f.dsn,
		cfgKeyHintsFile: f.hintsFile,
		cfgKeyLogLevel:  f.logLevel,
	} {
		if val != "" {
			v.Set(key, val)
		}
	}
	if f.jsonMode {
		v.Set(cfgKeyLogFormat, logging.FormatJSON)
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	s.configDir = configDir
	s.FixturesDir, err = paths.ResolveFixturesDir(f.fixturesDir, s.FixturesDir)
	if err != nil {
		return nil, fmt.Errorf("resolve fixtures dir: %w", err)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// validate checks struct tags and the logging section.
func (s *settings) validate() error {
	if err := structValidator.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("invalid config: %w", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, e := range verrs {
			msgs = append(msgs, e.Field()+": "+validationMessage(e))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	if err := s.Log.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + e.Param()
	default:
		return "failed " + e.Tag() + " validation"
	}
}

// loadEnvFiles loads the existing files among paths into the process
// environment. Variables already set are not overridden.
func loadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}
