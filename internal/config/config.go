// Package config merges flags, environment, an optional config file and defaults
// into the settings of one invocation, and validates compile requests.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	rperrors "redpaper/internal/errors"
	"redpaper/pkg/compile"
)

const (
	EnvPrefix      = "REDPAPER"
	ConfigName     = "redpaper"
	userConfigPath = ".config/redpaper"
)

var configExts = []string{".yaml", ".yml"}

// Keys shared by flags, environment variables (REDPAPER_<KEY>, dashes as underscores) and the config file.
const (
	KeyRepositoryPath = "redpaper-path"
	KeyTemplate       = "template"
	KeyDPI            = "dpi"
	KeyEngine         = "engine"
	KeyContainerTool  = "container-tool"
	KeyImage          = "image"
)

var keys = []string{KeyRepositoryPath, KeyTemplate, KeyDPI, KeyEngine, KeyContainerTool, KeyImage}

// Settings are the scalar compile options that may come from any configuration source.
type Settings struct {
	RepositoryPath string `mapstructure:"redpaper-path"`
	Template       string `mapstructure:"template"`
	DPI            int    `mapstructure:"dpi"`
	Engine         string `mapstructure:"engine"`
	ContainerTool  string `mapstructure:"container-tool"`
	Image          string `mapstructure:"image"`

	// ConfigFile is the file that was read, empty when none was found.
	ConfigFile string `mapstructure:"-"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("flag"); name != "" {
			return name
		}
		return field.Name
	})
}

// Load resolves Settings with precedence flag > environment > config file > default.
// Only flags that were explicitly set override the other sources. configFile, when
// non-empty, must exist; otherwise redpaper.yaml (or .yml) is looked up in the
// working directory and then in ~/.config/redpaper.
func Load(flags *pflag.FlagSet, configFile string) (*Settings, error) {
	v := viper.New()

	v.SetDefault(KeyRepositoryPath, "")
	v.SetDefault(KeyTemplate, compile.DefaultTemplate)
	v.SetDefault(KeyDPI, compile.DefaultDPI)
	v.SetDefault(KeyEngine, compile.DefaultEngine)
	v.SetDefault(KeyContainerTool, string(compile.RuntimeAuto))
	v.SetDefault(KeyImage, compile.DefaultImage)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for _, key := range keys {
			if flag := flags.Lookup(key); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", key, err)
				}
			}
		}
	}

	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, rperrors.NewConfigError(
					fmt.Sprintf("config file %s not found", configFile),
					err.Error(),
					"Check the --config path",
					fmt.Errorf("config file not found: %w", err),
				)
			}
			return nil, rperrors.NewConfigError(
				fmt.Sprintf("failed to read config file %s", configFile),
				err.Error(),
				"Check the file is valid YAML",
				fmt.Errorf("failed to read config file: %w", err),
			)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, rperrors.NewConfigError(
			"failed to parse configuration",
			err.Error(),
			"Check value types in the config file and REDPAPER_* variables",
			fmt.Errorf("failed to parse configuration: %w", err),
		)
	}
	s.ConfigFile = v.ConfigFileUsed()

	return &s, nil
}

// findConfigFile returns the first existing redpaper.yaml or redpaper.yml in the
// working directory, then in ~/.config/redpaper. Only these exact names are
// considered, so a file called plain "redpaper" (such as the binary) is never read.
func findConfigFile() string {
	var dirs []string
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, userConfigPath))
	}

	for _, dir := range dirs {
		for _, ext := range configExts {
			candidate := filepath.Join(dir, ConfigName+ext)
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return candidate
			}
		}
	}
	return ""
}

// ValidateRequest checks the struct-level constraints of req before any path is touched.
func ValidateRequest(req compile.Request) error {
	if err := validate.Struct(&req); err != nil {
		msg := formatValidationError(err)
		return rperrors.NewValidationError(msg, "", "Run 'redpaper make --help' for the accepted flags", errors.New(msg))
	}
	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Sprintf("validation failed: %s", err)
	}

	var messages []string
	for _, e := range validationErrors {
		messages = append(messages, formatFieldError(e))
	}

	if len(messages) == 1 {
		return messages[0]
	}
	return "invalid options:\n  - " + strings.Join(messages, "\n  - ")
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("--%s is required", field)
	case "oneof":
		return fmt.Sprintf("--%s must be one of: %s (got %q)", field, e.Param(), fmt.Sprint(e.Value()))
	case "gt":
		return fmt.Sprintf("--%s must be greater than %s", field, e.Param())
	default:
		return fmt.Sprintf("--%s failed validation (%s)", field, e.Tag())
	}
}
