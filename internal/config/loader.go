package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/atlcheck/internal/checker"
	"github.com/alexisbeaulieu97/atlcheck/internal/edg"
	apperrors "github.com/alexisbeaulieu97/atlcheck/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	yamlLineRegex = regexp.MustCompile(`line (\d+)`)
	semverPattern = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("algorithm", func(fl validator.FieldLevel) bool {
			_, err := checker.ParseAlgorithm(fl.Field().String())
			return err == nil
		})

		_ = v.RegisterValidation("strategy", func(fl validator.FieldLevel) bool {
			_, err := edg.ParseStrategy(fl.Field().String())
			return err == nil
		})

		validateInst = v
	})

	return validateInst
}

// Load reads the configuration at path. Keys missing from the file keep
// their Default values. An empty path returns Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewParseError(path, 0, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperrors.NewParseError(path, extractLine(err), err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Discover returns the first DefaultFileName found in dir or in the home
// directory, or "" when there is none.
func Discover(dir string) string {
	candidates := []string{filepath.Join(dir, DefaultFileName)}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultFileName))
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// Validate checks the configuration against its schema.
func Validate(cfg *Config) error {
	if cfg == nil {
		return apperrors.NewValidationError("config", "configuration is nil", nil)
	}
	if err := validatorInstance().Struct(cfg); err != nil {
		return convertValidationError(err)
	}
	return nil
}

func convertValidationError(err error) error {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return apperrors.NewValidationError(field, msg, err)
	}
	return apperrors.NewValidationError("config", err.Error(), err)
}

// yamlishFieldName turns Config.solver.timeout into solver.timeout.
func yamlishFieldName(fe validator.FieldError) string {
	_, field, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return strings.ToLower(fe.Namespace())
	}
	return field
}

func extractLine(err error) int {
	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}
	return line
}
