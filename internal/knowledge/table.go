// Package knowledge loads the rule and menu tables the responders answer from.
//
// Tables are data, not code: the default biography table is embedded in the
// binary and can be replaced with a YAML file of the same shape.
package knowledge

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/avvvet/portfolio-chat/internal/models"
)

//go:embed tables/*.yaml
var embedded embed.FS

const defaultTable = "tables/biography.yaml"

// Rule pairs trigger keywords with a response. Keywords are authored lowercase.
type Rule struct {
	Keywords []string `yaml:"keywords" validate:"required,min=1,dive,required,lowercase"`
	Response string   `yaml:"response" validate:"required"`
}

// KeywordTable is the ordered rule list for free-text mode. Order is priority.
type KeywordTable struct {
	Default     string              `yaml:"default" validate:"required"`
	Suggestions []models.Suggestion `yaml:"suggestions" validate:"dive"`
	Rules       []Rule              `yaml:"rules" validate:"required,min=1,dive"`
}

// MenuEntry is one option of the closed-set menu.
type MenuEntry struct {
	Key      string `yaml:"key" validate:"required,ne=intro,ne=default"`
	Label    string `yaml:"label" validate:"required"`
	Response string `yaml:"response" validate:"required"`
}

// MenuTable is the data for menu mode.
type MenuTable struct {
	Intro   string      `yaml:"intro" validate:"required"`
	Default string      `yaml:"default" validate:"required"`
	Options []MenuEntry `yaml:"options" validate:"required,min=1,unique=Key,dive"`
}

// Tables is one versioned knowledge file.
type Tables struct {
	Version string       `yaml:"version" validate:"required"`
	Keyword KeywordTable `yaml:"keyword"`
	Menu    MenuTable    `yaml:"menu"`
}

var validate = validator.New()

// Load reads tables from path, or the embedded default table when path is empty.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge table %s: %w", path, err)
	}

	tables, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("knowledge table %s: %w", path, err)
	}
	return tables, nil
}

// Default returns the embedded biography table.
func Default() (*Tables, error) {
	data, err := embedded.ReadFile(defaultTable)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded table: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML knowledge table.
func Parse(data []byte) (*Tables, error) {
	var tables Tables
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validate.Struct(&tables); err != nil {
		return nil, describe(err)
	}

	return &tables, nil
}

func describe(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid knowledge table: %w", err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		// Drop the root struct name, keep the path the author sees in YAML.
		field := strings.TrimPrefix(fe.Namespace(), "Tables.")
		if fe.Param() != "" {
			problems = append(problems, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			problems = append(problems, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}

	return fmt.Errorf("invalid knowledge table: %s: %w", strings.Join(problems, "; "), err)
}
