package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/page-harvest/harvest/pkg/models"
)

// TargetField is one field rule as declared in the targets file
type TargetField struct {
	Name      string `mapstructure:"name"`
	Selector  string `mapstructure:"selector"`
	Attr      string `mapstructure:"attr"`
	Required  bool   `mapstructure:"required"`
	Transform string `mapstructure:"transform"`
}

// Target is one named extraction run as declared in the targets file
type Target struct {
	Name        string        `mapstructure:"name"`
	Mode        string        `mapstructure:"mode"`
	URL         string        `mapstructure:"url"`
	Pages       int           `mapstructure:"pages"`
	RowSelector string        `mapstructure:"row_selector"`
	NavSelector string        `mapstructure:"nav_selector"`
	Output      string        `mapstructure:"output"`
	Format      string        `mapstructure:"format"`
	Fields      []TargetField `mapstructure:"fields"`
}

// LoadTargets reads the targets file
func LoadTargets(path string) ([]Target, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read targets file %s: %w", path, err)
	}

	var targets []Target
	if err := v.UnmarshalKey("targets", &targets); err != nil {
		return nil, fmt.Errorf("failed to parse targets file %s: %w", path, err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("targets file %s declares no targets", path)
	}

	seen := make(map[string]bool, len(targets))
	for i, t := range targets {
		if t.Name == "" {
			return nil, fmt.Errorf("targets[%d] has no name", i)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("duplicate target name %q", t.Name)
		}
		seen[t.Name] = true
	}
	return targets, nil
}

// FindTarget returns the target with the given name
func FindTarget(targets []Target, name string) (Target, error) {
	for _, t := range targets {
		if t.Name == name {
			return t, nil
		}
	}
	return Target{}, fmt.Errorf("unknown target %q", name)
}

// PageSpec validates the target's paging declaration into a PageSpec
func (t Target) PageSpec() (models.PageSpec, error) {
	return models.NewPageSpec(models.SourceKind(t.Mode), t.Pages, t.URL, t.NavSelector)
}

// FieldSpec validates the target's field declarations into a FieldSpec
func (t Target) FieldSpec() (models.FieldSpec, error) {
	rules := make([]models.FieldRule, len(t.Fields))
	for i, f := range t.Fields {
		rules[i] = models.FieldRule{
			Name:      f.Name,
			Selector:  f.Selector,
			Attr:      f.Attr,
			Required:  f.Required,
			Transform: f.Transform,
		}
	}
	return models.NewFieldSpec(t.RowSelector, rules)
}
