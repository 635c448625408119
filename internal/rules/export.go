package rules

import (
	"encoding/json"
	"fmt"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	perrors "github.com/plumbfile/plumb/internal/errors"
)

// Export formats for rule listings.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// ExportFormats returns the accepted --output values.
func ExportFormats() []string {
	return []string{FormatText, FormatJSON, FormatYAML, FormatTOML}
}

// ExportRuleSet is the serializable view of a rule set.
type ExportRuleSet struct {
	Rules []ExportRule `json:"rules" yaml:"rules" toml:"rules"`
}

// ExportRule is the serializable view of one rule.
type ExportRule struct {
	Name  string       `json:"name" yaml:"name" toml:"name"`
	Line  int          `json:"line" yaml:"line" toml:"line"`
	Steps []ExportStep `json:"steps" yaml:"steps" toml:"steps"`
}

// ExportStep is the serializable view of one command. Text is the
// source rendering; the typed fields carry the pieces tools filter on.
type ExportStep struct {
	Kind  string `json:"kind" yaml:"kind" toml:"kind"`
	Text  string `json:"text" yaml:"text" toml:"text"`
	Line  int    `json:"line" yaml:"line" toml:"line"`
	Var   string `json:"var,omitempty" yaml:"var,omitempty" toml:"var,omitempty"`
	Dest  string `json:"dest,omitempty" yaml:"dest,omitempty" toml:"dest,omitempty"`
	Value string `json:"value,omitempty" yaml:"value,omitempty" toml:"value,omitempty"`
}

// NewExport builds the serializable view of a rule set.
func NewExport(set *RuleSet) *ExportRuleSet {
	out := &ExportRuleSet{
		Rules: make([]ExportRule, 0, len(set.Rules)),
	}
	for _, rule := range set.Rules {
		er := ExportRule{
			Name:  rule.Name,
			Line:  rule.Line,
			Steps: make([]ExportStep, 0, len(rule.Steps)),
		}
		for _, step := range rule.Steps {
			er.Steps = append(er.Steps, exportStep(step))
		}
		out.Rules = append(out.Rules, er)
	}
	return out
}

func exportStep(step Step) ExportStep {
	es := ExportStep{
		Text: step.String(),
		Line: stepLine(step),
	}
	switch s := step.(type) {
	case *ConditionStep:
		es.Kind = "condition"
	case *AssignStep:
		es.Kind = "assign"
		es.Var = s.Name
		es.Value = renderValue(s.Value)
	case *CopyToStep:
		es.Kind = "copyto"
		es.Dest = renderValue(s.Dest)
	case *MoveToStep:
		es.Kind = "moveto"
		es.Dest = renderValue(s.Dest)
	case *InspectStep:
		es.Kind = "inspect"
		if !s.All {
			es.Value = renderValue(s.Value)
		}
	case *StopStep:
		es.Kind = "stop"
	}
	return es
}

// Export renders the rule set in the given format.
func Export(set *RuleSet, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatText, "":
		return []byte(set.String()), nil

	case FormatJSON:
		data, err := json.MarshalIndent(NewExport(set), "", "  ")
		if err != nil {
			return nil, perrors.InternalWrap(err, "rules.Export", "encoding rules as JSON")
		}
		return append(data, '\n'), nil

	case FormatYAML:
		data, err := yaml.Marshal(NewExport(set))
		if err != nil {
			return nil, perrors.InternalWrap(err, "rules.Export", "encoding rules as YAML")
		}
		return data, nil

	case FormatTOML:
		data, err := toml.Marshal(NewExport(set))
		if err != nil {
			return nil, perrors.InternalWrap(err, "rules.Export", "encoding rules as TOML")
		}
		return data, nil
	}

	return nil, perrors.Validation("rules.Export", fmt.Sprintf("unknown output format %q (valid: %s)", format, strings.Join(ExportFormats(), ", ")))
}
