package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	apperrors "vc-readiness/internal/common/errors"
	"vc-readiness/internal/common/validation"

	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// document is the on-disk catalog layout.
type document struct {
	Sections      []Section     `yaml:"sections"`
	ScoringMatrix ScoringMatrix `yaml:"scoring_matrix"`
}

var documentSchema = validation.Schema{
	"type":     "object",
	"required": []interface{}{"sections"},
	"properties": map[string]interface{}{
		"sections": map[string]interface{}{
			"type":     "array",
			"minItems": 1,
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"id", "title", "weight", "stages", "fields"},
				"properties": map[string]interface{}{
					"id":     map[string]interface{}{"type": "string", "minLength": 1},
					"number": map[string]interface{}{"type": "string"},
					"title":  map[string]interface{}{"type": "string"},
					"weight": map[string]interface{}{"type": "number"},
					"stages": map[string]interface{}{
						"type":     "array",
						"minItems": 1,
						"items":    map[string]interface{}{"type": "string"},
					},
					"fields": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type":     "object",
							"required": []interface{}{"id", "label", "type"},
							"properties": map[string]interface{}{
								"id":       map[string]interface{}{"type": "string", "minLength": 1},
								"label":    map[string]interface{}{"type": "string"},
								"type":     map[string]interface{}{"type": "string"},
								"required": map[string]interface{}{"type": "boolean"},
								"min":      map[string]interface{}{"type": "number"},
								"max":      map[string]interface{}{"type": "number"},
								"options": map[string]interface{}{
									"type": "array",
									"items": map[string]interface{}{
										"type":     "object",
										"required": []interface{}{"value", "label"},
									},
								},
							},
						},
					},
				},
			},
		},
		"scoring_matrix": map[string]interface{}{
			"type": "object",
			"additionalProperties": map[string]interface{}{
				"type": "object",
				"additionalProperties": map[string]interface{}{
					"type": "integer",
				},
			},
		},
	},
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// LoadFile reads and validates a catalog YAML file. An empty path selects
// the embedded catalog.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, invalid([]string{fmt.Sprintf("read %s: %v", path, err)})
	}
	return Parse(data)
}

// Parse decodes a catalog document, checks it against the document schema
// and then against the cross-reference rules. Every problem found is
// reported in one CATALOG_INVALID error.
func Parse(data []byte) (*Catalog, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, invalid([]string{fmt.Sprintf("decode yaml: %v", err)})
	}

	result, err := validation.ValidateDocument(raw, documentSchema)
	if err != nil {
		return nil, invalid([]string{err.Error()})
	}
	if !result.Valid {
		return nil, invalid(result.GetErrorMessages())
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, invalid([]string{fmt.Sprintf("decode yaml: %v", err)})
	}
	return New(doc.Sections, doc.ScoringMatrix)
}

func invalid(problems []string) error {
	return apperrors.NewCatalogInvalidError(problems)
}

// check builds the field index and collects every structural problem.
func (c *Catalog) check() []string {
	var problems []string
	c.fields = make(map[string]fieldRef)
	sectionIDs := make(map[string]bool)

	for si, s := range c.Sections {
		if s.ID == "" {
			problems = append(problems, fmt.Sprintf("section #%d has no id", si+1))
		} else if sectionIDs[s.ID] {
			problems = append(problems, fmt.Sprintf("duplicate section id %q", s.ID))
		}
		sectionIDs[s.ID] = true

		if s.Weight <= 0 {
			problems = append(problems, fmt.Sprintf("section %q: weight must be positive", s.ID))
		}
		if len(s.Stages) == 0 {
			problems = append(problems, fmt.Sprintf("section %q: no stages", s.ID))
		}
		for _, st := range s.Stages {
			if st != StageIdea && st != StageLaunched && st != StageBoth {
				problems = append(problems, fmt.Sprintf("section %q: unknown stage %q", s.ID, st))
			}
		}
		if len(s.Fields) == 0 {
			problems = append(problems, fmt.Sprintf("section %q has no fields", s.ID))
		}

		for fi, f := range s.Fields {
			if f.ID == "" {
				problems = append(problems, fmt.Sprintf("section %q: field #%d has no id", s.ID, fi+1))
				continue
			}
			if prev, dup := c.fields[f.ID]; dup {
				problems = append(problems, fmt.Sprintf("field %q is defined in %q and %q",
					f.ID, c.Sections[prev.section].ID, s.ID))
				continue
			}
			c.fields[f.ID] = fieldRef{section: si, field: fi}

			if !validFieldTypes[f.Type] {
				problems = append(problems, fmt.Sprintf("field %q: unknown type %q", f.ID, f.Type))
			}
			if f.Type.IsChoice() && len(f.Options) == 0 {
				problems = append(problems, fmt.Sprintf("field %q: %s field without options", f.ID, f.Type))
			}
			if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
				problems = append(problems, fmt.Sprintf("field %q: min is greater than max", f.ID))
			}
		}
	}

	for _, fieldID := range sortedKeys(c.Matrix) {
		byValue := c.Matrix[fieldID]
		ref, ok := c.fields[fieldID]
		if !ok {
			problems = append(problems, fmt.Sprintf("scoring matrix references unknown field %q", fieldID))
			continue
		}
		f := c.Sections[ref.section].Fields[ref.field]
		for _, value := range sortedKeys(byValue) {
			score := byValue[value]
			if f.Type.IsChoice() && f.OptionIndex(value) < 0 {
				problems = append(problems, fmt.Sprintf("scoring matrix: field %q has no option %q", fieldID, value))
			}
			if score < 0 || score > 10 {
				problems = append(problems, fmt.Sprintf("scoring matrix: %s=%s score %d outside 0..10", fieldID, value, score))
			}
		}
	}

	return problems
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
