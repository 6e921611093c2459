// Package catalog holds the question catalog: sections, fields, options and
// the scoring matrix. A Catalog is immutable after load.
package catalog

import (
	"fmt"
	"strings"
)

// Stage is the startup stage a submission is evaluated for.
type Stage string

const (
	StageIdea     Stage = "idea"
	StageLaunched Stage = "launched"
	StageBoth     Stage = "both"
)

// ParseStage accepts the two submission stages. "both" is only valid on sections.
func ParseStage(s string) (Stage, error) {
	switch Stage(strings.ToLower(strings.TrimSpace(s))) {
	case StageIdea:
		return StageIdea, nil
	case StageLaunched:
		return StageLaunched, nil
	default:
		return "", fmt.Errorf("unknown startup stage %q", s)
	}
}

// FieldType is the input kind of a field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldNumber   FieldType = "number"
	FieldEmail    FieldType = "email"
)

var validFieldTypes = map[FieldType]bool{
	FieldText: true, FieldTextarea: true, FieldSelect: true, FieldRadio: true,
	FieldCheckbox: true, FieldNumber: true, FieldEmail: true,
}

// IsChoice reports whether the type carries an option list.
func (t FieldType) IsChoice() bool {
	return t == FieldSelect || t == FieldRadio || t == FieldCheckbox
}

type Option struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

type Field struct {
	ID          string    `yaml:"id" json:"id"`
	Label       string    `yaml:"label" json:"label"`
	Type        FieldType `yaml:"type" json:"type"`
	Required    bool      `yaml:"required" json:"required"`
	Min         *float64  `yaml:"min,omitempty" json:"min,omitempty"`
	Max         *float64  `yaml:"max,omitempty" json:"max,omitempty"`
	Options     []Option  `yaml:"options,omitempty" json:"options,omitempty"`
	Placeholder string    `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Tooltip     string    `yaml:"tooltip,omitempty" json:"tooltip,omitempty"`
}

// OptionIndex returns the position of value in the option list, or -1.
func (f Field) OptionIndex(value string) int {
	for i, opt := range f.Options {
		if opt.Value == value {
			return i
		}
	}
	return -1
}

type Section struct {
	ID          string  `yaml:"id" json:"id"`
	Number      string  `yaml:"number" json:"number"`
	Title       string  `yaml:"title" json:"title"`
	Description string  `yaml:"description" json:"description"`
	Weight      float64 `yaml:"weight" json:"weight"`
	Stages      []Stage `yaml:"stages" json:"stages"`
	Fields      []Field `yaml:"fields" json:"fields"`
}

// AppliesTo reports whether the section is evaluated for stage.
func (s Section) AppliesTo(stage Stage) bool {
	for _, st := range s.Stages {
		if st == stage || st == StageBoth {
			return true
		}
	}
	return false
}

// ScoringMatrix maps field id -> option value -> sub-score (0..10).
type ScoringMatrix map[string]map[string]int

// Catalog is the loaded, validated question catalog.
type Catalog struct {
	Sections []Section    `json:"sections"`
	Matrix   ScoringMatrix `json:"-"`

	fields map[string]fieldRef
}

type fieldRef struct {
	section int
	field   int
}

// New indexes sections and validates the result.
func New(sections []Section, matrix ScoringMatrix) (*Catalog, error) {
	c := &Catalog{Sections: sections, Matrix: matrix}
	if problems := c.check(); len(problems) > 0 {
		return nil, invalid(problems)
	}
	return c, nil
}

// SectionsFor returns the sections applicable to stage, in catalog order.
func (c *Catalog) SectionsFor(stage Stage) []Section {
	out := make([]Section, 0, len(c.Sections))
	for _, s := range c.Sections {
		if s.AppliesTo(stage) {
			out = append(out, s)
		}
	}
	return out
}

// Section looks a section up by id.
func (c *Catalog) Section(id string) (Section, bool) {
	for _, s := range c.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// Field looks a field up by id across all sections.
func (c *Catalog) Field(id string) (Field, bool) {
	ref, ok := c.fields[id]
	if !ok {
		return Field{}, false
	}
	return c.Sections[ref.section].Fields[ref.field], true
}

// MatrixScore returns the scoring matrix entry for (field id, option value).
func (c *Catalog) MatrixScore(fieldID, value string) (int, bool) {
	byValue, ok := c.Matrix[fieldID]
	if !ok {
		return 0, false
	}
	score, ok := byValue[value]
	return score, ok
}
