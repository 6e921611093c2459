package catalog

import (
	"testing"

	apperrors "vc-readiness/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Default catalog
// ==========================

func TestDefault_LoadsEmbeddedCatalog(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	assert.Len(t, cat.Sections, 8)
	assert.Len(t, cat.SectionsFor(StageIdea), 6)
	assert.Len(t, cat.SectionsFor(StageLaunched), 8)

	f, ok := cat.Field("market-size-tam")
	require.True(t, ok)
	assert.Equal(t, FieldSelect, f.Type)
	assert.Equal(t, 0, f.OptionIndex("under-100m"))
	assert.Equal(t, len(f.Options)-1, f.OptionIndex("over-10b"))

	score, ok := cat.MatrixScore("team-size", "2-3")
	assert.True(t, ok)
	assert.Equal(t, 10, score)

	_, ok = cat.MatrixScore("customer-segment", "anything")
	assert.False(t, ok)

	growth, ok := cat.Field("growth-rate")
	require.True(t, ok)
	require.NotNil(t, growth.Min)
	assert.Equal(t, -50.0, *growth.Min)
}

func TestSection_AppliesTo(t *testing.T) {
	both := Section{Stages: []Stage{StageBoth}}
	launched := Section{Stages: []Stage{StageLaunched}}

	assert.True(t, both.AppliesTo(StageIdea))
	assert.True(t, both.AppliesTo(StageLaunched))
	assert.False(t, launched.AppliesTo(StageIdea))
	assert.True(t, launched.AppliesTo(StageLaunched))
}

func TestParseStage(t *testing.T) {
	st, err := ParseStage(" Launched ")
	require.NoError(t, err)
	assert.Equal(t, StageLaunched, st)

	_, err = ParseStage("both")
	assert.Error(t, err)
}

// ==========================
// Load-time validation
// ==========================

func TestParse(t *testing.T) {
	tests := []struct {
		name           string
		yaml           string
		expectError    bool
		validateOutput func(t *testing.T, cat *Catalog, err error)
	}{
		{
			name: "minimal valid catalog",
			yaml: `
sections:
  - id: team
    title: Team
    weight: 10
    stages: [both]
    fields:
      - {id: size, label: Size, type: select, required: true, options: [{value: "1", label: One}]}
scoring_matrix:
  size:
    "1": 7
`,
			validateOutput: func(t *testing.T, cat *Catalog, err error) {
				score, ok := cat.MatrixScore("size", "1")
				assert.True(t, ok)
				assert.Equal(t, 7, score)
			},
		},
		{
			name: "section without fields",
			yaml: `
sections:
  - {id: empty, title: Empty, weight: 10, stages: [idea], fields: []}
`,
			expectError: true,
			validateOutput: func(t *testing.T, cat *Catalog, err error) {
				assert.Contains(t, err.Error(), `section "empty" has no fields`)
			},
		},
		{
			name: "duplicate field ids across sections",
			yaml: `
sections:
  - {id: a, title: A, weight: 10, stages: [idea], fields: [{id: x, label: X, type: text}]}
  - {id: b, title: B, weight: 10, stages: [idea], fields: [{id: x, label: X, type: text}]}
`,
			expectError: true,
			validateOutput: func(t *testing.T, cat *Catalog, err error) {
				assert.Contains(t, err.Error(), `field "x" is defined in "a" and "b"`)
			},
		},
		{
			name: "matrix references a missing field and option",
			yaml: `
sections:
  - id: a
    title: A
    weight: 10
    stages: [idea]
    fields:
      - {id: pick, label: Pick, type: radio, options: [{value: yes, label: Yes}]}
scoring_matrix:
  ghost:
    "x": 1
  pick:
    "no": 3
`,
			expectError: true,
			validateOutput: func(t *testing.T, cat *Catalog, err error) {
				assert.Contains(t, err.Error(), `unknown field "ghost"`)
				assert.Contains(t, err.Error(), `field "pick" has no option "no"`)
			},
		},
		{
			name: "bad weight, stage and type",
			yaml: `
sections:
  - {id: a, title: A, weight: 0, stages: [growth], fields: [{id: x, label: X, type: slider}]}
`,
			expectError: true,
			validateOutput: func(t *testing.T, cat *Catalog, err error) {
				assert.Contains(t, err.Error(), "weight must be positive")
				assert.Contains(t, err.Error(), `unknown stage "growth"`)
				assert.Contains(t, err.Error(), `unknown type "slider"`)
			},
		},
		{
			name:        "schema violation",
			yaml:        `sections: "nope"`,
			expectError: true,
			validateOutput: func(t *testing.T, cat *Catalog, err error) {
				assert.Contains(t, err.Error(), "sections")
			},
		},
		{
			name:        "malformed yaml",
			yaml:        "sections: [",
			expectError: true,
			validateOutput: func(t *testing.T, cat *Catalog, err error) {
				assert.Contains(t, err.Error(), "decode yaml")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := Parse([]byte(tt.yaml))
			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, cat)
				assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCatalogInvalid))
			} else {
				require.NoError(t, err)
				require.NotNil(t, cat)
			}
			if tt.validateOutput != nil {
				tt.validateOutput(t, cat, err)
			}
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile("/nonexistent/catalog.yaml")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCatalogInvalid))
}

// ==========================
// Answers helpers
// ==========================

func TestAnswers_PresenceAndCompletion(t *testing.T) {
	a := Answers{
		"text":       "hello",
		"empty":      "",
		"nil":        nil,
		"list":       []interface{}{"a", "b"},
		"empty-list": []interface{}{},
		"num":        0.0,
	}

	assert.True(t, a.IsPresent("text"))
	assert.False(t, a.IsPresent("empty"))
	assert.False(t, a.IsPresent("nil"))
	assert.False(t, a.IsPresent("absent"))
	assert.True(t, a.IsPresent("empty-list"))
	assert.True(t, a.IsPresent("num"))

	assert.True(t, a.IsCompleted("list"))
	assert.False(t, a.IsCompleted("empty-list"))
	assert.True(t, a.IsCompleted("num"))
}

func TestAsNumber(t *testing.T) {
	tests := []struct {
		in     interface{}
		want   float64
		wantOK bool
	}{
		{in: 12.5, want: 12.5, wantOK: true},
		{in: 3, want: 3, wantOK: true},
		{in: " 42 ", want: 42, wantOK: true},
		{in: "abc", wantOK: false},
		{in: "NaN", wantOK: false},
		{in: []string{"1"}, wantOK: false},
	}
	for _, tt := range tests {
		got, ok := AsNumber(tt.in)
		assert.Equal(t, tt.wantOK, ok, "%v", tt.in)
		if tt.wantOK {
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestAsString_FormatsNumbersShortest(t *testing.T) {
	s, ok := AsString(1.0)
	assert.True(t, ok)
	assert.Equal(t, "1", s)

	_, ok = AsString([]string{"x"})
	assert.False(t, ok)
}
