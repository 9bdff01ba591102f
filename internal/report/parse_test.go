package report

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewpro/internal/config"
)

const detailedJSON = `{
  "overallScore": 4,
  "overallSummary": "整体表现良好",
  "topStrengths": ["基础扎实", "表达清晰", "项目经验丰富"],
  "areasForImprovement": ["量化成果", "系统设计", "STAR法则"],
  "competencyAnalysis": [{"category": "专业知识", "score": 4, "feedback": "扎实"}],
  "developmentPlan": {"shortTerm": ["复习系统设计"], "longTerm": ["主导一个项目"]}
}`

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"other language tag", "```JSON\n{\"a\":1}\n```", `{"a":1}`},
		{"fence with surrounding space", "  ```json\n{\"a\":1}\n```  \n", `{"a":1}`},
		{"single line fence", "```{\"a\":1}```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestStripFences_IdentityOnUnfencedInput(t *testing.T) {
	for _, in := range []string{
		`{"overallScore": 4}`,
		"  {\"a\": \"```\"}\n",
		"",
		"plain text",
	} {
		assert.Equal(t, in, StripFences(in))
		assert.Equal(t, StripFences(in), StripFences(StripFences(in)))
	}
}

func TestParse_Detailed(t *testing.T) {
	r, err := Parse("```json\n"+detailedJSON+"\n```", config.VariantDetailed)
	require.NoError(t, err)

	assert.Equal(t, 4.0, r.OverallScore)
	assert.Equal(t, "整体表现良好", r.OverallSummary)
	assert.Len(t, r.TopStrengths, 3)
	assert.Len(t, r.AreasForImprovement, 3)
	require.Len(t, r.CompetencyAnalysis, 1)
	assert.Equal(t, CompetencyScore{Category: "专业知识", Score: 4, Feedback: "扎实"}, r.CompetencyAnalysis[0])
	assert.Equal(t, []string{"复习系统设计"}, r.DevelopmentPlan.ShortTerm)
	assert.Equal(t, config.VariantDetailed, r.Variant)
}

func TestParse_Simple(t *testing.T) {
	raw := `{"overallScore": 85, "strengths": ["a", "b", "c"], "improvements": ["d"], "detailedFeedback": "整体不错"}`

	r, err := Parse(raw, config.VariantSimple)
	require.NoError(t, err)

	assert.Equal(t, 85.0, r.OverallScore)
	assert.Equal(t, []string{"a", "b", "c"}, r.TopStrengths)
	assert.Equal(t, []string{"d"}, r.AreasForImprovement)
	assert.Equal(t, "整体不错", r.OverallSummary)
	assert.Empty(t, r.CompetencyAnalysis)
	assert.Equal(t, config.VariantSimple, r.Variant)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		variant config.ReportVariant
	}{
		{"truncated", `{"overallScore": 4.5,`, config.VariantDetailed},
		{"fenced truncated", "```json\n{\"overallScore\": 4.5,\n```", config.VariantDetailed},
		{"empty", "   ", config.VariantDetailed},
		{"not an object", `["a"]`, config.VariantDetailed},
		{"missing fields", `{"overallScore": 4}`, config.VariantDetailed},
		{"wrong type", `{"overallScore": "high", "strengths": [], "improvements": [], "detailedFeedback": ""}`, config.VariantSimple},
		{"detailed body for simple variant", detailedJSON, config.VariantSimple},
		{"unknown variant", detailedJSON, "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.raw, tt.variant)
			assert.Nil(t, r)

			var parseErr *ParseError
			assert.True(t, errors.As(err, &parseErr), "got %v", err)
		})
	}
}

func TestParse_MissingFieldsAreNamed(t *testing.T) {
	_, err := Parse(`{"overallScore": 4, "overallSummary": "ok"}`, config.VariantDetailed)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.NotEmpty(t, parseErr.Fields)
	assert.Contains(t, err.Error(), "topStrengths")
}

func TestParse_ToleratesShortLists(t *testing.T) {
	raw := `{"overallScore": 2, "overallSummary": "", "topStrengths": [], "areasForImprovement": ["x"],
	"competencyAnalysis": [], "developmentPlan": {}}`

	r, err := Parse(raw, config.VariantDetailed)
	require.NoError(t, err)
	assert.Empty(t, r.TopStrengths)
	assert.Empty(t, r.CompetencyAnalysis)
}
