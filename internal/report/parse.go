package report

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"interviewpro/internal/config"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var schemas = map[config.ReportVariant]*gojsonschema.Schema{}

func init() {
	for variant, file := range map[config.ReportVariant]string{
		config.VariantDetailed: "schemas/detailed.json",
		config.VariantSimple:   "schemas/simple.json",
	} {
		data, err := schemaFS.ReadFile(file)
		if err != nil {
			panic(fmt.Sprintf("report schema %s: %v", file, err))
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			panic(fmt.Sprintf("report schema %s: %v", file, err))
		}
		schemas[variant] = schema
	}
}

// StripFences removes a markdown code fence around a model reply.
// Input that does not start with a fence is returned unchanged.
func StripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}

	if strings.HasPrefix(trimmed, "```json") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
	} else {
		trimmed = strings.TrimPrefix(trimmed, "```")
		// Skip a language tag on the opening line.
		if idx := strings.Index(trimmed, "\n"); idx >= 0 {
			firstLine := trimmed[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				trimmed = trimmed[idx+1:]
			}
		}
	}

	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// Parse strips fences from raw, checks it against the variant schema and
// decodes it. Only the top-level fields are checked; list lengths are not.
func Parse(raw string, variant config.ReportVariant) (*Report, error) {
	schema, ok := schemas[variant]
	if !ok {
		return nil, &ParseError{Message: fmt.Sprintf("unknown report variant %q", variant)}
	}

	body := strings.TrimSpace(StripFences(raw))
	if body == "" {
		return nil, &ParseError{Message: "empty report"}
	}
	if !json.Valid([]byte(body)) {
		var v any
		err := json.Unmarshal([]byte(body), &v)
		return nil, &ParseError{Message: "report is not valid JSON", Cause: err}
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return nil, &ParseError{Message: "report could not be validated", Cause: err}
	}
	if !result.Valid() {
		fields := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			fields = append(fields, fmt.Sprintf("%s: %s", field, desc.Description()))
		}
		return nil, &ParseError{Message: "report is missing required fields", Fields: fields}
	}

	switch variant {
	case config.VariantSimple:
		var wire simpleReport
		if err := json.Unmarshal([]byte(body), &wire); err != nil {
			return nil, &ParseError{Message: "report has unexpected field types", Cause: err}
		}
		return &Report{
			OverallScore:        wire.OverallScore,
			OverallSummary:      wire.DetailedFeedback,
			TopStrengths:        wire.Strengths,
			AreasForImprovement: wire.Improvements,
			Variant:             variant,
		}, nil
	default:
		var wire detailedReport
		if err := json.Unmarshal([]byte(body), &wire); err != nil {
			return nil, &ParseError{Message: "report has unexpected field types", Cause: err}
		}
		return &Report{
			OverallScore:        wire.OverallScore,
			OverallSummary:      wire.OverallSummary,
			TopStrengths:        wire.TopStrengths,
			AreasForImprovement: wire.AreasForImprovement,
			CompetencyAnalysis:  wire.CompetencyAnalysis,
			DevelopmentPlan:     wire.DevelopmentPlan,
			Variant:             variant,
		}, nil
	}
}
