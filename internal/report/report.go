// Package report turns an interview transcript into a scored assessment.
package report

import (
	"time"

	"interviewpro/internal/config"
)

// Temperature is the sampling temperature of report requests.
const Temperature = 0.3

// Report is the assessment produced once per finished interview.
// Both report variants are mapped onto this shape; fields a variant does not
// produce stay empty.
type Report struct {
	OverallScore        float64              `json:"overallScore"`
	OverallSummary      string               `json:"overallSummary"`
	TopStrengths        []string             `json:"topStrengths"`
	AreasForImprovement []string             `json:"areasForImprovement"`
	CompetencyAnalysis  []CompetencyScore    `json:"competencyAnalysis"`
	DevelopmentPlan     DevelopmentPlan      `json:"developmentPlan"`
	Variant             config.ReportVariant `json:"variant"`
	Scale               config.ScaleConfig   `json:"scale"`
	GeneratedAt         time.Time            `json:"generatedAt"`
}

type CompetencyScore struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

type DevelopmentPlan struct {
	ShortTerm []string `json:"shortTerm"`
	LongTerm  []string `json:"longTerm"`
}

// detailedReport is the wire shape of the detailed variant.
type detailedReport struct {
	OverallScore        float64           `json:"overallScore"`
	OverallSummary      string            `json:"overallSummary"`
	TopStrengths        []string          `json:"topStrengths"`
	AreasForImprovement []string          `json:"areasForImprovement"`
	CompetencyAnalysis  []CompetencyScore `json:"competencyAnalysis"`
	DevelopmentPlan     DevelopmentPlan   `json:"developmentPlan"`
}

// simpleReport is the wire shape of the simple variant.
type simpleReport struct {
	OverallScore     float64  `json:"overallScore"`
	Strengths        []string `json:"strengths"`
	Improvements     []string `json:"improvements"`
	DetailedFeedback string   `json:"detailedFeedback"`
}
