package report

import (
	"fmt"
	"strconv"
	"strings"
)

// Render formats a report as markdown-flavoured text for terminals and chat.
// It tolerates reports that miss sections or carry fewer entries than requested.
func Render(r *Report) string {
	if r == nil {
		return "报告尚未生成。"
	}

	var b strings.Builder

	b.WriteString("# 面试报告\n\n")
	if r.Scale.Max > 0 {
		b.WriteString(fmt.Sprintf("**总体评分**：%s / %s\n", formatScore(r.OverallScore), formatScore(r.Scale.Max)))
	} else {
		b.WriteString(fmt.Sprintf("**总体评分**：%s\n", formatScore(r.OverallScore)))
	}

	if r.OverallSummary != "" {
		b.WriteString("\n## 总体评价\n\n")
		b.WriteString(strings.TrimSpace(r.OverallSummary))
		b.WriteString("\n")
	}

	writeList(&b, "优势", r.TopStrengths)
	writeList(&b, "需要改进", r.AreasForImprovement)

	if len(r.CompetencyAnalysis) > 0 {
		b.WriteString("\n## 能力分析\n\n")
		for _, c := range r.CompetencyAnalysis {
			b.WriteString(fmt.Sprintf("- **%s**（%s）：%s\n", c.Category, formatScore(c.Score), c.Feedback))
		}
	}

	writeList(&b, "短期计划", r.DevelopmentPlan.ShortTerm)
	writeList(&b, "长期计划", r.DevelopmentPlan.LongTerm)

	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("\n## %s\n\n", title))
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
