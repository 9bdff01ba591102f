package prompts

import (
	"fmt"
	"strconv"
	"strings"

	"interviewpro/internal/config"
)

// ReportInstruction is the user turn that accompanies the report system prompt.
const ReportInstruction = "请根据以上面试记录生成评估报告，只返回JSON。"

// ReportSystemPrompt embeds the rubric, the required JSON shape and the full transcript.
func ReportSystemPrompt(rc config.ReportConfig, d Data, transcript string) string {
	var prompt strings.Builder

	prompt.WriteString("你是一位资深的面试评估专家。请根据下面的模拟面试记录，对候选人进行全面、客观的评估。\n\n")

	prompt.WriteString("面试背景：\n")
	prompt.WriteString(fmt.Sprintf("- 目标职位：%s\n", d.Position))
	prompt.WriteString(fmt.Sprintf("- 目标公司：%s\n\n", d.Company))

	if rc.Rubric != "" {
		prompt.WriteString(strings.TrimSpace(rc.Rubric))
		prompt.WriteString("\n\n")
	}

	scale := fmt.Sprintf("%s-%s", formatNumber(rc.Scale.Min), formatNumber(rc.Scale.Max))
	prompt.WriteString(fmt.Sprintf("评分范围：%s 分。\n\n", scale))

	prompt.WriteString("输出要求：\n")
	prompt.WriteString("- 只返回一个合法的JSON对象，不要使用markdown代码块，不要添加任何解释\n")

	switch rc.Variant {
	case config.VariantSimple:
		writeSimpleShape(&prompt, rc, scale)
	default:
		writeDetailedShape(&prompt, rc, scale)
	}

	prompt.WriteString("\n面试记录：\n")
	prompt.WriteString(transcript)
	prompt.WriteString("\n")

	return prompt.String()
}

func writeDetailedShape(prompt *strings.Builder, rc config.ReportConfig, scale string) {
	prompt.WriteString(fmt.Sprintf("- topStrengths 和 areasForImprovement 各至少 %d 条\n", rc.MinItems))
	prompt.WriteString(fmt.Sprintf("- competencyAnalysis 必须恰好包含以下 %d 个维度，顺序一致：\n", len(rc.Competencies)))
	for i, name := range rc.Competencies {
		prompt.WriteString(fmt.Sprintf("  %d. %s\n", i+1, name))
	}
	prompt.WriteString("\nJSON结构：\n")
	prompt.WriteString("{\n")
	prompt.WriteString(fmt.Sprintf("  \"overallScore\": 数字（%s）,\n", scale))
	prompt.WriteString("  \"overallSummary\": \"总体评价\",\n")
	prompt.WriteString("  \"topStrengths\": [\"优势\"],\n")
	prompt.WriteString("  \"areasForImprovement\": [\"改进建议\"],\n")
	prompt.WriteString(fmt.Sprintf("  \"competencyAnalysis\": [{\"category\": \"维度名称\", \"score\": 数字（%s）, \"feedback\": \"具体反馈\"}],\n", scale))
	prompt.WriteString("  \"developmentPlan\": {\"shortTerm\": [\"短期行动\"], \"longTerm\": [\"长期目标\"]}\n")
	prompt.WriteString("}\n")
}

func writeSimpleShape(prompt *strings.Builder, rc config.ReportConfig, scale string) {
	prompt.WriteString(fmt.Sprintf("- strengths 和 improvements 各至少 %d 条\n", rc.MinItems))
	prompt.WriteString("\nJSON结构：\n")
	prompt.WriteString("{\n")
	prompt.WriteString(fmt.Sprintf("  \"overallScore\": 数字（%s）,\n", scale))
	prompt.WriteString("  \"strengths\": [\"优势\"],\n")
	prompt.WriteString("  \"improvements\": [\"需要改进的地方\"],\n")
	prompt.WriteString("  \"detailedFeedback\": \"详细反馈\"\n")
	prompt.WriteString("}\n")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
