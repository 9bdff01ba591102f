package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultSystemPrompt = `你是一位专业的面试官，正在为候选人进行{{.Company}}{{.Position}}职位的模拟面试。
你需要：
1. 根据候选人的简历和目标岗位提出相关问题，每次只问一个问题
2. 评估候选人的回答质量，必要时追问细节
3. 提供建设性的反馈
4. 保持专业和友好的态度

候选人简历：
{{.Resume}}

职位描述（JD）：
{{.JobDescription}}`

const defaultOpeningMessage = `您好！我是您的面试助教。今天我们将进行{{.Company}}的{{.Position}}职位的模拟面试。准备好了吗？让我们开始吧！`

const defaultRubric = `评分方法：
- 每个能力维度根据候选人在对话中的实际表现打分，没有证据的维度给出保守分数并在反馈中说明
- 总体评分综合所有维度，而不是简单平均
- 优势与改进建议必须引用对话中的具体表现`

var defaultCompetencies = []string{
	"专业知识",
	"问题解决",
	"沟通表达",
	"项目经验",
	"学习能力",
	"团队协作",
	"岗位匹配度",
	"职业素养",
}

// Default returns the built-in interview configuration.
func Default() *Config {
	cfg := &Config{
		Interview: InterviewConfig{
			SystemPrompt:   defaultSystemPrompt,
			OpeningMessage: defaultOpeningMessage,
		},
		Report: ReportConfig{
			Variant: VariantDetailed,
		},
	}
	applyDefaults(cfg)
	return cfg
}

// Load reads the interview configuration from a YAML file.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	return Parse(data)
}

// LoadOrDefault behaves like Load but falls back to Default when the file does not exist.
func LoadOrDefault(filename string) (*Config, error) {
	cfg, err := Load(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes and validates YAML configuration content.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid interview config: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Interview.SystemPrompt == "" {
		config.Interview.SystemPrompt = defaultSystemPrompt
	}

	if config.Report.Variant == "" {
		config.Report.Variant = VariantDetailed
	}

	if config.Report.Scale == (ScaleConfig{}) {
		switch config.Report.Variant {
		case VariantSimple:
			config.Report.Scale = ScaleConfig{Min: 0, Max: 100}
		default:
			config.Report.Scale = ScaleConfig{Min: 1, Max: 5}
		}
	}

	if len(config.Report.Competencies) == 0 && config.Report.Variant == VariantDetailed {
		config.Report.Competencies = append([]string(nil), defaultCompetencies...)
	}

	if config.Report.MinItems == 0 {
		config.Report.MinItems = 3
	}

	if config.Report.Rubric == "" {
		config.Report.Rubric = defaultRubric
	}
}

// validateConfig checks the configuration after defaults are applied.
func validateConfig(config *Config) error {
	if strings.TrimSpace(config.Interview.SystemPrompt) == "" {
		return fmt.Errorf("interview.system_prompt must not be blank")
	}

	switch config.Report.Variant {
	case VariantDetailed, VariantSimple:
	default:
		return fmt.Errorf("report.variant must be %q or %q, got %q",
			VariantDetailed, VariantSimple, config.Report.Variant)
	}

	if config.Report.Scale.Min >= config.Report.Scale.Max {
		return fmt.Errorf("report.scale.min (%v) must be below report.scale.max (%v)",
			config.Report.Scale.Min, config.Report.Scale.Max)
	}

	if config.Report.MinItems < 0 {
		return fmt.Errorf("report.min_items must not be negative")
	}

	if config.Report.Variant == VariantDetailed {
		if len(config.Report.Competencies) != CompetencyCount {
			return fmt.Errorf("report.competencies must list exactly %d dimensions, got %d",
				CompetencyCount, len(config.Report.Competencies))
		}

		seen := make(map[string]bool, len(config.Report.Competencies))
		for i, name := range config.Report.Competencies {
			name = strings.TrimSpace(name)
			if name == "" {
				return fmt.Errorf("report.competencies[%d] must not be blank", i)
			}
			if seen[name] {
				return fmt.Errorf("report.competencies[%d] duplicates %q", i, name)
			}
			seen[name] = true
		}
	}

	return nil
}
