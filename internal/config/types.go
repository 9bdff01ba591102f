package config

// Config is the interview configuration loaded from YAML.
type Config struct {
	Interview InterviewConfig `yaml:"interview"`
	Report    ReportConfig    `yaml:"report"`
}

// InterviewConfig holds the prompt templates for the live interview.
// Templates use {{.Position}}, {{.Company}}, {{.Resume}} and {{.JobDescription}}.
type InterviewConfig struct {
	SystemPrompt   string `yaml:"system_prompt"`
	OpeningMessage string `yaml:"opening_message"`
}

// ReportVariant selects the report schema used by a deployment.
type ReportVariant string

const (
	// VariantDetailed is the 1-5 scale report with 8 competencies and a development plan.
	VariantDetailed ReportVariant = "detailed"
	// VariantSimple is the 0-100 report with strengths, improvements and free-form feedback.
	VariantSimple ReportVariant = "simple"
)

// CompetencyCount is the number of competency dimensions a detailed report asks for.
const CompetencyCount = 8

type ReportConfig struct {
	Variant      ReportVariant `yaml:"variant"`
	Scale        ScaleConfig   `yaml:"scale"`
	Competencies []string      `yaml:"competencies"`
	MinItems     int           `yaml:"min_items"`
	Rubric       string        `yaml:"rubric"`
}

type ScaleConfig struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

func (c *Config) GetVariant() ReportVariant {
	return c.Report.Variant
}

func (c *Config) GetScale() ScaleConfig {
	return c.Report.Scale
}

func (c *Config) GetCompetencies() []string {
	out := make([]string, len(c.Report.Competencies))
	copy(out, c.Report.Competencies)
	return out
}
