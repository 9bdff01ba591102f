package session

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ContextInput is the raw form data collected before an interview starts.
type ContextInput struct {
	Credential     string `json:"credential,omitempty" validate:"required"`
	TargetPosition string `json:"target_position" validate:"required"`
	TargetCompany  string `json:"target_company" validate:"required"`
	ResumeText     string `json:"resume_text" validate:"required"`
	JobDescription string `json:"job_description" validate:"required"`
}

// Context is the immutable interview configuration of one session.
type Context struct {
	credential     string
	targetPosition string
	targetCompany  string
	resumeText     string
	jobDescription string
}

// NewContext validates in and builds a Context. When the input carries no
// credential, fallbackCredential is used instead. The credential is trimmed;
// other fields are checked for presence only and passed through unchanged.
func NewContext(in ContextInput, fallbackCredential string) (*Context, error) {
	in.Credential = strings.TrimSpace(in.Credential)
	if in.Credential == "" {
		in.Credential = strings.TrimSpace(fallbackCredential)
	}

	trimmed := ContextInput{
		Credential:     strings.TrimSpace(in.Credential),
		TargetPosition: strings.TrimSpace(in.TargetPosition),
		TargetCompany:  strings.TrimSpace(in.TargetCompany),
		ResumeText:     strings.TrimSpace(in.ResumeText),
		JobDescription: strings.TrimSpace(in.JobDescription),
	}

	if err := validate.Struct(trimmed); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, &ConfigError{Message: err.Error()}
		}
		missing := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			missing = append(missing, fieldName(fe.Field()))
		}
		return nil, &ConfigError{Message: "missing required fields", Missing: missing}
	}

	return &Context{
		credential:     in.Credential,
		targetPosition: in.TargetPosition,
		targetCompany:  in.TargetCompany,
		resumeText:     in.ResumeText,
		jobDescription: in.JobDescription,
	}, nil
}

func fieldName(field string) string {
	switch field {
	case "Credential":
		return "credential"
	case "TargetPosition":
		return "target_position"
	case "TargetCompany":
		return "target_company"
	case "ResumeText":
		return "resume_text"
	case "JobDescription":
		return "job_description"
	}
	return field
}

func (c *Context) Credential() string     { return c.credential }
func (c *Context) TargetPosition() string { return c.targetPosition }
func (c *Context) TargetCompany() string  { return c.targetCompany }
func (c *Context) ResumeText() string     { return c.resumeText }
func (c *Context) JobDescription() string { return c.jobDescription }

// LogValue keeps the credential out of log output.
func (c *Context) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("target_position", c.targetPosition),
		slog.String("target_company", c.targetCompany),
		slog.Int("resume_len", len(c.resumeText)),
		slog.Int("job_description_len", len(c.jobDescription)),
		slog.Bool("has_credential", c.credential != ""),
	)
}
