package session

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() ContextInput {
	return ContextInput{
		Credential:     "sk-test",
		TargetPosition: "后端工程师",
		TargetCompany:  "某公司",
		ResumeText:     "五年Go开发经验",
		JobDescription: "负责分布式存储",
	}
}

func TestNewContext(t *testing.T) {
	sc, err := NewContext(validInput(), "")
	require.NoError(t, err)

	assert.Equal(t, "sk-test", sc.Credential())
	assert.Equal(t, "后端工程师", sc.TargetPosition())
	assert.Equal(t, "某公司", sc.TargetCompany())
	assert.Equal(t, "五年Go开发经验", sc.ResumeText())
	assert.Equal(t, "负责分布式存储", sc.JobDescription())
}

func TestNewContext_FallbackCredential(t *testing.T) {
	in := validInput()
	in.Credential = "  "

	sc, err := NewContext(in, "sk-env")
	require.NoError(t, err)
	assert.Equal(t, "sk-env", sc.Credential())
}

func TestNewContext_TrimsCredential(t *testing.T) {
	in := validInput()
	in.Credential = " sk-x \n"

	sc, err := NewContext(in, "")
	require.NoError(t, err)
	assert.Equal(t, "sk-x", sc.Credential())

	in.Credential = ""
	sc, err = NewContext(in, "sk-env\t")
	require.NoError(t, err)
	assert.Equal(t, "sk-env", sc.Credential())
}

func TestNewContext_ContentIsNotSanitized(t *testing.T) {
	in := validInput()
	in.ResumeText = "<b>简历</b>\n  缩进"

	sc, err := NewContext(in, "")
	require.NoError(t, err)
	assert.Equal(t, in.ResumeText, sc.ResumeText())
}

func TestNewContext_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ContextInput)
		missing []string
	}{
		{
			name:    "no credential anywhere",
			mutate:  func(in *ContextInput) { in.Credential = "" },
			missing: []string{"credential"},
		},
		{
			name:    "blank position",
			mutate:  func(in *ContextInput) { in.TargetPosition = " \t" },
			missing: []string{"target_position"},
		},
		{
			name: "resume and job description",
			mutate: func(in *ContextInput) {
				in.ResumeText = ""
				in.JobDescription = "\n"
			},
			missing: []string{"resume_text", "job_description"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			sc, err := NewContext(in, "")
			assert.Nil(t, sc)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.missing, cfgErr.Missing)
		})
	}
}

func TestContext_LogValueRedactsCredential(t *testing.T) {
	sc, err := NewContext(validInput(), "")
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Info("session configured", "context", sc)

	assert.NotContains(t, buf.String(), "sk-test")
	assert.Contains(t, buf.String(), `"has_credential":true`)
	assert.Contains(t, buf.String(), "某公司")
}
