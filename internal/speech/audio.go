package speech

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// PlaceholderTranscript is returned until a real speech-to-text backend exists.
const PlaceholderTranscript = "[语音转文字功能待实现]"

// Transcriber turns recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// PlaceholderTranscriber accepts any non-empty clip and returns PlaceholderTranscript.
type PlaceholderTranscriber struct{}

func (PlaceholderTranscriber) Transcribe(_ context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", &AccessError{Message: "no audio captured"}
	}
	return PlaceholderTranscript, nil
}

// Recorder captures one audio clip from the microphone.
type Recorder interface {
	Record(ctx context.Context) ([]byte, error)
}

// CommandRecorder runs an external recording command and reads the clip from its stdout.
type CommandRecorder struct {
	name string
	args []string
}

func NewCommandRecorder(command string) (*CommandRecorder, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("record command is empty")
	}
	return &CommandRecorder{name: fields[0], args: fields[1:]}, nil
}

func (c *CommandRecorder) Record(ctx context.Context) ([]byte, error) {
	out, err := exec.CommandContext(ctx, c.name, c.args...).Output()
	if err != nil {
		return nil, &AccessError{Message: "recording failed", Cause: err}
	}
	if len(out) == 0 {
		return nil, &AccessError{Message: "no audio captured"}
	}
	return out, nil
}
