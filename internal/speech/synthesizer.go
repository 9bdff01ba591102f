package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"interviewpro/internal/session"
)

// Synthesizer reads text aloud.
type Synthesizer interface {
	Speak(ctx context.Context, text, lang string) error
}

// CommandSynthesizer pipes text to an external text-to-speech command.
// A {lang} argument is replaced with the detected language.
type CommandSynthesizer struct {
	name string
	args []string
}

func NewCommandSynthesizer(command string) (*CommandSynthesizer, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("speech command is empty")
	}
	return &CommandSynthesizer{name: fields[0], args: fields[1:]}, nil
}

func (c *CommandSynthesizer) Speak(ctx context.Context, text, lang string) error {
	args := make([]string, len(c.args))
	for i, arg := range c.args {
		args[i] = strings.ReplaceAll(arg, "{lang}", lang)
	}

	cmd := exec.CommandContext(ctx, c.name, args...)
	cmd.Stdin = strings.NewReader(text)

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("speech command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Subscriber returns a turn handler that speaks assistant turns in the background.
// The returned function matches interviewer.TurnHandler.
func Subscriber(synth Synthesizer, logger *slog.Logger, timeout time.Duration) func(context.Context, *session.Session, session.Turn) {
	return func(_ context.Context, sess *session.Session, turn session.Turn) {
		if turn.Speaker != session.SpeakerAssistant {
			return
		}
		text := StripMarkdown(turn.Content)
		if text == "" {
			return
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := synth.Speak(ctx, text, DetectLanguage(text)); err != nil {
				logger.Warn("speech synthesis failed", "session_id", sess.ID, "error", err)
			}
		}()
	}
}
