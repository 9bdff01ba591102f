package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"interviewpro/internal/interviewer"
	"interviewpro/internal/report"
	"interviewpro/internal/session"
	"interviewpro/internal/speech"
	"interviewpro/internal/storage"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run a mock interview in the terminal",
	Long:  "Runs one mock interview over stdin/stdout. Missing interview details are asked for interactively.",
	RunE:  runChat,
}

var (
	chatPosition   string
	chatCompany    string
	chatResumeFile string
	chatJDFile     string
	chatAPIKey     string
	chatExport     bool
)

func init() {
	chatCmd.Flags().StringVar(&chatPosition, "position", "", "Target position")
	chatCmd.Flags().StringVar(&chatCompany, "company", "", "Target company")
	chatCmd.Flags().StringVar(&chatResumeFile, "resume", "", "Path to a resume text file")
	chatCmd.Flags().StringVar(&chatJDFile, "jd", "", "Path to a job description text file")
	chatCmd.Flags().StringVar(&chatAPIKey, "api-key", "", "Model API key (overrides LLM_API_KEY)")
	chatCmd.Flags().BoolVar(&chatExport, "export", false, "Save the finished interview under RESULTS_DIR")

	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := bootstrap(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	input, err := collectContext(in, out)
	if err != nil {
		return err
	}

	sc, err := session.NewContext(input, a.cfg.LLM.APIKey)
	if err != nil {
		return err
	}

	sess := session.New()
	if err := sess.Configure(); err != nil {
		return err
	}
	if err := a.svc.Start(ctx, sess, sc); err != nil {
		return err
	}

	t := &terminal{
		svc:         a.svc,
		sess:        sess,
		in:          in,
		out:         out,
		transcriber: speech.PlaceholderTranscriber{},
	}
	if a.cfg.Speech.RecordCommand != "" {
		if t.recorder, err = speech.NewCommandRecorder(a.cfg.Speech.RecordCommand); err != nil {
			return fmt.Errorf("invalid RECORD_COMMAND: %w", err)
		}
	}

	if err := t.run(ctx); err != nil {
		return err
	}

	if chatExport {
		if sess.State() != session.StateCompleted {
			fmt.Fprintln(out, "面试未结束，未导出。")
			return nil
		}
		path, err := storage.NewStore(a.cfg.ResultsDir).SaveResult(storage.FromSession(sess))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "已导出：%s\n", path)
	}
	return nil
}

// collectContext fills the interview details from flags, files and, for
// whatever is still missing, interactive prompts.
func collectContext(in *bufio.Reader, out io.Writer) (session.ContextInput, error) {
	input := session.ContextInput{
		Credential:     chatAPIKey,
		TargetPosition: chatPosition,
		TargetCompany:  chatCompany,
	}

	var err error
	if input.ResumeText, err = readOptionalFile(chatResumeFile); err != nil {
		return input, err
	}
	if input.JobDescription, err = readOptionalFile(chatJDFile); err != nil {
		return input, err
	}

	fields := []struct {
		label string
		dst   *string
	}{
		{"目标职位", &input.TargetPosition},
		{"目标公司", &input.TargetCompany},
		{"简历（单行）", &input.ResumeText},
		{"职位描述（单行）", &input.JobDescription},
	}
	for _, f := range fields {
		if strings.TrimSpace(*f.dst) != "" {
			continue
		}
		fmt.Fprintf(out, "%s：", f.label)
		line, err := readLine(in)
		if err != nil && !errors.Is(err, io.EOF) {
			return input, err
		}
		*f.dst = line
	}

	return input, nil
}

func readOptionalFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	return strings.TrimSpace(line), err
}

// terminal runs the interview loop on a line-oriented console.
type terminal struct {
	svc         *interviewer.Service
	sess        *session.Session
	in          *bufio.Reader
	out         io.Writer
	recorder    speech.Recorder
	transcriber speech.Transcriber
}

const chatHelp = `命令：
  /end     结束面试并生成报告
  /report  报告生成失败后重试
  /retry   重新发送上一条回答
  /voice   录音作答
  /quit    放弃面试并退出`

func (t *terminal) run(ctx context.Context) error {
	if last, ok := t.sess.Log().Last(); ok && last.Speaker == session.SpeakerAssistant {
		t.say(last.Content)
	}
	fmt.Fprintln(t.out, "\n(输入 /help 查看命令)")

	for {
		fmt.Fprint(t.out, "\n候选人> ")
		line, err := readLine(t.in)
		if errors.Is(err, io.EOF) && line == "" {
			fmt.Fprintln(t.out)
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		switch line {
		case "":
			continue
		case "/quit":
			return nil
		case "/help":
			fmt.Fprintln(t.out, chatHelp)
		case "/end":
			r, err := t.svc.Finish(ctx, t.sess)
			if t.showReport(r, err) {
				return nil
			}
		case "/report":
			r, err := t.svc.GenerateReport(ctx, t.sess)
			if t.showReport(r, err) {
				return nil
			}
		case "/retry":
			t.reply(t.svc.Retry(ctx, t.sess))
		case "/voice":
			t.voice(ctx)
		default:
			t.reply(t.svc.Send(ctx, t.sess, line))
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (t *terminal) voice(ctx context.Context) {
	if t.recorder == nil {
		fmt.Fprintln(t.out, "录音不可用：未设置 RECORD_COMMAND。")
		return
	}

	fmt.Fprintln(t.out, "🎙 录音中...")
	audio, err := t.recorder.Record(ctx)
	if err == nil {
		var text string
		if text, err = t.transcriber.Transcribe(ctx, audio); err == nil {
			t.heard(ctx, text)
			return
		}
	}
	fmt.Fprintf(t.out, "❌ %v，请用文字作答。\n", err)
}

// heard answers with a transcript unless speech-to-text is not implemented yet.
func (t *terminal) heard(ctx context.Context, text string) {
	if text == speech.PlaceholderTranscript {
		fmt.Fprintln(t.out, text+" 请用文字作答。")
		return
	}
	fmt.Fprintf(t.out, "识别结果：%s\n", text)
	t.reply(t.svc.Send(ctx, t.sess, text))
}

// showReport prints the report and reports whether the interview is over.
func (t *terminal) showReport(r *report.Report, err error) bool {
	if err != nil {
		t.fail(err)
		if t.sess.State() == session.StateCompleted {
			fmt.Fprintln(t.out, "输入 /report 重试生成报告，或 /quit 退出。")
		}
		return false
	}
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, report.Render(r))
	return true
}

func (t *terminal) reply(turn session.Turn, err error) {
	if err != nil {
		t.fail(err)
		return
	}
	t.say(turn.Content)
}

func (t *terminal) say(content string) {
	fmt.Fprintf(t.out, "\n面试官：%s\n", content)
}

func (t *terminal) fail(err error) {
	fmt.Fprintf(t.out, "❌ %v\n", err)

	var trErr *session.TransitionError
	switch {
	case errors.As(err, &trErr):
		fmt.Fprintln(t.out, "当前状态不允许该操作。")
	case t.sess.State() == session.StateInProgress && !errors.Is(err, interviewer.ErrEmptyMessage) &&
		!errors.Is(err, interviewer.ErrNothingToRetry):
		fmt.Fprintln(t.out, "输入 /retry 重新发送。")
	}
}
