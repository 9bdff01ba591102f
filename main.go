// Package main is the interviewpro command: an AI mock-interview assistant
// served over HTTP, the terminal or Telegram.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"interviewpro/internal/api"
	"interviewpro/internal/config"
	"interviewpro/internal/interviewer"
	"interviewpro/internal/metrics"
	"interviewpro/internal/observability"
	"interviewpro/internal/speech"
)

var rootCmd = &cobra.Command{
	Use:          "interviewpro",
	Short:        "AI mock-interview assistant",
	Long:         "InterviewPro runs mock job interviews against a chat-completion model and produces a scored assessment report.",
	SilenceUsage: true,
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the services every command shares.
type app struct {
	cfg       *config.AppConfig
	interview *config.Config
	metrics   *metrics.Metrics
	svc       *interviewer.Service
	closers   []func()
}

// bootstrap loads configuration and wires logging, telemetry and the interview service.
// Console logs go to logOut.
func bootstrap(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg := config.LoadAppConfig()
	if err := cfg.LLM.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("invalid LLM configuration: %w", err)
	}

	logger, closeLog, err := observability.InitLogger(cfg.Log, logOut)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a := &app{cfg: cfg, closers: []func(){closeLog}}

	tracer, meter, shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	a.closers = append(a.closers, shutdownTelemetry)

	a.metrics, err = metrics.NewMetrics(meter)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	a.interview, err = config.LoadOrDefault(cfg.InterviewConfigPath)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to load interview config: %w", err)
	}

	completer, err := api.NewClient(&cfg.LLM)
	if err != nil {
		a.close()
		return nil, err
	}

	a.svc = interviewer.New(completer, a.interview, &cfg.LLM, a.metrics, tracer)

	if cfg.Speech.SynthesizeCommand != "" {
		synth, err := speech.NewCommandSynthesizer(cfg.Speech.SynthesizeCommand)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("invalid SPEECH_COMMAND: %w", err)
		}
		a.svc.Subscribe(speech.Subscriber(synth, logger, 2*time.Minute))
	}

	logger.Info("interviewpro initialized",
		"model", cfg.LLM.GetModelInfo(),
		"report_variant", a.interview.GetVariant(),
		"report_scale", a.interview.GetScale(),
		"competencies", len(a.interview.GetCompetencies()),
		"telemetry", cfg.Telemetry.Enabled)

	return a, nil
}

// close runs the cleanup functions in reverse order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
