package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"interviewpro/internal/observability"
	"interviewpro/internal/ratelimit"
	"interviewpro/internal/session"
	"interviewpro/internal/telegram"
)

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Run the Telegram bot",
	RunE:  runTelegram,
}

func init() {
	rootCmd.AddCommand(telegramCmd)
}

func runTelegram(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, os.Stdout)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	if a.cfg.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is not set")
	}

	bot := telegram.New(a.cfg.Telegram.Token)
	handler := telegram.NewHandler(bot, a.svc, session.NewStore(a.cfg.Server.SessionIdleTTL),
		a.cfg.LLM.APIKey, ratelimit.New(10, time.Minute))
	go handler.RunCleanup(ctx, time.Hour)

	observability.Logger().Info("telegram bot polling")
	if err := bot.StartPolling(ctx, handler.HandleUpdate); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
