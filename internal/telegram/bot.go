package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"interviewpro/internal/observability"
)

const (
	defaultAPIURL = "https://api.telegram.org"
	pollTimeout   = 30
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// New creates a bot for the given token.
func New(token string) *Bot {
	return newBot(fmt.Sprintf("%s/bot%s", defaultAPIURL, token), &http.Client{
		Timeout: (pollTimeout + 10) * time.Second,
	})
}

func newBot(baseURL string, client httpDoer) *Bot {
	return &Bot{baseURL: baseURL, client: client}
}

// GetUpdates long-polls for updates starting at offset.
func (b *Bot) GetUpdates(ctx context.Context, offset int) ([]Update, error) {
	endpoint := fmt.Sprintf("%s/getUpdates?offset=%d&timeout=%d", b.baseURL, offset, pollTimeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build getUpdates request: %w", redact(err))
	}

	var response GetUpdatesResponse
	if err := b.do(req, &response); err != nil {
		return nil, fmt.Errorf("getUpdates: %w", err)
	}

	if !response.OK {
		return nil, fmt.Errorf("getUpdates rejected: %s", response.Description)
	}

	return response.Result, nil
}

// SendMessage sends plain text to a chat.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	jsonData, err := json.Marshal(SendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode sendMessage request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/sendMessage", bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to build sendMessage request: %w", redact(err))
	}
	req.Header.Set("Content-Type", "application/json")

	var response SendMessageResponse
	if err := b.do(req, &response); err != nil {
		return fmt.Errorf("sendMessage: %w", err)
	}

	if !response.OK {
		return fmt.Errorf("sendMessage rejected: %s", response.Description)
	}

	return nil
}

func (b *Bot) do(req *http.Request, out any) error {
	resp, err := b.client.Do(req)
	if err != nil {
		return redact(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	return nil
}

// redact drops the request URL, which carries the bot token, from transport errors.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s request failed: %w", urlErr.Op, urlErr.Err)
	}
	return err
}

// StartPolling delivers updates to handler until ctx is cancelled.
// Chats are handled concurrently; each chat sees its updates in order.
func (b *Bot) StartPolling(ctx context.Context, handler func(context.Context, Update)) error {
	d := newDispatcher(handler)
	offset := 0

	for {
		updates, err := b.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			observability.Logger().Warn("failed to get updates", "error", err)
			if !sleep(ctx, 5*time.Second) {
				return ctx.Err()
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			d.dispatch(ctx, update)
		}

		if len(updates) == 0 && !sleep(ctx, time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
