package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/logger"
)

// LogSender writes notifications to the log. Used when no delivery webhook is configured.
type LogSender struct {
	logger *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{logger: log.Named("notifications")}
}

func (s *LogSender) Send(ctx context.Context, n domain.Notification) error {
	s.logger.Info("Notification",
		zap.String("id", n.ID),
		zap.String("kind", string(n.Kind)),
		zap.String("user_id", n.UserID),
		zap.String("event_id", n.EventID),
		zap.Any("data", n.Data))
	return nil
}

// WebhookSender posts each notification as JSON to the email/push relay
type WebhookSender struct {
	url        string
	httpClient *http.Client
}

func NewWebhookSender(url string) *WebhookSender {
	return &WebhookSender{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *WebhookSender) Send(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", n.ID)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notification relay unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification relay returned status %d", resp.StatusCode)
	}
	return nil
}
