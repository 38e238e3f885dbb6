// Package payment talks to a Razorpay-compatible payment provider.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/service"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/errors"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/logger"
)

// DefaultBaseURL is the provider's public API endpoint
const DefaultBaseURL = "https://api.razorpay.com"

// SignatureHeader carries the webhook signature
const SignatureHeader = "X-Razorpay-Signature"

// Config holds the provider credentials
type Config struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	BaseURL       string
}

// Gateway implements service.PaymentGateway over the provider's REST API
type Gateway struct {
	cfg        Config
	httpClient *http.Client
	logger     *logger.Logger
}

var _ service.PaymentGateway = (*Gateway)(nil)

// NewGateway creates a new payment gateway client
func NewGateway(cfg Config, log *logger.Logger) *Gateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Gateway{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: log.Named("payment"),
	}
}

// ToMinorUnits converts a major-unit amount to the integer minor units used on the wire
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinorUnits converts wire minor units back to major units
func FromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID       string          `json:"id"`
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	Receipt  string          `json:"receipt"`
	Status   string          `json:"status"`
	Notes    json.RawMessage `json:"notes"`
}

// notes decodes the order notes. The provider sends an empty array, not an
// object, when an order has none.
func (o *orderResponse) notes() map[string]string {
	notes := map[string]string{}
	if len(o.Notes) > 0 && o.Notes[0] == '{' {
		_ = json.Unmarshal(o.Notes, &notes)
	}
	return notes
}

func (g *Gateway) toOrder(o *orderResponse) *domain.PaymentOrder {
	return &domain.PaymentOrder{
		OrderID:  o.ID,
		Amount:   FromMinorUnits(o.Amount),
		Currency: o.Currency,
		KeyID:    g.cfg.KeyID,
		Receipt:  o.Receipt,
		Notes:    o.notes(),
	}
}

type paymentResponse struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder opens an order for amount in major currency units
func (g *Gateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string, notes map[string]string) (*domain.PaymentOrder, error) {
	body := orderRequest{
		Amount:   ToMinorUnits(amount),
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	}

	var order orderResponse
	if err := g.do(ctx, http.MethodPost, "/v1/orders", body, &order); err != nil {
		return nil, err
	}

	g.logger.Debug("Order created", zap.String("order_id", order.ID), zap.Int64("amount_minor", order.Amount))
	return g.toOrder(&order), nil
}

// FetchOrder retrieves an order with its notes
func (g *Gateway) FetchOrder(ctx context.Context, orderID string) (*domain.PaymentOrder, error) {
	var order orderResponse
	if err := g.do(ctx, http.MethodGet, "/v1/orders/"+url.PathEscape(orderID), nil, &order); err != nil {
		return nil, err
	}
	return g.toOrder(&order), nil
}

// FetchPayment retrieves the provider's record of a payment
func (g *Gateway) FetchPayment(ctx context.Context, paymentID string) (*domain.PaymentDetails, error) {
	var p paymentResponse
	if err := g.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, &p); err != nil {
		return nil, err
	}
	return &domain.PaymentDetails{
		ID:       p.ID,
		OrderID:  p.OrderID,
		Status:   p.Status,
		Amount:   FromMinorUnits(p.Amount),
		Currency: p.Currency,
	}, nil
}

// VerifySignature checks hex(HMAC-SHA256(orderID|paymentID)) under the key secret
func (g *Gateway) VerifySignature(orderID, paymentID, signature string) bool {
	if g.cfg.KeySecret == "" {
		return false
	}
	return verify([]byte(orderID+"|"+paymentID), g.cfg.KeySecret, signature)
}

// VerifyWebhookSignature checks hex(HMAC-SHA256(body)) under the webhook secret
func (g *Gateway) VerifyWebhookSignature(body []byte, signature string) bool {
	if g.cfg.WebhookSecret == "" {
		return false
	}
	return verify(body, g.cfg.WebhookSecret, signature)
}

// Sign returns the hex HMAC-SHA256 of payload under secret
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func verify(payload []byte, secret, signature string) bool {
	expected, err := hex.DecodeString(Sign(payload, secret))
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	return hmac.Equal(expected, got)
}

func (g *Gateway) do(ctx context.Context, method, path string, in, out interface{}) error {
	if g.cfg.KeyID == "" || g.cfg.KeySecret == "" {
		return errors.NewExternalError("Payment provider is not configured", nil)
	}

	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.NewInternalError("Failed to encode payment request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.cfg.BaseURL+path, reader)
	if err != nil {
		return errors.NewInternalError("Failed to create payment request", err)
	}
	req.SetBasicAuth(g.cfg.KeyID, g.cfg.KeySecret)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Error("Payment provider unreachable", zap.String("path", path), zap.Error(err))
		return errors.NewExternalError("Payment provider unreachable", err)
	}
	defer resp.Body.Close()

	g.logger.Debug("Payment provider call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(body, &apiErr)
		g.logger.Warn("Payment provider returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("code", apiErr.Error.Code),
			zap.String("description", apiErr.Error.Description))

		msg := "Payment provider rejected the request"
		if apiErr.Error.Description != "" {
			msg = apiErr.Error.Description
		}
		if resp.StatusCode == http.StatusNotFound {
			return errors.NewNotFoundError("Payment not found")
		}
		return errors.NewExternalError(msg, fmt.Errorf("provider status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewExternalError("Failed to decode payment provider response", err)
	}
	return nil
}
