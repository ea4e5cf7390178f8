// Package sms delivers login codes by text message.
package sms

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://sender.ge/api/send.php"
	defaultTimeout = 15 * time.Second
	messagePrefix  = "Your verification code is: "
)

// Sender dispatches an OTP to a phone number.
type Sender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// SenderGEClient sends messages through the sender.ge HTTP API. The API is a
// single GET with the key and message in the query string.
type SenderGEClient struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewSenderGEClient returns a client for the given API key and optional base URL.
func NewSenderGEClient(apiKey, baseURL string, timeout time.Duration) *SenderGEClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &SenderGEClient{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// SendOTP sends "Your verification code is: <code>" to phone. The code is
// never logged.
func (c *SenderGEClient) SendOTP(ctx context.Context, phone, code string) error {
	if c.APIKey == "" {
		return fmt.Errorf("sms: API key not configured")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("sms: invalid base url: %w", err)
	}
	q := u.Query()
	q.Set("apikey", c.APIKey)
	q.Set("smsno", "1")
	q.Set("destination", phone)
	q.Set("content", messagePrefix+code)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sms: request failed status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}

// LogSender stands in when delivery is disabled. The code is only written at
// debug level so local logins remain possible.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) SendOTP(ctx context.Context, phone, code string) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "sms: delivery disabled", "phone", phone)
	logger.DebugContext(ctx, "sms: undelivered code", "phone", phone, "code", code)
	return nil
}
