// Package xendit issues QRIS payments through the Xendit QR code API.
package xendit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/MrJamesThe3rd/photobox/internal/apperror"
	"github.com/MrJamesThe3rd/photobox/internal/metrics"
	"github.com/MrJamesThe3rd/photobox/internal/transaction"
)

const expiresAtLayout = "2006-01-02T15:04:05.000Z"

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// MaxRetries bounds status query retries. Payment creation is never retried.
	MaxRetries uint64
}

type Client struct {
	baseURL    string
	apiKey     string
	client     *http.Client
	breaker    *gobreaker.CircuitBreaker
	metrics    *metrics.Metrics
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

type Option func(*Client)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) { c.newBackOff = newBackOff }
}

func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = timeout

			return b
		},
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "xendit",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		// A rejected request says nothing about provider health.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < http.StatusInternalServerError
			}

			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// StatusError is a non-200 answer from the provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("xendit returned status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return apperror.ErrUpstream }

func (e *StatusError) retryable() bool {
	return e.Code >= http.StatusInternalServerError || e.Code == http.StatusTooManyRequests
}

type createQRRequest struct {
	ExternalID  string      `json:"external_id"`
	Type        string      `json:"type"`
	Amount      json.Number `json:"amount"`
	CallbackURL string      `json:"callback_url"`
	ExpiresAt   string      `json:"expires_at"`
}

type qrCode struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	QRString   string `json:"qr_string"`
	Status     string `json:"status"`
}

// CreateQRPayment issues one dynamic QR code. It is called exactly once per
// transaction and never retried, so a lost response cannot produce a second
// payable code.
func (c *Client) CreateQRPayment(ctx context.Context, req transaction.QRRequest) (*transaction.QRPayment, error) {
	body := createQRRequest{
		ExternalID:  req.ExternalID,
		Type:        "DYNAMIC",
		Amount:      json.Number(req.Amount.String()),
		CallbackURL: req.CallbackURL,
		ExpiresAt:   req.ExpiresAt.UTC().Format(expiresAtLayout),
	}

	started := time.Now()

	var qr qrCode

	err := c.do(ctx, http.MethodPost, "/qr_codes", body, &qr)
	c.metrics.ProviderRequest("create_qr", started, err)

	if err != nil {
		slog.Error("failed to create QR code", "external_id", req.ExternalID, "error", err)
		return nil, err
	}

	slog.Info("QR code created", "external_id", req.ExternalID, "provider_payment_id", qr.ID)

	return &transaction.QRPayment{PaymentID: qr.ID, QRString: qr.QRString}, nil
}

type qrPayments struct {
	Data []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"data"`
}

// QueryStatus reads the current state of a QR code, retrying transport
// errors and 5xx answers. A dynamic QR code turns INACTIVE both when paid and
// when expired, so an inactive code is resolved through its payments.
func (c *Client) QueryStatus(ctx context.Context, paymentID string) (transaction.Status, error) {
	started := time.Now()
	status, err := c.queryStatus(ctx, paymentID)
	c.metrics.ProviderRequest("query_status", started, err)

	return status, err
}

func (c *Client) queryStatus(ctx context.Context, paymentID string) (transaction.Status, error) {
	path := "/qr_codes/" + url.PathEscape(paymentID)

	var qr qrCode
	if err := c.getWithRetry(ctx, path, &qr); err != nil {
		return "", err
	}

	if !strings.EqualFold(qr.Status, "INACTIVE") {
		status, ok := MapStatus(qr.Status)
		if !ok {
			return "", apperror.Upstream("unknown QR code status", fmt.Errorf("status %q", qr.Status))
		}

		return status, nil
	}

	var payments qrPayments
	if err := c.getWithRetry(ctx, path+"/payments", &payments); err != nil {
		return "", err
	}

	for _, p := range payments.Data {
		if status, ok := MapStatus(p.Status); ok && status == transaction.StatusCompleted {
			return transaction.StatusCompleted, nil
		}
	}

	return transaction.StatusExpired, nil
}

func (c *Client) getWithRetry(ctx context.Context, path string, out any) error {
	op := func() error {
		err := c.do(ctx, http.MethodGet, path, nil, out)

		var se *StatusError
		if errors.As(err, &se) && !se.retryable() {
			return backoff.Permanent(err)
		}

		if errors.Is(err, gobreaker.ErrOpenState) {
			return backoff.Permanent(err)
		}

		return err
	}

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx))
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, path, in, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperror.Upstream("payment provider unavailable", err)
	}

	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader

	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}

		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", "application/json")

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apperror.Upstream("failed to reach payment provider", err)
	}
	defer resp.Body.Close()

	// Xendit answers 201 Created for new QR codes.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: string(b)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperror.Upstream("failed to decode provider response", err)
	}

	return nil
}

// MapStatus translates a provider status into a transaction status. It
// accepts both QR code states and payment callback states.
func MapStatus(s string) (transaction.Status, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "COMPLETED", "SUCCEEDED", "PAID":
		return transaction.StatusCompleted, true
	case "ACTIVE", "PENDING":
		return transaction.StatusPending, true
	case "INACTIVE", "EXPIRED":
		return transaction.StatusExpired, true
	case "FAILED":
		return transaction.StatusFailed, true
	}

	return "", false
}
