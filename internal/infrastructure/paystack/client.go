// Package paystack is a minimal client for the Paystack transaction API:
// initialize a hosted payment, verify it by reference and authenticate
// webhook deliveries.
package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"linkmart/internal/config"
)

// SignatureHeader carries the hex HMAC-SHA512 of the raw webhook body.
const SignatureHeader = "X-Paystack-Signature"

const (
	EventChargeSuccess      = "charge.success"
	EventTransactionSuccess = "transaction.success"
	StatusSuccess           = "success"
)

var (
	ErrMalformedResponse = errors.New("paystack: malformed response")
	ErrRejected          = errors.New("paystack: request rejected")
)

type Client struct {
	baseURL     string
	secretKey   string
	callbackURL string
	httpClient  *http.Client
}

func NewClient(cfg *config.PaystackConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:   cfg.SecretKey,
		callbackURL: cfg.CallbackURL,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type InitializeRequest struct {
	Email string
	// AmountMinor is in the smallest currency unit (kobo for NGN).
	AmountMinor int64
	Reference   string
	Currency    string
}

type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type Verification struct {
	Reference     string
	Status        string
	AmountMinor   int64
	Currency      string
	CustomerEmail string
}

func (v *Verification) Succeeded() bool {
	return v.Status == StatusSuccess
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type transactionData struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Customer  struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// Initialize creates a hosted payment page for req.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	payload := map[string]interface{}{
		"email":     req.Email,
		"amount":    req.AmountMinor,
		"reference": req.Reference,
	}
	if req.Currency != "" {
		payload["currency"] = req.Currency
	}
	if c.callbackURL != "" {
		payload["callback_url"] = c.callbackURL
	}

	var result InitializeResult
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", payload, &result); err != nil {
		return nil, err
	}
	if result.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: no authorization_url", ErrMalformedResponse)
	}
	if result.Reference == "" {
		result.Reference = req.Reference
	}
	return &result, nil
}

// Verify fetches the final state of a charge.
func (c *Client) Verify(ctx context.Context, reference string) (*Verification, error) {
	var data transactionData
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &data); err != nil {
		return nil, err
	}
	if data.Status == "" {
		return nil, fmt.Errorf("%w: no status", ErrMalformedResponse)
	}
	if data.Reference == "" {
		data.Reference = reference
	}
	return &Verification{
		Reference:     data.Reference,
		Status:        data.Status,
		AmountMinor:   data.Amount,
		Currency:      data.Currency,
		CustomerEmail: data.Customer.Email,
	}, nil
}

// VerifySignature checks a webhook signature against the raw request body.
func (c *Client) VerifySignature(body []byte, signature string) bool {
	if c.secretKey == "" || signature == "" {
		return false
	}
	expected := Sign(c.secretKey, body)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// Sign returns the hex HMAC-SHA512 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// WebhookEvent is the subset of a webhook payload the ledger needs.
type WebhookEvent struct {
	Event string
	Data  Verification
}

func (e *WebhookEvent) IsSuccessEvent() bool {
	return e.Event == EventChargeSuccess || e.Event == EventTransactionSuccess
}

func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var raw struct {
		Event string          `json:"event"`
		Data  transactionData `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &WebhookEvent{
		Event: raw.Event,
		Data: Verification{
			Reference:     raw.Data.Reference,
			Status:        raw.Data.Status,
			AmountMinor:   raw.Data.Amount,
			Currency:      raw.Data.Currency,
			CustomerEmail: raw.Data.Customer.Email,
		},
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paystack %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("paystack read body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: status %d", ErrMalformedResponse, resp.StatusCode)
	}
	if resp.StatusCode >= 300 || !env.Status {
		return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, env.Message)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: empty data", ErrMalformedResponse)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
