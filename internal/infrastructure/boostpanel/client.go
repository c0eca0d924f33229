// Package boostpanel talks to the SMM panel that fulfils automatic boosts.
// The panel answers with loosely typed JSON (order ids arrive as numbers or
// strings, errors as {"error": "..."} with a 200), so responses are read with
// gjson instead of fixed structs.
package boostpanel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"linkmart/internal/config"
)

var (
	ErrPanel             = errors.New("boost panel error")
	ErrMalformedResponse = errors.New("boost panel: malformed response")
)

type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg *config.BoostPanelConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		apiURL:     cfg.APIURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ServiceInfo is one entry of the panel catalogue.
type ServiceInfo struct {
	ServiceID string `json:"service"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Category  string `json:"category"`
	Rate      string `json:"rate"`
	Min       int64  `json:"min"`
	Max       int64  `json:"max"`
}

// OrderStatus is the panel's view of a placed order.
type OrderStatus struct {
	OrderID    string `json:"order"`
	Status     string `json:"status"`
	Charge     string `json:"charge"`
	StartCount int64  `json:"start_count"`
	Remains    int64  `json:"remains"`
}

// Completed and Failed classify the panel's free-form status strings.
func (s *OrderStatus) Completed() bool {
	return s.Status == "Completed"
}

func (s *OrderStatus) Failed() bool {
	return s.Status == "Canceled" || s.Status == "Cancelled" || s.Status == "Refunded"
}

func (c *Client) Services(ctx context.Context) ([]ServiceInfo, error) {
	res, err := c.call(ctx, map[string]interface{}{"action": "services"})
	if err != nil {
		return nil, err
	}
	if !res.IsArray() {
		return nil, fmt.Errorf("%w: services is not a list", ErrMalformedResponse)
	}

	var out []ServiceInfo
	res.ForEach(func(_, item gjson.Result) bool {
		out = append(out, ServiceInfo{
			ServiceID: item.Get("service").String(),
			Name:      item.Get("name").String(),
			Type:      item.Get("type").String(),
			Category:  item.Get("category").String(),
			Rate:      item.Get("rate").String(),
			Min:       item.Get("min").Int(),
			Max:       item.Get("max").Int(),
		})
		return true
	})
	return out, nil
}

// AddOrder places an order and returns the panel's order id.
func (c *Client) AddOrder(ctx context.Context, serviceID, link string, quantity int64) (string, error) {
	res, err := c.call(ctx, map[string]interface{}{
		"action":   "add",
		"service":  serviceID,
		"link":     link,
		"quantity": quantity,
	})
	if err != nil {
		return "", err
	}
	order := res.Get("order")
	if !order.Exists() || order.String() == "" {
		return "", fmt.Errorf("%w: no order id", ErrMalformedResponse)
	}
	return order.String(), nil
}

func (c *Client) OrderStatus(ctx context.Context, orderID string) (*OrderStatus, error) {
	res, err := c.call(ctx, map[string]interface{}{
		"action": "status",
		"order":  orderID,
	})
	if err != nil {
		return nil, err
	}
	status := res.Get("status")
	if !status.Exists() {
		return nil, fmt.Errorf("%w: no status", ErrMalformedResponse)
	}
	return &OrderStatus{
		OrderID:    orderID,
		Status:     status.String(),
		Charge:     res.Get("charge").String(),
		StartCount: res.Get("start_count").Int(),
		Remains:    res.Get("remains").Int(),
	}, nil
}

func (c *Client) call(ctx context.Context, params map[string]interface{}) (gjson.Result, error) {
	params["key"] = c.apiKey
	buf, err := json.Marshal(params)
	if err != nil {
		return gjson.Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(buf))
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("boost panel %s: %w", params["action"], err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("boost panel read body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return gjson.Result{}, fmt.Errorf("%w: http %d", ErrPanel, resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: invalid json", ErrMalformedResponse)
	}

	res := gjson.ParseBytes(body)
	if msg := res.Get("error"); msg.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrPanel, msg.String())
	}
	return res, nil
}
