// Package orders fetches orders from the POS REST API
package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/thereceipt/kot-bridge/pkg/kotformat"
	"go.uber.org/zap"
)

var (
	ErrMissingOrderID = errors.New("order id is required")
	ErrOrderNotFound  = errors.New("order not found")
)

type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("orders api error: %s", e.Status)
	}
	return fmt.Sprintf("orders api error: %s: %s", e.Status, e.Body)
}

type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout).
		SetRetryCount(1).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp != nil && resp.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{
		http:   httpClient,
		logger: logger,
	}
}

// Get fetches one order. The API answers with the order itself or wraps it
// in {"data": ...}.
func (c *Client) Get(ctx context.Context, id string) (kotformat.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return kotformat.Order{}, ErrMissingOrderID
	}

	resp, err := c.http.R().
		SetContext(ctx).
		Get("/orders/" + url.PathEscape(id))
	if err != nil {
		return kotformat.Order{}, fmt.Errorf("orders request: %w", err)
	}
	if resp.IsError() {
		return kotformat.Order{}, apiErrorFromResponse(resp)
	}

	order, err := decodeOrder(resp.Body())
	if err != nil {
		return kotformat.Order{}, err
	}

	c.logger.Debug("order fetched", zap.String("order_id", order.ID), zap.Int("items", len(order.Items)))
	return order, nil
}

func decodeOrder(body []byte) (kotformat.Order, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return kotformat.Order{}, fmt.Errorf("decode order: %w", err)
	}

	raw := body
	if trimmed := bytes.TrimSpace(envelope.Data); len(trimmed) > 0 && trimmed[0] == '{' {
		raw = trimmed
	}

	var order kotformat.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return kotformat.Order{}, fmt.Errorf("decode order: %w", err)
	}
	return order, nil
}

func apiErrorFromResponse(resp *resty.Response) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Body:       strings.TrimSpace(resp.String()),
	}

	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, apiErr.Error())
	}
	return apiErr
}
