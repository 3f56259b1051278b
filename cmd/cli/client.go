package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/thereceipt/kot-bridge/internal/dispatch"
)

// Client talks to the bridge service HTTP API
type Client struct {
	http *resty.Client
}

func NewClient(serverURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimSuffix(serverURL, "/")).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
	}
}

type errorBody struct {
	Error string `json:"error"`
}

type bridgeState struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

type printerList struct {
	Printers []string `json:"printers"`
	Selected string   `json:"selected"`
}

type jobList struct {
	Jobs []dispatch.Outcome `json:"jobs"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, result any) error {
	req := c.http.R().SetContext(ctx).SetResult(result).SetError(&errorBody{})
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	if resp.IsError() {
		if e, ok := resp.Error().(*errorBody); ok && e.Error != "" {
			return errors.New(e.Error)
		}
		return fmt.Errorf("server returned %s", resp.Status())
	}
	return nil
}

func (c *Client) Bridge(ctx context.Context) (bridgeState, error) {
	var out bridgeState
	err := c.do(ctx, "GET", "/bridge", nil, &out)
	return out, err
}

func (c *Client) Connect(ctx context.Context) (bridgeState, error) {
	var out bridgeState
	err := c.do(ctx, "POST", "/bridge/connect", nil, &out)
	return out, err
}

func (c *Client) Disconnect(ctx context.Context) (bridgeState, error) {
	var out bridgeState
	err := c.do(ctx, "POST", "/bridge/disconnect", nil, &out)
	return out, err
}

func (c *Client) Printers(ctx context.Context) (printerList, error) {
	var out printerList
	err := c.do(ctx, "GET", "/printers", nil, &out)
	return out, err
}

func (c *Client) Select(ctx context.Context, name string) error {
	return c.do(ctx, "POST", "/printers/select", map[string]string{"name": name}, &struct{}{})
}

func (c *Client) Print(ctx context.Context, order json.RawMessage) (dispatch.Outcome, error) {
	var out dispatch.Outcome
	err := c.do(ctx, "POST", "/print", order, &out)
	return out, err
}

func (c *Client) PrintOrder(ctx context.Context, id string) (dispatch.Outcome, error) {
	var out dispatch.Outcome
	err := c.do(ctx, "POST", "/orders/"+id+"/print", nil, &out)
	return out, err
}

func (c *Client) Jobs(ctx context.Context) ([]dispatch.Outcome, error) {
	var out jobList
	err := c.do(ctx, "GET", "/jobs", nil, &out)
	return out.Jobs, err
}

func (c *Client) Job(ctx context.Context, id string) (dispatch.Outcome, error) {
	var out dispatch.Outcome
	err := c.do(ctx, "GET", "/job/"+id, nil, &out)
	return out, err
}

func (c *Client) ClearJobs(ctx context.Context) error {
	return c.do(ctx, "DELETE", "/jobs", nil, &struct{}{})
}
