package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client talks to the external text-to-signal service that turns raw chat
// messages into typed signals. The extraction itself (prompting, model
// choice) is entirely the service's concern.
type Client struct {
	host       string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("extract API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host string) *Client {
	host = strings.TrimRight(host, "/")
	return &Client{
		host:       host,
		httpClient: httpClient,
	}
}

// TakeProfitLeg is one take-profit target in series order.
type TakeProfitLeg struct {
	SeriesNum int    `json:"seriesNum"`
	Price     string `json:"price"`
}

// ExtractedSignal is the typed result for a message that is a complete
// trade signal. All prices are decimal strings.
type ExtractedSignal struct {
	Asset          string          `json:"asset"`
	TradeType      string          `json:"tradeType"`
	Leverage       int             `json:"leverage"`
	BalancePct     string          `json:"balancePct"`
	EntryPrice     string          `json:"entryPrice"`
	EntryOrderType string          `json:"entryOrderType"`
	StopLoss       string          `json:"stopLoss"`
	TakeProfits    []TakeProfitLeg `json:"takeProfits"`
}

type extractRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type extractResponse struct {
	Signal bool             `json:"signal"`
	Data   *ExtractedSignal `json:"data"`
}

// Extract classifies and parses a chat message. A (nil, nil) return is the
// "not a signal" sentinel: the message was understood and is not a trade
// signal.
func (c *Client) Extract(ctx context.Context, channel, text string) (*ExtractedSignal, error) {
	if c == nil || c.host == "" {
		return nil, fmt.Errorf("extract client not configured")
	}

	body, err := json.Marshal(extractRequest{Channel: channel, Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal extract request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/extract", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create extract request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extract request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read extract response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var parsed extractResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode extract response: %w", err)
	}
	if !parsed.Signal || parsed.Data == nil {
		return nil, nil
	}
	return parsed.Data, nil
}
