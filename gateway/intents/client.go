// Package intents forwards swap orders to the external routing service. The
// service reports outcomes asynchronously through the node's swap callback
// method; this client only hands the intent over.
package intents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"nusdcore/native/cdp"
	"nusdcore/observability"
)

// Client is an HTTP client for the swap routing service.
type Client struct {
	baseURL   string
	authToken string
	http      *http.Client
	log       *slog.Logger
}

type swapIntent struct {
	RequestID   string `json:"requestId"`
	Caller      string `json:"caller"`
	InputToken  string `json:"inputToken"`
	OutputToken string `json:"outputToken"`
	AmountIn    string `json:"amountIn"`
	MinOut      string `json:"minOut,omitempty"`
	RoutingHint string `json:"routingHint,omitempty"`
}

// NewClient builds a routing client for the service at baseURL.
func NewClient(baseURL, authToken string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		authToken: strings.TrimSpace(authToken),
		http:      &http.Client{Timeout: timeout},
		log:       log.With("component", "swap-intents"),
	}
}

// ExecuteSwap submits the swap intent for routing. A missing request ID is
// filled with a fresh UUID before dispatch.
func (c *Client) ExecuteSwap(ctx context.Context, req cdp.SwapRequest) error {
	if c.baseURL == "" {
		return fmt.Errorf("swap intents: base URL not configured")
	}
	requestID := strings.TrimSpace(req.RequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	intent := swapIntent{
		RequestID:   requestID,
		Caller:      req.Caller.String(),
		InputToken:  req.InputToken,
		OutputToken: req.OutputToken,
		RoutingHint: req.RoutingHint,
	}
	if req.AmountIn != nil {
		intent.AmountIn = req.AmountIn.String()
	}
	if req.MinOut != nil {
		intent.MinOut = req.MinOut.String()
	}

	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("swap intents: encode intent: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/intents", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("swap intents: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		observability.Events().RecordSwap("dispatch_error")
		c.log.Error("swap intent dispatch failed", "request", requestID, "error", err)
		return fmt.Errorf("swap intents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		observability.Events().RecordSwap("rejected")
		c.log.Error("swap intent rejected", "request", requestID, "status", resp.StatusCode)
		return fmt.Errorf("swap intents: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	observability.Events().RecordSwap("accepted")
	c.log.Info("swap intent dispatched", "request", requestID,
		"inputToken", req.InputToken, "outputToken", req.OutputToken)
	return nil
}
