// Package collateral dispatches collateral payout requests to the external
// custody service. The engine commits its state before asking for the payout,
// so delivery failures are surfaced to the caller and logged but never rolled
// back.
package collateral

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"nusdcore/crypto"
	"nusdcore/observability"
)

// Dispatcher is an HTTP client for the collateral custody service.
type Dispatcher struct {
	baseURL   string
	authToken string
	http      *http.Client
	log       *slog.Logger
}

// transferRequest is the wire payload accepted by the custody service.
type transferRequest struct {
	RequestID string `json:"requestId"`
	Asset     string `json:"asset"`
	To        string `json:"to"`
	Amount    string `json:"amount"`
}

// NewDispatcher builds a dispatcher for the custody service at baseURL. An
// empty authToken disables the bearer header.
func NewDispatcher(baseURL, authToken string, timeout time.Duration, log *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		authToken: strings.TrimSpace(authToken),
		http:      &http.Client{Timeout: timeout},
		log:       log.With("component", "collateral-dispatcher"),
	}
}

// Transfer asks the custody service to deliver collateral to the recipient.
// The request carries a fresh idempotency key so the service can deduplicate
// retries.
func (d *Dispatcher) Transfer(asset string, to crypto.Address, amount *big.Int) error {
	if d.baseURL == "" {
		return fmt.Errorf("collateral dispatcher: base URL not configured")
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("collateral dispatcher: amount must be positive")
	}

	requestID := uuid.NewString()
	payload, err := json.Marshal(transferRequest{
		RequestID: requestID,
		Asset:     asset,
		To:        to.String(),
		Amount:    amount.String(),
	})
	if err != nil {
		return fmt.Errorf("collateral dispatcher: encode request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, d.baseURL+"/transfers", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("collateral dispatcher: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+d.authToken)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		d.log.Error("collateral transfer dispatch failed",
			"request", requestID, "asset", asset, "error", err)
		return fmt.Errorf("collateral dispatcher: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		d.log.Error("collateral transfer rejected",
			"request", requestID, "asset", asset, "status", resp.StatusCode)
		return fmt.Errorf("collateral dispatcher: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	observability.Events().RecordPayout(asset)
	d.log.Info("collateral transfer dispatched",
		"request", requestID, "asset", asset, "amount", amount.String())
	return nil
}
