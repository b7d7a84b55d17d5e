package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"inventory-service/internal/service"
)

// apiClient talks to the inventory service. Its Validate method satisfies
// scanner.Validator, so the session validates camera and manual payloads
// through the server exactly like the web UI does.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
	log     *zap.Logger
}

func newAPIClient(baseURL, token string, log *zap.Logger) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

func (c *apiClient) post(ctx context.Context, path string, body, out interface{}) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

// Validate resolves a payload via the server. Transport failures fail
// softly: the session treats them like any other invalid result.
func (c *apiClient) Validate(ctx context.Context, payload string) service.ValidationResult {
	var result service.ValidationResult
	status, err := c.post(ctx, "/api/scan/validate", map[string]string{"payload": payload}, &result)
	if err != nil {
		c.log.Warn("validation request failed", zap.Error(err))
		return service.ValidationResult{Valid: false, Reason: "validation error"}
	}
	if status != http.StatusOK {
		return service.ValidationResult{Valid: false, Reason: fmt.Sprintf("validation failed (HTTP %d)", status)}
	}
	return result
}

// Apply submits a stock transaction for the resolved product
func (c *apiClient) Apply(ctx context.Context, productID, txType string, quantity int) (*service.ApplyResult, error) {
	body := map[string]interface{}{
		"product_id":       productID,
		"transaction_type": txType,
		"quantity":         quantity,
	}
	var result service.ApplyResult
	status, err := c.post(ctx, "/api/transactions", body, &result)
	if err != nil {
		return nil, err
	}
	if status != http.StatusCreated {
		return nil, fmt.Errorf("transaction rejected (HTTP %d)", status)
	}
	return &result, nil
}
