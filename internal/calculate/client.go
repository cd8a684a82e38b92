// Package calculate drives one settlement computation against the remote
// calculate service: submit the request, poll until it finishes under a
// wall-clock budget, and deliver the outcome to the requesting chat room.
package calculate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/models"
)

// Client represents a calculate service client
type Client struct {
	BaseURL    string
	httpClient *http.Client
}

// NewClient creates a new calculate service client. requestTimeout bounds
// every individual request, including each poll attempt.
func NewClient(baseURL string, requestTimeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type startResponse struct {
	CalculateID string `json:"calculateId"`
}

// StartCalculation submits a calculation request and returns the job id.
func (c *Client) StartCalculation(ctx context.Context, req models.CalculationRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal calculation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/start", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create start request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("start request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read start response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("calculate service returned status %d. Body: %s", resp.StatusCode, string(respBody))
	}

	var result startResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal start response: %v, body: %s", err, string(respBody))
	}
	if result.CalculateID == "" {
		return "", fmt.Errorf("calculate service returned no calculateId")
	}
	return result.CalculateID, nil
}

// FetchBriefResult issues one bounded poll for the brief result of a job. A
// 202 means still computing and returns a nil result; a 200 returns the
// parsed result. Any other status is reported through the status code alone.
func (c *Client) FetchBriefResult(ctx context.Context, calculateID string) (int, *models.TransferResult, error) {
	url := fmt.Sprintf("%s/%s/brief-result", c.BaseURL, calculateID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create brief-result request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("brief-result request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil, nil
	}

	var result models.TransferResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to unmarshal brief result: %w", err)
	}
	return resp.StatusCode, &result, nil
}
