// Package chat uploads ordinary group messages to the expense backend. The
// settlement computation draws its expense data from this message history,
// keyed by the same member ids the group directory assigns.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Message is one chat line as the expense backend ingests it.
type Message struct {
	GroupID   int64  `json:"groupId"`
	Timestamp string `json:"timestamp"`
	MemberID  int64  `json:"memberId"`
	Message   string `json:"message"`
}

// StatusError reports a non-200 response from the chat backend.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat backend returned status %d", e.StatusCode)
}

// Client represents a chat backend client
type Client struct {
	BaseURL    string
	httpClient *http.Client
}

// NewClient creates a new chat backend client.
func NewClient(baseURL string, requestTimeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Upload sends messages to the chat backend. The wire format is a JSON
// array even for a single message.
func (c *Client) Upload(ctx context.Context, messages []Message) error {
	body, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal chat messages: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/upload", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}
