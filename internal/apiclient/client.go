package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/user/remind-me/personal/internal/dto"
	apperrors "github.com/user/remind-me/personal/pkg/errors"
)

// Client talks to a running remind-me server, so tools sharing its storage
// change reminders through the process that owns them.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func New(baseURL, token string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		token:   token,
	}
}

// Ping reports whether the server answers its health check.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) CreateReminder(ctx context.Context, req dto.CreateReminderRequest) (dto.MutationResponse, error) {
	var resp dto.MutationResponse
	err := c.do(ctx, http.MethodPost, "/api/reminders", req, &resp)
	return resp, err
}

func (c *Client) UpdateReminder(ctx context.Context, id uuid.UUID, req dto.UpdateReminderRequest) (dto.MutationResponse, error) {
	var resp dto.MutationResponse
	err := c.do(ctx, http.MethodPatch, "/api/reminders/"+id.String(), req, &resp)
	return resp, err
}

func (c *Client) ToggleReminder(ctx context.Context, id uuid.UUID) (dto.MutationResponse, error) {
	var resp dto.MutationResponse
	err := c.do(ctx, http.MethodPost, "/api/reminders/"+id.String()+"/toggle", nil, &resp)
	return resp, err
}

// DeleteReminder reports whether the deletion was saved.
func (c *Client) DeleteReminder(ctx context.Context, id uuid.UUID) (bool, error) {
	var resp struct {
		Persisted bool `json:"persisted"`
	}
	err := c.do(ctx, http.MethodDelete, "/api/reminders/"+id.String(), nil, &resp)
	return resp.Persisted, err
}

// do sends body as JSON and decodes a 2xx answer into out. Error answers
// come back as *apperrors.AppError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope struct {
			Error *apperrors.AppError `json:"error"`
		}
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error != nil && envelope.Error.Code != "" {
			envelope.Error.StatusCode = resp.StatusCode
			return envelope.Error
		}
		return &apperrors.AppError{
			Code:       apperrors.CodeInternalError,
			Message:    fmt.Sprintf("server answered %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
