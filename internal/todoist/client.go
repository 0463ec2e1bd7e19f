// Package todoist is a thin client for the Todoist REST v2 API.
//
// Every call is a single round trip with a bounded timeout. The client never
// retries; a failed attempt yields a single error for the caller to surface.
package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avavoice/ava/internal/logging"
)

const defaultBaseURL = "https://api.todoist.com/rest/v2"

// Client communicates with the Todoist REST API using bearer auth.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// NewClient creates a Todoist client with a 10 second per-call timeout.
func NewClient(token string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		token:   token,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a fake server.
func NewClientWithBaseURL(token, baseURL string) *Client {
	c := NewClient(token)
	c.baseURL = baseURL
	return c
}

// Due is the due-date object Todoist attaches to a task.
type Due struct {
	String string `json:"string"`
}

// Task is the subset of the Todoist task object the assistant cares about.
type Task struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Due       *Due   `json:"due"`
	ProjectID string `json:"project_id"`
	Priority  int    `json:"priority"`
	URL       string `json:"url"`
}

// DueText returns the human due string, or "no date" when the task has none.
func (t *Task) DueText() string {
	if t.Due == nil || t.Due.String == "" {
		return "no date"
	}
	return t.Due.String
}

// CreateTaskRequest is the body for POST /tasks.
type CreateTaskRequest struct {
	Content   string `json:"content"`
	Priority  int    `json:"priority"`
	DueString string `json:"due_string,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
}

// APIError is a non-2xx response from Todoist, carrying the service's
// explanation when one was returned.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("todoist returned status %d", e.Status)
}

// CreateTask creates a task and returns the created object.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	body, _ := json.Marshal(req)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tasks", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("create task request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := readAPIError(resp)
		logging.Errorf("[todoist] create task %d: payload=%s resp=%s", resp.StatusCode, body, apiErr.Message)
		return nil, apiErr
	}

	var task Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, fmt.Errorf("decode create response: %w", err)
	}
	return &task, nil
}

// ListTasks returns open tasks matching the optional filter and project.
func (c *Client) ListTasks(ctx context.Context, filter, projectID string) ([]Task, error) {
	q := url.Values{}
	if filter != "" {
		q.Set("filter", filter)
	}
	if projectID != "" {
		q.Set("project_id", projectID)
	}
	endpoint := c.baseURL + "/tasks"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("list tasks request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, readAPIError(resp)
	}

	var tasks []Task
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		return nil, fmt.Errorf("decode list response: %w", err)
	}
	return tasks, nil
}

// CloseTask marks the task with the given id as done.
func (c *Client) CloseTask(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/tasks/%s/close", c.baseURL, url.PathEscape(id))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("close task request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return readAPIError(resp)
	}
	return nil
}

// readAPIError extracts the service's explanation from an error response.
// Todoist returns either {"error": "..."} or a plain-text body.
func readAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}
	if len(raw) > 0 {
		return &APIError{Status: resp.StatusCode, Message: string(raw)}
	}
	return &APIError{Status: resp.StatusCode}
}
