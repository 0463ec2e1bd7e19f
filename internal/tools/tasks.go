package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/avavoice/ava/internal/todoist"
)

// DefaultListFilter is the Todoist query used when the model gives none.
const DefaultListFilter = "today | overdue | tomorrow"

// CreateTaskTool creates a reminder (Todoist task).
type CreateTaskTool struct {
	client *todoist.Client
}

// CreateTaskInput defines the input for create_task
type CreateTaskInput struct {
	Content   string `json:"content"`
	Due       string `json:"due,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	Priority  int    `json:"priority,omitempty"`
}

// NewCreateTaskTool creates a new create_task tool
func NewCreateTaskTool(client *todoist.Client) *CreateTaskTool {
	return &CreateTaskTool{client: client}
}

func (t *CreateTaskTool) Name() string {
	return "create_task"
}

func (t *CreateTaskTool) Description() string {
	return "Create a reminder (task). Use a short task text, an optional natural-language due date like 'tomorrow 9am' or 'in 2 hours', an optional project id, and a priority from 1 to 4 (4 is highest)."
}

func (t *CreateTaskTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"content": {
				"type": "string",
				"description": "Short task text, e.g. 'Call Alice'"
			},
			"due": {
				"type": "string",
				"description": "Natural-language due date, e.g. 'tomorrow 9am'"
			},
			"project_id": {
				"type": "string",
				"description": "Optional project id to file the task under"
			},
			"priority": {
				"type": "integer",
				"description": "Priority 1..4, 4 is highest"
			}
		},
		"required": ["content"]
	}`)
}

func (t *CreateTaskTool) Execute(ctx context.Context, input json.RawMessage) (*ToolResult, error) {
	var params CreateTaskInput
	if err := json.Unmarshal(input, &params); err != nil {
		return &ToolResult{Content: fmt.Sprintf("Invalid input: %v", err), IsError: true}, nil
	}

	content := strings.TrimSpace(params.Content)
	if content == "" {
		// Validation failure, not a service error: no request is made.
		return &ToolResult{Content: "I need a task description (e.g., 'Call Alice')."}, nil
	}

	req := todoist.CreateTaskRequest{
		Content:  content,
		Priority: clampPriority(params.Priority),
	}
	if due := strings.TrimSpace(params.Due); due != "" {
		req.DueString = due
	}
	if pid := strings.TrimSpace(params.ProjectID); pid != "" {
		req.ProjectID = pid
	}

	task, err := t.client.CreateTask(ctx, req)
	if err != nil {
		if apiErr, ok := err.(*todoist.APIError); ok {
			return &ToolResult{
				Content: fmt.Sprintf("Todoist rejected the request: %s", apiErr.Message),
				IsError: true,
			}, nil
		}
		return &ToolResult{Content: fmt.Sprintf("Todoist error: %v", err), IsError: true}, nil
	}

	return &ToolResult{
		Content: fmt.Sprintf("Created reminder: %q for %s (id %s).", task.Content, task.DueText(), task.ID),
	}, nil
}

// clampPriority maps any model-supplied priority into Todoist's 1..4 range.
// Zero (absent) becomes the lowest priority.
func clampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > 4 {
		return 4
	}
	return p
}

// ListTasksTool lists open reminders as a compact JSON list.
type ListTasksTool struct {
	client *todoist.Client
}

// ListTasksInput defines the input for list_tasks
type ListTasksInput struct {
	ProjectID string `json:"project_id,omitempty"`
	Filter    string `json:"filter,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// taskRecord is the compact shape returned to the model.
type taskRecord struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Due       string `json:"due"`
	ProjectID string `json:"project_id"`
	Priority  int    `json:"priority"`
	URL       string `json:"url"`
	Completed bool   `json:"completed"`
}

// NewListTasksTool creates a new list_tasks tool
func NewListTasksTool(client *todoist.Client) *ListTasksTool {
	return &ListTasksTool{client: client}
}

func (t *ListTasksTool) Name() string {
	return "list_tasks"
}

func (t *ListTasksTool) Description() string {
	return "List upcoming reminders. Supported filters: today, overdue, tomorrow, no date, p1, p2, p3, p4, 7 days, next 7 days, 30 days, this week, next week, assigned to me, recurring, view all."
}

func (t *ListTasksTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"project_id": {
				"type": "string",
				"description": "Optional project id to list from"
			},
			"filter": {
				"type": "string",
				"description": "Todoist query filter, e.g. 'today', 'overdue', '7 days'"
			},
			"limit": {
				"type": "integer",
				"description": "Maximum number of tasks to return (default 10)"
			}
		}
	}`)
}

func (t *ListTasksTool) Execute(ctx context.Context, input json.RawMessage) (*ToolResult, error) {
	var params ListTasksInput
	if err := json.Unmarshal(input, &params); err != nil {
		return &ToolResult{Content: fmt.Sprintf("Invalid input: %v", err), IsError: true}, nil
	}

	filter := params.Filter
	if filter == "" {
		filter = DefaultListFilter
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 10
	}

	tasks, err := t.client.ListTasks(ctx, filter, params.ProjectID)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("Todoist error: %v", err), IsError: true}, nil
	}

	if len(tasks) > limit {
		tasks = tasks[:limit]
	}
	records := make([]taskRecord, 0, len(tasks))
	for i := range tasks {
		task := &tasks[i]
		records = append(records, taskRecord{
			ID:        task.ID,
			Content:   task.Content,
			Due:       task.DueText(),
			ProjectID: task.ProjectID,
			Priority:  task.Priority,
			URL:       task.URL,
			// The open-tasks endpoint only returns incomplete tasks.
			Completed: false,
		})
	}

	out, err := json.Marshal(records)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("Failed to encode tasks: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: string(out)}, nil
}

// CompleteTaskTool marks a reminder as done by id.
type CompleteTaskTool struct {
	client *todoist.Client
}

// CompleteTaskInput defines the input for complete_task
type CompleteTaskInput struct {
	ID string `json:"id"`
}

// NewCompleteTaskTool creates a new complete_task tool
func NewCompleteTaskTool(client *todoist.Client) *CompleteTaskTool {
	return &CompleteTaskTool{client: client}
}

func (t *CompleteTaskTool) Name() string {
	return "complete_task"
}

func (t *CompleteTaskTool) Description() string {
	return "Mark a reminder (task) as done by id."
}

func (t *CompleteTaskTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"id": {
				"type": "string",
				"description": "Id of the task to complete"
			}
		},
		"required": ["id"]
	}`)
}

func (t *CompleteTaskTool) Execute(ctx context.Context, input json.RawMessage) (*ToolResult, error) {
	var params CompleteTaskInput
	if err := json.Unmarshal(input, &params); err != nil {
		return &ToolResult{Content: fmt.Sprintf("Invalid input: %v", err), IsError: true}, nil
	}

	id := strings.TrimSpace(params.ID)
	if id == "" {
		return &ToolResult{Content: "I need the id of the reminder to complete."}, nil
	}

	if err := t.client.CloseTask(ctx, id); err != nil {
		return &ToolResult{Content: fmt.Sprintf("Todoist error: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: fmt.Sprintf("Done. Reminder %s completed.", id)}, nil
}
