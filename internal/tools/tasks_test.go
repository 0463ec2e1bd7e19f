package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/avavoice/ava/internal/todoist"
)

func TestCreateTaskEmptyContentMakesNoRequest(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	tool := NewCreateTaskTool(todoist.NewClientWithBaseURL("tok", srv.URL))

	for _, content := range []string{"", "   ", "\t\n"} {
		input, _ := json.Marshal(CreateTaskInput{Content: content})
		result, err := tool.Execute(context.Background(), input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Content != "I need a task description (e.g., 'Call Alice')." {
			t.Errorf("content=%q: wrong message: %q", content, result.Content)
		}
		if result.IsError {
			t.Errorf("validation message should not be error-flagged")
		}
	}
	if calls != 0 {
		t.Errorf("empty content reached the service %d times", calls)
	}
}

func TestCreateTaskClampsPriority(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, 1}, {-3, 1}, {1, 1}, {3, 3}, {4, 4}, {5, 4}, {99, 4},
	}
	for _, tc := range cases {
		var got todoist.CreateTaskRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			json.Unmarshal(body, &got)
			fmt.Fprint(w, `{"id":"1","content":"x","priority":1}`)
		}))

		tool := NewCreateTaskTool(todoist.NewClientWithBaseURL("tok", srv.URL))
		input, _ := json.Marshal(CreateTaskInput{Content: "x", Priority: tc.in})
		if _, err := tool.Execute(context.Background(), input); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		srv.Close()

		if got.Priority != tc.want {
			t.Errorf("priority %d sent as %d, want %d", tc.in, got.Priority, tc.want)
		}
	}
}

func TestCreateTaskSuccessEchoesIDAndDue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req todoist.CreateTaskRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Priority != 4 {
			t.Errorf("service received priority %d, want 4", req.Priority)
		}
		fmt.Fprintf(w, `{"id":"7001","content":%q,"due":{"string":"tomorrow 9am"},"priority":4}`, req.Content)
	}))
	defer srv.Close()

	tool := NewCreateTaskTool(todoist.NewClientWithBaseURL("tok", srv.URL))
	input, _ := json.Marshal(CreateTaskInput{Content: "Call Alice", Due: "tomorrow 9am", Priority: 5})
	result, err := tool.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %q", result.Content)
	}
	if !strings.Contains(result.Content, "7001") || !strings.Contains(result.Content, "tomorrow 9am") {
		t.Errorf("confirmation missing id or due text: %q", result.Content)
	}
}

func TestCreateTaskSurfacesServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid due date"}`)
	}))
	defer srv.Close()

	tool := NewCreateTaskTool(todoist.NewClientWithBaseURL("tok", srv.URL))
	input, _ := json.Marshal(CreateTaskInput{Content: "Call Alice", Due: "not-a-date"})
	result, err := tool.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("service errors must become results, got: %v", err)
	}
	if !result.IsError {
		t.Errorf("service error not flagged")
	}
	if !strings.Contains(result.Content, "invalid due date") {
		t.Errorf("service explanation lost: %q", result.Content)
	}
}

func TestListTasksLimitAndShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("filter"); got != DefaultListFilter {
			t.Errorf("filter = %q, want default %q", got, DefaultListFilter)
		}
		var items []string
		for i := 0; i < 25; i++ {
			items = append(items, fmt.Sprintf(
				`{"id":"%d","content":"task %d","due":{"string":"today"},"project_id":"p1","priority":2,"url":"https://todoist.com/task/%d"}`,
				i, i, i))
		}
		fmt.Fprint(w, "["+strings.Join(items, ",")+"]")
	}))
	defer srv.Close()

	tool := NewListTasksTool(todoist.NewClientWithBaseURL("tok", srv.URL))

	input, _ := json.Marshal(ListTasksInput{Limit: 5})
	result, err := tool.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var records []map[string]any
	if err := json.Unmarshal([]byte(result.Content), &records); err != nil {
		t.Fatalf("result is not a JSON list: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("got %d records, want 5", len(records))
	}
	for _, rec := range records {
		for _, key := range []string{"id", "content", "due", "project_id", "priority", "url", "completed"} {
			if _, ok := rec[key]; !ok {
				t.Errorf("record missing %q: %v", key, rec)
			}
		}
		if rec["completed"] != false {
			t.Errorf("completed = %v, want false", rec["completed"])
		}
	}
}

func TestListTasksDefaultLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var items []string
		for i := 0; i < 30; i++ {
			items = append(items, fmt.Sprintf(`{"id":"%d","content":"task"}`, i))
		}
		fmt.Fprint(w, "["+strings.Join(items, ",")+"]")
	}))
	defer srv.Close()

	tool := NewListTasksTool(todoist.NewClientWithBaseURL("tok", srv.URL))
	result, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var records []map[string]any
	json.Unmarshal([]byte(result.Content), &records)
	if len(records) != 10 {
		t.Errorf("default limit returned %d records, want 10", len(records))
	}
}

func TestCompleteTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks/42/close" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tool := NewCompleteTaskTool(todoist.NewClientWithBaseURL("tok", srv.URL))
	result, err := tool.Execute(context.Background(), json.RawMessage(`{"id":"42"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "Done. Reminder 42 completed." {
		t.Errorf("wrong confirmation: %q", result.Content)
	}
}

func TestCompleteTaskSurfacesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"task not found"}`)
	}))
	defer srv.Close()

	tool := NewCompleteTaskTool(todoist.NewClientWithBaseURL("tok", srv.URL))
	result, err := tool.Execute(context.Background(), json.RawMessage(`{"id":"42"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError || !strings.Contains(result.Content, "task not found") {
		t.Errorf("failure not surfaced: %+v", result)
	}
}
