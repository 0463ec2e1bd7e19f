package todoist

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/tasks", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		fmt.Fprint(w, `{"id":"101","content":"Call Alice","due":{"string":"tomorrow 9am"},"project_id":"p1","priority":3,"url":"https://todoist.com/task/101"}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", srv.URL)
	task, err := c.CreateTask(context.Background(), CreateTaskRequest{
		Content: "Call Alice", Priority: 3, DueString: "tomorrow 9am",
	})
	require.NoError(t, err)
	assert.Equal(t, "101", task.ID)
	assert.Equal(t, "tomorrow 9am", task.DueText())
}

func TestCreateTaskErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid due date"}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", srv.URL)
	_, err := c.CreateTask(context.Background(), CreateTaskRequest{Content: "x", Priority: 1})
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok, "want *APIError, got %T", err)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid due date", apiErr.Message)
}

func TestCreateTaskPlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "forbidden")
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", srv.URL)
	_, err := c.CreateTask(context.Background(), CreateTaskRequest{Content: "x", Priority: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden")
}

func TestListTasksQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "today", r.URL.Query().Get("filter"))
		assert.Equal(t, "p9", r.URL.Query().Get("project_id"))
		fmt.Fprint(w, `[{"id":"1","content":"a"},{"id":"2","content":"b","due":{"string":"today"}}]`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", srv.URL)
	tasks, err := c.ListTasks(context.Background(), "today", "p9")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "no date", tasks[0].DueText())
	assert.Equal(t, "today", tasks[1].DueText())
}

func TestCloseTask(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", srv.URL)
	require.NoError(t, c.CloseTask(context.Background(), "42"))
	assert.Equal(t, "/tasks/42/close", path)
}

func TestNoRetryOnFailure(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", srv.URL)
	_, err := c.ListTasks(context.Background(), "", "")
	require.Error(t, err)
	assert.Equal(t, 1, calls, "adapter must not retry")
}
