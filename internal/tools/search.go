package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Searcher runs a web search and returns a textual summary.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// SearchTool forwards a query to the hosted web-search capability.
type SearchTool struct {
	searcher Searcher
}

// SearchInput defines the input for search_web
type SearchInput struct {
	Query string `json:"query"`
}

// NewSearchTool creates a new search_web tool
func NewSearchTool(searcher Searcher) *SearchTool {
	return &SearchTool{searcher: searcher}
}

func (t *SearchTool) Name() string {
	return "search_web"
}

func (t *SearchTool) Description() string {
	return "Search the web for real-time information such as news or current events. Be as specific as possible with the query."
}

func (t *SearchTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {
				"type": "string",
				"description": "What to search for"
			}
		},
		"required": ["query"]
	}`)
}

func (t *SearchTool) Execute(ctx context.Context, input json.RawMessage) (*ToolResult, error) {
	var params SearchInput
	if err := json.Unmarshal(input, &params); err != nil {
		return &ToolResult{Content: fmt.Sprintf("Invalid input: %v", err), IsError: true}, nil
	}

	query := strings.TrimSpace(params.Query)
	if query == "" {
		return &ToolResult{Content: "I need something to search for."}, nil
	}

	summary, err := t.searcher.Search(ctx, query)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("Web search error: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: summary}, nil
}
