// Package search forwards queries to OpenAI's hosted web-search capability.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

const searchModel = "gpt-5-mini"

// A hosted search can be slow, but a stalled one must not hold a tool call
// open forever.
const searchTimeout = 15 * time.Second

// Client wraps the OpenAI Responses API with the web-search tool enabled.
type Client struct {
	client openai.Client
}

// NewClient creates a search client.
func NewClient(apiKey string) *Client {
	return &Client{client: openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(searchTimeout),
	)}
}

// Search runs a single web search and returns the model's textual summary.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	resp, err := c.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: shared.ResponsesModel(searchModel),
		Tools: []responses.ToolUnionParam{
			{OfWebSearchPreview: &responses.WebSearchToolParam{
				Type: responses.WebSearchToolTypeWebSearchPreview,
			}},
		},
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(fmt.Sprintf("Search the web for %s", query)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("web search failed: %w", err)
	}
	return resp.OutputText(), nil
}
