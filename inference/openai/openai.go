// Package openai adapts the OpenAI Chat Completions API (including
// function/tool calling) to the generic inference.Client interface.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/inference"
)

// Options configure the OpenAI adapter. Fields mirror a subset of Chat
// Completion parameters intentionally kept small; extend via functional
// options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Client wraps the OpenAI Chat Completions API behind inference.Client.
type Client struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI client using the official SDK (credentials come
// from the environment).
func New(optFns ...func(o *Options)) *Client {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates an adapter from an existing SDK client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{client: client, opts: opts}
}

// Infer implements inference.Client with a single non-streaming completion call.
func (c *Client) Infer(ctx context.Context, req inference.Request) (inference.Response, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               c.opts.Model,
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(c.opts.MaxCompletionTokens),
	}
	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
		for i, t := range req.Tools {
			tools[i] = openai.ChatCompletionToolParam{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        t.Name,
					Description: openai.String(t.Description),
					Parameters:  t.Parameters,
				},
			}
		}
		params.Tools = tools
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return inference.Response{}, inference.NewError("openai", true, err)
	}
	if len(resp.Choices) == 0 {
		return inference.Response{}, inference.NewError("openai", false, fmt.Errorf("no choices returned"))
	}

	ch0 := resp.Choices[0]
	out := inference.Response{
		Content:      ch0.Message.Content,
		FinishReason: ch0.FinishReason,
	}
	for _, tc := range ch0.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, core.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

// Info implements inference.Client.
func (c *Client) Info() inference.Info {
	return inference.Info{
		Name:          c.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}

// buildMessages converts turns into OpenAI chat messages, attaching tool
// responses as tool-role messages keyed by call id.
func buildMessages(req inference.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}

	for _, t := range req.Turns {
		switch t.Role {
		case core.RoleSystem:
			if text := t.Text(); text != "" {
				messages = append(messages, openai.SystemMessage(text))
			}
		case core.RoleTool:
			for _, r := range t.ToolResults() {
				messages = append(messages, openai.ToolMessage(resultText(r), r.ID))
			}
		case core.RoleAssistant:
			calls := t.ToolCalls()
			if len(calls) == 0 {
				messages = append(messages, openai.AssistantMessage(t.Text()))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(calls))
			for i, call := range calls {
				toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   call.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      call.Name,
						Arguments: call.Arguments,
					},
				}
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				},
			})
		default:
			if text := t.Text(); text != "" {
				messages = append(messages, openai.UserMessage(text))
			}
		}
	}

	return messages
}

func resultText(r core.ToolResult) string {
	if r.Error != "" {
		return r.Error
	}
	if s, ok := r.Response.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", r.Response)
}
