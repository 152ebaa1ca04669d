// Package anthropic adapts the Anthropic Messages API (including tool use)
// to the generic inference.Client interface.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/inference"
)

// Options configures the Anthropic adapter (model id, temperature, max
// tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Client wraps the Anthropic Messages API behind inference.Client.
type Client struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic client using the official SDK.
func New(optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Client{client: &client, opts: opts}
}

// NewFromClient creates an adapter from an existing SDK client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{client: client, opts: opts}
}

// Infer implements inference.Client with a single non-streaming Messages call.
func (c *Client) Infer(ctx context.Context, req inference.Request) (inference.Response, error) {
	params := anthropic.MessageNewParams{
		Model:       c.opts.Model,
		Messages:    buildMessages(req.Turns),
		MaxTokens:   c.opts.MaxTokens,
		Temperature: anthropic.Float(c.opts.Temperature),
	}
	if req.Instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.Instructions}}
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return inference.Response{}, inference.NewError("anthropic", true, err)
	}

	var (
		content   string
		toolCalls []core.ToolCall
	)
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			content += block.AsText().Text
		case "tool_use":
			toolBlock := block.AsToolUse()
			args := ""
			if toolBlock.Input != nil {
				if raw, err := json.Marshal(toolBlock.Input); err == nil {
					args = string(raw)
				}
			}
			toolCalls = append(toolCalls, core.ToolCall{
				ID:        toolBlock.ID,
				Name:      toolBlock.Name,
				Arguments: args,
			})
		}
	}

	finishReason := "stop"
	if resp.StopReason != "" {
		finishReason = string(resp.StopReason)
	}

	return inference.Response{
		Content:      content,
		ToolCalls:    toolCalls,
		FinishReason: finishReason,
	}, nil
}

// Info implements inference.Client.
func (c *Client) Info() inference.Info {
	return inference.Info{
		Name:          string(c.opts.Model),
		Provider:      "anthropic",
		SupportsTools: true,
	}
}

// buildMessages converts turns into Anthropic message format. Tool result
// turns become user messages carrying tool_result blocks, following the
// tool_use blocks of the preceding assistant message.
func buildMessages(turns []core.Turn) []anthropic.MessageParam {
	var messages []anthropic.MessageParam

	for _, t := range turns {
		switch t.Role {
		case core.RoleSystem:
			continue // handled via params.System
		case core.RoleTool:
			var blocks []anthropic.ContentBlockParamUnion
			for _, r := range t.ToolResults() {
				blocks = append(blocks, anthropic.NewToolResultBlock(r.ID, resultText(r), r.Error != ""))
			}
			if len(blocks) > 0 {
				messages = append(messages, anthropic.NewUserMessage(blocks...))
			}
		case core.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if text := t.Text(); text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(text))
			}
			for _, call := range t.ToolCalls() {
				var input any
				if call.Arguments != "" {
					if err := json.Unmarshal([]byte(call.Arguments), &input); err != nil {
						input = call.Arguments // fallback to raw string
					}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, input, call.Name))
			}
			if len(blocks) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(blocks...))
			}
		default: // user and unknown roles
			if text := t.Text(); text != "" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
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

// buildTools converts tool schemas into Anthropic tool definitions.
func buildTools(tools []inference.ToolSchema) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))

	for i, t := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if t.Parameters != nil {
			if properties, ok := t.Parameters["properties"]; ok {
				inputSchema.Properties = properties
			}
			switch req := t.Parameters["required"].(type) {
			case []string:
				inputSchema.Required = req
			case []any:
				for _, r := range req {
					if s, ok := r.(string); ok {
						inputSchema.Required = append(inputSchema.Required, s)
					}
				}
			}
		}
		out[i] = anthropic.ToolUnionParamOfTool(inputSchema, t.Name)
	}

	return out
}
