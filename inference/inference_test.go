package inference

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentweave/agentweave/core"
)

func TestErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewError("anthropic", true, cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, err.Transient)
	assert.Contains(t, err.Error(), "anthropic")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestScriptedClientReplaysScript(t *testing.T) {
	client := NewScriptedClient(
		Text("first"),
		RequestTools(core.ToolCall{ID: "1", Name: "search"}),
		Fail(errors.New("boom")),
	)

	resp, err := client.Infer(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)

	resp, err = client.Infer(context.Background(), Request{})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "search", resp.ToolCalls[0].Name)

	_, err = client.Infer(context.Background(), Request{})
	assert.Error(t, err)
}

func TestScriptedClientFallsBackToEcho(t *testing.T) {
	client := NewScriptedClient()

	resp, err := client.Infer(context.Background(), Request{
		Turns: []core.Turn{core.NewTextTurn(core.RoleUser, "ping")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Scripted response to: ping", resp.Content)
}

func TestScriptedClientRecordsCalls(t *testing.T) {
	client := NewScriptedClient(Text("a"), Text("b"))

	_, _ = client.Infer(context.Background(), Request{Instructions: "one"})
	_, _ = client.Infer(context.Background(), Request{Instructions: "two"})

	calls := client.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "one", calls[0].Instructions)
	assert.Equal(t, "two", calls[1].Instructions)
}

func TestScriptedClientRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewScriptedClient(Text("unused"))
	_, err := client.Infer(ctx, Request{})
	assert.Error(t, err)
}
