package provider

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/storepilot/storepilot/internal/registry"
)

// Anthropic talks to Claude or any Anthropic-compatible endpoint
// (MiniMax, Z.ai) selected via baseURL.
type Anthropic struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropic builds a provider. model defaults to MiniMax-M2.5, the
// endpoint the assistant ships against; baseURL may be empty for the
// stock Anthropic API.
func NewAnthropic(apiKey, model, baseURL string) *Anthropic {
	if model == "" {
		model = "MiniMax-M2.5"
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: 4096,
	}
}

// Send implements Provider.
func (a *Anthropic) Send(ctx context.Context, system string, history []Message, ops []registry.Schema) (*Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(a.model)),
		MaxTokens: anthropic.F(int64(a.maxTokens)),
		Messages:  anthropic.F(convertHistory(history)),
	}
	if len(ops) > 0 {
		params.Tools = anthropic.F(convertTools(ops))
	}
	if system != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(system),
		})
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classify("send", err)
	}

	out := &Response{Raw: resp.ToParam()}
	for _, block := range resp.Content {
		switch b := block.AsUnion().(type) {
		case anthropic.TextBlock:
			out.Text += b.Text
		case anthropic.ToolUseBlock:
			var args map[string]any
			if err := json.Unmarshal(b.Input, &args); err != nil {
				log.Warn().Err(err).Str("operation", b.Name).Msg("unparseable tool input from model")
				args = map[string]any{}
			}
			id := b.ID
			if id == "" {
				id = uuid.NewString()
			}
			out.Calls = append(out.Calls, InvocationRequest{ID: id, Name: b.Name, Arguments: args})
		}
	}

	log.Debug().
		Str("stop_reason", string(resp.StopReason)).
		Int("invocations", len(out.Calls)).
		Int("text_len", len(out.Text)).
		Msg("provider response")
	return out, nil
}

func convertTools(ops []registry.Schema) []anthropic.ToolUnionUnionParam {
	tools := make([]anthropic.ToolUnionUnionParam, len(ops))
	for i, op := range ops {
		tools[i] = anthropic.ToolParam{
			Name:        anthropic.String(op.Name),
			Description: anthropic.String(op.Description),
			InputSchema: anthropic.F[interface{}](op.InputSchema()),
		}
	}
	return tools
}

// convertHistory maps the generic transcript onto the Anthropic message
// shape. Consecutive tool results are folded into one user message, as
// the API requires them to directly follow the assistant turn that
// requested them.
func convertHistory(history []Message) []anthropic.MessageParam {
	msgs := make([]anthropic.MessageParam, 0, len(history))
	var pendingResults []anthropic.ContentBlockParamUnion

	flush := func() {
		if len(pendingResults) > 0 {
			msgs = append(msgs, anthropic.NewUserMessage(pendingResults...))
			pendingResults = nil
		}
	}

	for _, m := range history {
		switch m.Role {
		case RoleTool:
			if m.Result == nil {
				continue
			}
			pendingResults = append(pendingResults, anthropic.NewToolResultBlock(
				m.Result.ID, resultContent(*m.Result), m.Result.Status == StatusError))
		case RoleAssistant:
			flush()
			if raw, ok := m.Raw.(anthropic.MessageParam); ok {
				msgs = append(msgs, raw)
				continue
			}
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			flush()
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	flush()
	return msgs
}

func resultContent(res InvocationResult) string {
	if res.Status == StatusError {
		return res.Error
	}
	switch p := res.Payload.(type) {
	case nil:
		return "null"
	case string:
		return p
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return "unserializable result"
		}
		return string(b)
	}
}

// classify wraps an SDK error as a provider Error using the HTTP status
// when one is available, falling back to message inspection for
// transport-level failures.
func classify(op string, err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return &Error{Op: op, Status: apierr.StatusCode, Retryable: retryableStatus(apierr.StatusCode), Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return Fatal(op, err)
	}
	return &Error{Op: op, Retryable: retryableMessage(err.Error()), Err: err}
}
