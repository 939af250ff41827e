// Package agent drives the conversation loop: it composes the
// transcript, calls the model provider, routes requested invocations
// through the executor, and decides when the session is resolved.
package agent

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/storepilot/storepilot/internal/executor"
	"github.com/storepilot/storepilot/internal/provider"
	"github.com/storepilot/storepilot/internal/registry"
)

// Loop states. The machine runs AWAITING_MODEL -> EXECUTING_TOOLS ->
// AWAITING_MODEL ... until DONE, or ERROR on a terminal failure.
type state int

const (
	stateAwaitingModel state = iota
	stateExecutingTools
	stateDone
	stateError
)

// DefaultMaxIterations bounds AWAITING_MODEL entries per Chat call.
const DefaultMaxIterations = 8

// Reply is the final answer of one Chat call.
type Reply struct {
	Content         string   `json:"content"`
	Iterations      int      `json:"iterations"`
	InvocationsMade []string `json:"invocations_made"`
}

// Agent owns no per-session state; each Chat call builds its own
// transcript, so one Agent serves any number of concurrent sessions
// over the same read-mostly registry.
type Agent struct {
	provider      Provider
	registry      *registry.Registry
	exec          *executor.Executor
	systemPrompt  string
	maxIterations int
	retry         provider.RetryPolicy
}

// Provider is the model collaborator the loop suspends on.
type Provider = provider.Provider

// Option configures an Agent.
type Option func(*Agent)

// WithSystemPrompt sets the system prompt sent on every provider call.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) { a.systemPrompt = prompt }
}

// WithMaxIterations overrides the iteration bound.
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithRetryPolicy overrides the transient-failure retry policy.
func WithRetryPolicy(pol provider.RetryPolicy) Option {
	return func(a *Agent) { a.retry = pol }
}

// New builds an agent. The registry instance is explicit, never global,
// so tests and parallel deployments can each own an isolated one.
func New(p Provider, reg *registry.Registry, exec *executor.Executor, opts ...Option) *Agent {
	a := &Agent{
		provider:      p,
		registry:      reg,
		exec:          exec,
		maxIterations: DefaultMaxIterations,
		retry:         provider.DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Chat resolves one user message. history, when supplied, is replayed
// ahead of the message; the transcript built here is owned exclusively
// by this call and discarded when it returns (callers persist it
// externally if they want continuity).
//
// Terminal failures return a *SessionError carrying the partial
// transcript. Tool-level failures never terminate the loop; they are
// fed back to the model as error results.
func (a *Agent) Chat(ctx context.Context, userMessage string, history ...provider.Message) (*Reply, error) {
	transcript := make([]provider.Message, 0, len(history)+8)
	transcript = append(transcript, history...)
	transcript = append(transcript, provider.UserMessage(userMessage))

	ops := a.registry.Schemas()
	var invocations []string
	var pending []provider.InvocationRequest
	var final string
	iterations := 0

	fail := func(err error) (*Reply, error) {
		return nil, &SessionError{Err: err, Iterations: iterations, Transcript: transcript}
	}

	st := stateAwaitingModel
	for st != stateDone {
		switch st {
		case stateAwaitingModel:
			if iterations >= a.maxIterations {
				log.Warn().Int("iterations", iterations).Msg("iteration bound exceeded")
				return fail(ErrMaxIterations)
			}
			iterations++

			resp, err := provider.SendWithRetry(ctx, a.provider, a.retry, a.systemPrompt, transcript, ops)
			if err != nil {
				return fail(err)
			}

			log.Debug().
				Int("iteration", iterations).
				Int("invocations", len(resp.Calls)).
				Str("text_preview", preview(resp.Text, 80)).
				Msg("model turn")

			transcript = append(transcript, provider.AssistantMessage(resp.Text, resp.Calls, resp.Raw))
			if len(resp.Calls) == 0 {
				final = resp.Text
				st = stateDone
				continue
			}
			// Any text alongside requests is partial commentary; the
			// requests still run.
			pending = resp.Calls
			st = stateExecutingTools

		case stateExecutingTools:
			results := a.runInvocations(ctx, pending)
			for i, res := range results {
				invocations = append(invocations, pending[i].Name)
				transcript = append(transcript, provider.ToolMessage(res))
			}
			pending = nil
			if ctx.Err() != nil {
				return fail(ctx.Err())
			}
			st = stateAwaitingModel
		}
	}

	return &Reply{
		Content:         final,
		Iterations:      iterations,
		InvocationsMade: invocations,
	}, nil
}

// runInvocations executes one turn's requests concurrently. Results are
// stored by request index, so the caller appends them to the transcript
// in request order no matter which finishes first. Every invocation is
// awaited: the executor never abandons in-flight work, so no result is
// ever dropped even when ctx is cancelled mid-turn.
func (a *Agent) runInvocations(ctx context.Context, calls []provider.InvocationRequest) []provider.InvocationResult {
	results := make([]provider.InvocationResult, len(calls))
	if len(calls) == 1 {
		results[0] = a.exec.Execute(ctx, calls[0])
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			results[i] = a.exec.Execute(gctx, call)
			return nil
		})
	}
	// Execute never returns a Go error, so Wait only synchronizes.
	_ = g.Wait()
	return results
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
