package agent_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/storepilot/storepilot/internal/agent"
	"github.com/storepilot/storepilot/internal/executor"
	"github.com/storepilot/storepilot/internal/provider"
	"github.com/storepilot/storepilot/internal/registry"
)

// stubProvider replays scripted responses and records every transcript
// it was handed, so tests can assert on loop behavior without a model.
type stubProvider struct {
	mu        sync.Mutex
	script    []func(history []provider.Message) (*provider.Response, error)
	calls     int
	histories [][]provider.Message
}

func (s *stubProvider) Send(_ context.Context, _ string, history []provider.Message, _ []registry.Schema) (*provider.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]provider.Message, len(history))
	copy(snapshot, history)
	s.histories = append(s.histories, snapshot)

	i := s.calls
	s.calls++
	if i < len(s.script) {
		return s.script[i](history)
	}
	return &provider.Response{Text: "out of script"}, nil
}

func respondText(text string) func([]provider.Message) (*provider.Response, error) {
	return func([]provider.Message) (*provider.Response, error) {
		return &provider.Response{Text: text}, nil
	}
}

func respondCalls(calls ...provider.InvocationRequest) func([]provider.Message) (*provider.Response, error) {
	return func([]provider.Message) (*provider.Response, error) {
		return &provider.Response{Calls: calls}, nil
	}
}

func fastRetry() provider.RetryPolicy {
	return provider.RetryPolicy{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
}

func newAgent(t *testing.T, p provider.Provider, reg *registry.Registry, opts ...agent.Option) *agent.Agent {
	t.Helper()
	ex := executor.New(reg, executor.Config{Workers: 4, InvocationTimeout: 5 * time.Second})
	opts = append([]agent.Option{agent.WithRetryPolicy(fastRetry())}, opts...)
	return agent.New(p, reg, ex, opts...)
}

func TestChatPlainText(t *testing.T) {
	stub := &stubProvider{script: []func([]provider.Message) (*provider.Response, error){
		respondText("hello there"),
	}}
	a := newAgent(t, stub, registry.New())

	reply, err := a.Chat(context.Background(), "hi")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply.Content != "hello there" || reply.Iterations != 1 || len(reply.InvocationsMade) != 0 {
		t.Errorf("reply = %+v", reply)
	}
}

// The end-to-end shape from the product: "today's revenue" resolves via
// one get_daily_summary invocation and a follow-up model turn.
func TestChatToolRoundTrip(t *testing.T) {
	reg := registry.New()
	type summaryArgs struct {
		Date string `json:"date" default:"today"`
	}
	if err := reg.Register("get_daily_summary", "daily revenue",
		func(_ context.Context, a summaryArgs) (any, error) {
			return map[string]any{"total": 100}, nil
		}); err != nil {
		t.Fatalf("register: %v", err)
	}

	stub := &stubProvider{script: []func([]provider.Message) (*provider.Response, error){
		respondCalls(provider.InvocationRequest{
			ID: "inv-1", Name: "get_daily_summary",
			Arguments: map[string]any{"date": "today"},
		}),
		func(history []provider.Message) (*provider.Response, error) {
			last := history[len(history)-1]
			if last.Role != provider.RoleTool || last.Result == nil {
				return nil, fmt.Errorf("expected tool result last, got %+v", last)
			}
			if last.Result.ID != "inv-1" || last.Result.Status != provider.StatusOK {
				return nil, fmt.Errorf("bad result %+v", last.Result)
			}
			return &provider.Response{Text: "Revenue: 100"}, nil
		},
	}}
	a := newAgent(t, stub, reg)

	reply, err := a.Chat(context.Background(), "today's revenue")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply.Content != "Revenue: 100" {
		t.Errorf("content = %q", reply.Content)
	}
	if reply.Iterations != 2 {
		t.Errorf("iterations = %d, want 2", reply.Iterations)
	}
	if len(reply.InvocationsMade) != 1 || reply.InvocationsMade[0] != "get_daily_summary" {
		t.Errorf("invocations = %v", reply.InvocationsMade)
	}
}

func TestChatMaxIterationsExact(t *testing.T) {
	reg := registry.New()
	type emptyArgs struct{}
	if err := reg.Register("loop_forever", "", func(_ context.Context, _ emptyArgs) (any, error) {
		return "again", nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	always := func([]provider.Message) (*provider.Response, error) {
		return &provider.Response{Calls: []provider.InvocationRequest{
			{ID: "x", Name: "loop_forever", Arguments: map[string]any{}},
		}}, nil
	}
	stub := &stubProvider{script: []func([]provider.Message) (*provider.Response, error){
		always, always, always, always, always, always,
	}}

	const bound = 3
	a := newAgent(t, stub, reg, agent.WithMaxIterations(bound))

	_, err := a.Chat(context.Background(), "go")
	if !errors.Is(err, agent.ErrMaxIterations) {
		t.Fatalf("expected ErrMaxIterations, got %v", err)
	}
	if stub.calls != bound {
		t.Errorf("provider calls = %d, want exactly %d", stub.calls, bound)
	}

	var serr *agent.SessionError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SessionError, got %T", err)
	}
	if serr.Iterations != bound {
		t.Errorf("iterations = %d", serr.Iterations)
	}
	if len(serr.Transcript) == 0 {
		t.Error("transcript missing from terminal error")
	}
}

func TestUnknownOperationDoesNotAbortLoop(t *testing.T) {
	stub := &stubProvider{script: []func([]provider.Message) (*provider.Response, error){
		respondCalls(provider.InvocationRequest{ID: "bad-1", Name: "does_not_exist"}),
		func(history []provider.Message) (*provider.Response, error) {
			last := history[len(history)-1]
			if last.Result == nil || last.Result.Status != provider.StatusError {
				return nil, fmt.Errorf("expected error result in transcript, got %+v", last)
			}
			if !strings.Contains(last.Result.Error, "not found") {
				return nil, fmt.Errorf("error = %q", last.Result.Error)
			}
			return &provider.Response{Text: "sorry, I mistyped"}, nil
		},
	}}
	a := newAgent(t, stub, registry.New())

	reply, err := a.Chat(context.Background(), "call something weird")
	if err != nil {
		t.Fatalf("loop should recover from unknown operation: %v", err)
	}
	if reply.Content != "sorry, I mistyped" {
		t.Errorf("content = %q", reply.Content)
	}
}

func TestCallableFailureDoesNotAbortLoop(t *testing.T) {
	reg := registry.New()
	type emptyArgs struct{}
	if err := reg.Register("explodes", "", func(_ context.Context, _ emptyArgs) (any, error) {
		return nil, errors.New("database is on fire")
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	stub := &stubProvider{script: []func([]provider.Message) (*provider.Response, error){
		respondCalls(provider.InvocationRequest{ID: "e", Name: "explodes", Arguments: map[string]any{}}),
		respondText("noted, something broke"),
	}}
	a := newAgent(t, stub, reg)

	reply, err := a.Chat(context.Background(), "try it")
	if err != nil {
		t.Fatalf("loop should recover from callable failure: %v", err)
	}
	if reply.Iterations != 2 {
		t.Errorf("iterations = %d", reply.Iterations)
	}
	last := stub.histories[1][len(stub.histories[1])-1]
	if last.Result == nil || !strings.Contains(last.Result.Error, "database is on fire") {
		t.Errorf("callable error not surfaced to model: %+v", last)
	}
}

// Three concurrent invocations completing C, A, B must still land in the
// transcript as A, B, C.
func TestResultsAppendedInRequestOrder(t *testing.T) {
	reg := registry.New()
	type emptyArgs struct{}

	cDone := make(chan struct{})
	aDone := make(chan struct{})

	register := func(name string, fn func(context.Context) (any, error)) {
		t.Helper()
		if err := reg.Register(name, "", func(ctx context.Context, _ emptyArgs) (any, error) {
			return fn(ctx)
		}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	register("op_a", func(ctx context.Context) (any, error) {
		<-cDone // finishes second
		close(aDone)
		return "A", nil
	})
	register("op_b", func(ctx context.Context) (any, error) {
		<-aDone // finishes last
		return "B", nil
	})
	register("op_c", func(ctx context.Context) (any, error) {
		close(cDone) // finishes first
		return "C", nil
	})

	stub := &stubProvider{script: []func([]provider.Message) (*provider.Response, error){
		respondCalls(
			provider.InvocationRequest{ID: "A", Name: "op_a", Arguments: map[string]any{}},
			provider.InvocationRequest{ID: "B", Name: "op_b", Arguments: map[string]any{}},
			provider.InvocationRequest{ID: "C", Name: "op_c", Arguments: map[string]any{}},
		),
		respondText("all done"),
	}}
	a := newAgent(t, stub, reg)

	if _, err := a.Chat(context.Background(), "run all three"); err != nil {
		t.Fatalf("chat: %v", err)
	}

	history := stub.histories[1]
	var order []string
	for _, m := range history {
		if m.Role == provider.RoleTool && m.Result != nil {
			order = append(order, m.Result.ID)
		}
	}
	want := []string{"A", "B", "C"}
	if len(order) != 3 {
		t.Fatalf("tool results = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("result order = %v, want %v", order, want)
		}
	}
}

func TestProviderFatalAbortsWithTranscript(t *testing.T) {
	fatal := provider.Fatal("send", errors.New("invalid api key"))
	stub := &stubProvider{script: []func([]provider.Message) (*provider.Response, error){
		func([]provider.Message) (*provider.Response, error) { return nil, fatal },
	}}
	a := newAgent(t, stub, registry.New())

	_, err := a.Chat(context.Background(), "hello")
	var serr *agent.SessionError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SessionError, got %v", err)
	}
	if stub.calls != 1 {
		t.Errorf("fatal errors must not be retried, calls = %d", stub.calls)
	}
	if len(serr.Transcript) != 1 || serr.Transcript[0].Role != provider.RoleUser {
		t.Errorf("transcript = %+v", serr.Transcript)
	}
}

func TestTransientProviderErrorRetriedWithinTurn(t *testing.T) {
	stub := &stubProvider{script: []func([]provider.Message) (*provider.Response, error){
		func([]provider.Message) (*provider.Response, error) {
			return nil, provider.Transient("send", errors.New("rate limit"))
		},
		respondText("recovered"),
	}}
	a := newAgent(t, stub, registry.New())

	reply, err := a.Chat(context.Background(), "hello")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply.Content != "recovered" {
		t.Errorf("content = %q", reply.Content)
	}
	if reply.Iterations != 1 {
		t.Errorf("a retried provider call is still one iteration, got %d", reply.Iterations)
	}
}

func TestTextAlongsideCallsStillExecutes(t *testing.T) {
	reg := registry.New()
	type emptyArgs struct{}
	if err := reg.Register("lookup", "", func(_ context.Context, _ emptyArgs) (any, error) {
		return 42, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	stub := &stubProvider{script: []func([]provider.Message) (*provider.Response, error){
		func([]provider.Message) (*provider.Response, error) {
			return &provider.Response{
				Text:  "let me check that for you",
				Calls: []provider.InvocationRequest{{ID: "1", Name: "lookup", Arguments: map[string]any{}}},
			}, nil
		},
		respondText("it is 42"),
	}}
	a := newAgent(t, stub, reg)

	reply, err := a.Chat(context.Background(), "what is it?")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply.Content != "it is 42" {
		t.Errorf("content = %q", reply.Content)
	}
	if len(reply.InvocationsMade) != 1 {
		t.Errorf("commentary text must not suppress the requests: %v", reply.InvocationsMade)
	}
}

func TestCancellationLeavesNoDanglingResults(t *testing.T) {
	reg := registry.New()
	type emptyArgs struct{}
	started := make(chan struct{})
	if err := reg.Register("waits", "", func(ctx context.Context, _ emptyArgs) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	stub := &stubProvider{script: []func([]provider.Message) (*provider.Response, error){
		respondCalls(provider.InvocationRequest{ID: "w", Name: "waits", Arguments: map[string]any{}}),
	}}
	a := newAgent(t, stub, reg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := a.Chat(ctx, "wait for me")
	var serr *agent.SessionError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SessionError, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cause = %v", serr.Err)
	}

	// The in-flight invocation was awaited and its (error) result
	// appended before the loop gave up.
	var sawResult bool
	for _, m := range serr.Transcript {
		if m.Role == provider.RoleTool && m.Result != nil && m.Result.ID == "w" {
			sawResult = true
		}
	}
	if !sawResult {
		t.Error("cancelled invocation left no result in transcript")
	}
}

func TestHistoryReplayedAheadOfMessage(t *testing.T) {
	stub := &stubProvider{script: []func([]provider.Message) (*provider.Response, error){
		func(history []provider.Message) (*provider.Response, error) {
			if len(history) != 3 {
				return nil, fmt.Errorf("history length = %d, want 3", len(history))
			}
			if history[0].Content != "earlier question" || history[1].Content != "earlier answer" {
				return nil, fmt.Errorf("history = %+v", history)
			}
			return &provider.Response{Text: "with context"}, nil
		},
	}}
	a := newAgent(t, stub, registry.New())

	reply, err := a.Chat(context.Background(), "follow-up",
		provider.UserMessage("earlier question"),
		provider.AssistantMessage("earlier answer", nil, nil),
	)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply.Content != "with context" {
		t.Errorf("content = %q", reply.Content)
	}
}
