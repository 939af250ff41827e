// Package provider abstracts the conversational model behind a single
// Send call: full transcript plus advertised operation schemas in, free
// text and/or a batch of invocation requests out.
package provider

import (
	"context"

	"github.com/storepilot/storepilot/internal/registry"
)

// Response is one model turn. When both Text and Calls are present the
// text is partial commentary and the calls must still be processed.
type Response struct {
	Text  string
	Calls []InvocationRequest

	// Raw is the provider-native assistant message, suitable for
	// Message.Raw on the transcript entry recording this turn.
	Raw any
}

// Provider is the abstract model collaborator. Implementations must
// classify failures as retryable or fatal (see Error) and honor ctx
// cancellation and deadlines.
type Provider interface {
	Send(ctx context.Context, system string, history []Message, ops []registry.Schema) (*Response, error)
}
