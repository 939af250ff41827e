package provider

// Role identifies who produced a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Invocation result statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// InvocationRequest is one operation call requested by the model. The
// argument payload is raw and unvalidated at this point.
type InvocationRequest struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// InvocationResult is the outcome of executing one request. ID correlates
// back to the originating request within the same turn.
type InvocationResult struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error_message,omitempty"`
}

// OKResult builds a success result.
func OKResult(id string, payload any) InvocationResult {
	return InvocationResult{ID: id, Status: StatusOK, Payload: payload}
}

// ErrorResult builds an error result carrying the error's message.
func ErrorResult(id string, err error) InvocationResult {
	return InvocationResult{ID: id, Status: StatusError, Error: err.Error()}
}

// Message is one entry in a session transcript. Ordering is significant
// and append-only; a transcript is owned by exactly one orchestration
// loop invocation.
type Message struct {
	Role    Role                `json:"role"`
	Content string              `json:"content,omitempty"`
	Calls   []InvocationRequest `json:"invocations,omitempty"`
	Result  *InvocationResult   `json:"result,omitempty"`

	// Raw optionally carries the provider-native form of an assistant
	// message so implementations can echo it back verbatim instead of
	// reconstructing tool-use blocks.
	Raw any `json:"-"`
}

// UserMessage builds a user text message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage builds an assistant message, optionally carrying the
// invocation requests it made.
func AssistantMessage(text string, calls []InvocationRequest, raw any) Message {
	return Message{Role: RoleAssistant, Content: text, Calls: calls, Raw: raw}
}

// ToolMessage wraps an invocation result as a transcript message.
func ToolMessage(res InvocationResult) Message {
	r := res
	return Message{Role: RoleTool, Result: &r}
}
