package security

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog/log"
)

// AuditLogger logs chat events with hashed identifiers so message
// contents and API keys never land in log storage.
type AuditLogger struct {
	enabled bool
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// LogChatTurn records one completed (or failed) chat turn.
func (a *AuditLogger) LogChatTurn(
	message, apiKey string,
	iterations, invocations int,
	executionTimeMs int64,
	success bool,
	errMsg string,
) {
	if !a.enabled {
		return
	}
	msgHash := hashStr(message)[:16]
	keyHash := hashStr(apiKey)[:16]

	evt := log.Info().
		Str("event", "chat_audit").
		Str("message_hash", msgHash).
		Str("api_key_hash", keyHash).
		Int("iterations", iterations).
		Int("invocations", invocations).
		Int64("execution_time_ms", executionTimeMs).
		Bool("success", success)

	if errMsg != "" {
		evt = evt.Str("error", errMsg)
	}
	evt.Msg("audit")
}

// LogRejectedMessage records a message the validator refused.
func (a *AuditLogger) LogRejectedMessage(message, reason string) {
	if !a.enabled {
		return
	}
	log.Warn().
		Str("event", "chat_rejected").
		Str("message_hash", hashStr(message)[:16]).
		Str("reason", reason).
		Msg("audit")
}

func hashStr(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
