package executor

import (
	"encoding/json"
	"fmt"
)

// normalize converts a callable's return value into a JSON-safe payload:
// nil stays nil, scalars pass through, structs become key-ordered
// mappings, and sequences are materialized but truncated at maxSeq
// elements with a trailing marker so payloads sent back to the model
// stay bounded.
func normalize(v any, maxSeq int) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("result is not JSON-serializable: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode normalized result: %w", err)
	}
	return truncateSequences(decoded, maxSeq), nil
}

func truncateSequences(v any, maxSeq int) any {
	switch val := v.(type) {
	case []any:
		total := len(val)
		if total > maxSeq {
			val = val[:maxSeq:maxSeq]
			val = append(val, fmt.Sprintf("[truncated: %d of %d items omitted]", total-maxSeq, total))
		}
		for i := range val {
			val[i] = truncateSequences(val[i], maxSeq)
		}
		return val
	case map[string]any:
		for k := range val {
			val[k] = truncateSequences(val[k], maxSeq)
		}
		return val
	default:
		return v
	}
}
