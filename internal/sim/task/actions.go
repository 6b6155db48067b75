package task

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Action vocabularies. Order is part of the protocol: numeric actions index
// into these slices.
var (
	GapActions = []string{"forward", "back", "left", "right", "jump", "idle"}

	ThrowActions = []string{
		"forward", "back", "left", "right",
		"pick", "drop",
		"throw_weak", "throw_medium", "throw_strong",
		"idle",
	}
)

// NormalizeAction maps a raw protocol action (string, case-insensitive, or a
// numeric index) onto the vocabulary.
func NormalizeAction(vocab []string, raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		name := strings.ToLower(strings.TrimSpace(v))
		for _, a := range vocab {
			if a == name {
				return a, nil
			}
		}
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, v)
	case float64:
		// encoding/json decodes numbers into float64.
		i := int(v)
		if float64(i) != v || i < 0 || i >= len(vocab) {
			return "", fmt.Errorf("%w: index %v", ErrUnknownAction, v)
		}
		return vocab[i], nil
	case int:
		if v < 0 || v >= len(vocab) {
			return "", fmt.Errorf("%w: index %d", ErrUnknownAction, v)
		}
		return vocab[v], nil
	case json.Number:
		i, err := v.Int64()
		if err != nil || i < 0 || i >= int64(len(vocab)) {
			return "", fmt.Errorf("%w: index %s", ErrUnknownAction, v)
		}
		return vocab[i], nil
	default:
		return "", fmt.Errorf("%w: %v", ErrUnknownAction, raw)
	}
}
