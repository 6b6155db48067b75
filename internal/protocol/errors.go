package protocol

const (
	// Configuration rejected before any session is created.
	ErrConfig = "E_CONFIG"

	// Step addressed a session identifier with no live session.
	ErrSessionNotFound = "E_SESSION_NOT_FOUND"

	// Action outside the task's vocabulary, or a bad numeric index.
	ErrBadAction = "E_BAD_ACTION"

	// Transport/decoding problems.
	ErrBadRequest = "E_BAD_REQUEST"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrConfig:          {},
	ErrSessionNotFound: {},
	ErrBadAction:       {},
	ErrBadRequest:      {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
