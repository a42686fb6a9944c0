package catalog

import "errors"

var (
	// ErrNotFound is a legitimate remote answer and never triggers fallback.
	ErrNotFound = errors.New("product not found")

	// ErrRemoteUnavailable covers network failures, timeouts and 5xx
	// responses. The gateway absorbs it by switching to the local replica.
	ErrRemoteUnavailable = errors.New("catalog remote unavailable")

	// ErrAuth maps 401-equivalent remote responses.
	ErrAuth = errors.New("authentication required")

	// ErrStoreUnavailable means the local replica itself failed; with the
	// remote already unreachable there is nothing left to serve from.
	ErrStoreUnavailable = errors.New("catalog unavailable")
)

// ValidationError carries the remote's (or local validation's) message
// verbatim so the UI can show it as-is.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// IsTransient reports whether err should flip the gateway offline rather
// than surface to the caller.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRemoteUnavailable)
}
