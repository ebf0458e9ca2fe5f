package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"
)

// Kind buckets failures into the taxonomy the rest of the service
// keys surfacing and retry decisions off.
type Kind int

const (
	KindUnknown Kind = iota
	KindDatabase
	KindNetwork
	KindAuthorization
	KindOAuth
	KindValidation
	KindSession
	KindCsrf
	KindConfiguration
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindDatabase:
		return "database"
	case KindNetwork:
		return "network"
	case KindAuthorization:
		return "authorization"
	case KindOAuth:
		return "oauth"
	case KindValidation:
		return "validation"
	case KindSession:
		return "session"
	case KindCsrf:
		return "csrf"
	case KindConfiguration:
		return "configuration"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// HTTPStatus maps a kind to the status surfaced to API callers.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindDatabase, KindConfiguration, KindUnknown:
		return http.StatusInternalServerError
	case KindNetwork:
		return http.StatusServiceUnavailable
	case KindOAuth, KindSession:
		return http.StatusUnauthorized
	case KindAuthorization, KindCsrf:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether operations failing with this kind may be
// re-attempted. Only transient transport failures qualify.
func (k Kind) Retryable() bool {
	return k == KindNetwork
}

// Error is a classified failure. Detail carries upstream diagnostics
// (status codes, response bodies) for logs and must never be written
// to end-user responses.
type Error struct {
	Kind   Kind
	Msg    string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a classified error.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Classify maps an arbitrary error onto the taxonomy. Typed errors win;
// transport errors come next; otherwise a best-effort keyword match on
// the message. Ambiguity resolves to KindUnknown.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}

	if isNetworkErr(err) {
		return KindNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "oauth"), strings.Contains(msg, "auth"):
		return KindOAuth
	case strings.Contains(msg, "session"):
		return KindSession
	case strings.Contains(msg, "csrf"):
		return KindCsrf
	case strings.Contains(msg, "config"):
		return KindConfiguration
	case strings.Contains(msg, "validation"), strings.Contains(msg, "invalid"):
		return KindValidation
	default:
		return KindUnknown
	}
}

func isNetworkErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var oe *net.OpError
	return errors.As(err, &oe)
}
