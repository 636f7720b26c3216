package youtube

import (
	"errors"
	"fmt"
	"strings"

	httpx "github.com/nucleus/yt-ingest/internal/connector/http"
)

const (
	CodeQuotaExceeded     = "E_QUOTA_EXCEEDED"
	CodeRemoteTransient   = "E_REMOTE_TRANSIENT"
	CodeMalformedResponse = "E_MALFORMED_RESPONSE"
)

// Error wraps remote-API failures with retryability hints.
type Error struct {
	Code      string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// IsQuotaExceeded reports whether err is the remote API refusing further
// calls for quota reasons. The orchestrator stops issuing new remote calls
// for the rest of the run when it sees this.
func IsQuotaExceeded(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == CodeQuotaExceeded
}

// PartialDetailError reports a detail fetch where some ids failed. The
// successes are still usable; the failed ids must not be cached as seen.
type PartialDetailError struct {
	FailedIDs []string
	Err       error
}

func (e *PartialDetailError) Error() string {
	return fmt.Sprintf("detail fetch failed for %d ids: %v", len(e.FailedIDs), e.Err)
}

func (e *PartialDetailError) Unwrap() error { return e.Err }

func wrapError(code string, retryable bool, err error) *Error {
	return &Error{Code: code, Retryable: retryable, Err: err}
}

// classifyError converts transport-layer failures into the connector's
// typed taxonomy.
func classifyError(err error) *Error {
	var httpErr *httpx.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == 403 && strings.Contains(httpErr.Message, "quota") {
			return wrapError(CodeQuotaExceeded, false, err)
		}
		if httpErr.IsRateLimited() || httpErr.IsServerError() {
			return wrapError(CodeRemoteTransient, true, err)
		}
		return wrapError(CodeMalformedResponse, false, err)
	}
	return wrapError(CodeRemoteTransient, true, err)
}
