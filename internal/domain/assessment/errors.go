package assessment

import "errors"

// ErrQuotaExceeded indicates the provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("assessment quota exceeded")

// ErrUnavailable indicates the collaborator could not be reached in time.
var ErrUnavailable = errors.New("assessment service unavailable")
