package ai

import "errors"

// ErrQuotaExceeded indicates the provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrMalformedResponse indicates the model output did not match the expected
// schema. Callers treat this the same as a failed remote call (fail closed).
var ErrMalformedResponse = errors.New("malformed model response")
