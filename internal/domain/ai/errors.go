package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrMalformedResponse indicates the model reply carried no parseable JSON object.
var ErrMalformedResponse = errors.New("ai response was not valid JSON")

