package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error
// (HTTP 429 or similar). The extraction step is skipped when it occurs.
var ErrQuotaExceeded = errors.New("ai quota exceeded")
