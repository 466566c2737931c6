package models

import "time"

// Limit is a token bucket refilled one token every Every, holding at most
// Burst tokens.
type Limit struct {
	Every time.Duration
	Burst int
}

// Result is the outcome of one rate limit check.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, minimum 1.
func (r Result) RetryAfterSeconds() int {
	secs := int((r.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
