package models

// RateLimitExceededResponse is the API response when a client exceeds its
// request rate.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"` // seconds
}
