package testutil

import (
	"net/http"

	"docverify/pkg/requestcontext"
)

// WithClientID adds an authenticated client ID to the request context.
// This simulates what the auth middleware does for requests with a valid token.
func WithClientID(req *http.Request, clientID string) *http.Request {
	return req.WithContext(requestcontext.WithClientID(req.Context(), clientID))
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithAuth adds both client ID and request ID to the request context.
// Empty values are skipped.
func WithAuth(req *http.Request, clientID, requestID string) *http.Request {
	ctx := req.Context()
	if clientID != "" {
		ctx = requestcontext.WithClientID(ctx, clientID)
	}
	if requestID != "" {
		ctx = requestcontext.WithRequestID(ctx, requestID)
	}
	return req.WithContext(ctx)
}
