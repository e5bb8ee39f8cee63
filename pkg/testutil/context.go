package testutil

import (
	"net/http"

	"riskflow/pkg/requestcontext"
)

// WithSubject marks the request as authenticated for subject, as the auth
// middleware would. An empty subject leaves the request untouched.
func WithSubject(req *http.Request, subject string) *http.Request {
	if subject == "" {
		return req
	}
	return req.WithContext(requestcontext.WithSubject(req.Context(), subject))
}

// WithRequestID attaches a request id to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
