package utils

type contextKey string

// RequestIDKey carries the request id through the middleware chain.
const RequestIDKey = contextKey("requestID")
