package utils

// Context keys for request-scoped values
type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	IPAddressKey contextKey = "ip_address"
	EndpointKey  contextKey = "endpoint"
	TimeoutKey   contextKey = "timeout"
)
