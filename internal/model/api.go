package model

// APIResponse is the JSON envelope returned by this service's endpoints
type APIResponse struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError carries a stable error code alongside the message
type APIError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}
