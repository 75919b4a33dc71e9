package models

// APIResponse is a generic API response wrapper
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Error:   message,
	}
}

// NewValidationErrorResponse creates a validation error response
func NewValidationErrorResponse(errors map[string]string) APIResponse {
	return APIResponse{
		Success: false,
		Error:   "Validation failed",
		Errors:  errors,
	}
}

// PublicError is the body of a failed public profile lookup. The public
// endpoint answers with the bare profile document on success and this shape
// on 4xx/5xx, not with the APIResponse envelope.
type PublicError struct {
	Error string `json:"error"`
}

// MediaUploadResponse is returned after a successful media upload
type MediaUploadResponse struct {
	URL       string    `json:"url"`
	MediaType MediaType `json:"mediaType"`
}
