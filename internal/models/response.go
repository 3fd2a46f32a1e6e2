package models

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewErrorResponse creates an error response
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Message: message}
}

// NewValidationErrorResponse creates a validation error response. A single
// failure is promoted to the top-level message.
func NewValidationErrorResponse(errors map[string]string) ErrorResponse {
	resp := ErrorResponse{Message: "Validation failed", Errors: errors}
	if len(errors) == 1 {
		for _, msg := range errors {
			resp.Message = msg
		}
	}
	return resp
}

func NewMessageResponse(message string) MessageResponse {
	return MessageResponse{Message: message}
}

// AuthResponse is returned by register and both login flows.
type AuthResponse struct {
	UID         string  `json:"uid"`
	Email       string  `json:"email"`
	DisplayName string  `json:"displayName"`
	PhotoURL    *string `json:"photoURL"`
}

type ProgressResponse struct {
	CompletedTrainings []Workout `json:"completedTrainings"`
	Trainings          []Booking `json:"trainings"`
}

type MealsResponse struct {
	Meals Meals `json:"meals"`
}
