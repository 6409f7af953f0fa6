// package model contains the data models shared by the storage, service and api layers
package model

import (
	"time"
)

// MaxTextLength is the longest todo text accepted, counted after trimming
const MaxTextLength = 500

// Todo represents a todo item in the system
type Todo struct {
	ID        string    `json:"id" doc:"Unique identifier for the todo item" example:"123e4567-e89b-12d3-a456-426614174000"`
	Text      string    `json:"text" doc:"Text of the todo item" example:"Buy milk"`
	Completed bool      `json:"completed" doc:"Whether the todo item is completed" example:"false"`
	CreatedAt time.Time `json:"createdAt" doc:"When the todo item was created" example:"2023-01-01T12:00:00Z"`
	UpdatedAt time.Time `json:"updatedAt" doc:"When the todo item was last updated" example:"2023-01-02T12:00:00Z"`
}

// CreateTodoRequest is used when creating a new todo item
type CreateTodoRequest struct {
	Text string `json:"text" doc:"Text of the todo item" example:"Buy milk"`
}

// UpdateTodoRequest is used when updating an existing todo item.
// Nil fields are left untouched.
type UpdateTodoRequest struct {
	Text      *string `json:"text,omitempty" doc:"New text of the todo item" example:"Buy oat milk"`
	Completed *bool   `json:"completed,omitempty" doc:"Whether the todo item is completed" example:"true"`
}

// ReplaceTodoRequest documents the body of a full replace (PUT)
type ReplaceTodoRequest struct {
	Text      string `json:"text" doc:"Text of the todo item" example:"Buy oat milk"`
	Completed bool   `json:"completed" doc:"Whether the todo item is completed" example:"true"`
}

// StatusResponse is returned by operations that have no resource to return
type StatusResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"All todos cleared successfully"`
}

// FieldError describes a single rejected field of a request
type FieldError struct {
	Field   string `json:"field" doc:"Name of the offending field" example:"text"`
	Message string `json:"message" doc:"Human readable reason" example:"text must not be empty"`
	Code    string `json:"code" doc:"Machine readable reason" example:"too_small"`
}

// ErrorResponse represents an error returned by the API
type ErrorResponse struct {
	Error  string       `json:"error" doc:"Error message" example:"validation failed"`
	Errors []FieldError `json:"errors,omitempty" doc:"Field level validation errors"`
}
