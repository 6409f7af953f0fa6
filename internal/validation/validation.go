// package validation checks request payloads and path parameters before they
// reach the service layer
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/cirocosta/todo-service-go/internal/model"
)

// error codes reported in model.FieldError
const (
	CodeInvalidJSON  = "invalid_json"
	CodeInvalidType  = "invalid_type"
	CodeRequired     = "required"
	CodeTooSmall     = "too_small"
	CodeTooBig       = "too_big"
	CodeMissingField = "missing_field"
	CodeInvalidUUID  = "invalid_uuid"
)

const (
	createSchema = `{
  "type": "object",
  "required": ["text"],
  "properties": {
    "text": {"type": "string"}
  }
}`

	updateSchema = `{
  "type": "object",
  "properties": {
    "text": {"type": "string"},
    "completed": {"type": "boolean"}
  },
  "anyOf": [
    {"required": ["text"]},
    {"required": ["completed"]}
  ]
}`

	replaceSchema = `{
  "type": "object",
  "required": ["text", "completed"],
  "properties": {
    "text": {"type": "string"},
    "completed": {"type": "boolean"}
  }
}`
)

const schemaBaseURL = "https://todo-service.local/schemas/"

// requestSchema pairs a compiled schema with the properties it requires
type requestSchema struct {
	schema   *jsonschema.Schema
	required []string
}

var (
	createRequest  = mustCompile(schemaBaseURL+"create.json", createSchema, "text")
	updateRequest  = mustCompile(schemaBaseURL+"update.json", updateSchema)
	replaceRequest = mustCompile(schemaBaseURL+"replace.json", replaceSchema, "text", "completed")
)

func mustCompile(name, schema string, required ...string) requestSchema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(schema)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}

	compiled, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}

	return requestSchema{schema: compiled, required: required}
}

// Error is returned when a request is rejected. It lists every offending field.
type Error struct {
	Fields []model.FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}

	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}

	return "validation failed: " + strings.Join(msgs, "; ")
}

// IsValidationError reports whether err is, or wraps, an *Error
func IsValidationError(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

func fieldError(field, code, message string) *Error {
	return &Error{Fields: []model.FieldError{{Field: field, Message: message, Code: code}}}
}

// ValidateCreate checks a create payload and returns the decoded request
func ValidateCreate(body []byte) (model.CreateTodoRequest, error) {
	var req model.CreateTodoRequest
	if err := decode(body, createRequest, &req); err != nil {
		return model.CreateTodoRequest{}, err
	}

	if fe := checkText(req.Text); fe != nil {
		return model.CreateTodoRequest{}, &Error{Fields: []model.FieldError{*fe}}
	}

	return req, nil
}

// ValidateUpdate checks a partial update payload. At least one of text and
// completed must be present.
func ValidateUpdate(body []byte) (model.UpdateTodoRequest, error) {
	var req model.UpdateTodoRequest
	if err := decode(body, updateRequest, &req); err != nil {
		return model.UpdateTodoRequest{}, err
	}

	if req.Text != nil {
		if fe := checkText(*req.Text); fe != nil {
			return model.UpdateTodoRequest{}, &Error{Fields: []model.FieldError{*fe}}
		}
	}

	return req, nil
}

// ValidateReplace checks a full replace payload. Both fields are required.
func ValidateReplace(body []byte) (model.ReplaceTodoRequest, error) {
	var req model.ReplaceTodoRequest
	if err := decode(body, replaceRequest, &req); err != nil {
		return model.ReplaceTodoRequest{}, err
	}

	if fe := checkText(req.Text); fe != nil {
		return model.ReplaceTodoRequest{}, &Error{Fields: []model.FieldError{*fe}}
	}

	return req, nil
}

// ValidateID checks that id is a 36 character UUID and returns it in
// canonical lower case form
func ValidateID(id string) (string, error) {
	if len(id) != 36 {
		return "", fieldError("id", CodeInvalidUUID, "id must be a valid UUID")
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fieldError("id", CodeInvalidUUID, "id must be a valid UUID")
	}
	return parsed.String(), nil
}

func checkText(text string) *model.FieldError {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	switch {
	case n == 0:
		return &model.FieldError{Field: "text", Code: CodeTooSmall, Message: "text must not be empty"}
	case n > model.MaxTextLength:
		return &model.FieldError{
			Field:   "text",
			Code:    CodeTooBig,
			Message: fmt.Sprintf("text must be at most %d characters", model.MaxTextLength),
		}
	}
	return nil
}

// decode parses body, checks it against rs and unmarshals it into dst
func decode(body []byte, rs requestSchema, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fieldError("body", CodeInvalidJSON, "request body must be valid JSON")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fieldError("body", CodeInvalidJSON, "request body must contain a single JSON value")
	}

	if err := rs.schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return fmt.Errorf("validate request: %w", err)
		}

		verr := &Error{}
		collectFieldErrors(verr, ve, doc, rs.required)
		return verr
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fieldError("body", CodeInvalidJSON, "request body must be valid JSON")
	}

	return nil
}

func collectFieldErrors(verr *Error, ve *jsonschema.ValidationError, doc any, required []string) {
	keyword := ve.KeywordLocation[strings.LastIndex(ve.KeywordLocation, "/")+1:]

	switch {
	case keyword == "anyOf":
		verr.Fields = append(verr.Fields, model.FieldError{
			Field:   "update",
			Code:    CodeMissingField,
			Message: "at least one of text or completed must be provided",
		})
		return

	case len(ve.Causes) > 0:
		for _, cause := range ve.Causes {
			collectFieldErrors(verr, cause, doc, required)
		}
		return

	case keyword == "required":
		obj, _ := doc.(map[string]any)
		for _, name := range required {
			if _, ok := obj[name]; !ok {
				verr.Fields = append(verr.Fields, model.FieldError{
					Field:   name,
					Code:    CodeRequired,
					Message: name + " is required",
				})
			}
		}
		return

	case keyword == "type":
		verr.Fields = append(verr.Fields, model.FieldError{
			Field:   fieldName(ve.InstanceLocation),
			Code:    CodeInvalidType,
			Message: ve.Message,
		})
		return
	}

	verr.Fields = append(verr.Fields, model.FieldError{
		Field:   fieldName(ve.InstanceLocation),
		Code:    keyword,
		Message: ve.Message,
	})
}

// fieldName turns a JSON pointer into a dotted field name
func fieldName(ptr string) string {
	ptr = strings.TrimPrefix(strings.TrimPrefix(ptr, "#"), "/")
	if ptr == "" {
		return "body"
	}
	return strings.ReplaceAll(ptr, "/", ".")
}
