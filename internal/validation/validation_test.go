package validation

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cirocosta/todo-service-go/internal/model"
)

func fieldErrors(t *testing.T, err error) []model.FieldError {
	t.Helper()

	var verr *Error
	require.True(t, errors.As(err, &verr), "expected *validation.Error, got %T: %v", err, err)

	return verr.Fields
}

func codes(fields []model.FieldError) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Field+"/"+f.Code)
	}
	return out
}

func TestValidateCreate(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		body      string
		want      model.CreateTodoRequest
		wantCodes []string
	}{
		"valid": {
			body: `{"text":"Buy milk"}`,
			want: model.CreateTodoRequest{Text: "Buy milk"},
		},
		"extra fields are ignored": {
			body: `{"text":"Buy milk","priority":1}`,
			want: model.CreateTodoRequest{Text: "Buy milk"},
		},
		"500 characters": {
			body: fmt.Sprintf(`{"text":%q}`, strings.Repeat("x", 500)),
			want: model.CreateTodoRequest{Text: strings.Repeat("x", 500)},
		},
		"padded 500 characters": {
			body: fmt.Sprintf(`{"text":%q}`, "  "+strings.Repeat("x", 500)+"  "),
			want: model.CreateTodoRequest{Text: "  " + strings.Repeat("x", 500) + "  "},
		},
		"empty text": {
			body:      `{"text":""}`,
			wantCodes: []string{"text/too_small"},
		},
		"whitespace text": {
			body:      `{"text":"   "}`,
			wantCodes: []string{"text/too_small"},
		},
		"501 characters": {
			body:      fmt.Sprintf(`{"text":%q}`, strings.Repeat("x", 501)),
			wantCodes: []string{"text/too_big"},
		},
		"missing text": {
			body:      `{}`,
			wantCodes: []string{"text/required"},
		},
		"text is not a string": {
			body:      `{"text":42}`,
			wantCodes: []string{"text/invalid_type"},
		},
		"body is not an object": {
			body:      `["Buy milk"]`,
			wantCodes: []string{"body/invalid_type"},
		},
		"malformed json": {
			body:      `{"text":`,
			wantCodes: []string{"body/invalid_json"},
		},
		"empty body": {
			body:      ``,
			wantCodes: []string{"body/invalid_json"},
		},
		"trailing data": {
			body:      `{"text":"a"}{"text":"b"}`,
			wantCodes: []string{"body/invalid_json"},
		},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := ValidateCreate([]byte(tc.body))
			if tc.wantCodes != nil {
				assert.ElementsMatch(t, tc.wantCodes, codes(fieldErrors(t, err)))
				return
			}

			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("request mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	t.Parallel()

	text := "Buy oat milk"
	done := true

	for name, tc := range map[string]struct {
		body      string
		want      model.UpdateTodoRequest
		wantCodes []string
	}{
		"completed only": {
			body: `{"completed":true}`,
			want: model.UpdateTodoRequest{Completed: &done},
		},
		"text only": {
			body: `{"text":"Buy oat milk"}`,
			want: model.UpdateTodoRequest{Text: &text},
		},
		"both": {
			body: `{"text":"Buy oat milk","completed":true}`,
			want: model.UpdateTodoRequest{Text: &text, Completed: &done},
		},
		"no fields": {
			body:      `{}`,
			wantCodes: []string{"update/missing_field"},
		},
		"only unknown fields": {
			body:      `{"priority":1}`,
			wantCodes: []string{"update/missing_field"},
		},
		"completed is not a boolean": {
			body:      `{"completed":"yes"}`,
			wantCodes: []string{"completed/invalid_type"},
		},
		"empty text": {
			body:      `{"text":""}`,
			wantCodes: []string{"text/too_small"},
		},
		"501 characters": {
			body:      fmt.Sprintf(`{"text":%q}`, strings.Repeat("x", 501)),
			wantCodes: []string{"text/too_big"},
		},
		"null body": {
			body:      `null`,
			wantCodes: []string{"body/invalid_type"},
		},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := ValidateUpdate([]byte(tc.body))
			if tc.wantCodes != nil {
				assert.ElementsMatch(t, tc.wantCodes, codes(fieldErrors(t, err)))
				return
			}

			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("request mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateReplace(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		body      string
		want      model.ReplaceTodoRequest
		wantCodes []string
	}{
		"valid": {
			body: `{"text":"Walk dog","completed":false}`,
			want: model.ReplaceTodoRequest{Text: "Walk dog", Completed: false},
		},
		"missing completed": {
			body:      `{"text":"Walk dog"}`,
			wantCodes: []string{"completed/required"},
		},
		"missing both": {
			body:      `{}`,
			wantCodes: []string{"text/required", "completed/required"},
		},
		"blank text": {
			body:      `{"text":" ","completed":true}`,
			wantCodes: []string{"text/too_small"},
		},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := ValidateReplace([]byte(tc.body))
			if tc.wantCodes != nil {
				assert.ElementsMatch(t, tc.wantCodes, codes(fieldErrors(t, err)))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidateID(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		id   string
		want string
	}{
		"canonical uuid": {
			id:   "123e4567-e89b-12d3-a456-426614174000",
			want: "123e4567-e89b-12d3-a456-426614174000",
		},
		"upper case is canonicalized": {
			id:   "123E4567-E89B-12D3-A456-426614174000",
			want: "123e4567-e89b-12d3-a456-426614174000",
		},
		"empty": {
			id: "",
		},
		"not a uuid": {
			id: "not-a-uuid",
		},
		"no dashes": {
			id: "123e4567e89b12d3a456426614174000",
		},
		"urn form": {
			id: "urn:uuid:123e4567-e89b-12d3-a456-426614174000",
		},
		"bad hex": {
			id: "123e4567-e89b-12d3-a456-42661417400z",
		},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := ValidateID(tc.id)
			if tc.want != "" {
				require.NoError(t, err)
				assert.Equal(t, tc.want, got)
				return
			}

			assert.Equal(t, []string{"id/invalid_uuid"}, codes(fieldErrors(t, err)))
		})
	}
}

func TestError(t *testing.T) {
	t.Parallel()

	err := &Error{Fields: []model.FieldError{
		{Field: "text", Message: "text is required", Code: CodeRequired},
		{Field: "completed", Message: "completed is required", Code: CodeRequired},
	}}

	assert.EqualError(t, err, "validation failed: text: text is required; completed: completed is required")
	assert.True(t, IsValidationError(fmt.Errorf("decode: %w", err)))
	assert.False(t, IsValidationError(errors.New("boom")))
	assert.EqualError(t, &Error{}, "validation failed")
}
