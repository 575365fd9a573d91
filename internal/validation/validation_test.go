package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/twitterapi/internal/models"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()

	v, err := New()
	require.NoError(t, err)

	return v
}

func validSignup() models.SignupRequest {
	return models.SignupRequest{
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Liddell",
		BirthDate: "1990-05-17",
		Password:  "wonderland",
	}
}

func fieldsOf(t *testing.T, err error) []FieldError {
	t.Helper()

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr), "got %v", err)

	return validationErr.Fields
}

func TestSignupRequest(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name      string
		change    func(r *models.SignupRequest)
		wantField string
		wantRule  string
	}{
		{name: "valid", change: func(r *models.SignupRequest) {}},
		{name: "password of 8", change: func(r *models.SignupRequest) { r.Password = "12345678" }},
		{name: "password of 7", change: func(r *models.SignupRequest) { r.Password = "1234567" }, wantField: "password", wantRule: "min"},
		{name: "password of 65", change: func(r *models.SignupRequest) { r.Password = strings.Repeat("p", 65) }, wantField: "password", wantRule: "max"},
		{name: "no email", change: func(r *models.SignupRequest) { r.Email = "" }, wantField: "email", wantRule: "required"},
		{name: "bad email", change: func(r *models.SignupRequest) { r.Email = "alice" }, wantField: "email", wantRule: "email"},
		{name: "no first name", change: func(r *models.SignupRequest) { r.FirstName = "" }, wantField: "first_name", wantRule: "required"},
		{name: "last name of 50", change: func(r *models.SignupRequest) { r.LastName = strings.Repeat("l", 50) }},
		{name: "last name of 51", change: func(r *models.SignupRequest) { r.LastName = strings.Repeat("l", 51) }, wantField: "last_name", wantRule: "max"},
		{name: "no birth date", change: func(r *models.SignupRequest) { r.BirthDate = "" }},
		{name: "bad birth date", change: func(r *models.SignupRequest) { r.BirthDate = "17/05/1990" }, wantField: "birth_date", wantRule: "isodate"},
		{name: "given user id", change: func(r *models.SignupRequest) { r.UserID = uuid.NewString() }},
		{name: "bad user id", change: func(r *models.SignupRequest) { r.UserID = "42" }, wantField: "user_id", wantRule: "uuid"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			request := validSignup()
			test.change(&request)

			err := v.Struct(request)
			if test.wantField == "" {
				assert.NoError(t, err)
				return
			}

			fields := fieldsOf(t, err)
			require.Len(t, fields, 1)
			assert.Equal(t, test.wantField, fields[0].Field)
			assert.Equal(t, test.wantRule, fields[0].Rule)
			assert.NotEmpty(t, fields[0].Message)
		})
	}
}

func TestAllFieldsReported(t *testing.T) {
	v := newValidator(t)

	err := v.Struct(models.SignupRequest{})
	fields := fieldsOf(t, err)

	names := make([]string, 0, len(fields))
	for _, field := range fields {
		names = append(names, field.Field)
	}
	assert.ElementsMatch(t, []string{"email", "first_name", "last_name", "password"}, names)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestUpdateUserRequestPasswordOptional(t *testing.T) {
	v := newValidator(t)

	request := models.UpdateUserRequest(validSignup())
	request.Password = ""
	assert.NoError(t, v.Struct(request))

	request.Password = "short"
	fields := fieldsOf(t, v.Struct(request))
	assert.Equal(t, "password", fields[0].Field)
}

func TestCreatePostRequest(t *testing.T) {
	v := newValidator(t)
	author := models.PostAuthorRef{UserID: uuid.NewString()}

	tests := []struct {
		name      string
		request   models.CreatePostRequest
		wantField string
	}{
		{name: "content of 256", request: models.CreatePostRequest{Content: strings.Repeat("x", 256), By: author}},
		{name: "content of 257", request: models.CreatePostRequest{Content: strings.Repeat("x", 257), By: author}, wantField: "content"},
		{name: "empty content", request: models.CreatePostRequest{By: author}, wantField: "content"},
		{name: "no author", request: models.CreatePostRequest{Content: "hi"}, wantField: "by.user_id"},
		{name: "bad author id", request: models.CreatePostRequest{Content: "hi", By: models.PostAuthorRef{UserID: "me"}}, wantField: "by.user_id"},
		{name: "created at", request: models.CreatePostRequest{Content: "hi", CreatedAt: "2024-06-01T10:00:00Z", By: author}},
		{name: "bad created at", request: models.CreatePostRequest{Content: "hi", CreatedAt: "2024-06-01 10:00", By: author}, wantField: "created_at"},
		{name: "bad post id", request: models.CreatePostRequest{PostID: "x", Content: "hi", By: author}, wantField: "post_id"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := v.Struct(test.request)
			if test.wantField == "" {
				assert.NoError(t, err)
				return
			}

			fields := fieldsOf(t, err)
			require.Len(t, fields, 1)
			assert.Equal(t, test.wantField, fields[0].Field)
		})
	}
}

func TestUUID(t *testing.T) {
	v := newValidator(t)

	id := uuid.New()
	parsed, err := v.UUID("user_id", id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = v.UUID("post_id", "nope")
	fields := fieldsOf(t, err)
	assert.Equal(t, []FieldError{{Field: "post_id", Rule: "uuid", Message: "must be a valid UUID"}}, fields)
}
