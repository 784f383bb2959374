package validation_test

import (
	"net/http"
	"strings"
	"testing"

	domainerrors "github.com/listenupapp/listenup-lists/internal/errors"
	"github.com/listenupapp/listenup-lists/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type credentialsForm struct {
	Username string `form:"username" validate:"required,min=3,max=64"`
	Password string `form:"password" validate:"required,min=1,max=1024"`
}

type itemBody struct {
	Name string `json:"name" validate:"notblank,max=500"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(credentialsForm{Username: "alice", Password: "secret"}))
	assert.NoError(t, v.Validate(itemBody{Name: "Milk"}))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name       string
		req        any
		wantField  string
		wantDetail string
	}{
		{"missing username", credentialsForm{Password: "secret"}, "username", "is required"},
		{"short username", credentialsForm{Username: "al", Password: "secret"}, "username", "must be at least 3 characters"},
		{"long username", credentialsForm{Username: strings.Repeat("a", 65), Password: "x"}, "username", "must not exceed 64 characters"},
		{"missing password", credentialsForm{Username: "alice"}, "password", "is required"},
		{"long password", credentialsForm{Username: "alice", Password: strings.Repeat("p", 1025)}, "password", "must not exceed 1024 characters"},
		{"blank item", itemBody{Name: "   "}, "name", "is required"},
		{"long item", itemBody{Name: strings.Repeat("x", 501)}, "name", "must not exceed 500 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.Equal(t, tt.wantField+" "+tt.wantDetail, domainErr.Message)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantDetail, details[tt.wantField])
		})
	}
}

func TestValidator_TagFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(credentialsForm{})
	require.Error(t, err)

	// Uses tag names, not struct field names
	assert.Equal(t, []string{"password", "username"}, validation.Fields(err))
	assert.NotContains(t, err.Error(), "Username")
}

func TestFields_NonValidationError(t *testing.T) {
	assert.Nil(t, validation.Fields(domainerrors.Unauthorized("boom")))
	assert.Nil(t, validation.Fields(nil))
}
