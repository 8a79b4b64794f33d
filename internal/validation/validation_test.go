package validation

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "storefront/internal/errors"
)

type loginRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,indian_mobile"`
}

type item struct {
	URL string `json:"imageUrl" validate:"required,url"`
}

type nestedRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,numeric,len=4"`
	Items []item `json:"items" validate:"required,min=1,dive"`
}

func TestValidate_OK(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(&loginRequest{PhoneNumber: "9876543210"}))
	assert.NoError(t, v.Validate(&nestedRequest{
		Email: "a@example.com",
		OTP:   "1234",
		Items: []item{{URL: "https://cdn.example.com/a.jpg"}},
	}))
}

func TestValidate_PhoneNumber(t *testing.T) {
	err := New().Validate(&loginRequest{PhoneNumber: "12345"})

	var httpErr *apperrors.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, apperrors.CodeValidation, httpErr.Code)
	assert.Equal(t, map[string]string{"phoneNumber": "must be a valid 10-digit Indian mobile number"}, httpErr.Data)
}

func TestValidate_FieldPaths(t *testing.T) {
	err := New().Validate(&nestedRequest{
		Email: "nope",
		OTP:   "12a",
		Items: []item{{URL: "not a url"}},
	})

	var httpErr *apperrors.HTTPError
	require.ErrorAs(t, err, &httpErr)
	details, ok := httpErr.Data.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid email address", details["email"])
	assert.Contains(t, details, "otp")
	assert.Equal(t, "must be a valid URL", details["items[0].imageUrl"])
}

func TestValidate_EmptySlice(t *testing.T) {
	err := New().Validate(&nestedRequest{Email: "a@example.com", OTP: "1234"})

	var httpErr *apperrors.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "is required", httpErr.Data.(map[string]string)["items"])
}
