package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/altenshop/backend/domain"
)

func TestNewErrorResponseCarriesBusinessCode(t *testing.T) {
	resp := NewErrorResponse("/auth/authenticate", domain.AuthenticationError("bad credentials"))

	assert.Equal(t, "/auth/authenticate", resp.Path)
	assert.Equal(t, int(domain.CodeBadCredentials), resp.BusinessCode)
	assert.Equal(t, domain.CodeBadCredentials.Description(), resp.BusinessMessage)
	assert.Equal(t, "bad credentials", resp.Error)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestNewErrorResponseUncategorized(t *testing.T) {
	resp := NewErrorResponse("/products", assert.AnError)

	assert.Zero(t, resp.BusinessCode)
	assert.Empty(t, resp.BusinessMessage)
	assert.Equal(t, assert.AnError.Error(), resp.Error)
}

func TestValidateFlattensViolations(t *testing.T) {
	messages := Validate(&RegistrationRequest{
		Firstname: "Jane",
		Email:     "not-an-email",
		Password:  "short",
	})

	assert.Contains(t, messages, "Lastname is mandatory")
	assert.Contains(t, messages, "Email is not well formatted")
	assert.Contains(t, messages, "Password should be at least 8 characters long")
}

func TestValidateAcceptsValidPayload(t *testing.T) {
	assert.Nil(t, Validate(&RegistrationRequest{
		Firstname: "Jane",
		Lastname:  "Doe",
		Email:     "jane@x.com",
		Password:  "long-enough",
	}))
}
