package services

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(newFakeUserRepo())

	email := gofakeit.Email()
	user, err := svc.Register(ctx, RegisterInput{DisplayName: "  DJ Test ", Email: "  " + email, Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "DJ Test", user.DisplayName)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	loggedIn, err := svc.Login(ctx, LoginInput{Email: email, Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	_, err = svc.Login(ctx, LoginInput{Email: email, Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: gofakeit.Email(), Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Register(ctx, RegisterInput{DisplayName: "Again", Email: email, Password: "another-pass"})
	assert.ErrorIs(t, err, ErrUserEmailConflict)
}

func TestAuthServiceRegisterValidation(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())

	testCases := []struct {
		name     string
		input    RegisterInput
		expected error
	}{
		{"missing display name", RegisterInput{Email: "a@b.io", Password: "long-enough"}, ErrValidationFailed},
		{"bad email", RegisterInput{DisplayName: "x", Email: "not-an-email", Password: "long-enough"}, ErrValidationFailed},
		{"short password", RegisterInput{DisplayName: "x", Email: "a@b.io", Password: "short"}, ErrPasswordTooShort},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.input)
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}
