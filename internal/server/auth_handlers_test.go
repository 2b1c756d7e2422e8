package server

import (
	"net/http"
	"testing"

	"usof/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	status, data := env.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": "carol",
		"email":    "Carol@Example.com",
		"password": "Secret123",
		"fullName": "Carol Doe",
	})
	require.Equal(t, http.StatusCreated, status, string(data))
	var registered authResponse
	decode(t, data, &registered)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "carol@example.com", registered.User.Email)

	status, data = env.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": "carol",
		"email":    "other@example.com",
		"password": "Secret123",
		"fullName": "Carol Two",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "USERNAME_TAKEN", errorBody(t, data).Reason)

	status, _ = env.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"login": "carol", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, data = env.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"login": "carol@example.com", "password": "Secret123"})
	require.Equal(t, http.StatusOK, status)
	var loggedIn authResponse
	decode(t, data, &loggedIn)
	token := loggedIn.Token

	status, data = env.do(t, http.MethodGet, "/api/auth/verify", token, nil)
	require.Equal(t, http.StatusOK, status)
	var claims map[string]interface{}
	decode(t, data, &claims)
	assert.Equal(t, registered.User.ID, claims["userId"])
	assert.Equal(t, string(models.RoleUser), claims["role"])

	status, _ = env.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, data = env.do(t, http.MethodGet, "/api/auth/verify", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token has been revoked", errorBody(t, data).Error)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body fiber.Map
	}{
		{"weak password", fiber.Map{"username": "dave", "email": "dave@example.com", "password": "short", "fullName": "Dave"}},
		{"bad email", fiber.Map{"username": "dave", "email": "nope", "password": "Secret123", "fullName": "Dave"}},
		{"bad username", fiber.Map{"username": "d", "email": "dave@example.com", "password": "Secret123", "fullName": "Dave"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data := env.do(t, http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, models.CodeValidation, errorBody(t, data).Code)
		})
	}
}
