package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"socialhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_DuplicateEmailIsBadRequest(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]string{"name": "Alice", "email": "alice@example.com", "password": "password123"}

	var created struct {
		Message string `json:"message"`
		UserID  uint   `json:"userId"`
	}
	require.Equal(t, fiber.StatusCreated, ts.do(t, jsonRequest(http.MethodPost, "/api/auth/register", "", body), &created))
	assert.Equal(t, "User registered successfully", created.Message)
	assert.NotZero(t, created.UserID)

	var dup models.ErrorResponse
	require.Equal(t, fiber.StatusBadRequest, ts.do(t, jsonRequest(http.MethodPost, "/api/auth/register", "", body), &dup))
	assert.Equal(t, "Email already exists", dup.Message)

	var count int64
	require.NoError(t, ts.db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRegister_Validation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing name", map[string]string{"email": "a@example.com", "password": "password123"}},
		{"bad email", map[string]string{"name": "A", "email": "nope", "password": "password123"}},
		{"short password", map[string]string{"name": "A", "email": "a@example.com", "password": "123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp models.ErrorResponse
			status := ts.do(t, jsonRequest(http.MethodPost, "/api/auth/register", "", tt.body), &resp)
			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, models.CodeValidation, resp.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	id, _ := ts.registerAndLogin(t, "bob")

	t.Run("success returns token and user", func(t *testing.T) {
		var resp struct {
			Message string             `json:"message"`
			Token   string             `json:"token"`
			User    models.UserSummary `json:"user"`
		}
		status := ts.do(t, jsonRequest(http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "BOB@example.com", "password": "password123",
		}), &resp)
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "Login successful", resp.Message)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, id, resp.User.ID)
		assert.Equal(t, "bob", resp.User.Name)
		assert.Equal(t, "bob@example.com", resp.User.Email)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		for _, creds := range []map[string]string{
			{"email": "bob@example.com", "password": "wrong-password"},
			{"email": "nobody@example.com", "password": "password123"},
		} {
			var resp models.ErrorResponse
			status := ts.do(t, jsonRequest(http.MethodPost, "/api/auth/login", "", creds), &resp)
			assert.Equal(t, fiber.StatusUnauthorized, status)
			assert.Equal(t, "Invalid credentials", resp.Message)
		}
	})
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	var resp messageResponse
	require.Equal(t, fiber.StatusOK, ts.do(t, jsonRequest(http.MethodPost, "/api/auth/logout", "", nil), &resp))
	assert.Equal(t, "Logged out successfully", resp.Message)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	ts := newTestServer(t)

	var resp models.ErrorResponse
	status := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/posts/me", nil), &resp)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "No token, authorization denied", resp.Message)

	status = ts.do(t, jsonRequest(http.MethodGet, "/api/posts/me", "not-a-jwt", nil), &resp)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Not authorized, token failed", resp.Message)
}

func TestProtectedRoutes_DeletedUserIsRejected(t *testing.T) {
	ts := newTestServer(t)
	id, token := ts.registerAndLogin(t, "ghost")
	require.NoError(t, ts.db.Delete(&models.User{}, id).Error)

	var resp models.ErrorResponse
	status := ts.do(t, jsonRequest(http.MethodGet, "/api/posts/me", token, nil), &resp)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "User not found", resp.Message)
}
