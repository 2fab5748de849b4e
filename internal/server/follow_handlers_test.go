package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"socialhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowThenUnfollow_ChangesListsByOne(t *testing.T) {
	ts := newTestServer(t)
	aID, aToken := ts.registerAndLogin(t, "anna")
	bID, _ := ts.registerAndLogin(t, "ben")

	followers := func() []models.UserSummary {
		var out []models.UserSummary
		require.Equal(t, fiber.StatusOK,
			ts.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/follow/%d/followers", bID), nil), &out))
		return out
	}
	following := func() []models.UserSummary {
		var out []models.UserSummary
		require.Equal(t, fiber.StatusOK,
			ts.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/follow/%d/following", aID), nil), &out))
		return out
	}

	require.Empty(t, followers())
	require.Empty(t, following())

	var resp messageResponse
	require.Equal(t, fiber.StatusOK,
		ts.do(t, jsonRequest(http.MethodPost, fmt.Sprintf("/api/follow/%d/follow", bID), aToken, nil), &resp))
	assert.Equal(t, "User followed successfully", resp.Message)

	got := followers()
	require.Len(t, got, 1)
	assert.Equal(t, aID, got[0].ID)
	assert.Equal(t, "anna", got[0].Name)
	require.Len(t, following(), 1)

	var status struct {
		IsFollowing bool `json:"isFollowing"`
	}
	require.Equal(t, fiber.StatusOK,
		ts.do(t, jsonRequest(http.MethodGet, fmt.Sprintf("/api/follow/%d/status", bID), aToken, nil), &status))
	assert.True(t, status.IsFollowing)

	var profile models.Profile
	require.Equal(t, fiber.StatusOK,
		ts.do(t, jsonRequest(http.MethodGet, fmt.Sprintf("/api/users/profile/%d", bID), aToken, nil), &profile))
	assert.Equal(t, int64(1), profile.FollowersCount)

	require.Equal(t, fiber.StatusOK,
		ts.do(t, jsonRequest(http.MethodPost, fmt.Sprintf("/api/follow/%d/unfollow", bID), aToken, nil), &resp))
	assert.Equal(t, "User unfollowed successfully", resp.Message)
	assert.Empty(t, followers())
	assert.Empty(t, following())
}

func TestFollow_Errors(t *testing.T) {
	ts := newTestServer(t)
	aID, aToken := ts.registerAndLogin(t, "anna")
	bID, _ := ts.registerAndLogin(t, "ben")

	tests := []struct {
		name    string
		target  string
		status  int
		message string
	}{
		{"self", fmt.Sprintf("/api/follow/%d/follow", aID), fiber.StatusBadRequest, "You cannot follow yourself"},
		{"missing user", "/api/follow/9999/follow", fiber.StatusNotFound, "User not found"},
		{"unfollow without edge", fmt.Sprintf("/api/follow/%d/unfollow", bID), fiber.StatusNotFound, "Not following this user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp models.ErrorResponse
			assert.Equal(t, tt.status, ts.do(t, jsonRequest(http.MethodPost, tt.target, aToken, nil), &resp))
			assert.Equal(t, tt.message, resp.Message)
		})
	}

	t.Run("duplicate", func(t *testing.T) {
		url := fmt.Sprintf("/api/follow/%d/follow", bID)
		require.Equal(t, fiber.StatusOK, ts.do(t, jsonRequest(http.MethodPost, url, aToken, nil), nil))

		var resp models.ErrorResponse
		assert.Equal(t, fiber.StatusConflict, ts.do(t, jsonRequest(http.MethodPost, url, aToken, nil), &resp))
		assert.Equal(t, "Already following this user", resp.Message)

		var edges int64
		require.NoError(t, ts.db.Model(&models.Follow{}).Count(&edges).Error)
		assert.Equal(t, int64(1), edges)
	})
}
