// Package middleware provides the HTTP middleware chain: logging, authentication, rate limiting and tracing.
package middleware

import (
	"context"
	"errors"
	"strings"

	"socialhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Messages reported by AuthRequired.
const (
	MsgNoToken      = "No token, authorization denied"
	MsgTokenFailed  = "Not authorized, token failed"
	MsgUserNotFound = "User not found"
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(token string) (uint, error)
}

// UserLookup loads the live user behind a verified token.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// AuthOptions tunes AuthRequired.
type AuthOptions struct {
	// AllowQueryToken accepts ?token= when no Authorization header is sent (browser WebSockets).
	AllowQueryToken bool
}

// AuthRequired verifies the bearer token, loads the user and attaches it to the request context.
func AuthRequired(tokens TokenVerifier, users UserLookup, opts ...AuthOptions) fiber.Handler {
	var opt AuthOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" && opt.AllowQueryToken {
			token = c.Query("token")
		}
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(MsgNoToken))
		}

		userID, err := tokens.Verify(token)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(MsgTokenFailed))
		}

		ctx := c.UserContext()
		user, err := users.GetByID(ctx, userID)
		if err != nil {
			var appErr *models.AppError
			if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
				return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(MsgUserNotFound))
			}
			Logger.ErrorContext(ctx, "auth user lookup failed", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}
		if user == nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(MsgUserNotFound))
		}

		c.Locals("userID", user.ID)
		ctx = context.WithValue(ctx, UserIDKey, user.ID)
		c.SetUserContext(WithCurrentUser(ctx, user))

		return c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// WithCurrentUser stores the authenticated user in ctx.
func WithCurrentUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, currentUserKey, user)
}

// CurrentUser returns the authenticated user stored by AuthRequired.
func CurrentUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(currentUserKey).(*models.User)
	return user, ok && user != nil
}
