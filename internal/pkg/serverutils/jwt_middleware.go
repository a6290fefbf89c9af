package serverutils

import (
	"context"
	"strings"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// PrincipalResolver turns a bearer token into the live user behind it.
// Tokens for users that no longer exist must not resolve.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (*entity.User, error)
}

// NewJwtMiddleware guards a route group. On success the authenticated
// user id is stored in Locals under "user_id" as a string.
func NewJwtMiddleware(resolver PrincipalResolver) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if authHeader == "" {
			return apperror.Unauthenticated("missing authorization header")
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			return apperror.Unauthenticated("invalid authorization header")
		}

		user, err := resolver.ResolvePrincipal(ctx.UserContext(), token)
		if err != nil {
			return err
		}

		ctx.Locals("user_id", user.Id.String())
		return ctx.Next()
	}
}
