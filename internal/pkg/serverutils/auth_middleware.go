package serverutils

import (
	"errors"
	"strings"

	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const userLocalsKey = "user"

var ErrMalformedAuthHeader = errors.New("missing or malformed Authorization header")

// ExtractBearerToken pulls the opaque token out of a bearer-scheme
// Authorization header. The scheme match is case-insensitive.
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMalformedAuthHeader
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMalformedAuthHeader
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMalformedAuthHeader
	}
	return token, nil
}

// NewAuthMiddleware gates protected routes behind the credential store. Every
// request re-resolves its token; authentication results are never cached.
func NewAuthMiddleware(authService service.IAuthService) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		token, err := ExtractBearerToken(ctx.Get(fiber.HeaderAuthorization))
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}

		user, err := authService.ResolveToken(ctx.Context(), token)
		if err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
		}
		if user == nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		ctx.Locals(userLocalsKey, user)
		return ctx.Next()
	}
}

// CurrentUser returns the authenticated user placed by the middleware, or
// nil on an unprotected route.
func CurrentUser(ctx *fiber.Ctx) *entity.User {
	user, _ := ctx.Locals(userLocalsKey).(*entity.User)
	return user
}
