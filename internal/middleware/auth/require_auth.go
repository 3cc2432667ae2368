package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/slim-mom/backend/internal/repo"
	"github.com/slim-mom/backend/internal/tokens"
)

// Context keys set for downstream handlers once the gate passes.
const (
	ContextUserKey   = "user"
	ContextTokenKey  = "access_token"
	ContextClaimsKey = "access_claims"
)

// Gate resolves a bearer access token to an account or rejects the
// request before any protected handler runs.
type Gate struct {
	Issuer  *tokens.Issuer
	Repo    *repo.GormRepo
	Revoked *repo.RevocationRegistry
}

func NewGate(issuer *tokens.Issuer, r *repo.GormRepo, revoked *repo.RevocationRegistry) *Gate {
	return &Gate{Issuer: issuer, Repo: r, Revoked: revoked}
}

func (g *Gate) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
		}

		// Revocation is keyed on the literal token string, so the
		// check runs before the token is even decoded.
		revoked, err := g.Revoked.IsRevoked(ctx, tokenStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
		if revoked {
			return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
		}

		claims, err := g.Issuer.ParseAccess(tokenStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		userID, err := tokens.SubjectID(claims.Subject)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		user, err := g.Repo.FindByID(ctx, userID)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextTokenKey, tokenStr)
		c.Set(ContextClaimsKey, claims)

		return next(c)
	}
}
