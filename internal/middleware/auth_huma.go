package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ideahub/ideahub-api/internal/auth/token"
	"github.com/ideahub/ideahub-api/internal/contextx"
)

// NewHumaAuthMiddleware returns a huma operation middleware that requires a
// valid bearer access token. On success the user ID and role are placed on
// the request context; on failure the request is rejected with a uniform 401
// regardless of whether the token was missing, malformed, expired, or signed
// with an unknown key.
func NewHumaAuthMiddleware(api huma.API, tokens *token.Manager, log *slog.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		authHeader := ctx.Header("Authorization")
		scheme, value, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || value == "" {
			writeUnauthorized(api, ctx)
			return
		}

		claims, err := tokens.VerifyAccess(value)
		if err != nil {
			log.Debug("access token rejected", "reason", err)
			writeUnauthorized(api, ctx)
			return
		}

		ctx = huma.WithValue(ctx, contextx.UserIDKey, claims.UserID)
		ctx = huma.WithValue(ctx, contextx.RoleKey, claims.Role)
		next(ctx)
	}
}

func writeUnauthorized(api huma.API, ctx huma.Context) {
	ctx.SetHeader("WWW-Authenticate", `Bearer realm="ideahub"`)
	_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "Authentication required")
}
