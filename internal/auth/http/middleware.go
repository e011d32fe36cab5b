package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authDomain "github.com/allisson/playready-proxy/internal/auth/domain"
	authUseCase "github.com/allisson/playready-proxy/internal/auth/usecase"
	apperrors "github.com/allisson/playready-proxy/internal/errors"
	"github.com/allisson/playready-proxy/internal/httputil"
)

// APIKeyMiddleware authenticates requests with the X-API-KEY header.
//
// Error handling:
//   - Missing header → 403 {"error":"auth_missing","message":"API key is missing"}
//   - Unknown key → 403 {"error":"auth_invalid","message":"Invalid API key"}
//   - Store failure → mapped by httputil.HandleErrorGin
//
// On success the key owner is stored in the request context, see GetAPIKey.
func APIKeyMiddleware(apiKeyUseCase authUseCase.APIKeyUseCase, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader(authDomain.APIKeyHeader)

		apiKey, err := apiKeyUseCase.Validate(c.Request.Context(), presented)
		if err != nil {
			switch {
			case apperrors.Is(err, authDomain.ErrAPIKeyMissing):
				logger.Debug("authentication failed: missing api key",
					slog.String("path", c.Request.URL.Path))
				httputil.WriteErrorGin(c, http.StatusForbidden, "auth_missing", "API key is missing")
			case apperrors.Is(err, authDomain.ErrAPIKeyInvalid):
				logger.Debug("authentication failed: invalid api key",
					slog.String("path", c.Request.URL.Path))
				httputil.WriteErrorGin(c, http.StatusForbidden, "auth_invalid", "Invalid API key")
			default:
				httputil.HandleErrorGin(c, err, logger)
			}
			return
		}

		ctx := WithAPIKey(c.Request.Context(), apiKey)
		c.Request = c.Request.WithContext(ctx)

		logger.Debug("authentication successful", slog.String("username", apiKey.Username))

		c.Next()
	}
}
