package auth

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"tush00nka/bbbab_conversations/internal/pkg/httputils"
)

// Middleware resolves the bearer token into an Identity on the request
// context. Requests without a token pass through unauthenticated; handlers
// decide how to answer them. A token that is present but invalid is
// rejected here.
func Middleware(tokens *TokenManager, log logrus.FieldLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, tokenStr, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || tokenStr == "" {
				httputils.ResponseError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			claims, err := tokens.ValidateToken(tokenStr)
			if err != nil {
				log.WithError(err).WithField("path", r.URL.Path).Warn("token validation failed")
				httputils.ResponseError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := WithIdentity(r.Context(), Identity{UserID: claims.UserID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
