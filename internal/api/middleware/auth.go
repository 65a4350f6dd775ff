package middleware

import (
	"net/http"
	"strings"
	"tle_zone_studio/internal/common"
	"tle_zone_studio/internal/common/security"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
)

// SessionIDParam is the route parameter the draft token must match.
const SessionIDParam = "sessionID"

// DraftAuthenticator admits a request only when its verified token was issued for
// the authoring session named in the URL.
func DraftAuthenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())

		if err != nil {
			if strings.Contains(err.Error(), "token not found") || token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Draft token required")
			} else {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
			}
			return
		}

		if token == nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		draftID, err := security.DraftIDFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}
		if draftID != chi.URLParam(r, SessionIDParam) {
			common.RespondWithError(w, http.StatusForbidden, "Token was issued for another session")
			return
		}
		next.ServeHTTP(w, r)
	})
}
