package auth

import (
	"errors"
	"net/http"

	apperrors "github.com/goalstake/goalstake/pkg/app/errors"
	apphttp "github.com/goalstake/goalstake/pkg/app/http"
)

// RequireSession is chi middleware that validates the session cookie and
// injects the authenticated wallet address into the request context.
// Requests without a valid session never reach the wrapped handler.
func RequireSession(issuer *SessionIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(err, "no authentication token found"))
				return
			}

			address, err := issuer.Validate(cookie.Value)
			if err != nil {
				if errors.Is(err, ErrSessionExpired) {
					apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(err, "authentication token expired"))
					return
				}
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(err, "invalid authentication token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithWalletAddress(r.Context(), address)))
		})
	}
}
