package auth

import "net/http"

// UserIDHeader is set by the upstream identity-aware proxy after it has
// verified the session. The service trusts it only because the proxy strips
// the header from client requests.
const UserIDHeader = "X-User-ID"

// Middleware copies the verified user id from the request header into the
// context. Requests without the header pass through unauthenticated;
// handlers that require identity reject those themselves.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := r.Header.Get(UserIDHeader); userID != "" {
			r = r.WithContext(WithUserID(r.Context(), userID))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects requests that carry no authenticated user id.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserIDFromContext(r.Context()) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
