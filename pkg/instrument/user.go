package instrument

import (
	"net/http"
	"strings"

	"github.com/platinummonkey/pulse/pkg/contextkeys"
)

// UserResolver identifies the authenticated user of a request
type UserResolver func(r *http.Request) (userID string, ok bool)

// HeaderUserResolver trusts a header set by an authenticating proxy
func HeaderUserResolver(header string) UserResolver {
	return func(r *http.Request) (string, bool) {
		id := strings.TrimSpace(r.Header.Get(header))
		return id, id != ""
	}
}

// UserMiddleware stores the resolved user id in the request context
func UserMiddleware(resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if contextkeys.GetUserID(r.Context()) == "" {
				if id, ok := resolver(r); ok {
					r = r.WithContext(contextkeys.WithUserID(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
