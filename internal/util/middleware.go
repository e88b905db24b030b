package util

import (
	"net/http"
	"strings"
)

// PathPrefixRewrite strips prefix from the request path. A gateway exposing the api
// under e.g. /api/kaamsetu forwards the full path.
func PathPrefixRewrite(prefix string) func(http.Handler) http.Handler {
	prefix = strings.TrimSuffix(prefix, "/")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if prefix != "" && strings.HasPrefix(r.URL.Path, prefix) {
				rest := strings.TrimPrefix(r.URL.Path, prefix)
				if rest == "" || strings.HasPrefix(rest, "/") {
					r.URL.Path = rest
					r.URL.RawPath = ""
					if r.URL.Path == "" {
						r.URL.Path = "/"
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
