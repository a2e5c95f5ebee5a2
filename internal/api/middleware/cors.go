package middleware

import (
	"net/http"
	"strings"
)

// CORS answers preflight requests and sets the allow headers. origins is a
// comma separated list; "*" allows any origin.
func CORS(origins string) func(http.Handler) http.Handler {
	allowed := parseOrigins(origins)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := allowed.match(r.Header.Get("Origin")); origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type,X-Request-ID")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition,X-Request-ID")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OriginChecker reports whether a request's Origin header is allowed; used
// by the websocket upgrader.
func OriginChecker(origins string) func(r *http.Request) bool {
	allowed := parseOrigins(origins)
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed.match(origin) != ""
	}
}

type originList []string

func parseOrigins(s string) originList {
	var out originList
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// match returns the value for Access-Control-Allow-Origin, or "".
func (l originList) match(origin string) string {
	for _, o := range l {
		if o == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}
