package middlewares

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/dynaform/dynaform/config"
	"github.com/dynaform/dynaform/httpx"
)

// AdminToken guards the admin surface with the configured static token.
// The token may arrive as a bearer Authorization header, an x-admin-token
// header, or a token query parameter. Comparison is exact string equality.
func AdminToken(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.Replace(r.Header.Get("Authorization"), "Bearer ", "", 1)
			if token == "" {
				token = r.Header.Get("x-admin-token")
			}
			if token == "" {
				token = r.URL.Query().Get("token")
			}

			if token == "" {
				httpx.JSONError(w, r, http.StatusUnauthorized, "No token provided")
				return
			}
			if token != cfg.AdminToken {
				httpx.JSONError(w, r, http.StatusForbidden, "Invalid token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Sanitize trims every string in a JSON request body and strips angle
// brackets, walking nested objects and arrays. Bodies that do not parse as
// JSON pass through untouched so the handler reports the parse error itself.
func Sanitize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodDelete {
			next.ServeHTTP(w, r)
			return
		}

		raw, err := io.ReadAll(r.Body)
		if err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "could not read request body")
			return
		}
		r.Body.Close()

		var body any
		if len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
			if cleaned, err := json.Marshal(sanitizeValue(body)); err == nil {
				raw = cleaned
			}
		}

		r.Body = io.NopCloser(bytes.NewReader(raw))
		r.ContentLength = int64(len(raw))
		next.ServeHTTP(w, r)
	})
}

var angleBrackets = strings.NewReplacer("<", "", ">", "")

func sanitizeValue(value any) any {
	switch val := value.(type) {
	case string:
		return angleBrackets.Replace(strings.TrimSpace(val))
	case map[string]any:
		for k, v := range val {
			val[k] = sanitizeValue(v)
		}
		return val
	case []any:
		for i, v := range val {
			val[i] = sanitizeValue(v)
		}
		return val
	default:
		return value
	}
}
