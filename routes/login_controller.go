package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"golang.org/x/crypto/bcrypt"

	"github.com/dynaform/dynaform/app"
	"github.com/dynaform/dynaform/httpx"
	"github.com/dynaform/dynaform/log"
)

// Login checks the configured admin credentials and hands out the static
// admin token. The configured password may be a bcrypt hash, in which case
// the comparison goes through bcrypt; a plain value is compared directly.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}{}
		err := render.DecodeJSON(r.Body, &payload)
		if err != nil || payload.Username == "" || payload.Password == "" {
			httpx.LogBadRequest(w, r, "login.credentials", "Username and password are required")
			return
		}

		if payload.Username != app.AdminUsername || !passwordMatches(app.AdminPassword, payload.Password) {
			httpx.LogStatusMsg(w, r, http.StatusUnauthorized, log.DebugLevel, "login.verify", "Invalid credentials")
			return
		}

		render.JSON(w, r, map[string]any{
			"token": app.AdminToken,
		})
	}
}

func passwordMatches(configured, supplied string) bool {
	if strings.HasPrefix(configured, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(supplied)) == nil
	}
	return configured == supplied
}
