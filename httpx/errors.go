package httpx

import (
	"net/http"

	"github.com/dynaform/dynaform/log"
	"github.com/go-chi/render"
)

// JSONError sends a flat {"error": msg} body with the given status.
func JSONError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]any{"error": msg})
}

// Will log an error, and send a 500 response carrying the error message
func LogInternalError(w http.ResponseWriter, r *http.Request, code string, err error) {
	log.Errorf("%s: %s", code, err)
	JSONError(w, r, http.StatusInternalServerError, err.Error())
}

// Will log a debug message, and send a 404 response naming the missing thing
func LogNotFound(w http.ResponseWriter, r *http.Request, code string, what string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	JSONError(w, r, http.StatusNotFound, what+" not found")
}

// Will log at the given level, and send a response with the given status and message
func LogStatusMsg(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, msg string) {
	log.Log(level, code+":", msg)
	JSONError(w, r, status, msg)
}

// Will log at debug level, and send a 400 response with the given message
func LogBadRequest(w http.ResponseWriter, r *http.Request, code string, msg string) {
	LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, code, msg)
}
