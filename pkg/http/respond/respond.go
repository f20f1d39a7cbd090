package respond

import (
	"encoding/json"
	"net/http"
)

// Result is the standard response body shared by every Quiplash endpoint.
type Result struct {
	Result bool   `json:"result"`
	Msg    string `json:"msg"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// OK writes a successful result with the given message.
func OK(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, Result{Result: true, Msg: msg})
}

// Fail writes a rejected result. Validation outcomes ride HTTP 200; only
// malformed requests and internal failures get non-200 statuses.
func Fail(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, Result{Result: false, Msg: msg})
}

// BadRequest writes a rejected result with HTTP 400.
func BadRequest(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusBadRequest, Result{Result: false, Msg: msg})
}

// InternalError writes the generic internal-error response with HTTP 500.
func InternalError(w http.ResponseWriter) {
	JSON(w, http.StatusInternalServerError, Result{Result: false, Msg: "Internal error"})
}

// MethodNotAllowed rejects non-POST calls to POST-only routes.
func MethodNotAllowed(w http.ResponseWriter) {
	JSON(w, http.StatusMethodNotAllowed, Result{Result: false, Msg: "Method not allowed"})
}
