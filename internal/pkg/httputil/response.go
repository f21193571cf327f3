package httputil

import (
	"encoding/json"
	"log"
	"net/http"
)

// FailureResponse is the standard failure envelope for the bulk email API.
// Success responses carry the report body directly; failures always carry
// success=false plus a code and a caller-readable message.
type FailureResponse struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes a JSON response with the given status code. The data is
// serialized and Content-Type is set automatically.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[httputil] JSON encode error: %v", err)
	}
}

// OK writes a 200 response with the given data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Failure writes a failure envelope with the given status and message.
func Failure(w http.ResponseWriter, status int, message string) {
	JSON(w, status, FailureResponse{Success: false, Code: status, Message: message})
}

// FailureWithDetails writes a failure envelope carrying extra context, such
// as the blocked/invalid breakdown of a fully-excluded send.
func FailureWithDetails(w http.ResponseWriter, status int, message string, details any) {
	JSON(w, status, FailureResponse{Success: false, Code: status, Message: message, Details: details})
}

// BadRequest writes a 400 failure.
func BadRequest(w http.ResponseWriter, message string) {
	Failure(w, http.StatusBadRequest, message)
}

// InternalError writes a 500 failure. Logs the real error but returns a
// generic message to the client (never leak internals).
func InternalError(w http.ResponseWriter, err error) {
	log.Printf("[httputil] internal error: %v", err)
	Failure(w, http.StatusInternalServerError, "internal server error")
}

// Decode reads JSON from the request body into dst.
// Returns false and writes a 400 response if parsing fails.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		BadRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
