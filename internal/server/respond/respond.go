// Package respond writes the uniform API envelope every endpoint returns:
// {status, code, message, data?}.
package respond

import (
	"encoding/json"
	"log"
	"net/http"
)

type envelope struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Success writes a success envelope with the given HTTP code and payload.
func Success(w http.ResponseWriter, code int, message string, data any) {
	write(w, code, envelope{Status: "success", Code: code, Message: message, Data: data})
}

// Error writes an error envelope. The message is shown to the caller, so
// store errors must be translated to a generic message before reaching here.
func Error(w http.ResponseWriter, code int, message string) {
	write(w, code, envelope{Status: "error", Code: code, Message: message})
}

// Internal logs err with context and writes a generic 500 envelope. The
// underlying error never reaches the caller.
func Internal(w http.ResponseWriter, area string, err error) {
	log.Printf("%s: %v", area, err)
	Error(w, http.StatusInternalServerError, "internal server error")
}

// NotFound writes the standard 404 envelope. Ownership mismatches use this
// too, so a caller cannot distinguish "absent" from "not yours".
func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "not found")
}

func write(w http.ResponseWriter, code int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Printf("respond: encode: %v", err)
	}
}
