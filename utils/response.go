package utils

import (
	"encoding/json"
	"net/http"
)

type M map[string]interface{}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// Success writes the standard {message, status, data} envelope. The status is
// mirrored in the body so clients that only inspect the payload still see it.
func Success(w http.ResponseWriter, code int, message string, data interface{}) {
	RespondWithJSON(w, code, M{"message": message, "status": code, "data": data})
}

func Fail(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, M{"message": message, "status": code, "data": nil})
}
