package utils

import (
	"encoding/json"
	"net/http"

	"karigar/apperr"
)

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// RespondWithAppError writes a typed error as {"success":false,"error":{...}}.
func RespondWithAppError(w http.ResponseWriter, err error) {
	ae := apperr.From(err)
	RespondWithJSON(w, apperr.HTTPStatus(ae.Kind), map[string]interface{}{
		"success": false,
		"error":   ae,
	})
}

type M map[string]interface{}
