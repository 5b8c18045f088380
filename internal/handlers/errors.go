package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

// respondWithError logs err under logMsg (or userMsg) and writes a plain
// text error page
func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	http.Error(w, userMsg, status)
}

// errorBody is the JSON error envelope used by the status endpoint
type errorBody struct {
	Error string `json:"error"`
}

// respondWithJSON encodes v with the given status
func respondWithJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// respondWithJSONError is respondWithError for JSON clients
func respondWithJSONError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondWithJSON(w, status, errorBody{Error: userMsg})
}
