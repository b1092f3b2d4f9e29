package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	dErrors "pulsefit/pkg/domainerrors"
)

type registerResponse struct {
	Status   string `json:"status"`
	Position int    `json:"position,omitempty"`
}

type cancelResponse struct {
	Status   string  `json:"status"`
	Promoted *string `json:"promoted,omitempty"`
}

type capacityResponse struct {
	RegisteredCount int  `json:"registered_count"`
	WaitlistCount   int  `json:"waitlist_count"`
	SpotsLeft       *int `json:"spots_left,omitempty"`
}

type rosterEntry struct {
	UserID      string    `json:"user_id"`
	Status      string    `json:"status"`
	Position    *int      `json:"position,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError translates coded domain errors into the JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	var de *dErrors.Error
	if errors.As(err, &de) {
		code = de.Code
	}
	writeJSON(w, dErrors.ToHTTPStatus(code), errorResponse{Error: string(code)})
}
