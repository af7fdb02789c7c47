package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/killm0ng3r/ClearVote-Kenya/pkg/domerrors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope used
// across the API: {"error": "<client-facing message>"}.
func WriteError(w http.ResponseWriter, err error) {
	status := domerrors.ToHTTPStatus(domerrors.CodeOf(err))
	WriteJSON(w, status, map[string]string{"error": domerrors.MessageOf(err)})
}

// WriteErrorStatus writes the error envelope with an explicit status for the
// endpoints whose historical contract differs from the generic code mapping.
func WriteErrorStatus(w http.ResponseWriter, status int, err error) {
	WriteJSON(w, status, map[string]string{"error": domerrors.MessageOf(err)})
}
