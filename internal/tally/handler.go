package tally

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/killm0ng3r/ClearVote-Kenya/internal/transport/httpx"
)

type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Register mounts the tally route. Tallies are public: observers and party
// agents read them without credentials.
func (h *Handler) Register(r chi.Router) {
	r.Get("/votes/election/{electionID}/tally", h.electionTally)
}

func (h *Handler) electionTally(w http.ResponseWriter, r *http.Request) {
	electionID := chi.URLParam(r, "electionID")
	result, err := h.svc.ElectionTally(r.Context(), electionID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "election tally failed", "error", err, "election", electionID)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, result)
}
