package geography

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/killm0ng3r/ClearVote-Kenya/internal/transport/httpx"
	"github.com/killm0ng3r/ClearVote-Kenya/pkg/domerrors"
)

// Handler serves the read-only geography endpoints.
type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/geography/counties", h.handleCounties)
	r.Get("/geography/counties/{countyID}/constituencies", h.handleConstituencies)
	r.Get("/geography/constituencies/{constituencyID}/wards", h.handleWards)
	r.Get("/geography/full-hierarchy", h.handleFullHierarchy)
}

func (h *Handler) handleCounties(w http.ResponseWriter, r *http.Request) {
	counties, err := h.store.Counties(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to fetch counties", "error", err)
		httpx.WriteError(w, domerrors.New(domerrors.CodeInternal, "Failed to fetch counties"))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, counties)
}

func (h *Handler) handleConstituencies(w http.ResponseWriter, r *http.Request) {
	countyID, err := strconv.Atoi(chi.URLParam(r, "countyID"))
	if err != nil {
		httpx.WriteError(w, domerrors.New(domerrors.CodeBadRequest, "invalid county id"))
		return
	}
	constituencies, err := h.store.ConstituenciesByCounty(r.Context(), countyID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to fetch constituencies", "error", err, "county_id", countyID)
		httpx.WriteError(w, domerrors.New(domerrors.CodeInternal, "Failed to fetch constituencies"))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, constituencies)
}

func (h *Handler) handleWards(w http.ResponseWriter, r *http.Request) {
	constituencyID := chi.URLParam(r, "constituencyID")
	wards, err := h.store.WardsByConstituency(r.Context(), constituencyID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to fetch wards", "error", err, "constituency_id", constituencyID)
		httpx.WriteError(w, domerrors.New(domerrors.CodeInternal, "Failed to fetch wards"))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, wards)
}

func (h *Handler) handleFullHierarchy(w http.ResponseWriter, r *http.Request) {
	hierarchy, err := h.store.FullHierarchy(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to fetch full hierarchy", "error", err)
		httpx.WriteError(w, domerrors.New(domerrors.CodeInternal, "Failed to fetch geographical hierarchy"))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, hierarchy)
}
