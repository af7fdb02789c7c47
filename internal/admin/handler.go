package admin

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/killm0ng3r/ClearVote-Kenya/internal/platform/middleware"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/transport/httpx"
)

const roleAdmin = "ADMIN"

type Handler struct {
	svc       *Service
	validator middleware.JWTValidator
	log       *slog.Logger
}

func NewHandler(svc *Service, validator middleware.JWTValidator, log *slog.Logger) *Handler {
	return &Handler{svc: svc, validator: validator, log: log}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/admin/blockchain", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.log))
		r.Use(middleware.RequireRole(roleAdmin, h.log))

		r.Get("/results", h.allResults)
		r.Get("/results/{electionID}", h.electionResults)
		r.Get("/statistics", h.statistics)
		r.Get("/export", h.export)
	})
}

func (h *Handler) allResults(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.AllResults(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) electionResults(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.ElectionResults(r.Context(), chi.URLParam(r, "electionID"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Statistics(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Export(r.Context(), r.URL.Query().Get("electionId"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		writeCSV(w, rows)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"results": rows})
}

func writeCSV(w http.ResponseWriter, rows []ExportRow) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="blockchain_results.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"election_id", "election_title", "candidate_id", "candidate_name", "party", "position", "vote_count", "export_date"})
	for _, row := range rows {
		_ = cw.Write([]string{
			row.ElectionID, row.ElectionTitle, row.CandidateID, row.CandidateName,
			row.CandidateParty, row.Position, strconv.Itoa(row.VoteCount), row.ExportDate,
		})
	}
	cw.Flush()
}
