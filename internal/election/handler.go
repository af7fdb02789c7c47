package election

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/killm0ng3r/ClearVote-Kenya/internal/audit"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/platform/middleware"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/transport/httpx"
	"github.com/killm0ng3r/ClearVote-Kenya/pkg/domerrors"
	"github.com/killm0ng3r/ClearVote-Kenya/pkg/sentinel"
)

// Handler serves election CRUD. Creation is admin-only; reads are public so
// result pages work without a session.
type Handler struct {
	store        Store
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
	audit        audit.Publisher
}

func NewHandler(store Store, logger *slog.Logger, jwtValidator middleware.JWTValidator, auditPub audit.Publisher) *Handler {
	return &Handler{store: store, logger: logger, jwtValidator: jwtValidator, audit: auditPub}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/elections", h.handleList)
	r.Get("/elections/{id}", h.handleGet)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Use(middleware.RequireRole("ADMIN", h.logger))
		r.Post("/elections", h.handleCreate)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	elections, err := h.store.ListElections(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to fetch elections", "error", err)
		httpx.WriteError(w, domerrors.New(domerrors.CodeInternal, "Failed to fetch elections"))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, elections)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, err := h.store.GetElection(r.Context(), id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httpx.WriteError(w, domerrors.New(domerrors.CodeNotFound, "Election not found"))
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to fetch election", "error", err, "election_id", id)
		httpx.WriteError(w, domerrors.New(domerrors.CodeInternal, "Failed to fetch election"))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, e)
}

type createElectionRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Positions   []struct {
		Title          string       `json:"title"`
		PositionType   PositionType `json:"positionType"`
		CountyID       *int         `json:"countyId"`
		ConstituencyID *string      `json:"constituencyId"`
		WardID         *string      `json:"wardId"`
		Candidates     []struct {
			Name  string `json:"name"`
			Party string `json:"party"`
			Bio   string `json:"bio"`
		} `json:"candidates"`
	} `json:"positions"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createElectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, domerrors.New(domerrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Title == "" {
		httpx.WriteError(w, domerrors.New(domerrors.CodeBadRequest, "title is required"))
		return
	}

	e := Election{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		CreatedBy:   middleware.GetUserID(ctx),
	}
	for _, p := range req.Positions {
		pos := Position{
			Title:          p.Title,
			Type:           p.PositionType,
			CountyID:       p.CountyID,
			ConstituencyID: p.ConstituencyID,
			WardID:         p.WardID,
		}
		if pos.Scope() == nil {
			httpx.WriteError(w, domerrors.Newf(domerrors.CodeBadRequest,
				"position %q has an invalid type/scope combination", p.Title))
			return
		}
		for _, c := range p.Candidates {
			pos.Candidates = append(pos.Candidates, Candidate{Name: c.Name, Party: c.Party, Bio: c.Bio})
		}
		e.Positions = append(e.Positions, pos)
	}

	created, err := h.store.CreateElection(ctx, e)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create election", "error", err)
		httpx.WriteError(w, domerrors.New(domerrors.CodeInternal, "Failed to create election"))
		return
	}

	if h.audit != nil {
		event := audit.NewEvent(audit.EventElectionCreated, middleware.GetUserID(ctx), created.ID, nil)
		if err := h.audit.Publish(ctx, event); err != nil {
			h.logger.WarnContext(ctx, "audit publish failed", "error", err, "type", event.Type)
		}
	}
	httpx.WriteJSON(w, http.StatusCreated, created)
}
