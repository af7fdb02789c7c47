package vote

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/killm0ng3r/ClearVote-Kenya/internal/audit"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/ledger"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/platform/middleware"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/transport/httpx"
	"github.com/killm0ng3r/ClearVote-Kenya/pkg/domerrors"
)

const (
	RoleVoter = "VOTER"
	RoleAdmin = "ADMIN"
)

// ContractConfigurer is implemented by ledger backends whose contract
// address can be repointed at runtime.
type ContractConfigurer interface {
	SetContractAddress(addr string)
}

type Handler struct {
	svc       *Service
	ledger    ledger.Client
	audit     audit.Publisher
	validator middleware.JWTValidator
	log       *slog.Logger
}

func NewHandler(svc *Service, ledgerClient ledger.Client, auditPub audit.Publisher, validator middleware.JWTValidator, log *slog.Logger) *Handler {
	return &Handler{svc: svc, ledger: ledgerClient, audit: auditPub, validator: validator, log: log}
}

func (h *Handler) Register(r chi.Router) {
	auth := middleware.RequireAuth(h.validator, h.log)
	r.With(auth, middleware.RequireRole(RoleVoter, h.log)).Post("/votes", h.castVotes)
	r.Get("/votes/blockchain/status", h.blockchainStatus)
	r.With(auth, middleware.RequireRole(RoleAdmin, h.log)).Post("/votes/blockchain/setup", h.blockchainSetup)
}

func (h *Handler) castVotes(w http.ResponseWriter, r *http.Request) {
	var ballot []BallotItem
	if err := json.NewDecoder(r.Body).Decode(&ballot); err != nil {
		httpx.WriteError(w, domerrors.New(domerrors.CodeBadRequest, "Invalid votes data"))
		return
	}

	voterID := middleware.GetUserID(r.Context())
	receipts, err := h.svc.CastVotes(r.Context(), voterID, ballot)
	if err != nil {
		// Duplicate casts have always been a 400 on this endpoint.
		if domerrors.Is(err, domerrors.CodeConflict) {
			httpx.WriteErrorStatus(w, http.StatusBadRequest, err)
			return
		}
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Votes cast successfully",
		"votes":   receipts,
	})
}

func (h *Handler) blockchainStatus(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.ledger.NetworkInfo(r.Context()))
}

func (h *Handler) blockchainSetup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContractAddress string `json:"contractAddress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ContractAddress == "" {
		httpx.WriteError(w, domerrors.New(domerrors.CodeBadRequest, "Contract address is required"))
		return
	}

	configurer, ok := h.ledger.(ContractConfigurer)
	if !ok {
		httpx.WriteError(w, domerrors.New(domerrors.CodeBadRequest, "Ledger backend does not support contract configuration"))
		return
	}
	configurer.SetContractAddress(req.ContractAddress)

	if h.audit != nil {
		event := audit.NewEvent(audit.EventContractConfigured, middleware.GetUserID(r.Context()), req.ContractAddress, nil)
		if err := h.audit.Publish(r.Context(), event); err != nil {
			h.log.WarnContext(r.Context(), "audit publish failed", "error", err)
		}
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message":     "Contract address set successfully",
		"networkInfo": h.ledger.NetworkInfo(r.Context()),
	})
}
