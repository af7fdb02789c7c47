package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/killm0ng3r/ClearVote-Kenya/internal/platform/middleware"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/transport/httpx"
	"github.com/killm0ng3r/ClearVote-Kenya/pkg/domerrors"
)

type Handler struct {
	svc       *Service
	validator middleware.JWTValidator
	log       *slog.Logger
}

func NewHandler(svc *Service, validator middleware.JWTValidator, log *slog.Logger) *Handler {
	return &Handler{svc: svc, validator: validator, log: log}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.login)
	r.Post("/auth/register", h.register)

	auth := middleware.RequireAuth(h.validator, h.log)
	r.With(auth).Get("/auth/profile/{userID}", h.getProfile)
	r.With(auth).Put("/auth/profile/{userID}", h.updateProfile)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, domerrors.New(domerrors.CodeBadRequest, "Missing fields"))
		return
	}

	session, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, domerrors.New(domerrors.CodeBadRequest, "All fields including location information are required"))
		return
	}

	session, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, session)
}

// allowProfileAccess lets users read and edit their own profile; admins may
// touch any.
func allowProfileAccess(r *http.Request, userID string) bool {
	if middleware.GetUserID(r.Context()) == userID {
		return true
	}
	return middleware.GetRole(r.Context()) == string(RoleAdmin)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !allowProfileAccess(r, userID) {
		httpx.WriteError(w, domerrors.New(domerrors.CodeForbidden, "Cannot access another user's profile"))
		return
	}
	profile, err := h.svc.Profile(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": profile})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !allowProfileAccess(r, userID) {
		httpx.WriteError(w, domerrors.New(domerrors.CodeForbidden, "Cannot access another user's profile"))
		return
	}
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, domerrors.New(domerrors.CodeBadRequest, "Invalid profile data"))
		return
	}
	profile, err := h.svc.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": profile})
}
