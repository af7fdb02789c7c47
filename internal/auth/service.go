package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/killm0ng3r/ClearVote-Kenya/internal/audit"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/geography"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/jwtauth"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/platform/metrics"
	"github.com/killm0ng3r/ClearVote-Kenya/pkg/domerrors"
	"github.com/killm0ng3r/ClearVote-Kenya/pkg/sentinel"
)

const (
	tokenTTL   = time.Hour
	bcryptCost = 10
)

type Service struct {
	users   Store
	geo     geography.Store
	tokens  *jwtauth.Service
	audit   audit.Publisher
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewService(users Store, geo geography.Store, tokens *jwtauth.Service, auditPub audit.Publisher, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{users: users, geo: geo, tokens: tokens, audit: auditPub, metrics: m, log: log}
}

type RegisterRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	CountyID       int    `json:"countyId"`
	ConstituencyID string `json:"constituencyId"`
	WardID         string `json:"wardId"`
}

// Register creates a voter account. Registration requires a complete,
// internally consistent location so every account can pass the admission
// engine's location gate.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Session, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" ||
		req.CountyID == 0 || req.ConstituencyID == "" || req.WardID == "" {
		return Session{}, domerrors.New(domerrors.CodeBadRequest, "All fields including location information are required")
	}
	if err := s.checkLocation(ctx, req.CountyID, req.ConstituencyID, req.WardID); err != nil {
		return Session{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	user := User{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Email:          req.Email,
		PasswordHash:   string(hash),
		Role:           RoleVoter,
		CountyID:       &req.CountyID,
		ConstituencyID: &req.ConstituencyID,
		WardID:         &req.WardID,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return Session{}, domerrors.New(domerrors.CodeConflict, "User already exists")
		}
		return Session{}, fmt.Errorf("create user: %w", err)
	}

	s.metrics.UserRegistered()
	s.publishAudit(ctx, audit.NewEvent(audit.EventUserRegistered, user.ID, "", nil))
	return s.session(ctx, user)
}

// checkLocation verifies each level exists and nests under the one above.
func (s *Service) checkLocation(ctx context.Context, countyID int, constituencyID, wardID string) error {
	if _, err := s.geo.GetCounty(ctx, countyID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domerrors.New(domerrors.CodeBadRequest, "Unknown county")
		}
		return fmt.Errorf("check county: %w", err)
	}
	constituency, err := s.geo.GetConstituency(ctx, constituencyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domerrors.New(domerrors.CodeBadRequest, "Unknown constituency")
		}
		return fmt.Errorf("check constituency: %w", err)
	}
	if constituency.CountyID != countyID {
		return domerrors.New(domerrors.CodeBadRequest, "Selected constituency is not in the selected county")
	}
	ward, err := s.geo.GetWard(ctx, wardID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domerrors.New(domerrors.CodeBadRequest, "Unknown ward")
		}
		return fmt.Errorf("check ward: %w", err)
	}
	if ward.ConstituencyID != constituencyID {
		return domerrors.New(domerrors.CodeBadRequest, "Selected ward is not in the selected constituency")
	}
	return nil
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	if email == "" || password == "" {
		return Session{}, domerrors.New(domerrors.CodeBadRequest, "Missing fields")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Session{}, domerrors.New(domerrors.CodeNotFound, "User not found")
		}
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, domerrors.New(domerrors.CodeUnauthorized, "Invalid credentials")
	}

	s.metrics.LoginSucceeded()
	s.publishAudit(ctx, audit.NewEvent(audit.EventLoginSucceeded, user.ID, "", nil))
	return s.session(ctx, user)
}

func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Profile{}, domerrors.New(domerrors.CodeNotFound, "User not found")
		}
		return Profile{}, fmt.Errorf("lookup user: %w", err)
	}
	return s.profile(ctx, user), nil
}

type UpdateProfileRequest struct {
	Name           *string `json:"name"`
	CountyID       *int    `json:"countyId"`
	ConstituencyID *string `json:"constituencyId"`
	WardID         *string `json:"wardId"`
}

// UpdateProfile applies a partial update. When any location level changes,
// the whole resulting location is revalidated.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Profile{}, domerrors.New(domerrors.CodeNotFound, "User not found")
		}
		return Profile{}, fmt.Errorf("lookup user: %w", err)
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	locationChanged := false
	if req.CountyID != nil {
		user.CountyID = req.CountyID
		locationChanged = true
	}
	if req.ConstituencyID != nil {
		user.ConstituencyID = req.ConstituencyID
		locationChanged = true
	}
	if req.WardID != nil {
		user.WardID = req.WardID
		locationChanged = true
	}
	if locationChanged {
		if user.CountyID == nil || user.ConstituencyID == nil || user.WardID == nil {
			return Profile{}, domerrors.New(domerrors.CodeBadRequest, "All fields including location information are required")
		}
		if err := s.checkLocation(ctx, *user.CountyID, *user.ConstituencyID, *user.WardID); err != nil {
			return Profile{}, err
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return Profile{}, fmt.Errorf("update user: %w", err)
	}
	return s.profile(ctx, user), nil
}

func (s *Service) session(ctx context.Context, user User) (Session, error) {
	token, err := s.tokens.GenerateToken(user.ID, string(user.Role), tokenTTL)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, Role: user.Role, User: s.profile(ctx, user)}, nil
}

// profile resolves the user's location names. Resolution failures leave the
// corresponding field nil rather than failing the request.
func (s *Service) profile(ctx context.Context, user User) Profile {
	p := Profile{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}
	if user.CountyID != nil {
		if county, err := s.geo.GetCounty(ctx, *user.CountyID); err == nil {
			p.County = &county
		}
	}
	if user.ConstituencyID != nil {
		if constituency, err := s.geo.GetConstituency(ctx, *user.ConstituencyID); err == nil {
			p.Constituency = &constituency
		}
	}
	if user.WardID != nil {
		if ward, err := s.geo.GetWard(ctx, *user.WardID); err == nil {
			p.Ward = &ward
		}
	}
	return p
}

func (s *Service) publishAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Publish(ctx, event); err != nil {
		s.log.WarnContext(ctx, "audit publish failed", "error", err, "type", event.Type)
	}
}
