package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/store-inventory/internal/apperr"
	"github.com/iliyamo/store-inventory/internal/auth"
	"github.com/iliyamo/store-inventory/internal/model"
	"github.com/iliyamo/store-inventory/internal/queue"
	"github.com/iliyamo/store-inventory/internal/repository"
)

// TokenTypeBearer is reported with every issued token.
const TokenTypeBearer = "bearer"

const (
	msgInvalidCredentials = "invalid credentials"
	msgNoStore            = "manager is not assigned to any store"
	msgAlreadyAssigned    = "manager is already assigned to a store"
)

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// ProfilePatch holds the optional profile changes; nil fields are kept.
type ProfilePatch struct {
	Name     *string
	Email    *string
	Password *string
}

// Token is the result of a successful login.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ManagerService covers registration, login, logout, the profile and the
// manager's store assignment.
type ManagerService struct {
	managers ManagerRepository
	tokens   TokenIssuer
	registry auth.RevocationRegistry
	events   emitter
	log      *zap.Logger
	cost     int

	dummyOnce sync.Once
	dummyHash string
}

func NewManagerService(managers ManagerRepository, tokens TokenIssuer, registry auth.RevocationRegistry, pub queue.Publisher, bcryptCost int, log *zap.Logger) *ManagerService {
	log = log.Named("managers")
	return &ManagerService{
		managers: managers,
		tokens:   tokens,
		registry: registry,
		events:   newEmitter(pub, log),
		log:      log,
		cost:     bcryptCost,
	}
}

// Register creates a manager with a freshly hashed password.
func (s *ManagerService) Register(ctx context.Context, in RegisterInput) (*model.Manager, error) {
	name, err := validName("name", in.Name)
	if err != nil {
		return nil, err
	}
	email, err := validEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validPassword(in.Password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password, s.cost)
	if err != nil {
		return nil, apperr.Internal(err, "hash password")
	}

	m := &model.Manager{Name: name, Email: email, PasswordHash: hash}
	if err := s.managers.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, apperr.Conflict("email is already registered")
		}
		return nil, apperr.Internal(err, "create manager")
	}
	s.log.Info("manager registered", zap.String("manager_id", m.ID.String()))
	s.events.emit(ctx, queue.NewEvent(queue.ManagerRegistered, m.ID, nil, m.ID.String()))
	return m, nil
}

// Login verifies credentials and issues an access token.  Unknown email and
// wrong password are indistinguishable, including in timing.
func (s *ManagerService) Login(ctx context.Context, email, password string) (*Token, error) {
	m, err := s.managers.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		auth.VerifyPassword(s.dummy(), password)
		s.log.Info("login rejected", zap.String("reason", "unknown email"))
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	case err != nil:
		return nil, apperr.Internal(err, "lookup manager")
	}
	if !auth.VerifyPassword(m.PasswordHash, password) {
		s.log.Info("login rejected", zap.String("reason", "password mismatch"), zap.String("manager_id", m.ID.String()))
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}

	raw, claims, err := s.tokens.Issue(auth.Claims{
		Name:             m.Name,
		RegisteredClaims: jwt.RegisteredClaims{Subject: m.ID.String()},
	}, 0)
	if err != nil {
		return nil, apperr.Internal(err, "issue token")
	}
	s.log.Info("token issued", zap.String("manager_id", m.ID.String()), zap.String("jti", claims.ID))
	return &Token{AccessToken: raw, TokenType: TokenTypeBearer, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// dummy returns a hash at the configured cost, compared against when the
// email is unknown so both failure paths cost one bcrypt comparison.
func (s *ManagerService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := auth.HashPassword(uuid.NewString(), s.cost)
		if err != nil {
			s.log.Error("dummy hash unavailable, unknown-email logins are not timing equalized", zap.Error(err))
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

// Logout revokes the presented token.  It returns only after the registry
// acknowledged the write.
func (s *ManagerService) Logout(ctx context.Context, m *model.Manager, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return apperr.Unauthorized("unauthorized")
	}
	if err := s.registry.MarkRevoked(ctx, claims.ID); err != nil {
		return apperr.Internal(err, "revoke token")
	}
	s.log.Info("token revoked", zap.String("manager_id", m.ID.String()), zap.String("jti", claims.ID))
	s.events.emit(ctx, queue.NewEvent(queue.ManagerLoggedOut, m.ID, m.StoreID, claims.ID))
	return nil
}

// Get returns a manager by id.
func (s *ManagerService) Get(ctx context.Context, id uuid.UUID) (*model.Manager, error) {
	m, err := s.managers.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("manager not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "get manager")
	}
	return m, nil
}

// UpdateProfile applies p to the manager's own record.
func (s *ManagerService) UpdateProfile(ctx context.Context, m *model.Manager, p ProfilePatch) (*model.Manager, error) {
	next := *m
	if p.Name != nil {
		name, err := validName("name", *p.Name)
		if err != nil {
			return nil, err
		}
		next.Name = name
	}
	if p.Email != nil {
		email, err := validEmail(*p.Email)
		if err != nil {
			return nil, err
		}
		next.Email = email
	}
	if p.Password != nil {
		if err := validPassword(*p.Password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*p.Password, s.cost)
		if err != nil {
			return nil, apperr.Internal(err, "hash password")
		}
		next.PasswordHash = hash
	}

	if err := s.managers.UpdateProfile(ctx, &next); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return nil, apperr.Conflict("email is already registered")
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("manager not found")
		}
		return nil, apperr.Internal(err, "update manager")
	}
	return &next, nil
}

// AssignStore links the manager to an existing store.
func (s *ManagerService) AssignStore(ctx context.Context, m *model.Manager, storeID uuid.UUID) (*model.Manager, error) {
	if m.HasStore() {
		return nil, apperr.Conflict(msgAlreadyAssigned)
	}
	if err := s.managers.AssignStore(ctx, m.ID, storeID); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyAssigned):
			return nil, apperr.Conflict(msgAlreadyAssigned)
		case errors.Is(err, repository.ErrStoreTaken):
			return nil, apperr.Conflict("store already has a different manager")
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("store not found")
		}
		return nil, apperr.Internal(err, "assign store")
	}
	s.events.emit(ctx, queue.NewEvent(queue.StoreAssigned, m.ID, &storeID, storeID.String()))
	return s.Get(ctx, m.ID)
}

// ReleaseStore clears the manager's store link.
func (s *ManagerService) ReleaseStore(ctx context.Context, m *model.Manager) (*model.Manager, error) {
	if !m.HasStore() {
		return nil, apperr.Forbidden(msgNoStore)
	}
	storeID := *m.StoreID
	if err := s.managers.ReleaseStore(ctx, m.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("manager not found")
		}
		return nil, apperr.Internal(err, "release store")
	}
	s.events.emit(ctx, queue.NewEvent(queue.StoreReleased, m.ID, &storeID, storeID.String()))
	return s.Get(ctx, m.ID)
}
