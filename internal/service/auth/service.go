package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/repository"
	"github.com/jwalitptl/vetclinic/internal/service/access"
	"github.com/jwalitptl/vetclinic/internal/service/audit"
	"github.com/jwalitptl/vetclinic/pkg/auth"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
	"github.com/jwalitptl/vetclinic/pkg/logger"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	employees repository.EmployeeRepository
	owners    repository.OwnerRepository
	jwtSvc    auth.JWTService
	hasher    model.SecretHasher
	guard     *access.Guard
	auditor   *audit.Service
	logger    *logger.Logger
}

func NewService(repos repository.Repositories, jwtSvc auth.JWTService, hasher model.SecretHasher, guard *access.Guard, auditor *audit.Service, log *logger.Logger) *Service {
	return &Service{
		employees: repos.Employees,
		owners:    repos.Owners,
		jwtSvc:    jwtSvc,
		hasher:    hasher,
		guard:     guard,
		auditor:   auditor,
		logger:    log,
	}
}

// Login exchanges employee credentials for an access token.
func (s *Service) Login(ctx context.Context, username, secret string) (*model.TokenResponse, error) {
	e, err := s.employees.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrKindNotFound) {
			return nil, apperrors.Unauthenticated(ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	if !e.ValidateCredentials(username, secret, s.hasher) {
		s.logger.Warn("login rejected", "username", username)
		return nil, apperrors.Unauthenticated(ErrInvalidCredentials)
	}

	actor := authz.Actor{Role: e.Role(), ID: e.ID}
	if err := s.auditor.Log(ctx, actor, "login", "auth", e.ID, model.AuditOutcomeAllowed, nil); err != nil {
		s.logger.Error(err, "failed to audit login", "actor", actor.String())
	}
	return s.issue(actor)
}

// IssueOwnerToken lets staff who may update an owner hand that owner a
// token for the owner-facing views.
func (s *Service) IssueOwnerToken(ctx context.Context, actor authz.Actor, ownerID int64) (*model.TokenResponse, error) {
	o, err := s.owners.Get(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}
	if _, err := s.guard.Require(ctx, actor, authz.ResourceOwner, authz.ActionUpdate, access.OwnerTarget(o)); err != nil {
		return nil, err
	}
	return s.issue(authz.Actor{Role: model.RoleOwner, ID: o.ID})
}

// Authenticate resolves a bearer token to the actor it was issued for.
func (s *Service) Authenticate(ctx context.Context, token string) (authz.Actor, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return authz.Actor{}, apperrors.Unauthenticated(err)
	}
	return authz.Actor{Role: claims.Role, ID: claims.SubjectID}, nil
}

func (s *Service) issue(actor authz.Actor) (*model.TokenResponse, error) {
	token, err := s.jwtSvc.GenerateAccessToken(actor.Role, actor.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &model.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.jwtSvc.Expiry().Seconds()),
		Role:        actor.Role,
		SubjectID:   actor.ID,
	}, nil
}
