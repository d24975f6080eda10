package service

import (
	"context"
	"strings"

	"github.com/pclub/portal/api/internal/model"
)

// AdminUserRepository is the user storage the admin service needs
type AdminUserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	SetRole(ctx context.Context, id string, role model.UserRole) (*model.User, error)
	Search(ctx context.Context, term string, limit int) ([]*model.User, error)
}

// DashboardRepository computes record counts
type DashboardRepository interface {
	Dashboard(ctx context.Context) (*model.Dashboard, error)
}

// AdminService handles admin-only account management
type AdminService struct {
	userRepo  AdminUserRepository
	eventRepo UserEventLister
	stats     DashboardRepository
}

// AdminServiceConfig holds configuration for the admin service
type AdminServiceConfig struct {
	UserRepo  AdminUserRepository
	EventRepo UserEventLister
	Stats     DashboardRepository
}

// NewAdminService creates a new admin service
func NewAdminService(cfg AdminServiceConfig) *AdminService {
	return &AdminService{
		userRepo:  cfg.UserRepo,
		eventRepo: cfg.EventRepo,
		stats:     cfg.Stats,
	}
}

// confirmAdmin re-checks the acting admin's credentials
func (s *AdminService) confirmAdmin(ctx context.Context, email, password string) (*model.User, error) {
	admin, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if admin == nil || !checkPassword(password, admin.Hash) {
		return nil, ErrInvalidCredentials
	}
	if !admin.IsAdmin() {
		return nil, ErrAdminRequired
	}
	return admin, nil
}

// CreateAdmin creates an admin account on behalf of an existing admin
func (s *AdminService) CreateAdmin(ctx context.Context, req *model.CreateAdminRequest) (*model.User, error) {
	if _, err := s.confirmAdmin(ctx, req.AdminEmail, req.AdminPassword); err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:            normalizeEmail(req.Email),
		Name:             strings.TrimSpace(req.Name),
		Hash:             hash,
		EnrollmentNumber: strings.TrimSpace(req.EnrollmentNumber),
		Role:             model.UserRoleAdmin,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}
	return user, nil
}

// SeedAdmin bootstraps an admin account without an acting admin. An existing
// account with the email is promoted and keeps its password; created reports
// whether a new account was inserted. Only reachable from the CLI.
func (s *AdminService) SeedAdmin(ctx context.Context, email, name, password string) (user *model.User, created bool, err error) {
	email = normalizeEmail(email)
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if existing.IsAdmin() {
			return existing, false, nil
		}
		user, err = s.userRepo.SetRole(ctx, existing.ID, model.UserRoleAdmin)
		return user, false, err
	}

	if len(password) < 8 {
		return nil, false, NewValidationError(model.FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, false, err
	}
	user = &model.User{
		Email: email,
		Name:  strings.TrimSpace(name),
		Hash:  hash,
		Role:  model.UserRoleAdmin,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// AssignRole changes targetID's role after re-checking admin credentials
func (s *AdminService) AssignRole(ctx context.Context, targetID string, req *model.AssignRoleRequest) (*model.User, error) {
	if !model.IsValidRole(req.Role) {
		return nil, ErrInvalidRole
	}
	if _, err := s.confirmAdmin(ctx, req.AdminEmail, req.AdminPassword); err != nil {
		return nil, err
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrUserNotFound
	}
	role := model.UserRole(req.Role)
	if target.Role == role {
		return nil, ErrRoleUnchanged
	}

	updated, err := s.userRepo.SetRole(ctx, target.ID, role)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrUserNotFound
	}
	return updated, nil
}

// SearchUsers finds users by name, email or enrollment number
func (s *AdminService) SearchUsers(ctx context.Context, query string) ([]*model.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*model.User{}, nil
	}
	return s.userRepo.Search(ctx, query, 50)
}

// Dashboard returns record counts per collection
func (s *AdminService) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	return s.stats.Dashboard(ctx)
}

// UserEvents lists the events registered by the user with email
func (s *AdminService) UserEvents(ctx context.Context, email string) ([]*model.Event, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.eventRepo.ListByUser(ctx, user.ID)
}
