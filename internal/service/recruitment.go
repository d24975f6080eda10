package service

import (
	"context"
	"strings"

	"github.com/pclub/portal/api/internal/model"
	"github.com/pclub/portal/api/internal/upload"
)

// RecruitmentRepository defines the interface for recruitment storage
type RecruitmentRepository interface {
	CreateRole(ctx context.Context, req *model.RecruitmentRoleRequest) (*model.RecruitmentRole, error)
	GetRole(ctx context.Context, id string) (*model.RecruitmentRole, error)
	ListRoles(ctx context.Context) ([]*model.RecruitmentRole, error)
	UpdateRole(ctx context.Context, id string, req *model.RecruitmentRoleRequest) (*model.RecruitmentRole, error)
	DeleteRole(ctx context.Context, id string) error
	SetLeader(ctx context.Context, id string, leader model.RoleLeader) (*model.RecruitmentRole, error)
	AddMember(ctx context.Context, id, name, linkedin string) (*model.RecruitmentRole, error)
	RemoveMember(ctx context.Context, id, memberID string) (*model.RecruitmentRole, error)
	GetStatus(ctx context.Context) (bool, error)
	SetStatus(ctx context.Context, open bool) (bool, error)
}

// RecruitmentService handles open team roles
type RecruitmentService struct {
	repo     RecruitmentRepository
	uploader upload.Uploader
}

// NewRecruitmentService creates a new recruitment service
func NewRecruitmentService(repo RecruitmentRepository, uploader upload.Uploader) *RecruitmentService {
	return &RecruitmentService{repo: repo, uploader: uploader}
}

// Overview returns the global status with every role
func (s *RecruitmentService) Overview(ctx context.Context) (*model.RecruitmentOverview, error) {
	open, err := s.repo.GetStatus(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []*model.RecruitmentRole{}
	}
	return &model.RecruitmentOverview{IsOpen: open, Roles: roles}, nil
}

// GetStatus reports whether recruitment is open
func (s *RecruitmentService) GetStatus(ctx context.Context) (bool, error) {
	return s.repo.GetStatus(ctx)
}

// SetStatus opens or closes recruitment
func (s *RecruitmentService) SetStatus(ctx context.Context, open bool) (bool, error) {
	return s.repo.SetStatus(ctx, open)
}

// ToggleStatus flips the global status and returns the new value
func (s *RecruitmentService) ToggleStatus(ctx context.Context) (bool, error) {
	open, err := s.repo.GetStatus(ctx)
	if err != nil {
		return false, err
	}
	return s.repo.SetStatus(ctx, !open)
}

// CreateRole adds a role
func (s *RecruitmentService) CreateRole(ctx context.Context, req *model.RecruitmentRoleRequest) (*model.RecruitmentRole, error) {
	if err := s.prepareRole(ctx, req); err != nil {
		return nil, err
	}
	return s.repo.CreateRole(ctx, req)
}

// GetRole returns one role
func (s *RecruitmentService) GetRole(ctx context.Context, id string) (*model.RecruitmentRole, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}
	return role, nil
}

// UpdateRole overwrites a role's details
func (s *RecruitmentService) UpdateRole(ctx context.Context, id string, req *model.RecruitmentRoleRequest) (*model.RecruitmentRole, error) {
	if err := s.prepareRole(ctx, req); err != nil {
		return nil, err
	}
	return roleOrNotFound(s.repo.UpdateRole(ctx, id, req))
}

// DeleteRole removes a role
func (s *RecruitmentService) DeleteRole(ctx context.Context, id string) error {
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrRoleNotFound
		}
		return err
	}
	return nil
}

// UpdateLeader replaces the role's leader
func (s *RecruitmentService) UpdateLeader(ctx context.Context, id string, leader model.RoleLeader) (*model.RecruitmentRole, error) {
	leader.Name = model.SanitizeText(leader.Name)
	leader.Linkedin = strings.TrimSpace(leader.Linkedin)
	return roleOrNotFound(s.repo.SetLeader(ctx, id, leader))
}

// GetMembers lists the role's current team
func (s *RecruitmentService) GetMembers(ctx context.Context, id string) ([]model.RoleMember, error) {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	return role.Members, nil
}

// AddMember appends a member to the role's team
func (s *RecruitmentService) AddMember(ctx context.Context, id string, req *model.AddRoleMemberRequest) (*model.RecruitmentRole, error) {
	return roleOrNotFound(s.repo.AddMember(ctx, id, model.SanitizeText(req.Name), strings.TrimSpace(req.Linkedin)))
}

// RemoveMember drops memberID from the role's team
func (s *RecruitmentService) RemoveMember(ctx context.Context, id, memberID string) (*model.RecruitmentRole, error) {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	found := false
	for _, m := range role.Members {
		if m.ID == memberID {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrRoleMemberAbsent
	}
	return roleOrNotFound(s.repo.RemoveMember(ctx, id, memberID))
}

func (s *RecruitmentService) prepareRole(ctx context.Context, req *model.RecruitmentRoleRequest) error {
	req.Title = model.SanitizeText(req.Title)
	req.Leader.Name = model.SanitizeText(req.Leader.Name)
	if upload.IsDataURI(req.Image) {
		url, err := s.uploader.UploadDataURI(ctx, req.Image, upload.FolderRoles)
		if err != nil {
			return uploadError(err)
		}
		req.Image = url
	}
	return nil
}

// roleOrNotFound maps a nil role from an update to ErrRoleNotFound
func roleOrNotFound(role *model.RecruitmentRole, err error) (*model.RecruitmentRole, error) {
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}
	return role, nil
}
