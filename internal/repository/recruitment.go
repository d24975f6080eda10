package repository

import (
	"context"

	"github.com/pclub/portal/api/internal/database"
	"github.com/pclub/portal/api/internal/model"
)

// RecruitmentRepository handles recruitment roles and the global status
type RecruitmentRepository struct {
	db database.Database
}

// NewRecruitmentRepository creates a new recruitment repository
func NewRecruitmentRepository(db database.Database) *RecruitmentRepository {
	return &RecruitmentRepository{db: db}
}

func withRoleDefaults(role *model.RecruitmentRole) *model.RecruitmentRole {
	if role != nil && role.Members == nil {
		role.Members = []model.RoleMember{}
	}
	return role
}

func (r *RecruitmentRepository) one(ctx context.Context, query string, vars map[string]interface{}) (*model.RecruitmentRole, error) {
	role, err := queryOne[model.RecruitmentRole](ctx, r.db, query, vars, nil)
	return withRoleDefaults(role), err
}

// CreateRole creates a recruitment role
func (r *RecruitmentRepository) CreateRole(ctx context.Context, req *model.RecruitmentRoleRequest) (*model.RecruitmentRole, error) {
	query := `
		CREATE recruitment_role CONTENT {
			title: $title,
			image: $image,
			google_form: $google_form,
			is_open: $is_open,
			leader: $leader,
			members: [],
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	return r.one(ctx, query, roleVars(req))
}

func roleVars(req *model.RecruitmentRoleRequest) map[string]interface{} {
	return map[string]interface{}{
		"title":       req.Title,
		"image":       req.Image,
		"google_form": req.GoogleForm,
		"is_open":     req.IsOpen,
		"leader":      map[string]interface{}{"name": req.Leader.Name, "linkedin": req.Leader.Linkedin},
	}
}

// GetRole retrieves a role by ID
func (r *RecruitmentRepository) GetRole(ctx context.Context, id string) (*model.RecruitmentRole, error) {
	recordID, ok := ensureRecordID("recruitment_role", id)
	if !ok {
		return nil, nil
	}
	return r.one(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": recordID})
}

// ListRoles returns every role in creation order
func (r *RecruitmentRepository) ListRoles(ctx context.Context) ([]*model.RecruitmentRole, error) {
	roles, err := queryAll[model.RecruitmentRole](ctx, r.db, `SELECT * FROM recruitment_role ORDER BY created_on ASC`, nil, nil)
	if err != nil {
		return nil, err
	}
	for _, role := range roles {
		withRoleDefaults(role)
	}
	return roles, nil
}

// UpdateRole overwrites a role's details, keeping its members
func (r *RecruitmentRepository) UpdateRole(ctx context.Context, id string, req *model.RecruitmentRoleRequest) (*model.RecruitmentRole, error) {
	recordID, ok := ensureRecordID("recruitment_role", id)
	if !ok {
		return nil, nil
	}
	query := `
		UPDATE type::record($id) SET
			title = $title,
			image = $image,
			google_form = $google_form,
			is_open = $is_open,
			leader = $leader,
			updated_on = time::now()
		WHERE id = type::record($id)
		RETURN AFTER
	`
	vars := roleVars(req)
	vars["id"] = recordID
	return r.one(ctx, query, vars)
}

// DeleteRole removes a role
func (r *RecruitmentRepository) DeleteRole(ctx context.Context, id string) error {
	return deleteRecord(ctx, r.db, "recruitment_role", id)
}

// SetLeader replaces a role's leader
func (r *RecruitmentRepository) SetLeader(ctx context.Context, id string, leader model.RoleLeader) (*model.RecruitmentRole, error) {
	recordID, ok := ensureRecordID("recruitment_role", id)
	if !ok {
		return nil, nil
	}
	query := `UPDATE type::record($id) SET leader = $leader, updated_on = time::now() WHERE id = type::record($id) RETURN AFTER`
	return r.one(ctx, query, map[string]interface{}{
		"id":     recordID,
		"leader": map[string]interface{}{"name": leader.Name, "linkedin": leader.Linkedin},
	})
}

// AddMember appends a member to a role, assigning it a key
func (r *RecruitmentRepository) AddMember(ctx context.Context, id, name, linkedin string) (*model.RecruitmentRole, error) {
	recordID, ok := ensureRecordID("recruitment_role", id)
	if !ok {
		return nil, nil
	}
	query := `UPDATE type::record($id) SET members += $member, updated_on = time::now() WHERE id = type::record($id) RETURN AFTER`
	return r.one(ctx, query, map[string]interface{}{
		"id":     recordID,
		"member": map[string]interface{}{"id": newRecordKey(), "name": name, "linkedin": linkedin},
	})
}

// RemoveMember drops a member from a role
func (r *RecruitmentRepository) RemoveMember(ctx context.Context, id, memberID string) (*model.RecruitmentRole, error) {
	recordID, ok := ensureRecordID("recruitment_role", id)
	if !ok {
		return nil, nil
	}
	query := `UPDATE type::record($id) SET members = members[WHERE id != $member_id], updated_on = time::now() WHERE id = type::record($id) RETURN AFTER`
	return r.one(ctx, query, map[string]interface{}{"id": recordID, "member_id": memberID})
}

type recruitmentStatus struct {
	IsOpen bool `json:"is_open"`
}

// GetStatus reports whether recruitment is globally open
func (r *RecruitmentRepository) GetStatus(ctx context.Context) (bool, error) {
	status, err := queryOne[recruitmentStatus](ctx, r.db, `SELECT * FROM recruitment_status:current`, nil, nil)
	if err != nil || status == nil {
		return false, err
	}
	return status.IsOpen, nil
}

// SetStatus opens or closes recruitment
func (r *RecruitmentRepository) SetStatus(ctx context.Context, open bool) (bool, error) {
	query := `UPSERT recruitment_status:current CONTENT { is_open: $is_open, updated_on: time::now() }`
	status, err := queryOne[recruitmentStatus](ctx, r.db, query, map[string]interface{}{"is_open": open}, nil)
	if err != nil {
		return false, err
	}
	if status == nil {
		return open, nil
	}
	return status.IsOpen, nil
}
