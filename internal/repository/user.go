package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/pclub/portal/api/internal/database"
	"github.com/pclub/portal/api/internal/model"
)

// UserRepository handles user data access
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// userRecord exposes the stored hash, which model.User never serialises
type userRecord struct {
	model.User
	Hash string `json:"hash"`
}

func (u *userRecord) toModel() *model.User {
	out := u.User
	out.Hash = u.Hash
	if out.RegisteredEvents == nil {
		out.RegisteredEvents = []string{}
	}
	return &out
}

func (r *UserRepository) one(ctx context.Context, query string, vars map[string]interface{}) (*model.User, error) {
	rec, err := queryOne[userRecord](ctx, r.db, query, vars, nil)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.toModel(), nil
}

func (r *UserRepository) all(ctx context.Context, query string, vars map[string]interface{}) ([]*model.User, error) {
	recs, err := queryAll[userRecord](ctx, r.db, query, vars, nil)
	if err != nil {
		return nil, err
	}
	users := make([]*model.User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, rec.toModel())
	}
	return users, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	// Default to user role if not specified
	role := user.Role
	if role == "" {
		role = model.UserRoleUser
	}

	query := `
		CREATE user CONTENT {
			email: $email,
			name: $name,
			hash: $hash,
			enrollment_number: $enrollment_number,
			role: $role,
			registered_events: [],
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"email":             strings.ToLower(user.Email),
		"name":              user.Name,
		"hash":              user.Hash,
		"enrollment_number": user.EnrollmentNumber,
		"role":              role,
	}

	created, err := r.one(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: email already exists", database.ErrDuplicate)
		}
		return err
	}
	if created == nil {
		return database.ErrQuery
	}

	*user = *created
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	recordID, ok := ensureRecordID("user", id)
	if !ok {
		return nil, nil
	}
	return r.one(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": recordID})
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT * FROM user WHERE email = $email LIMIT 1`
	return r.one(ctx, query, map[string]interface{}{"email": strings.ToLower(strings.TrimSpace(email))})
}

// GetByHandle retrieves the user owning a Codeforces handle
func (r *UserRepository) GetByHandle(ctx context.Context, handle string) (*model.User, error) {
	query := `SELECT * FROM user WHERE string::lowercase(codeforces_handle ?? '') = string::lowercase($handle) LIMIT 1`
	return r.one(ctx, query, map[string]interface{}{"handle": handle})
}

// UpdateProfile applies the non-nil fields of req
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, req *model.UpdateProfileRequest) (*model.User, error) {
	recordID, ok := ensureRecordID("user", id)
	if !ok {
		return nil, nil
	}

	sets := []string{"updated_on = time::now()"}
	vars := map[string]interface{}{"id": recordID}
	if req.Name != nil {
		sets = append(sets, "name = $name")
		vars["name"] = *req.Name
	}
	if req.EnrollmentNumber != nil {
		sets = append(sets, "enrollment_number = $enrollment_number")
		vars["enrollment_number"] = *req.EnrollmentNumber
	}
	if req.CodechefHandle != nil {
		sets = append(sets, "codechef_handle = IF $codechef_handle IS NOT NULL THEN $codechef_handle ELSE NONE END")
		vars["codechef_handle"] = optional(req.CodechefHandle)
	}

	query := fmt.Sprintf(`UPDATE type::record($id) SET %s RETURN AFTER`, strings.Join(sets, ", "))
	return r.one(ctx, query, vars)
}

// UpdatePassword replaces the stored bcrypt hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	recordID, ok := ensureRecordID("user", id)
	if !ok {
		return database.ErrNotFound
	}
	query := `UPDATE type::record($id) SET hash = $hash, updated_on = time::now() RETURN AFTER`
	_, err := r.db.QueryOne(ctx, query, map[string]interface{}{"id": recordID, "hash": hash})
	return err
}

// SetRole changes a user's role
func (r *UserRepository) SetRole(ctx context.Context, id string, role model.UserRole) (*model.User, error) {
	recordID, ok := ensureRecordID("user", id)
	if !ok {
		return nil, nil
	}
	query := `UPDATE type::record($id) SET role = $role, updated_on = time::now() RETURN AFTER`
	return r.one(ctx, query, map[string]interface{}{"id": recordID, "role": role})
}

// SetCodeforces stores a verified handle with its current rank and rating
func (r *UserRepository) SetCodeforces(ctx context.Context, id, handle string, rank *string, rating *int) (*model.User, error) {
	recordID, ok := ensureRecordID("user", id)
	if !ok {
		return nil, nil
	}
	query := `
		UPDATE type::record($id) SET
			codeforces_handle = $handle,
			codeforces_rank = IF $rank IS NOT NULL THEN $rank ELSE NONE END,
			codeforces_rating = IF $rating IS NOT NULL THEN $rating ELSE NONE END,
			updated_on = time::now()
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"id":     recordID,
		"handle": handle,
		"rank":   optional(rank),
		"rating": nil,
	}
	if rating != nil {
		vars["rating"] = *rating
	}

	user, err := r.one(ctx, query, vars)
	if err != nil && isUniqueConstraintError(err) {
		return nil, fmt.Errorf("%w: handle already linked", database.ErrDuplicate)
	}
	return user, err
}

// UpdateCodeforcesRank refreshes rank and rating for a linked handle
func (r *UserRepository) UpdateCodeforcesRank(ctx context.Context, id string, rank *string, rating *int) (*model.User, error) {
	recordID, ok := ensureRecordID("user", id)
	if !ok {
		return nil, nil
	}
	query := `
		UPDATE type::record($id) SET
			codeforces_rank = IF $rank IS NOT NULL THEN $rank ELSE NONE END,
			codeforces_rating = IF $rating IS NOT NULL THEN $rating ELSE NONE END,
			updated_on = time::now()
		RETURN AFTER
	`
	vars := map[string]interface{}{"id": recordID, "rank": optional(rank), "rating": nil}
	if rating != nil {
		vars["rating"] = *rating
	}
	return r.one(ctx, query, vars)
}

// ClearCodeforces unlinks the user's handle
func (r *UserRepository) ClearCodeforces(ctx context.Context, id string) (*model.User, error) {
	recordID, ok := ensureRecordID("user", id)
	if !ok {
		return nil, nil
	}
	query := `
		UPDATE type::record($id) SET
			codeforces_handle = NONE,
			codeforces_rank = NONE,
			codeforces_rating = NONE,
			updated_on = time::now()
		RETURN AFTER
	`
	return r.one(ctx, query, map[string]interface{}{"id": recordID})
}

// Search matches name, email or enrollment number
func (r *UserRepository) Search(ctx context.Context, term string, limit int) ([]*model.User, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT * FROM user
		WHERE string::contains(string::lowercase(name ?? ''), $term)
			OR string::contains(email, $term)
			OR string::contains(string::lowercase(enrollment_number ?? ''), $term)
		ORDER BY name ASC
		LIMIT $limit
	`
	vars := map[string]interface{}{"term": strings.ToLower(strings.TrimSpace(term)), "limit": limit}
	return r.all(ctx, query, vars)
}

// ListWithHandles returns every user with a linked Codeforces handle
func (r *UserRepository) ListWithHandles(ctx context.Context) ([]*model.User, error) {
	return r.all(ctx, `SELECT * FROM user WHERE codeforces_handle IS NOT NONE`, nil)
}

// Count returns the number of users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "user", "", nil)
}
