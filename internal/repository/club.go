package repository

import (
	"context"

	"github.com/pclub/portal/api/internal/database"
	"github.com/pclub/portal/api/internal/model"
)

// ===== Gallery =====

// GalleryRepository handles gallery albums
type GalleryRepository struct {
	db database.Database
}

// NewGalleryRepository creates a new gallery repository
func NewGalleryRepository(db database.Database) *GalleryRepository {
	return &GalleryRepository{db: db}
}

// Create stores an album of uploaded image URLs
func (r *GalleryRepository) Create(ctx context.Context, eventName string, urls []string) (*model.Gallery, error) {
	query := `
		CREATE gallery CONTENT {
			event_name: $event_name,
			image_urls: $image_urls,
			created_on: time::now()
		}
	`
	return queryOne[model.Gallery](ctx, r.db, query, map[string]interface{}{
		"event_name": eventName,
		"image_urls": urls,
	}, nil)
}

// Get retrieves an album by ID
func (r *GalleryRepository) Get(ctx context.Context, id string) (*model.Gallery, error) {
	recordID, ok := ensureRecordID("gallery", id)
	if !ok {
		return nil, nil
	}
	return queryOne[model.Gallery](ctx, r.db, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": recordID}, nil)
}

// List returns albums, newest first
func (r *GalleryRepository) List(ctx context.Context) ([]*model.Gallery, error) {
	return queryAll[model.Gallery](ctx, r.db, `SELECT * FROM gallery ORDER BY created_on DESC`, nil, nil)
}

// Delete removes an album
func (r *GalleryRepository) Delete(ctx context.Context, id string) error {
	return deleteRecord(ctx, r.db, "gallery", id)
}

// Count returns the number of albums
func (r *GalleryRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "gallery", "", nil)
}

// ===== Members =====

// MemberRepository handles club member profiles
type MemberRepository struct {
	db database.Database
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db database.Database) *MemberRepository {
	return &MemberRepository{db: db}
}

// Create adds a member profile
func (r *MemberRepository) Create(ctx context.Context, req *model.MemberRequest) (*model.Member, error) {
	query := `
		CREATE member CONTENT {
			name: $name,
			position: $position,
			term: $term,
			linkedin_id: $linkedin_id,
			pfp_image: $pfp_image,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	return queryOne[model.Member](ctx, r.db, query, memberVars(req), nil)
}

func memberVars(req *model.MemberRequest) map[string]interface{} {
	return map[string]interface{}{
		"name":        req.Name,
		"position":    req.Position,
		"term":        req.Term,
		"linkedin_id": req.LinkedinID,
		"pfp_image":   req.PfpImage,
	}
}

// Get retrieves a member by ID
func (r *MemberRepository) Get(ctx context.Context, id string) (*model.Member, error) {
	recordID, ok := ensureRecordID("member", id)
	if !ok {
		return nil, nil
	}
	return queryOne[model.Member](ctx, r.db, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": recordID}, nil)
}

// List returns members ordered by term then name
func (r *MemberRepository) List(ctx context.Context) ([]*model.Member, error) {
	return queryAll[model.Member](ctx, r.db, `SELECT * FROM member ORDER BY term DESC, name ASC`, nil, nil)
}

// Update overwrites a member profile
func (r *MemberRepository) Update(ctx context.Context, id string, req *model.MemberRequest) (*model.Member, error) {
	recordID, ok := ensureRecordID("member", id)
	if !ok {
		return nil, nil
	}
	query := `
		UPDATE type::record($id) SET
			name = $name,
			position = $position,
			term = $term,
			linkedin_id = $linkedin_id,
			pfp_image = $pfp_image,
			updated_on = time::now()
		WHERE id = type::record($id)
		RETURN AFTER
	`
	vars := memberVars(req)
	vars["id"] = recordID
	return queryOne[model.Member](ctx, r.db, query, vars, nil)
}

// Delete removes a member profile
func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	return deleteRecord(ctx, r.db, "member", id)
}

// Count returns the number of members
func (r *MemberRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "member", "", nil)
}

// ===== Notice =====

// NoticeRepository stores the single site-wide notice
type NoticeRepository struct {
	db database.Database
}

// NewNoticeRepository creates a new notice repository
func NewNoticeRepository(db database.Database) *NoticeRepository {
	return &NoticeRepository{db: db}
}

// Get returns the current notice, or a hidden empty notice
func (r *NoticeRepository) Get(ctx context.Context) (*model.Notice, error) {
	notice, err := queryOne[model.Notice](ctx, r.db, `SELECT * FROM notice:current`, nil, nil)
	if err != nil {
		return nil, err
	}
	if notice == nil {
		return &model.Notice{}, nil
	}
	return notice, nil
}

// Set replaces the current notice
func (r *NoticeRepository) Set(ctx context.Context, req *model.NoticeRequest) (*model.Notice, error) {
	query := `
		UPSERT notice:current CONTENT {
			show: $show,
			link: $link,
			message: $message,
			updated_on: time::now()
		}
	`
	return queryOne[model.Notice](ctx, r.db, query, map[string]interface{}{
		"show":    req.Show,
		"link":    req.Link,
		"message": req.Message,
	}, nil)
}

// ===== Contact =====

// ContactRepository stores contact form messages
type ContactRepository struct {
	db database.Database
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db database.Database) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create stores a contact query
func (r *ContactRepository) Create(ctx context.Context, name, email, message string) (*model.ContactQuery, error) {
	query := `
		CREATE contact_query CONTENT {
			name: $name,
			email: $email,
			message: $message,
			created_on: time::now()
		}
	`
	return queryOne[model.ContactQuery](ctx, r.db, query, map[string]interface{}{
		"name":    name,
		"email":   email,
		"message": message,
	}, nil)
}

// List returns contact queries, newest first
func (r *ContactRepository) List(ctx context.Context) ([]*model.ContactQuery, error) {
	return queryAll[model.ContactQuery](ctx, r.db, `SELECT * FROM contact_query ORDER BY created_on DESC`, nil, nil)
}

// Count returns the number of contact queries
func (r *ContactRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "contact_query", "", nil)
}
