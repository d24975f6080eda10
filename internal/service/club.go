package service

import (
	"context"
	"mime/multipart"
	"strings"

	"github.com/pclub/portal/api/internal/model"
	"github.com/pclub/portal/api/internal/upload"
)

// GalleryRepository defines the interface for gallery storage
type GalleryRepository interface {
	Create(ctx context.Context, eventName string, urls []string) (*model.Gallery, error)
	Get(ctx context.Context, id string) (*model.Gallery, error)
	List(ctx context.Context) ([]*model.Gallery, error)
	Delete(ctx context.Context, id string) error
}

// MemberRepository defines the interface for member storage
type MemberRepository interface {
	Create(ctx context.Context, req *model.MemberRequest) (*model.Member, error)
	Get(ctx context.Context, id string) (*model.Member, error)
	List(ctx context.Context) ([]*model.Member, error)
	Update(ctx context.Context, id string, req *model.MemberRequest) (*model.Member, error)
	Delete(ctx context.Context, id string) error
}

// NoticeRepository defines the interface for the site notice
type NoticeRepository interface {
	Get(ctx context.Context) (*model.Notice, error)
	Set(ctx context.Context, req *model.NoticeRequest) (*model.Notice, error)
}

// ContactRepository defines the interface for contact queries
type ContactRepository interface {
	Create(ctx context.Context, name, email, message string) (*model.ContactQuery, error)
	List(ctx context.Context) ([]*model.ContactQuery, error)
}

// ClubService handles the club's public content: gallery, members, the
// site notice and contact queries.
type ClubService struct {
	galleryRepo GalleryRepository
	memberRepo  MemberRepository
	noticeRepo  NoticeRepository
	contactRepo ContactRepository
	uploader    upload.Uploader
}

// ClubServiceConfig holds configuration for the club service
type ClubServiceConfig struct {
	GalleryRepo GalleryRepository
	MemberRepo  MemberRepository
	NoticeRepo  NoticeRepository
	ContactRepo ContactRepository
	Uploader    upload.Uploader
}

// NewClubService creates a new club service
func NewClubService(cfg ClubServiceConfig) *ClubService {
	return &ClubService{
		galleryRepo: cfg.GalleryRepo,
		memberRepo:  cfg.MemberRepo,
		noticeRepo:  cfg.NoticeRepo,
		contactRepo: cfg.ContactRepo,
		uploader:    cfg.Uploader,
	}
}

// ===== Gallery =====

// AddGallery uploads images and stores them as one album
func (s *ClubService) AddGallery(ctx context.Context, eventName string, images []*multipart.FileHeader) (*model.Gallery, error) {
	eventName = model.SanitizeText(eventName)
	if eventName == "" {
		return nil, NewValidationError(model.FieldError{Field: "event_name", Message: "event_name is required"})
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}

	urls, err := upload.UploadFiles(ctx, s.uploader, images, upload.FolderGallery)
	if err != nil {
		return nil, uploadError(err)
	}
	return s.galleryRepo.Create(ctx, eventName, urls)
}

// ListGalleries returns every album, newest first
func (s *ClubService) ListGalleries(ctx context.Context) ([]*model.Gallery, error) {
	return s.galleryRepo.List(ctx)
}

// GetGallery returns one album
func (s *ClubService) GetGallery(ctx context.Context, id string) (*model.Gallery, error) {
	g, err := s.galleryRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGalleryNotFound
	}
	return g, nil
}

// DeleteGallery removes an album
func (s *ClubService) DeleteGallery(ctx context.Context, id string) error {
	if err := s.galleryRepo.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrGalleryNotFound
		}
		return err
	}
	return nil
}

// ===== Members =====

// AddMember stores a member profile. An inline data:image photo is
// uploaded first.
func (s *ClubService) AddMember(ctx context.Context, req *model.MemberRequest) (*model.Member, error) {
	if err := s.prepareMember(ctx, req); err != nil {
		return nil, err
	}
	return s.memberRepo.Create(ctx, req)
}

// ListMembers returns the team, most recent term first
func (s *ClubService) ListMembers(ctx context.Context) ([]*model.Member, error) {
	return s.memberRepo.List(ctx)
}

// GetMember returns one member
func (s *ClubService) GetMember(ctx context.Context, id string) (*model.Member, error) {
	m, err := s.memberRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMemberNotFound
	}
	return m, nil
}

// UpdateMember overwrites a member profile
func (s *ClubService) UpdateMember(ctx context.Context, id string, req *model.MemberRequest) (*model.Member, error) {
	if err := s.prepareMember(ctx, req); err != nil {
		return nil, err
	}
	m, err := s.memberRepo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMemberNotFound
	}
	return m, nil
}

// DeleteMember removes a member
func (s *ClubService) DeleteMember(ctx context.Context, id string) error {
	if err := s.memberRepo.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrMemberNotFound
		}
		return err
	}
	return nil
}

func (s *ClubService) prepareMember(ctx context.Context, req *model.MemberRequest) error {
	req.Name = model.SanitizeText(req.Name)
	req.Position = model.SanitizeText(req.Position)
	req.Term = strings.TrimSpace(req.Term)
	req.LinkedinID = strings.TrimSpace(req.LinkedinID)

	if upload.IsDataURI(req.PfpImage) {
		url, err := s.uploader.UploadDataURI(ctx, req.PfpImage, upload.FolderMembers)
		if err != nil {
			return uploadError(err)
		}
		req.PfpImage = url
	}
	return nil
}

// ===== Notice =====

// GetNotice returns the site banner
func (s *ClubService) GetNotice(ctx context.Context) (*model.Notice, error) {
	return s.noticeRepo.Get(ctx)
}

// SetNotice replaces the site banner
func (s *ClubService) SetNotice(ctx context.Context, req *model.NoticeRequest) (*model.Notice, error) {
	req.Message = model.SanitizeText(req.Message)
	req.Link = strings.TrimSpace(req.Link)
	return s.noticeRepo.Set(ctx, req)
}

// ===== Contact =====

// SubmitContact stores a message from the contact form
func (s *ClubService) SubmitContact(ctx context.Context, req *model.ContactRequest) (*model.ContactQuery, error) {
	name := model.SanitizeText(req.Name)
	message := model.SanitizeText(req.Message)

	var fields []model.FieldError
	if name == "" {
		fields = append(fields, model.FieldError{Field: "name", Message: "name is required"})
	}
	if message == "" {
		fields = append(fields, model.FieldError{Field: "message", Message: "message is required"})
	}
	if len(fields) > 0 {
		return nil, NewValidationError(fields...)
	}

	return s.contactRepo.Create(ctx, name, normalizeEmail(req.Email), message)
}

// ListContacts returns contact queries, newest first
func (s *ClubService) ListContacts(ctx context.Context) ([]*model.ContactQuery, error) {
	return s.contactRepo.List(ctx)
}
