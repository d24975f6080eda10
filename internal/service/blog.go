package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pclub/portal/api/internal/model"
)

// slugAttempts numbered suffixes are tried before a random one
const slugAttempts = 5

// BlogRepository defines the interface for blog storage
type BlogRepository interface {
	Create(ctx context.Context, blog *model.Blog) error
	Get(ctx context.Context, id string) (*model.Blog, error)
	GetBySlug(ctx context.Context, slug string) (*model.Blog, error)
	Update(ctx context.Context, blog *model.Blog) (*model.Blog, error)
	Delete(ctx context.Context, id string) error
	ListPublished(ctx context.Context) ([]*model.Blog, error)
	ListByTag(ctx context.Context, tag string) ([]*model.Blog, error)
	Tags(ctx context.Context) ([]string, error)
}

// CommentRepository defines the interface for comment storage
type CommentRepository interface {
	Create(ctx context.Context, c *model.Comment) error
	Get(ctx context.Context, id string) (*model.Comment, error)
	UpdateContent(ctx context.Context, id, content string) (*model.Comment, error)
	Delete(ctx context.Context, id string) error
	ListByBlog(ctx context.Context, blogID string) ([]*model.Comment, error)
}

// LikeRepository defines the interface for like storage
type LikeRepository interface {
	Create(ctx context.Context, blogID, userID string) error
	Delete(ctx context.Context, blogID, userID string) (bool, error)
	Exists(ctx context.Context, blogID, userID string) (bool, error)
	Count(ctx context.Context, blogID string) (int, error)
}

// BlogService handles posts, comments and likes
type BlogService struct {
	blogRepo    BlogRepository
	commentRepo CommentRepository
	likeRepo    LikeRepository
	userRepo    UserReader
}

// BlogServiceConfig holds configuration for the blog service
type BlogServiceConfig struct {
	BlogRepo    BlogRepository
	CommentRepo CommentRepository
	LikeRepo    LikeRepository
	UserRepo    UserReader
}

// NewBlogService creates a new blog service
func NewBlogService(cfg BlogServiceConfig) *BlogService {
	return &BlogService{
		blogRepo:    cfg.BlogRepo,
		commentRepo: cfg.CommentRepo,
		likeRepo:    cfg.LikeRepo,
		userRepo:    cfg.UserRepo,
	}
}

// ===== Blogs =====

// Create publishes a post by authorID. Anonymous posts carry no author name.
func (s *BlogService) Create(ctx context.Context, authorID string, req *model.BlogRequest) (*model.Blog, error) {
	author, err := s.author(ctx, authorID, req.IsAnonymous)
	if err != nil {
		return nil, err
	}

	blog := &model.Blog{
		Title:       model.SanitizeText(req.Title),
		Content:     model.SanitizeHTML(req.Content),
		IsAnonymous: req.IsAnonymous,
		Author:      author,
		AuthorID:    authorID,
		Tags:        model.NormalizeTags(req.Tags),
		Published:   req.Published == nil || *req.Published,
	}
	if fields := blogContentErrors(blog); len(fields) > 0 {
		return nil, NewValidationError(fields...)
	}

	base := model.Slugify(blog.Title)
	if base == "" {
		base = "post"
	}
	for attempt := 1; ; attempt++ {
		blog.Slug = slugCandidate(base, attempt)
		err := s.blogRepo.Create(ctx, blog)
		if err == nil {
			return blog, nil
		}
		if !isDuplicate(err) || attempt > slugAttempts {
			return nil, err
		}
	}
}

// slugCandidate is base, then base-2, base-3, ..., then base with a
// random suffix once the numbered attempts are used up.
func slugCandidate(base string, attempt int) string {
	switch {
	case attempt == 1:
		return base
	case attempt <= slugAttempts:
		return fmt.Sprintf("%s-%d", base, attempt)
	default:
		return base + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
}

// Get returns a post by id or slug
func (s *BlogService) Get(ctx context.Context, ref string) (*model.Blog, error) {
	blog, err := s.blogRepo.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if blog == nil {
		blog, err = s.blogRepo.GetBySlug(ctx, ref)
		if err != nil {
			return nil, err
		}
	}
	if blog == nil {
		return nil, ErrBlogNotFound
	}
	return blog, nil
}

// Update edits a post. Only its author may do so. The slug is kept.
func (s *BlogService) Update(ctx context.Context, id string, actor Actor, req *model.BlogRequest) (*model.Blog, error) {
	blog, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if blog.AuthorID != actor.UserID {
		return nil, ErrNotBlogAuthor
	}

	author, err := s.author(ctx, actor.UserID, req.IsAnonymous)
	if err != nil {
		return nil, err
	}
	blog.Title = model.SanitizeText(req.Title)
	blog.Content = model.SanitizeHTML(req.Content)
	blog.IsAnonymous = req.IsAnonymous
	blog.Author = author
	blog.Tags = model.NormalizeTags(req.Tags)
	if req.Published != nil {
		blog.Published = *req.Published
	}
	if fields := blogContentErrors(blog); len(fields) > 0 {
		return nil, NewValidationError(fields...)
	}

	updated, err := s.blogRepo.Update(ctx, blog)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrBlogNotFound
	}
	return updated, nil
}

// Delete removes a post with its comments and likes. Authors delete their
// own posts; moderators and admins delete any.
func (s *BlogService) Delete(ctx context.Context, id string, actor Actor) error {
	blog, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if blog.AuthorID != actor.UserID {
		ok, err := s.canModerate(ctx, actor)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotBlogAuthor
		}
	}
	if err := s.blogRepo.Delete(ctx, blog.ID); err != nil {
		if isNotFound(err) {
			return ErrBlogNotFound
		}
		return err
	}
	return nil
}

// List returns published posts, newest first
func (s *BlogService) List(ctx context.Context) ([]*model.Blog, error) {
	return s.blogRepo.ListPublished(ctx)
}

// ByTag returns published posts carrying tag
func (s *BlogService) ByTag(ctx context.Context, tag string) ([]*model.Blog, error) {
	return s.blogRepo.ListByTag(ctx, strings.ToLower(strings.TrimSpace(tag)))
}

// Tags returns every tag in use, sorted
func (s *BlogService) Tags(ctx context.Context) ([]string, error) {
	return s.blogRepo.Tags(ctx)
}

// canModerate reports whether the actor may remove other users' content.
// The stored role decides, so a demotion applies before old tokens expire.
func (s *BlogService) canModerate(ctx context.Context, actor Actor) (bool, error) {
	if !isModeratorRole(actor.Role) {
		return false, nil
	}
	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, ErrSessionInvalid
	}
	return isModeratorRole(user.Role), nil
}

// author returns the display name to store, empty for anonymous content
func (s *BlogService) author(ctx context.Context, userID string, anonymous bool) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	if anonymous {
		return "", nil
	}
	return user.Name, nil
}

// blogContentErrors catches input that sanitizing reduced to nothing
func blogContentErrors(blog *model.Blog) []model.FieldError {
	var fields []model.FieldError
	if blog.Title == "" {
		fields = append(fields, model.FieldError{Field: "title", Message: "title is required"})
	}
	if blog.Content == "" {
		fields = append(fields, model.FieldError{Field: "content", Message: "content is required"})
	}
	return fields
}

// ===== Comments =====

// AddComment comments on a post, or replies to a comment on the same post
func (s *BlogService) AddComment(ctx context.Context, blogID, userID string, req *model.CommentRequest) (*model.Comment, error) {
	blog, err := s.Get(ctx, blogID)
	if err != nil {
		return nil, err
	}

	content := model.SanitizeText(req.Content)
	if content == "" {
		return nil, NewValidationError(model.FieldError{Field: "content", Message: "content is required"})
	}

	var parentID *string
	if req.ParentID != nil && *req.ParentID != "" {
		parent, err := s.commentRepo.Get(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.BlogID != blog.ID {
			return nil, ErrCommentNotFound
		}
		parentID = &parent.ID
	}

	author, err := s.author(ctx, userID, req.IsAnonymous)
	if err != nil {
		return nil, err
	}

	c := &model.Comment{
		BlogID:      blog.ID,
		UserID:      userID,
		ParentID:    parentID,
		Content:     content,
		IsAnonymous: req.IsAnonymous,
		Author:      author,
	}
	if err := s.commentRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// EditComment changes the text of the actor's own comment
func (s *BlogService) EditComment(ctx context.Context, id string, actor Actor, req *model.EditCommentRequest) (*model.Comment, error) {
	c, err := s.comment(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != actor.UserID {
		return nil, ErrNotCommentOwner
	}

	content := model.SanitizeText(req.Content)
	if content == "" {
		return nil, NewValidationError(model.FieldError{Field: "content", Message: "content is required"})
	}
	updated, err := s.commentRepo.UpdateContent(ctx, c.ID, content)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrCommentNotFound
	}
	return updated, nil
}

// DeleteComment removes a comment and its replies. Owners delete their own;
// moderators and admins delete any.
func (s *BlogService) DeleteComment(ctx context.Context, id string, actor Actor) error {
	c, err := s.comment(ctx, id)
	if err != nil {
		return err
	}
	if c.UserID != actor.UserID {
		ok, err := s.canModerate(ctx, actor)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotCommentOwner
		}
	}
	if err := s.commentRepo.Delete(ctx, c.ID); err != nil {
		if isNotFound(err) {
			return ErrCommentNotFound
		}
		return err
	}
	return nil
}

// Comments lists a post's comments, oldest first
func (s *BlogService) Comments(ctx context.Context, blogID string) ([]*model.Comment, error) {
	blog, err := s.Get(ctx, blogID)
	if err != nil {
		return nil, err
	}
	return s.commentRepo.ListByBlog(ctx, blog.ID)
}

func (s *BlogService) comment(ctx context.Context, id string) (*model.Comment, error) {
	c, err := s.commentRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCommentNotFound
	}
	return c, nil
}

// ===== Likes =====

// Like records the user's like on a post
func (s *BlogService) Like(ctx context.Context, blogID, userID string) (*model.LikeStatus, error) {
	blog, err := s.Get(ctx, blogID)
	if err != nil {
		return nil, err
	}
	if err := s.likeRepo.Create(ctx, blog.ID, userID); err != nil {
		if isDuplicate(err) {
			return nil, ErrAlreadyLiked
		}
		return nil, err
	}
	return s.likeStatus(ctx, blog.ID, true)
}

// Unlike removes the user's like
func (s *BlogService) Unlike(ctx context.Context, blogID, userID string) (*model.LikeStatus, error) {
	blog, err := s.Get(ctx, blogID)
	if err != nil {
		return nil, err
	}
	existed, err := s.likeRepo.Delete(ctx, blog.ID, userID)
	if err != nil {
		return nil, err
	}
	if !existed {
		return nil, ErrLikeNotFound
	}
	return s.likeStatus(ctx, blog.ID, false)
}

// LikeStatus reports whether userID liked the post, with the total count.
// An empty userID only reports the count.
func (s *BlogService) LikeStatus(ctx context.Context, blogID, userID string) (*model.LikeStatus, error) {
	blog, err := s.Get(ctx, blogID)
	if err != nil {
		return nil, err
	}
	liked := false
	if userID != "" {
		if liked, err = s.likeRepo.Exists(ctx, blog.ID, userID); err != nil {
			return nil, err
		}
	}
	return s.likeStatus(ctx, blog.ID, liked)
}

func (s *BlogService) likeStatus(ctx context.Context, blogID string, liked bool) (*model.LikeStatus, error) {
	n, err := s.likeRepo.Count(ctx, blogID)
	if err != nil {
		return nil, err
	}
	return &model.LikeStatus{Liked: liked, Count: n}, nil
}
