package handler

import (
	"context"
	"net/http"

	"github.com/pclub/portal/api/internal/middleware"
	"github.com/pclub/portal/api/internal/model"
	"github.com/pclub/portal/api/internal/service"
)

// BlogService defines the blog, comment and like operations
type BlogService interface {
	Create(ctx context.Context, authorID string, req *model.BlogRequest) (*model.Blog, error)
	Get(ctx context.Context, ref string) (*model.Blog, error)
	Update(ctx context.Context, id string, actor service.Actor, req *model.BlogRequest) (*model.Blog, error)
	Delete(ctx context.Context, id string, actor service.Actor) error
	List(ctx context.Context) ([]*model.Blog, error)
	ByTag(ctx context.Context, tag string) ([]*model.Blog, error)
	Tags(ctx context.Context) ([]string, error)

	AddComment(ctx context.Context, blogID, userID string, req *model.CommentRequest) (*model.Comment, error)
	EditComment(ctx context.Context, id string, actor service.Actor, req *model.EditCommentRequest) (*model.Comment, error)
	DeleteComment(ctx context.Context, id string, actor service.Actor) error
	Comments(ctx context.Context, blogID string) ([]*model.Comment, error)

	Like(ctx context.Context, blogID, userID string) (*model.LikeStatus, error)
	Unlike(ctx context.Context, blogID, userID string) (*model.LikeStatus, error)
	LikeStatus(ctx context.Context, blogID, userID string) (*model.LikeStatus, error)
}

// BlogHandler handles blog endpoints
type BlogHandler struct {
	svc BlogService
}

// NewBlogHandler creates a new blog handler
func NewBlogHandler(svc BlogService) *BlogHandler {
	return &BlogHandler{svc: svc}
}

// RegisterRoutes registers blog routes. requireAuth wraps every mutation
// since /v1/blogs sits outside the gated prefixes.
func (h *BlogHandler) RegisterRoutes(mux *http.ServeMux, requireAuth middleware.Middleware) {
	mux.HandleFunc("GET /v1/blogs", h.List)
	mux.HandleFunc("GET /v1/blogs/tags", h.Tags)
	mux.HandleFunc("GET /v1/blogs/{blogRef}", h.Get)
	mux.HandleFunc("GET /v1/blogs/{blogRef}/comments", h.Comments)
	mux.HandleFunc("GET /v1/blogs/{blogRef}/likes", h.LikeStatus)

	mux.Handle("POST /v1/blogs", requireAuth(http.HandlerFunc(h.Create)))
	mux.Handle("PUT /v1/blogs/{blogRef}", requireAuth(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /v1/blogs/{blogRef}", requireAuth(http.HandlerFunc(h.Delete)))

	mux.Handle("POST /v1/blogs/{blogRef}/comments", requireAuth(http.HandlerFunc(h.AddComment)))
	mux.Handle("PUT /v1/comments/{commentId}", requireAuth(http.HandlerFunc(h.EditComment)))
	mux.Handle("DELETE /v1/comments/{commentId}", requireAuth(http.HandlerFunc(h.DeleteComment)))

	mux.Handle("POST /v1/blogs/{blogRef}/likes", requireAuth(http.HandlerFunc(h.Like)))
	mux.Handle("DELETE /v1/blogs/{blogRef}/likes", requireAuth(http.HandlerFunc(h.Unlike)))
}

// actor builds the acting user from the token claims
func actor(r *http.Request) (service.Actor, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		return service.Actor{}, false
	}
	return service.Actor{UserID: userID, Role: middleware.GetRole(r.Context())}, true
}

// List handles GET /v1/blogs - published posts, newest first. ?tag=
// narrows the list to one tag.
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		blogs []*model.Blog
		err   error
	)
	if tag := r.URL.Query().Get("tag"); tag != "" {
		blogs, err = h.svc.ByTag(r.Context(), tag)
	} else {
		blogs, err = h.svc.List(r.Context())
	}
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if blogs == nil {
		blogs = []*model.Blog{}
	}

	WriteData(w, http.StatusOK, blogs)
}

// Tags handles GET /v1/blogs/tags
func (h *BlogHandler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Tags(r.Context())
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, tags)
}

// Get handles GET /v1/blogs/{blogRef}. The ref is an id or a slug.
func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	blog, err := h.svc.Get(r.Context(), r.PathValue("blogRef"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, blog)
}

// Create handles POST /v1/blogs
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	var req model.BlogRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	blog, err := h.svc.Create(r.Context(), userID, &req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, blog)
}

// Update handles PUT /v1/blogs/{blogRef}
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	var req model.BlogRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	blog, err := h.svc.Update(r.Context(), r.PathValue("blogRef"), act, &req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, blog)
}

// Delete handles DELETE /v1/blogs/{blogRef}
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	if err := h.svc.Delete(r.Context(), r.PathValue("blogRef"), act); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteNoContent(w)
}

// ===== Comments =====

// Comments handles GET /v1/blogs/{blogRef}/comments
func (h *BlogHandler) Comments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.svc.Comments(r.Context(), r.PathValue("blogRef"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if comments == nil {
		comments = []*model.Comment{}
	}

	WriteData(w, http.StatusOK, comments)
}

// AddComment handles POST /v1/blogs/{blogRef}/comments
func (h *BlogHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	var req model.CommentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	comment, err := h.svc.AddComment(r.Context(), r.PathValue("blogRef"), userID, &req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, comment)
}

// EditComment handles PUT /v1/comments/{commentId}
func (h *BlogHandler) EditComment(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	var req model.EditCommentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	comment, err := h.svc.EditComment(r.Context(), r.PathValue("commentId"), act, &req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, comment)
}

// DeleteComment handles DELETE /v1/comments/{commentId}
func (h *BlogHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	if err := h.svc.DeleteComment(r.Context(), r.PathValue("commentId"), act); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteNoContent(w)
}

// ===== Likes =====

// LikeStatus handles GET /v1/blogs/{blogRef}/likes. Anonymous callers get
// the count only.
func (h *BlogHandler) LikeStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.LikeStatus(r.Context(), r.PathValue("blogRef"), middleware.GetUserID(r.Context()))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, status)
}

// Like handles POST /v1/blogs/{blogRef}/likes
func (h *BlogHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	status, err := h.svc.Like(r.Context(), r.PathValue("blogRef"), userID)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, status)
}

// Unlike handles DELETE /v1/blogs/{blogRef}/likes
func (h *BlogHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	status, err := h.svc.Unlike(r.Context(), r.PathValue("blogRef"), userID)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, status)
}
