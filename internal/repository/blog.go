package repository

import (
	"context"
	"fmt"

	"github.com/pclub/portal/api/internal/database"
	"github.com/pclub/portal/api/internal/model"
)

// blogFields selects a blog with its live like count
const blogFields = `*, count((SELECT id FROM blog_like WHERE blog = $parent.id)) AS like_count`

// BlogRepository handles blog posts
type BlogRepository struct {
	db database.Database
}

// NewBlogRepository creates a new blog repository
func NewBlogRepository(db database.Database) *BlogRepository {
	return &BlogRepository{db: db}
}

type blogRecord struct {
	model.Blog
	AuthorUser string `json:"author_user"`
}

func (b *blogRecord) toModel() *model.Blog {
	out := b.Blog
	out.AuthorID = b.AuthorUser
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return &out
}

func (r *BlogRepository) one(ctx context.Context, query string, vars map[string]interface{}) (*model.Blog, error) {
	rec, err := queryOne[blogRecord](ctx, r.db, query, vars, nil)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.toModel(), nil
}

func (r *BlogRepository) all(ctx context.Context, query string, vars map[string]interface{}) ([]*model.Blog, error) {
	recs, err := queryAll[blogRecord](ctx, r.db, query, vars, nil)
	if err != nil {
		return nil, err
	}
	blogs := make([]*model.Blog, 0, len(recs))
	for _, rec := range recs {
		blogs = append(blogs, rec.toModel())
	}
	return blogs, nil
}

// Create stores a blog post. A taken slug reports database.ErrDuplicate.
func (r *BlogRepository) Create(ctx context.Context, blog *model.Blog) error {
	authorID, ok := ensureRecordID("user", blog.AuthorID)
	if !ok {
		return fmt.Errorf("%w: invalid author reference", database.ErrQuery)
	}
	query := `
		CREATE blog CONTENT {
			title: $title,
			slug: $slug,
			content: $content,
			is_anonymous: $is_anonymous,
			author: $author,
			author_user: type::record($author_user),
			tags: $tags,
			published: $published,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"title":        blog.Title,
		"slug":         blog.Slug,
		"content":      blog.Content,
		"is_anonymous": blog.IsAnonymous,
		"author":       blog.Author,
		"author_user":  authorID,
		"tags":         blog.Tags,
		"published":    blog.Published,
	}

	created, err := r.one(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: slug already exists", database.ErrDuplicate)
		}
		return err
	}
	if created == nil {
		return database.ErrQuery
	}
	*blog = *created
	return nil
}

// Get retrieves a blog by ID
func (r *BlogRepository) Get(ctx context.Context, id string) (*model.Blog, error) {
	recordID, ok := ensureRecordID("blog", id)
	if !ok {
		return nil, nil
	}
	return r.one(ctx, `SELECT `+blogFields+` FROM type::record($id)`, map[string]interface{}{"id": recordID})
}

// GetBySlug retrieves a blog by its slug
func (r *BlogRepository) GetBySlug(ctx context.Context, slug string) (*model.Blog, error) {
	return r.one(ctx, `SELECT `+blogFields+` FROM blog WHERE slug = $slug LIMIT 1`, map[string]interface{}{"slug": slug})
}

// Update overwrites a post's editable fields
func (r *BlogRepository) Update(ctx context.Context, blog *model.Blog) (*model.Blog, error) {
	recordID, ok := ensureRecordID("blog", blog.ID)
	if !ok {
		return nil, nil
	}
	query := `
		UPDATE type::record($id) SET
			title = $title,
			slug = $slug,
			content = $content,
			is_anonymous = $is_anonymous,
			author = $author,
			tags = $tags,
			published = $published,
			updated_on = time::now()
		WHERE id = type::record($id)
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"id":           recordID,
		"title":        blog.Title,
		"slug":         blog.Slug,
		"content":      blog.Content,
		"is_anonymous": blog.IsAnonymous,
		"author":       blog.Author,
		"tags":         blog.Tags,
		"published":    blog.Published,
	}
	updated, err := r.one(ctx, query, vars)
	if err != nil && isUniqueConstraintError(err) {
		return nil, fmt.Errorf("%w: slug already exists", database.ErrDuplicate)
	}
	if updated != nil {
		updated.LikeCount = blog.LikeCount
	}
	return updated, err
}

// Delete removes a post with its comments and likes
func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	recordID, ok := ensureRecordID("blog", id)
	if !ok {
		return database.ErrNotFound
	}
	existing, err := r.Get(ctx, recordID)
	if err != nil {
		return err
	}
	if existing == nil {
		return database.ErrNotFound
	}
	vars := map[string]interface{}{"id": recordID}
	return runBatch(ctx, r.db,
		statement{`DELETE comment WHERE blog = type::record($id)`, vars},
		statement{`DELETE blog_like WHERE blog = type::record($id)`, vars},
		statement{`DELETE type::record($id)`, vars},
	)
}

// ListPublished returns published posts, newest first
func (r *BlogRepository) ListPublished(ctx context.Context) ([]*model.Blog, error) {
	return r.all(ctx, `SELECT `+blogFields+` FROM blog WHERE published = true ORDER BY created_on DESC`, nil)
}

// ListByTag returns published posts carrying tag, newest first
func (r *BlogRepository) ListByTag(ctx context.Context, tag string) ([]*model.Blog, error) {
	query := `SELECT ` + blogFields + ` FROM blog WHERE published = true AND tags CONTAINS $tag ORDER BY created_on DESC`
	return r.all(ctx, query, map[string]interface{}{"tag": tag})
}

// Tags returns the distinct tags of published posts, sorted
func (r *BlogRepository) Tags(ctx context.Context) ([]string, error) {
	query := `RETURN array::sort(array::distinct(array::flatten((SELECT VALUE tags FROM blog WHERE published = true))))`
	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	return extractStrings(result), nil
}

// Count returns the number of posts
func (r *BlogRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "blog", "", nil)
}

// ===== Comments =====

var commentAliases = map[string]string{"blog": "blog_id", "parent": "parent_id"}

// CommentRepository handles blog comments
type CommentRepository struct {
	db database.Database
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db database.Database) *CommentRepository {
	return &CommentRepository{db: db}
}

type commentRecord struct {
	model.Comment
	User string `json:"user"`
}

func (c *commentRecord) toModel() *model.Comment {
	out := c.Comment
	out.UserID = c.User
	return &out
}

// Create stores a comment, optionally as a reply to parentID
func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	blogID, ok1 := ensureRecordID("blog", c.BlogID)
	userID, ok2 := ensureRecordID("user", c.UserID)
	if !ok1 || !ok2 {
		return fmt.Errorf("%w: invalid comment reference", database.ErrQuery)
	}
	vars := map[string]interface{}{
		"blog_id":      blogID,
		"user_id":      userID,
		"content":      c.Content,
		"is_anonymous": c.IsAnonymous,
		"author":       c.Author,
		"parent_id":    nil,
	}
	if c.ParentID != nil {
		parentID, ok := ensureRecordID("comment", *c.ParentID)
		if !ok {
			return fmt.Errorf("%w: invalid parent reference", database.ErrQuery)
		}
		vars["parent_id"] = parentID
	}

	query := `
		CREATE comment CONTENT {
			blog: type::record($blog_id),
			user: type::record($user_id),
			content: $content,
			is_anonymous: $is_anonymous,
			author: $author,
			parent: IF $parent_id IS NOT NULL THEN type::record($parent_id) ELSE NONE END,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	rec, err := queryOne[commentRecord](ctx, r.db, query, vars, commentAliases)
	if err != nil {
		return err
	}
	if rec == nil {
		return database.ErrQuery
	}
	*c = *rec.toModel()
	return nil
}

// Get retrieves a comment by ID
func (r *CommentRepository) Get(ctx context.Context, id string) (*model.Comment, error) {
	recordID, ok := ensureRecordID("comment", id)
	if !ok {
		return nil, nil
	}
	rec, err := queryOne[commentRecord](ctx, r.db, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": recordID}, commentAliases)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.toModel(), nil
}

// UpdateContent edits a comment's text
func (r *CommentRepository) UpdateContent(ctx context.Context, id, content string) (*model.Comment, error) {
	recordID, ok := ensureRecordID("comment", id)
	if !ok {
		return nil, nil
	}
	query := `UPDATE type::record($id) SET content = $content, updated_on = time::now() WHERE id = type::record($id) RETURN AFTER`
	rec, err := queryOne[commentRecord](ctx, r.db, query, map[string]interface{}{"id": recordID, "content": content}, commentAliases)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.toModel(), nil
}

// Delete removes a comment and its direct replies
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	recordID, ok := ensureRecordID("comment", id)
	if !ok {
		return database.ErrNotFound
	}
	vars := map[string]interface{}{"id": recordID}
	return runBatch(ctx, r.db,
		statement{`DELETE comment WHERE parent = type::record($id)`, vars},
		statement{`DELETE type::record($id)`, vars},
	)
}

// ListByBlog returns a post's comments, oldest first
func (r *CommentRepository) ListByBlog(ctx context.Context, blogID string) ([]*model.Comment, error) {
	recordID, ok := ensureRecordID("blog", blogID)
	if !ok {
		return []*model.Comment{}, nil
	}
	query := `SELECT * FROM comment WHERE blog = type::record($blog_id) ORDER BY created_on ASC`
	recs, err := queryAll[commentRecord](ctx, r.db, query, map[string]interface{}{"blog_id": recordID}, commentAliases)
	if err != nil {
		return nil, err
	}
	comments := make([]*model.Comment, 0, len(recs))
	for _, rec := range recs {
		comments = append(comments, rec.toModel())
	}
	return comments, nil
}

// Count returns the number of comments
func (r *CommentRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "comment", "", nil)
}

// ===== Likes =====

// LikeRepository handles blog likes
type LikeRepository struct {
	db database.Database
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db database.Database) *LikeRepository {
	return &LikeRepository{db: db}
}

func likeVars(blogID, userID string) (map[string]interface{}, bool) {
	blogRecord, ok1 := ensureRecordID("blog", blogID)
	userRecord, ok2 := ensureRecordID("user", userID)
	if !ok1 || !ok2 {
		return nil, false
	}
	return map[string]interface{}{"blog_id": blogRecord, "user_id": userRecord}, true
}

// Create likes a post; a repeat like reports database.ErrDuplicate
func (r *LikeRepository) Create(ctx context.Context, blogID, userID string) error {
	vars, ok := likeVars(blogID, userID)
	if !ok {
		return fmt.Errorf("%w: invalid like reference", database.ErrQuery)
	}
	query := `CREATE blog_like CONTENT { blog: type::record($blog_id), user: type::record($user_id), created_on: time::now() }`
	if _, err := r.db.Query(ctx, query, vars); err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: already liked", database.ErrDuplicate)
		}
		return err
	}
	return nil
}

// Delete unlikes a post, reporting whether a like existed
func (r *LikeRepository) Delete(ctx context.Context, blogID, userID string) (bool, error) {
	vars, ok := likeVars(blogID, userID)
	if !ok {
		return false, nil
	}
	query := `DELETE blog_like WHERE blog = type::record($blog_id) AND user = type::record($user_id) RETURN BEFORE`
	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return false, err
	}
	rows, _ := extractQueryResults(result)
	return len(rows) > 0, nil
}

// Exists reports whether the user liked the post
func (r *LikeRepository) Exists(ctx context.Context, blogID, userID string) (bool, error) {
	vars, ok := likeVars(blogID, userID)
	if !ok {
		return false, nil
	}
	n, err := count(ctx, r.db, "blog_like", "blog = type::record($blog_id) AND user = type::record($user_id)", vars)
	return n > 0, err
}

// Count returns a post's like count
func (r *LikeRepository) Count(ctx context.Context, blogID string) (int, error) {
	recordID, ok := ensureRecordID("blog", blogID)
	if !ok {
		return 0, nil
	}
	return count(ctx, r.db, "blog_like", "blog = type::record($blog_id)", map[string]interface{}{"blog_id": recordID})
}
