package model

import (
	"regexp"
	"strings"
	"time"
)

// Blog is a published article
type Blog struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Content     string    `json:"content"`
	IsAnonymous bool      `json:"is_anonymous"`
	Author      string    `json:"author,omitempty"`
	AuthorID    string    `json:"-"`
	Tags        []string  `json:"tags"`
	Published   bool      `json:"published"`
	LikeCount   int       `json:"like_count"`
	CreatedOn   time.Time `json:"created_on"`
	UpdatedOn   time.Time `json:"updated_on"`
}

// Comment is a reply on a blog post or another comment
type Comment struct {
	ID          string    `json:"id"`
	BlogID      string    `json:"blog_id"`
	UserID      string    `json:"-"`
	ParentID    *string   `json:"parent_id,omitempty"`
	Content     string    `json:"content"`
	IsAnonymous bool      `json:"is_anonymous"`
	Author      string    `json:"author,omitempty"`
	CreatedOn   time.Time `json:"created_on"`
	UpdatedOn   time.Time `json:"updated_on"`
}

// LikeStatus answers "has the caller liked this blog"
type LikeStatus struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

type BlogRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Content     string   `json:"content" validate:"required"`
	IsAnonymous bool     `json:"is_anonymous"`
	Tags        []string `json:"tags" validate:"max=10,dive,max=30"`
	Published   *bool    `json:"published,omitempty"`
}

func (r *BlogRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

type CommentRequest struct {
	Content     string  `json:"content" validate:"required,max=2000"`
	IsAnonymous bool    `json:"is_anonymous"`
	ParentID    *string `json:"parent_id,omitempty"`
}

func (r *CommentRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

type EditCommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

func (r *EditCommentRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and joins its words with hyphens
func Slugify(s string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// NormalizeTags lowercases, trims and de-duplicates tags, keeping order
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
