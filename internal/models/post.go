package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultFeaturedImage is the sentinel used when a post has no uploaded
// image. It is never written to or removed from the upload store.
const DefaultFeaturedImage = "default-post.jpg"

type Comment struct {
	User      primitive.ObjectID `bson:"user" json:"user"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

type Post struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title         string             `bson:"title" json:"title"`
	Content       string             `bson:"content" json:"content"`
	Excerpt       string             `bson:"excerpt,omitempty" json:"excerpt,omitempty"`
	FeaturedImage string             `bson:"featured_image" json:"featuredImage"`
	Slug          string             `bson:"slug" json:"slug"`
	Author        primitive.ObjectID `bson:"author" json:"author"`
	Category      primitive.ObjectID `bson:"category" json:"category"`
	Tags          []string           `bson:"tags" json:"tags"`
	IsPublished   bool               `bson:"is_published" json:"isPublished"`
	ViewCount     int64              `bson:"view_count" json:"viewCount"`
	Comments      []Comment          `bson:"comments" json:"comments"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// HasUploadedImage reports whether the post references a stored upload
// rather than the default sentinel or an external URL.
func (p Post) HasUploadedImage() bool {
	if p.FeaturedImage == "" || p.FeaturedImage == DefaultFeaturedImage {
		return false
	}
	return !strings.HasPrefix(p.FeaturedImage, "http")
}

// AuthorRef and CategoryRef are the resolved references embedded in post
// responses in place of raw ObjectIDs.
type AuthorRef struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

type CategoryRef struct {
	ID   primitive.ObjectID `json:"id"`
	Name string             `json:"name"`
	Slug string             `json:"slug"`
}

// PostView is a post with its author and category references resolved.
type PostView struct {
	Post
	AuthorInfo   *AuthorRef   `json:"authorInfo,omitempty"`
	CategoryInfo *CategoryRef `json:"categoryInfo,omitempty"`
}
