package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rahulds/goblog/internal/httperr"
	"github.com/rahulds/goblog/internal/models"
	"github.com/rahulds/goblog/internal/slug"
	"github.com/rahulds/goblog/internal/storage"
)

type PostService struct {
	posts      *mongo.Collection
	categories *mongo.Collection
	users      *mongo.Collection
	cleaner    *storage.Cleaner
}

func NewPostService(posts, categories, users *mongo.Collection, cleaner *storage.Cleaner) *PostService {
	return &PostService{posts: posts, categories: categories, users: users, cleaner: cleaner}
}

type PostInput struct {
	Title         string
	Content       string
	Excerpt       string
	Category      string
	Tags          []string
	IsPublished   bool
	FeaturedImage string // relative upload path; empty means the default image
}

type PostUpdate struct {
	Title         *string
	Content       *string
	Excerpt       *string
	Category      *string
	Tags          *[]string
	IsPublished   *bool
	FeaturedImage *string // set by the handler when a replacement was uploaded
}

type ListOptions struct {
	Page     int
	Limit    int
	Category string
	Author   string
}

// ParseTags accepts tags as a list, where any element may itself be a
// comma-separated string (multipart forms send CSV, JSON sends arrays).
func ParseTags(raw []string) []string {
	tags := []string{}
	for _, entry := range raw {
		for _, tag := range strings.Split(entry, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

func (s *PostService) Create(ctx context.Context, author primitive.ObjectID, in PostInput) (models.Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || in.Category == "" {
		return models.Post{}, httperr.Validation("Title and category are required")
	}
	if len(in.Title) > 100 {
		return models.Post{}, httperr.Validation("Title cannot be more than 100 characters")
	}
	if in.Content == "" {
		return models.Post{}, httperr.Validation("Content is required")
	}

	categoryID, err := primitive.ObjectIDFromHex(in.Category)
	if err != nil {
		return models.Post{}, httperr.Validation("Invalid category ID")
	}
	err = s.categories.FindOne(ctx, bson.M{"_id": categoryID}).Err()
	if err == mongo.ErrNoDocuments {
		return models.Post{}, httperr.NotFound("Category not found")
	}
	if err != nil {
		return models.Post{}, httperr.Storage("Error creating post", err)
	}

	err = s.users.FindOne(ctx, bson.M{"_id": author}).Err()
	if err == mongo.ErrNoDocuments {
		return models.Post{}, httperr.NotFound("User not found")
	}
	if err != nil {
		return models.Post{}, httperr.Storage("Error creating post", err)
	}

	post := models.Post{
		ID:            primitive.NewObjectID(),
		Title:         in.Title,
		Content:       in.Content,
		Excerpt:       in.Excerpt,
		FeaturedImage: in.FeaturedImage,
		Author:        author,
		Category:      categoryID,
		Tags:          in.Tags,
		IsPublished:   in.IsPublished,
		Comments:      []models.Comment{},
	}
	if post.FeaturedImage == "" {
		post.FeaturedImage = models.DefaultFeaturedImage
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}

	// One retry on a duplicate-key error from the unique slug index;
	// the pre-insert existence check alone has a race window.
	for attempt := 0; ; attempt++ {
		post.Slug, err = slug.ForName(ctx, in.Title, "post", slugTaken(s.posts, primitive.NilObjectID))
		if err != nil {
			return models.Post{}, httperr.Storage("Error creating post", err)
		}
		now := time.Now()
		post.CreatedAt = now
		post.UpdatedAt = now

		_, err = s.posts.InsertOne(ctx, post)
		if err == nil {
			return post, nil
		}
		if mongo.IsDuplicateKeyError(err) && attempt == 0 {
			continue
		}
		return models.Post{}, httperr.Storage("Error creating post", err)
	}
}

func (s *PostService) List(ctx context.Context, opts ListOptions) ([]models.PostView, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = 10
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}

	filter := bson.M{}
	if opts.Category != "" {
		id, err := primitive.ObjectIDFromHex(opts.Category)
		if err != nil {
			return nil, httperr.Validation("Invalid category ID")
		}
		filter["category"] = id
	}
	if opts.Author != "" {
		id, err := primitive.ObjectIDFromHex(opts.Author)
		if err != nil {
			return nil, httperr.Validation("Invalid author ID")
		}
		filter["author"] = id
	}

	cursor, err := s.posts.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((opts.Page-1)*opts.Limit)).
		SetLimit(int64(opts.Limit)))
	if err != nil {
		return nil, httperr.Storage("Error fetching posts", err)
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, httperr.Storage("Error fetching posts", err)
	}
	return s.resolveRefs(ctx, posts)
}

// GetBySlug fetches a single post by slug (or ID, when the parameter
// parses as one) and atomically bumps its view counter. The increment is
// a single-document $inc, so the counter is monotone even under
// concurrent reads.
func (s *PostService) GetBySlug(ctx context.Context, slugOrID string) (models.PostView, error) {
	filter := bson.M{"slug": slugOrID}
	if objID, err := primitive.ObjectIDFromHex(slugOrID); err == nil {
		filter = bson.M{"$or": []bson.M{{"slug": slugOrID}, {"_id": objID}}}
	}

	var post models.Post
	err := s.posts.FindOneAndUpdate(ctx, filter,
		bson.M{"$inc": bson.M{"view_count": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return models.PostView{}, httperr.NotFound("Post not found")
	}
	if err != nil {
		return models.PostView{}, httperr.Storage("Error fetching post", err)
	}

	views, err := s.resolveRefs(ctx, []models.Post{post})
	if err != nil {
		return models.PostView{}, err
	}
	return views[0], nil
}

// Update applies only the provided fields; omitted fields are preserved.
// The author is immutable and the slug is recomputed only when the title
// actually changes.
func (s *PostService) Update(ctx context.Context, id string, in PostUpdate) (models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Post{}, httperr.Validation("Invalid post ID")
	}

	var current models.Post
	err = s.posts.FindOne(ctx, bson.M{"_id": objID}).Decode(&current)
	if err == mongo.ErrNoDocuments {
		return models.Post{}, httperr.NotFound("Post not found")
	}
	if err != nil {
		return models.Post{}, httperr.Storage("Error updating post", err)
	}

	set := bson.M{"updated_at": time.Now()}
	if in.Content != nil {
		set["content"] = *in.Content
	}
	if in.Excerpt != nil {
		set["excerpt"] = *in.Excerpt
	}
	if in.Tags != nil {
		set["tags"] = *in.Tags
	}
	if in.IsPublished != nil {
		set["is_published"] = *in.IsPublished
	}
	if in.Category != nil {
		categoryID, err := primitive.ObjectIDFromHex(*in.Category)
		if err != nil {
			return models.Post{}, httperr.Validation("Invalid category ID")
		}
		err = s.categories.FindOne(ctx, bson.M{"_id": categoryID}).Err()
		if err == mongo.ErrNoDocuments {
			return models.Post{}, httperr.NotFound("Category not found")
		}
		if err != nil {
			return models.Post{}, httperr.Storage("Error updating post", err)
		}
		set["category"] = categoryID
	}
	// The old image is only removed once the replacement is persisted;
	// a failed update must leave it referenced and on disk.
	cleanup := pendingCleanup(current, in)
	if in.FeaturedImage != nil {
		set["featured_image"] = *in.FeaturedImage
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return models.Post{}, httperr.Validation("Title cannot be empty")
		}
		set["title"] = title
		if title != current.Title {
			newSlug, err := slug.ForName(ctx, title, "post", slugTaken(s.posts, objID))
			if err != nil {
				return models.Post{}, httperr.Storage("Error updating post", err)
			}
			set["slug"] = newSlug
		}
	}

	var updated models.Post
	for attempt := 0; ; attempt++ {
		err = s.posts.FindOneAndUpdate(ctx,
			bson.M{"_id": objID},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err == nil {
			break
		}
		if err == mongo.ErrNoDocuments {
			return models.Post{}, httperr.NotFound("Post not found")
		}
		if mongo.IsDuplicateKeyError(err) {
			// The slug index is the only unique one on posts. A
			// concurrent writer can take the candidate between the
			// existence check and this write; regenerate once.
			if _, hasSlug := set["slug"]; hasSlug && attempt == 0 {
				title, _ := set["title"].(string)
				newSlug, serr := slug.ForName(ctx, title, "post", slugTaken(s.posts, objID))
				if serr != nil {
					return models.Post{}, httperr.Storage("Error updating post", serr)
				}
				set["slug"] = newSlug
				continue
			}
			return models.Post{}, httperr.Conflict("A post with a similar title already exists")
		}
		return models.Post{}, httperr.Storage("Error updating post", err)
	}

	if cleanup != "" {
		s.cleaner.Enqueue(cleanup)
	}
	return updated, nil
}

// pendingCleanup returns the upload to remove once a replacement image
// is persisted; "" when the current image is the default sentinel, an
// external URL, or not being replaced at all.
func pendingCleanup(current models.Post, in PostUpdate) string {
	if in.FeaturedImage != nil && current.HasUploadedImage() {
		return current.FeaturedImage
	}
	return ""
}

// Delete removes the post and schedules best-effort removal of its
// uploaded image. A failed file removal never fails the delete.
func (s *PostService) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return httperr.Validation("Invalid post ID")
	}

	var post models.Post
	err = s.posts.FindOneAndDelete(ctx, bson.M{"_id": objID}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return httperr.NotFound("Post not found")
	}
	if err != nil {
		return httperr.Storage("Error deleting post", err)
	}

	if post.HasUploadedImage() {
		s.cleaner.Enqueue(post.FeaturedImage)
	}
	return nil
}

// AddComment appends a comment with a server-assigned timestamp. The
// append is a single-document $push.
func (s *PostService) AddComment(ctx context.Context, id string, author primitive.ObjectID, content string) (models.Post, error) {
	if strings.TrimSpace(content) == "" {
		return models.Post{}, httperr.Validation("Comment cannot be empty")
	}
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Post{}, httperr.Validation("Invalid post ID")
	}

	comment := models.Comment{
		User:      author,
		Content:   content,
		CreatedAt: time.Now(),
	}

	var updated models.Post
	err = s.posts.FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		bson.M{"$push": bson.M{"comments": comment}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return models.Post{}, httperr.NotFound("Post not found")
	}
	if err != nil {
		return models.Post{}, httperr.Storage("Error adding comment", err)
	}
	return updated, nil
}

// resolveRefs attaches author (name, email) and category (name, slug)
// details to posts, replacing what Mongoose populate did upstream. Two
// $in queries regardless of page size.
func (s *PostService) resolveRefs(ctx context.Context, posts []models.Post) ([]models.PostView, error) {
	authorIDs := make([]primitive.ObjectID, 0, len(posts))
	categoryIDs := make([]primitive.ObjectID, 0, len(posts))
	seenAuthors := map[primitive.ObjectID]bool{}
	seenCategories := map[primitive.ObjectID]bool{}
	for _, p := range posts {
		if !seenAuthors[p.Author] {
			seenAuthors[p.Author] = true
			authorIDs = append(authorIDs, p.Author)
		}
		if !seenCategories[p.Category] {
			seenCategories[p.Category] = true
			categoryIDs = append(categoryIDs, p.Category)
		}
	}

	authors := map[primitive.ObjectID]models.AuthorRef{}
	if len(authorIDs) > 0 {
		cursor, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": authorIDs}},
			options.Find().SetProjection(bson.M{"password": 0}))
		if err != nil {
			return nil, httperr.Storage("Error fetching posts", err)
		}
		var docs []models.User
		if err := cursor.All(ctx, &docs); err != nil {
			return nil, httperr.Storage("Error fetching posts", err)
		}
		for _, u := range docs {
			authors[u.ID] = models.AuthorRef{ID: u.ID, Name: u.Name, Email: u.Email}
		}
	}

	categories := map[primitive.ObjectID]models.CategoryRef{}
	if len(categoryIDs) > 0 {
		cursor, err := s.categories.Find(ctx, bson.M{"_id": bson.M{"$in": categoryIDs}})
		if err != nil {
			return nil, httperr.Storage("Error fetching posts", err)
		}
		var docs []models.Category
		if err := cursor.All(ctx, &docs); err != nil {
			return nil, httperr.Storage("Error fetching posts", err)
		}
		for _, c := range docs {
			categories[c.ID] = models.CategoryRef{ID: c.ID, Name: c.Name, Slug: c.Slug}
		}
	}

	views := make([]models.PostView, len(posts))
	for i, p := range posts {
		views[i] = models.PostView{Post: p}
		if ref, ok := authors[p.Author]; ok {
			views[i].AuthorInfo = &ref
		}
		if ref, ok := categories[p.Category]; ok {
			views[i].CategoryInfo = &ref
		}
	}
	return views, nil
}
