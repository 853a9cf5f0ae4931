package handlers

import (
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/rahulds/goblog/internal/httperr"
	"github.com/rahulds/goblog/internal/middleware"
	"github.com/rahulds/goblog/internal/services"
	"github.com/rahulds/goblog/internal/storage"
)

// featuredImageField is the multipart field carrying the upload.
const featuredImageField = "featuredImage"

type PostHandler struct {
	posts *services.PostService
	store storage.Store
}

func NewPostHandler(posts *services.PostService, store storage.Store) *PostHandler {
	return &PostHandler{posts: posts, store: store}
}

func (h *PostHandler) List(c *fiber.Ctx) error {
	opts := services.ListOptions{
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 10),
		Category: c.Query("category"),
		Author:   c.Query("author"),
	}
	posts, err := h.posts.List(c.Context(), opts)
	if err != nil {
		return err
	}
	return c.JSON(posts)
}

func (h *PostHandler) Get(c *fiber.Ctx) error {
	post, err := h.posts.GetBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return err
	}
	return c.JSON(post)
}

func (h *PostHandler) Create(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return httperr.Unauthorized()
	}

	in, err := h.parseCreate(c)
	if err != nil {
		return err
	}

	post, err := h.posts.Create(c.Context(), user.ID, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post": post})
}

// parseCreate builds the creation input. The featured-image path is
// derived only from an uploaded file; a path supplied in the request
// body is ignored, since it names server-side storage.
func (h *PostHandler) parseCreate(c *fiber.Ctx) (services.PostInput, error) {
	if isMultipart(c) {
		in := services.PostInput{
			Title:       c.FormValue("title"),
			Content:     c.FormValue("content"),
			Excerpt:     c.FormValue("excerpt"),
			Category:    c.FormValue("category"),
			Tags:        services.ParseTags([]string{c.FormValue("tags")}),
			IsPublished: parseBool(c.FormValue("isPublished")),
		}
		path, err := h.saveUpload(c)
		if err != nil {
			return services.PostInput{}, err
		}
		in.FeaturedImage = path
		return in, nil
	}

	var body struct {
		Title       string   `json:"title"`
		Content     string   `json:"content"`
		Excerpt     string   `json:"excerpt"`
		Category    string   `json:"category"`
		Tags        []string `json:"tags"`
		IsPublished bool     `json:"isPublished"`
	}
	if err := c.BodyParser(&body); err != nil {
		return services.PostInput{}, httperr.Validation("Invalid request body")
	}
	return services.PostInput{
		Title:       body.Title,
		Content:     body.Content,
		Excerpt:     body.Excerpt,
		Category:    body.Category,
		Tags:        services.ParseTags(body.Tags),
		IsPublished: body.IsPublished,
	}, nil
}

func (h *PostHandler) Update(c *fiber.Ctx) error {
	in, err := h.parseUpdate(c)
	if err != nil {
		return err
	}

	post, err := h.posts.Update(c.Context(), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"post": post})
}

// parseUpdate builds the partial-update input; absent fields stay nil.
// As with parseCreate, only an uploaded file can set the image path.
func (h *PostHandler) parseUpdate(c *fiber.Ctx) (services.PostUpdate, error) {
	var in services.PostUpdate
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return in, httperr.Validation("Invalid form data")
		}
		if v, ok := formValue(form, "title"); ok {
			in.Title = &v
		}
		if v, ok := formValue(form, "content"); ok {
			in.Content = &v
		}
		if v, ok := formValue(form, "excerpt"); ok {
			in.Excerpt = &v
		}
		if v, ok := formValue(form, "category"); ok {
			in.Category = &v
		}
		if v, ok := formValue(form, "tags"); ok {
			tags := services.ParseTags([]string{v})
			in.Tags = &tags
		}
		if v, ok := formValue(form, "isPublished"); ok {
			published := parseBool(v)
			in.IsPublished = &published
		}
		path, err := h.saveUpload(c)
		if err != nil {
			return in, err
		}
		if path != "" {
			in.FeaturedImage = &path
		}
		return in, nil
	}

	var body struct {
		Title       *string   `json:"title"`
		Content     *string   `json:"content"`
		Excerpt     *string   `json:"excerpt"`
		Category    *string   `json:"category"`
		Tags        *[]string `json:"tags"`
		IsPublished *bool     `json:"isPublished"`
	}
	if err := c.BodyParser(&body); err != nil {
		return in, httperr.Validation("Invalid request body")
	}
	in.Title = body.Title
	in.Content = body.Content
	in.Excerpt = body.Excerpt
	in.Category = body.Category
	in.IsPublished = body.IsPublished
	if body.Tags != nil {
		tags := services.ParseTags(*body.Tags)
		in.Tags = &tags
	}
	return in, nil
}

func (h *PostHandler) Delete(c *fiber.Ctx) error {
	if err := h.posts.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

func (h *PostHandler) AddComment(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return httperr.Unauthorized()
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&body); err != nil {
		return httperr.Validation("Invalid request body")
	}

	post, err := h.posts.AddComment(c.Context(), c.Params("id"), user.ID, body.Content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post": post})
}

// saveUpload stores the featured image from the request, if any.
// Returns "" when the field is absent.
func (h *PostHandler) saveUpload(c *fiber.Ctx) (string, error) {
	fileHeader, err := c.FormFile(featuredImageField)
	if err != nil {
		return "", nil
	}
	f, err := fileHeader.Open()
	if err != nil {
		return "", httperr.Validation("Failed to read uploaded file")
	}
	defer f.Close()
	return h.store.Save(c.Context(), fileHeader.Filename, f, fileHeader.Size,
		fileHeader.Header.Get(fiber.HeaderContentType))
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

func formValue(form *multipart.Form, key string) (string, bool) {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func parseBool(raw string) bool {
	return raw == "true" || raw == "1"
}
