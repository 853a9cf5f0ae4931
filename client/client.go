// Package client is a Go client for the blog API: an explicit session
// object, request plumbing with bearer auth, and an optimistic post
// list for UIs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Post is the client-side view of a post.
type Post struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt"`
	FeaturedImage string   `json:"featuredImage"`
	Slug          string   `json:"slug"`
	Tags          []string `json:"tags"`
	IsPublished   bool     `json:"isPublished"`
	ViewCount     int64    `json:"viewCount"`
}

// Category mirrors the server's category document.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// APIError is a non-2xx response decoded from the server's
// {message, error?} body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Client talks to the blog API. The session is injected; its token, if
// present, is attached to every request.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
}

func New(baseURL string, session *Session) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		session: session,
	}
}

// Session returns the injected session.
func (c *Client) Session() *Session { return c.session }

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.session != nil && c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
		var errBody struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&errBody) == nil && errBody.Message != "" {
			apiErr.Message = errBody.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type authResponse struct {
	User  *SessionUser `json:"user"`
	Token string       `json:"token"`
}

// Register creates an account and saves the resulting session.
func (c *Client) Register(ctx context.Context, name, email, password string) (*SessionUser, error) {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/api/users/register",
		map[string]string{"name": name, "email": email, "password": password}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.User, c.adopt(resp)
}

// Login authenticates and saves the resulting session.
func (c *Client) Login(ctx context.Context, email, password string) (*SessionUser, error) {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/api/users/login",
		map[string]string{"email": email, "password": password}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.User, c.adopt(resp)
}

func (c *Client) adopt(resp authResponse) error {
	c.session.Token = resp.Token
	c.session.User = resp.User
	return c.session.Save()
}

// Logout clears the session.
func (c *Client) Logout() error {
	return c.session.Clear()
}

// Profile fetches the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*SessionUser, error) {
	var user SessionUser
	if err := c.do(ctx, http.MethodGet, "/api/users/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListPosts fetches a page of posts, optionally filtered by category ID.
func (c *Client) ListPosts(ctx context.Context, page, limit int, category string) ([]Post, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if category != "" {
		q.Set("category", category)
	}
	var posts []Post
	err := c.do(ctx, http.MethodGet, "/api/posts/?"+q.Encode(), nil, &posts)
	return posts, err
}

// GetPost fetches a single post by slug or ID. The server counts this
// fetch as a view.
func (c *Client) GetPost(ctx context.Context, slugOrID string) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodGet, "/api/posts/"+url.PathEscape(slugOrID), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// PostDraft is the JSON create/update payload. IsPublished is a pointer
// so an explicit false reaches the server's partial-update semantics
// instead of being dropped as a zero value.
type PostDraft struct {
	Title       string   `json:"title,omitempty"`
	Content     string   `json:"content,omitempty"`
	Excerpt     string   `json:"excerpt,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	IsPublished *bool    `json:"isPublished,omitempty"`
}

type postEnvelope struct {
	Post Post `json:"post"`
}

// CreatePost creates a post (authenticated).
func (c *Client) CreatePost(ctx context.Context, draft PostDraft) (*Post, error) {
	var env postEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/posts/", draft, &env); err != nil {
		return nil, err
	}
	return &env.Post, nil
}

// UpdatePost partially updates a post (authenticated).
func (c *Client) UpdatePost(ctx context.Context, id string, draft PostDraft) (*Post, error) {
	var env postEnvelope
	if err := c.do(ctx, http.MethodPut, "/api/posts/"+url.PathEscape(id), draft, &env); err != nil {
		return nil, err
	}
	return &env.Post, nil
}

// DeletePost deletes a post (authenticated).
func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/posts/"+url.PathEscape(id), nil, nil)
}

// AddComment appends a comment to a post (authenticated).
func (c *Client) AddComment(ctx context.Context, postID, content string) (*Post, error) {
	var env postEnvelope
	err := c.do(ctx, http.MethodPost, "/api/posts/"+url.PathEscape(postID)+"/comments",
		map[string]string{"content": content}, &env)
	if err != nil {
		return nil, err
	}
	return &env.Post, nil
}

// ListCategories fetches all categories.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	err := c.do(ctx, http.MethodGet, "/api/categories/", nil, &categories)
	return categories, err
}

// CreateCategory creates a category (authenticated).
func (c *Client) CreateCategory(ctx context.Context, name, description string) (*Category, error) {
	var category Category
	err := c.do(ctx, http.MethodPost, "/api/categories/",
		map[string]string{"name": name, "description": description}, &category)
	if err != nil {
		return nil, err
	}
	return &category, nil
}
