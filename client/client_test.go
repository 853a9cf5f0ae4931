package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := LoadSession(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLoginSavesSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/login" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user":  map[string]string{"id": "u1", "name": "Ada", "email": "ada@example.com"},
			"token": "signed-token",
		})
	}))
	defer server.Close()

	session := newTestSession(t)
	c := New(server.URL, session)

	user, err := c.Login(context.Background(), "ada@example.com", "hunter22")
	if err != nil {
		t.Fatal(err)
	}
	if user.Name != "Ada" {
		t.Errorf("user = %+v", user)
	}
	if !session.Authenticated() {
		t.Fatal("session not authenticated after login")
	}

	// A fresh load from the same path must see the persisted state.
	reloaded, err := LoadSession(session.path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Token != "signed-token" || reloaded.User == nil || reloaded.User.ID != "u1" {
		t.Errorf("reloaded session = %+v", reloaded)
	}
}

func TestBearerHeaderAttachedWhenAuthenticated(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]Post{})
	}))
	defer server.Close()

	session := newTestSession(t)
	session.Token = "tok123"
	c := New(server.URL, session)

	if _, err := c.ListPosts(context.Background(), 1, 10, ""); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestNoBearerHeaderWhenAnonymous(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]Post{})
	}))
	defer server.Close()

	c := New(server.URL, newTestSession(t))
	if _, err := c.ListPosts(context.Background(), 1, 10, ""); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "" {
		t.Errorf("anonymous request sent Authorization = %q", gotAuth)
	}
}

func TestAPIErrorDecodesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "Post not found"})
	}))
	defer server.Close()

	c := New(server.URL, newTestSession(t))
	err := c.DeletePost(context.Background(), "missing")

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("err = %T %v, want *APIError", err, err)
	}
	if apiErr.Status != 404 || apiErr.Message != "Post not found" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestUpdatePostSendsExplicitUnpublish(t *testing.T) {
	var gotBody map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"post": map[string]string{}})
	}))
	defer server.Close()

	c := New(server.URL, newTestSession(t))
	unpublish := false
	if _, err := c.UpdatePost(context.Background(), "p1", PostDraft{IsPublished: &unpublish}); err != nil {
		t.Fatal(err)
	}

	raw, ok := gotBody["isPublished"]
	if !ok {
		t.Fatal("isPublished missing from request body; an explicit false must reach the server")
	}
	if string(raw) != "false" {
		t.Errorf("isPublished = %s, want false", raw)
	}
}

func TestUpdatePostOmitsUnsetPublishFlag(t *testing.T) {
	var gotBody map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"post": map[string]string{}})
	}))
	defer server.Close()

	c := New(server.URL, newTestSession(t))
	if _, err := c.UpdatePost(context.Background(), "p1", PostDraft{Title: "Only title"}); err != nil {
		t.Fatal(err)
	}

	if _, ok := gotBody["isPublished"]; ok {
		t.Error("isPublished sent for a draft that never set it")
	}
}

func TestLogoutClearsSessionFile(t *testing.T) {
	session := newTestSession(t)
	session.Token = "tok"
	session.User = &SessionUser{ID: "u1"}
	if err := session.Save(); err != nil {
		t.Fatal(err)
	}

	c := New("http://unused", session)
	if err := c.Logout(); err != nil {
		t.Fatal(err)
	}
	if session.Authenticated() {
		t.Error("session still authenticated after logout")
	}

	reloaded, err := LoadSession(session.path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Authenticated() {
		t.Error("session file survived Clear")
	}
}
