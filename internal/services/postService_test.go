package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rahulds/goblog/internal/httperr"
	"github.com/rahulds/goblog/internal/models"
)

func asHTTPErr(err error, target **httperr.Error) bool {
	return errors.As(err, target)
}

func TestParseTags(t *testing.T) {
	cases := []struct {
		in   []string
		want []string
	}{
		{nil, []string{}},
		{[]string{"go, web , blog"}, []string{"go", "web", "blog"}},
		{[]string{"go", "web"}, []string{"go", "web"}},
		{[]string{" , ,"}, []string{}},
		{[]string{"a,b", "c"}, []string{"a", "b", "c"}},
	}
	for _, c := range cases {
		if got := ParseTags(c.in); !reflect.DeepEqual(got, c.want) {
			t.Errorf("ParseTags(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestCreatePostRequiredFields(t *testing.T) {
	svc := NewPostService(nil, nil, nil, nil)
	author := primitive.NewObjectID()

	cases := []struct {
		name string
		in   PostInput
	}{
		{"missing title", PostInput{Content: "body", Category: primitive.NewObjectID().Hex()}},
		{"missing category", PostInput{Title: "t", Content: "body"}},
		{"missing content", PostInput{Title: "t", Category: primitive.NewObjectID().Hex()}},
		{"bad category id", PostInput{Title: "t", Content: "body", Category: "nope"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), author, c.in)
			var appErr *httperr.Error
			if !asHTTPErr(err, &appErr) || appErr.Status != 400 {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}
}

func TestAddCommentRejectsEmptyBody(t *testing.T) {
	svc := NewPostService(nil, nil, nil, nil)
	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := svc.AddComment(context.Background(), primitive.NewObjectID().Hex(),
			primitive.NewObjectID(), content)
		var appErr *httperr.Error
		if !asHTTPErr(err, &appErr) || appErr.Status != 400 {
			t.Errorf("AddComment(%q) err = %v, want validation error", content, err)
		}
	}
}

func TestPendingCleanup(t *testing.T) {
	replacement := "posts/new.png"
	cases := []struct {
		name    string
		current string
		update  PostUpdate
		want    string
	}{
		{"replacing an uploaded image", "posts/old.png", PostUpdate{FeaturedImage: &replacement}, "posts/old.png"},
		{"replacing the default image", models.DefaultFeaturedImage, PostUpdate{FeaturedImage: &replacement}, ""},
		{"replacing an external url", "http://cdn.example.com/x.png", PostUpdate{FeaturedImage: &replacement}, ""},
		{"no image in the update", "posts/old.png", PostUpdate{}, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			post := models.Post{FeaturedImage: c.current}
			if got := pendingCleanup(post, c.update); got != c.want {
				t.Errorf("pendingCleanup = %q, want %q", got, c.want)
			}
		})
	}
}

func TestInvalidObjectIDsAreClientErrors(t *testing.T) {
	svc := NewPostService(nil, nil, nil, nil)

	if err := svc.Delete(context.Background(), "not-hex"); err == nil {
		t.Error("Delete accepted a malformed ID")
	}
	if _, err := svc.Update(context.Background(), "not-hex", PostUpdate{}); err == nil {
		t.Error("Update accepted a malformed ID")
	}
	if _, err := svc.List(context.Background(), ListOptions{Category: "not-hex"}); err == nil {
		t.Error("List accepted a malformed category filter")
	}
}
