package client

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type fakeDeleter struct {
	err     error
	deleted []string
}

func (f *fakeDeleter) DeletePost(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func samplePosts() []Post {
	return []Post{
		{ID: "1", Title: "first"},
		{ID: "2", Title: "second"},
		{ID: "3", Title: "third"},
	}
}

func TestDeleteOptimisticSuccess(t *testing.T) {
	api := &fakeDeleter{}
	list := NewPostList(api)
	list.Replace(samplePosts())

	if err := list.Delete(context.Background(), "2"); err != nil {
		t.Fatal(err)
	}

	want := []Post{{ID: "1", Title: "first"}, {ID: "3", Title: "third"}}
	if got := list.Posts(); !reflect.DeepEqual(got, want) {
		t.Errorf("posts = %v, want %v", got, want)
	}
	if len(api.deleted) != 1 || api.deleted[0] != "2" {
		t.Errorf("server calls = %v", api.deleted)
	}
}

func TestDeleteRollbackRestoresExactOrder(t *testing.T) {
	api := &fakeDeleter{err: errors.New("network down")}
	list := NewPostList(api)
	before := samplePosts()
	list.Replace(before)

	err := list.Delete(context.Background(), "2")
	if err == nil {
		t.Fatal("expected the server error to surface")
	}

	if got := list.Posts(); !reflect.DeepEqual(got, before) {
		t.Errorf("after rollback posts = %v, want exact pre-delete contents %v", got, before)
	}
}

func TestDeleteUnknownIDStillCallsServer(t *testing.T) {
	api := &fakeDeleter{}
	list := NewPostList(api)
	list.Replace(samplePosts())

	if err := list.Delete(context.Background(), "nope"); err != nil {
		t.Fatal(err)
	}
	if list.Len() != 3 {
		t.Errorf("list length changed for unknown ID: %d", list.Len())
	}
}

func TestReplaceCopiesInput(t *testing.T) {
	list := NewPostList(&fakeDeleter{})
	input := samplePosts()
	list.Replace(input)

	input[0].Title = "mutated"
	if list.Posts()[0].Title != "first" {
		t.Error("Replace aliased the caller's slice")
	}
}
