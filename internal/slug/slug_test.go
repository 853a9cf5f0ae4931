package slug

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
)

func noneExist(context.Context, string) (bool, error) { return false, nil }

func TestMake(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"Entertainment", "entertainment"},
		{"  Leading and   trailing  ", "leading-and-trailing"},
		{"C++ & Go: a comparison!", "c-go-a-comparison"},
		{"snake_case title", "snake_case-title"},
		{"ALL CAPS", "all-caps"},
		{"1234", "1234"},
		{"!!!???", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := Make(c.in); got != c.want {
			t.Errorf("Make(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMakeDeterministic(t *testing.T) {
	in := "Some Title, with Punctuation!"
	first := Make(in)
	for i := 0; i < 10; i++ {
		if got := Make(in); got != first {
			t.Fatalf("Make not deterministic: %q then %q", first, got)
		}
	}
}

func TestMakeCapsLength(t *testing.T) {
	long := strings.Repeat("a", 500)
	if got := Make(long); len(got) != maxBaseLen {
		t.Errorf("len(Make(long)) = %d, want %d", len(got), maxBaseLen)
	}
}

func TestUniqueNoCollision(t *testing.T) {
	got, err := Unique(context.Background(), "my-post", "post", noneExist)
	if err != nil {
		t.Fatal(err)
	}
	if got != "my-post" {
		t.Errorf("Unique = %q, want base unchanged", got)
	}
}

var slugCharset = regexp.MustCompile(`^[a-z0-9_-]+$`)

func TestUniqueCollisionAppendsSuffix(t *testing.T) {
	taken := map[string]bool{"my-post": true}
	exists := func(_ context.Context, s string) (bool, error) { return taken[s], nil }

	got, err := Unique(context.Background(), "my-post", "post", exists)
	if err != nil {
		t.Fatal(err)
	}
	if got == "my-post" {
		t.Fatal("expected a disambiguated slug on collision")
	}
	if !strings.HasPrefix(got, "my-post-") {
		t.Errorf("disambiguated slug %q does not extend the base", got)
	}
	if !slugCharset.MatchString(got) {
		t.Errorf("slug %q contains characters outside the allowed set", got)
	}
}

func TestUniqueTerminatesWhenEverythingTaken(t *testing.T) {
	calls := 0
	allTaken := func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	}

	got, err := Unique(context.Background(), "busy", "post", allTaken)
	if err != nil {
		t.Fatal(err)
	}
	if got == "" {
		t.Fatal("expected a non-empty fallback slug")
	}
	if !strings.HasPrefix(got, "busy-") {
		t.Errorf("fallback slug %q does not extend the base", got)
	}
	if calls > maxAttempts+1 {
		t.Errorf("existence check called %d times, retry ceiling is %d", calls, maxAttempts)
	}
}

func TestUniqueDegenerateBase(t *testing.T) {
	got, err := Unique(context.Background(), "", "category", noneExist)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "category-") {
		t.Errorf("degenerate base produced %q, want category-<timestamp>", got)
	}
	if !slugCharset.MatchString(got) {
		t.Errorf("slug %q contains characters outside the allowed set", got)
	}
}

func TestUniquePropagatesLookupError(t *testing.T) {
	boom := errors.New("connection reset")
	failing := func(context.Context, string) (bool, error) { return false, boom }

	_, err := Unique(context.Background(), "anything", "post", failing)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped lookup error", err)
	}
}

func TestForName(t *testing.T) {
	got, err := ForName(context.Background(), "Entertainment Weekly!", "category", noneExist)
	if err != nil {
		t.Fatal(err)
	}
	if got != "entertainment-weekly" {
		t.Errorf("ForName = %q", got)
	}
}

func TestForNameCollisionsProduceDistinctSlugs(t *testing.T) {
	taken := map[string]bool{}
	exists := func(_ context.Context, s string) (bool, error) { return taken[s], nil }

	first, err := ForName(context.Background(), "Entertainment", "category", exists)
	if err != nil {
		t.Fatal(err)
	}
	taken[first] = true

	second, err := ForName(context.Background(), "Entertainment", "category", exists)
	if err != nil {
		t.Fatal(err)
	}
	if first == "" || second == "" {
		t.Fatal("slugs must be non-empty")
	}
	if first == second {
		t.Errorf("colliding names produced identical slugs %q", first)
	}
}
