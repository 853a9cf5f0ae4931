// Package slug turns display names into unique URL-safe identifiers.
//
// Generation is an explicit pre-persist step: the caller runs it before
// writing a record and persists the result atomically with the rest of
// the document. The only side effect is the read-only existence check
// supplied by the caller, so the check-then-insert window remains; the
// unique index on the slug field is the backstop, and callers retry once
// on a duplicate-key error.
package slug

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// maxBaseLen caps the normalized base so slugs stay usable in URLs.
const maxBaseLen = 120

// maxAttempts bounds collision resolution before falling back to a
// timestamp suffix, which guarantees termination under adversarial
// concurrent inserts of the same name.
const maxAttempts = 50

// ExistsFunc reports whether a slug is already taken. When resolving a
// slug for an update, the implementation must exclude the record being
// updated from the check.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Make normalizes a display name into a slug base: lowercase, strip
// everything that is not alphanumeric, underscore or space, collapse
// space runs into single hyphens. Deterministic; may return "" for
// degenerate input (all punctuation), which Unique handles.
func Make(name string) string {
	name = strings.ToLower(name)
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == ' ':
			b.WriteRune(r)
		}
	}
	base := strings.Join(strings.Fields(b.String()), "-")
	if len(base) > maxBaseLen {
		base = base[:maxBaseLen]
	}
	return base
}

// Unique resolves a normalized base against the existing slugs. If the
// base is free it is returned as-is. On collision a random numeric token
// plus attempt counter is appended and the check retried, up to
// maxAttempts; after that a timestamp suffix is appended unconditionally.
// A degenerate empty base yields "<fallback>-<timestamp>".
func Unique(ctx context.Context, base, fallback string, exists ExistsFunc) (string, error) {
	if base == "" {
		return fmt.Sprintf("%s-%d", fallback, time.Now().Unix()), nil
	}

	candidate := base
	for attempt := 1; ; attempt++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("slug existence check: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		if attempt > maxAttempts {
			return fmt.Sprintf("%s-%d", base, time.Now().Unix()), nil
		}
		candidate = fmt.Sprintf("%s-%d-%d", base, rand.Intn(10000), attempt)
	}
}

// ForName is the common Make+Unique path.
func ForName(ctx context.Context, name, fallback string, exists ExistsFunc) (string, error) {
	return Unique(ctx, Make(name), fallback, exists)
}
