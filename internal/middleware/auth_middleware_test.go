package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/rahulds/goblog/internal/httperr"
)

const testSecret = "test-secret"

// newProtectedApp builds an app whose /private route is behind Protect.
// The users collection is nil: every case below must be rejected before
// subject resolution is attempted.
func newProtectedApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: httperr.Handler})
	app.Get("/private", Protect(testSecret, nil), func(c *fiber.Ctx) error {
		return c.SendString("reached handler")
	})
	return app
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func TestProtectRejectionsAreIndistinguishable(t *testing.T) {
	expired := signToken(t, testSecret, jwt.MapClaims{
		"id":  "64f000000000000000000001",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := signToken(t, "some-other-secret", jwt.MapClaims{
		"id":  "64f000000000000000000001",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	noSubject := signToken(t, testSecret, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	badSubject := signToken(t, testSecret, jwt.MapClaims{
		"id":  "not-an-object-id",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
		{"expired token", "Bearer " + expired},
		{"wrong signature", "Bearer " + wrongKey},
		{"missing subject claim", "Bearer " + noSubject},
		{"malformed subject", "Bearer " + badSubject},
	}

	app := newProtectedApp()
	var firstBody string
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/private", nil)
			if c.header != "" {
				req.Header.Set("Authorization", c.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != fiber.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", resp.StatusCode)
			}
			raw, _ := io.ReadAll(resp.Body)
			if firstBody == "" {
				firstBody = string(raw)
				return
			}
			if string(raw) != firstBody {
				t.Errorf("rejection body %q differs from %q; failure modes must be indistinguishable",
					raw, firstBody)
			}
		})
	}
}

func TestProtectNeverInvokesDownstreamOnFailure(t *testing.T) {
	reached := false
	app := fiber.New(fiber.Config{ErrorHandler: httperr.Handler})
	app.Get("/private", Protect(testSecret, nil), func(c *fiber.Ctx) error {
		reached = true
		return nil
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/private", nil))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if reached {
		t.Error("downstream handler ran despite auth failure")
	}
}

func TestCurrentUserMissing(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		if _, ok := CurrentUser(c); ok {
			t.Error("CurrentUser reported an identity on an unauthenticated request")
		}
		return nil
	})
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
}
