package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rahulds/goblog/internal/httperr"
	"github.com/rahulds/goblog/internal/models"
)

const userKey = "user"

// Protect gates a route behind a bearer token. The token is verified
// against the signing secret and its expiry, the subject is resolved to
// a user (password hash projected out) and stored in the request
// context. Every failure mode returns the same generic 401 and never
// reaches the next handler.
func Protect(secret string, users *mongo.Collection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return httperr.Unauthorized()
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == "" {
			return httperr.Unauthorized()
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return httperr.Unauthorized()
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return httperr.Unauthorized()
		}
		id, ok := claims["id"].(string)
		if !ok {
			return httperr.Unauthorized()
		}
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return httperr.Unauthorized()
		}

		var user models.User
		err = users.FindOne(c.Context(), bson.M{"_id": objID},
			options.FindOne().SetProjection(bson.M{"password": 0})).Decode(&user)
		if err != nil {
			return httperr.Unauthorized()
		}

		c.Locals(userKey, user)
		return c.Next()
	}
}

// CurrentUser returns the identity Protect attached to the request.
func CurrentUser(c *fiber.Ctx) (models.User, bool) {
	user, ok := c.Locals(userKey).(models.User)
	return user, ok
}
