package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/rahulds/goblog/internal/httperr"
	"github.com/rahulds/goblog/internal/models"
)

// tokenTTL is how long an issued credential stays valid. There is no
// server-side session state, so revocation before expiry is not
// supported.
const tokenTTL = 7 * 24 * time.Hour

type AuthService struct {
	users    *mongo.Collection
	secret   string
	validate *validator.Validate
}

func NewAuthService(users *mongo.Collection, secret string) *AuthService {
	return &AuthService{
		users:    users,
		secret:   secret,
		validate: validator.New(),
	}
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// VerifyPassword compares a plain password with a hashed password
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken signs a credential embedding the user ID and expiry.
func (s *AuthService) GenerateToken(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"id":  user.ID.Hex(),
		"exp": time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// Register creates a user and returns it with a fresh token. Emails are
// stored lowercased so uniqueness is case-insensitive.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.User, string, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return models.User{}, "", httperr.Validation("Name, email and password (min 6 characters) are required")
	}

	err := s.users.FindOne(ctx, bson.M{"email": in.Email}).Err()
	if err == nil {
		return models.User{}, "", httperr.Conflict("User already exists")
	}
	if err != mongo.ErrNoDocuments {
		return models.User{}, "", httperr.Storage("Error registering user", err)
	}

	hashed, err := HashPassword(in.Password)
	if err != nil {
		return models.User{}, "", httperr.Storage("Error registering user", err)
	}

	now := time.Now()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Name:      in.Name,
		Email:     in.Email,
		Password:  hashed,
		Role:      "user",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		// Unique index on email closes the check-then-insert window.
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, "", httperr.Conflict("User already exists")
		}
		return models.User{}, "", httperr.Storage("Error registering user", err)
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return models.User{}, "", httperr.Storage("Error registering user", err)
	}
	user.Password = ""
	return user, token, nil
}

// Login verifies credentials and issues a token. Unknown email and bad
// password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return models.User{}, "", httperr.InvalidCredentials()
	}
	if err != nil {
		return models.User{}, "", httperr.Storage("Error logging in", err)
	}

	if !VerifyPassword(password, user.Password) {
		return models.User{}, "", httperr.InvalidCredentials()
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return models.User{}, "", httperr.Storage("Error logging in", err)
	}
	user.Password = ""
	return user, token, nil
}

// Profile loads a user without the password hash.
func (s *AuthService) Profile(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"password": 0})).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return models.User{}, httperr.NotFound("User not found")
	}
	if err != nil {
		return models.User{}, httperr.Storage("Error fetching profile", err)
	}
	return user, nil
}
