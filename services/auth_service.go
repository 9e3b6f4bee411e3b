package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"yatube/forms"
	"yatube/models"
	"yatube/repositories"
)

// AuthService registers users, checks passwords and issues the signed
// session tokens kept in the session cookie.
type AuthService struct {
	users     repositories.UserStore
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewAuthService(users repositories.UserStore, jwtSecret string, ttl time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		now:       time.Now,
	}
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Register creates a user from a validated signup.
func (a *AuthService) Register(ctx context.Context, data *forms.SignupData) (*models.User, error) {
	hashed, err := HashPassword(data.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:  data.Username,
		Email:     data.Email,
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Password:  hashed,
	}
	if err := a.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user if the password matches.
func (a *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// IssueToken signs a session token for user.
func (a *AuthService) IssueToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"iat":      a.now().Unix(),
		"exp":      a.now().Add(a.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

// ParseToken verifies a session token and returns the user id it names.
func (a *AuthService) ParseToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		return 0, fmt.Errorf("parse session token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid session token")
	}
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, errors.New("session token has no user_id")
	}
	return uint(id), nil
}

// UserFromToken resolves a session token to its user.
func (a *AuthService) UserFromToken(ctx context.Context, tokenString string) (*models.User, error) {
	id, err := a.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := a.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("session user %d: %w", id, err)
	}
	return user, nil
}

// SessionTTL is how long an issued token stays valid.
func (a *AuthService) SessionTTL() time.Duration {
	return a.ttl
}
