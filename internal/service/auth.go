package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/inscripciones/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles login, session tokens and account provisioning.
type AuthService struct {
	users      domain.UserRepository
	jwtSecret  []byte
	bcryptCost int
	sessionTTL time.Duration
	dummyHash  []byte
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, jwtSecret string, bcryptCost int, sessionTTL time.Duration) *AuthService {
	// Compared against when the email is unknown so both paths cost one bcrypt.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcryptCost)
	return &AuthService{
		users:      users,
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
		sessionTTL: sessionTTL,
		dummyHash:  dummy,
	}
}

// NewUser describes an account to provision.
type NewUser struct {
	Name         string
	Email        string
	Password     string
	IsAdmin      bool
	DisciplineID *int64
}

// CreateUser validates and stores a new account with a bcrypt password hash.
// Admins never carry a discipline.
func (s *AuthService) CreateUser(ctx context.Context, in NewUser) (*domain.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Name == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name, email, and password are required", domain.ErrInvalidInput)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidInput)
	}
	if in.IsAdmin {
		in.DisciplineID = nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		IsAdmin:      in.IsAdmin,
		DisciplineID: in.DisciplineID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account unless the email is
// already registered. It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("get admin: %w", err)
	}

	_, err = s.CreateUser(ctx, NewUser{
		Name:     "Administrador",
		Email:    email,
		Password: password,
		IsAdmin:  true,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Login verifies credentials and returns the user with a signed session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.Login")
	defer span.End()

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, "", domain.ErrUnauthorized
		}
		span.RecordError(err)
		return nil, "", fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrUnauthorized
	}

	token, err := s.IssueSession(user)
	if err != nil {
		span.RecordError(err)
		return nil, "", fmt.Errorf("issue session: %w", err)
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	return user, token, nil
}

// IssueSession signs a session token for user. The user object is carried
// in the claims for clients; the server only trusts the subject.
func (s *AuthService) IssueSession(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(user.ID, 10),
		"user": map[string]any{
			"id":            user.ID,
			"nombre":        user.Name,
			"email":         user.Email,
			"es_admin":      user.IsAdmin,
			"disciplina_id": user.DisciplineID,
		},
		"iat": now.Unix(),
		"exp": now.Add(s.sessionTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateSession parses and validates a session token and returns the user
// ID from the sub claim.
func (s *AuthService) ValidateSession(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return 0, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, domain.ErrUnauthorized
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, domain.ErrUnauthorized
	}

	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, domain.ErrUnauthorized
	}

	return userID, nil
}

// GetUserByID retrieves a user by their ID.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}
