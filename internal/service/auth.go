package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"docvault/internal/catalog"
	"docvault/internal/logger"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidInput       = errors.New("username, email and password are required")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

const minPasswordLength = 6

var validate = validator.New()

// AuthService registers accounts and issues opaque bearer tokens.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*catalog.User, error)
	// Login returns a new token for valid credentials.
	Login(ctx context.Context, email, password string) (string, error)
	// Authenticate resolves a token to its user id.
	Authenticate(token string) (string, error)
	Logout(token string)
}

type session struct {
	userID  string
	expires time.Time
}

type authService struct {
	users catalog.Users
	ttl   time.Duration
	cost  int
	log   *zap.Logger
	now   func() time.Time

	mu     sync.Mutex
	tokens map[string]session
}

// NewAuthService returns an AuthService whose tokens live for ttl.
func NewAuthService(users catalog.Users, ttl time.Duration, log *zap.Logger) AuthService {
	return &authService{
		users:  users,
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		log:    logger.OrNop(log).Named("auth"),
		now:    time.Now,
		tokens: make(map[string]session),
	}
}

func (s *authService) Register(ctx context.Context, username, email, password string) (*catalog.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, ErrInvalidInput
	}
	if err := validate.Var(email, "email"); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.CreateUser(ctx, &catalog.User{
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, catalog.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user registered", zap.String("user_id", u.ID))
	return u, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.FindUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = session{userID: u.ID, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return token, nil
}

func (s *authService) Authenticate(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.tokens[token]
	if !ok {
		return "", ErrInvalidToken
	}
	if !s.now().Before(sess.expires) {
		delete(s.tokens, token)
		return "", ErrInvalidToken
	}
	return sess.userID, nil
}

func (s *authService) Logout(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}
