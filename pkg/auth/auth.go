// Package auth optionally protects the panel's mutating endpoints with a
// shared operator password exchanged for a short lived bearer token. When
// disabled in configuration every request passes through untouched.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/benchdeck/benchdeck/pkg/config"
)

// BcryptCost is the cost factor used when hashing new passwords.
const BcryptCost = 12

// LoginPath is the one mutating route the middleware never guards; it is
// how clients obtain tokens in the first place.
const LoginPath = "/api/session"

// ErrBadPassword is returned on login with a wrong password.
var ErrBadPassword = errors.New("invalid password")

// Service validates the operator password and manages session tokens.
type Service struct {
	enabled      bool
	passwordHash []byte
	jwt          *JWTManager
}

// NewService builds the service from configuration. With auth disabled the
// service accepts everything and issues nothing.
func NewService(cfg config.AuthConfig) (*Service, error) {
	if !cfg.Enabled {
		return &Service{}, nil
	}

	jwtMgr, err := NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	return &Service{
		enabled:      true,
		passwordHash: []byte(cfg.PasswordHash),
		jwt:          jwtMgr,
	}, nil
}

// Enabled reports whether authentication is enforced.
func (s *Service) Enabled() bool { return s.enabled }

// Login checks the password and returns a session token.
func (s *Service) Login(password string) (*Session, error) {
	if !s.enabled {
		return nil, errors.New("authentication is disabled")
	}

	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return nil, ErrBadPassword
	}

	token, expiresAt, err := s.jwt.GenerateToken()
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}

// Session is a successful login response.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HashPassword hashes a plaintext password for the configuration file.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Middleware rejects requests without a valid bearer token. Safe methods
// (GET, HEAD, OPTIONS) always pass; the panel is readable without login.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.enabled || safeMethod(r.Method) || r.URL.Path == LoginPath {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			http.Error(w, "authorization required", http.StatusUnauthorized)
			return
		}
		if _, err := s.jwt.ValidateToken(r.Context(), token); err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
