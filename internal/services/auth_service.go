package services

import (
	"errors"
	"fmt"
	"time"

	"catalogo/internal/models"
	"catalogo/internal/repositories"
	"catalogo/pkg/logger"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// AuthService issues and validates JWT tokens for catalog users.
type AuthService struct {
	users     repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	log       *logger.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repositories.UserRepository, jwtSecret string, log *logger.Logger) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  24 * time.Hour,
		log:       log,
	}
}

// RegisterUser hashes the password and persists a new user. A taken username
// or an already registered email is reported as ErrAlreadyExists.
func (s *AuthService) RegisterUser(user *models.User) error {
	if _, err := s.users.GetByUsername(user.Username); err == nil {
		return fmt.Errorf("username %q is already taken: %w", user.Username, models.ErrAlreadyExists)
	} else if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check username %s: %w", user.Username, err)
	}
	if _, err := s.users.GetByEmail(user.Email); err == nil {
		return fmt.Errorf("email %q is already registered: %w", user.Email, models.ErrAlreadyExists)
	} else if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check email %s: %w", user.Email, err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashed)

	if err := s.users.Create(user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}

	s.log.Info().Str("username", user.Username).Msg("user registered")
	return nil
}

// LoginUser checks the credentials and returns a signed JWT. Unknown usernames
// and wrong passwords both come back as ErrInvalidCredentials.
func (s *AuthService) LoginUser(username, password string) (string, error) {
	user, err := s.users.GetByUsername(username)
	if err != nil {
		return "", models.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", models.ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      now.Add(s.tokenTTL).Unix(),
		"iat":      now.Unix(),
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a JWT and returns its claims when the signature and
// expiry check out.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		s.log.Debug().Err(err).Msg("token validation failed")
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
