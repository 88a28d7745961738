// services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"skillsprint/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gosimple/unidecode"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Claims is the bearer token payload. Subject is the user id.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type AuthService struct {
	DB     *gorm.DB
	Secret []byte
	TTL    time.Duration
}

func NewAuthService(db *gorm.DB, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &AuthService{DB: db, Secret: []byte(secret), TTL: ttl}
}

// UsernameKey folds a username to the form uniqueness is checked on.
func UsernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(unidecode.Unidecode(strings.TrimSpace(username))))
}

func defaultAvatar(username string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + url.QueryEscape(username)
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account at level 1 and returns it with a fresh token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, "", ErrMissingFields
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, "", fmt.Errorf("%w: invalid email", ErrMissingFields)
	}
	key := UsernameKey(in.Username)

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username:       in.Username,
		UsernameKey:    key,
		Email:          in.Email,
		PasswordHash:   string(hash),
		AvatarURL:      defaultAvatar(in.Username),
		Level:          models.StartingLevel,
		XPForNextLevel: models.StartingXPForNextLevel,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username_key = ?", key).Count(&count).Error; err != nil {
			return storageFailure("check username", err)
		}
		if count > 0 {
			return ErrUsernameTaken
		}
		if err := tx.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
			return storageFailure("check email", err)
		}
		if count > 0 {
			return ErrEmailTaken
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrUsernameTaken
			}
			return storageFailure("create user", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", txError("register", err)
	}

	token, err := s.IssueToken(&user)
	if err != nil {
		return nil, "", err
	}
	log.Printf("👤 [AUTH] registered %s (%s)", user.Username, user.ID)
	return &user, token, nil
}

// Login accepts either the email or the username as identifier.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*models.User, string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, "", ErrMissingFields
	}
	var user models.User
	err := s.DB.WithContext(ctx).
		Where("email = ? OR username_key = ?", strings.ToLower(identifier), UsernameKey(identifier)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", storageFailure("load user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		log.Printf("🚫 [AUTH] bad password for %s", user.ID)
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.IssueToken(&user)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageFailure("load user", err)
	}
	return &user, nil
}

func (s *AuthService) IssueToken(u *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates an HS256 token and returns its claims.
func (s *AuthService) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}
