// services/avatar.go
package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"

	"skillsprint/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxAvatarBytes caps avatar uploads at 2 MiB.
const MaxAvatarBytes = 2 << 20

// ObjectStore saves a blob under key and returns the URL it is served from.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

type AvatarService struct {
	DB    *gorm.DB
	Store ObjectStore
}

func NewAvatarService(db *gorm.DB, store ObjectStore) *AvatarService {
	return &AvatarService{DB: db, Store: store}
}

// Upload stores the image and points the user's avatar_url at it.
func (s *AvatarService) Upload(ctx context.Context, userID string, fh *multipart.FileHeader) (string, error) {
	if userID == "" || fh == nil {
		return "", ErrMissingFields
	}
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") || fh.Size <= 0 || fh.Size > MaxAvatarBytes {
		return "", ErrInvalidFile
	}
	if err := mustExist(s.DB.WithContext(ctx), &models.User{}, userID, ErrUserNotFound); err != nil {
		return "", err
	}

	file, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	key := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.NewString(), ext)
	url, err := s.Store.Put(ctx, key, contentType, io.LimitReader(file, MaxAvatarBytes), fh.Size)
	if err != nil {
		return "", storageFailure("store avatar", err)
	}

	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("avatar_url", url).Error; err != nil {
		return "", storageFailure("save avatar url", err)
	}
	log.Printf("🖼️ [AVATAR] %s → %s", userID, url)
	return url, nil
}
