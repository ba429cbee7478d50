// Package media issues presigned image uploads and keeps each user's storage
// quota in step with what is stored.
package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ObjectStorage is the object store holding uploaded images
type ObjectStorage interface {
	// GenerateUploadURL presigns a PUT of key with contentType
	GenerateUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error)
	DeleteObject(ctx context.Context, key string) error
	// ObjectSize returns the stored size of key in bytes
	ObjectSize(ctx context.Context, key string) (int64, error)
	// PublicURL is the URL clients use to read key
	PublicURL(key string) string
}

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Config bounds uploads
type Config struct {
	MaxUploadBytes int64
	PresignExpiry  time.Duration
}

// Service reserves quota and presigns uploads
type Service struct {
	storage ObjectStorage
	users   identity.UserRepository
	config  Config
	logger  *zap.Logger
}

// NewService creates a media service
func NewService(storage ObjectStorage, users identity.UserRepository, config Config, logger *zap.Logger) *Service {
	if config.PresignExpiry <= 0 {
		config.PresignExpiry = 15 * time.Minute
	}
	return &Service{storage: storage, users: users, config: config, logger: logger}
}

// UploadRequest describes a file the client wants to upload
type UploadRequest struct {
	ContentType string
	Size        int64
}

// Ticket is a presigned upload the client completes with a PUT
type Ticket struct {
	Key         string    `json:"key"`
	UploadURL   string    `json:"upload_url"`
	PublicURL   string    `json:"url"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Object is a stored file to release; a zero Size is looked up in storage
type Object struct {
	Key  string
	Size int64
}

// Reserve checks the file against plan quota, charges it to the user and
// presigns an upload under folder.
func (s *Service) Reserve(ctx context.Context, userID uuid.UUID, folder string, req UploadRequest) (*Ticket, error) {
	tickets, err := s.ReserveMany(ctx, userID, folder, []UploadRequest{req})
	if err != nil {
		return nil, err
	}
	return &tickets[0], nil
}

// ReserveMany reserves several uploads at once; either all or none are charged
func (s *Service) ReserveMany(ctx context.Context, userID uuid.UUID, folder string, reqs []UploadRequest) ([]Ticket, error) {
	if len(reqs) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Please upload at least one image")
	}
	var total int64
	for _, r := range reqs {
		if _, ok := allowedContentTypes[strings.ToLower(r.ContentType)]; !ok {
			return nil, shared.NewDomainError("INVALID_INPUT", "Only JPEG, PNG, WebP and GIF images are allowed")
		}
		if r.Size <= 0 {
			return nil, shared.NewDomainError("INVALID_INPUT", "Image size is required")
		}
		if s.config.MaxUploadBytes > 0 && r.Size > s.config.MaxUploadBytes {
			return nil, shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("Image is too large. Maximum size is %d MB", s.config.MaxUploadBytes/(1024*1024)))
		}
		total += r.Size
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.ReserveStorage(total); err != nil {
		return nil, err
	}

	tickets := make([]Ticket, 0, len(reqs))
	for _, r := range reqs {
		ct := strings.ToLower(r.ContentType)
		key := path.Join("wazhop", folder, userID.String(), uuid.NewString()+allowedContentTypes[ct])
		url, expires, err := s.storage.GenerateUploadURL(ctx, key, ct, s.config.PresignExpiry)
		if err != nil {
			s.logger.Error("Failed to presign upload", zap.String("key", key), zap.Error(err))
			return nil, fmt.Errorf("presign upload: %w", err)
		}
		tickets = append(tickets, Ticket{
			Key:         key,
			UploadURL:   url,
			PublicURL:   s.storage.PublicURL(key),
			ContentType: ct,
			Size:        r.Size,
			ExpiresAt:   expires,
		})
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("Upload reserved",
		zap.String("user_id", userID.String()),
		zap.Int("files", len(tickets)),
		zap.Int64("bytes", total))
	return tickets, nil
}

// Release deletes objects and gives their bytes back to the user's quota.
// Storage failures are logged; the quota is released regardless.
func (s *Service) Release(ctx context.Context, userID uuid.UUID, objects ...Object) int64 {
	freed := s.Delete(ctx, objects...)
	if freed == 0 {
		return 0
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("Could not release storage quota", zap.String("user_id", userID.String()), zap.Error(err))
		return freed
	}
	user.ReleaseStorage(freed)
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Warn("Could not release storage quota", zap.String("user_id", userID.String()), zap.Error(err))
	}
	return freed
}

// Delete removes objects from storage and returns their total size
func (s *Service) Delete(ctx context.Context, objects ...Object) int64 {
	var freed int64
	for _, o := range objects {
		if o.Key == "" {
			continue
		}
		size := o.Size
		if size == 0 {
			if n, err := s.storage.ObjectSize(ctx, o.Key); err == nil {
				size = n
			}
		}
		if err := s.storage.DeleteObject(ctx, o.Key); err != nil {
			s.logger.Warn("Failed to delete stored object", zap.String("key", o.Key), zap.Error(err))
			continue
		}
		freed += size
	}
	return freed
}
