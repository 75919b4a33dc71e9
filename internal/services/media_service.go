package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/linkplate/backend/internal/models"
)

// MediaService writes uploaded media to the Firebase Storage bucket under a
// per-user path. Image uploads land in pending/ first and are promoted only
// after SafeSearch clears them; audio and video have no screening API and go
// straight to their final path.
type MediaService struct {
	bucket     *storage.BucketHandle
	bucketName string
}

// NewMediaService bootstraps the Firebase app from a credentials JSON blob.
// Construction fails when credentials or the bucket name are absent; the
// server then runs without media upload.
func NewMediaService(ctx context.Context, credentialsJSON, bucketName string) (*MediaService, error) {
	if strings.TrimSpace(credentialsJSON) == "" || strings.TrimSpace(bucketName) == "" {
		return nil, ErrMediaNotConfigured
	}

	app, err := firebase.NewApp(ctx,
		&firebase.Config{StorageBucket: bucketName},
		option.WithCredentialsJSON([]byte(credentialsJSON)),
	)
	if err != nil {
		return nil, fmt.Errorf("media: firebase app: %w", err)
	}

	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("media: storage client: %w", err)
	}
	bucket, err := client.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("media: default bucket: %w", err)
	}

	return &MediaService{
		bucket:     bucket,
		bucketName: bucketName,
	}, nil
}

// Upload stores the bytes and returns the public download URL. Recording the
// URL on the profile is the caller's second, independently fallible step.
func (s *MediaService) Upload(ctx context.Context, userID string, filename string, contentType string, mediaType models.MediaType, file io.Reader) (string, error) {
	ext := filepath.Ext(filename)
	objectName := uuid.New().String() + ext
	finalPath := fmt.Sprintf("users/%s/media/%s", userID, objectName)

	if mediaType != models.MediaImage {
		if err := s.write(ctx, finalPath, contentType, file); err != nil {
			return "", err
		}
		return s.downloadURL(finalPath), nil
	}

	pendingPath := fmt.Sprintf("pending/users/%s/media/%s", userID, objectName)
	if err := s.write(ctx, pendingPath, contentType, file); err != nil {
		return "", err
	}

	gcsURI := fmt.Sprintf("gs://%s/%s", s.bucketName, pendingPath)
	ss, err := DetectSafeSearch(ctx, gcsURI)
	if err != nil {
		log.Printf("[Media] SafeSearch error path=%s err=%v", pendingPath, err)
		return "", fmt.Errorf("media: safesearch: %w", err)
	}
	if ss.IsUnsafe() {
		log.Printf("[Media] image UNSAFE user=%s, deleting %s", userID, pendingPath)
		if err := s.bucket.Object(pendingPath).Delete(ctx); err != nil {
			log.Printf("[Media] delete failed path=%s err=%v", pendingPath, err)
		}
		return "", ErrMediaRejected
	}

	// Safe: promote out of pending/.
	src := s.bucket.Object(pendingPath)
	dst := s.bucket.Object(finalPath)
	if _, err := dst.CopierFrom(src).Run(ctx); err != nil {
		return "", fmt.Errorf("media: promote: %w", err)
	}
	if err := src.Delete(ctx); err != nil {
		log.Printf("[Media] pending cleanup failed path=%s err=%v", pendingPath, err)
	}

	return s.downloadURL(finalPath), nil
}

func (s *MediaService) write(ctx context.Context, path string, contentType string, file io.Reader) error {
	w := s.bucket.Object(path).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, file); err != nil {
		w.Close()
		return fmt.Errorf("media: write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("media: write %s: %w", path, err)
	}
	return nil
}

func (s *MediaService) downloadURL(path string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, url.PathEscape(path))
}
