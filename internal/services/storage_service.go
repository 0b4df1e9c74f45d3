// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zoorkhan/storefront/internal/config"
)

// Image extensions accepted for upload, keyed to the content type the bytes must sniff as.
var allowedImageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

type StorageService struct {
	s3Client s3iface.S3API
	aws      config.AWSConfig
	upload   config.UploadConfig
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// NewStorageService uses S3 when AWS credentials are configured and the local upload directory otherwise.
func NewStorageService(cfg *config.Config) (*StorageService, error) {
	storage := &StorageService{
		aws:    cfg.AWS,
		upload: cfg.Upload,
	}

	if cfg.AWS.AccessKeyID == "" {
		if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
		logrus.WithField("dir", cfg.Upload.Dir).Info("Using local file storage")
		return storage, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	storage.s3Client = s3.New(sess)
	logrus.WithField("bucket", cfg.AWS.S3Bucket).Info("Using S3 file storage")
	return storage, nil
}

func (s *StorageService) maxSize() int64 {
	return int64(s.upload.MaxSizeMB) * 1024 * 1024
}

// UploadImage validates and stores an image under folder.
func (s *StorageService) UploadImage(ctx context.Context, r io.Reader, filename, folder string) (*UploadResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	expectedType, ok := allowedImageTypes[ext]
	if !ok {
		return nil, ErrFileTypeInvalid
	}

	// Read one byte past the limit so oversized files are detected without trusting headers.
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize()+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > s.maxSize() {
		return nil, ErrFileTooLarge
	}

	if http.DetectContentType(data) != expectedType {
		return nil, ErrFileTypeInvalid
	}

	key := s.generateKey(ext, folder)
	if s.s3Client != nil {
		return s.uploadToS3(ctx, data, key, expectedType)
	}
	return s.uploadToLocal(data, key, expectedType)
}

func (s *StorageService) uploadToS3(ctx context.Context, data []byte, key, contentType string) (*UploadResult, error) {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.aws.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		ACL:           aws.String(s3.ObjectCannedACLPublicRead),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		URL:      s.s3URL(key),
		Key:      key,
		Size:     int64(len(data)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) uploadToLocal(data []byte, key, contentType string) (*UploadResult, error) {
	target := filepath.Join(s.upload.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &UploadResult{
		URL:      strings.TrimRight(s.upload.PublicBaseURL, "/") + "/" + key,
		Key:      key,
		Size:     int64(len(data)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) DeleteFile(ctx context.Context, key string) error {
	if s.s3Client == nil {
		target := filepath.Join(s.upload.Dir, filepath.FromSlash(path.Clean("/"+key)))
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete file: %w", err)
		}
		return nil
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.aws.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

func (s *StorageService) generateKey(ext, folder string) string {
	filename := fmt.Sprintf("%s_%s%s", time.Now().UTC().Format("20060102"), uuid.NewString()[:8], ext)
	if folder != "" {
		return path.Join(folder, filename)
	}
	return filename
}

func (s *StorageService) s3URL(key string) string {
	if s.aws.PublicBaseURL != "" {
		return strings.TrimRight(s.aws.PublicBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.aws.S3Bucket, s.aws.Region, key)
}
